// Package simulator assembles a ready-to-use simulator from configuration:
// blob storage, the persistent store, metrics, the service and the initial
// data set. Presentation code talks to the returned Simulator only.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"stratsim/internal/blob"
	"stratsim/internal/catalog"
	"stratsim/internal/config"
	"stratsim/internal/core"
	"stratsim/internal/report"
)

// Simulator is an opened simulator instance.
type Simulator struct {
	*core.Service
	cfg      config.Config
	blobs    blob.Store
	exporter *report.Exporter
	logger   *slog.Logger
	restored bool
}

type options struct {
	logger     *slog.Logger
	blobs      blob.Store
	source     catalog.Source
	registerer prometheus.Registerer
	tracer     core.Tracer
	audit      core.AuditRecorder
	clock      core.Clock
	seed       *uint64
}

// Option customizes Open.
type Option func(*options)

// WithLogger replaces the logger built from the configuration.
func WithLogger(logger *slog.Logger) Option { return func(o *options) { o.logger = logger } }

// WithBlobStore replaces the blob store built from the configuration.
func WithBlobStore(store blob.Store) Option { return func(o *options) { o.blobs = store } }

// WithCatalogSource replaces the blob catalog source.
func WithCatalogSource(source catalog.Source) Option { return func(o *options) { o.source = source } }

// WithRegisterer registers Prometheus collectors with reg instead of the
// default registerer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithTracer sets the operation tracer.
func WithTracer(tracer core.Tracer) Option { return func(o *options) { o.tracer = tracer } }

// WithAuditRecorder sets the operation audit recorder.
func WithAuditRecorder(audit core.AuditRecorder) Option { return func(o *options) { o.audit = audit } }

// WithClock sets the service clock.
func WithClock(clock core.Clock) Option { return func(o *options) { o.clock = clock } }

// WithSeed overrides the configured link generator seed.
func WithSeed(seed uint64) Option { return func(o *options) { o.seed = &seed } }

// Open validates cfg, builds every collaborator and bootstraps the initial
// data set. A nil cfg means config.DefaultConfig.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Simulator, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		var err error
		if logger, err = cfg.NewLogger(os.Stderr); err != nil {
			return nil, err
		}
	}

	blobs := o.blobs
	if blobs == nil {
		var err error
		if blobs, err = blob.Open(ctx, cfg.Blob); err != nil {
			return nil, fmt.Errorf("open blob store: %w", err)
		}
	}

	metrics, err := newMetricsRecorder(cfg.Metrics, o.registerer)
	if err != nil {
		return nil, err
	}

	store, err := core.OpenPersistentStore(cfg.Storage, core.NewDefaultRulesEngine(), blobs)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	serviceOpts := []core.Option{core.WithLogger(logger), core.WithMetricsRecorder(metrics)}
	if o.tracer != nil {
		serviceOpts = append(serviceOpts, core.WithTracer(o.tracer))
	}
	if o.audit != nil {
		serviceOpts = append(serviceOpts, core.WithAuditRecorder(o.audit))
	}
	if o.clock != nil {
		serviceOpts = append(serviceOpts, core.WithClock(o.clock))
	}
	svc := core.NewService(store, serviceOpts...)

	source := o.source
	if source == nil {
		source = catalog.NewBlobSource(blobs, cfg.Catalog.Prefix)
	}
	seed := cfg.Catalog.Seed
	if o.seed != nil {
		seed = *o.seed
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	restored, err := svc.Bootstrap(ctx, source, catalog.NewSeeder(seed))
	if err != nil {
		return nil, errors.Join(err, svc.Close())
	}

	logger.Info("simulator ready",
		slog.String("storage", string(cfg.Storage.Driver)),
		slog.String("blob", string(blobs.Driver())),
		slog.Bool("restored", restored))
	return &Simulator{
		Service:  svc,
		cfg:      *cfg,
		blobs:    blobs,
		exporter: report.NewExporter(blobs, cfg.Reports.Prefix),
		logger:   logger,
		restored: restored,
	}, nil
}

func newMetricsRecorder(cfg config.MetricsConfig, reg prometheus.Registerer) (core.MetricsRecorder, error) {
	switch cfg.Driver {
	case config.MetricsPrometheus:
		rec, err := core.NewPrometheusMetricsRecorder(cfg.Namespace, reg)
		if err != nil {
			return nil, err
		}
		return rec, nil
	case config.MetricsExpvar:
		return core.NewExpvarMetricsRecorder(""), nil
	default:
		return nil, nil
	}
}

// Restored reports whether saved state replaced the catalog on open.
func (s *Simulator) Restored() bool { return s.restored }

// Blobs returns the blob store used for the catalog and reports.
func (s *Simulator) Blobs() blob.Store { return s.blobs }

// Config returns the configuration the simulator was opened with.
func (s *Simulator) Config() config.Config { return s.cfg }

// ExportReports writes every report table in the configured format and
// returns the blob keys written.
func (s *Simulator) ExportReports(ctx context.Context) ([]string, error) {
	return s.Service.ExportReports(ctx, s.exporter, s.cfg.Reports.Format)
}

// ReportURL returns a link to an exported report when the blob backend can
// produce one.
func (s *Simulator) ReportURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	url, err := s.blobs.PresignURL(ctx, key, blob.SignedURLOptions{Method: "GET", Expiry: expiry})
	if errors.Is(err, blob.ErrUnsupported) {
		return "", fmt.Errorf("blob driver %s cannot link reports: %w", s.blobs.Driver(), err)
	}
	return url, err
}
