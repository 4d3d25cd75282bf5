package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"stratsim/internal/infra/persistence/memory"
	"stratsim/pkg/domain"
)

type captureAuditRecorder struct {
	entries []AuditEntry
}

func (c *captureAuditRecorder) Record(_ context.Context, entry AuditEntry) {
	c.entries = append(c.entries, entry)
}

func (c *captureAuditRecorder) has(op string, status AuditStatus, predicate func(AuditEntry) bool) bool {
	for _, entry := range c.entries {
		if entry.Operation == op && entry.Status == status {
			if predicate == nil || predicate(entry) {
				return true
			}
		}
	}
	return false
}

type metricsCall struct {
	op       string
	success  bool
	duration time.Duration
}

type captureMetricsRecorder struct {
	calls []metricsCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, duration time.Duration) {
	c.calls = append(c.calls, metricsCall{op: op, success: success, duration: duration})
}

func (c *captureMetricsRecorder) has(op string, success bool) bool {
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

type captureTracer struct {
	started []string
	ended   []spanRecord
}

type spanRecord struct {
	op  string
	err error
}

func (c *captureTracer) Start(ctx context.Context, op string) (context.Context, TraceSpan) {
	c.started = append(c.started, op)
	return ctx, &captureSpan{tracer: c, op: op}
}

func (c *captureTracer) has(op string, success bool) bool {
	for _, record := range c.ended {
		if record.op == op && (record.err == nil) == success {
			return true
		}
	}
	return false
}

type captureSpan struct {
	tracer *captureTracer
	op     string
}

func (s *captureSpan) End(err error) {
	s.tracer.ended = append(s.tracer.ended, spanRecord{op: s.op, err: err})
}

type captureLogger struct {
	warnings []string
	errors   []string
}

func (l *captureLogger) Debug(string, ...any) {}
func (l *captureLogger) Info(string, ...any)  {}

func (l *captureLogger) Warn(msg string, _ ...any) {
	l.warnings = append(l.warnings, msg)
}

func (l *captureLogger) Error(msg string, _ ...any) {
	l.errors = append(l.errors, msg)
}

type blockingRule struct{}

func (blockingRule) Name() string { return "always_block" }

func (blockingRule) Evaluate(context.Context, domain.RuleView, []domain.Change) (domain.Result, error) {
	return domain.Result{Violations: []domain.Violation{{Rule: "always_block", Severity: domain.SeverityBlock, Message: "no"}}}, nil
}

func TestServiceObservabilityOnSuccess(t *testing.T) {
	ctx := context.Background()
	audit := &captureAuditRecorder{}
	metrics := &captureMetricsRecorder{}
	tracer := &captureTracer{}
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	svc := newTestService(t,
		WithAuditRecorder(audit),
		WithMetricsRecorder(metrics),
		WithTracer(tracer),
		WithClock(ClockFunc(func() time.Time { return fixed })),
	)
	client, _, err := svc.AddClient(ctx, Client{Name: "Banco Norte", Type: domain.ClientTypeBank})
	if err != nil {
		t.Fatalf("add client: %v", err)
	}
	if !audit.has("add_client", AuditStatusSuccess, func(e AuditEntry) bool {
		return e.EntityID == "1" && e.Entity == EntityClient && e.StartedAt.Equal(fixed) && e.FinishedAt.Equal(fixed)
	}) {
		t.Fatalf("expected audit entry for client %d, got %+v", client.ID, audit.entries)
	}
	if !metrics.has("add_client", true) {
		t.Fatalf("expected metrics call, got %+v", metrics.calls)
	}
	if metrics.calls[0].duration != 0 {
		t.Fatalf("expected zero duration under a fixed clock, got %v", metrics.calls[0].duration)
	}
	if !tracer.has("add_client", true) {
		t.Fatalf("expected successful span, got %+v", tracer.ended)
	}
}

func TestServiceObservabilityOnBlockedCommit(t *testing.T) {
	ctx := context.Background()
	audit := &captureAuditRecorder{}
	metrics := &captureMetricsRecorder{}
	tracer := &captureTracer{}
	logger := &captureLogger{}
	engine := NewRulesEngine()
	engine.Register(blockingRule{})

	svc := NewService(memory.NewStore(engine),
		WithAuditRecorder(audit),
		WithMetricsRecorder(metrics),
		WithTracer(tracer),
		WithLogger(logger),
	)
	_, res, err := svc.AddProduct(ctx, Product{Name: "Digital Wallet"})
	var blocked RuleViolationError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected rule violation error, got %v", err)
	}
	if !res.HasBlocking() {
		t.Fatalf("expected blocking result, got %+v", res)
	}
	if !audit.has("add_product", AuditStatusError, func(e AuditEntry) bool { return strings.Contains(e.Error, "always_block") }) {
		t.Fatalf("expected audit error entry, got %+v", audit.entries)
	}
	if !metrics.has("add_product", false) || !tracer.has("add_product", false) {
		t.Fatalf("expected failure recorded by metrics and tracer")
	}
	if len(logger.errors) != 1 {
		t.Fatalf("expected one error log, got %v", logger.errors)
	}
	products, _ := svc.Products(ctx)
	if len(products) != 0 {
		t.Fatalf("blocked commit must not change state, got %+v", products)
	}
}

func TestServiceLogsWarnings(t *testing.T) {
	ctx := context.Background()
	logger := &captureLogger{}
	audit := &captureAuditRecorder{}
	svc := newTestService(t, WithLogger(logger), WithAuditRecorder(audit))
	if _, _, err := svc.AddProduct(ctx, Product{Name: "Odd", MarketShare: 140}); err != nil {
		t.Fatalf("add product: %v", err)
	}
	if len(logger.warnings) != 1 {
		t.Fatalf("expected one warning log, got %v", logger.warnings)
	}
	if !audit.has("add_product", AuditStatusSuccess, func(e AuditEntry) bool { return e.Warnings == 1 }) {
		t.Fatalf("expected warning count on audit entry, got %+v", audit.entries)
	}
}

func TestNilOptionsKeepDefaults(t *testing.T) {
	svc := newTestService(t, WithLogger(nil), WithClock(nil), WithMetricsRecorder(nil), WithTracer(nil), WithAuditRecorder(nil))
	if _, _, err := svc.AddClient(context.Background(), Client{Name: "A"}); err != nil {
		t.Fatalf("add client: %v", err)
	}
}

func TestExpvarMetricsRecorder(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	if expvar.Get(rec.Name()) == nil {
		t.Fatalf("expected recorder published under %s", rec.Name())
	}
	ctx := context.Background()
	rec.Observe(ctx, "add_client", true, 2*time.Millisecond)
	rec.Observe(ctx, "add_client", false, 3*time.Millisecond)
	rec.Observe(ctx, "", true, time.Second)

	snap := rec.Snapshot()
	if snap.DurationsMS["add_client"] != 5 {
		t.Fatalf("expected 5ms total, got %v", snap.DurationsMS)
	}
	if snap.Results["add_client"]["success"] != 1 || snap.Results["add_client"]["error"] != 1 {
		t.Fatalf("unexpected results %v", snap.Results)
	}
	if len(snap.Results) != 1 {
		t.Fatalf("expected blank operation ignored, got %v", snap.Results)
	}
	var decoded ExpvarMetricsSnapshot
	if err := json.Unmarshal([]byte(expvar.Get(rec.Name()).String()), &decoded); err != nil {
		t.Fatalf("decode expvar: %v", err)
	}
	if decoded.Results["add_client"]["success"] != 1 {
		t.Fatalf("unexpected published snapshot %+v", decoded)
	}
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder("test", reg)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	svc := newTestService(t, WithMetricsRecorder(rec))
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, _, err := svc.AddClient(ctx, Client{Name: "C"}); err != nil {
			t.Fatalf("add client: %v", err)
		}
	}
	if got := testutil.ToFloat64(rec.operations.WithLabelValues("add_client", "success")); got != 3 {
		t.Fatalf("expected 3 successes, got %v", got)
	}
	if n := testutil.CollectAndCount(rec.durations); n != 1 {
		t.Fatalf("expected one histogram series, got %d", n)
	}
	if _, err := NewPrometheusMetricsRecorder("test", reg); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}

func TestJSONTracer(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)
	ctx := context.Background()
	_, span := tracer.Start(ctx, "save_state")
	span.End(nil)
	_, span = tracer.Start(ctx, "load_state")
	span.End(errors.New("boom"))

	entries := tracer.Entries()
	if len(entries) != 2 || entries[0].Status != "success" || entries[1].Error != "boom" {
		t.Fatalf("unexpected entries %+v", entries)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two JSON lines, got %q", buf.String())
	}
	var first JSONTraceEntry
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil || first.Operation != "save_state" {
		t.Fatalf("decode first line: %v %+v", err, first)
	}

	silent := NewJSONTracer(nil)
	_, span = silent.Start(ctx, "op")
	span.End(nil)
	if len(silent.Entries()) != 1 {
		t.Fatalf("expected retained entry without writer")
	}
}

func TestNoopLogger(t *testing.T) {
	var logger Logger = noopLogger{}
	logger.Debug("m", "k", "v")
	logger.Info("m")
	logger.Warn("m")
	logger.Error("m")
}
