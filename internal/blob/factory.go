package blob

import (
	"context"
	"fmt"
	"os"

	infraS3 "stratsim/internal/infra/blob/s3"
)

// Config selects and configures a blob backend.
type Config struct {
	Driver Driver   `yaml:"driver"`
	FSRoot string   `yaml:"fs_root"`
	S3     S3Config `yaml:"s3"`
}

// Open builds the Store described by cfg. An empty driver means fs.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverFilesystem:
		return NewFilesystem(cfg.FSRoot)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}

// ConfigFromEnv overlays environment variables onto base:
//
//	STRATSIM_BLOB_DRIVER   fs|s3|memory
//	STRATSIM_BLOB_FS_ROOT  directory root when driver=fs
//	STRATSIM_BLOB_S3_*     see the s3 backend
func ConfigFromEnv(base Config) Config {
	if v := os.Getenv("STRATSIM_BLOB_DRIVER"); v != "" {
		base.Driver = Driver(v)
	}
	if v := os.Getenv("STRATSIM_BLOB_FS_ROOT"); v != "" {
		base.FSRoot = v
	}
	base.S3 = infraS3.ConfigFromEnv(base.S3)
	return base
}
