package storage

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Storage abstracts where skill verification documents live. The rest of the
// application only ever sees opaque paths like
// "skill-documents/<claim-id>/<file>".
type Storage interface {
	Save(ctx context.Context, path string, reader io.Reader, contentType string) error
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)

	// GetURL returns a stable public URL for the file.
	GetURL(ctx context.Context, path string) (string, error)

	// GetSignedURL returns a time-limited URL for documents that must not be
	// publicly reachable, such as ID scans attached to skill claims.
	GetSignedURL(ctx context.Context, path string, expiry time.Duration) (string, error)

	GetSize(ctx context.Context, path string) (int64, error)
}

// Config selects and parameterizes a storage backend.
type Config struct {
	Type      string // "local", "s3" or "cloudflare_r2"
	BasePath  string // local: directory files are written under
	BaseURL   string // public URL prefix, optional
	Bucket    string
	Region    string // ignored for R2, which uses "auto"
	AccessKey string
	SecretKey string
	Endpoint  string // required for R2, optional custom endpoint for S3
	UseSSL    bool
}

// NewStorage builds the backend named by cfg.Type. R2 is S3-compatible, so
// both object storage types share one implementation.
func NewStorage(cfg Config) (Storage, error) {
	switch cfg.Type {
	case "local":
		return NewLocalStorage(cfg)
	case "s3", "cloudflare_r2":
		return NewObjectStorage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
