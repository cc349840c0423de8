package storage

import (
	"context"
	"io"
)

// Storage is the object store used for generated partner reports.
type Storage interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Exists(ctx context.Context, key string) (bool, error)
	URL(key string) string
}

// Config selects and configures a backend. An empty Bucket selects local disk.
type Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicURL       string

	LocalPath    string
	LocalBaseURL string
}

// New builds the configured backend.
func New(ctx context.Context, cfg Config) (Storage, error) {
	if cfg.Bucket == "" {
		return NewLocalStorage(cfg.LocalPath, cfg.LocalBaseURL)
	}
	return NewS3Storage(ctx, cfg)
}
