// Package storage keeps the blobs behind uploaded site files.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mhsanaei/blogpanel/config"
)

// ErrObjectNotFound is returned by Get for a key that was never stored.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// New builds the backend selected by cfg and makes sure its bucket exists.
func New(ctx context.Context, cfg *config.StorageConfig) (ObjectStorage, error) {
	if err := cfg.ValidateConfig(); err != nil {
		return nil, err
	}
	var (
		backend ObjectStorage
		err     error
	)
	switch cfg.Type {
	case config.StorageTypeMinio:
		backend, err = NewMinioClient(cfg.Minio)
	default:
		backend = NewLocalStorage(cfg.Local.Root)
	}
	if err != nil {
		return nil, err
	}
	if err := backend.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("prepare %s storage: %w", cfg.Type, err)
	}
	return backend, nil
}
