package storage

import (
	"context"
	"io"
)

// BlobStore abstracts attachment blob storage. StoragePath values returned
// by Put are opaque to callers and only meaningful to the same store.
type BlobStore interface {
	Put(ctx context.Context, name string, reader io.Reader, size int64, contentType string) (string, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
}
