package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/docstreamio/docstream/pkg/logger"
	"github.com/docstreamio/docstream/pkg/storage/minio"
	"github.com/docstreamio/docstream/pkg/storage/s3"
)

// Type selects a blob storage backend.
type Type string

const (
	TypeS3    Type = "s3"
	TypeMinio Type = "minio"
)

// Storage is the blob-store collaborator. Uploads go directly from the
// client to the store through a presigned URL; the service itself only
// reads objects back and issues write credentials.
type Storage interface {
	// Get reads an object back; serves the content download endpoint.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// PresignedPut returns a time-limited write-capable URL scoped to key.
	PresignedPut(ctx context.Context, key string, expiry time.Duration) (string, error)
	// Bucket names the backing bucket, carried on pipeline events.
	Bucket() string
}

// New creates a storage backend by type.
func New(storageType Type, log logger.Logger) (Storage, error) {
	switch storageType {
	case TypeS3:
		return s3.New(log)
	case TypeMinio:
		return minio.New(log)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
