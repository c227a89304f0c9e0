package minio

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	cfg "github.com/docstreamio/docstream/config"
	"github.com/docstreamio/docstream/pkg/logger"
)

// Storage is the minio-backed blob store. Besides reads and presigned
// writes it can stream object-created notifications, which feed the
// pipeline's arrival trigger.
type Storage struct {
	client     *minio.Client
	bucketName string
	logger     logger.Logger
}

// ObjectEvent is an object-created notification. Key is URL-decoded.
type ObjectEvent struct {
	Bucket string
	Key    string
}

func New(log logger.Logger) (*Storage, error) {
	conf := cfg.Get()
	client, err := minio.New(conf.Minio.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(conf.Minio.AccessKey, conf.Minio.SecretKey, ""),
		Secure: conf.Minio.UseSSL,
		Region: conf.Minio.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	bucket := conf.Storage.Bucket
	exists, err := client.BucketExists(context.Background(), bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		err = client.MakeBucket(context.Background(), bucket, minio.MakeBucketOptions{
			Region: conf.Minio.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &Storage{
		client:     client,
		bucketName: bucket,
		logger:     log,
	}, nil
}

func (m *Storage) Bucket() string {
	return m.bucketName
}

func (m *Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, m.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		m.logger.Error("Failed to get object",
			logger.String("bucket", m.bucketName),
			logger.String("key", key),
			logger.Error(err),
		)
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return obj, nil
}

// PresignedPut returns a write-capable URL scoped to one key. The client
// uploads directly to the store; the pipeline starts once the bytes land.
func (m *Storage) PresignedPut(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := m.client.PresignedPutObject(ctx, m.bucketName, key, expiry)
	if err != nil {
		return "", fmt.Errorf("failed to presign put: %w", err)
	}
	return u.String(), nil
}

// ListenObjectCreated streams object-created notifications for keys under
// prefix until ctx is cancelled.
func (m *Storage) ListenObjectCreated(ctx context.Context, prefix string) (<-chan ObjectEvent, error) {
	out := make(chan ObjectEvent)
	infos := m.client.ListenBucketNotification(ctx, m.bucketName, prefix, "", []string{
		"s3:ObjectCreated:*",
	})

	go func() {
		defer close(out)
		for info := range infos {
			if info.Err != nil {
				m.logger.Error("Bucket notification error", logger.Error(info.Err))
				continue
			}
			for _, rec := range info.Records {
				if !strings.HasPrefix(rec.EventName, "s3:ObjectCreated") {
					continue
				}
				select {
				case out <- ObjectEvent{Bucket: rec.S3.Bucket.Name, Key: rec.S3.Object.Key}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
