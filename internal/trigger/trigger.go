// Package trigger turns object-created notifications from blob storage into
// the first pipeline event. It decouples upload completion from the
// synchronous ingestion response: the client gets a write location
// immediately, the pipeline starts only once the bytes actually land.
package trigger

import (
	"context"
	"net/url"
	"strings"

	"github.com/docstreamio/docstream/internal/pipeline"
	"github.com/docstreamio/docstream/pkg/events"
	"github.com/docstreamio/docstream/pkg/logger"
	miniostorage "github.com/docstreamio/docstream/pkg/storage/minio"
)

// UploadPrefix scopes notifications to pipeline uploads.
const UploadPrefix = "documents/"

// Listener streams object-created notifications; the minio storage backend
// implements it.
type Listener interface {
	ListenObjectCreated(ctx context.Context, prefix string) (<-chan miniostorage.ObjectEvent, error)
}

// Trigger publishes "Document Uploaded" events for arriving objects.
type Trigger struct {
	bus events.Bus
	log logger.Logger
}

func New(bus events.Bus, log logger.Logger) *Trigger {
	return &Trigger{bus: bus, log: log}
}

// HandleObjectCreated processes one notification. Keys that do not match
// the documents/{documentId}/{fileName} shape are ignored, not errors.
func (t *Trigger) HandleObjectCreated(ctx context.Context, bucket, rawKey string) error {
	key, err := url.QueryUnescape(rawKey)
	if err != nil {
		key = rawKey
	}

	documentID, ok := ParseDocumentKey(key)
	if !ok {
		t.log.Debug("Ignoring object outside upload shape", logger.String("key", key))
		return nil
	}

	evt, err := events.NewEvent(pipeline.SourceUpload, pipeline.EventDocumentUploaded, pipeline.UploadDetail{
		DocumentID: documentID,
		StorageKey: key,
		Bucket:     bucket,
	})
	if err != nil {
		return err
	}
	if err := t.bus.Publish(ctx, evt); err != nil {
		return err
	}

	t.log.Info("Pipeline triggered",
		logger.String("documentId", documentID),
		logger.String("key", key),
	)
	return nil
}

// Run consumes notifications until ctx is cancelled. Individual handling
// failures are logged and skipped; the at-least-once channel brings no
// redelivery here, but a lost trigger only leaves the record observable in
// its uploaded state.
func (t *Trigger) Run(ctx context.Context, l Listener) error {
	ch, err := l.ListenObjectCreated(ctx, UploadPrefix)
	if err != nil {
		return err
	}
	for evt := range ch {
		if err := t.HandleObjectCreated(ctx, evt.Bucket, evt.Key); err != nil {
			t.log.Error("Failed to trigger pipeline",
				logger.String("key", evt.Key),
				logger.Error(err),
			)
		}
	}
	return ctx.Err()
}

// ParseDocumentKey recovers the document id from a storage key of shape
// documents/{documentId}/{fileName}.
func ParseDocumentKey(key string) (string, bool) {
	parts := strings.Split(key, "/")
	if len(parts) >= 3 && parts[0] == "documents" && parts[1] != "" && parts[2] != "" {
		return parts[1], true
	}
	return "", false
}
