package trigger

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docstreamio/docstream/internal/pipeline"
	"github.com/docstreamio/docstream/pkg/events"
	"github.com/docstreamio/docstream/pkg/logger"
)

type captureBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *captureBus) Publish(ctx context.Context, evt events.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, evt)
	return nil
}

func (b *captureBus) Subscribe(source, detailType string, h events.Handler) {}

func TestParseDocumentKey(t *testing.T) {
	tests := []struct {
		key    string
		wantID string
		wantOK bool
	}{
		{"documents/abc-123/invoice.pdf", "abc-123", true},
		{"documents/abc-123/nested/name.pdf", "abc-123", true},
		{"documents/invoice.pdf", "", false},
		{"uploads/abc-123/invoice.pdf", "", false},
		{"documents//invoice.pdf", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		id, ok := ParseDocumentKey(tt.key)
		assert.Equal(t, tt.wantOK, ok, "key %q", tt.key)
		assert.Equal(t, tt.wantID, id, "key %q", tt.key)
	}
}

func TestHandleObjectCreatedPublishes(t *testing.T) {
	bus := &captureBus{}
	tr := New(bus, logger.NewTestLogger())

	err := tr.HandleObjectCreated(context.Background(), "documents", "documents/doc-1/invoice.pdf")
	require.NoError(t, err)
	require.Len(t, bus.published, 1)

	evt := bus.published[0]
	assert.Equal(t, pipeline.SourceUpload, evt.Source)
	assert.Equal(t, pipeline.EventDocumentUploaded, evt.DetailType)

	var detail pipeline.UploadDetail
	require.NoError(t, json.Unmarshal(evt.Detail, &detail))
	assert.Equal(t, "doc-1", detail.DocumentID)
	assert.Equal(t, "documents/doc-1/invoice.pdf", detail.StorageKey)
	assert.Equal(t, "documents", detail.Bucket)
}

func TestHandleObjectCreatedDecodesKey(t *testing.T) {
	bus := &captureBus{}
	tr := New(bus, logger.NewTestLogger())

	// Notification keys arrive URL-encoded, with '+' standing in for space.
	err := tr.HandleObjectCreated(context.Background(), "documents", "documents/doc-1/my+report%202.pdf")
	require.NoError(t, err)
	require.Len(t, bus.published, 1)

	var detail pipeline.UploadDetail
	require.NoError(t, json.Unmarshal(bus.published[0].Detail, &detail))
	assert.Equal(t, "documents/doc-1/my report 2.pdf", detail.StorageKey)
}

func TestHandleObjectCreatedIgnoresOtherKeys(t *testing.T) {
	bus := &captureBus{}
	tr := New(bus, logger.NewTestLogger())

	for _, key := range []string{"tmp/scratch.bin", "documents/loose-file.pdf", "logs/2026/app.log"} {
		require.NoError(t, tr.HandleObjectCreated(context.Background(), "documents", key))
	}
	assert.Empty(t, bus.published)
}
