package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docstreamio/docstream/internal/models"
	"github.com/docstreamio/docstream/internal/store"
	memstore "github.com/docstreamio/docstream/internal/store/memory"
	"github.com/docstreamio/docstream/pkg/logger"
)

type fakeBlobs struct {
	mu       sync.Mutex
	presigns []string
	objects  map[string][]byte
}

func (f *fakeBlobs) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeBlobs) PresignedPut(ctx context.Context, key string, expiry time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presigns = append(f.presigns, key)
	return "https://blobs.example/" + key + "?sig=test", nil
}

func (f *fakeBlobs) Bucket() string { return "documents" }

func newTestService() (*Service, *memstore.Store, *fakeBlobs) {
	st := memstore.New()
	blobs := &fakeBlobs{objects: make(map[string][]byte)}
	svc := NewService(st, blobs, logger.NewTestLogger(), 0)
	return svc, st, blobs
}

func TestIngestCreatesRecord(t *testing.T) {
	svc, st, _ := newTestService()

	result, err := svc.Ingest(context.Background(), &Request{
		FileName: "invoice.pdf",
		FileType: "application/pdf",
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.DocumentID)
	assert.Contains(t, result.UploadURL, "documents/"+result.DocumentID+"/invoice.pdf")

	doc, err := st.Get(context.Background(), result.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUploaded, doc.Status)
	assert.Equal(t, models.StageUpload, doc.Stage)
	assert.Equal(t, "invoice.pdf", doc.FileName)
	assert.Equal(t, "application/pdf", doc.FileType)
	assert.Equal(t, "documents/"+result.DocumentID+"/invoice.pdf", doc.StorageKey)

	require.Len(t, doc.Stages, 5)
	assert.Equal(t, models.StageCompleted, doc.Stages[models.StageUpload].Status)
	for _, name := range []models.StageName{
		models.StageExtraction,
		models.StageClassification,
		models.StageSummarization,
		models.StageDisplay,
	} {
		assert.Equal(t, models.StagePending, doc.Stages[name].Status)
	}
}

func TestIngestUniqueIDsUnderConcurrency(t *testing.T) {
	svc, _, _ := newTestService()

	const n = 50
	var wg sync.WaitGroup
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := svc.Ingest(context.Background(), &Request{
				FileName: "doc.pdf",
				FileType: "application/pdf",
			})
			if err == nil {
				ids <- result.DocumentID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestIngestRejectsBadInput(t *testing.T) {
	svc, _, _ := newTestService()

	tests := []*Request{
		nil,
		{FileName: "", FileType: "application/pdf"},
		{FileName: "   ", FileType: "application/pdf"},
		{FileName: "invoice.pdf", FileType: ""},
		{FileName: "../../etc/passwd", FileType: "application/pdf"},
	}
	for _, req := range tests {
		_, err := svc.Ingest(context.Background(), req)
		assert.ErrorIs(t, err, ErrBadRequest)
	}
}

func TestStatusUnknownDocument(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Status(context.Background(), "missing")
	assert.Error(t, err)
}

func TestContentStreamsStoredObject(t *testing.T) {
	svc, st, blobs := newTestService()

	doc := models.NewDocument("doc-1", "invoice.pdf", "application/pdf", "documents/doc-1/invoice.pdf", time.Now())
	require.NoError(t, st.Create(context.Background(), doc))
	blobs.objects[doc.StorageKey] = []byte("stored bytes")

	got, rc, err := svc.Content(context.Background(), "doc-1")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "stored bytes", string(data))
	assert.Equal(t, "invoice.pdf", got.FileName)
}

func TestContentUnknownDocument(t *testing.T) {
	svc, _, _ := newTestService()
	_, _, err := svc.Content(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
