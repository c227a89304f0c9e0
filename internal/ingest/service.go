// Package ingest accepts new documents: it allocates an id, creates the
// initial record and hands the client a short-lived write location. The
// pipeline itself starts later, once the bytes land in blob storage.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docstreamio/docstream/internal/models"
	"github.com/docstreamio/docstream/internal/store"
	"github.com/docstreamio/docstream/pkg/logger"
	"github.com/docstreamio/docstream/pkg/storage"
)

// ErrBadRequest marks user-correctable input problems.
var ErrBadRequest = errors.New("invalid ingestion request")

// DefaultUploadTTL bounds how long the returned write URL stays valid.
const DefaultUploadTTL = 5 * time.Minute

// Request is the ingestion payload.
type Request struct {
	FileName string `json:"fileName" binding:"required"`
	FileType string `json:"fileType" binding:"required"`
}

// Result is returned to the client: the new id and where to put the bytes.
type Result struct {
	DocumentID string `json:"documentId"`
	UploadURL  string `json:"uploadUrl"`
}

// Service creates document records and issues upload locations.
type Service struct {
	store     store.Store
	blobs     storage.Storage
	logger    logger.Logger
	uploadTTL time.Duration
	newID     func() string
	now       func() time.Time
}

func NewService(st store.Store, blobs storage.Storage, log logger.Logger, uploadTTL time.Duration) *Service {
	if uploadTTL == 0 {
		uploadTTL = DefaultUploadTTL
	}
	return &Service{
		store:     st,
		blobs:     blobs,
		logger:    log,
		uploadTTL: uploadTTL,
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// Ingest validates the request, creates the record with all five stage
// entries pre-populated, and returns the presigned write location.
func (s *Service) Ingest(ctx context.Context, req *Request) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	id := s.newID()
	key := ObjectKey(id, req.FileName)

	uploadURL, err := s.blobs.PresignedPut(ctx, key, s.uploadTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	doc := models.NewDocument(id, req.FileName, req.FileType, key, s.now())
	if err := s.store.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create document record: %w", err)
	}

	s.logger.Info("Document ingested",
		logger.String("documentId", id),
		logger.String("fileName", req.FileName),
	)
	return &Result{DocumentID: id, UploadURL: uploadURL}, nil
}

// Status returns the full current record for polling clients.
func (s *Service) Status(ctx context.Context, documentID string) (*models.Document, error) {
	return s.store.Get(ctx, documentID)
}

// Content streams the stored original back, along with its record so the
// caller can set content headers. The caller closes the reader.
func (s *Service) Content(ctx context.Context, documentID string) (*models.Document, io.ReadCloser, error) {
	doc, err := s.store.Get(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Get(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open stored object: %w", err)
	}
	return doc, rc, nil
}

// ObjectKey derives the storage key for an upload.
func ObjectKey(documentID, fileName string) string {
	return fmt.Sprintf("documents/%s/%s", documentID, fileName)
}

func validate(req *Request) error {
	if req == nil {
		return fmt.Errorf("%w: empty payload", ErrBadRequest)
	}
	if strings.TrimSpace(req.FileName) == "" {
		return fmt.Errorf("%w: fileName is required", ErrBadRequest)
	}
	if strings.Contains(req.FileName, "/") {
		return fmt.Errorf("%w: fileName must not contain '/'", ErrBadRequest)
	}
	if strings.TrimSpace(req.FileType) == "" {
		return fmt.Errorf("%w: fileType is required", ErrBadRequest)
	}
	return nil
}
