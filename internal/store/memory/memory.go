package memory

import (
	"context"
	"sync"

	"github.com/docstreamio/docstream/internal/models"
	"github.com/docstreamio/docstream/internal/store"
)

// Store is an in-memory record store. It backs tests and single-node
// deployments; the redis store is the durable production backend.
type Store struct {
	mu   sync.RWMutex
	docs map[string]*models.Document
}

func New() *Store {
	return &Store{docs: make(map[string]*models.Document)}
}

func (s *Store) Create(ctx context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[doc.DocumentID]; ok {
		return store.ErrAlreadyExists
	}
	s.docs[doc.DocumentID] = doc.Clone()
	return nil
}

func (s *Store) Update(ctx context.Context, id string, upd *store.Update) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, store.ErrNotFound
	}

	// Apply against a copy and swap so a rejected update leaves the stored
	// record untouched.
	next := doc.Clone()
	if err := store.Apply(next, upd); err != nil {
		return nil, err
	}
	s.docs[id] = next
	return next.Clone(), nil
}

func (s *Store) Get(ctx context.Context, id string) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return doc.Clone(), nil
}
