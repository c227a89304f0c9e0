package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/docstreamio/docstream/internal/models"
	"github.com/docstreamio/docstream/internal/store"
)

// maxTxRetries bounds the optimistic WATCH loop. Contention on a single
// document is limited to a duplicate delivery of the same stage, so a
// handful of retries is plenty.
const maxTxRetries = 5

// Store keeps one JSON-encoded document per redis key. Updates run inside a
// WATCH/MULTI transaction so the read-validate-write cycle is atomic per
// call; this is the per-document-per-stage optimistic write guard that makes
// duplicate deliveries safe under real concurrency.
type Store struct {
	client    *redis.Client
	keyPrefix string
}

type Config struct {
	Addr      string
	DB        int
	KeyPrefix string
}

func New(cfg *Config) *Store {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "document"
	}
	return &Store{
		client:    redis.NewClient(&redis.Options{Addr: cfg.Addr, DB: cfg.DB}),
		keyPrefix: prefix,
	}
}

func (s *Store) key(id string) string {
	return fmt.Sprintf("%s:%s", s.keyPrefix, id)
}

func (s *Store) Create(ctx context.Context, doc *models.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.key(doc.DocumentID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	if !ok {
		return store.ErrAlreadyExists
	}
	return nil
}

func (s *Store) Update(ctx context.Context, id string, upd *store.Update) (*models.Document, error) {
	key := s.key(id)
	var result *models.Document

	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return store.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read document: %w", err)
		}

		var doc models.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to unmarshal document: %w", err)
		}
		if err := store.Apply(&doc, upd); err != nil {
			return err
		}

		next, err := json.Marshal(&doc)
		if err != nil {
			return fmt.Errorf("failed to marshal document: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			return nil
		})
		if err != nil {
			return err
		}
		result = &doc
		return nil
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, fmt.Errorf("update of %s aborted after %d conflicts", id, maxTxRetries)
}

func (s *Store) Get(ctx context.Context, id string) (*models.Document, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return &doc, nil
}

// Close releases the underlying redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}
