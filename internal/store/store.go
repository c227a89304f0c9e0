package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/docstreamio/docstream/internal/models"
)

var (
	// ErrNotFound is returned when no record exists for a document id.
	ErrNotFound = errors.New("document not found")
	// ErrAlreadyExists is returned when creating a record for an id in use.
	ErrAlreadyExists = errors.New("document already exists")
	// ErrIllegalTransition is returned when an update would move a status
	// backwards against the transition table.
	ErrIllegalTransition = errors.New("illegal status transition")
)

// Store is durable keyed storage for document records. Updates are atomic
// per call; no cross-call transaction is provided or needed because each
// pipeline stage writes disjoint fields.
type Store interface {
	Create(ctx context.Context, doc *models.Document) error
	Update(ctx context.Context, id string, upd *Update) (*models.Document, error)
	Get(ctx context.Context, id string) (*models.Document, error)
}

// Update is a partial, field-scoped mutation of one record. Setters
// accumulate (path, value) pairs; Apply validates status transitions at the
// store boundary and applies all of them or none.
type Update struct {
	status         *models.DocumentStatus
	stage          *models.StageName
	extractedText  *string
	classification *string
	entities       []models.Entity
	summary        *string
	errorMessage   *string
	stages         map[models.StageName]*stageUpdate
}

type stageUpdate struct {
	status       *models.StageStatus
	timestamp    *int64
	errorMessage *string
	result       json.RawMessage
}

func NewUpdate() *Update {
	return &Update{stages: make(map[models.StageName]*stageUpdate)}
}

func (u *Update) SetStatus(s models.DocumentStatus) *Update {
	u.status = &s
	return u
}

func (u *Update) SetStage(s models.StageName) *Update {
	u.stage = &s
	return u
}

func (u *Update) SetExtractedText(text string) *Update {
	u.extractedText = &text
	return u
}

func (u *Update) SetClassification(label string) *Update {
	u.classification = &label
	return u
}

func (u *Update) SetEntities(entities []models.Entity) *Update {
	u.entities = entities
	return u
}

func (u *Update) SetSummary(summary string) *Update {
	u.summary = &summary
	return u
}

func (u *Update) SetErrorMessage(msg string) *Update {
	u.errorMessage = &msg
	return u
}

func (u *Update) stageFor(name models.StageName) *stageUpdate {
	su, ok := u.stages[name]
	if !ok {
		su = &stageUpdate{}
		u.stages[name] = su
	}
	return su
}

func (u *Update) SetStageStatus(name models.StageName, s models.StageStatus) *Update {
	u.stageFor(name).status = &s
	return u
}

func (u *Update) SetStageTimestamp(name models.StageName, millis int64) *Update {
	u.stageFor(name).timestamp = &millis
	return u
}

func (u *Update) SetStageError(name models.StageName, msg string) *Update {
	u.stageFor(name).errorMessage = &msg
	return u
}

func (u *Update) SetStageResult(name models.StageName, result any) *Update {
	data, err := json.Marshal(result)
	if err != nil {
		// Result payloads are plain structs and strings; a marshal failure
		// here is a programming error.
		panic(fmt.Sprintf("store: unmarshalable stage result: %v", err))
	}
	u.stageFor(name).result = data
	return u
}

// Apply mutates doc in place. Both store backends funnel writes through this
// one validation path so illegal transitions are rejected regardless of
// backend. The caller passes a private copy; on error doc must be discarded.
func Apply(doc *models.Document, u *Update) error {
	if u.status != nil {
		if !models.CanTransitionStatus(doc.Status, *u.status) {
			return fmt.Errorf("%w: status %s -> %s", ErrIllegalTransition, doc.Status, *u.status)
		}
	}
	for name, su := range u.stages {
		state, ok := doc.Stages[name]
		if !ok {
			return fmt.Errorf("unknown stage %q", name)
		}
		if su.status != nil && !models.CanTransition(state.Status, *su.status) {
			return fmt.Errorf("%w: stage %s %s -> %s", ErrIllegalTransition, name, state.Status, *su.status)
		}
	}

	if u.status != nil {
		doc.Status = *u.status
	}
	if u.stage != nil {
		doc.Stage = *u.stage
	}
	if u.extractedText != nil {
		doc.ExtractedText = *u.extractedText
	}
	if u.classification != nil {
		doc.Classification = *u.classification
	}
	if u.entities != nil {
		doc.Entities = u.entities
	}
	if u.summary != nil {
		doc.Summary = *u.summary
	}
	if u.errorMessage != nil {
		doc.ErrorMessage = *u.errorMessage
	}
	for name, su := range u.stages {
		state := doc.Stages[name]
		if su.status != nil {
			state.Status = *su.status
		}
		if su.timestamp != nil {
			state.Timestamp = *su.timestamp
		}
		if su.errorMessage != nil {
			state.ErrorMessage = *su.errorMessage
		}
		if su.result != nil {
			state.Result = su.result
		}
	}
	return nil
}
