package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/docstreamio/docstream/internal/models"
	"github.com/docstreamio/docstream/internal/store"
	"github.com/docstreamio/docstream/pkg/events"
	"github.com/docstreamio/docstream/pkg/logger"
)

// executor runs one stage's capability call against the inbound detail and
// returns the result write plus the outbound detail for the next stage.
type executor func(ctx context.Context, doc *models.Document, detail json.RawMessage) (*store.Update, any, error)

// stage is the shared processor harness. Four instances exist, each
// parameterized by inbound match, capability, written fields and outbound
// event; no stage knows about any other.
type stage struct {
	name       models.StageName
	inSource   string
	inType     string
	outSource  string
	outType    string
	timeout    time.Duration
	markStatus bool // first stage also flips the document to processing
	exec       executor
	// resume rebuilds the outbound detail from the record alone, for
	// duplicate deliveries arriving after completion.
	resume func(doc *models.Document) any

	store store.Store
	bus   events.Bus
	log   logger.Logger
	now   func() time.Time
}

// Handle processes one inbound event. It is safe to re-invoke with the same
// event: a delivery after completion short-circuits to a re-emit without
// touching the capability, and in-flight duplicates collapse onto the same
// last-write-wins sub-record writes.
func (s *stage) Handle(ctx context.Context, evt events.Event) error {
	var head struct {
		DocumentID string `json:"documentId"`
	}
	if err := json.Unmarshal(evt.Detail, &head); err != nil || head.DocumentID == "" {
		return fmt.Errorf("event detail missing documentId: %s", evt.Detail)
	}
	id := head.DocumentID
	log := s.log.With(
		logger.String("documentId", id),
		logger.String("stage", string(s.name)),
	)

	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load document %s: %w", id, err)
	}

	state, ok := doc.Stages[s.name]
	if !ok {
		// Records written through NewDocument always carry all five entries;
		// a missing one means the stored record is corrupt.
		return fmt.Errorf("document %s has no %s stage entry", id, s.name)
	}
	if state.Status == models.StageCompleted {
		// Duplicate delivery after completion: re-emit the continuation so
		// the pipeline keeps moving, but never re-invoke the capability.
		log.Info("Stage already completed, re-emitting continuation")
		return s.emit(ctx, s.resume(doc))
	}

	upd := store.NewUpdate().
		SetStage(s.name).
		SetStageStatus(s.name, models.StageProcessing).
		SetStageTimestamp(s.name, s.now().UnixMilli())
	if s.markStatus || doc.Status == models.StatusFailed {
		// A stage retried after a failed mark moves the document forward
		// again.
		upd.SetStatus(models.StatusProcessing)
	}
	if _, err := s.store.Update(ctx, id, upd); err != nil {
		return s.fail(ctx, id, log, fmt.Errorf("failed to mark stage processing: %w", err))
	}

	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, next, err := s.exec(runCtx, doc, evt.Detail)
	if err != nil {
		return s.fail(ctx, id, log, err)
	}

	result.SetStageStatus(s.name, models.StageCompleted)
	if _, err := s.store.Update(ctx, id, result); err != nil {
		return s.fail(ctx, id, log, fmt.Errorf("failed to write stage result: %w", err))
	}

	log.Info("Stage completed")
	return s.emit(ctx, next)
}

// fail records the failure on the record and re-raises the cause so the
// channel's own redelivery policy decides whether the stage runs again. No
// continuation event is published; the pipeline halts for this document.
func (s *stage) fail(ctx context.Context, id string, log logger.Logger, cause error) error {
	log.Error("Stage failed", logger.Error(cause))

	// The run context may already be expired; the failure must still land.
	writeCtx := context.WithoutCancel(ctx)
	upd := store.NewUpdate().
		SetStatus(models.StatusFailed).
		SetErrorMessage(cause.Error()).
		SetStageStatus(s.name, models.StageFailed).
		SetStageError(s.name, cause.Error())
	if _, err := s.store.Update(writeCtx, id, upd); err != nil {
		log.Error("Failed to record stage failure", logger.Error(err))
	}
	return cause
}

func (s *stage) emit(ctx context.Context, detail any) error {
	if detail == nil || s.outType == "" {
		return nil
	}
	evt, err := events.NewEvent(s.outSource, s.outType, detail)
	if err != nil {
		return err
	}
	return s.bus.Publish(ctx, evt)
}
