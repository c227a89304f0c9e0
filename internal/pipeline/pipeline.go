// Package pipeline implements the document-processing state machine: four
// structurally identical stage processors coupled only through the record
// store and the event channel.
package pipeline

import (
	"time"

	"github.com/docstreamio/docstream/internal/engines"
	"github.com/docstreamio/docstream/internal/models"
	"github.com/docstreamio/docstream/internal/store"
	"github.com/docstreamio/docstream/pkg/events"
	"github.com/docstreamio/docstream/pkg/logger"
)

// Event sources and detail types, one pair per producer.
const (
	SourceUpload         = "idp.upload"
	SourceExtraction     = "idp.extraction"
	SourceClassification = "idp.classification"
	SourceSummarization  = "idp.summarization"

	EventDocumentUploaded   = "Document Uploaded"
	EventTextExtracted      = "Text Extracted"
	EventDocumentClassified = "Document Classified"
	EventDocumentSummarized = "Document Summarized"
)

// Detail payloads carried between stages. Each carries the document id plus
// every field the next stage needs, so stages never call each other.
type UploadDetail struct {
	DocumentID string `json:"documentId"`
	StorageKey string `json:"storageKey"`
	Bucket     string `json:"bucket"`
}

type ExtractionDetail struct {
	DocumentID    string `json:"documentId"`
	ExtractedText string `json:"extractedText"`
}

type ClassificationDetail struct {
	DocumentID     string          `json:"documentId"`
	ExtractedText  string          `json:"extractedText"`
	Classification string          `json:"classification"`
	Entities       []models.Entity `json:"entities"`
}

type SummaryDetail struct {
	DocumentID string `json:"documentId"`
	Summary    string `json:"summary"`
}

// Config bounds each stage's execution. Finalization runs unbounded; it
// only writes the terminal record state.
type Config struct {
	ExtractionTimeout     time.Duration
	ClassificationTimeout time.Duration
	SummarizationTimeout  time.Duration
}

// Pipeline owns the four stage processors.
type Pipeline struct {
	stages map[models.StageName]*stage
}

// New wires the stages against the record store, event bus and engines.
func New(
	st store.Store,
	bus events.Bus,
	ocr engines.OCREngine,
	entities engines.EntityEngine,
	log logger.Logger,
	cfg *Config,
) *Pipeline {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.ExtractionTimeout == 0 {
		cfg.ExtractionTimeout = 5 * time.Minute
	}
	if cfg.ClassificationTimeout == 0 {
		cfg.ClassificationTimeout = 3 * time.Minute
	}
	if cfg.SummarizationTimeout == 0 {
		cfg.SummarizationTimeout = 3 * time.Minute
	}

	base := func(name models.StageName) *stage {
		return &stage{
			name:  name,
			store: st,
			bus:   bus,
			log:   log.Named(string(name)),
			now:   time.Now,
		}
	}

	extraction := base(models.StageExtraction)
	extraction.inSource = SourceUpload
	extraction.inType = EventDocumentUploaded
	extraction.outSource = SourceExtraction
	extraction.outType = EventTextExtracted
	extraction.timeout = cfg.ExtractionTimeout
	extraction.markStatus = true
	extraction.exec = extractionExec(ocr)
	extraction.resume = extractionResume

	classification := base(models.StageClassification)
	classification.inSource = SourceExtraction
	classification.inType = EventTextExtracted
	classification.outSource = SourceClassification
	classification.outType = EventDocumentClassified
	classification.timeout = cfg.ClassificationTimeout
	classification.exec = classificationExec(entities)
	classification.resume = classificationResume

	summarization := base(models.StageSummarization)
	summarization.inSource = SourceClassification
	summarization.inType = EventDocumentClassified
	summarization.outSource = SourceSummarization
	summarization.outType = EventDocumentSummarized
	summarization.timeout = cfg.SummarizationTimeout
	summarization.exec = summarizationExec
	summarization.resume = summarizationResume

	display := base(models.StageDisplay)
	display.inSource = SourceSummarization
	display.inType = EventDocumentSummarized
	display.exec = displayExec
	display.resume = func(*models.Document) any { return nil }

	return &Pipeline{stages: map[models.StageName]*stage{
		models.StageExtraction:     extraction,
		models.StageClassification: classification,
		models.StageSummarization:  summarization,
		models.StageDisplay:        display,
	}}
}

// Register installs the routing table: each stage subscribes to exactly one
// (source, detailType) pair. Called once at startup.
func (p *Pipeline) Register(bus events.Bus) {
	for _, s := range p.stages {
		bus.Subscribe(s.inSource, s.inType, s.Handle)
	}
}
