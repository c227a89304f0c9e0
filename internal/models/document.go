package models

import (
	"encoding/json"
	"time"
)

// DocumentStatus is the overall lifecycle of a document.
type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusFailed     DocumentStatus = "failed"
)

// StageName identifies one of the five pipeline phases.
type StageName string

const (
	StageUpload         StageName = "upload"
	StageExtraction     StageName = "extraction"
	StageClassification StageName = "classification"
	StageSummarization  StageName = "summarization"
	StageDisplay        StageName = "display"
)

// PipelineStages lists every stage in processing order.
var PipelineStages = []StageName{
	StageUpload,
	StageExtraction,
	StageClassification,
	StageSummarization,
	StageDisplay,
}

// StageStatus is the lifecycle of a single stage sub-record.
type StageStatus string

const (
	StagePending    StageStatus = "pending"
	StageProcessing StageStatus = "processing"
	StageCompleted  StageStatus = "completed"
	StageFailed     StageStatus = "failed"
)

// CanTransition reports whether a stage sub-record may move from one status
// to another. A stage never re-enters pending once started, and completed is
// terminal apart from an idempotent same-state rewrite. failed -> processing
// stays open so an external redelivery can retry the stage.
func CanTransition(from, to StageStatus) bool {
	switch from {
	case StagePending:
		return to == StageProcessing
	case StageProcessing:
		return to == StageProcessing || to == StageCompleted || to == StageFailed
	case StageFailed:
		return to == StageProcessing || to == StageFailed
	case StageCompleted:
		return to == StageCompleted
	}
	return false
}

// CanTransitionStatus is the same guard for the top-level document status.
func CanTransitionStatus(from, to DocumentStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusUploaded:
		return to == StatusProcessing || to == StatusFailed
	case StatusProcessing:
		return to == StatusCompleted || to == StatusFailed
	case StatusFailed:
		return to == StatusProcessing
	case StatusCompleted:
		return false
	}
	return false
}

// Entity is a single recognized entity from the classification stage.
type Entity struct {
	Text       string  `json:"text"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

// StageState is the per-stage sub-record kept inside a document.
type StageState struct {
	Status       StageStatus     `json:"status"`
	Timestamp    int64           `json:"timestamp,omitempty"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
	Result       json.RawMessage `json:"result,omitempty"`
}

// Document is the single persisted record tracking a document through the
// pipeline. Field names are the wire contract for the status API.
type Document struct {
	DocumentID      string                     `json:"documentId"`
	FileName        string                     `json:"fileName"`
	FileType        string                     `json:"fileType"`
	StorageKey      string                     `json:"storageKey"`
	Status          DocumentStatus             `json:"status"`
	Stage           StageName                  `json:"stage"`
	UploadTimestamp int64                      `json:"uploadTimestamp"`
	Stages          map[StageName]*StageState  `json:"stages"`
	ExtractedText   string                     `json:"extractedText,omitempty"`
	Classification  string                     `json:"classification,omitempty"`
	Entities        []Entity                   `json:"entities,omitempty"`
	Summary         string                     `json:"summary,omitempty"`
	ErrorMessage    string                     `json:"errorMessage,omitempty"`
}

// NewDocument builds the initial record for a freshly ingested document.
// All five stage entries exist from creation; upload starts completed,
// everything downstream starts pending.
func NewDocument(id, fileName, fileType, storageKey string, now time.Time) *Document {
	doc := &Document{
		DocumentID:      id,
		FileName:        fileName,
		FileType:        fileType,
		StorageKey:      storageKey,
		Status:          StatusUploaded,
		Stage:           StageUpload,
		UploadTimestamp: now.UnixMilli(),
		Stages:          make(map[StageName]*StageState, len(PipelineStages)),
	}
	for _, name := range PipelineStages {
		doc.Stages[name] = &StageState{Status: StagePending}
	}
	doc.Stages[StageUpload].Status = StageCompleted
	doc.Stages[StageUpload].Timestamp = now.UnixMilli()
	return doc
}

// Clone returns a deep copy so callers can mutate without racing readers.
func (d *Document) Clone() *Document {
	cp := *d
	cp.Stages = make(map[StageName]*StageState, len(d.Stages))
	for name, st := range d.Stages {
		s := *st
		if st.Result != nil {
			s.Result = append(json.RawMessage(nil), st.Result...)
		}
		cp.Stages[name] = &s
	}
	if d.Entities != nil {
		cp.Entities = append([]Entity(nil), d.Entities...)
	}
	return &cp
}
