package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocument(t *testing.T) {
	now := time.Now()
	doc := NewDocument("doc-1", "invoice.pdf", "application/pdf", "documents/doc-1/invoice.pdf", now)

	assert.Equal(t, StatusUploaded, doc.Status)
	assert.Equal(t, StageUpload, doc.Stage)
	assert.Equal(t, now.UnixMilli(), doc.UploadTimestamp)

	require.Len(t, doc.Stages, 5)
	for _, name := range PipelineStages {
		require.Contains(t, doc.Stages, name)
	}
	assert.Equal(t, StageCompleted, doc.Stages[StageUpload].Status)
	for _, name := range []StageName{StageExtraction, StageClassification, StageSummarization, StageDisplay} {
		assert.Equal(t, StagePending, doc.Stages[name].Status, "stage %s", name)
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to StageStatus
		want     bool
	}{
		{StagePending, StageProcessing, true},
		{StageProcessing, StageCompleted, true},
		{StageProcessing, StageFailed, true},
		{StageProcessing, StageProcessing, true}, // duplicate delivery rewrite
		{StageFailed, StageProcessing, true},     // external retry
		{StageFailed, StageFailed, true},
		{StageCompleted, StageCompleted, true},

		{StagePending, StageCompleted, false},
		{StagePending, StageFailed, false},
		{StageProcessing, StagePending, false},
		{StageCompleted, StageProcessing, false},
		{StageCompleted, StageFailed, false},
		{StageFailed, StagePending, false},
		{StageFailed, StageCompleted, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestCanTransitionStatus(t *testing.T) {
	assert.True(t, CanTransitionStatus(StatusUploaded, StatusProcessing))
	assert.True(t, CanTransitionStatus(StatusProcessing, StatusCompleted))
	assert.True(t, CanTransitionStatus(StatusProcessing, StatusFailed))
	assert.True(t, CanTransitionStatus(StatusFailed, StatusProcessing))
	assert.True(t, CanTransitionStatus(StatusCompleted, StatusCompleted))

	assert.False(t, CanTransitionStatus(StatusCompleted, StatusProcessing))
	assert.False(t, CanTransitionStatus(StatusCompleted, StatusFailed))
	assert.False(t, CanTransitionStatus(StatusUploaded, StatusCompleted))
}

func TestClone(t *testing.T) {
	doc := NewDocument("doc-1", "a.pdf", "application/pdf", "documents/doc-1/a.pdf", time.Now())
	doc.Entities = []Entity{{Text: "ACME", Type: "ORGANIZATION", Confidence: 0.9}}

	cp := doc.Clone()
	cp.Stages[StageExtraction].Status = StageProcessing
	cp.Entities[0].Text = "changed"

	assert.Equal(t, StagePending, doc.Stages[StageExtraction].Status)
	assert.Equal(t, "ACME", doc.Entities[0].Text)
}
