package pipeline

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeFormat(t *testing.T) {
	text := "Invoice #1\nTotal: $50"
	got := Summarize(text, "Invoice")

	want := fmt.Sprintf(
		"This Invoice document contains %d characters of text. Key content includes: Invoice #1\nTotal: $50.",
		len([]rune(text)),
	)
	assert.Equal(t, want, got)
	assert.True(t, strings.HasPrefix(got, "This Invoice document contains"))
}

func TestSummarizeUnclassified(t *testing.T) {
	got := Summarize("some meaningful content here", "")
	assert.True(t, strings.HasPrefix(got, "This document contains"))
}

func TestSummarizeFragmentSelection(t *testing.T) {
	text := "First sentence is long enough. Tiny. Second keeper sentence! Third keeper sentence? Fourth keeper never appears."
	got := Summarize(text, "Contract")

	assert.Contains(t, got, "First sentence is long enough. Second keeper sentence. Third keeper sentence.")
	assert.NotContains(t, got, "Tiny")
	assert.NotContains(t, got, "Fourth keeper")
}

func TestSummarizeTruncatesAtLimit(t *testing.T) {
	// Content past the first 1000 characters never reaches the summary.
	text := strings.Repeat("a", 1000) + ". The hidden tail sentence."
	got := Summarize(text, "Unknown")
	assert.NotContains(t, got, "hidden tail")
}

func TestSummarizeDeterministic(t *testing.T) {
	text := "Settlement agreement between parties. Payment due in thirty days. Signed by both sides."
	first := Summarize(text, "Contract")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Summarize(text, "Contract"))
	}
}
