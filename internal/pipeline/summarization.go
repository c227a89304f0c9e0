package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/docstreamio/docstream/internal/models"
	"github.com/docstreamio/docstream/internal/store"
)

const (
	// summaryTextLimit caps how much text feeds the sentence extraction.
	summaryTextLimit = 1000
	// minFragmentLen filters out fragments too short to carry content.
	minFragmentLen = 10
	// maxFragments is how many leading fragments make up the summary body.
	maxFragments = 3
)

// Summarize produces a deterministic extractive summary: the first few
// substantial sentence fragments of the text, wrapped in a sentence
// reporting the classification label and total character count. Identical
// inputs always yield a byte-identical summary.
func Summarize(text, classification string) string {
	head := text
	if runes := []rune(head); len(runes) > summaryTextLimit {
		head = string(runes[:summaryTextLimit])
	}

	var fragments []string
	for _, frag := range strings.FieldsFunc(head, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	}) {
		frag = strings.TrimSpace(frag)
		if len([]rune(frag)) > minFragmentLen {
			fragments = append(fragments, frag)
		}
		if len(fragments) == maxFragments {
			break
		}
	}
	body := strings.Join(fragments, ". ") + "."

	label := "document"
	if classification != "" {
		label = classification + " document"
	}
	return fmt.Sprintf("This %s contains %d characters of text. Key content includes: %s",
		label, len([]rune(text)), body)
}

func summarizationExec(ctx context.Context, doc *models.Document, detail json.RawMessage) (*store.Update, any, error) {
	var in ClassificationDetail
	if err := json.Unmarshal(detail, &in); err != nil {
		return nil, nil, fmt.Errorf("bad classification detail: %w", err)
	}

	summary := Summarize(in.ExtractedText, in.Classification)

	upd := store.NewUpdate().
		SetSummary(summary).
		SetStageResult(models.StageSummarization, summary)
	return upd, SummaryDetail{DocumentID: in.DocumentID, Summary: summary}, nil
}

func summarizationResume(doc *models.Document) any {
	return SummaryDetail{DocumentID: doc.DocumentID, Summary: doc.Summary}
}
