package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/docstreamio/docstream/internal/engines"
	"github.com/docstreamio/docstream/internal/models"
	"github.com/docstreamio/docstream/internal/store"
)

// entityTextLimit caps how much text goes to the entity engine.
const entityTextLimit = 5000

// classificationRules are checked in order; the first matching set wins, so
// a document mentioning both "invoice" and "receipt" is an Invoice.
var classificationRules = []struct {
	label    string
	keywords []string
}{
	{"Invoice", []string{"invoice", "bill", "amount due", "total"}},
	{"Receipt", []string{"receipt", "purchased", "transaction"}},
	{"ID Document", []string{"license", "driver", "identification"}},
	{"Contract", []string{"contract", "agreement"}},
}

// Classify labels a document from literal keyword matches over the
// lower-cased text. Documents matching nothing are Unknown.
func Classify(text string) string {
	lowered := strings.ToLower(text)
	for _, rule := range classificationRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lowered, kw) {
				return rule.label
			}
		}
	}
	return "Unknown"
}

type classificationResult struct {
	Classification string          `json:"classification"`
	Entities       []models.Entity `json:"entities"`
}

func classificationExec(entityEngine engines.EntityEngine) executor {
	return func(ctx context.Context, doc *models.Document, detail json.RawMessage) (*store.Update, any, error) {
		var in ExtractionDetail
		if err := json.Unmarshal(detail, &in); err != nil {
			return nil, nil, fmt.Errorf("bad extraction detail: %w", err)
		}

		label := Classify(in.ExtractedText)

		capped := in.ExtractedText
		if runes := []rune(capped); len(runes) > entityTextLimit {
			capped = string(runes[:entityTextLimit])
		}
		entities, err := entityEngine.DetectEntities(ctx, capped)
		if err != nil {
			return nil, nil, err
		}

		upd := store.NewUpdate().
			SetClassification(label).
			SetEntities(entities).
			SetStageResult(models.StageClassification, classificationResult{
				Classification: label,
				Entities:       entities,
			})
		out := ClassificationDetail{
			DocumentID:     in.DocumentID,
			ExtractedText:  in.ExtractedText,
			Classification: label,
			Entities:       entities,
		}
		return upd, out, nil
	}
}

func classificationResume(doc *models.Document) any {
	return ClassificationDetail{
		DocumentID:     doc.DocumentID,
		ExtractedText:  doc.ExtractedText,
		Classification: doc.Classification,
		Entities:       doc.Entities,
	}
}
