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

func extractionExec(ocr engines.OCREngine) executor {
	return func(ctx context.Context, doc *models.Document, detail json.RawMessage) (*store.Update, any, error) {
		var in UploadDetail
		if err := json.Unmarshal(detail, &in); err != nil {
			return nil, nil, fmt.Errorf("bad upload detail: %w", err)
		}

		lines, err := ocr.DetectDocumentText(ctx, in.Bucket, in.StorageKey)
		if err != nil {
			return nil, nil, err
		}
		text := strings.Join(lines, "\n")

		upd := store.NewUpdate().
			SetExtractedText(text).
			SetStageResult(models.StageExtraction, text)
		return upd, ExtractionDetail{DocumentID: in.DocumentID, ExtractedText: text}, nil
	}
}

func extractionResume(doc *models.Document) any {
	return ExtractionDetail{DocumentID: doc.DocumentID, ExtractedText: doc.ExtractedText}
}
