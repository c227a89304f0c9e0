// Package engines defines the external capability collaborators invoked by
// the pipeline stages. The pipeline only depends on these interfaces; the
// AWS-backed adapters live in subpackages.
package engines

import (
	"context"

	"github.com/docstreamio/docstream/internal/models"
)

// OCREngine recognizes text in a stored object and returns it as ordered
// lines. The extraction stage joins the lines with newlines.
type OCREngine interface {
	DetectDocumentText(ctx context.Context, bucket, key string) ([]string, error)
}

// EntityEngine extracts named entities from up to 5000 characters of text.
type EntityEngine interface {
	DetectEntities(ctx context.Context, text string) ([]models.Entity, error)
}
