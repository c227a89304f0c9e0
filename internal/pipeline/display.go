package pipeline

import (
	"context"
	"encoding/json"

	"github.com/docstreamio/docstream/internal/models"
	"github.com/docstreamio/docstream/internal/store"
)

// displayExec finalizes the record. No capability call and no continuation
// event; completing the display stage is the pipeline's terminal write.
func displayExec(ctx context.Context, doc *models.Document, detail json.RawMessage) (*store.Update, any, error) {
	upd := store.NewUpdate().SetStatus(models.StatusCompleted)
	return upd, nil, nil
}
