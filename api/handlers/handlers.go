package handlers

import (
	"github.com/docstreamio/docstream/internal/ingest"
	"github.com/docstreamio/docstream/pkg/logger"
)

type Handlers struct {
	Document *DocumentHandler
}

func NewHandlers(ingestService *ingest.Service, logger logger.Logger) *Handlers {
	return &Handlers{
		Document: NewDocumentHandler(ingestService, logger),
	}
}
