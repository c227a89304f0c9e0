package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docstreamio/docstream/internal/ingest"
	"github.com/docstreamio/docstream/internal/store"
	"github.com/docstreamio/docstream/pkg/logger"
)

type DocumentHandler struct {
	service *ingest.Service
	logger  logger.Logger
}

// ErrorResponse is the structured error body; clients never see raw
// internal failures.
type ErrorResponse struct {
	Error string `json:"error"`
}

func NewDocumentHandler(service *ingest.Service, logger logger.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: service,
		logger:  logger,
	}
}

// CreateDocument accepts {fileName, fileType} and returns the new document
// id plus a time-limited upload URL.
func (h *DocumentHandler) CreateDocument(c *gin.Context) {
	var req ingest.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.service.Ingest(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, ingest.ErrBadRequest) {
			h.handleError(c, http.StatusBadRequest, "Invalid request", err)
			return
		}
		h.handleError(c, http.StatusInternalServerError, "Upload failed", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetDocument returns the full current record for one document. Safe to
// poll; no side effects.
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	documentID := c.Param("documentId")

	doc, err := h.service.Status(c.Request.Context(), documentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.handleError(c, http.StatusNotFound, "Document not found", err)
			return
		}
		h.handleError(c, http.StatusInternalServerError, "Failed to get status", err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

// GetDocumentContent streams the originally uploaded bytes back to the
// client with the recorded content type.
func (h *DocumentHandler) GetDocumentContent(c *gin.Context) {
	documentID := c.Param("documentId")

	doc, rc, err := h.service.Content(c.Request.Context(), documentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.handleError(c, http.StatusNotFound, "Document not found", err)
			return
		}
		h.handleError(c, http.StatusInternalServerError, "Failed to read document", err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, -1, doc.FileType, rc, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", doc.FileName),
	})
}

func (h *DocumentHandler) handleError(c *gin.Context, status int, message string, err error) {
	h.logger.Error(message,
		logger.String("path", c.Request.URL.Path),
		logger.Error(err),
	)
	c.JSON(status, ErrorResponse{Error: message})
}
