package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/docstreamio/docstream/api/handlers"
	"github.com/docstreamio/docstream/api/middleware"
)

// SetupRoutes wires the public API. The paths are the wire contract:
// POST /documents and GET /documents/{documentId}.
func SetupRoutes(r *gin.Engine, h *handlers.Handlers) {
	r.Use(middleware.CORS())

	docs := r.Group("/documents")
	{
		docs.POST("", h.Document.CreateDocument)
		docs.GET("/:documentId", h.Document.GetDocument)
		docs.GET("/:documentId/content", h.Document.GetDocumentContent)
	}
}
