package documents

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docvault-backend/internal/extraction"
	"docvault-backend/internal/shared/server/middleware"
	"docvault-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the document service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents", h.createDocument)
	rg.POST("/documents/upload-url", h.generateUploadURL)
	rg.GET("/documents", h.listDocuments)
	rg.GET("/documents/:id", h.getDocument)
	rg.POST("/documents/:id/process", h.processDocument)
	rg.DELETE("/documents/:id", h.deleteDocument)
}

type createDocumentRequest struct {
	FileName     string `json:"fileName"`
	FileType     string `json:"fileType"`
	FileSize     int64  `json:"fileSize"`
	DocumentType string `json:"documentType"`
}

func (r createDocumentRequest) metadata() Metadata {
	return Metadata{
		FileName:     r.FileName,
		FileType:     r.FileType,
		FileSize:     r.FileSize,
		DocumentType: extraction.DocumentType(r.DocumentType),
	}
}

func (h *Handler) createDocument(c *gin.Context) {
	ownerID := middleware.OwnerIDFromContext(c)

	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	doc, err := h.Svc.Create(c.Request.Context(), ownerID, req.metadata())
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "fileName and fileType are required", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to create document", nil)
		return
	}

	respond.JSON(c, http.StatusCreated, doc)
}

func (h *Handler) generateUploadURL(c *gin.Context) {
	ownerID := middleware.OwnerIDFromContext(c)

	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	target, err := h.Svc.GenerateUploadTarget(c.Request.Context(), ownerID, req.metadata())
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "fileName and fileType are required", nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to generate upload URL", nil)
		}
		return
	}

	respond.OK(c, target)
}

func (h *Handler) listDocuments(c *gin.Context) {
	ownerID := middleware.OwnerIDFromContext(c)

	docs, err := h.Svc.List(c.Request.Context(), ownerID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to list documents", nil)
		return
	}
	if docs == nil {
		docs = []Document{}
	}

	respond.OK(c, gin.H{"documents": docs})
}

func (h *Handler) getDocument(c *gin.Context) {
	documentID := c.Param("id")
	if documentID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "document id is required", nil)
		return
	}
	c.Set("documentId", documentID)

	doc, err := h.Svc.Get(c.Request.Context(), documentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to fetch document", nil)
		return
	}

	respond.OK(c, doc)
}

func (h *Handler) processDocument(c *gin.Context) {
	documentID := c.Param("id")
	if documentID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "document id is required", nil)
		return
	}
	c.Set("documentId", documentID)

	doc, err := h.Svc.Process(c.Request.Context(), documentID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		case errors.Is(err, extraction.ErrExtraction):
			respond.Error(c, http.StatusInternalServerError, "extraction_error", "failed to extract document information", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to process document", nil)
		}
		return
	}
	c.Set("statusTransition", string(StatusProcessing)+"->"+string(doc.Status))

	respond.OK(c, gin.H{
		"documentId":       doc.ID,
		"status":           doc.Status,
		"extractionResult": doc.ExtractionResult,
	})
}

func (h *Handler) deleteDocument(c *gin.Context) {
	documentID := c.Param("id")
	if documentID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "document id is required", nil)
		return
	}
	c.Set("documentId", documentID)

	if err := h.Svc.Delete(c.Request.Context(), documentID); err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to delete document", nil)
		return
	}

	respond.OK(c, gin.H{"success": true})
}
