package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "github.com/lolo262652/tasknot/internal/errors"
	"github.com/lolo262652/tasknot/internal/middleware"
	"github.com/lolo262652/tasknot/internal/services"
)

// DocumentHandler coordinates document-record CRUD. The binary objects
// themselves go through the storage handler.
type DocumentHandler struct {
	documentService *services.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(documentService *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
	}
}

// ListForTask returns a task's document records, newest first.
func (h *DocumentHandler) ListForTask(c *gin.Context) {
	docs, err := h.documentService.ListByTask(c.Param("id"))
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch documents")
		return
	}

	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// CreateDocument inserts a document record for an already-stored object.
func (h *DocumentHandler) CreateDocument(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateDocumentRequest struct {
		TaskID      string `json:"task_id" binding:"required"`
		Name        string `json:"name" binding:"required"`
		FilePath    string `json:"file_path" binding:"required"`
		FileSize    int64  `json:"file_size"`
		ContentType string `json:"content_type"`
	}

	var req CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	doc, err := h.documentService.CreateDocument(services.CreateDocumentInput{
		TaskID:      req.TaskID,
		Name:        req.Name,
		FilePath:    req.FilePath,
		FileSize:    req.FileSize,
		ContentType: req.ContentType,
		UploadedBy:  userID,
	})
	if err != nil {
		apierrors.InternalError(c, "Failed to create document")
		return
	}

	c.JSON(http.StatusCreated, doc)
}

// DeleteDocument removes a document record.
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	if err := h.documentService.DeleteDocument(c.Param("id")); err != nil {
		if errors.Is(err, services.ErrDocumentNotFound) {
			apierrors.NotFound(c, err.Error())
			return
		}
		apierrors.InternalError(c, "Failed to delete document")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Document deleted successfully",
	})
}
