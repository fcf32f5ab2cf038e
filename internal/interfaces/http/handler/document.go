package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	appdossier "github.com/notaris/backend/internal/application/dossier"
)

// RenameDocumentRequest changes a document title.
type RenameDocumentRequest struct {
	Title string `json:"title" binding:"required,max=300"`
}

// DocumentHandler serves single documents.
type DocumentHandler struct {
	BaseHandler
	documents *appdossier.DocumentService
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documents *appdossier.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// Get godoc
// @Summary      Document metadata
// @Tags         documents
// @Router       /documents/{id} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	docID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	doc, err := h.documents.Get(c.Request.Context(), id.TenantID, docID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// Download godoc
// @Summary      Presigned download link
// @Description  Returns the link as JSON, or redirects when redirect=true.
// @Tags         documents
// @Router       /documents/{id}/download [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	docID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	link, err := h.documents.DownloadURL(c.Request.Context(), id.TenantID, docID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if c.Query("redirect") == "true" {
		c.Redirect(http.StatusFound, link.URL)
		return
	}
	h.Success(c, link)
}

// Rename godoc
// @Summary      Rename a document
// @Tags         documents
// @Router       /documents/{id} [patch]
func (h *DocumentHandler) Rename(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	docID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req RenameDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	doc, err := h.documents.Rename(c.Request.Context(), id.TenantID, docID, req.Title)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// Delete godoc
// @Summary      Delete a document
// @Tags         documents
// @Router       /documents/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	docID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.documents.Delete(c.Request.Context(), id.TenantID, docID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
