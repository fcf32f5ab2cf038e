package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appassistant "github.com/notaris/backend/internal/application/assistant"
	"github.com/notaris/backend/internal/interfaces/http/dto"
)

// CreateSessionRequest starts an assistant conversation.
type CreateSessionRequest struct {
	Title     string     `json:"title" binding:"max=200"`
	DossierID *uuid.UUID `json:"dossier_id"`
}

// RenameSessionRequest retitles a conversation.
type RenameSessionRequest struct {
	Title string `json:"title" binding:"required,max=200"`
}

// AskRequest is a question to the assistant.
type AskRequest struct {
	Question string `json:"question" binding:"required,max=8000"`
}

// IndexTextRequest feeds text to the knowledge base.
type IndexTextRequest struct {
	Text string `json:"text" binding:"required"`
}

// IndexNoteRequest stores a free-form note; NoteID replaces an earlier note.
type IndexNoteRequest struct {
	NoteID *uuid.UUID `json:"note_id"`
	Text   string     `json:"text" binding:"required"`
}

// IndexResponse reports how many chunks were stored.
type IndexResponse struct {
	SourceID uuid.UUID `json:"source_id"`
	Chunks   int       `json:"chunks"`
}

// AssistantHandler serves the AI assistant.
type AssistantHandler struct {
	BaseHandler
	assistant *appassistant.Service
}

// NewAssistantHandler creates a new assistant handler
func NewAssistantHandler(assistant *appassistant.Service) *AssistantHandler {
	return &AssistantHandler{assistant: assistant}
}

// CreateSession godoc
// @Summary      Start a conversation
// @Tags         assistant
// @Router       /assistant/sessions [post]
func (h *AssistantHandler) CreateSession(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	var req CreateSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BindError(c, err)
			return
		}
	}
	sess, err := h.assistant.CreateSession(c.Request.Context(), id.TenantID, id.UserID, appassistant.CreateSessionRequest{
		Title:     req.Title,
		DossierID: req.DossierID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sess)
}

// ListSessions godoc
// @Summary      Conversations of the caller
// @Tags         assistant
// @Router       /assistant/sessions [get]
func (h *AssistantHandler) ListSessions(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	var q dto.ListRequest
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	page, size := q.PageOrDefault()
	result, err := h.assistant.ListSessions(c.Request.Context(), id.TenantID, id.UserID, page, size)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, result)
}

// GetSession godoc
// @Summary      A conversation with its messages
// @Tags         assistant
// @Router       /assistant/sessions/{id} [get]
func (h *AssistantHandler) GetSession(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	sessID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	sess, err := h.assistant.GetSession(c.Request.Context(), id.TenantID, id.UserID, sessID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sess)
}

// RenameSession godoc
// @Summary      Rename a conversation
// @Tags         assistant
// @Router       /assistant/sessions/{id} [patch]
func (h *AssistantHandler) RenameSession(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	sessID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req RenameSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	sess, err := h.assistant.RenameSession(c.Request.Context(), id.TenantID, id.UserID, sessID, req.Title)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sess)
}

// DeleteSession godoc
// @Summary      Delete a conversation
// @Tags         assistant
// @Router       /assistant/sessions/{id} [delete]
func (h *AssistantHandler) DeleteSession(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	sessID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.assistant.DeleteSession(c.Request.Context(), id.TenantID, id.UserID, sessID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Ask godoc
// @Summary      Ask a question in a conversation
// @Tags         assistant
// @Router       /assistant/sessions/{id}/messages [post]
func (h *AssistantHandler) Ask(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	sessID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	answer, err := h.assistant.Ask(c.Request.Context(), id.TenantID, id.UserID, sessID, req.Question)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, answer)
}

// Usage godoc
// @Summary      Token usage and cost per user
// @Tags         assistant
// @Param        from query string false "Start (default: first day of the month)"
// @Param        to   query string false "End (default: now)"
// @Router       /assistant/usage [get]
func (h *AssistantHandler) Usage(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	from, ok := h.optionalTimeQuery(c, "from")
	if !ok {
		return
	}
	to, ok := h.optionalTimeQuery(c, "to")
	if !ok {
		return
	}
	now := time.Now()
	if to == nil {
		to = &now
	}
	if from == nil {
		start := time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, to.Location())
		from = &start
	}
	if from.After(*to) {
		h.BadRequest(c, "from must not be after to")
		return
	}
	summary, err := h.assistant.UsageSummary(c.Request.Context(), id.TenantID, *from, *to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// IndexDocument godoc
// @Summary      Index the text of a document
// @Tags         assistant
// @Router       /assistant/knowledge/documents/{id} [post]
func (h *AssistantHandler) IndexDocument(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	docID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req IndexTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	n, err := h.assistant.IndexDocument(c.Request.Context(), id.TenantID, docID, req.Text)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, IndexResponse{SourceID: docID, Chunks: n})
}

// IndexDossier godoc
// @Summary      Index the description and parties of a dossier
// @Tags         assistant
// @Router       /assistant/knowledge/dossiers/{id} [post]
func (h *AssistantHandler) IndexDossier(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	dossierID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	n, err := h.assistant.IndexDossier(c.Request.Context(), id.TenantID, dossierID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, IndexResponse{SourceID: dossierID, Chunks: n})
}

// IndexNote godoc
// @Summary      Store an office note in the knowledge base
// @Tags         assistant
// @Router       /assistant/knowledge/notes [post]
func (h *AssistantHandler) IndexNote(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	var req IndexNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	noteID, n, err := h.assistant.IndexNote(c.Request.Context(), id.TenantID, req.NoteID, req.Text)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, IndexResponse{SourceID: noteID, Chunks: n})
}
