package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appmessaging "github.com/notaris/backend/internal/application/messaging"
	"github.com/notaris/backend/internal/domain/shared"
	"github.com/notaris/backend/internal/interfaces/http/dto"
)

// SendMessageRequest starts a thread with a colleague or an outside address.
type SendMessageRequest struct {
	RecipientID    *uuid.UUID `json:"recipient_id" binding:"required_without=RecipientEmail,excluded_with=RecipientEmail"`
	RecipientEmail string     `json:"recipient_email" binding:"omitempty,email"`
	Subject        string     `json:"subject" binding:"required,max=300"`
	Body           string     `json:"body" binding:"required,max=20000"`
	DossierID      *uuid.UUID `json:"dossier_id"`
}

// ReplyRequest answers a message in its thread.
type ReplyRequest struct {
	Body string `json:"body" binding:"required,max=20000"`
}

// MailboxQuery filters inbox and sent listings.
type MailboxQuery struct {
	dto.ListRequest
	UnreadOnly bool `form:"unread_only"`
}

// UnreadCountResponse is the number of unread inbox messages.
type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

// MessageHandler serves internal messaging.
type MessageHandler struct {
	BaseHandler
	messages *appmessaging.Service
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messages *appmessaging.Service) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// Send godoc
// @Summary      Send a message
// @Tags         messages
// @Router       /messages [post]
func (h *MessageHandler) Send(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	m, err := h.messages.Send(c.Request.Context(), id.TenantID, id.UserID, appmessaging.SendRequest{
		RecipientID:    req.RecipientID,
		RecipientEmail: req.RecipientEmail,
		Subject:        req.Subject,
		Body:           req.Body,
		DossierID:      req.DossierID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, m)
}

// Inbox godoc
// @Summary      Messages received by the caller
// @Tags         messages
// @Router       /messages/inbox [get]
func (h *MessageHandler) Inbox(c *gin.Context) {
	h.mailbox(c, h.messages.Inbox)
}

// Sent godoc
// @Summary      Messages sent by the caller
// @Tags         messages
// @Router       /messages/sent [get]
func (h *MessageHandler) Sent(c *gin.Context) {
	h.mailbox(c, h.messages.Sent)
}

type mailboxFunc func(ctx context.Context, tenantID, userID uuid.UUID, f appmessaging.ListFilter) (shared.Paginated[appmessaging.MessageResponse], error)

func (h *MessageHandler) mailbox(c *gin.Context, list mailboxFunc) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	var q MailboxQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	dossier, ok := h.optionalUUIDQuery(c, "dossier_id")
	if !ok {
		return
	}
	page, size := q.PageOrDefault()
	result, err := list(c.Request.Context(), id.TenantID, id.UserID, appmessaging.ListFilter{
		UnreadOnly: q.UnreadOnly,
		DossierID:  dossier,
		Page:       page,
		PageSize:   size,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, result)
}

// Thread godoc
// @Summary      Messages of a thread visible to the caller
// @Tags         messages
// @Router       /messages/threads/{threadId} [get]
func (h *MessageHandler) Thread(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	msgs, err := h.messages.Thread(c.Request.Context(), id.TenantID, id.UserID, c.Param("threadId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, msgs)
}

// Get godoc
// @Summary      Get a message
// @Tags         messages
// @Router       /messages/{id} [get]
func (h *MessageHandler) Get(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	msgID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	m, err := h.messages.Get(c.Request.Context(), id.TenantID, id.UserID, msgID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, m)
}

// MarkRead godoc
// @Summary      Mark a message as read
// @Tags         messages
// @Router       /messages/{id}/read [post]
func (h *MessageHandler) MarkRead(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	msgID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.messages.MarkRead(c.Request.Context(), id.TenantID, id.UserID, msgID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// UnreadCount godoc
// @Summary      Number of unread messages
// @Tags         messages
// @Router       /messages/unread-count [get]
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	n, err := h.messages.UnreadCount(c.Request.Context(), id.TenantID, id.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, UnreadCountResponse{Count: n})
}

// Reply godoc
// @Summary      Reply to a message
// @Tags         messages
// @Router       /messages/{id}/reply [post]
func (h *MessageHandler) Reply(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	msgID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	m, err := h.messages.Reply(c.Request.Context(), id.TenantID, id.UserID, msgID, req.Body)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, m)
}

// Delete godoc
// @Summary      Delete a message
// @Tags         messages
// @Router       /messages/{id} [delete]
func (h *MessageHandler) Delete(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	msgID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.messages.Delete(c.Request.Context(), id.TenantID, id.UserID, msgID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
