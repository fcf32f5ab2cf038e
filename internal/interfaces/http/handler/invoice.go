package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appinvoicing "github.com/notaris/backend/internal/application/invoicing"
	"github.com/notaris/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// InvoiceClientRequest is the billed party.
type InvoiceClientRequest struct {
	Name      string `json:"name" binding:"required,max=200"`
	Address   string `json:"address" binding:"max=500"`
	Email     string `json:"email" binding:"omitempty,email"`
	VATNumber string `json:"vat_number" binding:"max=32"`
}

// InvoiceLineRequest is one invoice row.
type InvoiceLineRequest struct {
	Description string           `json:"description" binding:"required,max=500"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	VATRate     *decimal.Decimal `json:"vat_rate"`
}

// InvoiceDraftRequest creates or replaces a draft invoice.
type InvoiceDraftRequest struct {
	Client    InvoiceClientRequest `json:"client" binding:"required"`
	DossierID *uuid.UUID           `json:"dossier_id"`
	Currency  string               `json:"currency" binding:"omitempty,len=3"`
	Notes     string               `json:"notes" binding:"max=2000"`
	Lines     []InvoiceLineRequest `json:"lines" binding:"max=200,dive"`
}

func (r InvoiceDraftRequest) toDraft() appinvoicing.DraftRequest {
	lines := make([]appinvoicing.LineInput, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, appinvoicing.LineInput{
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			VATRate:     l.VATRate,
		})
	}
	return appinvoicing.DraftRequest{
		Client: appinvoicing.ClientInput{
			Name:      r.Client.Name,
			Address:   r.Client.Address,
			Email:     r.Client.Email,
			VATNumber: r.Client.VATNumber,
		},
		DossierID: r.DossierID,
		Currency:  r.Currency,
		Notes:     r.Notes,
		Lines:     lines,
	}
}

// MarkPaidRequest records the payment date; it defaults to now.
type MarkPaidRequest struct {
	PaidAt *time.Time `json:"paid_at"`
}

// CancelInvoiceRequest cancels an issued invoice.
type CancelInvoiceRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// SendInvoiceRequest mails an invoice; To defaults to the client address.
type SendInvoiceRequest struct {
	To      string `json:"to" binding:"omitempty,email"`
	Message string `json:"message" binding:"max=4000"`
}

// InvoiceListQuery filters the invoice list.
type InvoiceListQuery struct {
	dto.ListRequest
	Status string `form:"status"`
	Client string `form:"client"`
}

// InvoiceHandler serves invoices.
type InvoiceHandler struct {
	BaseHandler
	invoices *appinvoicing.Service
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoices *appinvoicing.Service) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// CreateDraft godoc
// @Summary      Create a draft invoice
// @Tags         invoices
// @Router       /invoices [post]
func (h *InvoiceHandler) CreateDraft(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	var req InvoiceDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	inv, err := h.invoices.CreateDraft(c.Request.Context(), id.TenantID, id.UserID, req.toDraft())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, inv)
}

// UpdateDraft godoc
// @Summary      Replace a draft invoice
// @Tags         invoices
// @Router       /invoices/{id} [put]
func (h *InvoiceHandler) UpdateDraft(c *gin.Context) {
	var req InvoiceDraftRequest
	h.respondWith(c, &req, func(c *gin.Context, tenant, id uuid.UUID) (any, error) {
		return h.invoices.UpdateDraft(c.Request.Context(), tenant, id, req.toDraft())
	})
}

// Issue godoc
// @Summary      Issue a draft and assign its number
// @Tags         invoices
// @Router       /invoices/{id}/issue [post]
func (h *InvoiceHandler) Issue(c *gin.Context) {
	h.respond(c, func(c *gin.Context, tenant, id uuid.UUID) (any, error) {
		return h.invoices.Issue(c.Request.Context(), tenant, id)
	})
}

// MarkPaid godoc
// @Summary      Record the payment of an invoice
// @Tags         invoices
// @Router       /invoices/{id}/pay [post]
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	var req MarkPaidRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BindError(c, err)
			return
		}
	}
	paidAt := time.Now()
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}
	h.respond(c, func(c *gin.Context, tenant, id uuid.UUID) (any, error) {
		return h.invoices.MarkPaid(c.Request.Context(), tenant, id, paidAt)
	})
}

// Cancel godoc
// @Summary      Cancel an invoice
// @Tags         invoices
// @Router       /invoices/{id}/cancel [post]
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	var req CancelInvoiceRequest
	h.respondWith(c, &req, func(c *gin.Context, tenant, id uuid.UUID) (any, error) {
		return h.invoices.Cancel(c.Request.Context(), tenant, id, req.Reason)
	})
}

// Get godoc
// @Summary      Get an invoice
// @Tags         invoices
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	h.respond(c, func(c *gin.Context, tenant, id uuid.UUID) (any, error) {
		return h.invoices.Get(c.Request.Context(), tenant, id)
	})
}

// List godoc
// @Summary      List invoices
// @Tags         invoices
// @Router       /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	var q InvoiceListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	dossier, ok := h.optionalUUIDQuery(c, "dossier_id")
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
	page, size := q.PageOrDefault()
	result, err := h.invoices.List(c.Request.Context(), id.TenantID, appinvoicing.ListFilter{
		Status:    q.Status,
		Client:    q.Client,
		DossierID: dossier,
		From:      from,
		To:        to,
		Search:    q.Search,
		Page:      page,
		PageSize:  size,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, result)
}

// Delete godoc
// @Summary      Delete a draft invoice
// @Tags         invoices
// @Router       /invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	invID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.invoices.Delete(c.Request.Context(), id.TenantID, invID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// PDF godoc
// @Summary      Download the invoice as PDF
// @Tags         invoices
// @Produce      application/pdf
// @Router       /invoices/{id}/pdf [get]
func (h *InvoiceHandler) PDF(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	invID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	pdf, err := h.invoices.RenderPDF(c.Request.Context(), id.TenantID, invID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	attachment(c, pdf.FileName, "application/pdf", pdf.Data)
}

// Send godoc
// @Summary      Mail the invoice PDF
// @Tags         invoices
// @Router       /invoices/{id}/send [post]
func (h *InvoiceHandler) Send(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	invID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req SendInvoiceRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BindError(c, err)
			return
		}
	}
	err := h.invoices.Send(c.Request.Context(), id.TenantID, invID, appinvoicing.SendRequest{
		To:      req.To,
		Message: req.Message,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
