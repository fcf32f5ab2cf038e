package handler

import (
	"github.com/gin-gonic/gin"
	appidentity "github.com/notaris/backend/internal/application/identity"
	"github.com/shopspring/decimal"
)

// UpdateOfficeRequest replaces the office profile and invoice settings.
type UpdateOfficeRequest struct {
	Name            string          `json:"name" binding:"required,max=200"`
	VATNumber       string          `json:"vat_number" binding:"max=32"`
	Address         string          `json:"address" binding:"max=500"`
	ContactEmail    string          `json:"contact_email" binding:"omitempty,email"`
	ContactPhone    string          `json:"contact_phone" binding:"max=32"`
	Domain          string          `json:"domain" binding:"max=253"`
	InvoicePrefix   string          `json:"invoice_prefix" binding:"max=16"`
	DefaultVATRate  decimal.Decimal `json:"default_vat_rate"`
	PaymentTermDays int             `json:"payment_term_days" binding:"gte=0,lte=365"`
	Currency        string          `json:"currency" binding:"omitempty,len=3"`
	IBAN            string          `json:"iban" binding:"max=42"`
}

// OfficeHandler serves the caller's office profile and the role catalogue.
type OfficeHandler struct {
	BaseHandler
	offices *appidentity.OfficeService
	roles   *appidentity.RoleService
}

// NewOfficeHandler creates a new office handler
func NewOfficeHandler(offices *appidentity.OfficeService, roles *appidentity.RoleService) *OfficeHandler {
	return &OfficeHandler{offices: offices, roles: roles}
}

// Get godoc
// @Summary      Office profile
// @Tags         office
// @Router       /office [get]
func (h *OfficeHandler) Get(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	office, err := h.offices.Get(c.Request.Context(), id.TenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, office)
}

// Update godoc
// @Summary      Update the office profile
// @Tags         office
// @Router       /office [put]
func (h *OfficeHandler) Update(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	var req UpdateOfficeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	office, err := h.offices.Update(c.Request.Context(), id.TenantID, appidentity.UpdateOfficeInput{
		Name:            req.Name,
		VATNumber:       req.VATNumber,
		Address:         req.Address,
		ContactEmail:    req.ContactEmail,
		ContactPhone:    req.ContactPhone,
		Domain:          req.Domain,
		InvoicePrefix:   req.InvoicePrefix,
		DefaultVATRate:  req.DefaultVATRate,
		PaymentTermDays: req.PaymentTermDays,
		Currency:        req.Currency,
		IBAN:            req.IBAN,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, office)
}

// Roles godoc
// @Summary      Roles with their permissions and member counts
// @Tags         office
// @Router       /roles [get]
func (h *OfficeHandler) Roles(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	roles, err := h.roles.List(c.Request.Context(), id.TenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, roles)
}
