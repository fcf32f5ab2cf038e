package handler

import (
	"github.com/gin-gonic/gin"
	applicensing "github.com/notaris/backend/internal/application/licensing"
	"github.com/notaris/backend/internal/domain/licensing"
)

// FeaturesResponse lists the features available to the caller's role.
type FeaturesResponse struct {
	Role     string              `json:"role"`
	Features []licensing.Feature `json:"features"`
}

// LicenseHandler serves the office license and its feature flags.
type LicenseHandler struct {
	BaseHandler
	licenses *applicensing.Service
}

// NewLicenseHandler creates a new license handler
func NewLicenseHandler(licenses *applicensing.Service) *LicenseHandler {
	return &LicenseHandler{licenses: licenses}
}

// Status godoc
// @Summary      License status and resolved features
// @Tags         license
// @Router       /license [get]
func (h *LicenseHandler) Status(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	status, err := h.licenses.Status(c.Request.Context(), id.TenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}

// Activate godoc
// @Summary      Activate a license key for the office domain
// @Tags         license
// @Router       /license/activate [post]
func (h *LicenseHandler) Activate(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	var req applicensing.ActivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	status, err := h.licenses.Activate(c.Request.Context(), id.TenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}

// Verify godoc
// @Summary      Re-check the license with the license server
// @Tags         license
// @Router       /license/verify [post]
func (h *LicenseHandler) Verify(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	status, err := h.licenses.Verify(c.Request.Context(), id.TenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}

// Deactivate godoc
// @Summary      Remove the license from the office
// @Tags         license
// @Router       /license [delete]
func (h *LicenseHandler) Deactivate(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	if err := h.licenses.Deactivate(c.Request.Context(), id.TenantID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Features godoc
// @Summary      Features available to the caller
// @Tags         license
// @Router       /license/features [get]
func (h *LicenseHandler) Features(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	features, err := h.licenses.Features(c.Request.Context(), id.TenantID, id.Role)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if features == nil {
		features = []licensing.Feature{}
	}
	h.Success(c, FeaturesResponse{Role: string(id.Role), Features: features})
}

// ListFlags godoc
// @Summary      Feature switches of the office
// @Tags         license
// @Router       /license/flags [get]
func (h *LicenseHandler) ListFlags(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	flags, err := h.licenses.ListFlags(c.Request.Context(), id.TenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, flags)
}

// SetFlag godoc
// @Summary      Switch a feature on or off for the office
// @Tags         license
// @Router       /license/flags [put]
func (h *LicenseHandler) SetFlag(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	var req applicensing.SetFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	flag, err := h.licenses.SetFlag(c.Request.Context(), id.TenantID, id.UserID, req.Feature, *req.Enabled)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, flag)
}
