package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appregistry "github.com/notaris/backend/internal/application/registry"
	"github.com/notaris/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// RegistryPartyRequest is a party appearing in a recorded deed.
type RegistryPartyRequest struct {
	LastName  string `json:"last_name" binding:"required,max=200"`
	FirstName string `json:"first_name" binding:"max=100"`
	IsCompany bool   `json:"is_company"`
	Capacity  string `json:"capacity" binding:"max=32"`
	BirthDate *Date  `json:"birth_date"`
}

// RecordDeedRequest adds a deed to the repertorium.
type RecordDeedRequest struct {
	DeedDate  Date                   `json:"deed_date" binding:"required"`
	DeedType  string                 `json:"deed_type" binding:"required,deed_type"`
	Title     string                 `json:"title" binding:"required,max=300"`
	NotaryID  uuid.UUID              `json:"notary_id" binding:"required"`
	DossierID *uuid.UUID             `json:"dossier_id"`
	Fee       *decimal.Decimal       `json:"fee"`
	Remarks   string                 `json:"remarks" binding:"max=2000"`
	Parties   []RegistryPartyRequest `json:"parties" binding:"required,min=1,max=100,dive"`
}

// RegistrationRequest records the registration of a deed with the tax office.
type RegistrationRequest struct {
	Date      Date   `json:"date" binding:"required"`
	Reference string `json:"reference" binding:"required,max=100"`
}

// RemarksRequest replaces the remarks of an entry.
type RemarksRequest struct {
	Remarks string `json:"remarks" binding:"max=2000"`
}

// VoidEntryRequest voids an entry while keeping its number.
type VoidEntryRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// RepertoriumListQuery filters the repertorium.
type RepertoriumListQuery struct {
	dto.ListRequest
	DeedType string `form:"deed_type"`
	Status   string `form:"status"`
}

// RegistryHandler serves the repertorium and the klapper.
type RegistryHandler struct {
	BaseHandler
	registry *appregistry.Service
}

// NewRegistryHandler creates a new registry handler
func NewRegistryHandler(registry *appregistry.Service) *RegistryHandler {
	return &RegistryHandler{registry: registry}
}

// Record godoc
// @Summary      Record a deed in the repertorium
// @Tags         registry
// @Router       /repertorium [post]
func (h *RegistryHandler) Record(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	var req RecordDeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	parties := make([]appregistry.PartyInput, 0, len(req.Parties))
	for _, p := range req.Parties {
		parties = append(parties, appregistry.PartyInput{
			LastName:  p.LastName,
			FirstName: p.FirstName,
			IsCompany: p.IsCompany,
			Capacity:  p.Capacity,
			BirthDate: p.BirthDate.Ptr(),
		})
	}
	entry, err := h.registry.Record(c.Request.Context(), id.TenantID, id.UserID, appregistry.RecordRequest{
		DeedDate:  req.DeedDate.Time,
		DeedType:  req.DeedType,
		Title:     req.Title,
		NotaryID:  req.NotaryID,
		DossierID: req.DossierID,
		Fee:       req.Fee,
		Remarks:   req.Remarks,
		Parties:   parties,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, entry)
}

// List godoc
// @Summary      List repertorium entries
// @Tags         registry
// @Router       /repertorium [get]
func (h *RegistryHandler) List(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	var q RepertoriumListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	year, ok := h.optionalIntQuery(c, "year")
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
	result, err := h.registry.List(c.Request.Context(), id.TenantID, appregistry.ListFilter{
		Year:     year,
		DeedType: q.DeedType,
		From:     from,
		To:       to,
		Status:   q.Status,
		Search:   q.Search,
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, result)
}

// Get godoc
// @Summary      Get a repertorium entry
// @Tags         registry
// @Router       /repertorium/{id} [get]
func (h *RegistryHandler) Get(c *gin.Context) {
	h.respond(c, func(c *gin.Context, tenant, id uuid.UUID) (any, error) {
		return h.registry.Get(c.Request.Context(), tenant, id)
	})
}

// UpdateRegistration godoc
// @Summary      Record the registration of a deed
// @Tags         registry
// @Router       /repertorium/{id}/registration [put]
func (h *RegistryHandler) UpdateRegistration(c *gin.Context) {
	var req RegistrationRequest
	h.respondWith(c, &req, func(c *gin.Context, tenant, id uuid.UUID) (any, error) {
		return h.registry.UpdateRegistration(c.Request.Context(), tenant, id, req.Date.Time, req.Reference)
	})
}

// UpdateRemarks godoc
// @Summary      Replace the remarks of an entry
// @Tags         registry
// @Router       /repertorium/{id}/remarks [put]
func (h *RegistryHandler) UpdateRemarks(c *gin.Context) {
	var req RemarksRequest
	h.respondWith(c, &req, func(c *gin.Context, tenant, id uuid.UUID) (any, error) {
		return h.registry.UpdateRemarks(c.Request.Context(), tenant, id, req.Remarks)
	})
}

// Void godoc
// @Summary      Void an entry
// @Tags         registry
// @Router       /repertorium/{id}/void [post]
func (h *RegistryHandler) Void(c *gin.Context) {
	var req VoidEntryRequest
	h.respondWith(c, &req, func(c *gin.Context, tenant, id uuid.UUID) (any, error) {
		return h.registry.Void(c.Request.Context(), tenant, id, req.Reason)
	})
}

// RepertoriumPDF godoc
// @Summary      Repertorium of a year as PDF
// @Tags         registry
// @Produce      application/pdf
// @Param        year query int false "Year, defaults to the current one"
// @Router       /repertorium/pdf [get]
func (h *RegistryHandler) RepertoriumPDF(c *gin.Context) {
	h.export(c, h.registry.ExportRepertoriumPDF)
}

// Klapper godoc
// @Summary      Alphabetical party index
// @Tags         registry
// @Param        year   query int    false "Year"
// @Param        letter query string false "Section letter"
// @Param        prefix query string false "Name prefix"
// @Router       /klapper [get]
func (h *RegistryHandler) Klapper(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	year, ok := h.optionalIntQuery(c, "year")
	if !ok {
		return
	}
	sections, err := h.registry.Index(c.Request.Context(), id.TenantID, appregistry.KlapperRequest{
		Year:   year,
		Letter: c.Query("letter"),
		Prefix: c.Query("prefix"),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if sections == nil {
		sections = []appregistry.SectionResponse{}
	}
	h.Success(c, sections)
}

// KlapperPDF godoc
// @Summary      Klapper of a year as PDF
// @Tags         registry
// @Produce      application/pdf
// @Param        year query int false "Year, defaults to the current one"
// @Router       /klapper/pdf [get]
func (h *RegistryHandler) KlapperPDF(c *gin.Context) {
	h.export(c, h.registry.ExportKlapperPDF)
}

func (h *RegistryHandler) export(c *gin.Context, render func(ctx context.Context, tenantID uuid.UUID, year int) (*appregistry.PDF, error)) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	year := time.Now().Year()
	if raw := c.Query("year"); raw != "" {
		var err error
		year, err = strconv.Atoi(raw)
		if err != nil || year < 1900 || year > time.Now().Year()+1 {
			h.BadRequest(c, "Invalid year")
			return
		}
	}
	pdf, err := render(c.Request.Context(), id.TenantID, year)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	attachment(c, pdf.FileName, "application/pdf", pdf.Data)
}
