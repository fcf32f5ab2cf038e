package handler

import (
	"errors"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appdossier "github.com/notaris/backend/internal/application/dossier"
	"github.com/notaris/backend/internal/interfaces/http/dto"
)

// PartyRequest describes a party to the deed.
type PartyRequest struct {
	Kind        string `json:"kind" binding:"required,oneof=person company"`
	FirstName   string `json:"first_name" binding:"max=100"`
	LastName    string `json:"last_name" binding:"max=100"`
	CompanyName string `json:"company_name" binding:"max=200"`
	Capacity    string `json:"capacity" binding:"required,max=32"`
	NationalID  string `json:"national_id" binding:"max=32"`
	Email       string `json:"email" binding:"omitempty,email"`
	Phone       string `json:"phone" binding:"max=32"`
	Address     string `json:"address" binding:"max=500"`
}

func (p PartyRequest) toInput() appdossier.PartyInput {
	return appdossier.PartyInput{
		Kind:        p.Kind,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		CompanyName: p.CompanyName,
		Capacity:    p.Capacity,
		NationalID:  p.NationalID,
		Email:       p.Email,
		Phone:       p.Phone,
		Address:     p.Address,
	}
}

// CreateDossierRequest opens a dossier.
type CreateDossierRequest struct {
	Title       string         `json:"title" binding:"required,max=300"`
	DeedType    string         `json:"deed_type" binding:"required,deed_type"`
	Description string         `json:"description" binding:"max=4000"`
	NotaryID    *uuid.UUID     `json:"notary_id"`
	Parties     []PartyRequest `json:"parties" binding:"omitempty,max=50,dive"`
}

// UpdateDossierRequest replaces the descriptive fields of a dossier.
type UpdateDossierRequest struct {
	Title       string     `json:"title" binding:"required,max=300"`
	DeedType    string     `json:"deed_type" binding:"required,deed_type"`
	Description string     `json:"description" binding:"max=4000"`
	NotaryID    *uuid.UUID `json:"notary_id"`
}

// ChangeStatusRequest moves a dossier through its lifecycle.
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=open in_progress signed closed archived"`
}

// DossierListQuery filters the dossier list.
type DossierListQuery struct {
	dto.ListRequest
	Status   string `form:"status"`
	DeedType string `form:"deed_type"`
}

// DossierHandler serves dossiers, their parties and their documents.
type DossierHandler struct {
	BaseHandler
	dossiers  *appdossier.Service
	documents *appdossier.DocumentService
}

// NewDossierHandler creates a new dossier handler
func NewDossierHandler(dossiers *appdossier.Service, documents *appdossier.DocumentService) *DossierHandler {
	return &DossierHandler{dossiers: dossiers, documents: documents}
}

// Create godoc
// @Summary      Open a dossier
// @Tags         dossiers
// @Router       /dossiers [post]
func (h *DossierHandler) Create(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	var req CreateDossierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	parties := make([]appdossier.PartyInput, 0, len(req.Parties))
	for _, p := range req.Parties {
		parties = append(parties, p.toInput())
	}
	d, err := h.dossiers.Create(c.Request.Context(), id.TenantID, id.UserID, appdossier.CreateDossierRequest{
		Title:       req.Title,
		DeedType:    req.DeedType,
		Description: req.Description,
		NotaryID:    req.NotaryID,
		Parties:     parties,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, d)
}

// List godoc
// @Summary      List dossiers
// @Tags         dossiers
// @Router       /dossiers [get]
func (h *DossierHandler) List(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	var q DossierListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	notary, ok := h.optionalUUIDQuery(c, "notary_id")
	if !ok {
		return
	}
	page, size := q.PageOrDefault()
	result, err := h.dossiers.List(c.Request.Context(), id.TenantID, appdossier.ListFilter{
		Status:   q.Status,
		DeedType: q.DeedType,
		NotaryID: notary,
		Search:   q.Search,
		Page:     page,
		PageSize: size,
		OrderBy:  q.OrderBy,
		OrderDir: q.OrderDir,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, result)
}

// Get godoc
// @Summary      Get a dossier with its parties
// @Tags         dossiers
// @Router       /dossiers/{id} [get]
func (h *DossierHandler) Get(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	dossierID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	d, err := h.dossiers.Get(c.Request.Context(), id.TenantID, dossierID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, d)
}

// Update godoc
// @Summary      Update a dossier
// @Tags         dossiers
// @Router       /dossiers/{id} [put]
func (h *DossierHandler) Update(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	dossierID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req UpdateDossierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	d, err := h.dossiers.Update(c.Request.Context(), id.TenantID, dossierID, appdossier.UpdateDossierRequest{
		Title:       req.Title,
		DeedType:    req.DeedType,
		Description: req.Description,
		NotaryID:    req.NotaryID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, d)
}

// ChangeStatus godoc
// @Summary      Change the dossier status
// @Tags         dossiers
// @Router       /dossiers/{id}/status [put]
func (h *DossierHandler) ChangeStatus(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	dossierID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	d, err := h.dossiers.ChangeStatus(c.Request.Context(), id.TenantID, dossierID, req.Status)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, d)
}

// Delete godoc
// @Summary      Delete a dossier
// @Tags         dossiers
// @Router       /dossiers/{id} [delete]
func (h *DossierHandler) Delete(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	dossierID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.dossiers.Delete(c.Request.Context(), id.TenantID, dossierID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// AddParty godoc
// @Summary      Add a party
// @Tags         dossiers
// @Router       /dossiers/{id}/parties [post]
func (h *DossierHandler) AddParty(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	dossierID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req PartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	p, err := h.dossiers.AddParty(c.Request.Context(), id.TenantID, dossierID, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, p)
}

// UpdateParty godoc
// @Summary      Update a party
// @Tags         dossiers
// @Router       /dossiers/{id}/parties/{partyId} [put]
func (h *DossierHandler) UpdateParty(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	dossierID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	partyID, ok := h.uuidParam(c, "partyId")
	if !ok {
		return
	}
	var req PartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	p, err := h.dossiers.UpdateParty(c.Request.Context(), id.TenantID, dossierID, partyID, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// RemoveParty godoc
// @Summary      Remove a party
// @Tags         dossiers
// @Router       /dossiers/{id}/parties/{partyId} [delete]
func (h *DossierHandler) RemoveParty(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	dossierID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	partyID, ok := h.uuidParam(c, "partyId")
	if !ok {
		return
	}
	if err := h.dossiers.RemoveParty(c.Request.Context(), id.TenantID, dossierID, partyID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListDocuments godoc
// @Summary      Documents of a dossier
// @Tags         documents
// @Router       /dossiers/{id}/documents [get]
func (h *DossierHandler) ListDocuments(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	dossierID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	docs, err := h.documents.List(c.Request.Context(), id.TenantID, dossierID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, docs)
}

// UploadDocument godoc
// @Summary      Upload a document
// @Tags         documents
// @Accept       multipart/form-data
// @Param        file  formData file   true  "Document"
// @Param        title formData string false "Title, defaults to the file name"
// @Router       /dossiers/{id}/documents [post]
func (h *DossierHandler) UploadDocument(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	dossierID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File exceeds the maximum upload size")
			return
		}
		h.BadRequest(c, "A file field is required")
		return
	}
	if header.Size == 0 {
		h.Error(c, http.StatusBadRequest, "EMPTY_FILE", "Uploaded file is empty")
		return
	}
	file, err := header.Open()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mt
	}

	doc, err := h.documents.Upload(c.Request.Context(), id.TenantID, id.UserID, appdossier.UploadInput{
		DossierID:   dossierID,
		Title:       c.PostForm("title"),
		FileName:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Location", "/api/v1/documents/"+doc.ID.String())
	h.Created(c, doc)
}
