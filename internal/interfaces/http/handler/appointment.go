package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appappointment "github.com/notaris/backend/internal/application/appointment"
	"github.com/notaris/backend/internal/interfaces/http/dto"
)

// ScheduleAppointmentRequest books an appointment in a notary's agenda.
type ScheduleAppointmentRequest struct {
	Title     string     `json:"title" binding:"required,max=200"`
	Kind      string     `json:"kind" binding:"required,appointment_kind"`
	Location  string     `json:"location" binding:"max=200"`
	Notes     string     `json:"notes" binding:"max=4000"`
	StartAt   time.Time  `json:"start_at" binding:"required"`
	EndAt     time.Time  `json:"end_at" binding:"required,gtfield=StartAt"`
	NotaryID  uuid.UUID  `json:"notary_id" binding:"required"`
	DossierID *uuid.UUID `json:"dossier_id"`
	Attendees []string   `json:"attendees" binding:"omitempty,max=20,dive,email"`
}

// UpdateAppointmentRequest replaces the details that do not move the slot.
type UpdateAppointmentRequest struct {
	Location  string     `json:"location" binding:"max=200"`
	Notes     string     `json:"notes" binding:"max=4000"`
	DossierID *uuid.UUID `json:"dossier_id"`
	Attendees []string   `json:"attendees" binding:"omitempty,max=20,dive,email"`
}

// RescheduleAppointmentRequest moves an appointment.
type RescheduleAppointmentRequest struct {
	StartAt time.Time `json:"start_at" binding:"required"`
	EndAt   time.Time `json:"end_at" binding:"required,gtfield=StartAt"`
}

// CancelAppointmentRequest carries an optional reason.
type CancelAppointmentRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// AppointmentListQuery filters the agenda.
type AppointmentListQuery struct {
	dto.ListRequest
	Status string `form:"status"`
}

// AppointmentHandler serves the agenda.
type AppointmentHandler struct {
	BaseHandler
	appointments *appappointment.Service
}

// NewAppointmentHandler creates a new appointment handler
func NewAppointmentHandler(appointments *appappointment.Service) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments}
}

// Schedule godoc
// @Summary      Schedule an appointment
// @Tags         appointments
// @Router       /appointments [post]
func (h *AppointmentHandler) Schedule(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	var req ScheduleAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	a, err := h.appointments.Schedule(c.Request.Context(), id.TenantID, id.UserID, appappointment.ScheduleRequest{
		Title:     req.Title,
		Kind:      req.Kind,
		Location:  req.Location,
		Notes:     req.Notes,
		StartAt:   req.StartAt,
		EndAt:     req.EndAt,
		NotaryID:  req.NotaryID,
		DossierID: req.DossierID,
		Attendees: req.Attendees,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, a)
}

// List godoc
// @Summary      List appointments
// @Tags         appointments
// @Param        from query string false "Start of the window (date or RFC 3339)"
// @Param        to   query string false "End of the window"
// @Router       /appointments [get]
func (h *AppointmentHandler) List(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	var q AppointmentListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
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
	notary, ok := h.optionalUUIDQuery(c, "notary_id")
	if !ok {
		return
	}
	dossier, ok := h.optionalUUIDQuery(c, "dossier_id")
	if !ok {
		return
	}
	page, size := q.PageOrDefault()
	result, err := h.appointments.List(c.Request.Context(), id.TenantID, appappointment.ListFilter{
		From:      from,
		To:        to,
		NotaryID:  notary,
		DossierID: dossier,
		Status:    q.Status,
		Page:      page,
		PageSize:  size,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, result)
}

// Get godoc
// @Summary      Get an appointment
// @Tags         appointments
// @Router       /appointments/{id} [get]
func (h *AppointmentHandler) Get(c *gin.Context) {
	h.respond(c, func(c *gin.Context, tenant, id uuid.UUID) (any, error) {
		return h.appointments.Get(c.Request.Context(), tenant, id)
	})
}

// Update godoc
// @Summary      Update appointment details
// @Tags         appointments
// @Router       /appointments/{id} [put]
func (h *AppointmentHandler) Update(c *gin.Context) {
	var req UpdateAppointmentRequest
	h.respondWith(c, &req, func(c *gin.Context, tenant, id uuid.UUID) (any, error) {
		return h.appointments.Update(c.Request.Context(), tenant, id, appappointment.UpdateRequest{
			Location:  req.Location,
			Notes:     req.Notes,
			DossierID: req.DossierID,
			Attendees: req.Attendees,
		})
	})
}

// Reschedule godoc
// @Summary      Move an appointment
// @Tags         appointments
// @Router       /appointments/{id}/reschedule [post]
func (h *AppointmentHandler) Reschedule(c *gin.Context) {
	var req RescheduleAppointmentRequest
	h.respondWith(c, &req, func(c *gin.Context, tenant, id uuid.UUID) (any, error) {
		return h.appointments.Reschedule(c.Request.Context(), tenant, id, appappointment.RescheduleRequest{
			StartAt: req.StartAt,
			EndAt:   req.EndAt,
		})
	})
}

// Confirm godoc
// @Summary      Confirm an appointment
// @Tags         appointments
// @Router       /appointments/{id}/confirm [post]
func (h *AppointmentHandler) Confirm(c *gin.Context) {
	h.respond(c, func(c *gin.Context, tenant, id uuid.UUID) (any, error) {
		return h.appointments.Confirm(c.Request.Context(), tenant, id)
	})
}

// Cancel godoc
// @Summary      Cancel an appointment
// @Tags         appointments
// @Router       /appointments/{id}/cancel [post]
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	var req CancelAppointmentRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BindError(c, err)
			return
		}
	}
	h.respond(c, func(c *gin.Context, tenant, id uuid.UUID) (any, error) {
		return h.appointments.Cancel(c.Request.Context(), tenant, id, req.Reason)
	})
}

// Complete godoc
// @Summary      Mark an appointment as held
// @Tags         appointments
// @Router       /appointments/{id}/complete [post]
func (h *AppointmentHandler) Complete(c *gin.Context) {
	h.respond(c, func(c *gin.Context, tenant, id uuid.UUID) (any, error) {
		return h.appointments.Complete(c.Request.Context(), tenant, id)
	})
}

// Delete godoc
// @Summary      Delete an appointment
// @Tags         appointments
// @Router       /appointments/{id} [delete]
func (h *AppointmentHandler) Delete(c *gin.Context) {
	id, ok := h.caller(c)
	if !ok {
		return
	}
	apptID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.appointments.Delete(c.Request.Context(), id.TenantID, apptID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
