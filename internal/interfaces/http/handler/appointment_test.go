package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	appappointment "github.com/notaris/backend/internal/application/appointment"
	"github.com/notaris/backend/internal/domain/identity"
	"github.com/notaris/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAppointmentHandler(t *testing.T) {
	e := newEnv(t)
	h := NewAppointmentHandler(e.app.Appointments)
	e.engine.GET("/appointments", h.List)
	e.engine.POST("/appointments", h.Schedule)
	e.engine.GET("/appointments/:id", h.Get)
	e.engine.POST("/appointments/:id/reschedule", h.Reschedule)
	e.engine.POST("/appointments/:id/confirm", h.Confirm)
	e.engine.POST("/appointments/:id/cancel", h.Cancel)
	e.engine.DELETE("/appointments/:id", h.Delete)

	notary := e.app.CreateUser(t, "mtr.peeters", identity.RoleNotary)
	clerk := e.app.CreateUser(t, "griet", identity.RoleClerk)
	start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)

	schedule := func(from, to time.Time, notaryID uuid.UUID) ScheduleAppointmentRequest {
		return ScheduleAppointmentRequest{
			Title:     "Ondertekening verkoopakte",
			Kind:      "signing",
			StartAt:   from,
			EndAt:     to,
			NotaryID:  notaryID,
			Attendees: []string{"koper@example.be"},
		}
	}

	rec := testutil.DoJSON(t, e.engine, http.MethodPost, "/appointments", schedule(start, start.Add(time.Hour), notary.ID))
	appt := testutil.Data[appappointment.AppointmentResponse](t, rec, http.StatusCreated)
	assert.Equal(t, "scheduled", appt.Status)
	path := "/appointments/" + appt.ID.String()

	t.Run("overlap", func(t *testing.T) {
		rec := testutil.DoJSON(t, e.engine, http.MethodPost, "/appointments",
			schedule(start.Add(30*time.Minute), start.Add(90*time.Minute), notary.ID))
		testutil.AssertError(t, rec, http.StatusConflict, "APPOINTMENT_OVERLAP")
	})

	t.Run("back to back is allowed", func(t *testing.T) {
		rec := testutil.DoJSON(t, e.engine, http.MethodPost, "/appointments",
			schedule(start.Add(time.Hour), start.Add(2*time.Hour), notary.ID))
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})

	t.Run("clerk is not a notary", func(t *testing.T) {
		rec := testutil.DoJSON(t, e.engine, http.MethodPost, "/appointments",
			schedule(start.Add(5*time.Hour), start.Add(6*time.Hour), clerk.ID))
		testutil.AssertError(t, rec, http.StatusBadRequest, "INVALID_NOTARY")
	})

	t.Run("end before start", func(t *testing.T) {
		rec := testutil.DoJSON(t, e.engine, http.MethodPost, "/appointments",
			schedule(start.Add(5*time.Hour), start.Add(4*time.Hour), notary.ID))
		testutil.AssertError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
	})

	t.Run("list window", func(t *testing.T) {
		rec := testutil.DoJSON(t, e.engine, http.MethodGet,
			"/appointments?from="+start.Format(time.RFC3339)+"&to="+start.Add(90*time.Minute).Format(time.RFC3339)+"&notary_id="+notary.ID.String(), nil)
		items, _ := testutil.Page[appappointment.AppointmentResponse](t, rec)
		assert.NotEmpty(t, items)

		rec = testutil.DoJSON(t, e.engine, http.MethodGet, "/appointments?from=yesterday", nil)
		testutil.AssertError(t, rec, http.StatusBadRequest, "BAD_REQUEST")
	})

	t.Run("confirm then cancel frees the slot", func(t *testing.T) {
		rec := testutil.DoJSON(t, e.engine, http.MethodPost, path+"/confirm", nil)
		got := testutil.Data[appappointment.AppointmentResponse](t, rec, http.StatusOK)
		assert.Equal(t, "confirmed", got.Status)

		rec = testutil.DoJSON(t, e.engine, http.MethodPost, path+"/cancel", CancelAppointmentRequest{Reason: "koper ziek"})
		got = testutil.Data[appappointment.AppointmentResponse](t, rec, http.StatusOK)
		assert.Equal(t, "cancelled", got.Status)
		assert.Equal(t, "koper ziek", got.CancelReason)

		rec = testutil.DoJSON(t, e.engine, http.MethodPost, "/appointments",
			schedule(start.Add(15*time.Minute), start.Add(45*time.Minute), notary.ID))
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})

	t.Run("cancel without body", func(t *testing.T) {
		rec := testutil.DoJSON(t, e.engine, http.MethodPost, "/appointments",
			schedule(start.Add(24*time.Hour), start.Add(25*time.Hour), notary.ID))
		other := testutil.Data[appappointment.AppointmentResponse](t, rec, http.StatusCreated)

		rec = testutil.DoJSON(t, e.engine, http.MethodPost, "/appointments/"+other.ID.String()+"/cancel", nil)
		got := testutil.Data[appappointment.AppointmentResponse](t, rec, http.StatusOK)
		assert.Equal(t, "cancelled", got.Status)
	})
}
