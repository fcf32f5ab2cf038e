package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/appointment"
	"github.com/notaris/backend/internal/domain/identity"
	"github.com/notaris/backend/internal/domain/shared"
	"github.com/notaris/backend/internal/infrastructure/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAppointmentRepository is a mock implementation of appointment.Repository
type MockAppointmentRepository struct {
	mock.Mock
}

func (m *MockAppointmentRepository) Create(ctx context.Context, a *appointment.Appointment) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAppointmentRepository) Update(ctx context.Context, a *appointment.Appointment) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAppointmentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*appointment.Appointment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appointment.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter appointment.Filter) ([]*appointment.Appointment, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*appointment.Appointment), args.Get(1).(int64), args.Error(2)
}

func (m *MockAppointmentRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

type failingSender struct{}

func (failingSender) Send(context.Context, *mail.Message) error { return errors.New("smtp down") }

var testNow = time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)

func newTestService(repo *MockAppointmentRepository, sender mail.Sender) *Service {
	svc := NewService(repo, nil, sender, nil)
	svc.now = func() time.Time { return testNow }
	return svc
}

func newBooked(t *testing.T, tenantID, notaryID uuid.UUID, startHour int) *appointment.Appointment {
	t.Helper()
	start := testNow.Add(time.Duration(startHour) * time.Hour)
	a, err := appointment.NewAppointment(tenantID, uuid.New(), notaryID, "Ondertekening", appointment.KindSigning, start, start.Add(time.Hour), testNow)
	require.NoError(t, err)
	require.NoError(t, a.SetAttendees([]string{"klant@example.com"}))
	return a
}

func TestService_Schedule(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	notaryID := uuid.New()
	req := ScheduleRequest{
		Title:     "Ondertekening verkoop",
		Kind:      "signing",
		Location:  "Kantoor Gent",
		StartAt:   testNow.Add(24 * time.Hour),
		EndAt:     testNow.Add(25 * time.Hour),
		NotaryID:  notaryID,
		Attendees: []string{"Koper@Example.com", "koper@example.com", "verkoper@example.com"},
	}

	t.Run("books and notifies attendees", func(t *testing.T) {
		repo := new(MockAppointmentRepository)
		sender := mail.NewLogSender(nil)
		svc := newTestService(repo, sender)
		repo.On("Create", mock.Anything, mock.AnythingOfType("*appointment.Appointment")).Return(nil)

		resp, err := svc.Schedule(ctx, tenantID, uuid.New(), req)
		require.NoError(t, err)
		assert.Equal(t, "scheduled", resp.Status)
		assert.Equal(t, []string{"koper@example.com", "verkoper@example.com"}, resp.Attendees)

		sent := sender.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "Appointment: Ondertekening verkoop", sent[0].Subject)
		assert.Contains(t, sent[0].Text, "Kantoor Gent")
	})

	t.Run("taken slot sends no mail", func(t *testing.T) {
		repo := new(MockAppointmentRepository)
		sender := mail.NewLogSender(nil)
		svc := newTestService(repo, sender)
		repo.On("Create", mock.Anything, mock.Anything).Return(appointment.ErrOverlap)

		_, err := svc.Schedule(ctx, tenantID, uuid.New(), req)
		assert.ErrorIs(t, err, appointment.ErrOverlap)
		assert.Empty(t, sender.Sent())
	})

	t.Run("past start", func(t *testing.T) {
		svc := newTestService(new(MockAppointmentRepository), nil)
		past := req
		past.StartAt = testNow.Add(-time.Hour)
		past.EndAt = testNow
		_, err := svc.Schedule(ctx, tenantID, uuid.New(), past)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_TIME_RANGE", de.Code)
	})

	t.Run("mail failure is not fatal", func(t *testing.T) {
		repo := new(MockAppointmentRepository)
		svc := newTestService(repo, failingSender{})
		repo.On("Create", mock.Anything, mock.Anything).Return(nil)

		_, err := svc.Schedule(ctx, tenantID, uuid.New(), req)
		assert.NoError(t, err)
	})
}

func TestService_ScheduleChecksNotaryRole(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	clerk := &identity.User{Role: identity.RoleClerk}
	clerk.ID = uuid.New()

	users := new(mockUsers)
	users.On("FindByID", mock.Anything, tenantID, clerk.ID).Return(clerk, nil)
	svc := NewService(new(MockAppointmentRepository), users, nil, nil)
	svc.now = func() time.Time { return testNow }

	_, err := svc.Schedule(ctx, tenantID, uuid.New(), ScheduleRequest{
		Title: "Consult", Kind: "consultation", NotaryID: clerk.ID,
		StartAt: testNow.Add(time.Hour), EndAt: testNow.Add(2 * time.Hour),
	})
	assert.ErrorIs(t, err, ErrInvalidNotary)
}

func TestService_Reschedule(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	notaryID := uuid.New()

	repo := new(MockAppointmentRepository)
	sender := mail.NewLogSender(nil)
	svc := newTestService(repo, sender)
	a := newBooked(t, tenantID, notaryID, 2)
	require.NoError(t, a.Confirm())

	repo.On("FindByID", mock.Anything, tenantID, a.ID).Return(a, nil)
	repo.On("Update", mock.Anything, a).Return(nil)

	resp, err := svc.Reschedule(ctx, tenantID, a.ID, RescheduleRequest{
		StartAt: testNow.Add(48 * time.Hour), EndAt: testNow.Add(49 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "scheduled", resp.Status)
	require.Len(t, sender.Sent(), 1)
	assert.Contains(t, sender.Sent()[0].Subject, "moved")
}

func TestService_CancelAndComplete(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	repo := new(MockAppointmentRepository)
	sender := mail.NewLogSender(nil)
	svc := newTestService(repo, sender)
	a := newBooked(t, tenantID, uuid.New(), 1)
	repo.On("FindByID", mock.Anything, tenantID, a.ID).Return(a, nil)
	repo.On("Update", mock.Anything, a).Return(nil)

	resp, err := svc.Cancel(ctx, tenantID, a.ID, "Klant ziek")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", resp.Status)
	assert.Equal(t, "Klant ziek", resp.CancelReason)
	require.Len(t, sender.Sent(), 1)
	assert.Contains(t, sender.Sent()[0].Text, "Klant ziek")

	_, err = svc.Complete(ctx, tenantID, a.ID)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_STATE", de.Code)
}

func TestService_List(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	from := testNow
	to := testNow.Add(-time.Hour)

	svc := newTestService(new(MockAppointmentRepository), nil)
	_, err := svc.List(ctx, tenantID, ListFilter{From: &from, To: &to})
	assert.Error(t, err)

	repo := new(MockAppointmentRepository)
	svc = newTestService(repo, nil)
	repo.On("FindAll", mock.Anything, tenantID, mock.MatchedBy(func(f appointment.Filter) bool {
		return f.OrderBy == "start_at" && f.Status != nil && *f.Status == appointment.StatusConfirmed
	})).Return([]*appointment.Appointment{}, int64(0), nil)
	page, err := svc.List(ctx, tenantID, ListFilter{Status: "confirmed"})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

type mockUsers struct {
	mock.Mock
	identity.UserRepository
}

func (m *mockUsers) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}
