package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/appointment"
	"github.com/notaris/backend/internal/domain/messaging"
	"github.com/notaris/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormAppointmentRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormAppointmentRepository(db)
	ctx := context.Background()
	office := uuid.New()
	notary := uuid.New()
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	at := func(h int) time.Time { return time.Date(2026, 3, 2, h, 0, 0, 0, time.UTC) }

	signing, err := appointment.NewAppointment(office, notary, notary, "Verlijden akte", appointment.KindSigning, at(10), at(11), now)
	require.NoError(t, err)
	require.NoError(t, signing.SetAttendees([]string{"koper@example.be"}))
	require.NoError(t, repo.Create(ctx, signing))

	cancelled, err := appointment.NewAppointment(office, notary, notary, "Consult", appointment.KindConsultation, at(14), at(15), now)
	require.NoError(t, err)
	require.NoError(t, cancelled.Cancel("client ill"))
	require.NoError(t, repo.Create(ctx, cancelled))

	t.Run("round trips attendees", func(t *testing.T) {
		found, err := repo.FindByID(ctx, office, signing.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"koper@example.be"}, found.Attendees)
		assert.True(t, found.StartAt.Equal(at(10)))
	})

	t.Run("overlap uses half-open slots", func(t *testing.T) {
		hits, err := repo.FindOverlapping(ctx, office, notary, appointment.Slot{Start: at(10).Add(30 * time.Minute), End: at(12)}, nil)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, signing.ID, hits[0].ID)

		hits, err = repo.FindOverlapping(ctx, office, notary, appointment.Slot{Start: at(11), End: at(12)}, nil)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("overlap ignores cancelled and excluded appointments", func(t *testing.T) {
		hits, err := repo.FindOverlapping(ctx, office, notary, appointment.Slot{Start: at(14), End: at(15)}, nil)
		require.NoError(t, err)
		assert.Empty(t, hits)

		hits, err = repo.FindOverlapping(ctx, office, notary, signing.Slot(), &signing.ID)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("agenda window lists intersecting appointments in start order", func(t *testing.T) {
		from, to := at(9), at(16)
		list, total, err := repo.FindAll(ctx, office, appointment.Filter{Filter: shared.Filter{Page: 1, PageSize: 50}, From: &from, To: &to})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, list, 2)
		assert.Equal(t, signing.ID, list[0].ID)
	})
}

func TestGormAppointmentRepository_Booking(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormAppointmentRepository(db)
	ctx := context.Background()
	office := uuid.New()
	notary := uuid.New()
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	at := func(h int) time.Time { return time.Date(2026, 3, 2, h, 0, 0, 0, time.UTC) }
	book := func(from, to int) *appointment.Appointment {
		a, err := appointment.NewAppointment(office, notary, notary, "Verlijden akte", appointment.KindSigning, at(from), at(to), now)
		require.NoError(t, err)
		return a
	}

	first := book(10, 11)
	require.NoError(t, repo.Create(ctx, first))

	t.Run("a clashing booking is refused", func(t *testing.T) {
		err := repo.Create(ctx, book(10, 12))
		assert.ErrorIs(t, err, appointment.ErrOverlap)

		list, total, err := repo.FindAll(ctx, office, appointment.Filter{Filter: shared.Filter{Page: 1, PageSize: 50}})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, first.ID, list[0].ID)
	})

	t.Run("back to back slots are free", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, book(11, 12)))
		require.NoError(t, repo.Create(ctx, book(9, 10)))
	})

	t.Run("another notary is not blocked", func(t *testing.T) {
		other := uuid.New()
		a, err := appointment.NewAppointment(office, other, other, "Consult", appointment.KindConsultation, at(10), at(11), now)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, a))
	})

	t.Run("moving onto a taken slot is refused", func(t *testing.T) {
		a := book(15, 16)
		require.NoError(t, repo.Create(ctx, a))
		require.NoError(t, a.Reschedule(at(10), at(11), now))
		assert.ErrorIs(t, repo.Update(ctx, a), appointment.ErrOverlap)

		found, err := repo.FindByID(ctx, office, a.ID)
		require.NoError(t, err)
		assert.True(t, found.StartAt.Equal(at(15)))
	})

	t.Run("a cancelled slot can be rebooked", func(t *testing.T) {
		require.NoError(t, first.Cancel("client ill"))
		require.NoError(t, repo.Update(ctx, first))
		require.NoError(t, repo.Create(ctx, book(10, 11)))
	})
}

func TestGormMessageRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormMessageRepository(db)
	ctx := context.Background()
	office := uuid.New()
	alice, bob := uuid.New(), uuid.New()

	first, err := messaging.NewInternalMessage(office, alice, bob, "01J0THREAD0000000000000000", "Ontwerp akte", "Zie bijlage")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))
	reply, err := messaging.NewInternalMessage(office, bob, alice, first.ThreadID, messaging.ReplySubject(first.Subject), "Akkoord")
	require.NoError(t, err)
	reply.SentAt = first.SentAt.Add(time.Minute)
	require.NoError(t, repo.Create(ctx, reply))

	t.Run("inbox and unread count", func(t *testing.T) {
		inbox, total, err := repo.FindMailbox(ctx, office, bob, messaging.Filter{Filter: shared.DefaultFilter(), Mailbox: messaging.MailboxInbox})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, inbox, 1)
		assert.Equal(t, first.ID, inbox[0].ID)

		n, err := repo.CountUnread(ctx, office, bob)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("mark read clears unread", func(t *testing.T) {
		require.True(t, first.MarkRead(bob, time.Now()))
		require.NoError(t, repo.Update(ctx, first))
		n, err := repo.CountUnread(ctx, office, bob)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("thread is ordered oldest first", func(t *testing.T) {
		thread, err := repo.FindThread(ctx, office, first.ThreadID)
		require.NoError(t, err)
		require.Len(t, thread, 2)
		assert.Equal(t, first.ID, thread[0].ID)
		assert.Equal(t, reply.ID, thread[1].ID)
	})

	t.Run("hiding only affects one side", func(t *testing.T) {
		require.NoError(t, first.HideFor(alice, time.Now()))
		require.NoError(t, repo.Update(ctx, first))

		sent, _, err := repo.FindMailbox(ctx, office, alice, messaging.Filter{Filter: shared.DefaultFilter(), Mailbox: messaging.MailboxSent})
		require.NoError(t, err)
		assert.Empty(t, sent)

		inbox, _, err := repo.FindMailbox(ctx, office, bob, messaging.Filter{Filter: shared.DefaultFilter(), Mailbox: messaging.MailboxInbox})
		require.NoError(t, err)
		assert.Len(t, inbox, 1)
	})
}
