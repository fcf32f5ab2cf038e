package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/assistant"
	"github.com/notaris/backend/internal/domain/identity"
	"github.com/notaris/backend/internal/domain/licensing"
	"github.com/notaris/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormChatSessionRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormChatSessionRepository(db)
	ctx := context.Background()
	office := uuid.New()
	user := uuid.New()

	s, err := assistant.NewChatSession(office, user, "", "gpt-4o-mini", nil)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, s))

	q := assistant.NewChatMessage(s, assistant.RoleUser, "Wat zijn de registratierechten?")
	a := assistant.NewChatMessage(s, assistant.RoleAssistant, "In Vlaanderen **3%** voor de enige woning.")
	a.CreatedAt = q.CreatedAt.Add(time.Second)
	a.PromptTokens, a.CompletionTokens = 120, 30
	s.RecordUsage(120, 30, decimal.RequireFromString("0.000036"))
	require.NoError(t, repo.RecordExchange(ctx, s, q, a))

	t.Run("loads messages in order", func(t *testing.T) {
		found, err := repo.FindByID(ctx, office, s.ID, true)
		require.NoError(t, err)
		require.Len(t, found.Messages, 2)
		assert.Equal(t, assistant.RoleUser, found.Messages[0].Role)
		assert.Equal(t, 150, found.PromptTokens+found.CompletionTokens)

		bare, err := repo.FindByID(ctx, office, s.ID, false)
		require.NoError(t, err)
		assert.Empty(t, bare.Messages)
	})

	t.Run("lists sessions of the user only", func(t *testing.T) {
		list, total, err := repo.FindByUser(ctx, office, user, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Len(t, list, 1)

		_, total, err = repo.FindByUser(ctx, office, uuid.New(), shared.DefaultFilter())
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("usage counts deleted sessions", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, office, s.ID))
		_, err := repo.FindByID(ctx, office, s.ID, false)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		from := time.Now().Add(-time.Hour)
		rows, err := repo.Usage(ctx, office, from, time.Now().Add(time.Hour))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, user, rows[0].UserID)
		assert.Equal(t, int64(1), rows[0].Sessions)
		assert.Equal(t, int64(120), rows[0].PromptTokens)
		assert.Equal(t, int64(30), rows[0].CompletionTokens)
	})
}

func TestGormChatSessionRepository_UsageWindows(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormChatSessionRepository(db)
	ctx := context.Background()
	office := uuid.New()
	user := uuid.New()
	now := time.Now()
	earlier := now.AddDate(0, 0, -40)

	s, err := assistant.NewChatSession(office, user, "", "gpt-4o-mini", nil)
	require.NoError(t, err)
	s.CreatedAt = earlier
	require.NoError(t, repo.Create(ctx, s))

	exchange := func(at time.Time, prompt, completion int, cost string) {
		t.Helper()
		q := assistant.NewChatMessage(s, assistant.RoleUser, "Vraag")
		q.CreatedAt = at
		a := assistant.NewChatMessage(s, assistant.RoleAssistant, "Antwoord")
		a.CreatedAt = at.Add(time.Second)
		a.PromptTokens, a.CompletionTokens = prompt, completion
		a.Cost = decimal.RequireFromString(cost)
		s.RecordUsage(prompt, completion, a.Cost)
		require.NoError(t, repo.RecordExchange(ctx, s, q, a))
	}
	exchange(earlier, 100, 40, "0.004")
	exchange(now, 10, 4, "0.0004")
	require.NoError(t, s.Rename("Hernoemd gesprek"))
	require.NoError(t, repo.Update(ctx, s))

	usage := func(at time.Time) assistant.UsageRow {
		t.Helper()
		rows, err := repo.Usage(ctx, office, at.Add(-time.Hour), at.Add(time.Hour))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		return rows[0]
	}

	t.Run("each window counts its own messages", func(t *testing.T) {
		recent := usage(now)
		assert.Equal(t, int64(10), recent.PromptTokens)
		assert.Equal(t, int64(4), recent.CompletionTokens)
		assert.True(t, recent.Cost.Equal(decimal.RequireFromString("0.0004")), recent.Cost.String())
		assert.Equal(t, int64(1), recent.Sessions)

		old := usage(earlier)
		assert.Equal(t, int64(100), old.PromptTokens)
		assert.True(t, old.Cost.Equal(decimal.RequireFromString("0.004")), old.Cost.String())
	})

	t.Run("an empty window has no rows", func(t *testing.T) {
		rows, err := repo.Usage(ctx, office, now.AddDate(0, 0, -20), now.AddDate(0, 0, -10))
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("a stale session stores no messages", func(t *testing.T) {
		stale, err := repo.FindByID(ctx, office, s.ID, false)
		require.NoError(t, err)
		fresh, err := repo.FindByID(ctx, office, s.ID, false)
		require.NoError(t, err)
		require.NoError(t, fresh.Rename("Nieuwe titel"))
		require.NoError(t, repo.Update(ctx, fresh))

		q := assistant.NewChatMessage(stale, assistant.RoleUser, "Verloren vraag")
		stale.RecordUsage(5, 5, decimal.Zero)
		assert.ErrorIs(t, repo.RecordExchange(ctx, stale, q), shared.ErrConcurrencyConflict)

		found, err := repo.FindByID(ctx, office, s.ID, true)
		require.NoError(t, err)
		assert.Len(t, found.Messages, 4)
		assert.Equal(t, 110, found.PromptTokens)
	})
}

func TestGormKnowledgeRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormKnowledgeRepository(db)
	ctx := context.Background()
	office := uuid.New()
	dossierID := uuid.New()
	docID := uuid.New()
	noteID := uuid.New()

	chunks := assistant.BuildChunks(office, assistant.SourceDocument, docID, &dossierID,
		"Eerste paragraaf over de verkoop.\n\nTweede paragraaf over de lening.", 40, 0)
	require.Len(t, chunks, 2)
	require.NoError(t, repo.ReplaceSource(ctx, office, assistant.SourceDocument, docID, chunks))
	note := assistant.BuildChunks(office, assistant.SourceNote, noteID, nil, "Kantoor is gesloten op vrijdagnamiddag.", 0, 0)
	require.NoError(t, repo.ReplaceSource(ctx, office, assistant.SourceNote, noteID, note))
	other := assistant.BuildChunks(office, assistant.SourceDocument, uuid.New(), ptr(uuid.New()), "Ander dossier.", 0, 0)
	require.NoError(t, repo.ReplaceSource(ctx, office, assistant.SourceDocument, other[0].SourceID, other))

	t.Run("candidates cover the dossier and office notes", func(t *testing.T) {
		got, err := repo.Candidates(ctx, office, &dossierID, 0)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, docID, got[0].SourceID)
		assert.Equal(t, noteID, got[2].SourceID)
	})

	t.Run("replace swaps chunks", func(t *testing.T) {
		fresh := assistant.BuildChunks(office, assistant.SourceDocument, docID, &dossierID, "Nieuwe versie.", 0, 0)
		require.NoError(t, repo.ReplaceSource(ctx, office, assistant.SourceDocument, docID, fresh))
		got, err := repo.Candidates(ctx, office, &dossierID, 0)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("delete source", func(t *testing.T) {
		require.NoError(t, repo.DeleteSource(ctx, office, assistant.SourceNote, noteID))
		got, err := repo.Candidates(ctx, office, nil, 10)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})
}

func ptr[T any](v T) *T { return &v }

func TestGormLicenseRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormLicenseRepository(db)
	ctx := context.Background()
	office := uuid.New()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := repo.FindByTenant(ctx, office)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	grant := licensing.Grant{
		Status:  licensing.StatusActive,
		Edition: "standard",
		RoleFeatures: licensing.RoleFeatures{
			identity.RoleAdmin: {licensing.FeatureDossiers, licensing.FeatureInvoicing},
		},
	}
	lic, err := licensing.NewLicense(office, "ABCD-EFGH-IJKL-MNOP", "notaris.be", grant, now)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, lic))

	t.Run("round trips role features", func(t *testing.T) {
		found, err := repo.FindByTenant(ctx, office)
		require.NoError(t, err)
		assert.Equal(t, "ABCD-EFGH-IJKL-MNOP", found.Key)
		assert.Equal(t, []licensing.Feature{licensing.FeatureDossiers, licensing.FeatureInvoicing},
			found.RoleFeatures.For(identity.RoleAdmin))
	})

	t.Run("save after delete revives the row", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, office))
		_, err := repo.FindByTenant(ctx, office)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		again, err := licensing.NewLicense(office, "ZZZZ-EFGH-IJKL-MNOP", "notaris.be", grant, now)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, again))
		found, err := repo.FindByTenant(ctx, office)
		require.NoError(t, err)
		assert.Equal(t, "ZZZZ-EFGH-IJKL-MNOP", found.Key)
	})

	t.Run("flags upsert per feature", func(t *testing.T) {
		flag := &licensing.FeatureFlag{TenantID: office, Feature: licensing.FeatureInvoicing, Enabled: false, UpdatedAt: now}
		require.NoError(t, repo.SaveFlag(ctx, flag))
		firstID := flag.ID

		toggled := &licensing.FeatureFlag{TenantID: office, Feature: licensing.FeatureInvoicing, Enabled: true, UpdatedAt: now}
		require.NoError(t, repo.SaveFlag(ctx, toggled))
		assert.Equal(t, firstID, toggled.ID)

		flags, err := repo.ListFlags(ctx, office)
		require.NoError(t, err)
		require.Len(t, flags, 1)
		assert.True(t, flags[0].Enabled)
	})
}
