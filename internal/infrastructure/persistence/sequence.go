package persistence

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/shared"
	"github.com/notaris/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Counter scopes. Each scope numbers independently per office and year.
const (
	ScopeDossier     = "dossier"
	ScopeInvoice     = "invoice"
	ScopeRepertorium = "repertorium"
)

// nextSequence increments and returns the counter for (tenant, scope, year).
// It must run inside a transaction; the row lock serializes concurrent callers
// so numbers are gapless as long as the surrounding transaction commits.
func nextSequence(tx *gorm.DB, tenantID uuid.UUID, scope string, year int) (int, error) {
	seed := models.SequenceCounterModel{
		TenantID:  tenantID,
		Scope:     scope,
		Year:      year,
		UpdatedAt: time.Now(),
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return 0, err
	}

	var counter models.SequenceCounterModel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND scope = ? AND year = ?", tenantID, scope, year).
		First(&counter).Error; err != nil {
		return 0, translateError(err)
	}

	counter.Value++
	if err := tx.Model(&models.SequenceCounterModel{}).
		Where("tenant_id = ? AND scope = ? AND year = ?", tenantID, scope, year).
		Updates(map[string]any{"value": counter.Value, "updated_at": time.Now()}).Error; err != nil {
		return 0, err
	}
	return counter.Value, nil
}

// translateError maps driver errors onto domain errors.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.ErrAlreadyExists
	default:
		return err
	}
}

// paginate applies the normalized filter's page window.
func paginate(q *gorm.DB, f shared.Filter) *gorm.DB {
	f = f.Normalize()
	return q.Offset(f.Offset()).Limit(f.PageSize)
}

// likePattern escapes LIKE wildcards in user input.
func likePattern(s string) string {
	out := make([]rune, 0, len(s)+2)
	out = append(out, '%')
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(append(out, '%'))
}
