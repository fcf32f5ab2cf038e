// Package registry holds the repertorium, the chronological ledger of executed deeds,
// and the klapper, its alphabetical index of appearing parties.
package registry

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// EntryStatus of a repertorium line.
type EntryStatus string

const (
	EntryRecorded EntryStatus = "recorded"
	EntryVoided   EntryStatus = "voided"
)

// ErrEntryVoided is returned when changing a voided entry.
var ErrEntryVoided = shared.NewDomainError("ENTRY_VOIDED", "Voided repertorium entries cannot be changed")

// RepertoriumEntry is one numbered deed in the ledger. Numbers are allocated
// per office and calendar year and never reused.
type RepertoriumEntry struct {
	shared.TenantAggregateRoot
	Year             int
	Number           int
	DeedDate         time.Time
	DeedType         string
	Title            string
	NotaryID         uuid.UUID
	DossierID        *uuid.UUID
	RegistrationDate *time.Time
	RegistrationRef  string
	Fee              decimal.Decimal
	Remarks          string
	Status           EntryStatus
	VoidReason       string
	Parties          []KlapperEntry
}

// NewRepertoriumEntry builds an unnumbered entry. The year follows the deed date.
func NewRepertoriumEntry(tenantID, createdBy, notaryID uuid.UUID, deedDate time.Time, deedType, title string) (*RepertoriumEntry, error) {
	title = strings.TrimSpace(title)
	if title == "" || len(title) > 500 {
		return nil, shared.NewDomainError("INVALID_TITLE", "Deed title must be between 1 and 500 characters")
	}
	deedType = strings.TrimSpace(deedType)
	if deedType == "" {
		return nil, shared.NewDomainError("INVALID_DEED_TYPE", "Deed type is required")
	}
	if notaryID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_NOTARY", "The executing notary is required")
	}
	if deedDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DEED_DATE", "Deed date is required")
	}
	return &RepertoriumEntry{
		TenantAggregateRoot: shared.NewTenantAggregateRootWithCreator(tenantID, createdBy),
		Year:                deedDate.Year(),
		DeedDate:            deedDate,
		DeedType:            deedType,
		Title:               title,
		NotaryID:            notaryID,
		Fee:                 decimal.Zero,
		Status:              EntryRecorded,
	}, nil
}

// AssignNumber sets the ledger number once.
func (e *RepertoriumEntry) AssignNumber(n int) error {
	if e.Number != 0 {
		return shared.NewDomainError("ALREADY_NUMBERED", "Repertorium entry already has a number")
	}
	if n <= 0 {
		return shared.NewDomainError("INVALID_NUMBER", "Repertorium number must be positive")
	}
	e.Number = n
	return nil
}

// Label renders the entry reference, e.g. "2026/15".
func (e *RepertoriumEntry) Label() string {
	return fmt.Sprintf("%d/%d", e.Year, e.Number)
}

// AddParty attaches a party that will be indexed in the klapper.
func (e *RepertoriumEntry) AddParty(p KlapperEntry) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p.ID = uuid.New()
	p.TenantID = e.TenantID
	p.EntryID = e.ID
	p.Year = e.Year
	e.Parties = append(e.Parties, p)
	return nil
}

// SetFee sets the fee charged for the deed.
func (e *RepertoriumEntry) SetFee(fee decimal.Decimal) error {
	if fee.IsNegative() {
		return shared.NewDomainError("INVALID_FEE", "Fee cannot be negative")
	}
	e.Fee = fee.Round(2)
	return nil
}

// RecordRegistration stores the registration office's date and reference.
func (e *RepertoriumEntry) RecordRegistration(date time.Time, ref string) error {
	if e.Status == EntryVoided {
		return ErrEntryVoided
	}
	if date.Before(e.DeedDate.Truncate(24 * time.Hour)) {
		return shared.NewDomainError("INVALID_REGISTRATION_DATE", "Registration cannot precede the deed date")
	}
	ref = strings.TrimSpace(ref)
	if len(ref) > 100 {
		return shared.NewDomainError("INVALID_REGISTRATION_REF", "Registration reference cannot exceed 100 characters")
	}
	e.RegistrationDate = &date
	e.RegistrationRef = ref
	e.IncrementVersion()
	return nil
}

// SetRemarks updates the free-form remarks column.
func (e *RepertoriumEntry) SetRemarks(remarks string) error {
	if e.Status == EntryVoided {
		return ErrEntryVoided
	}
	if len(remarks) > 2000 {
		return shared.NewDomainError("INVALID_REMARKS", "Remarks cannot exceed 2000 characters")
	}
	e.Remarks = strings.TrimSpace(remarks)
	e.IncrementVersion()
	return nil
}

// Void strikes the entry. It keeps its number.
func (e *RepertoriumEntry) Void(reason string) error {
	if e.Status == EntryVoided {
		return ErrEntryVoided
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "A reason is required to void an entry")
	}
	e.Status = EntryVoided
	e.VoidReason = reason
	e.IncrementVersion()
	return nil
}
