// Package dossier holds notarial case files, their parties and the documents attached to them.
package dossier

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/shared"
)

// DeedType is the kind of notarial act a dossier prepares.
type DeedType string

const (
	DeedSale             DeedType = "sale"
	DeedMortgage         DeedType = "mortgage"
	DeedIncorporation    DeedType = "incorporation"
	DeedWill             DeedType = "will"
	DeedMarriageContract DeedType = "marriage_contract"
	DeedDonation         DeedType = "donation"
	DeedSuccession       DeedType = "succession"
	DeedOther            DeedType = "other"
)

// IsValid reports whether d is a known deed type.
func (d DeedType) IsValid() bool {
	switch d {
	case DeedSale, DeedMortgage, DeedIncorporation, DeedWill, DeedMarriageContract,
		DeedDonation, DeedSuccession, DeedOther:
		return true
	}
	return false
}

// Status is the lifecycle state of a dossier.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusSigned     Status = "signed"
	StatusClosed     Status = "closed"
	StatusArchived   Status = "archived"
)

var transitions = map[Status][]Status{
	StatusOpen:       {StatusInProgress, StatusClosed},
	StatusInProgress: {StatusOpen, StatusSigned, StatusClosed},
	StatusSigned:     {StatusClosed},
	StatusClosed:     {StatusArchived, StatusInProgress},
	StatusArchived:   {},
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Dossier is a notarial case file.
type Dossier struct {
	shared.TenantAggregateRoot
	Reference   string
	Year        int
	Sequence    int
	Title       string
	DeedType    DeedType
	Status      Status
	NotaryID    *uuid.UUID
	Description string
	ClosedAt    *time.Time
	Parties     []Party
}

// NewDossier creates an open dossier. The reference is assigned by AssignReference.
func NewDossier(tenantID, createdBy uuid.UUID, title string, deedType DeedType) (*Dossier, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Dossier title cannot be empty")
	}
	if len(title) > 300 {
		return nil, shared.NewDomainError("INVALID_TITLE", "Dossier title cannot exceed 300 characters")
	}
	if !deedType.IsValid() {
		return nil, shared.NewDomainError("INVALID_DEED_TYPE", "Unknown deed type")
	}

	return &Dossier{
		TenantAggregateRoot: shared.NewTenantAggregateRootWithCreator(tenantID, createdBy),
		Title:               title,
		DeedType:            deedType,
		Status:              StatusOpen,
		Parties:             []Party{},
	}, nil
}

// AssignReference sets the YYYY/NNNN reference from a yearly sequence.
func (d *Dossier) AssignReference(year, seq int) {
	d.Year = year
	d.Sequence = seq
	d.Reference = FormatReference(year, seq)
}

// FormatReference renders a dossier reference.
func FormatReference(year, seq int) string {
	return fmt.Sprintf("%04d/%04d", year, seq)
}

// IsEditable reports whether the dossier content may still change.
func (d *Dossier) IsEditable() bool {
	return d.Status != StatusClosed && d.Status != StatusArchived
}

// Update changes descriptive fields.
func (d *Dossier) Update(title string, deedType DeedType, description string, notaryID *uuid.UUID) error {
	if !d.IsEditable() {
		return shared.NewDomainError("DOSSIER_LOCKED", "Closed or archived dossiers cannot be edited")
	}
	title = strings.TrimSpace(title)
	if title == "" || len(title) > 300 {
		return shared.NewDomainError("INVALID_TITLE", "Dossier title must be between 1 and 300 characters")
	}
	if !deedType.IsValid() {
		return shared.NewDomainError("INVALID_DEED_TYPE", "Unknown deed type")
	}

	d.Title = title
	d.DeedType = deedType
	d.Description = description
	d.NotaryID = notaryID
	d.IncrementVersion()
	return nil
}

// ChangeStatus moves the dossier through its lifecycle.
func (d *Dossier) ChangeStatus(next Status) error {
	if !next.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown dossier status")
	}
	if !d.Status.CanTransitionTo(next) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot move dossier from %s to %s", d.Status, next))
	}

	d.Status = next
	switch next {
	case StatusClosed:
		now := time.Now()
		d.ClosedAt = &now
	case StatusInProgress:
		d.ClosedAt = nil
	}
	d.IncrementVersion()
	return nil
}

// AddParty attaches a party to the dossier.
func (d *Dossier) AddParty(p Party) (*Party, error) {
	if !d.IsEditable() {
		return nil, shared.NewDomainError("DOSSIER_LOCKED", "Closed or archived dossiers cannot be edited")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.DossierID = d.ID
	p.TenantID = d.TenantID
	d.Parties = append(d.Parties, p)
	d.IncrementVersion()
	return &d.Parties[len(d.Parties)-1], nil
}

// UpdateParty replaces the party with the same ID.
func (d *Dossier) UpdateParty(p Party) error {
	if !d.IsEditable() {
		return shared.NewDomainError("DOSSIER_LOCKED", "Closed or archived dossiers cannot be edited")
	}
	if err := p.Validate(); err != nil {
		return err
	}
	for i := range d.Parties {
		if d.Parties[i].ID == p.ID {
			p.DossierID = d.ID
			p.TenantID = d.TenantID
			d.Parties[i] = p
			d.IncrementVersion()
			return nil
		}
	}
	return shared.NewDomainError("NOT_FOUND", "Party not found")
}

// RemoveParty detaches a party.
func (d *Dossier) RemoveParty(partyID uuid.UUID) error {
	if !d.IsEditable() {
		return shared.NewDomainError("DOSSIER_LOCKED", "Closed or archived dossiers cannot be edited")
	}
	for i := range d.Parties {
		if d.Parties[i].ID == partyID {
			d.Parties = append(d.Parties[:i], d.Parties[i+1:]...)
			d.IncrementVersion()
			return nil
		}
	}
	return shared.NewDomainError("NOT_FOUND", "Party not found")
}

// FindParty returns a party by ID.
func (d *Dossier) FindParty(partyID uuid.UUID) (*Party, bool) {
	for i := range d.Parties {
		if d.Parties[i].ID == partyID {
			return &d.Parties[i], true
		}
	}
	return nil, false
}
