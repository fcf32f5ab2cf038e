package registry

import (
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/registry"
	"github.com/shopspring/decimal"
)

// PartyInput is a party appearing in a deed.
type PartyInput struct {
	LastName  string
	FirstName string
	IsCompany bool
	Capacity  string
	BirthDate *time.Time
}

// RecordRequest adds a deed to the repertorium.
type RecordRequest struct {
	DeedDate  time.Time
	DeedType  string
	Title     string
	NotaryID  uuid.UUID
	DossierID *uuid.UUID
	Fee       *decimal.Decimal
	Remarks   string
	Parties   []PartyInput
}

// ListFilter narrows repertorium listings.
type ListFilter struct {
	Year     *int
	DeedType string
	From     *time.Time
	To       *time.Time
	Status   string
	Search   string
	Page     int
	PageSize int
}

// KlapperRequest narrows the party index.
type KlapperRequest struct {
	Year   *int
	Letter string
	Prefix string
}

// PartyResponse is a klapper row.
type PartyResponse struct {
	ID          uuid.UUID  `json:"id"`
	EntryID     uuid.UUID  `json:"entry_id"`
	Name        string     `json:"name"`
	LastName    string     `json:"last_name"`
	FirstName   string     `json:"first_name,omitempty"`
	IsCompany   bool       `json:"is_company"`
	Capacity    string     `json:"capacity,omitempty"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	Year        int        `json:"year"`
	EntryNumber int        `json:"entry_number"`
	DeedDate    *time.Time `json:"deed_date,omitempty"`
	DeedTitle   string     `json:"deed_title,omitempty"`
}

func toPartyResponse(k registry.KlapperEntry) PartyResponse {
	out := PartyResponse{
		ID:          k.ID,
		EntryID:     k.EntryID,
		Name:        k.FullName(),
		LastName:    k.LastName,
		FirstName:   k.FirstName,
		IsCompany:   k.IsCompany,
		Capacity:    k.Capacity,
		BirthDate:   k.BirthDate,
		Year:        k.Year,
		EntryNumber: k.EntryNumber,
		DeedTitle:   k.DeedTitle,
	}
	if !k.DeedDate.IsZero() {
		d := k.DeedDate
		out.DeedDate = &d
	}
	return out
}

// EntryResponse is a repertorium entry as returned by the API.
type EntryResponse struct {
	ID               uuid.UUID       `json:"id"`
	Label            string          `json:"label"`
	Year             int             `json:"year"`
	Number           int             `json:"number"`
	DeedDate         time.Time       `json:"deed_date"`
	DeedType         string          `json:"deed_type"`
	Title            string          `json:"title"`
	NotaryID         uuid.UUID       `json:"notary_id"`
	DossierID        *uuid.UUID      `json:"dossier_id,omitempty"`
	RegistrationDate *time.Time      `json:"registration_date,omitempty"`
	RegistrationRef  string          `json:"registration_ref,omitempty"`
	Fee              decimal.Decimal `json:"fee"`
	Remarks          string          `json:"remarks,omitempty"`
	Status           string          `json:"status"`
	VoidReason       string          `json:"void_reason,omitempty"`
	Parties          []PartyResponse `json:"parties"`
	CreatedAt        time.Time       `json:"created_at"`
}

// ToEntryResponse converts a domain entry.
func ToEntryResponse(e *registry.RepertoriumEntry) EntryResponse {
	parties := make([]PartyResponse, 0, len(e.Parties))
	for _, p := range e.Parties {
		parties = append(parties, toPartyResponse(p))
	}
	return EntryResponse{
		ID:               e.ID,
		Label:            e.Label(),
		Year:             e.Year,
		Number:           e.Number,
		DeedDate:         e.DeedDate,
		DeedType:         e.DeedType,
		Title:            e.Title,
		NotaryID:         e.NotaryID,
		DossierID:        e.DossierID,
		RegistrationDate: e.RegistrationDate,
		RegistrationRef:  e.RegistrationRef,
		Fee:              e.Fee,
		Remarks:          e.Remarks,
		Status:           string(e.Status),
		VoidReason:       e.VoidReason,
		Parties:          parties,
		CreatedAt:        e.CreatedAt,
	}
}

// SectionResponse is one letter of the klapper.
type SectionResponse struct {
	Letter  string          `json:"letter"`
	Entries []PartyResponse `json:"entries"`
}

// PDF is a rendered register.
type PDF struct {
	FileName string
	Data     []byte
}
