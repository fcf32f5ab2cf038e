package dossier

import (
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/dossier"
)

// CreateDossierRequest opens a new dossier.
type CreateDossierRequest struct {
	Title       string
	DeedType    string
	Description string
	NotaryID    *uuid.UUID
	Parties     []PartyInput
}

// UpdateDossierRequest replaces the descriptive fields.
type UpdateDossierRequest struct {
	Title       string
	DeedType    string
	Description string
	NotaryID    *uuid.UUID
}

// PartyInput carries the fields of a party.
type PartyInput struct {
	Kind        string
	FirstName   string
	LastName    string
	CompanyName string
	Capacity    string
	NationalID  string
	Email       string
	Phone       string
	Address     string
}

func (p PartyInput) toDomain() dossier.Party {
	return dossier.Party{
		Kind:        dossier.PartyKind(p.Kind),
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		CompanyName: p.CompanyName,
		Capacity:    dossier.Capacity(p.Capacity),
		NationalID:  p.NationalID,
		Email:       p.Email,
		Phone:       p.Phone,
		Address:     p.Address,
	}
}

// ListFilter narrows dossier listings.
type ListFilter struct {
	Status   string
	DeedType string
	NotaryID *uuid.UUID
	Search   string
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

// PartyResponse is a party as returned by the API.
type PartyResponse struct {
	ID          uuid.UUID `json:"id"`
	Kind        string    `json:"kind"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	CompanyName string    `json:"company_name,omitempty"`
	DisplayName string    `json:"display_name"`
	Capacity    string    `json:"capacity"`
	NationalID  string    `json:"national_id,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Address     string    `json:"address,omitempty"`
}

// DossierResponse is a dossier as returned by the API.
type DossierResponse struct {
	ID          uuid.UUID       `json:"id"`
	Reference   string          `json:"reference"`
	Title       string          `json:"title"`
	DeedType    string          `json:"deed_type"`
	Status      string          `json:"status"`
	NotaryID    *uuid.UUID      `json:"notary_id,omitempty"`
	Description string          `json:"description,omitempty"`
	Parties     []PartyResponse `json:"parties"`
	ClosedAt    *time.Time      `json:"closed_at,omitempty"`
	Version     int             `json:"version"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func toPartyResponse(p dossier.Party) PartyResponse {
	return PartyResponse{
		ID:          p.ID,
		Kind:        string(p.Kind),
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		CompanyName: p.CompanyName,
		DisplayName: p.DisplayName(),
		Capacity:    string(p.Capacity),
		NationalID:  p.NationalID,
		Email:       p.Email,
		Phone:       p.Phone,
		Address:     p.Address,
	}
}

// ToDossierResponse converts a domain dossier.
func ToDossierResponse(d *dossier.Dossier) DossierResponse {
	parties := make([]PartyResponse, 0, len(d.Parties))
	for _, p := range d.Parties {
		parties = append(parties, toPartyResponse(p))
	}
	return DossierResponse{
		ID:          d.ID,
		Reference:   d.Reference,
		Title:       d.Title,
		DeedType:    string(d.DeedType),
		Status:      string(d.Status),
		NotaryID:    d.NotaryID,
		Description: d.Description,
		Parties:     parties,
		ClosedAt:    d.ClosedAt,
		Version:     d.Version,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// DocumentResponse is document metadata as returned by the API.
type DocumentResponse struct {
	ID          uuid.UUID  `json:"id"`
	DossierID   uuid.UUID  `json:"dossier_id"`
	Title       string     `json:"title"`
	FileName    string     `json:"file_name"`
	ContentType string     `json:"content_type"`
	Size        int64      `json:"size"`
	Checksum    string     `json:"checksum"`
	UploadedBy  *uuid.UUID `json:"uploaded_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ToDocumentResponse converts a domain document.
func ToDocumentResponse(d *dossier.Document) DocumentResponse {
	return DocumentResponse{
		ID:          d.ID,
		DossierID:   d.DossierID,
		Title:       d.Title,
		FileName:    d.FileName,
		ContentType: d.ContentType,
		Size:        d.Size,
		Checksum:    d.Checksum,
		UploadedBy:  d.CreatedBy,
		CreatedAt:   d.CreatedAt,
	}
}

// DownloadLink is a presigned URL for a document.
type DownloadLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
	FileName  string    `json:"file_name"`
}
