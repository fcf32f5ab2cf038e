// Package dossier implements the case-file use cases: dossiers, their
// parties and the documents stored with them.
package dossier

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/dossier"
	"github.com/notaris/backend/internal/domain/identity"
	"github.com/notaris/backend/internal/domain/shared"
	"github.com/notaris/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ErrInvalidNotary is returned when the responsible notary is not a notary of the office.
var ErrInvalidNotary = shared.NewDomainError("INVALID_NOTARY", "Responsible notary must be a notary or candidate of this office")

// Service handles dossier operations.
type Service struct {
	repo   dossier.Repository
	users  identity.UserRepository
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates a new dossier service
func NewService(repo dossier.Repository, users identity.UserRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, users: users, now: time.Now, logger: logger}
}

// Create opens a dossier and assigns its YYYY/NNNN reference.
func (s *Service) Create(ctx context.Context, tenantID, userID uuid.UUID, req CreateDossierRequest) (resp *DossierResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "dossier", "create", telemetry.TenantAttr(tenantID))
	defer func() { telemetry.End(span, err) }()

	d, err := dossier.NewDossier(tenantID, userID, req.Title, dossier.DeedType(req.DeedType))
	if err != nil {
		return nil, err
	}
	if err := s.checkNotary(ctx, tenantID, req.NotaryID); err != nil {
		return nil, err
	}
	d.Description = req.Description
	d.NotaryID = req.NotaryID
	for _, p := range req.Parties {
		if _, err := d.AddParty(p.toDomain()); err != nil {
			return nil, err
		}
	}

	year := s.now().Year()
	seq, err := s.repo.NextSequence(ctx, tenantID, year)
	if err != nil {
		return nil, err
	}
	d.AssignReference(year, seq)

	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	s.logger.Info("Dossier created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("dossier_id", d.ID.String()),
		zap.String("reference", d.Reference))
	out := ToDossierResponse(d)
	return &out, nil
}

func (s *Service) checkNotary(ctx context.Context, tenantID uuid.UUID, notaryID *uuid.UUID) error {
	if notaryID == nil || s.users == nil {
		return nil
	}
	u, err := s.users.FindByID(ctx, tenantID, *notaryID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return ErrInvalidNotary
		}
		return err
	}
	if u.Role != identity.RoleNotary && u.Role != identity.RoleCandidate {
		return ErrInvalidNotary
	}
	return nil
}

// Get returns one dossier with its parties.
func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*DossierResponse, error) {
	d, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	out := ToDossierResponse(d)
	return &out, nil
}

// List returns a page of dossiers.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, f ListFilter) (shared.Paginated[DossierResponse], error) {
	filter := dossier.Filter{Filter: shared.Filter{
		Page: f.Page, PageSize: f.PageSize, OrderBy: f.OrderBy, OrderDir: f.OrderDir, Search: f.Search,
	}}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	filter.Filter = filter.Filter.Normalize()
	if f.Status != "" {
		st := dossier.Status(f.Status)
		if !st.IsValid() {
			return shared.Paginated[DossierResponse]{}, shared.NewDomainError("INVALID_STATUS", "Unknown dossier status")
		}
		filter.Status = &st
	}
	if f.DeedType != "" {
		dt := dossier.DeedType(f.DeedType)
		if !dt.IsValid() {
			return shared.Paginated[DossierResponse]{}, shared.NewDomainError("INVALID_DEED_TYPE", "Unknown deed type")
		}
		filter.DeedType = &dt
	}
	filter.NotaryID = f.NotaryID

	items, total, err := s.repo.FindAll(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[DossierResponse]{}, err
	}
	out := make([]DossierResponse, 0, len(items))
	for _, d := range items {
		out = append(out, ToDossierResponse(d))
	}
	return shared.NewPaginated(out, total, filter.Page, filter.PageSize), nil
}

// Update changes the descriptive fields of an editable dossier.
func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateDossierRequest) (*DossierResponse, error) {
	return s.mutate(ctx, tenantID, id, func(d *dossier.Dossier) error {
		if err := s.checkNotary(ctx, tenantID, req.NotaryID); err != nil {
			return err
		}
		return d.Update(req.Title, dossier.DeedType(req.DeedType), req.Description, req.NotaryID)
	})
}

// ChangeStatus moves the dossier along its lifecycle.
func (s *Service) ChangeStatus(ctx context.Context, tenantID, id uuid.UUID, status string) (*DossierResponse, error) {
	resp, err := s.mutate(ctx, tenantID, id, func(d *dossier.Dossier) error {
		return d.ChangeStatus(dossier.Status(status))
	})
	if err == nil {
		s.logger.Info("Dossier status changed",
			zap.String("dossier_id", id.String()), zap.String("status", status))
	}
	return resp, err
}

// Delete soft-deletes a dossier.
func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, tenantID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, tenantID, id)
}

// AddParty attaches a party and returns it.
func (s *Service) AddParty(ctx context.Context, tenantID, dossierID uuid.UUID, in PartyInput) (*PartyResponse, error) {
	var added dossier.Party
	_, err := s.mutate(ctx, tenantID, dossierID, func(d *dossier.Dossier) error {
		p, err := d.AddParty(in.toDomain())
		if err != nil {
			return err
		}
		added = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := toPartyResponse(added)
	return &out, nil
}

// UpdateParty replaces a party's fields.
func (s *Service) UpdateParty(ctx context.Context, tenantID, dossierID, partyID uuid.UUID, in PartyInput) (*PartyResponse, error) {
	var updated dossier.Party
	_, err := s.mutate(ctx, tenantID, dossierID, func(d *dossier.Dossier) error {
		p := in.toDomain()
		p.ID = partyID
		if err := d.UpdateParty(p); err != nil {
			return err
		}
		found, _ := d.FindParty(partyID)
		updated = *found
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := toPartyResponse(updated)
	return &out, nil
}

// RemoveParty detaches a party.
func (s *Service) RemoveParty(ctx context.Context, tenantID, dossierID, partyID uuid.UUID) error {
	_, err := s.mutate(ctx, tenantID, dossierID, func(d *dossier.Dossier) error {
		return d.RemoveParty(partyID)
	})
	return err
}

func (s *Service) mutate(ctx context.Context, tenantID, id uuid.UUID, fn func(*dossier.Dossier) error) (*DossierResponse, error) {
	d, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := fn(d); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, d); err != nil {
		return nil, err
	}
	out := ToDossierResponse(d)
	return &out, nil
}
