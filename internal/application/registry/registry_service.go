// Package registry implements the repertorium ledger and the klapper index.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/identity"
	"github.com/notaris/backend/internal/domain/registry"
	"github.com/notaris/backend/internal/domain/shared"
	"github.com/notaris/backend/internal/infrastructure/printing"
	"github.com/notaris/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

var (
	ErrNoParties     = shared.NewDomainError("INVALID_PARTY", "A repertorium entry needs at least one party")
	ErrInvalidNotary = shared.NewDomainError("INVALID_NOTARY", "The executing notary must be a notary or candidate of this office")
	ErrInvalidLetter = shared.NewDomainError("INVALID_LETTER", "Letter must be a single letter A-Z or #")
	ErrInvalidYear   = shared.NewDomainError("INVALID_YEAR", "Year is out of range")
)

// Printer renders registers to PDF.
type Printer interface {
	Repertorium(ctx context.Context, doc printing.RepertoriumDocument) ([]byte, error)
	Klapper(ctx context.Context, doc printing.KlapperDocument) ([]byte, error)
}

// Service handles repertorium and klapper operations.
type Service struct {
	repo    registry.Repository
	users   identity.UserRepository
	tenants identity.TenantRepository
	printer Printer
	sorter  *registry.Sorter
	metrics *telemetry.BusinessMetrics
	now     func() time.Time
	logger  *zap.Logger
}

// NewService creates a new registry service. locale drives klapper collation.
func NewService(repo registry.Repository, users identity.UserRepository, tenants identity.TenantRepository, printer Printer, locale string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:    repo,
		users:   users,
		tenants: tenants,
		printer: printer,
		sorter:  registry.NewSorter(locale),
		now:     time.Now,
		logger:  logger,
	}
}

// SetMetrics enables business metrics.
func (s *Service) SetMetrics(m *telemetry.BusinessMetrics) {
	s.metrics = m
}

// Record adds a deed with its parties. The repository allocates the number.
func (s *Service) Record(ctx context.Context, tenantID, userID uuid.UUID, req RecordRequest) (resp *EntryResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "registry", "record", telemetry.TenantAttr(tenantID))
	defer func() { telemetry.End(span, err) }()

	if len(req.Parties) == 0 {
		return nil, ErrNoParties
	}
	if req.DeedDate.After(s.now()) {
		return nil, shared.NewDomainError("INVALID_DEED_DATE", "Deed date cannot be in the future")
	}
	e, err := registry.NewRepertoriumEntry(tenantID, userID, req.NotaryID, req.DeedDate, req.DeedType, req.Title)
	if err != nil {
		return nil, err
	}
	if err := s.checkNotary(ctx, tenantID, req.NotaryID); err != nil {
		return nil, err
	}
	e.DossierID = req.DossierID
	if req.Fee != nil {
		if err := e.SetFee(*req.Fee); err != nil {
			return nil, err
		}
	}
	if req.Remarks != "" {
		if err := e.SetRemarks(req.Remarks); err != nil {
			return nil, err
		}
	}
	for _, p := range req.Parties {
		if err := e.AddParty(registry.KlapperEntry{
			LastName:  p.LastName,
			FirstName: p.FirstName,
			IsCompany: p.IsCompany,
			Capacity:  p.Capacity,
			BirthDate: p.BirthDate,
		}); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Record(ctx, e); err != nil {
		return nil, err
	}
	s.logger.Info("Deed recorded in repertorium",
		zap.String("tenant_id", tenantID.String()),
		zap.String("entry_id", e.ID.String()),
		zap.String("label", e.Label()),
		zap.Int("parties", len(e.Parties)))
	s.metrics.DeedRecorded(ctx, tenantID, e.DeedType)
	out := ToEntryResponse(e)
	return &out, nil
}

func (s *Service) checkNotary(ctx context.Context, tenantID, notaryID uuid.UUID) error {
	if s.users == nil {
		return nil
	}
	u, err := s.users.FindByID(ctx, tenantID, notaryID)
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

// UpdateRegistration stores the registration date and reference.
func (s *Service) UpdateRegistration(ctx context.Context, tenantID, id uuid.UUID, date time.Time, ref string) (*EntryResponse, error) {
	return s.mutate(ctx, tenantID, id, func(e *registry.RepertoriumEntry) error {
		return e.RecordRegistration(date, ref)
	})
}

// UpdateRemarks replaces the remarks column.
func (s *Service) UpdateRemarks(ctx context.Context, tenantID, id uuid.UUID, remarks string) (*EntryResponse, error) {
	return s.mutate(ctx, tenantID, id, func(e *registry.RepertoriumEntry) error {
		return e.SetRemarks(remarks)
	})
}

// Void strikes an entry. Entries are never deleted and keep their number.
func (s *Service) Void(ctx context.Context, tenantID, id uuid.UUID, reason string) (*EntryResponse, error) {
	resp, err := s.mutate(ctx, tenantID, id, func(e *registry.RepertoriumEntry) error {
		return e.Void(reason)
	})
	if err == nil {
		s.logger.Warn("Repertorium entry voided",
			zap.String("tenant_id", tenantID.String()),
			zap.String("label", resp.Label),
			zap.String("reason", resp.VoidReason))
	}
	return resp, err
}

func (s *Service) mutate(ctx context.Context, tenantID, id uuid.UUID, fn func(*registry.RepertoriumEntry) error) (*EntryResponse, error) {
	e, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := fn(e); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	out := ToEntryResponse(e)
	return &out, nil
}

// Get returns one entry with its parties.
func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*EntryResponse, error) {
	e, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	out := ToEntryResponse(e)
	return &out, nil
}

// List returns a page of entries, newest number first.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, f ListFilter) (shared.Paginated[EntryResponse], error) {
	if err := validYear(f.Year); err != nil {
		return shared.Paginated[EntryResponse]{}, err
	}
	filter := registry.Filter{
		Filter:   shared.Filter{Page: f.Page, PageSize: f.PageSize, Search: f.Search}.Normalize(),
		Year:     f.Year,
		DeedType: strings.TrimSpace(f.DeedType),
		From:     f.From,
		To:       f.To,
	}
	if f.Status != "" {
		st := registry.EntryStatus(f.Status)
		if st != registry.EntryRecorded && st != registry.EntryVoided {
			return shared.Paginated[EntryResponse]{}, shared.NewDomainError("INVALID_STATUS", "Unknown entry status")
		}
		filter.Status = &st
	}

	items, total, err := s.repo.FindAll(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[EntryResponse]{}, err
	}
	out := make([]EntryResponse, 0, len(items))
	for _, e := range items {
		out = append(out, ToEntryResponse(e))
	}
	return shared.NewPaginated(out, total, filter.Page, filter.PageSize), nil
}

func validYear(year *int) error {
	if year != nil && (*year < 1900 || *year > 9999) {
		return ErrInvalidYear
	}
	return nil
}

func normalizeLetter(letter string) (string, error) {
	letter = strings.ToUpper(strings.TrimSpace(letter))
	if letter == "" {
		return "", nil
	}
	if utf8.RuneCountInString(letter) != 1 {
		return "", ErrInvalidLetter
	}
	r, _ := utf8.DecodeRuneInString(letter)
	if letter != "#" && (r < 'A' || r > 'Z') {
		if !unicode.IsLetter(r) {
			return "", ErrInvalidLetter
		}
		letter = registry.IndexLetter(letter)
	}
	return letter, nil
}

// Index returns the klapper sorted by collation and grouped by folded initial.
func (s *Service) Index(ctx context.Context, tenantID uuid.UUID, req KlapperRequest) ([]SectionResponse, error) {
	sections, err := s.sections(ctx, tenantID, req)
	if err != nil {
		return nil, err
	}
	out := make([]SectionResponse, 0, len(sections))
	for _, sec := range sections {
		entries := make([]PartyResponse, 0, len(sec.Entries))
		for _, e := range sec.Entries {
			entries = append(entries, toPartyResponse(e))
		}
		out = append(out, SectionResponse{Letter: sec.Letter, Entries: entries})
	}
	return out, nil
}

func (s *Service) sections(ctx context.Context, tenantID uuid.UUID, req KlapperRequest) ([]registry.Section, error) {
	if err := validYear(req.Year); err != nil {
		return nil, err
	}
	letter, err := normalizeLetter(req.Letter)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.FindKlapper(ctx, tenantID, registry.KlapperQuery{
		Year:   req.Year,
		Letter: letter,
		Prefix: strings.TrimSpace(req.Prefix),
	})
	if err != nil {
		return nil, err
	}
	return s.sorter.Group(rows), nil
}

// ExportRepertoriumPDF prints the full register of a year, voided entries included.
func (s *Service) ExportRepertoriumPDF(ctx context.Context, tenantID uuid.UUID, year int) (pdf *PDF, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "registry", "export_repertorium", telemetry.TenantAttr(tenantID))
	defer func() { telemetry.End(span, err) }()

	if err := validYear(&year); err != nil {
		return nil, err
	}
	office, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.FindYear(ctx, tenantID, year)
	if err != nil {
		return nil, err
	}
	names, err := s.notaryNames(ctx, tenantID, entries)
	if err != nil {
		return nil, err
	}
	data, err := s.printer.Repertorium(ctx, printing.RepertoriumDocument{
		Office:   printing.LetterheadFor(office),
		Year:     year,
		Currency: office.Invoice.Currency,
		Rows:     printing.NewRepertoriumRows(entries, names),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render repertorium: %w", err)
	}
	return &PDF{FileName: fmt.Sprintf("repertorium-%d.pdf", year), Data: data}, nil
}

func (s *Service) notaryNames(ctx context.Context, tenantID uuid.UUID, entries []*registry.RepertoriumEntry) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string)
	if s.users == nil {
		return names, nil
	}
	for _, e := range entries {
		if _, ok := names[e.NotaryID]; ok {
			continue
		}
		u, err := s.users.FindByID(ctx, tenantID, e.NotaryID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				names[e.NotaryID] = ""
				continue
			}
			return nil, err
		}
		names[e.NotaryID] = u.Name()
	}
	return names, nil
}

// ExportKlapperPDF prints the party index, for one year or for all years when year is 0.
func (s *Service) ExportKlapperPDF(ctx context.Context, tenantID uuid.UUID, year int) (pdf *PDF, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "registry", "export_klapper", telemetry.TenantAttr(tenantID))
	defer func() { telemetry.End(span, err) }()

	var yearFilter *int
	fileName := "klapper.pdf"
	if year != 0 {
		yearFilter = &year
		fileName = fmt.Sprintf("klapper-%d.pdf", year)
	}
	office, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	sections, err := s.sections(ctx, tenantID, KlapperRequest{Year: yearFilter})
	if err != nil {
		return nil, err
	}
	data, err := s.printer.Klapper(ctx, printing.KlapperDocument{
		Office:   printing.LetterheadFor(office),
		Year:     year,
		Sections: sections,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render klapper: %w", err)
	}
	return &PDF{FileName: fileName, Data: data}, nil
}
