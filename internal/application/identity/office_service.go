package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/identity"
	"github.com/notaris/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OfficeService manages the office profile and bootstraps new offices.
type OfficeService struct {
	tenantRepo identity.TenantRepository
	userRepo   identity.UserRepository
	logger     *zap.Logger
}

// NewOfficeService creates a new office service
func NewOfficeService(tenantRepo identity.TenantRepository, userRepo identity.UserRepository, logger *zap.Logger) *OfficeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OfficeService{tenantRepo: tenantRepo, userRepo: userRepo, logger: logger}
}

// Get returns the office profile.
func (s *OfficeService) Get(ctx context.Context, tenantID uuid.UUID) (*OfficeDTO, error) {
	t, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	dto := ToOfficeDTO(t)
	return &dto, nil
}

// Update replaces the editable profile fields.
func (s *OfficeService) Update(ctx context.Context, tenantID uuid.UUID, input UpdateOfficeInput) (*OfficeDTO, error) {
	t, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if err := t.Update(input.Name, input.VATNumber, input.Address); err != nil {
		return nil, err
	}
	if err := t.SetContact(input.ContactEmail, input.ContactPhone); err != nil {
		return nil, err
	}
	if identity.NormalizeDomain(input.Domain) != t.Domain {
		if err := s.ensureDomainFree(ctx, tenantID, input.Domain); err != nil {
			return nil, err
		}
		if err := t.SetDomain(input.Domain); err != nil {
			return nil, err
		}
	}
	settings := identity.InvoiceSettings{
		Prefix:          input.InvoicePrefix,
		DefaultVATRate:  input.DefaultVATRate,
		PaymentTermDays: input.PaymentTermDays,
		Currency:        input.Currency,
		IBAN:            strings.ToUpper(strings.ReplaceAll(input.IBAN, " ", "")),
	}
	if settings.Prefix == "" {
		settings.Prefix = t.Invoice.Prefix
	}
	if err := t.SetInvoiceSettings(settings); err != nil {
		return nil, err
	}

	if err := s.tenantRepo.Save(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info("Office updated", zap.String("tenant_id", tenantID.String()))
	dto := ToOfficeDTO(t)
	return &dto, nil
}

func (s *OfficeService) ensureDomainFree(ctx context.Context, tenantID uuid.UUID, domain string) error {
	domain = identity.NormalizeDomain(domain)
	if domain == "" {
		return nil
	}
	other, err := s.tenantRepo.FindByDomain(ctx, domain)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if other.ID != tenantID {
		return shared.NewDomainError("DOMAIN_TAKEN", "Domain is already bound to another office")
	}
	return nil
}

// Bootstrap creates an office with its first administrator. It is used by
// the command line tool only.
func (s *OfficeService) Bootstrap(ctx context.Context, input BootstrapInput) (*OfficeDTO, *UserDTO, error) {
	exists, err := s.tenantRepo.ExistsByCode(ctx, input.Code)
	if err != nil {
		return nil, nil, err
	}
	if exists {
		return nil, nil, shared.NewDomainError("ALREADY_EXISTS", "An office with this code already exists")
	}

	t, err := identity.NewTenant(input.Code, input.Name)
	if err != nil {
		return nil, nil, err
	}
	if input.Domain != "" {
		if err := s.ensureDomainFree(ctx, t.ID, input.Domain); err != nil {
			return nil, nil, err
		}
		if err := t.SetDomain(input.Domain); err != nil {
			return nil, nil, err
		}
	}

	admin, err := identity.NewActiveUser(t.ID, input.AdminUsername, input.AdminPassword, identity.RoleAdmin)
	if err != nil {
		return nil, nil, err
	}
	if err := admin.SetEmail(input.AdminEmail); err != nil {
		return nil, nil, err
	}

	if err := s.tenantRepo.Save(ctx, t); err != nil {
		return nil, nil, err
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return nil, nil, err
	}

	s.logger.Info("Office bootstrapped",
		zap.String("tenant_id", t.ID.String()),
		zap.String("code", t.Code),
		zap.String("admin", admin.Username))
	office := ToOfficeDTO(t)
	user := ToUserDTO(admin)
	return &office, &user, nil
}
