// Package invoicing implements the invoice lifecycle: drafts, gapless
// numbering on issue, payment, cancellation, PDF export and mailing.
package invoicing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/identity"
	"github.com/notaris/backend/internal/domain/invoicing"
	"github.com/notaris/backend/internal/domain/shared"
	"github.com/notaris/backend/internal/infrastructure/mail"
	"github.com/notaris/backend/internal/infrastructure/printing"
	"github.com/notaris/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ErrNoRecipient is returned when an invoice is mailed without an address.
var ErrNoRecipient = shared.NewDomainError("INVALID_RECIPIENT", "The invoice has no client e-mail; provide a recipient")

// Printer renders invoices to PDF.
type Printer interface {
	Invoice(ctx context.Context, doc printing.InvoiceDocument) ([]byte, error)
}

// Service handles invoice operations.
type Service struct {
	repo    invoicing.Repository
	tenants identity.TenantRepository
	printer Printer
	mailer  mail.Sender
	metrics *telemetry.BusinessMetrics
	now     func() time.Time
	logger  *zap.Logger
}

// NewService creates a new invoice service
func NewService(repo invoicing.Repository, tenants identity.TenantRepository, printer Printer, mailer mail.Sender, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, tenants: tenants, printer: printer, mailer: mailer, now: time.Now, logger: logger}
}

// SetMetrics enables business metrics.
func (s *Service) SetMetrics(m *telemetry.BusinessMetrics) {
	s.metrics = m
}

func toLines(in []LineInput, office func() (*identity.Tenant, error)) ([]invoicing.Line, error) {
	lines := make([]invoicing.Line, 0, len(in))
	for _, l := range in {
		line := invoicing.Line{Description: l.Description, Quantity: l.Quantity, UnitPrice: l.UnitPrice}
		if l.VATRate != nil {
			line.VATRate = *l.VATRate
		} else {
			t, err := office()
			if err != nil {
				return nil, err
			}
			line.VATRate = t.Invoice.DefaultVATRate
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// officeLoader memoises the office lookup for one call.
func (s *Service) officeLoader(ctx context.Context, tenantID uuid.UUID) func() (*identity.Tenant, error) {
	var office *identity.Tenant
	return func() (*identity.Tenant, error) {
		if office != nil {
			return office, nil
		}
		t, err := s.tenants.FindByID(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		office = t
		return office, nil
	}
}

// CreateDraft creates a draft invoice.
func (s *Service) CreateDraft(ctx context.Context, tenantID, userID uuid.UUID, req DraftRequest) (*InvoiceResponse, error) {
	office := s.officeLoader(ctx, tenantID)
	currency := req.Currency
	if currency == "" {
		t, err := office()
		if err != nil {
			return nil, err
		}
		currency = t.Invoice.Currency
	}

	inv, err := invoicing.NewDraft(tenantID, userID, req.Client.toDomain(), currency)
	if err != nil {
		return nil, err
	}
	lines, err := toLines(req.Lines, office)
	if err != nil {
		return nil, err
	}
	if err := inv.UpdateDraft(req.Client.toDomain(), req.DossierID, req.Notes, lines); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, err
	}
	s.logger.Info("Invoice draft created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_id", inv.ID.String()))
	out := ToInvoiceResponse(inv, s.now())
	return &out, nil
}

// UpdateDraft replaces client, notes and lines of a draft.
func (s *Service) UpdateDraft(ctx context.Context, tenantID, id uuid.UUID, req DraftRequest) (*InvoiceResponse, error) {
	inv, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	lines, err := toLines(req.Lines, s.officeLoader(ctx, tenantID))
	if err != nil {
		return nil, err
	}
	if err := inv.UpdateDraft(req.Client.toDomain(), req.DossierID, req.Notes, lines); err != nil {
		return nil, err
	}
	if err := inv.SetCurrency(req.Currency); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, inv); err != nil {
		return nil, err
	}
	out := ToInvoiceResponse(inv, s.now())
	return &out, nil
}

// Issue assigns the next number of the year and the due date from the
// office payment term.
func (s *Service) Issue(ctx context.Context, tenantID, id uuid.UUID) (resp *InvoiceResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoicing", "issue",
		telemetry.TenantAttr(tenantID), telemetry.IDAttr("invoice.id", id))
	defer func() { telemetry.End(span, err) }()

	inv, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !inv.IsDraft() {
		return nil, shared.NewDomainError("INVOICE_NOT_DRAFT", "Only draft invoices can be issued")
	}
	if len(inv.Lines) == 0 {
		return nil, shared.NewDomainError("INVOICE_EMPTY", "An invoice needs at least one line")
	}
	office, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	issued := s.now()
	issueDay := time.Date(issued.Year(), issued.Month(), issued.Day(), 0, 0, 0, 0, issued.Location())
	due := office.PaymentDueDate(issueDay)
	err = s.repo.IssueWithNextNumber(ctx, inv, issueDay.Year(), func(seq int) error {
		return inv.Issue(office.Invoice.Prefix, issueDay.Year(), seq, issueDay, due)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Invoice issued",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_id", inv.ID.String()),
		zap.String("number", inv.Number),
		zap.String("gross", inv.GrossTotal.StringFixed(2)))
	s.metrics.InvoiceIssued(ctx, tenantID, inv.GrossTotal)
	out := ToInvoiceResponse(inv, s.now())
	return &out, nil
}

// MarkPaid records the payment date.
func (s *Service) MarkPaid(ctx context.Context, tenantID, id uuid.UUID, paidAt time.Time) (*InvoiceResponse, error) {
	if paidAt.IsZero() {
		paidAt = s.now()
	}
	return s.mutate(ctx, tenantID, id, func(inv *invoicing.Invoice) error {
		return inv.MarkPaid(paidAt)
	})
}

// Cancel voids an issued invoice. Its number stays used.
func (s *Service) Cancel(ctx context.Context, tenantID, id uuid.UUID, reason string) (*InvoiceResponse, error) {
	return s.mutate(ctx, tenantID, id, func(inv *invoicing.Invoice) error {
		return inv.Cancel(reason)
	})
}

func (s *Service) mutate(ctx context.Context, tenantID, id uuid.UUID, fn func(*invoicing.Invoice) error) (*InvoiceResponse, error) {
	inv, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := fn(inv); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, inv); err != nil {
		return nil, err
	}
	out := ToInvoiceResponse(inv, s.now())
	return &out, nil
}

// Get returns one invoice.
func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	out := ToInvoiceResponse(inv, s.now())
	return &out, nil
}

// List returns a page of invoices.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, f ListFilter) (shared.Paginated[InvoiceResponse], error) {
	filter := invoicing.Filter{
		Filter:    shared.Filter{Page: f.Page, PageSize: f.PageSize, OrderBy: "created_at", OrderDir: "desc", Search: f.Search}.Normalize(),
		Client:    f.Client,
		DossierID: f.DossierID,
		From:      f.From,
		To:        f.To,
	}
	if f.Status != "" {
		st := invoicing.Status(f.Status)
		switch st {
		case invoicing.StatusDraft, invoicing.StatusIssued, invoicing.StatusPaid, invoicing.StatusCancelled:
		default:
			return shared.Paginated[InvoiceResponse]{}, shared.NewDomainError("INVALID_STATUS", "Unknown invoice status")
		}
		filter.Status = &st
	}

	items, total, err := s.repo.FindAll(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[InvoiceResponse]{}, err
	}
	now := s.now()
	out := make([]InvoiceResponse, 0, len(items))
	for _, inv := range items {
		out = append(out, ToInvoiceResponse(inv, now))
	}
	return shared.NewPaginated(out, total, filter.Page, filter.PageSize), nil
}

// Delete soft-deletes a draft.
func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	inv, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if !inv.IsDraft() {
		return shared.NewDomainError("INVOICE_NOT_DRAFT", "Only draft invoices can be deleted")
	}
	return s.repo.Delete(ctx, tenantID, id)
}

// RenderPDF prints an issued invoice. Drafts print without a number.
func (s *Service) RenderPDF(ctx context.Context, tenantID, id uuid.UUID) (pdf *PDF, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoicing", "render_pdf",
		telemetry.TenantAttr(tenantID), telemetry.IDAttr("invoice.id", id))
	defer func() { telemetry.End(span, err) }()

	inv, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	office, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	data, err := s.printer.Invoice(ctx, printing.InvoiceDocument{
		Office:  printing.LetterheadFor(office),
		Invoice: inv,
		Totals:  inv.Totals(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render invoice: %w", err)
	}
	return &PDF{FileName: pdfFileName(inv), Data: data}, nil
}

func pdfFileName(inv *invoicing.Invoice) string {
	if inv.Number == "" {
		return "invoice-draft-" + inv.ID.String()[:8] + ".pdf"
	}
	return "invoice-" + inv.Number + ".pdf"
}

// Send mails the PDF to the client or to req.To.
func (s *Service) Send(ctx context.Context, tenantID, id uuid.UUID, req SendRequest) error {
	inv, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if inv.Status != invoicing.StatusIssued && inv.Status != invoicing.StatusPaid {
		return shared.NewDomainError("INVALID_STATE", "Only issued invoices can be sent")
	}
	to := strings.TrimSpace(req.To)
	if to == "" {
		to = inv.Client.Email
	}
	if to == "" {
		return ErrNoRecipient
	}
	if !identity.ValidEmail(to) {
		return shared.NewDomainError("INVALID_RECIPIENT", "Invalid recipient e-mail")
	}
	if s.mailer == nil {
		return shared.NewDomainError("MAIL_UNAVAILABLE", "E-mail is not configured")
	}

	pdf, err := s.RenderPDF(ctx, tenantID, id)
	if err != nil {
		return err
	}
	office, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return err
	}

	body := req.Message
	if strings.TrimSpace(body) == "" {
		body = fmt.Sprintf("Dear %s,\n\nPlease find attached invoice %s of %s %s, payable by %s.\n\nKind regards,\n%s\n",
			inv.Client.Name, inv.Number, inv.Currency, inv.GrossTotal.StringFixed(2),
			inv.DueDate.Format("02/01/2006"), office.Name)
	}
	msg := &mail.Message{
		To:      []string{to},
		ReplyTo: office.ContactEmail,
		Subject: fmt.Sprintf("Invoice %s - %s", inv.Number, office.Name),
		Text:    body,
		Attachments: []mail.Attachment{{
			FileName:    pdf.FileName,
			ContentType: "application/pdf",
			Data:        pdf.Data,
		}},
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("Failed to mail invoice",
			zap.String("invoice_id", inv.ID.String()), zap.String("to", to), zap.Error(err))
		return shared.NewDomainError("MAIL_UNAVAILABLE", "The invoice could not be mailed")
	}
	s.logger.Info("Invoice mailed",
		zap.String("invoice_id", inv.ID.String()), zap.String("number", inv.Number))
	return nil
}
