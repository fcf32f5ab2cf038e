package printing

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/identity"
	"github.com/notaris/backend/internal/domain/invoicing"
	"github.com/notaris/backend/internal/domain/registry"
)

// Letterhead is the office block printed on every document.
type Letterhead struct {
	Name      string
	Address   string
	VATNumber string
	Email     string
	Phone     string
	IBAN      string
}

// LetterheadFor copies the printable fields of an office.
func LetterheadFor(t *identity.Tenant) Letterhead {
	if t == nil {
		return Letterhead{}
	}
	return Letterhead{
		Name:      t.Name,
		Address:   t.Address,
		VATNumber: t.VATNumber,
		Email:     t.ContactEmail,
		Phone:     t.ContactPhone,
		IBAN:      t.Invoice.IBAN,
	}
}

type InvoiceDocument struct {
	Office  Letterhead
	Invoice *invoicing.Invoice
	Totals  invoicing.Totals
}

// RepertoriumRow is one printed register line.
type RepertoriumRow struct {
	Entry      *registry.RepertoriumEntry
	NotaryName string
	Parties    string
}

type RepertoriumDocument struct {
	Office   Letterhead
	Year     int
	Currency string
	Rows     []RepertoriumRow
}

// NewRepertoriumRows joins party names and resolves notary names through
// names, falling back to an empty cell.
func NewRepertoriumRows(entries []*registry.RepertoriumEntry, names map[uuid.UUID]string) []RepertoriumRow {
	rows := make([]RepertoriumRow, 0, len(entries))
	for _, e := range entries {
		parties := make([]string, 0, len(e.Parties))
		for _, p := range e.Parties {
			parties = append(parties, p.FullName())
		}
		rows = append(rows, RepertoriumRow{
			Entry:      e,
			NotaryName: names[e.NotaryID],
			Parties:    strings.Join(parties, "; "),
		})
	}
	return rows
}

type KlapperDocument struct {
	Office   Letterhead
	Year     int
	Sections []registry.Section
}

type pageChrome struct {
	Office string
	Title  string
}

// DocumentPrinter fills the built-in templates and prints them.
type DocumentPrinter struct {
	engine   *TemplateEngine
	renderer PDFRenderer
	paper    PaperSize
}

// NewDocumentPrinter uses paper for invoices. Registers always print on
// landscape A4.
func NewDocumentPrinter(engine *TemplateEngine, renderer PDFRenderer, paper PaperSize) *DocumentPrinter {
	if !paper.IsValid() {
		paper = PaperA4
	}
	return &DocumentPrinter{engine: engine, renderer: renderer, paper: paper}
}

func (p *DocumentPrinter) Invoice(ctx context.Context, doc InvoiceDocument) ([]byte, error) {
	if doc.Invoice == nil {
		return nil, NewRenderError(ErrCodeInvalidHTML, "invoice is required", nil)
	}
	if doc.Totals.Rates == nil {
		doc.Totals = doc.Invoice.Totals()
	}
	html, err := p.engine.Execute("invoice.html", doc)
	if err != nil {
		return nil, err
	}
	footer, err := p.engine.Execute("page-footer", nil)
	if err != nil {
		return nil, err
	}
	return p.print(ctx, &RenderRequest{
		HTML:       html,
		Title:      "Factuur " + doc.Invoice.Number,
		PaperSize:  p.paper,
		Margins:    Margins{Top: 20, Right: 18, Bottom: 20, Left: 18},
		FooterHTML: footer,
	})
}

func (p *DocumentPrinter) Repertorium(ctx context.Context, doc RepertoriumDocument) ([]byte, error) {
	html, err := p.engine.Execute("repertorium.html", doc)
	if err != nil {
		return nil, err
	}
	return p.printRegister(ctx, html, doc.Office.Name, fmt.Sprintf("Repertorium %d", doc.Year))
}

func (p *DocumentPrinter) Klapper(ctx context.Context, doc KlapperDocument) ([]byte, error) {
	html, err := p.engine.Execute("klapper.html", doc)
	if err != nil {
		return nil, err
	}
	title := "Klapper"
	if doc.Year > 0 {
		title = fmt.Sprintf("Klapper %d", doc.Year)
	}
	return p.printRegister(ctx, html, doc.Office.Name, title)
}

func (p *DocumentPrinter) printRegister(ctx context.Context, html, office, title string) ([]byte, error) {
	header, err := p.engine.Execute("page-header", pageChrome{Office: office, Title: title})
	if err != nil {
		return nil, err
	}
	footer, err := p.engine.Execute("page-footer", nil)
	if err != nil {
		return nil, err
	}
	return p.print(ctx, &RenderRequest{
		HTML:       html,
		Title:      title,
		PaperSize:  PaperA4,
		Landscape:  true,
		Margins:    Margins{Top: 20, Right: 12, Bottom: 15, Left: 12},
		HeaderHTML: header,
		FooterHTML: footer,
	})
}

func (p *DocumentPrinter) print(ctx context.Context, req *RenderRequest) ([]byte, error) {
	result, err := p.renderer.Render(ctx, req)
	if err != nil {
		return nil, err
	}
	return result.PDFData, nil
}
