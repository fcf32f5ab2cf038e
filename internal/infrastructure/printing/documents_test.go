package printing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/notaris/backend/internal/domain/identity"
	"github.com/notaris/backend/internal/domain/invoicing"
	"github.com/notaris/backend/internal/domain/registry"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPrinter(t *testing.T) (*DocumentPrinter, *StubRenderer) {
	t.Helper()
	engine, err := NewTemplateEngine("nl-BE")
	require.NoError(t, err)
	stub := NewStubRenderer()
	return NewDocumentPrinter(engine, stub, PaperA4), stub
}

func issuedInvoice(t *testing.T) *invoicing.Invoice {
	t.Helper()
	client := invoicing.Client{Name: "Jan Janssens", Address: "Kerkstraat 1, 2000 Antwerpen"}
	inv, err := invoicing.NewDraft(uuid.New(), uuid.New(), client, "EUR")
	require.NoError(t, err)
	require.NoError(t, inv.UpdateDraft(client, nil, "", []invoicing.Line{
		{Description: "Ereloon verkoopakte", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1200), VATRate: decimal.NewFromInt(21)},
		{Description: "Kopie akte", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.RequireFromString("12.50"), VATRate: decimal.NewFromInt(6)},
	}))
	issued := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	require.NoError(t, inv.Issue("F", 2026, 7, issued, issued.AddDate(0, 0, 30)))
	return inv
}

func TestDocumentPrinter_Invoice(t *testing.T) {
	printer, stub := newTestPrinter(t)
	office := &identity.Tenant{Name: "Notaris Peeters", VATNumber: "BE0123456789"}
	office.Invoice.IBAN = "BE68 5390 0754 7034"

	pdf, err := printer.Invoice(context.Background(), InvoiceDocument{
		Office:  LetterheadFor(office),
		Invoice: issuedInvoice(t),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)

	reqs := stub.Requests()
	require.Len(t, reqs, 1)
	req := reqs[0]
	assert.Equal(t, "Factuur F2026-0007", req.Title)
	assert.False(t, req.Landscape)
	assert.Contains(t, req.FooterHTML, "pageNumber")

	html := req.HTML
	assert.Contains(t, html, "Factuur F2026-0007")
	assert.Contains(t, html, "Ereloon verkoopakte")
	assert.Contains(t, html, "€ 1.200,00")
	assert.Contains(t, html, "BTW 21% op 1.200,00")
	assert.Contains(t, html, "BTW 6% op 37,50")
	// 1237.50 net + 252.00 + 2.25 VAT
	assert.Contains(t, html, "€ 1.491,75")
	assert.Contains(t, html, "04/05/2026")
	assert.Contains(t, html, "03/06/2026")
	assert.Contains(t, html, "BE68 5390 0754 7034")
	assert.Contains(t, html, "display: table-header-group")
}

func TestDocumentPrinter_InvoiceRequired(t *testing.T) {
	printer, _ := newTestPrinter(t)
	_, err := printer.Invoice(context.Background(), InvoiceDocument{})
	assert.Error(t, err)
}

func TestDocumentPrinter_Repertorium(t *testing.T) {
	printer, stub := newTestPrinter(t)
	notary := uuid.New()

	first, err := registry.NewRepertoriumEntry(uuid.New(), uuid.New(), notary,
		time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), "sale", "Verkoop woning")
	require.NoError(t, err)
	require.NoError(t, first.AssignNumber(1))
	require.NoError(t, first.AddParty(registry.KlapperEntry{LastName: "Peeters", FirstName: "An", Capacity: "seller"}))
	require.NoError(t, first.AddParty(registry.KlapperEntry{LastName: "Maes", FirstName: "Tom", Capacity: "buyer"}))

	second, err := registry.NewRepertoriumEntry(uuid.New(), uuid.New(), notary,
		time.Date(2026, 2, 11, 0, 0, 0, 0, time.UTC), "will", "Testament")
	require.NoError(t, err)
	require.NoError(t, second.AssignNumber(2))
	require.NoError(t, second.Void("Dubbele inschrijving"))

	rows := NewRepertoriumRows([]*registry.RepertoriumEntry{first, second}, map[uuid.UUID]string{notary: "Mr. Peeters"})
	require.Len(t, rows, 2)
	assert.Equal(t, "Peeters, An; Maes, Tom", rows[0].Parties)
	assert.Equal(t, "Mr. Peeters", rows[0].NotaryName)

	_, err = printer.Repertorium(context.Background(), RepertoriumDocument{
		Office:   Letterhead{Name: "Notaris Peeters"},
		Year:     2026,
		Currency: "EUR",
		Rows:     rows,
	})
	require.NoError(t, err)

	req := stub.Requests()[0]
	assert.True(t, req.Landscape)
	assert.Equal(t, PaperA4, req.PaperSize)
	assert.Equal(t, "Repertorium 2026", req.Title)
	assert.Contains(t, req.HeaderHTML, "Notaris Peeters")
	assert.Contains(t, req.HTML, "Verkoop woning")
	assert.Contains(t, req.HTML, `class="voided"`)
	assert.Contains(t, req.HTML, "Vernietigd: Dubbele inschrijving")
}

func TestDocumentPrinter_Klapper(t *testing.T) {
	printer, stub := newTestPrinter(t)
	sorter := registry.NewSorter("nl-BE")
	sections := sorter.Group([]registry.KlapperEntry{
		{LastName: "Peeters", FirstName: "An", Capacity: "seller", Year: 2026, EntryNumber: 1},
		{LastName: "Élise BV", IsCompany: true, Capacity: "buyer", Year: 2026, EntryNumber: 3},
		{LastName: "Maes", FirstName: "Tom", Capacity: "buyer", Year: 2026, EntryNumber: 1},
	})

	_, err := printer.Klapper(context.Background(), KlapperDocument{
		Office:   Letterhead{Name: "Notaris Peeters"},
		Year:     2026,
		Sections: sections,
	})
	require.NoError(t, err)

	req := stub.Requests()[0]
	assert.True(t, req.Landscape)
	assert.Equal(t, "Klapper 2026", req.Title)
	assert.Contains(t, req.HTML, "<h2>E</h2>")
	assert.Contains(t, req.HTML, "<h2>M</h2>")
	assert.Contains(t, req.HTML, "Peeters, An")
	assert.Contains(t, req.HTML, "2026/3")
	assert.Contains(t, req.HTML, "Koper")
}

func TestDocumentPrinter_EmptyKlapper(t *testing.T) {
	printer, stub := newTestPrinter(t)
	_, err := printer.Klapper(context.Background(), KlapperDocument{})
	require.NoError(t, err)
	req := stub.Requests()[0]
	assert.Equal(t, "Klapper", req.Title)
	assert.Contains(t, req.HTML, "Geen partijen gevonden.")
}
