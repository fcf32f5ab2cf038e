package printing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0,00"},
		{"12.5", "12,50"},
		{"1234.56", "1.234,56"},
		{"1234567.891", "1.234.567,89"},
		{"-950", "-950,00"},
		{"-1000", "-1.000,00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, formatAmount(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestFormatMoney(t *testing.T) {
	amount := decimal.RequireFromString("1500")
	assert.Equal(t, "€ 1.500,00", formatMoney(amount, "EUR"))
	assert.Equal(t, "€ 1.500,00", formatMoney(amount, ""))
	assert.Equal(t, "CHF 1.500,00", formatMoney(amount, "CHF"))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "21%", formatPercent(decimal.NewFromInt(21)))
	assert.Equal(t, "5,5%", formatPercent(decimal.RequireFromString("5.5")))
	assert.Equal(t, "0%", formatPercent(decimal.Zero))
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2026, 3, 7, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, "07/03/2026", formatDate(d))
	assert.Equal(t, "07/03/2026", formatDate(&d))

	var nilTime *time.Time
	assert.Equal(t, "", formatDate(nilTime))
	assert.Equal(t, "", formatDate(time.Time{}))
	assert.Equal(t, "", formatDate("2026-03-07"))
}

func TestRowNumberAndDefault(t *testing.T) {
	assert.Equal(t, 1, rowNumber(0))
	assert.Equal(t, "(concept)", defaultString("(concept)", "  "))
	assert.Equal(t, "F2026-0001", defaultString("(concept)", "F2026-0001"))
}

func TestTemplateEngine_TitleCase(t *testing.T) {
	engine, err := NewTemplateEngine("nl-BE")
	require.NoError(t, err)
	assert.Equal(t, "Koper", engine.titleCase("koper"))
	assert.Equal(t, "Huwelijkscontract", engine.titleCase("huwelijkscontract"))

	fallback, err := NewTemplateEngine("not a locale!")
	require.NoError(t, err)
	assert.NotNil(t, fallback)
}

func TestTemplateEngine_Execute(t *testing.T) {
	engine, err := NewTemplateEngine("nl-BE")
	require.NoError(t, err)

	html, err := engine.Execute("page-header", pageChrome{Office: "Notaris <Peeters>", Title: "Repertorium 2026"})
	require.NoError(t, err)
	assert.Contains(t, html, "Notaris &lt;Peeters&gt;")
	assert.Contains(t, html, "Repertorium 2026")

	footer, err := engine.Execute("page-footer", nil)
	require.NoError(t, err)
	assert.Contains(t, footer, `class="pageNumber"`)
	assert.Contains(t, footer, `class="totalPages"`)

	_, err = engine.Execute("missing.html", nil)
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeTemplateFailed, renderErr.Code)
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "koper", capacityLabel("buyer"))
	assert.Equal(t, "mede-eigenaar", capacityLabel("mede-eigenaar"))
	assert.Equal(t, "huwelijkscontract", deedLabel("marriage_contract"))
	assert.Equal(t, "erfpacht", deedLabel("erfpacht"))
}
