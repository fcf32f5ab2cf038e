package printing

import (
	"context"
	"testing"

	"github.com/notaris/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePaperSize(t *testing.T) {
	p, err := ParsePaperSize("a4")
	require.NoError(t, err)
	assert.Equal(t, PaperA4, p)

	p, err = ParsePaperSize("")
	require.NoError(t, err)
	assert.Equal(t, PaperA4, p)

	p, err = ParsePaperSize("LETTER")
	require.NoError(t, err)
	assert.Equal(t, PaperLetter, p)

	_, err = ParsePaperSize("A3")
	assert.Error(t, err)
}

func TestBuildPrintParams(t *testing.T) {
	r := &ChromedpRenderer{config: &ChromedpConfig{}}

	t.Run("A4 portrait with default margins", func(t *testing.T) {
		params := r.buildPrintParams(&RenderRequest{HTML: "<p>x</p>", PaperSize: PaperA4})
		assert.InDelta(t, 8.27, params.paperWidth, 0.01)
		assert.InDelta(t, 11.69, params.paperHeight, 0.01)
		assert.InDelta(t, mmToInches(15), params.marginTop, 0.001)
		assert.False(t, params.landscape)
		assert.False(t, params.displayHeaderFooter)
	})

	t.Run("landscape register with header", func(t *testing.T) {
		params := r.buildPrintParams(&RenderRequest{
			HTML:       "<p>x</p>",
			PaperSize:  PaperA4,
			Landscape:  true,
			Margins:    Margins{Top: 5, Right: 10, Bottom: 5, Left: 10},
			HeaderHTML: "<div>head</div>",
		})
		assert.True(t, params.landscape)
		assert.True(t, params.displayHeaderFooter)
		assert.InDelta(t, mmToInches(20), params.marginTop, 0.001)
		assert.InDelta(t, mmToInches(5), params.marginBottom, 0.001)
		assert.Equal(t, "<span></span>", params.footerTemplate)
	})

	t.Run("letter", func(t *testing.T) {
		params := r.buildPrintParams(&RenderRequest{HTML: "<p>x</p>", PaperSize: PaperLetter})
		assert.InDelta(t, 8.5, params.paperWidth, 0.01)
		assert.InDelta(t, 11.0, params.paperHeight, 0.01)
	})
}

func TestBuildCompleteHTML(t *testing.T) {
	full := "<!DOCTYPE html><html><body>x</body></html>"
	assert.Equal(t, full, buildCompleteHTML(&RenderRequest{HTML: full}))

	wrapped := buildCompleteHTML(&RenderRequest{HTML: "<p>x</p>", Title: "Doc"})
	assert.Contains(t, wrapped, "<!DOCTYPE html>")
	assert.Contains(t, wrapped, "<title>Doc</title>")
	assert.Contains(t, wrapped, "<body><p>x</p></body>")
}

func TestCountPages(t *testing.T) {
	pdf := []byte("<< /Type /Pages /Count 2 >> << /Type /Page /Parent 1 0 R >> << /Type/Page >>")
	assert.Equal(t, 2, countPages(pdf))
	assert.Equal(t, 0, countPages([]byte("%PDF-1.4")))
}

func TestRenderRequest_Validate(t *testing.T) {
	var nilReq *RenderRequest
	assert.Error(t, nilReq.Validate())
	assert.Error(t, (&RenderRequest{HTML: "  \n", PaperSize: PaperA4}).Validate())
	assert.Error(t, (&RenderRequest{HTML: "<p/>", PaperSize: "A0"}).Validate())
	assert.NoError(t, (&RenderRequest{HTML: "<p/>", PaperSize: PaperLetter}).Validate())
}

func TestNewRenderer(t *testing.T) {
	r, err := NewRenderer(config.PrintingConfig{Driver: "stub"}, nil)
	require.NoError(t, err)
	_, ok := r.(*StubRenderer)
	assert.True(t, ok)

	_, err = NewRenderer(config.PrintingConfig{Driver: "wkhtmltopdf"}, nil)
	assert.Error(t, err)
}

func TestStubRenderer(t *testing.T) {
	stub := NewStubRenderer()
	res, err := stub.Render(context.Background(), &RenderRequest{HTML: "<p>x</p>", Title: "T", PaperSize: PaperA4})
	require.NoError(t, err)
	assert.Equal(t, 1, res.PageCount)
	assert.Equal(t, 1, countPages(res.PDFData))
	assert.Len(t, stub.Requests(), 1)

	_, err = stub.Render(context.Background(), &RenderRequest{PaperSize: PaperA4})
	assert.Error(t, err)
	assert.Len(t, stub.Requests(), 1)
}
