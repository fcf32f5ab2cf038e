package printing

import (
	"bytes"
	"embed"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.html
var templateFS embed.FS

// TemplateEngine renders the embedded document templates.
type TemplateEngine struct {
	tmpl    *template.Template
	funcMap template.FuncMap
	caser   cases.Caser
}

// NewTemplateEngine parses the built-in templates. locale drives title
// casing, e.g. "nl-BE"; unknown tags fall back to Dutch.
func NewTemplateEngine(locale string) (*TemplateEngine, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Dutch
	}

	e := &TemplateEngine{caser: cases.Title(tag)}
	e.funcMap = template.FuncMap{
		"formatMoney":   formatMoney,
		"formatAmount":  formatAmount,
		"formatDecimal": formatDecimal,
		"formatPercent": formatPercent,
		"formatDate":    formatDate,
		"title":         e.titleCase,
		"upper":         strings.ToUpper,
		"rowNumber":     rowNumber,
		"deedLabel":     deedLabel,
		"capacityLabel": capacityLabel,
		"default":       defaultString,
	}

	tmpl, err := template.New("documents").Funcs(e.funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, NewRenderError(ErrCodeTemplateFailed, "failed to parse templates", err)
	}
	e.tmpl = tmpl
	return e, nil
}

// Execute renders the named template, e.g. "invoice.html".
func (e *TemplateEngine) Execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := e.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", NewRenderError(ErrCodeTemplateFailed, "failed to execute template "+name, err)
	}
	return buf.String(), nil
}

func (e *TemplateEngine) titleCase(s string) string {
	return e.caser.String(s)
}

// formatMoney renders an amount with its currency: "€ 1.234,56".
func formatMoney(v decimal.Decimal, currency string) string {
	symbol := currency
	switch strings.ToUpper(currency) {
	case "", "EUR":
		symbol = "€"
	case "USD":
		symbol = "$"
	case "GBP":
		symbol = "£"
	}
	return symbol + " " + formatAmount(v)
}

// formatAmount groups thousands with dots and uses a decimal comma.
func formatAmount(v decimal.Decimal) string {
	return formatDecimal(v, 2)
}

func formatDecimal(v decimal.Decimal, places int) string {
	sign := ""
	if v.IsNegative() {
		sign = "-"
		v = v.Abs()
	}

	intPart, decPart, _ := strings.Cut(v.StringFixed(int32(places)), ".")

	var result strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			result.WriteRune('.')
		}
		result.WriteRune(c)
	}
	if decPart != "" {
		result.WriteRune(',')
		result.WriteString(decPart)
	}
	return sign + result.String()
}

// formatPercent prints a rate already expressed in percent: 21 -> "21%",
// 5.5 -> "5,5%".
func formatPercent(v decimal.Decimal) string {
	return strings.Replace(v.String(), ".", ",", 1) + "%"
}

// formatDate accepts time.Time or *time.Time; nil and zero print as empty.
func formatDate(v any) string {
	var t time.Time
	switch val := v.(type) {
	case time.Time:
		t = val
	case *time.Time:
		if val != nil {
			t = *val
		}
	}
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}

// rowNumber turns a zero-based range index into a line number.
func rowNumber(i int) int {
	return i + 1
}

var deedLabels = map[string]string{
	"sale":              "verkoop",
	"mortgage":          "hypotheek",
	"incorporation":     "oprichting",
	"will":              "testament",
	"marriage_contract": "huwelijkscontract",
	"donation":          "schenking",
	"succession":        "nalatenschap",
	"other":             "andere",
}

var capacityLabels = map[string]string{
	"buyer":    "koper",
	"seller":   "verkoper",
	"lender":   "kredietgever",
	"borrower": "kredietnemer",
	"testator": "erflater",
	"heir":     "erfgenaam",
	"founder":  "oprichter",
	"spouse":   "echtgenoot",
	"donor":    "schenker",
	"donee":    "begiftigde",
	"other":    "andere",
}

// deedLabel translates a deed type code; free text passes through.
func deedLabel(code string) string {
	if l, ok := deedLabels[code]; ok {
		return l
	}
	return code
}

func capacityLabel(code string) string {
	if l, ok := capacityLabels[code]; ok {
		return l
	}
	return code
}

func defaultString(def, s string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
