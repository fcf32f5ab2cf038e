package identity

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTenant(t *testing.T) {
	t.Run("uppercases code and applies defaults", func(t *testing.T) {
		office, err := NewTenant("notaris-janssens", "Notaris Janssens")
		require.NoError(t, err)
		assert.Equal(t, "NOTARIS-JANSSENS", office.Code)
		assert.True(t, office.IsActive())
		assert.Equal(t, 30, office.Invoice.PaymentTermDays)
		assert.True(t, office.Invoice.DefaultVATRate.Equal(decimal.NewFromInt(21)))
	})

	t.Run("rejects bad code", func(t *testing.T) {
		_, err := NewTenant("bad code!", "Name")
		assert.Error(t, err)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewTenant("OK", "   ")
		assert.Error(t, err)
	})
}

func TestNormalizeDomain(t *testing.T) {
	cases := map[string]string{
		"Example.BE":                        "example.be",
		"https://www.notaris.be/login":      "notaris.be",
		"www.notaris.be:8443":               "notaris.be",
		"  kantoor.notaris.be.  ":           "kantoor.notaris.be",
		"http://office.example.com?x=1#top": "office.example.com",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeDomain(in), in)
	}
}

func TestTenant_SetDomain(t *testing.T) {
	office, err := NewTenant("OFF", "Office")
	require.NoError(t, err)

	require.NoError(t, office.SetDomain("WWW.Notaris-Peeters.be"))
	assert.Equal(t, "notaris-peeters.be", office.Domain)
	assert.Equal(t, 2, office.Version)

	assert.Error(t, office.SetDomain("localhost"))
	require.NoError(t, office.SetDomain(""))
	assert.Empty(t, office.Domain)
}

func TestTenant_InvoiceSettings(t *testing.T) {
	office, err := NewTenant("OFF", "Office")
	require.NoError(t, err)

	err = office.SetInvoiceSettings(InvoiceSettings{Prefix: "NJ", DefaultVATRate: decimal.NewFromInt(101)})
	assert.Error(t, err)

	err = office.SetInvoiceSettings(InvoiceSettings{Prefix: "NJ", DefaultVATRate: decimal.NewFromInt(6), PaymentTermDays: 14})
	require.NoError(t, err)
	assert.Equal(t, "EUR", office.Invoice.Currency)

	err = office.SetInvoiceSettings(InvoiceSettings{Prefix: "X", Currency: "E1"})
	assert.Error(t, err)
	assert.Equal(t, "NJ", office.Invoice.Prefix)

	issued := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC), office.PaymentDueDate(issued))
}

func TestTenant_SuspendActivate(t *testing.T) {
	office, err := NewTenant("OFF", "Office")
	require.NoError(t, err)

	assert.Error(t, office.Activate())
	require.NoError(t, office.Suspend())
	assert.False(t, office.IsActive())
	assert.Error(t, office.Suspend())
	require.NoError(t, office.Activate())
}
