package handler

import (
	"net/http"
	"strings"
	"testing"

	applicensing "github.com/notaris/backend/internal/application/licensing"
	"github.com/notaris/backend/internal/domain/identity"
	"github.com/notaris/backend/internal/domain/licensing"
	"github.com/notaris/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLicenseHandler(t *testing.T) {
	e := newEnv(t)
	h := NewLicenseHandler(e.app.Licenses)
	e.engine.GET("/license", h.Status)
	e.engine.POST("/license/activate", h.Activate)
	e.engine.POST("/license/verify", h.Verify)
	e.engine.DELETE("/license", h.Deactivate)
	e.engine.GET("/license/features", h.Features)
	e.engine.GET("/license/flags", h.ListFlags)
	e.engine.PUT("/license/flags", h.SetFlag)

	t.Run("no license", func(t *testing.T) {
		rec := testutil.DoJSON(t, e.engine, http.MethodGet, "/license", nil)
		status := testutil.Data[applicensing.StatusResponse](t, rec, http.StatusOK)
		assert.False(t, status.Licensed)

		rec = testutil.DoJSON(t, e.engine, http.MethodGet, "/license/features", nil)
		features := testutil.Data[FeaturesResponse](t, rec, http.StatusOK)
		assert.Empty(t, features.Features)

		rec = testutil.DoJSON(t, e.engine, http.MethodPost, "/license/verify", nil)
		testutil.AssertError(t, rec, http.StatusUnprocessableEntity, "NO_LICENSE")
	})

	t.Run("domain must match the office", func(t *testing.T) {
		rec := testutil.DoJSON(t, e.engine, http.MethodPost, "/license/activate", applicensing.ActivateRequest{
			Key: testutil.LicenseKey, Domain: "elders.be",
		})
		testutil.AssertError(t, rec, http.StatusUnprocessableEntity, "DOMAIN_MISMATCH")
	})

	t.Run("malformed key", func(t *testing.T) {
		rec := testutil.DoJSON(t, e.engine, http.MethodPost, "/license/activate", applicensing.ActivateRequest{
			Key: "abc", Domain: testutil.OfficeDomain,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})

	t.Run("rejected key", func(t *testing.T) {
		e.app.License.Reject(true)
		defer e.app.License.Reject(false)

		rec := testutil.DoJSON(t, e.engine, http.MethodPost, "/license/activate", applicensing.ActivateRequest{
			Key: testutil.LicenseKey, Domain: testutil.OfficeDomain,
		})
		testutil.AssertError(t, rec, http.StatusUnprocessableEntity, "LICENSE_REJECTED")
	})

	t.Run("activate with a restricted clerk grant", func(t *testing.T) {
		e.app.License.Grant(identity.RoleClerk, licensing.FeatureDossiers, licensing.FeatureDocuments)

		rec := testutil.DoJSON(t, e.engine, http.MethodPost, "/license/activate", applicensing.ActivateRequest{
			Key: "abcd-efgh-ijkl-mnop", Domain: "www." + testutil.OfficeDomain,
		})
		status := testutil.Data[applicensing.StatusResponse](t, rec, http.StatusOK)
		assert.True(t, status.Licensed)
		assert.True(t, strings.HasSuffix(status.MaskedKey, "MNOP"), status.MaskedKey)
		assert.NotContains(t, status.MaskedKey, "ABCD")

		clerk := e.app.CreateUser(t, "griet", identity.RoleClerk)
		e.actAs(clerk)
		rec = testutil.DoJSON(t, e.engine, http.MethodGet, "/license/features", nil)
		e.actAs(e.app.Admin)
		features := testutil.Data[FeaturesResponse](t, rec, http.StatusOK)
		assert.ElementsMatch(t, []licensing.Feature{licensing.FeatureDossiers, licensing.FeatureDocuments}, features.Features)
	})

	t.Run("flags", func(t *testing.T) {
		off := false
		rec := testutil.DoJSON(t, e.engine, http.MethodPut, "/license/flags", applicensing.SetFlagRequest{Feature: "assistant", Enabled: &off})
		flag := testutil.Data[applicensing.FlagResponse](t, rec, http.StatusOK)
		assert.False(t, flag.Enabled)

		rec = testutil.DoJSON(t, e.engine, http.MethodPut, "/license/flags", applicensing.SetFlagRequest{Feature: "teleport", Enabled: &off})
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

		rec = testutil.DoJSON(t, e.engine, http.MethodPut, "/license/flags", map[string]any{"feature": "assistant"})
		testutil.AssertError(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")

		rec = testutil.DoJSON(t, e.engine, http.MethodGet, "/license/flags", nil)
		flags := testutil.Data[[]applicensing.FlagResponse](t, rec, http.StatusOK)
		require.Len(t, flags, len(licensing.AllFeatures()))
		for _, f := range flags {
			assert.Equal(t, f.Feature != licensing.FeatureAssistant, f.Enabled, f.Feature)
		}

		rec = testutil.DoJSON(t, e.engine, http.MethodGet, "/license/features", nil)
		features := testutil.Data[FeaturesResponse](t, rec, http.StatusOK)
		assert.NotContains(t, features.Features, licensing.FeatureAssistant)
		assert.Contains(t, features.Features, licensing.FeatureInvoicing)
	})

	t.Run("verify and deactivate", func(t *testing.T) {
		rec := testutil.DoJSON(t, e.engine, http.MethodPost, "/license/verify", nil)
		status := testutil.Data[applicensing.StatusResponse](t, rec, http.StatusOK)
		assert.Equal(t, licensing.StatusActive, status.Status)

		rec = testutil.DoJSON(t, e.engine, http.MethodDelete, "/license", nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Contains(t, e.app.License.Calls(), "/v1/licenses/deactivate")

		rec = testutil.DoJSON(t, e.engine, http.MethodGet, "/license", nil)
		status = testutil.Data[applicensing.StatusResponse](t, rec, http.StatusOK)
		assert.False(t, status.Licensed)
	})
}
