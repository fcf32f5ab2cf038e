package router

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	appassistant "github.com/notaris/backend/internal/application/assistant"
	appdossier "github.com/notaris/backend/internal/application/dossier"
	appidentity "github.com/notaris/backend/internal/application/identity"
	appinvoicing "github.com/notaris/backend/internal/application/invoicing"
	applicensing "github.com/notaris/backend/internal/application/licensing"
	appregistry "github.com/notaris/backend/internal/application/registry"
	"github.com/notaris/backend/internal/domain/identity"
	"github.com/notaris/backend/internal/infrastructure/config"
	"github.com/notaris/backend/internal/interfaces/http/handler"
	"github.com/notaris/backend/internal/interfaces/http/middleware"
	"github.com/notaris/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiFixture struct {
	app    *testutil.App
	engine *gin.Engine
}

func newAPI(t *testing.T, mutate ...func(*Options)) *apiFixture {
	t.Helper()
	app := testutil.NewApp(t)
	sqlDB, err := app.DB.DB()
	require.NoError(t, err)

	h := Handlers{
		Auth:        handler.NewAuthHandler(app.Auth, config.CookieConfig{Path: "/api/v1/auth", SameSite: "lax"}),
		Office:      handler.NewOfficeHandler(app.Offices, app.Roles),
		User:        handler.NewUserHandler(app.UserService),
		Dossier:     handler.NewDossierHandler(app.Dossiers, app.Documents),
		Document:    handler.NewDocumentHandler(app.Documents),
		Appointment: handler.NewAppointmentHandler(app.Appointments),
		Message:     handler.NewMessageHandler(app.Messages),
		Invoice:     handler.NewInvoiceHandler(app.Invoices),
		Registry:    handler.NewRegistryHandler(app.Registry),
		Assistant:   handler.NewAssistantHandler(app.Assistant),
		License:     handler.NewLicenseHandler(app.Licenses),
		Health:      handler.NewHealthHandler(map[string]handler.CheckFunc{"database": sqlDB.PingContext}),
	}
	opts := Options{
		HTTP:          config.HTTPConfig{MaxBodySize: 64 << 10, UploadMaxBodySize: 1 << 20},
		CORS:          middleware.DefaultCORSConfig(),
		Authenticator: app.Auth,
		Features:      app.Licenses,
	}
	for _, m := range mutate {
		m(&opts)
	}
	return &apiFixture{app: app, engine: New(h, opts)}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var opts []testutil.RequestOption
	if token != "" {
		opts = append(opts, testutil.WithBearer(token))
	}
	return testutil.DoJSON(t, f.engine, method, path, body, opts...)
}

func (f *apiFixture) login(t *testing.T, username, password string) handler.LoginResponse {
	t.Helper()
	rec := testutil.DoJSON(t, f.engine, http.MethodPost, "/api/v1/auth/login", handler.LoginRequest{
		OfficeCode: testutil.OfficeCode,
		Username:   username,
		Password:   password,
	})
	return testutil.Data[handler.LoginResponse](t, rec, http.StatusOK)
}

func (f *apiFixture) adminToken(t *testing.T) string {
	t.Helper()
	return f.login(t, testutil.AdminUsername, testutil.AdminPassword).Token.AccessToken
}

func TestAPI_Health(t *testing.T) {
	f := newAPI(t)

	for _, path := range []string{"/health", "/api/v1/health"} {
		rec := f.do(t, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Body.String(), `"healthy"`)
	}
}

func TestAPI_Authentication(t *testing.T) {
	f := newAPI(t)

	t.Run("missing token", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/dossiers", nil, "")
		testutil.AssertError(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/auth/me", nil, "not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/v1/auth/login", handler.LoginRequest{
			OfficeCode: testutil.OfficeCode, Username: testutil.AdminUsername, Password: "wrong-password",
		}, "")
		testutil.AssertError(t, rec, http.StatusUnauthorized, "INVALID_CREDENTIALS")
	})

	t.Run("login then me", func(t *testing.T) {
		res := f.login(t, testutil.AdminUsername, testutil.AdminPassword)
		assert.NotEmpty(t, res.Token.RefreshToken)
		assert.Equal(t, string(identity.RoleAdmin), res.User.Role)

		rec := f.do(t, http.MethodGet, "/api/v1/auth/me", nil, res.Token.AccessToken)
		me := testutil.Data[appidentity.UserDTO](t, rec, http.StatusOK)
		assert.Equal(t, f.app.Admin.ID, me.ID)
	})

	t.Run("logout revokes the token", func(t *testing.T) {
		token := f.adminToken(t)
		rec := f.do(t, http.MethodPost, "/api/v1/auth/logout", nil, token)
		require.Less(t, rec.Code, 300, rec.Body.String())

		rec = f.do(t, http.MethodGet, "/api/v1/auth/me", nil, token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAPI_PermissionsAndFeatures(t *testing.T) {
	f := newAPI(t)
	admin := f.adminToken(t)
	clerk := f.app.CreateUser(t, "griet", identity.RoleClerk)
	clerkToken := f.login(t, clerk.Username, testutil.AdminPassword).Token.AccessToken

	t.Run("feature disabled without a license", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/dossiers", nil, admin)
		testutil.AssertError(t, rec, http.StatusForbidden, "FEATURE_DISABLED")
	})

	t.Run("features endpoint needs no permission", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/license/features", nil, clerkToken)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("clerk cannot activate", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/v1/license/activate", applicensing.ActivateRequest{
			Key: testutil.LicenseKey, Domain: testutil.OfficeDomain,
		}, clerkToken)
		testutil.AssertError(t, rec, http.StatusForbidden, "FORBIDDEN")
	})

	t.Run("admin activates", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/v1/license/activate", applicensing.ActivateRequest{
			Key: testutil.LicenseKey, Domain: testutil.OfficeDomain,
		}, admin)
		status := testutil.Data[applicensing.StatusResponse](t, rec, http.StatusOK)
		assert.True(t, status.Licensed)
		assert.Equal(t, "professional", status.Edition)
	})

	t.Run("gated routes open up", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/dossiers", nil, clerkToken)
		items, meta := testutil.Page[appdossier.DossierResponse](t, rec)
		assert.Empty(t, items)
		assert.Equal(t, int64(0), meta.Total)
	})

	t.Run("clerk lacks user management", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/v1/users", handler.CreateUserRequest{
			Username: "nieuw", Password: "Sup3r-Secret!", Email: "nieuw@notaris-peeters.be", Role: "clerk",
		}, clerkToken)
		testutil.AssertError(t, rec, http.StatusForbidden, "FORBIDDEN")
	})

	t.Run("office flag switches a feature off", func(t *testing.T) {
		enabled := false
		rec := f.do(t, http.MethodPut, "/api/v1/license/flags", applicensing.SetFlagRequest{
			Feature: "messaging", Enabled: &enabled,
		}, admin)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = f.do(t, http.MethodGet, "/api/v1/messages/inbox", nil, clerkToken)
		testutil.AssertError(t, rec, http.StatusForbidden, "FEATURE_DISABLED")
	})
}

func TestAPI_DossierDocuments(t *testing.T) {
	f := newAPI(t, func(o *Options) {
		o.HTTP.MaxBodySize = 1 << 10
		o.HTTP.UploadMaxBodySize = 8 << 10
	})
	f.app.ActivateLicense(t)
	token := f.adminToken(t)

	rec := f.do(t, http.MethodPost, "/api/v1/dossiers", handler.CreateDossierRequest{
		Title:    "Verkoop woning Kerkstraat 12",
		DeedType: "sale",
		Parties: []handler.PartyRequest{
			{Kind: "person", FirstName: "Jan", LastName: "Janssens", Capacity: "seller"},
		},
	}, token)
	d := testutil.Data[appdossier.DossierResponse](t, rec, http.StatusCreated)
	require.Len(t, d.Parties, 1)
	base := "/api/v1/dossiers/" + d.ID.String()

	t.Run("global body limit", func(t *testing.T) {
		rec := f.do(t, http.MethodPut, base, handler.UpdateDossierRequest{
			Title: "x", DeedType: "sale", Description: strings.Repeat("a", 2<<10),
		}, token)
		testutil.AssertError(t, rec, http.StatusRequestEntityTooLarge, "REQUEST_TOO_LARGE")
	})

	var doc appdossier.DocumentResponse
	t.Run("upload is exempt from the global limit", func(t *testing.T) {
		body := bytes.Repeat([]byte("ontwerpakte "), 300)
		rec := testutil.Upload(t, f.engine, base+"/documents", "ontwerp.txt", "text/plain; charset=utf-8", body,
			map[string]string{"title": "Ontwerpakte"}, testutil.WithBearer(token))
		doc = testutil.Data[appdossier.DocumentResponse](t, rec, http.StatusCreated)
		assert.Equal(t, "/api/v1/documents/"+doc.ID.String(), rec.Header().Get("Location"))
		assert.Equal(t, "text/plain", doc.ContentType)
		assert.Equal(t, int64(len(body)), doc.Size)
		assert.NotEmpty(t, doc.Checksum)
	})

	t.Run("upload over its own limit", func(t *testing.T) {
		rec := testutil.Upload(t, f.engine, base+"/documents", "groot.pdf", "application/pdf",
			bytes.Repeat([]byte{'x'}, 16<<10), nil, testutil.WithBearer(token))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("list and download", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, base+"/documents", nil, token)
		docs := testutil.Data[[]appdossier.DocumentResponse](t, rec, http.StatusOK)
		require.Len(t, docs, 1)

		rec = f.do(t, http.MethodGet, "/api/v1/documents/"+doc.ID.String()+"/download", nil, token)
		link := testutil.Data[appdossier.DownloadLink](t, rec, http.StatusOK)
		assert.True(t, strings.HasPrefix(link.URL, "http://files.test/"))

		rec = f.do(t, http.MethodGet, "/api/v1/documents/"+doc.ID.String()+"/download?redirect=true", nil, token)
		assert.Equal(t, http.StatusFound, rec.Code)
	})

	t.Run("unknown dossier", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/dossiers/"+testutil.NewTestUUID("99").String(), nil, token)
		testutil.AssertError(t, rec, http.StatusNotFound, "NOT_FOUND")
	})
}

func TestAPI_InvoiceLifecycle(t *testing.T) {
	f := newAPI(t)
	f.app.ActivateLicense(t)
	token := f.adminToken(t)

	rec := f.do(t, http.MethodPost, "/api/v1/invoices", map[string]any{
		"client": map[string]any{"name": "Familie Peeters", "email": "klant@example.be"},
		"lines": []map[string]any{
			{"description": "Ereloon verkoopakte", "quantity": "1", "unit_price": "1250.00"},
		},
	}, token)
	inv := testutil.Data[appinvoicing.InvoiceResponse](t, rec, http.StatusCreated)
	assert.Equal(t, "draft", inv.Status)
	path := "/api/v1/invoices/" + inv.ID.String()

	rec = f.do(t, http.MethodPost, path+"/issue", nil, token)
	inv = testutil.Data[appinvoicing.InvoiceResponse](t, rec, http.StatusOK)
	assert.Equal(t, fmt.Sprintf("F%04d-0001", time.Now().Year()), inv.Number)

	rec = f.do(t, http.MethodPost, path+"/issue", nil, token)
	testutil.AssertError(t, rec, http.StatusUnprocessableEntity, "INVOICE_NOT_DRAFT")

	rec = f.do(t, http.MethodGet, path+"/pdf", nil, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-1.4"))

	rec = f.do(t, http.MethodPost, path+"/send", handler.SendInvoiceRequest{}, token)
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	assert.Len(t, f.app.Mailer.Sent(), 1)

	rec = f.do(t, http.MethodPost, path+"/pay", handler.MarkPaidRequest{}, token)
	inv = testutil.Data[appinvoicing.InvoiceResponse](t, rec, http.StatusOK)
	assert.Equal(t, "paid", inv.Status)
	assert.NotNil(t, inv.PaidAt)
}

func TestAPI_Registry(t *testing.T) {
	f := newAPI(t)
	f.app.ActivateLicense(t)
	token := f.adminToken(t)
	notary := f.app.CreateUser(t, "mtr.peeters", identity.RoleNotary)
	year := time.Now().Year()

	record := func(lastName string) appregistry.EntryResponse {
		rec := f.do(t, http.MethodPost, "/api/v1/repertorium", map[string]any{
			"deed_date": time.Now().Format("2006-01-02"),
			"deed_type": "sale",
			"title":     "Verkoop " + lastName,
			"notary_id": notary.ID,
			"parties":   []map[string]any{{"last_name": lastName, "first_name": "An"}},
		}, token)
		return testutil.Data[appregistry.EntryResponse](t, rec, http.StatusCreated)
	}
	first := record("Claes")
	second := record("Aerts")
	assert.Equal(t, first.Number+1, second.Number)

	rec := f.do(t, http.MethodPost, "/api/v1/repertorium/"+first.ID.String()+"/void", handler.VoidEntryRequest{Reason: "dubbel"}, token)
	voided := testutil.Data[appregistry.EntryResponse](t, rec, http.StatusOK)
	assert.Equal(t, first.Number, voided.Number)
	assert.Equal(t, "voided", voided.Status)

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/klapper?year=%d", year), nil, token)
	sections := testutil.Data[[]appregistry.SectionResponse](t, rec, http.StatusOK)
	require.NotEmpty(t, sections)
	assert.Equal(t, "A", sections[0].Letter)

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/repertorium/pdf?year=%d", year), nil, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	rec = f.do(t, http.MethodGet, "/api/v1/klapper/pdf?year=1800", nil, token)
	testutil.AssertError(t, rec, http.StatusBadRequest, "BAD_REQUEST")
}

func TestAPI_Assistant(t *testing.T) {
	f := newAPI(t)
	f.app.ActivateLicense(t)
	token := f.adminToken(t)

	rec := f.do(t, http.MethodPost, "/api/v1/assistant/knowledge/notes", handler.IndexNoteRequest{
		Text: "Registratierechten op een verkoop bedragen in Vlaanderen 12 procent.",
	}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/v1/assistant/sessions", nil, token)
	session := testutil.Data[appassistant.SessionResponse](t, rec, http.StatusCreated)

	rec = f.do(t, http.MethodPost, "/api/v1/assistant/sessions/"+session.ID.String()+"/messages",
		handler.AskRequest{Question: "Hoeveel registratierechten op een verkoop?"}, token)
	answer := testutil.Data[appassistant.AskResponse](t, rec, http.StatusCreated)
	assert.Contains(t, answer.Answer.Content, "registratierechten")
	assert.Contains(t, answer.Answer.HTML, "<strong>")

	f.app.AI.Err = context.DeadlineExceeded
	rec = f.do(t, http.MethodPost, "/api/v1/assistant/sessions/"+session.ID.String()+"/messages",
		handler.AskRequest{Question: "Nog een vraag"}, token)
	testutil.AssertError(t, rec, http.StatusBadGateway, "AI_PROVIDER_UNAVAILABLE")
}

func TestAPI_LoginRateLimit(t *testing.T) {
	f := newAPI(t, func(o *Options) {
		o.AuthLimiter = middleware.NewRateLimiter(2, time.Minute)
	})
	body := handler.LoginRequest{OfficeCode: testutil.OfficeCode, Username: testutil.AdminUsername, Password: "wrong-password"}

	for i := 0; i < 2; i++ {
		rec := f.do(t, http.MethodPost, "/api/v1/auth/login", body, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := f.do(t, http.MethodPost, "/api/v1/auth/login", body, "")
	testutil.AssertError(t, rec, http.StatusTooManyRequests, "RATE_LIMITED")

	// other routes are not throttled by the login limiter
	rec = f.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_Routes(t *testing.T) {
	f := newAPI(t)

	mounted := make(map[string]bool)
	for _, r := range f.engine.Routes() {
		mounted[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"POST /api/v1/auth/login",
		"GET /api/v1/office",
		"PUT /api/v1/users/:id/role",
		"POST " + UploadPath,
		"GET /api/v1/documents/:id/download",
		"POST /api/v1/appointments/:id/reschedule",
		"GET /api/v1/messages/threads/:threadId",
		"GET /api/v1/invoices/:id/pdf",
		"POST /api/v1/repertorium/:id/void",
		"GET /api/v1/repertorium/pdf",
		"GET /api/v1/klapper/pdf",
		"GET /api/v1/license/features",
		"POST /api/v1/assistant/sessions/:id/messages",
		"PUT /api/v1/license/flags",
	} {
		assert.True(t, mounted[want], "missing route %s", want)
	}
}
