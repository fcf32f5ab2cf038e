package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	appappointment "github.com/notaris/backend/internal/application/appointment"
	appassistant "github.com/notaris/backend/internal/application/assistant"
	appdossier "github.com/notaris/backend/internal/application/dossier"
	appidentity "github.com/notaris/backend/internal/application/identity"
	appinvoicing "github.com/notaris/backend/internal/application/invoicing"
	applicensing "github.com/notaris/backend/internal/application/licensing"
	appmessaging "github.com/notaris/backend/internal/application/messaging"
	appregistry "github.com/notaris/backend/internal/application/registry"
	"github.com/notaris/backend/internal/domain/identity"
	"github.com/notaris/backend/internal/domain/licensing"
	"github.com/notaris/backend/internal/infrastructure/ai"
	"github.com/notaris/backend/internal/infrastructure/auth"
	"github.com/notaris/backend/internal/infrastructure/cache"
	"github.com/notaris/backend/internal/infrastructure/config"
	"github.com/notaris/backend/internal/infrastructure/license"
	"github.com/notaris/backend/internal/infrastructure/mail"
	"github.com/notaris/backend/internal/infrastructure/persistence"
	"github.com/notaris/backend/internal/infrastructure/printing"
	"github.com/notaris/backend/internal/infrastructure/storage"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Fixture values of the bootstrapped office.
const (
	OfficeCode    = "PEETERS"
	OfficeDomain  = "notaris-peeters.be"
	AdminUsername = "admin"
	AdminPassword = "Sup3r-Secret!"
	LicenseKey    = "ABCD-EFGH-IJKL-MNOP"
)

// App is the application wired over SQLite and in-memory adapters.
type App struct {
	DB       *gorm.DB
	Storage  *storage.StubObjectStorage
	Mailer   *mail.LogSender
	Renderer *printing.StubRenderer
	AI       *ai.StubProvider
	License  *LicenseServer
	Cache    *cache.InMemoryLicenseCache

	JWT       *auth.JWTService
	Blacklist *auth.InMemoryTokenBlacklist
	Users     *persistence.GormUserRepository

	Auth         *appidentity.AuthService
	Offices      *appidentity.OfficeService
	Roles        *appidentity.RoleService
	UserService  *appidentity.UserService
	Dossiers     *appdossier.Service
	Documents    *appdossier.DocumentService
	Appointments *appappointment.Service
	Messages     *appmessaging.Service
	Invoices     *appinvoicing.Service
	Registry     *appregistry.Service
	Assistant    *appassistant.Service
	Licenses     *applicensing.Service

	Office appidentity.OfficeDTO
	Admin  appidentity.UserDTO
}

// NewApp builds the application and bootstraps one office with an admin.
func NewApp(t *testing.T) *App {
	t.Helper()
	db := NewTestDB(t)

	a := &App{
		DB:        db,
		Storage:   storage.NewStubObjectStorage("http://files.test"),
		Mailer:    mail.NewLogSender(nil),
		Renderer:  printing.NewStubRenderer(),
		AI:        ai.NewStubProvider(),
		License:   NewLicenseServer(t),
		Cache:     cache.NewInMemoryLicenseCache(time.Minute, nil),
		Blacklist: auth.NewInMemoryTokenBlacklist(),
		JWT: auth.NewJWTService(config.JWTConfig{
			Secret:                 "test-access-secret-at-least-32-bytes!!",
			RefreshSecret:          "test-refresh-secret-at-least-32-bytes!",
			AccessTokenExpiration:  15 * time.Minute,
			RefreshTokenExpiration: time.Hour,
			Issuer:                 "notaris-test",
			MaxRefreshCount:        5,
		}),
	}
	t.Cleanup(func() { _ = a.Cache.Close() })

	tenants := persistence.NewGormTenantRepository(db)
	a.Users = persistence.NewGormUserRepository(db)
	dossiers := persistence.NewGormDossierRepository(db)
	documents := persistence.NewGormDocumentRepository(db)

	engine, err := printing.NewTemplateEngine("nl-BE")
	require.NoError(t, err)
	printer := printing.NewDocumentPrinter(engine, a.Renderer, printing.PaperA4)

	licenseClient, err := license.NewClient(config.LicenseConfig{ServerURL: a.License.URL, Timeout: 2 * time.Second}, nil)
	require.NoError(t, err)

	a.Auth = appidentity.NewAuthService(tenants, a.Users, a.JWT, a.Blacklist, nil)
	a.Offices = appidentity.NewOfficeService(tenants, a.Users, nil)
	a.Roles = appidentity.NewRoleService(a.Users)
	a.UserService = appidentity.NewUserService(a.Users, a.Blacklist, time.Hour, nil)
	a.Dossiers = appdossier.NewService(dossiers, a.Users, nil)
	a.Documents = appdossier.NewDocumentService(dossiers, documents, a.Storage, nil)
	a.Appointments = appappointment.NewService(persistence.NewGormAppointmentRepository(db), a.Users, a.Mailer, nil)
	a.Messages = appmessaging.NewService(persistence.NewGormMessageRepository(db), a.Users, a.Mailer, nil)
	a.Invoices = appinvoicing.NewService(persistence.NewGormInvoiceRepository(db), tenants, printer, a.Mailer, nil)
	a.Registry = appregistry.NewService(persistence.NewGormRegistryRepository(db), a.Users, tenants, printer, "nl-BE", nil)
	a.Assistant = appassistant.NewService(appassistant.Deps{
		Sessions:  persistence.NewGormChatSessionRepository(db),
		Knowledge: persistence.NewGormKnowledgeRepository(db),
		Dossiers:  dossiers,
		Documents: documents,
		Users:     a.Users,
		Provider:  a.AI,
		Markdown:  ai.NewMarkdownRenderer(),
	}, appassistant.Options{}, nil)
	a.Documents.SetIndexer(a.Assistant)
	a.Licenses = applicensing.NewService(persistence.NewGormLicenseRepository(db), tenants, licenseClient, a.Cache, applicensing.Options{}, nil)

	office, admin, err := a.Offices.Bootstrap(context.Background(), appidentity.BootstrapInput{
		Code:          OfficeCode,
		Name:          "Notariskantoor Peeters",
		Domain:        OfficeDomain,
		AdminUsername: AdminUsername,
		AdminPassword: AdminPassword,
		AdminEmail:    "admin@notaris-peeters.be",
	})
	require.NoError(t, err)
	a.Office, a.Admin = *office, *admin
	return a
}

// CreateUser adds an active member with role to the office.
func (a *App) CreateUser(t *testing.T, username string, role identity.Role) appidentity.UserDTO {
	t.Helper()
	u, err := a.UserService.Create(context.Background(), a.Office.ID, appidentity.CreateUserInput{
		Username:    username,
		Password:    AdminPassword,
		Email:       username + "@notaris-peeters.be",
		DisplayName: username,
		Role:        string(role),
	})
	require.NoError(t, err)
	return *u
}

// Claims returns access claims for u, as JWTAuth would store them.
func (a *App) Claims(u appidentity.UserDTO) *auth.Claims {
	role := identity.Role(u.Role)
	return &auth.Claims{
		TenantID:    u.TenantID.String(),
		TenantCode:  OfficeCode,
		UserID:      u.ID.String(),
		Username:    u.Username,
		Role:        u.Role,
		Permissions: role.Permissions(),
		TokenType:   auth.TokenTypeAccess,
	}
}

// Token issues an access token for u.
func (a *App) Token(t *testing.T, u appidentity.UserDTO) string {
	t.Helper()
	pair, err := a.JWT.GenerateTokenPair(auth.Subject{
		TenantID:    u.TenantID,
		TenantCode:  OfficeCode,
		UserID:      u.ID,
		Username:    u.Username,
		Role:        u.Role,
		Permissions: identity.Role(u.Role).Permissions(),
	})
	require.NoError(t, err)
	return pair.AccessToken
}

// ActivateLicense activates LicenseKey for the office.
func (a *App) ActivateLicense(t *testing.T) {
	t.Helper()
	_, err := a.Licenses.Activate(context.Background(), a.Office.ID, applicensing.ActivateRequest{
		Key:    LicenseKey,
		Domain: OfficeDomain,
	})
	require.NoError(t, err)
}

// LicenseServer is a scripted license server. By default it grants every
// feature to every role.
type LicenseServer struct {
	URL string

	mu       sync.Mutex
	features map[string][]string
	reject   bool
	calls    []string
}

// NewLicenseServer starts the server for the duration of the test.
func NewLicenseServer(t *testing.T) *LicenseServer {
	t.Helper()
	all := make([]string, 0, len(licensing.AllFeatures()))
	for _, f := range licensing.AllFeatures() {
		all = append(all, string(f))
	}
	ls := &LicenseServer{features: make(map[string][]string)}
	for _, r := range identity.AllRoles {
		ls.features[string(r)] = all
	}
	srv := httptest.NewServer(http.HandlerFunc(ls.serve))
	t.Cleanup(srv.Close)
	ls.URL = srv.URL
	return ls
}

// Grant replaces the features granted to role.
func (s *LicenseServer) Grant(role identity.Role, features ...licensing.Feature) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(features))
	for _, f := range features {
		keys = append(keys, string(f))
	}
	s.features[string(role)] = keys
}

// Reject makes the server refuse every key.
func (s *LicenseServer) Reject(reject bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reject = reject
}

// Calls returns the request paths received so far.
func (s *LicenseServer) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *LicenseServer) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.calls = append(s.calls, r.URL.Path)
	reject := s.reject
	features := make(map[string][]string, len(s.features))
	for k, v := range s.features {
		features[k] = v
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if reject {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{"code": "rejected", "message": "key revoked"})
		return
	}
	if r.URL.Path == "/v1/licenses/deactivate" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	until := time.Now().AddDate(1, 0, 0).UTC()
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":      "active",
		"edition":     "professional",
		"valid_until": until,
		"features":    features,
	})
}

// NewTenantID returns a random office id for isolation tests.
func NewTenantID() uuid.UUID { return uuid.New() }
