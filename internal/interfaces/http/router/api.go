package router

import (
	"github.com/gin-gonic/gin"
	"github.com/notaris/backend/internal/domain/identity"
	"github.com/notaris/backend/internal/domain/licensing"
	"github.com/notaris/backend/internal/infrastructure/config"
	"github.com/notaris/backend/internal/infrastructure/logger"
	"github.com/notaris/backend/internal/interfaces/http/handler"
	"github.com/notaris/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// UploadPath is exempt from the global body limit; it carries its own.
const UploadPath = "/api/v1/dossiers/:id/documents"

// Handlers bundles the HTTP handlers of the API.
type Handlers struct {
	Auth        *handler.AuthHandler
	Office      *handler.OfficeHandler
	User        *handler.UserHandler
	Dossier     *handler.DossierHandler
	Document    *handler.DocumentHandler
	Appointment *handler.AppointmentHandler
	Message     *handler.MessageHandler
	Invoice     *handler.InvoiceHandler
	Registry    *handler.RegistryHandler
	Assistant   *handler.AssistantHandler
	License     *handler.LicenseHandler
	Health      *handler.HealthHandler
}

// Options configures the middleware chain.
type Options struct {
	Logger   *zap.Logger
	HTTP     config.HTTPConfig
	CORS     middleware.CORSConfig
	Security middleware.SecurityConfig
	Tracing  middleware.TracingConfig
	// Metrics records request counts and latency. Nil disables it.
	Metrics       *middleware.HTTPMetrics
	Authenticator middleware.Authenticator
	// Features gates domain routes on the office license. Nil disables gating.
	Features middleware.FeatureChecker
	// Limiter throttles every request per client IP. Nil disables it.
	Limiter middleware.Limiter
	// AuthLimiter throttles login attempts per client IP. Nil disables it.
	AuthLimiter middleware.Limiter
}

// New builds the engine with the full middleware chain and every route.
func New(h Handlers, opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.Tracing(opts.Tracing),
		middleware.Metrics(opts.Metrics),
		middleware.Secure(opts.Security),
		middleware.CORS(opts.CORS),
		middleware.BodyLimitExcept(opts.HTTP.MaxBodySize, UploadPath),
	)
	if opts.Limiter != nil {
		engine.Use(middleware.RateLimit(opts.Limiter, middleware.ClientIPKey, log))
	}

	engine.GET("/health", h.Health.Check)

	r := NewRouter(engine, WithGroupMiddleware(
		middleware.JWTAuth(middleware.JWTConfig{
			Authenticator: opts.Authenticator,
			SkipPaths:     middleware.DefaultSkipPaths(),
			Logger:        log,
		}),
		middleware.SpanAttributes(),
	))
	b := routes{h: h, opts: opts, log: log}
	r.Register(
		NewDomainGroup("health", "/health").GET("", h.Health.Check),
		b.auth(),
		b.office(),
		b.users(),
		b.dossiers(),
		b.documents(),
		b.appointments(),
		b.messages(),
		b.invoices(),
		b.repertorium(),
		b.klapper(),
		b.assistant(),
		b.license(),
	)
	r.Setup()
	return engine
}

type routes struct {
	h    Handlers
	opts Options
	log  *zap.Logger
}

func (b routes) perm(permissions ...string) gin.HandlerFunc {
	return middleware.RequirePermission(b.log, permissions...)
}

func (b routes) feature(f licensing.Feature) gin.HandlerFunc {
	if b.opts.Features == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.RequireFeature(b.opts.Features, b.log, f)
}

func (b routes) auth() *DomainGroup {
	h := b.h.Auth
	login := []gin.HandlerFunc{h.Login}
	if b.opts.AuthLimiter != nil {
		limit := middleware.RateLimit(b.opts.AuthLimiter, func(c *gin.Context) string {
			return "login:" + c.ClientIP()
		}, b.log)
		login = append([]gin.HandlerFunc{limit}, login...)
	}
	return NewDomainGroup("auth", "/auth").
		POST("/login", login...).
		POST("/refresh", h.Refresh).
		POST("/logout", h.Logout).
		GET("/me", h.Me).
		PUT("/password", h.ChangePassword)
}

func (b routes) office() *DomainGroup {
	h := b.h.Office
	g := NewDomainGroup("office", "")
	g.GET("/office", b.perm(identity.PermOfficeRead), h.Get).
		PUT("/office", b.perm(identity.PermOfficeUpdate), h.Update).
		GET("/roles", b.perm(identity.PermUserRead), h.Roles)
	return g
}

func (b routes) users() *DomainGroup {
	h := b.h.User
	read, manage := b.perm(identity.PermUserRead), b.perm(identity.PermUserManage)
	return NewDomainGroup("users", "/users").
		GET("", read, h.List).
		POST("", manage, h.Create).
		GET("/:id", read, h.Get).
		PATCH("/:id", manage, h.Update).
		PUT("/:id/role", manage, h.ChangeRole).
		POST("/:id/activate", manage, h.Activate).
		POST("/:id/deactivate", manage, h.Deactivate).
		DELETE("/:id", manage, h.Delete)
}

func (b routes) dossiers() *DomainGroup {
	h := b.h.Dossier
	read, write := b.perm(identity.PermDossierRead), b.perm(identity.PermDossierWrite)
	g := NewDomainGroup("dossiers", "/dossiers").Use(b.feature(licensing.FeatureDossiers))
	g.GET("", read, h.List).
		POST("", write, h.Create).
		GET("/:id", read, h.Get).
		PUT("/:id", write, h.Update).
		PUT("/:id/status", write, h.ChangeStatus).
		DELETE("/:id", b.perm(identity.PermDossierDelete), h.Delete).
		POST("/:id/parties", write, h.AddParty).
		PUT("/:id/parties/:partyId", write, h.UpdateParty).
		DELETE("/:id/parties/:partyId", write, h.RemoveParty)

	docs := g.Group("dossier-documents", "/:id/documents").Use(b.feature(licensing.FeatureDocuments))
	docs.GET("", b.perm(identity.PermDocumentRead), h.ListDocuments).
		POST("", middleware.BodyLimit(b.opts.HTTP.UploadMaxBodySize), b.perm(identity.PermDocumentWrite), h.UploadDocument)
	return g
}

func (b routes) documents() *DomainGroup {
	h := b.h.Document
	read := b.perm(identity.PermDocumentRead)
	return NewDomainGroup("documents", "/documents").
		Use(b.feature(licensing.FeatureDocuments)).
		GET("/:id", read, h.Get).
		GET("/:id/download", read, h.Download).
		PATCH("/:id", b.perm(identity.PermDocumentWrite), h.Rename).
		DELETE("/:id", b.perm(identity.PermDocumentDelete), h.Delete)
}

func (b routes) appointments() *DomainGroup {
	h := b.h.Appointment
	read, write := b.perm(identity.PermAppointmentRead), b.perm(identity.PermAppointmentWrite)
	return NewDomainGroup("appointments", "/appointments").
		Use(b.feature(licensing.FeatureAppointments)).
		GET("", read, h.List).
		POST("", write, h.Schedule).
		GET("/:id", read, h.Get).
		PUT("/:id", write, h.Update).
		POST("/:id/reschedule", write, h.Reschedule).
		POST("/:id/confirm", write, h.Confirm).
		POST("/:id/cancel", write, h.Cancel).
		POST("/:id/complete", write, h.Complete).
		DELETE("/:id", write, h.Delete)
}

func (b routes) messages() *DomainGroup {
	h := b.h.Message
	read, write := b.perm(identity.PermMessageRead), b.perm(identity.PermMessageWrite)
	return NewDomainGroup("messages", "/messages").
		Use(b.feature(licensing.FeatureMessaging)).
		POST("", write, h.Send).
		GET("/inbox", read, h.Inbox).
		GET("/sent", read, h.Sent).
		GET("/unread-count", read, h.UnreadCount).
		GET("/threads/:threadId", read, h.Thread).
		GET("/:id", read, h.Get).
		POST("/:id/read", read, h.MarkRead).
		POST("/:id/reply", write, h.Reply).
		DELETE("/:id", write, h.Delete)
}

func (b routes) invoices() *DomainGroup {
	h := b.h.Invoice
	read, write, issue := b.perm(identity.PermInvoiceRead), b.perm(identity.PermInvoiceWrite), b.perm(identity.PermInvoiceIssue)
	return NewDomainGroup("invoices", "/invoices").
		Use(b.feature(licensing.FeatureInvoicing)).
		GET("", read, h.List).
		POST("", write, h.CreateDraft).
		GET("/:id", read, h.Get).
		PUT("/:id", write, h.UpdateDraft).
		DELETE("/:id", b.perm(identity.PermInvoiceDelete), h.Delete).
		POST("/:id/issue", issue, h.Issue).
		POST("/:id/pay", issue, h.MarkPaid).
		POST("/:id/cancel", issue, h.Cancel).
		GET("/:id/pdf", b.feature(licensing.FeaturePDFExport), read, h.PDF).
		POST("/:id/send", b.feature(licensing.FeatureEmail), issue, h.Send)
}

func (b routes) repertorium() *DomainGroup {
	h := b.h.Registry
	read, write := b.perm(identity.PermRepertoriumRead), b.perm(identity.PermRepertoriumWrite)
	return NewDomainGroup("repertorium", "/repertorium").
		Use(b.feature(licensing.FeatureRepertorium)).
		GET("", read, h.List).
		POST("", write, h.Record).
		GET("/pdf", b.feature(licensing.FeaturePDFExport), read, h.RepertoriumPDF).
		GET("/:id", read, h.Get).
		PUT("/:id/registration", write, h.UpdateRegistration).
		PUT("/:id/remarks", write, h.UpdateRemarks).
		POST("/:id/void", b.perm(identity.PermRepertoriumVoid), h.Void)
}

func (b routes) klapper() *DomainGroup {
	h := b.h.Registry
	read := b.perm(identity.PermKlapperRead)
	return NewDomainGroup("klapper", "/klapper").
		Use(b.feature(licensing.FeatureKlapper)).
		GET("", read, h.Klapper).
		GET("/pdf", b.feature(licensing.FeaturePDFExport), read, h.KlapperPDF)
}

func (b routes) assistant() *DomainGroup {
	h := b.h.Assistant
	use, index := b.perm(identity.PermAssistantUse), b.perm(identity.PermAssistantIndex)
	return NewDomainGroup("assistant", "/assistant").
		Use(b.feature(licensing.FeatureAssistant)).
		GET("/sessions", use, h.ListSessions).
		POST("/sessions", use, h.CreateSession).
		GET("/sessions/:id", use, h.GetSession).
		PATCH("/sessions/:id", use, h.RenameSession).
		DELETE("/sessions/:id", use, h.DeleteSession).
		POST("/sessions/:id/messages", use, h.Ask).
		GET("/usage", b.perm(identity.PermAssistantUsage), h.Usage).
		POST("/knowledge/documents/:id", index, h.IndexDocument).
		POST("/knowledge/dossiers/:id", index, h.IndexDossier).
		POST("/knowledge/notes", index, h.IndexNote)
}

func (b routes) license() *DomainGroup {
	h := b.h.License
	read, manage := b.perm(identity.PermLicenseRead), b.perm(identity.PermLicenseManage)
	return NewDomainGroup("license", "/license").
		GET("", read, h.Status).
		GET("/features", h.Features).
		POST("/activate", manage, h.Activate).
		POST("/verify", manage, h.Verify).
		DELETE("", manage, h.Deactivate).
		GET("/flags", read, h.ListFlags).
		PUT("/flags", manage, h.SetFlag)
}
