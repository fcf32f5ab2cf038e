package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	appappointment "github.com/notaris/backend/internal/application/appointment"
	appassistant "github.com/notaris/backend/internal/application/assistant"
	appdossier "github.com/notaris/backend/internal/application/dossier"
	appidentity "github.com/notaris/backend/internal/application/identity"
	appinvoicing "github.com/notaris/backend/internal/application/invoicing"
	applicensing "github.com/notaris/backend/internal/application/licensing"
	appmessaging "github.com/notaris/backend/internal/application/messaging"
	appregistry "github.com/notaris/backend/internal/application/registry"
	"github.com/notaris/backend/internal/domain/licensing"
	"github.com/notaris/backend/internal/infrastructure/ai"
	"github.com/notaris/backend/internal/infrastructure/auth"
	"github.com/notaris/backend/internal/infrastructure/cache"
	"github.com/notaris/backend/internal/infrastructure/config"
	"github.com/notaris/backend/internal/infrastructure/license"
	"github.com/notaris/backend/internal/infrastructure/logger"
	"github.com/notaris/backend/internal/infrastructure/mail"
	"github.com/notaris/backend/internal/infrastructure/persistence"
	"github.com/notaris/backend/internal/infrastructure/printing"
	"github.com/notaris/backend/internal/infrastructure/scheduler"
	"github.com/notaris/backend/internal/infrastructure/storage"
	"github.com/notaris/backend/internal/infrastructure/telemetry"
	"github.com/notaris/backend/internal/interfaces/http/handler"
	"github.com/notaris/backend/internal/interfaces/http/middleware"
	"github.com/notaris/backend/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

//	@title			Notaris Backend API
//	@version		1.0
//	@description	Back office of a notary office: dossiers, agenda, invoicing, registers and assistant.

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, logCloser := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	defer func() {
		_ = log.Sync()
		_ = logCloser.Close()
	}()

	log.Info("Starting notaris backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	lp, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	defer func() { _ = lp.Shutdown(context.Background()) }()
	log = lp.Bridge(log, logger.ParseLevel(cfg.Telemetry.LogsLevel))

	mp, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	defer func() { _ = mp.Shutdown(context.Background()) }()

	profiler, err := telemetry.NewProfiler(cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() { _ = profiler.Stop() }()
	if profiler.IsEnabled() && cfg.Telemetry.ProfilingSpanProfiles {
		tp.EnableSpanProfiles()
	}

	meter := mp.Meter("github.com/notaris/backend")
	businessMetrics, err := telemetry.NewBusinessMetrics(meter)
	if err != nil {
		log.Fatal("Failed to register business metrics", zap.Error(err))
	}
	httpMetrics, err := middleware.NewHTTPMetrics(meter)
	if err != nil {
		log.Fatal("Failed to register HTTP metrics", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Database.SlowThreshold,
		DBName:          cfg.Database.DBName,
	}, log).Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected")

	checks := map[string]handler.CheckFunc{"database": db.Ping}

	// Redis backs token revocation, the shared license cache and rate
	// limits. Without it everything stays in process.
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() { _ = redisClient.Close() }()
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	l1 := cache.NewInMemoryLicenseCache(cfg.License.CacheTTL, log)
	defer func() { _ = l1.Close() }()
	var featureCache licensing.FeatureCache = l1

	subCtx, stopSubscriber := context.WithCancel(ctx)
	defer stopSubscriber()
	if redisClient != nil {
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
		shared := cache.NewRedisLicenseCache(redisClient, cfg.License.CacheTTL, log)
		tiered := cache.NewTieredLicenseCache(l1, shared, time.Minute, log)
		featureCache = tiered
		go func() {
			if err := shared.Subscribe(subCtx, tiered.DropLocal); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("License invalidation subscriber stopped", zap.Error(err))
			}
		}()
	}

	objects, err := newObjectStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	renderer, err := printing.NewRenderer(cfg.Printing, log)
	if err != nil {
		log.Fatal("Failed to initialize PDF renderer", zap.Error(err))
	}
	defer func() { _ = renderer.Close() }()
	paper, err := printing.ParsePaperSize(cfg.Printing.PageSize)
	if err != nil {
		log.Fatal("Invalid paper size", zap.Error(err))
	}
	templates, err := printing.NewTemplateEngine(cfg.App.Locale)
	if err != nil {
		log.Fatal("Failed to load print templates", zap.Error(err))
	}
	printer := printing.NewDocumentPrinter(templates, renderer, paper)

	mailer, err := mail.NewSender(cfg.SMTP, log)
	if err != nil {
		log.Fatal("Failed to initialize mail", zap.Error(err))
	}

	provider, err := ai.NewProvider(cfg.AI, log)
	if err != nil {
		log.Fatal("Failed to initialize assistant provider", zap.Error(err))
	}
	prices, err := ai.NewPriceTable(cfg.AI)
	if err != nil {
		log.Fatal("Invalid assistant pricing", zap.Error(err))
	}

	licenseClient, err := license.NewClient(cfg.License, log)
	if err != nil {
		log.Fatal("Failed to initialize license client", zap.Error(err))
	}

	// Repositories
	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	dossierRepo := persistence.NewGormDossierRepository(db.DB)
	documentRepo := persistence.NewGormDocumentRepository(db.DB)

	// Services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := appidentity.NewAuthService(tenantRepo, userRepo, jwtService, blacklist, log)
	officeService := appidentity.NewOfficeService(tenantRepo, userRepo, log)
	roleService := appidentity.NewRoleService(userRepo)
	userService := appidentity.NewUserService(userRepo, blacklist, cfg.JWT.RefreshTokenExpiration, log)
	dossierService := appdossier.NewService(dossierRepo, userRepo, log)
	documentService := appdossier.NewDocumentService(dossierRepo, documentRepo, objects, log)
	appointmentService := appappointment.NewService(persistence.NewGormAppointmentRepository(db.DB), userRepo, mailer, log)
	messageService := appmessaging.NewService(persistence.NewGormMessageRepository(db.DB), userRepo, mailer, log)
	invoiceService := appinvoicing.NewService(persistence.NewGormInvoiceRepository(db.DB), tenantRepo, printer, mailer, log)
	registryService := appregistry.NewService(persistence.NewGormRegistryRepository(db.DB), userRepo, tenantRepo, printer, cfg.App.Locale, log)
	assistantService := appassistant.NewService(appassistant.Deps{
		Sessions:  persistence.NewGormChatSessionRepository(db.DB),
		Knowledge: persistence.NewGormKnowledgeRepository(db.DB),
		Dossiers:  dossierRepo,
		Documents: documentRepo,
		Users:     userRepo,
		Provider:  provider,
		Prices:    prices,
		Markdown:  ai.NewMarkdownRenderer(),
	}, appassistant.Options{
		Model:        cfg.AI.Model,
		Temperature:  cfg.AI.Temperature,
		MaxTokens:    cfg.AI.MaxTokens,
		ChunkSize:    cfg.AI.ChunkSize,
		ChunkOverlap: cfg.AI.ChunkOverlap,
		TopK:         cfg.AI.TopK,
	}, log)
	documentService.SetIndexer(assistantService)
	licenseService := applicensing.NewService(persistence.NewGormLicenseRepository(db.DB), tenantRepo, licenseClient, featureCache,
		applicensing.Options{CacheTTL: cfg.License.CacheTTL, GracePeriod: cfg.License.GracePeriod}, log)

	invoiceService.SetMetrics(businessMetrics)
	registryService.SetMetrics(businessMetrics)
	documentService.SetMetrics(businessMetrics)
	assistantService.SetMetrics(businessMetrics)
	licenseService.SetMetrics(businessMetrics)

	if cfg.License.VerifyInterval > 0 {
		schedCfg := scheduler.DefaultLicenseSchedulerConfig()
		schedCfg.Interval = cfg.License.VerifyInterval
		licenseScheduler, err := scheduler.NewLicenseScheduler(licenseService, log, schedCfg)
		if err != nil {
			log.Fatal("Invalid license scheduler configuration", zap.Error(err))
		}
		if err := licenseScheduler.Start(ctx); err != nil {
			log.Fatal("Failed to start license scheduler", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = licenseScheduler.Stop(stopCtx)
		}()
	}

	handlers := router.Handlers{
		Auth:        handler.NewAuthHandler(authService, cfg.Cookie),
		Office:      handler.NewOfficeHandler(officeService, roleService),
		User:        handler.NewUserHandler(userService),
		Dossier:     handler.NewDossierHandler(dossierService, documentService),
		Document:    handler.NewDocumentHandler(documentService),
		Appointment: handler.NewAppointmentHandler(appointmentService),
		Message:     handler.NewMessageHandler(messageService),
		Invoice:     handler.NewInvoiceHandler(invoiceService),
		Registry:    handler.NewRegistryHandler(registryService),
		Assistant:   handler.NewAssistantHandler(assistantService),
		License:     handler.NewLicenseHandler(licenseService),
		Health:      handler.NewHealthHandler(checks),
	}

	opts := router.Options{
		Logger:        log,
		HTTP:          cfg.HTTP,
		CORS:          middleware.CORSConfigFromHTTP(cfg.HTTP),
		Security:      middleware.DefaultSecurityConfig(),
		Tracing:       middleware.TracingConfig{ServiceName: cfg.Telemetry.ServiceName, Enabled: tp.IsEnabled(), SkipPaths: []string{"/health"}},
		Metrics:       httpMetrics,
		Authenticator: authService,
		Features:      licenseService,
	}
	if cfg.HTTP.RateLimitEnabled {
		opts.Limiter = newLimiter(redisClient, "notaris:ratelimit:api:", cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
	}
	if cfg.HTTP.AuthRateLimitEnabled {
		opts.AuthLimiter = newLimiter(redisClient, "notaris:ratelimit:login:", cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
	}

	engine := router.New(handlers, opts)
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")
	stopSubscriber()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func newObjectStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (appdossier.ObjectStorage, error) {
	if cfg.Storage.Driver != "s3" {
		log.Warn("Using in-memory document storage; uploads are lost on restart")
		return storage.NewStubObjectStorage(cfg.Storage.PublicBaseURL), nil
	}
	s3, err := storage.NewS3ObjectStorage(&cfg.Storage, log)
	if err != nil {
		return nil, err
	}
	ensureCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := s3.EnsureBucket(ensureCtx); err != nil {
		return nil, err
	}
	log.Info("Object storage ready", zap.String("bucket", s3.Bucket()))
	return s3, nil
}

func newLimiter(client *redis.Client, prefix string, limit int, window time.Duration) middleware.Limiter {
	if client != nil {
		return middleware.NewRedisRateLimiter(client, prefix, limit, window)
	}
	return middleware.NewRateLimiter(limit, window)
}
