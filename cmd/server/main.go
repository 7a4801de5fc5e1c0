package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ledgerapp "github.com/foodops/backoffice/internal/application/cardledger"
	financeapp "github.com/foodops/backoffice/internal/application/finance"
	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/foodops/backoffice/internal/infrastructure/cache"
	"github.com/foodops/backoffice/internal/infrastructure/config"
	"github.com/foodops/backoffice/internal/infrastructure/event"
	"github.com/foodops/backoffice/internal/infrastructure/logger"
	"github.com/foodops/backoffice/internal/infrastructure/persistence"
	"github.com/foodops/backoffice/internal/infrastructure/telemetry"
	"github.com/foodops/backoffice/internal/interfaces/http/handler"
	"github.com/foodops/backoffice/internal/interfaces/http/middleware"
	"github.com/foodops/backoffice/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	_ "github.com/foodops/backoffice/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const serviceVersion = "1.0.0"

//	@title			Card Ledger API
//	@version		1.0
//	@description	Credit card expenses, invoices and the bank ledger and payables they settle against.

//	@contact.name	Back-office team
//	@contact.url	https://github.com/foodops/backoffice

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@externalDocs.description	OpenAPI
//	@externalDocs.url			https://swagger.io/resources/open-api/

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = baseLog.Sync() }()

	ctx := context.Background()

	// Telemetry providers stay no-op when disabled
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = logProvider.Shutdown(shutdownCtx)
		_ = meterProvider.Shutdown(shutdownCtx)
		_ = tracerProvider.Shutdown(shutdownCtx)
	}()

	log := baseLog
	if logProvider.IsEnabled() {
		log = logProvider.Bridge(baseLog, logger.ParseLevel(cfg.Telemetry.LogsLevel))
	}

	log.Info("Starting card ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.Bool("tracing", tracerProvider.IsEnabled()),
		zap.Bool("metrics", meterProvider.IsEnabled()),
	)

	// Create GORM logger backed by zap
	var gormOpts []logger.GormLoggerOption
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		gormOpts = append(gormOpts, logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	}
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), gormOpts...)

	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.DefaultDBTracingConfig()
		dbTracing.Enabled = true
		dbTracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
		if cfg.Telemetry.DBSlowQueryThresh > 0 {
			dbTracing.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
		}
		dbTracing.DBName = cfg.Database.DBName
		if err := db.Use(telemetry.NewDBTracingPlugin(dbTracing, log)); err != nil {
			log.Warn("Failed to enable database tracing", zap.Error(err))
		}
	}
	log.Info("Database connected successfully")

	idempotencyStore, err := cache.NewIdempotencyStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}
	defer func() { _ = idempotencyStore.Close() }()

	// Event bus with the audit trail; the idempotent wrapper drops redelivered events
	eventBus := event.NewInMemoryEventBus(log)
	audit := event.NewIdempotentHandler(
		event.NewLedgerAuditHandler(log),
		idempotencyStore,
		shared.DefaultIdempotencyConfig(),
		log,
	)
	eventBus.Subscribe(audit, audit.EventTypes()...)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() { _ = eventBus.Stop(context.Background()) }()

	ledgerMetrics, err := telemetry.NewLedgerMetrics(meterProvider.Meter("card_ledger"))
	if err != nil {
		log.Warn("Ledger metrics disabled", zap.Error(err))
	}

	// Initialize application services
	repos := persistence.RepositoriesFor(db.DB)
	ledgerService := ledgerapp.NewService(
		persistence.NewGormUnitOfWork(db.DB),
		repos,
		ledgerapp.WithEventPublisher(eventBus),
		ledgerapp.WithMetrics(ledgerMetrics),
		ledgerapp.WithLogger(log),
		ledgerapp.WithPayableOnClose(cfg.Ledger.CreatePayableOnClose, cfg.Ledger.PayableDueDays),
	)
	financeService := financeapp.NewFinanceService(repos.BankAccounts, repos.BankTransactions, repos.Payables)

	handlers := router.Handlers{
		Cards:    handler.NewCardHandler(ledgerService),
		Expenses: handler.NewCardExpenseHandler(ledgerService),
		Invoices: handler.NewCardInvoiceHandler(ledgerService),
		Finance:  handler.NewFinanceHandler(financeService),
		System:   handler.NewSystemHandler(cfg.App.Name, serviceVersion, db),
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order:
	// 1. RequestID - generate/propagate request ID
	// 2. Tracing - root span for the request
	// 3. Recovery - catch panics
	// 4. Logger - request log line with request and tenant ids
	// 5. Secure, CORS, BodyLimit
	engine.Use(middleware.RequestID())
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", handlers.System.Health)

	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:    cfg.Swagger.Enabled,
			AllowedIPs: cfg.Swagger.AllowedIPs,
		}),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	tenantConfig := middleware.DefaultTenantConfig()
	if cfg.HTTP.DefaultTenantID != "" {
		tenantConfig.DefaultTenantID, err = uuid.Parse(cfg.HTTP.DefaultTenantID)
		if err != nil {
			log.Fatal("Invalid default tenant id", zap.String("value", cfg.HTTP.DefaultTenantID), zap.Error(err))
		}
	}

	apiMiddleware := []gin.HandlerFunc{
		middleware.Tenant(tenantConfig),
		middleware.SpanAttributes(),
	}
	if cfg.Idempotency.Enabled {
		apiMiddleware = append(apiMiddleware, middleware.Idempotency(idempotencyStore, cfg.Idempotency.TTL))
	}

	r := router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithAPIMiddleware(apiMiddleware...),
	)
	r.Register(router.LedgerGroups(handlers)...)
	r.Setup()

	for _, route := range r.Routes() {
		log.Debug("Route registered", zap.String("method", route.Method), zap.String("path", route.Path))
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

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownTimeout := cfg.HTTP.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully",
		zap.Int64("dropped_events", eventBus.Dropped()),
	)
}
