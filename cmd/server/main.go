package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appacq "github.com/dealership/backend/internal/application/acquisition"
	appfleet "github.com/dealership/backend/internal/application/fleet"
	"github.com/dealership/backend/internal/domain/billing"
	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/domain/workflow"
	"github.com/dealership/backend/internal/infrastructure/auth"
	"github.com/dealership/backend/internal/infrastructure/cache"
	"github.com/dealership/backend/internal/infrastructure/config"
	"github.com/dealership/backend/internal/infrastructure/event"
	csvimport "github.com/dealership/backend/internal/infrastructure/import"
	"github.com/dealership/backend/internal/infrastructure/logger"
	"github.com/dealership/backend/internal/infrastructure/payment"
	"github.com/dealership/backend/internal/infrastructure/persistence"
	"github.com/dealership/backend/internal/infrastructure/storage"
	"github.com/dealership/backend/internal/infrastructure/telemetry"
	"github.com/dealership/backend/internal/interfaces/http/handler"
	"github.com/dealership/backend/internal/interfaces/http/middleware"
	"github.com/dealership/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Dealership Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize distributed tracing. A disabled config yields a no-op
	// provider, so the rest of the wiring stays unconditional.
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Query spans attach to whatever request span is in the context.
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTracingEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        "postgresql",
	}, log)
	if err := dbTracing.Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// Initialize repositories
	carRepo := persistence.NewGormCarRepository(db.DB)
	bookingRepo := persistence.NewGormBookingRepository(db.DB)
	reservationRepo := persistence.NewGormReservationRepository(db.DB)
	purchaseRepo := persistence.NewGormPurchaseRepository(db.DB)
	loanRepo := persistence.NewGormLoanRequirementRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	transitionRepo := persistence.NewGormTransitionRecordRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Initialize payment gateway from config
	var gateway billing.PaymentGateway
	switch cfg.Payment.Provider {
	case "alipay":
		alipayCfg, err := payment.NewAlipayConfig(&cfg.Payment)
		if err != nil {
			log.Fatal("Failed to load Alipay configuration", zap.Error(err))
		}
		gateway, err = payment.NewAlipayGateway(alipayCfg)
		if err != nil {
			log.Fatal("Failed to initialize Alipay gateway", zap.Error(err))
		}
		log.Info("Payment gateway initialized", zap.String("provider", "alipay"), zap.Bool("sandbox", cfg.Payment.Sandbox))
	default:
		gateway = payment.NewStubGateway()
		log.Warn("Using stub payment gateway, payments are simulated", zap.String("provider", cfg.Payment.Provider))
	}

	// Initialize object storage for loan documents
	var docStorage appacq.ObjectStorageService
	if cfg.Storage.AccessKey != "" {
		s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage)
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		docStorage = s3Storage
		log.Info("Object storage initialized",
			zap.String("endpoint", cfg.Storage.Endpoint),
			zap.String("bucket", cfg.Storage.Bucket),
		)
	} else {
		docStorage = storage.NewStubObjectStorage()
		log.Warn("No storage credentials configured, using stub object storage")
	}

	// Idempotency store backs gateway callback deduplication and the
	// event handlers. Redis when enabled, in-memory otherwise.
	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log))
	idemStore, err := storeFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idemStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()
	idemConfig := shared.IdempotencyConfig{
		Enabled: cfg.Idempotency.Enabled,
		TTL:     cfg.Idempotency.TTL,
	}

	// Initialize event bus
	eventBus := event.NewInMemoryEventBus(log)

	// Workflow verdicts and sales fan out to customer notifications.
	// The idempotent wrapper keeps redelivered events from notifying twice.
	notificationHandler := event.NewIdempotentHandler(
		appacq.NewNotificationHandler(log),
		idemStore,
		log,
		event.WithIdempotencyConfig(idemConfig),
		event.WithIdempotencyMetrics(event.GlobalIdempotencyMetrics),
	)
	eventBus.Subscribe(notificationHandler, notificationHandler.EventTypes()...)

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Initialize workflow engine and application services
	coordinator := appfleet.NewAvailabilityCoordinator(log)
	engine := appacq.NewEngine(coordinator, gateway, log)

	importSessions := csvimport.NewInMemorySessionStore(cfg.Idempotency.TTL)
	defer importSessions.Stop()

	carService := appfleet.NewCarService(carRepo, eventBus, log)
	carImportService := appfleet.NewCarImportService(carRepo, eventBus, importSessions, log)
	bookingService := appacq.NewBookingService(txScope, engine, bookingRepo, carRepo, eventBus, log)
	reservationService := appacq.NewReservationService(txScope, engine, reservationRepo, carRepo, eventBus, log)
	purchaseService := appacq.NewPurchaseService(txScope, engine, purchaseRepo, carRepo, eventBus, log)
	loanService := appacq.NewLoanService(txScope, engine, loanRepo, reservationRepo, docStorage, eventBus, log)
	paymentService := appacq.NewPaymentService(txScope, engine, paymentRepo, gateway, idemStore, idemConfig, eventBus, log)
	financingService := appacq.NewFinancingService(carRepo, log)
	auditService := appacq.NewAuditService(transitionRepo, log)

	jwtService := auth.NewJWTService(cfg.JWT)

	// Initialize HTTP handlers
	carHandler := handler.NewCarHandler(carService, log)
	carImportHandler := handler.NewCarImportHandler(carImportService, log)
	bookingHandler := handler.NewBookingHandler(bookingService, log)
	reservationHandler := handler.NewReservationHandler(reservationService, log)
	purchaseHandler := handler.NewPurchaseHandler(purchaseService, log)
	loanHandler := handler.NewLoanHandler(loanService, log)
	paymentHandler := handler.NewPaymentHandler(paymentService, log)
	financingHandler := handler.NewFinancingHandler(financingService, log)
	auditHandler := handler.NewAuditHandler(auditService, log)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	ginEngine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := ginEngine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Tracing - Open the server span, mark error responses
	// 3. Recovery - Catch panics
	// 4. Logger - Log requests
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	// 8. RateLimit - Apply rate limiting (if enabled)
	ginEngine.Use(middleware.RequestID())
	ginEngine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	ginEngine.Use(middleware.SpanErrorMarker())
	ginEngine.Use(logger.Recovery(log))
	ginEngine.Use(logger.GinMiddleware(log))
	ginEngine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	ginEngine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	ginEngine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		ginEngine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	ginEngine.GET("/health", healthHandler(db, log))

	// Setup API routes using router
	r := router.NewRouter(ginEngine, router.WithAPIVersion("v1"))

	// Apply JWT authentication middleware to API routes. Public
	// endpoints (health, financing quotes, gateway callback) are
	// skipped by the default config.
	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.Logger = log
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Re-enrich server spans now that the actor is resolved.
	r.Use(middleware.TracingAttributeInjector())

	staffOnly := middleware.RequireRoles(workflow.RoleStaff, workflow.RoleAdmin)

	// Fleet domain (car catalog). Catalog management is staff work,
	// browsing is open to every authenticated actor.
	fleetRoutes := router.NewDomainGroup("fleet", "/cars")
	fleetRoutes.GET("", carHandler.ListCars)
	fleetRoutes.GET("/:id", carHandler.GetCar)
	fleetRoutes.POST("", staffOnly, carHandler.CreateCar)
	fleetRoutes.PUT("/:id", staffOnly, carHandler.UpdateCar)
	fleetRoutes.POST("/import", staffOnly, carImportHandler.ImportCars)
	fleetRoutes.GET("/import/:sessionId", staffOnly, carImportHandler.GetImportSession)

	// Booking domain (test drive appointments)
	bookingRoutes := router.NewDomainGroup("booking", "/bookings")
	bookingRoutes.POST("", bookingHandler.CreateBooking)
	bookingRoutes.GET("", bookingHandler.ListBookings)
	bookingRoutes.GET("/:id", bookingHandler.GetBooking)
	bookingRoutes.POST("/:id/confirm", bookingHandler.ConfirmBooking)
	bookingRoutes.POST("/:id/complete", bookingHandler.CompleteBooking)
	bookingRoutes.POST("/:id/cancel", bookingHandler.CancelBooking)
	bookingRoutes.POST("/:id/assign-staff", bookingHandler.AssignStaff)

	// Reservation domain (deposit and loan backed purchases)
	reservationRoutes := router.NewDomainGroup("reservation", "/reservations")
	reservationRoutes.POST("", reservationHandler.CreateReservation)
	reservationRoutes.GET("", reservationHandler.ListReservations)
	reservationRoutes.GET("/:id", reservationHandler.GetReservation)
	reservationRoutes.POST("/:id/pay", reservationHandler.PayReservation)
	reservationRoutes.POST("/:id/acquire", reservationHandler.AcquireReservation)
	reservationRoutes.POST("/:id/cancel", reservationHandler.CancelReservation)
	reservationRoutes.GET("/:id/loan", loanHandler.GetLoanByReservation)

	// Purchase domain (outright full price purchases)
	purchaseRoutes := router.NewDomainGroup("purchase", "/purchases")
	purchaseRoutes.POST("", purchaseHandler.CreatePurchase)
	purchaseRoutes.GET("", purchaseHandler.ListPurchases)
	purchaseRoutes.GET("/:id", purchaseHandler.GetPurchase)
	purchaseRoutes.POST("/:id/pay", purchaseHandler.PayPurchase)
	purchaseRoutes.POST("/:id/cancel", purchaseHandler.CancelPurchase)

	// Loan review domain
	loanRoutes := router.NewDomainGroup("loan", "/loans")
	loanRoutes.GET("/:id", loanHandler.GetLoan)
	loanRoutes.POST("/:id/documents/upload-url", loanHandler.GenerateUploadURL)
	loanRoutes.POST("/:id/documents", loanHandler.SubmitDocuments)
	loanRoutes.GET("/:id/documents/:documentId/download-url", loanHandler.GetDocumentDownloadURL)
	loanRoutes.POST("/:id/approve", loanHandler.ApproveLoan)
	loanRoutes.POST("/:id/reject", loanHandler.RejectLoan)

	// Payment domain. The callback route is reached without a token,
	// the gateway signature is the credential there.
	paymentRoutes := router.NewDomainGroup("payment", "/payments")
	paymentRoutes.GET("", paymentHandler.ListPayments)
	paymentRoutes.GET("/:id", paymentHandler.GetPayment)
	paymentRoutes.POST("/:id/cancel", paymentHandler.CancelPayment)
	paymentRoutes.POST("/:id/refund", paymentHandler.RequestRefund)
	paymentRoutes.POST("/:id/refund/approve", paymentHandler.ApproveRefund)
	paymentRoutes.POST("/:id/refund/deny", paymentHandler.DenyRefund)
	paymentRoutes.POST("/callback", paymentHandler.Callback)

	// Financing quotes (public, pure calculation)
	financingRoutes := router.NewDomainGroup("financing", "/financing")
	financingRoutes.GET("/quote", financingHandler.Quote)

	// Audit trail
	auditRoutes := router.NewDomainGroup("audit", "/audit")
	auditRoutes.GET("/:kind/:id/history", auditHandler.History)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)

	// Register all domain groups
	r.Register(fleetRoutes).
		Register(bookingRoutes).
		Register(reservationRoutes).
		Register(purchaseRoutes).
		Register(loanRoutes).
		Register(paymentRoutes).
		Register(financingRoutes).
		Register(auditRoutes).
		Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Lightweight liveness probe inside the API version prefix
	ginEngine.GET("/api/v1/health", systemHandler.Health)

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        ginEngine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
