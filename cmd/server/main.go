package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	bookingapp "github.com/stephanos-estetic/backend/internal/application/booking"
	cartapp "github.com/stephanos-estetic/backend/internal/application/cart"
	catalogapp "github.com/stephanos-estetic/backend/internal/application/catalog"
	contactapp "github.com/stephanos-estetic/backend/internal/application/contact"
	donationapp "github.com/stephanos-estetic/backend/internal/application/donation"
	identityapp "github.com/stephanos-estetic/backend/internal/application/identity"
	"github.com/stephanos-estetic/backend/internal/application/media"
	paymentapp "github.com/stephanos-estetic/backend/internal/application/payment"
	salesapp "github.com/stephanos-estetic/backend/internal/application/sales"
	"github.com/stephanos-estetic/backend/internal/domain/cart"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
	"github.com/stephanos-estetic/backend/internal/infrastructure/auth"
	"github.com/stephanos-estetic/backend/internal/infrastructure/cache"
	"github.com/stephanos-estetic/backend/internal/infrastructure/calendar"
	"github.com/stephanos-estetic/backend/internal/infrastructure/config"
	"github.com/stephanos-estetic/backend/internal/infrastructure/event"
	"github.com/stephanos-estetic/backend/internal/infrastructure/logger"
	infrapayment "github.com/stephanos-estetic/backend/internal/infrastructure/payment"
	"github.com/stephanos-estetic/backend/internal/infrastructure/persistence"
	"github.com/stephanos-estetic/backend/internal/infrastructure/printing"
	"github.com/stephanos-estetic/backend/internal/infrastructure/storage"
	"github.com/stephanos-estetic/backend/internal/infrastructure/telemetry"
	"github.com/stephanos-estetic/backend/internal/interfaces/http/handler"
	"github.com/stephanos-estetic/backend/internal/interfaces/http/middleware"
	"github.com/stephanos-estetic/backend/internal/interfaces/http/router"
	"go.uber.org/zap"

	_ "github.com/stephanos-estetic/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Stephanos Estetic API
//	@version		1.0
//	@description	Storefront API for the Stephanos Estetic beauty shop: catalog, cart, checkout, bookings, payments and contact.

//	@contact.name	Stephanos Estetic
//	@contact.email	contacto@stephanosestetic.cl

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx := context.Background()
	logCfg := logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output}
	log := logger.New(logCfg)

	// OpenTelemetry log bridge wraps the base logger when enabled
	logsProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	log = logsProvider.Bridge(log, logger.ParseLevel(cfg.Log.Level))
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Stephanos Estetic backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Tracing, metrics and profiling are all off unless configured
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.PyroscopeAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if cfg.Telemetry.ProfilingEnabled {
		tracerProvider.EnableSpanProfiles()
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down metrics", zap.Error(err))
		}
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracing", zap.Error(err))
		}
		if err := logsProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down log exporter", zap.Error(err))
		}
	}()

	// Database with zap-backed GORM logging
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
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

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	dbTracing.DBName = cfg.Database.DBName
	if err := telemetry.RegisterDBTracing(db.DB, dbTracing, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	dbMetrics, err := telemetry.RegisterDBMetrics(ctx, db.DB, meterProvider, telemetry.DefaultDBMetricsConfig(), log)
	if err != nil {
		log.Fatal("Failed to register database metrics", zap.Error(err))
	}
	if dbMetrics != nil {
		defer dbMetrics.Stop()
	}

	// Redis backs the token blacklist, event idempotency and optionally carts.
	// Outside production the in-memory fallbacks keep a single instance usable.
	cacheFactory := cache.NewFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.App.IsProduction()),
	)
	defer func() {
		if err := cacheFactory.Close(); err != nil {
			log.Error("Error closing Redis client", zap.Error(err))
		}
	}()

	checks := map[string]handler.Pinger{"database": db}
	var blacklist auth.TokenBlacklist
	redisClient, err := cacheFactory.Client(ctx)
	switch {
	case err == nil:
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
		checks["redis"] = redisPinger{client: redisClient}
	case cfg.App.IsProduction():
		log.Fatal("Redis is required in production", zap.Error(err))
	default:
		if !errors.Is(err, cache.ErrRedisDisabled) {
			log.Warn("Redis unavailable, using in-memory token blacklist", zap.Error(err))
		}
		blacklist = auth.NewInMemoryTokenBlacklist()
	}

	idempotencyStore, err := cacheFactory.IdempotencyStore(ctx)
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}
	defer func() { _ = idempotencyStore.Close() }()

	var cartStore cart.Store = persistence.NewGormCartStore(db.DB)
	if strings.EqualFold(cfg.Cart.Store, "redis") {
		redisCarts, err := cacheFactory.CartStore(ctx, cfg.Cart)
		if err != nil {
			log.Fatal("Failed to initialize cart store", zap.Error(err))
		}
		cartStore = redisCarts
	}
	log.Info("Cart store selected", zap.String("store", cfg.Cart.Store))

	shipping := cart.ShippingPolicy{
		Fee:       decimal.NewFromInt(cfg.Cart.ShippingFee),
		FreeAbove: decimal.NewFromInt(cfg.Cart.FreeShippingAbove),
	}

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	intentRepo := persistence.NewGormIntentRepository(db.DB)
	serviceRepo := persistence.NewGormServiceRepository(db.DB)
	slotRepo := persistence.NewGormSlotRepository(db.DB)
	bookingRepo := persistence.NewGormBookingRepository(db.DB)
	donationRepo := persistence.NewGormDonationRepository(db.DB)
	messageRepo := persistence.NewGormMessageRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Event bus
	eventBus := event.NewInMemoryEventBus(log)

	// Payment providers
	gateways, err := infrapayment.NewGateways(cfg.Payment, cfg.App.IsProduction(), log)
	if err != nil {
		log.Fatal("Failed to initialize payment providers", zap.Error(err))
	}
	paymentService, err := paymentapp.NewPaymentService(intentRepo, orderRepo, gateways, paymentapp.Config{
		Provider:  cfg.Payment.Provider,
		ReturnURL: strings.TrimRight(cfg.App.PublicURL, "/") + "/api/v1/payments/return",
		ResultURL: strings.TrimRight(cfg.App.FrontendURL, "/") + "/pago/resultado",
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize payment service", zap.Error(err))
	}
	paymentService.SetEventPublisher(eventBus)
	paymentService.SetBookingRepositories(bookingRepo, serviceRepo)

	// Application services
	productService := catalogapp.NewProductService(productRepo, log)
	cartService := cartapp.NewCartService(cartStore, productRepo, shipping, log)

	receipts := printing.NewReceiptRenderer(cfg.Receipt, log)
	orderService := salesapp.NewOrderService(orderRepo, txScope, receipts, log)
	orderService.SetEventPublisher(eventBus)

	checkoutService := salesapp.NewCheckoutService(txScope, cartService, userRepo, paymentService, shipping, log)
	checkoutService.SetEventPublisher(eventBus)

	bookingService := bookingapp.NewBookingService(serviceRepo, slotRepo, bookingRepo, log)
	bookingService.SetEventPublisher(eventBus)

	donationService := donationapp.NewDonationService(donationRepo, log)
	contactService := contactapp.NewContactService(messageRepo, log)

	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, identityapp.AuthServiceConfig{
		MaxLoginAttempts: cfg.Auth.MaxLoginAttempts,
		LockDuration:     cfg.Auth.LockDuration,
	}, log)
	authService.SetCartMerger(cartService)
	profileService := identityapp.NewProfileService(userRepo, blacklist, cfg.JWT.RefreshTokenExpiration, log)

	// Image uploads go to S3 when configured. Development falls back to a stub
	// that hands out local URLs; production without storage disables uploads.
	var uploads *media.UploadService
	switch {
	case cfg.Storage.Enabled:
		objectStorage, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		if err := objectStorage.EnsureBucket(ctx); err != nil {
			log.Warn("Object storage bucket check failed", zap.Error(err))
		}
		uploads = media.NewUploadService(objectStorage, cfg.Storage.PresignExpiration)
	case !cfg.App.IsProduction():
		stub := storage.NewStubObjectStorage(strings.TrimRight(cfg.App.PublicURL, "/") + "/uploads")
		uploads = media.NewUploadService(stub, cfg.Storage.PresignExpiration)
	default:
		log.Warn("Object storage disabled, image uploads are unavailable")
	}

	// Business metrics
	var businessMetrics *telemetry.BusinessMetrics
	if cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled {
		businessMetrics, err = telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:             meterProvider.Meter("stephanos-estetic/business"),
			Logger:            log,
			CollectInterval:   cfg.Telemetry.MetricsInterval,
			LowStockThreshold: 5,
			Stats:             telemetry.NewGormShopStatsProvider(db.DB),
		})
		if err != nil {
			log.Fatal("Failed to initialize business metrics", zap.Error(err))
		}
		checkoutService.SetMetrics(businessMetrics)
		bookingService.SetMetrics(businessMetrics)
		paymentService.SetMetrics(businessMetrics)
		businessMetrics.StartPeriodicCollection(ctx)
		defer businessMetrics.Stop()
	}

	// Event handlers, deduplicated across replicas through the idempotency store
	eventHandlers := []shared.EventHandler{
		salesapp.NewPaymentSucceededHandler(orderService, log),
		salesapp.NewPaymentFailedHandler(log),
		bookingapp.NewPaymentSucceededHandler(bookingService, log),
		bookingapp.NewCalendarHandler(calendar.NewGoogleCalendar(cfg.Calendar, log), log),
		donationapp.NewPaymentSucceededHandler(donationService, log),
	}
	for _, h := range event.WrapHandlersWithIdempotency(eventHandlers, idempotencyStore, log) {
		eventBus.Subscribe(h)
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()
	log.Info("Event bus started", zap.Int("handlers", len(eventHandlers)))

	// HTTP engine
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

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
	securityConfig := middleware.DefaultSecurityConfig()
	securityConfig.HSTSEnabled = cfg.App.IsProduction()

	profilingConfig := middleware.DefaultProfilingConfig()
	profilingConfig.Enabled = cfg.Telemetry.ProfilingEnabled

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.SpanEnricher(),
		logger.GinMiddleware(log),
		middleware.HTTPMetrics(meterProvider, log),
		middleware.ProfilingWithConfig(profilingConfig),
		middleware.SecureWithConfig(securityConfig),
		middleware.CORSWithConfig(corsConfig),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Stop()
		engine.Use(middleware.RateLimit(limiter))
	}

	// Credential and contact endpoints get their own, tighter budgets
	var authRateLimit, contactRateLimit gin.HandlerFunc
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		defer authLimiter.Stop()
		authRateLimit = middleware.RateLimit(authLimiter)

		contactLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		defer contactLimiter.Stop()
		contactRateLimit = middleware.RateLimit(contactLimiter)
	}

	if cfg.Swagger.Enabled {
		engine.GET("/swagger/*any",
			middleware.SwaggerProtection(middleware.SwaggerConfig{
				Enabled:    cfg.Swagger.Enabled,
				AllowedIPs: cfg.Swagger.AllowedIPs,
			}),
			ginSwagger.WrapHandler(swaggerFiles.Handler),
		)
	}

	cartTTL := cfg.Cart.TTL
	handlers := router.Handlers{
		System:   handler.NewSystemHandler(cfg.App.Name, version, checks),
		Auth:     handler.NewAuthHandler(authService, cfg.Cookie, cfg.Cart.CookieName),
		Profile:  handler.NewProfileHandler(profileService),
		Product:  handler.NewProductHandler(productService, uploads),
		Cart:     handler.NewCartHandler(cartService, cfg.Cookie, cfg.Cart.CookieName, cartTTL),
		Booking:  handler.NewBookingHandler(bookingService),
		Order:    handler.NewOrderHandler(checkoutService, orderService, cfg.Cart.CookieName),
		Payment:  handler.NewPaymentHandler(paymentService),
		Contact:  handler.NewContactHandler(contactService),
		Donation: handler.NewDonationHandler(donationService),
	}

	jwtConfig := middleware.JWTMiddlewareConfig{JWTService: jwtService, TokenBlacklist: blacklist, Logger: log}
	routes := router.Mount(router.NewRouter(engine, router.WithAPIVersion("v1")), handlers, router.Guards{
		RequireAuth:      middleware.RequireAuth(jwtConfig),
		OptionalAuth:     middleware.OptionalAuth(jwtConfig),
		RequireStaff:     middleware.RequireStaff(),
		AuthRateLimit:    authRateLimit,
		ContactRateLimit: contactRateLimit,
	})
	log.Info("Routes registered", zap.Int("count", len(routes)))

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in a goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

// redisPinger adapts the Redis client to the readiness check
type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
