package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"facility-booking/config"
	deliveryHttp "facility-booking/internal/delivery/http"
	"facility-booking/internal/delivery/http/handler"
	"facility-booking/internal/delivery/http/middleware"
	"facility-booking/internal/infrastructure/cache"
	"facility-booking/internal/infrastructure/database"
	"facility-booking/internal/metrics"
	"facility-booking/internal/repository"
	"facility-booking/internal/service"
	"facility-booking/internal/usecase"
	"facility-booking/pkg/jwt"
	"facility-booking/pkg/validator"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	DB          *gorm.DB
	RedisClient *redis.Client
	Server      *http.Server
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg

	setupLogger(cfg.App.LogLevel)
	logrus.Info("Configuration loaded successfully")

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", cfg.App.Timezone, err)
	}

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DB, cfg.App)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db
	logrus.Info("Database connected successfully")

	// Initialize Redis
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient
	logrus.Info("Redis connected successfully")

	// Initialize all layers
	app.Server = initializeServer(cfg, db, redisClient, loc)

	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger(level string) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}

// initializeServer creates and configures the HTTP server
func initializeServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, loc *time.Location) *http.Server {
	jwtService := jwt.NewJWTService(cfg.JWT)
	customValidator := validator.NewValidator()
	log := logrus.StandardLogger()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	lifecycleMetrics := metrics.NewLifecycleMetrics(registry)

	// Initialize repositories
	userRepo := repository.NewUserRepository()
	bookingRepo := repository.NewBookingRepository()
	consentRepo := repository.NewConsentRepository()
	patientRepo := repository.NewPatientRepository()
	serviceItemRepo := repository.NewServiceItemRepository()
	auditLogRepo := repository.NewAuditLogRepository()

	// Initialize services
	auditService := service.NewAuditService(log, auditLogRepo)
	otpService := service.NewOTPService(redisClient, log, cfg.OTP)

	// Initialize usecases
	authUsecase := usecase.NewAuthUsecase(db, log, userRepo, auditService, jwtService, redisClient)
	bookingUsecase := usecase.NewBookingUsecase(db, log, bookingRepo, serviceItemRepo, patientRepo, otpService, auditService, lifecycleMetrics, loc)
	consentUsecase := usecase.NewConsentUsecase(db, log, bookingRepo, consentRepo, otpService, auditService, lifecycleMetrics)
	overrideUsecase := usecase.NewOverrideUsecase(db, log, bookingRepo, consentRepo, otpService, auditService, lifecycleMetrics)
	approvalUsecase := usecase.NewApprovalUsecase(db, log, bookingRepo, auditService, lifecycleMetrics, loc)
	serviceItemUsecase := usecase.NewServiceItemUsecase(db, log, serviceItemRepo, auditService)
	patientUsecase := usecase.NewPatientUsecase(db, log, patientRepo, auditService)
	auditLogUsecase := usecase.NewAuditLogUsecase(db, log, auditLogRepo)

	// Initialize router
	router := deliveryHttp.NewRouter(deliveryHttp.RouterDeps{
		AuthHandler:        handler.NewAuthHandler(authUsecase, customValidator, jwtService),
		BookingHandler:     handler.NewBookingHandler(bookingUsecase, customValidator),
		ConsentHandler:     handler.NewConsentHandler(consentUsecase, overrideUsecase, customValidator),
		ApprovalHandler:    handler.NewApprovalHandler(approvalUsecase, customValidator),
		ServiceItemHandler: handler.NewServiceItemHandler(serviceItemUsecase, customValidator),
		PatientHandler:     handler.NewPatientHandler(patientUsecase, customValidator),
		AuditLogHandler:    handler.NewAuditLogHandler(auditLogUsecase, customValidator),
		AuthMiddleware:     middleware.NewAuthMiddleware(jwtService, redisClient),
		CORSMiddleware:     middleware.NewCORSMiddleware(cfg.CORS),
		OTPLimiter:         middleware.NewRateLimiter(cfg.RateLimit),
		AccessLog:          middleware.AccessLog(log, lifecycleMetrics),
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	return &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.App.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() {
	go func() {
		logrus.Infof("Server starting on port %s", app.Config.App.Port)
		logrus.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.Server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	app.Close()

	logrus.Info("Server shutdown complete")
}

// Close closes all connections (database, redis, etc.)
func (app *App) Close() {
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
