package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/joho/godotenv"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/cache"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/i18n"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/mailer"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// Local development convenience; real deployments set the environment.
	_ = godotenv.Load()

	cfg := config.Load()

	// Structured logging (JSON to stdout)
	logger := logging.Setup(cfg.LogLevel)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	catalog := i18n.Default()

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// Redis: favorites cache and access token denylist
	connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := cache.Connect(connectCtx, cfg)
	cancel()
	if err != nil {
		slog.Error("redis connection failed", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	systemLogs := repository.NewSystemLogRepository(db)
	pgLogHandler := logging.NewPGHandler(systemLogs, 5*time.Second)
	logger = slog.New(logging.NewMultiHandler(logger.Handler(), pgLogHandler))
	slog.SetDefault(logger)

	// Log cleanup
	cleanupDone := make(chan struct{})
	logging.StartCleanup(systemLogs, cfg.LogRetention, cleanupDone)

	// Repositories
	users := repository.NewUserRepository(db)
	tokens := repository.NewTokenRepository(db)
	properties := repository.NewPropertyRepository(db)
	favorites := repository.NewFavoriteRepository(db)
	settings := repository.NewSettingRepository(db)

	// Services
	m := metrics.New()
	mail := mailer.New(cfg, logger)
	authService := services.NewAuthService(users, tokens, store, mail, cfg, m)
	profileService := services.NewProfileService(users)
	adminService := services.NewAdminService(users, tokens, store, properties, favorites, cfg.JWTAccessExpiry)
	propertyService := services.NewPropertyService(properties, favorites, store)
	favoriteService := services.NewFavoriteService(favorites, properties, store, m)
	settingService := services.NewSettingService(settings)
	subscriptionService := services.NewSubscriptionService(users)

	slog.Info("seeding site settings")
	seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := settingService.SeedDefaults(seedCtx, cfg.DefaultLocale, catalog.Locales()); err != nil {
		slog.Error("settings seed failed", "error", err)
	}
	cancel()

	sweepDone := make(chan struct{})
	subscriptionService.StartSweeper(cfg.SubscriptionSweep, sweepDone)

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})
	app.Use(middleware.Locale(catalog))
	app.Use(m.Middleware())

	// Routes
	routes.Setup(app, cfg, routes.Handlers{
		Auth:     handlers.NewAuthHandler(authService, cfg.AuthCookieMarkers),
		Profile:  handlers.NewProfileHandler(profileService),
		Property: handlers.NewPropertyHandler(propertyService),
		Favorite: handlers.NewFavoriteHandler(favoriteService),
		Admin:    handlers.NewAdminHandler(adminService),
		Function: handlers.NewFunctionHandler(adminService, cfg.AdminToken),
		Settings: handlers.NewSettingsHandler(settingService),
		Health: handlers.NewHealthHandler(
			func(context.Context) error { return database.Ping(db) },
			store.Ping,
		),
		Webhook:     handlers.NewWebhookHandler(subscriptionService, cfg.BillingWebhookAuth),
		Legal:       handlers.NewLegalHandler(cfg.SiteName, cfg.ContactEmail),
		Revocations: authService,
		Roles:       adminService,
		Metrics:     m,
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(sweepDone)
	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if err := store.Close(); err != nil {
		slog.Error("redis close error", "error", err)
	}
	if err := database.Close(db); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
