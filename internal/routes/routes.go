package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Handlers bundles everything Setup mounts.
type Handlers struct {
	Auth        *handlers.AuthHandler
	Profile     *handlers.ProfileHandler
	Property    *handlers.PropertyHandler
	Favorite    *handlers.FavoriteHandler
	Admin       *handlers.AdminHandler
	Function    *handlers.FunctionHandler
	Settings    *handlers.SettingsHandler
	Health      *handlers.HealthHandler
	Webhook     *handlers.WebhookHandler
	Legal       *handlers.LegalHandler
	Revocations middleware.RevocationChecker
	Roles       middleware.RoleChecker
	Metrics     *metrics.Metrics
}

func Setup(app *fiber.App, cfg *config.Config, h Handlers) {
	if h.Metrics != nil {
		app.Get("/metrics", h.Metrics.Handler())
	}

	// Privileged server functions, authenticated with the service credential.
	app.All("/functions/v1/admin-update-user", h.Function.AdminUpdateUser)

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(newLimiter(60))

	api.Get("/health", h.Health.Check)

	api.Get("/settings", h.Settings.Public)

	api.Get("/legal/privacy", h.Legal.PrivacyPolicy)
	api.Get("/legal/terms", h.Legal.TermsOfService)
	api.Get("/legal/cookies", h.Legal.CookiePolicy)

	api.Get("/properties", h.Property.List)
	api.Get("/properties/:id", h.Property.Get)

	jwt := middleware.JWTProtected(cfg, h.Revocations)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth", newLimiter(10))
	auth.Post("/signup", h.Auth.SignUp)
	auth.Get("/verify", h.Auth.Verify)
	auth.Post("/resend", h.Auth.Resend)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/refresh", h.Auth.Refresh)
	auth.Post("/password/recover", h.Auth.RecoverPassword)
	auth.Post("/password/reset", h.Auth.ResetPassword)
	auth.Post("/logout", jwt, h.Auth.Logout)
	auth.Get("/session", jwt, h.Auth.Session)
	auth.Put("/password", jwt, h.Auth.UpdatePassword)

	api.Get("/profile", jwt, h.Profile.Get)
	api.Put("/profile", jwt, h.Profile.Update)

	favorites := api.Group("/favorites", jwt)
	favorites.Get("/", h.Favorite.IDs)
	favorites.Get("/properties", h.Favorite.Properties)
	favorites.Delete("/", h.Favorite.Clear)
	favorites.Put("/:id", h.Favorite.Add)
	favorites.Delete("/:id", h.Favorite.Remove)
	favorites.Post("/:id/toggle", h.Favorite.Toggle)

	admin := api.Group("/admin", jwt, middleware.AdminRequired(cfg, h.Roles))
	admin.Get("/users", h.Admin.ListUsers)
	admin.Put("/users/:id", h.Admin.UpdateUser)
	admin.Get("/stats", h.Admin.Stats)
	admin.Get("/properties", h.Property.AdminList)
	admin.Post("/properties", h.Property.Create)
	admin.Put("/properties/:id", h.Property.Update)
	admin.Delete("/properties/:id", h.Property.Delete)
	admin.Put("/settings/:key", h.Settings.Set)
	admin.Delete("/settings/:key", h.Settings.Delete)

	webhooks := api.Group("/webhooks")
	webhooks.Post("/billing", h.Webhook.HandleBilling)
}

func newLimiter(max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
		LimitReached: func(c *fiber.Ctx) error {
			return dto.Fail(c, fiber.StatusTooManyRequests, "common.rate_limited")
		},
	})
}
