package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/dto"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// RevocationChecker reports whether an access token was revoked, either by
// id at logout or together with every token its subject held before issuedAt.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti, subject string, issuedAt time.Time) (bool, error)
}

// JWTProtected verifies the bearer token and rejects revoked tokens.
// A denylist lookup failure lets the request through so a cache outage does
// not lock every user out.
func JWTProtected(cfg *config.Config, revocations RevocationChecker) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{JWTAlg: jwt.SigningMethodHS256.Alg(), Key: []byte(cfg.JWTSecret)},
		ContextKey: tokenLocalsKey,
		SuccessHandler: func(c *fiber.Ctx) error {
			if revocations == nil {
				return c.Next()
			}
			sub := ""
			if claims, ok := Claims(c); ok {
				sub, _ = claims["sub"].(string)
			}
			revoked, err := revocations.IsRevoked(c.UserContext(), TokenID(c), sub, TokenIssuedAt(c))
			if err != nil {
				slog.Warn("token denylist lookup failed", "path", c.Path(), "error", err)
				return c.Next()
			}
			if revoked {
				return dto.Fail(c, fiber.StatusUnauthorized, "auth.invalid_token")
			}
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return dto.Fail(c, fiber.StatusUnauthorized, "auth.invalid_token")
		},
	})
}
