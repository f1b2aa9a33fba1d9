package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// tokenLocalsKey is where the JWT middleware stores the parsed token.
const tokenLocalsKey = "user"

// Claims returns the verified access-token claims for the request.
func Claims(c *fiber.Ctx) (jwt.MapClaims, bool) {
	token, ok := c.Locals(tokenLocalsKey).(*jwt.Token)
	if !ok || token == nil {
		return nil, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	return claims, ok
}

// UserID extracts the user UUID from the access-token subject.
func UserID(c *fiber.Ctx) (uuid.UUID, error) {
	claims, ok := Claims(c)
	if !ok {
		return uuid.Nil, errors.New("invalid token in context")
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing sub claim")
	}
	return uuid.Parse(sub)
}

// TokenID returns the jti claim, or "" when absent.
func TokenID(c *fiber.Ctx) string {
	claims, ok := Claims(c)
	if !ok {
		return ""
	}
	jti, _ := claims["jti"].(string)
	return jti
}

// TokenExpiry returns the exp claim as a time, or the zero time when absent.
func TokenExpiry(c *fiber.Ctx) time.Time {
	claims, ok := Claims(c)
	if !ok {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// TokenIssuedAt returns the iat claim as a time, or the zero time when absent.
func TokenIssuedAt(c *fiber.Ctx) time.Time {
	claims, ok := Claims(c)
	if !ok {
		return time.Time{}
	}
	iat, err := claims.GetIssuedAt()
	if err != nil || iat == nil {
		return time.Time{}
	}
	return iat.Time
}
