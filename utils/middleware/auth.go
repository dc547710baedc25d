package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/edupress/edu-platform-api/utils/auth"
	"github.com/edupress/edu-platform-api/utils/response"
)

const identityLocal = "identity"

// AuthMiddleware resolves the caller identity from the bearer token using
// the identity-provider verifier.
type AuthMiddleware struct {
	verifier *auth.Verifier
}

// NewAuthMiddleware creates the identity middleware.
func NewAuthMiddleware(verifier *auth.Verifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// Required rejects requests without a valid bearer token.
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return response.Unauthorized(c, "Missing authorization token")
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return response.Unauthorized(c, "Invalid authorization format")
		}

		ident, err := m.verifier.Verify(parts[1])
		if err != nil {
			if err == auth.ErrExpiredToken {
				return response.Unauthorized(c, "Token has expired")
			}
			return response.Unauthorized(c, "Invalid token")
		}

		c.Locals(identityLocal, ident)
		return c.Next()
	}
}

// Optional resolves the identity when a valid token is present and lets the
// request through either way.
func (m *AuthMiddleware) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Next()
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Next()
		}

		if ident, err := m.verifier.Verify(parts[1]); err == nil {
			c.Locals(identityLocal, ident)
		}
		return c.Next()
	}
}

// GetIdentity extracts the caller identity from the request context.
func GetIdentity(c *fiber.Ctx) (*auth.Identity, bool) {
	ident, ok := c.Locals(identityLocal).(*auth.Identity)
	return ident, ok && ident != nil
}

// SetIdentity stores an identity on the request context. Used by tests and
// by handlers that enrich the identity after a provider round trip.
func SetIdentity(c *fiber.Ctx, ident *auth.Identity) {
	c.Locals(identityLocal, ident)
}
