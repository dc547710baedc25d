package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/edupress/edu-platform-api/utils/auth"
	"github.com/edupress/edu-platform-api/utils/response"
)

// RequireRoles rejects callers whose role set does not intersect the
// required set. Admins satisfy every requirement. The rejection names the
// acceptable roles and uses the same 422 accumulated-message shape as
// payload validation so clients render it the same way.
func RequireRoles(roles ...auth.Role) fiber.Handler {
	required := auth.NewRoleSet(roles...)
	names := strings.Join(required.Strings(), ", ")

	return func(c *fiber.Ctx) error {
		ident, ok := GetIdentity(c)
		if !ok {
			return response.Unauthorized(c, "Missing authorization token")
		}

		if !ident.Roles.Has(auth.RoleAdmin) && !ident.Roles.Intersects(required) {
			return response.ValidationError(c, []string{
				fmt.Sprintf("User must have one of these roles: %s", names),
			})
		}
		return c.Next()
	}
}

// OwnerOrAdmin allows the request when the caller holds the admin role, the
// caller subject matches the owner id found in the request (the named body
// field first, then the :userId path parameter), or the request carries no
// owner reference at all.
//
// The check trusts caller-supplied identifiers and performs no storage read,
// so it is advisory only. Handlers that load the stored record re-check the
// authoritative owner field before mutating.
func OwnerOrAdmin(bodyField string) fiber.Handler {
	if bodyField == "" {
		bodyField = "user"
	}

	return func(c *fiber.Ctx) error {
		ident, ok := GetIdentity(c)
		if !ok {
			return response.Unauthorized(c, "Missing authorization token")
		}

		if ident.Roles.Has(auth.RoleAdmin) {
			return c.Next()
		}

		// A request with no owner reference is self-scoped: the handler
		// derives the owner from the authenticated identity.
		ownerID := ownerFromRequest(c, bodyField)
		if ownerID == "" || ownerID == ident.Subject {
			return c.Next()
		}

		return response.ValidationError(c, []string{
			"You can only access your own resources",
		})
	}
}

func ownerFromRequest(c *fiber.Ctx, bodyField string) string {
	var body map[string]interface{}
	if err := c.BodyParser(&body); err == nil {
		if v, ok := body[bodyField].(string); ok && v != "" {
			return v
		}
	}
	return c.Params("userId")
}
