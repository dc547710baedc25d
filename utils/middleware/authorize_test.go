package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupress/edu-platform-api/utils/auth"
	"github.com/edupress/edu-platform-api/utils/response"
)

// identityStub injects a fixed identity ahead of the middleware under test,
// standing in for the token verification step.
func identityStub(ident *auth.Identity) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ident != nil {
			SetIdentity(c, ident)
		}
		return c.Next()
	}
}

func okHandler(c *fiber.Ctx) error {
	return response.Success(c, fiber.Map{"reached": true})
}

func decodeEnvelope(t *testing.T, resp io.Reader) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.NewDecoder(resp).Decode(&env))
	return env
}

func TestRequireRolesRejectsMissingIdentity(t *testing.T) {
	app := fiber.New()
	app.Get("/", identityStub(nil), RequireRoles(auth.RoleAdmin), okHandler)

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireRolesRejectsWrongRole(t *testing.T) {
	ident := &auth.Identity{
		Subject: "auth0|student",
		Roles:   auth.NewRoleSet(auth.RoleStudent),
	}

	app := fiber.New()
	app.Get("/", identityStub(ident), RequireRoles(auth.RoleTeacher, auth.RoleAdmin), okHandler)

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	env := decodeEnvelope(t, resp.Body)
	assert.False(t, env.Success)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "User must have one of these roles: admin, teacher", env.Errors[0])
}

func TestRequireRolesAcceptsIntersectingRole(t *testing.T) {
	ident := &auth.Identity{
		Subject: "auth0|teacher",
		Roles:   auth.NewRoleSet(auth.RoleTeacher),
	}

	app := fiber.New()
	app.Get("/", identityStub(ident), RequireRoles(auth.RoleTeacher, auth.RoleAdmin), okHandler)

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireRolesAdminSatisfiesAnyRequirement(t *testing.T) {
	ident := &auth.Identity{
		Subject: "auth0|root",
		Roles:   auth.NewRoleSet(auth.RoleAdmin),
	}

	app := fiber.New()
	app.Get("/", identityStub(ident), RequireRoles(auth.RoleStudent), okHandler)

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestOwnerOrAdmin(t *testing.T) {
	newApp := func(ident *auth.Identity) *fiber.App {
		app := fiber.New()
		app.Post("/", identityStub(ident), OwnerOrAdmin("user"), okHandler)
		app.Get("/users/:userId", identityStub(ident), OwnerOrAdmin(""), okHandler)
		return app
	}

	postJSON := func(t *testing.T, app *fiber.App, body interface{}) int {
		t.Helper()
		data, err := json.Marshal(body)
		require.NoError(t, err)
		req := httptest.NewRequest("POST", "/", bytes.NewReader(data))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	owner := &auth.Identity{Subject: "auth0|u1", Roles: auth.NewRoleSet(auth.RoleStudent)}
	admin := &auth.Identity{Subject: "auth0|root", Roles: auth.NewRoleSet(auth.RoleAdmin)}

	t.Run("owner passes when body matches subject", func(t *testing.T) {
		status := postJSON(t, newApp(owner), fiber.Map{"user": "auth0|u1"})
		assert.Equal(t, fiber.StatusOK, status)
	})

	t.Run("non-owner is rejected", func(t *testing.T) {
		status := postJSON(t, newApp(owner), fiber.Map{"user": "auth0|u2"})
		assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	})

	t.Run("admin passes regardless of owner", func(t *testing.T) {
		status := postJSON(t, newApp(admin), fiber.Map{"user": "auth0|u2"})
		assert.Equal(t, fiber.StatusOK, status)
	})

	t.Run("path parameter is checked when the body has no owner", func(t *testing.T) {
		app := newApp(owner)

		resp, err := app.Test(httptest.NewRequest("GET", "/users/auth0|u1", nil))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		resp, err = app.Test(httptest.NewRequest("GET", "/users/auth0|u2", nil))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("request without an owner reference is self-scoped", func(t *testing.T) {
		// The enroll payload names only the course; the enrollee is the
		// authenticated caller, so the middleware must let it through.
		status := postJSON(t, newApp(owner), fiber.Map{"course": "507f1f77bcf86cd799439011"})
		assert.Equal(t, fiber.StatusOK, status)
	})

	t.Run("missing identity is unauthorized", func(t *testing.T) {
		status := postJSON(t, newApp(nil), fiber.Map{"user": "auth0|u1"})
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})
}
