package response

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func performRequest(t *testing.T, handler fiber.Handler) (int, Envelope) {
	t.Helper()

	app := fiber.New()
	app.Get("/", handler)

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(body, &env))
	return resp.StatusCode, env
}

func TestSuccessEnvelope(t *testing.T) {
	status, env := performRequest(t, func(c *fiber.Ctx) error {
		return Success(c, fiber.Map{"id": "abc"}, "User retrieved successfully")
	})

	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, env.Success)
	assert.Equal(t, "User retrieved successfully", env.Message)
	assert.Empty(t, env.Error)
	assert.Empty(t, env.Errors)

	data, ok := env.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "abc", data["id"])

	_, err := time.Parse(time.RFC3339, env.Timestamp)
	assert.NoError(t, err, "timestamp must be RFC3339")
}

func TestSuccessDefaultMessage(t *testing.T) {
	_, env := performRequest(t, func(c *fiber.Ctx) error {
		return Success(c, nil)
	})
	assert.Equal(t, "Operation successful", env.Message)
}

func TestCreatedEnvelope(t *testing.T) {
	status, env := performRequest(t, func(c *fiber.Ctx) error {
		return Created(c, fiber.Map{"id": "abc"})
	})

	assert.Equal(t, fiber.StatusCreated, status)
	assert.True(t, env.Success)
	assert.Equal(t, "Resource created successfully", env.Message)
}

func TestNotFoundMessage(t *testing.T) {
	status, env := performRequest(t, func(c *fiber.Ctx) error {
		return NotFound(c, "Course")
	})

	assert.Equal(t, fiber.StatusNotFound, status)
	assert.False(t, env.Success)
	assert.Equal(t, "Course not found", env.Message)
	assert.Nil(t, env.Data)
}

func TestValidationErrorAccumulatesMessages(t *testing.T) {
	errs := []string{
		"Username must be between 3 and 30 characters",
		"Email must be a valid email address",
		"User must have at least one role",
	}
	status, env := performRequest(t, func(c *fiber.Ctx) error {
		return ValidationError(c, errs)
	})

	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.False(t, env.Success)
	assert.Equal(t, "Validation failed", env.Message)
	assert.Equal(t, errs, env.Errors)
}

func TestErrorDetailPlacement(t *testing.T) {
	_, env := performRequest(t, func(c *fiber.Ctx) error {
		return Error(c, fiber.StatusBadRequest, "Operation failed", "only detail")
	})
	assert.Equal(t, "only detail", env.Error)
	assert.Empty(t, env.Errors)

	_, env = performRequest(t, func(c *fiber.Ctx) error {
		return Error(c, fiber.StatusBadRequest, "Operation failed", "first", "second")
	})
	assert.Empty(t, env.Error)
	assert.Equal(t, []string{"first", "second"}, env.Errors)
}

func TestPaginatedMeta(t *testing.T) {
	status, env := performRequest(t, func(c *fiber.Ctx) error {
		return Paginated(c, []string{"a", "b"}, 2, 10, 25)
	})

	assert.Equal(t, fiber.StatusOK, status)
	require.NotNil(t, env.Meta)
	assert.Equal(t, 2, env.Meta.Page)
	assert.Equal(t, 10, env.Meta.Limit)
	assert.Equal(t, int64(25), env.Meta.Total)
	assert.Equal(t, 3, env.Meta.TotalPages)
}

func TestNewPaginationMeta(t *testing.T) {
	tests := []struct {
		name       string
		limit      int
		total      int64
		totalPages int
	}{
		{"empty collection", 10, 0, 0},
		{"exact fit", 10, 20, 2},
		{"partial last page", 10, 21, 3},
		{"single item", 10, 1, 1},
		{"limit one", 1, 7, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := NewPaginationMeta(1, tt.limit, tt.total)
			assert.Equal(t, tt.totalPages, meta.TotalPages)
		})
	}
}

func TestNoContent(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return NoContent(c)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Empty(t, body)
}

func TestStatusHelpers(t *testing.T) {
	tests := []struct {
		name    string
		handler fiber.Handler
		status  int
		message string
	}{
		{"bad request", func(c *fiber.Ctx) error { return BadRequest(c, "Invalid request body") }, 400, "Invalid request body"},
		{"unauthorized default", func(c *fiber.Ctx) error { return Unauthorized(c, "") }, 401, "Unauthorized access"},
		{"forbidden default", func(c *fiber.Ctx) error { return Forbidden(c, "") }, 403, "Access forbidden"},
		{"too many requests default", func(c *fiber.Ctx) error { return TooManyRequests(c, "") }, 429, "Too many requests"},
		{"server error default", func(c *fiber.Ctx) error { return ServerError(c, "") }, 500, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := performRequest(t, tt.handler)
			assert.Equal(t, tt.status, status)
			assert.False(t, env.Success)
			assert.Equal(t, tt.message, env.Message)
		})
	}
}
