package response

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Envelope is the uniform JSON shape every endpoint responds with. Clients
// always read the payload from Data, never from the top-level body.
type Envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Data      interface{}     `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
	Errors    []string        `json:"errors,omitempty"`
	Meta      *PaginationMeta `json:"meta,omitempty"`
	Timestamp string          `json:"timestamp"`
}

// PaginationMeta describes the page window of a list response.
type PaginationMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Success returns a 200 response with the given payload.
func Success(c *fiber.Ctx, data interface{}, message ...string) error {
	msg := "Operation successful"
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	return c.Status(fiber.StatusOK).JSON(Envelope{
		Success:   true,
		Message:   msg,
		Data:      data,
		Timestamp: now(),
	})
}

// Created returns a 201 response with the created resource.
func Created(c *fiber.Ctx, data interface{}, message ...string) error {
	msg := "Resource created successfully"
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	return c.Status(fiber.StatusCreated).JSON(Envelope{
		Success:   true,
		Message:   msg,
		Data:      data,
		Timestamp: now(),
	})
}

// NoContent returns an empty 204 response.
func NoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

// Paginated returns a 200 response carrying pagination metadata.
func Paginated(c *fiber.Ctx, data interface{}, page, limit int, total int64, message ...string) error {
	msg := "Data retrieved successfully"
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	return c.Status(fiber.StatusOK).JSON(Envelope{
		Success:   true,
		Message:   msg,
		Data:      data,
		Meta:      NewPaginationMeta(page, limit, total),
		Timestamp: now(),
	})
}

// NewPaginationMeta computes the meta block for a page window.
// TotalPages is ceil(total/limit), 0 when total is 0.
func NewPaginationMeta(page, limit int, total int64) *PaginationMeta {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return &PaginationMeta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Error returns a failure response with the given status code. A single
// detail string lands in Error, multiple land in Errors.
func Error(c *fiber.Ctx, statusCode int, message string, errs ...string) error {
	if message == "" {
		message = "Operation failed"
	}
	env := Envelope{
		Success:   false,
		Message:   message,
		Timestamp: now(),
	}
	if len(errs) == 1 {
		env.Error = errs[0]
	} else if len(errs) > 1 {
		env.Errors = errs
	}
	return c.Status(statusCode).JSON(env)
}

// BadRequest returns a 400 response.
func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

// ValidationError returns a 422 response carrying every accumulated
// validation message so clients can render them per field.
func ValidationError(c *fiber.Ctx, errs []string, message ...string) error {
	msg := "Validation failed"
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	return c.Status(fiber.StatusUnprocessableEntity).JSON(Envelope{
		Success:   false,
		Message:   msg,
		Errors:    errs,
		Timestamp: now(),
	})
}

// NotFound returns a 404 response with the message "<resource> not found".
func NotFound(c *fiber.Ctx, resource string) error {
	if resource == "" {
		resource = "Resource"
	}
	return Error(c, fiber.StatusNotFound, fmt.Sprintf("%s not found", resource))
}

// Unauthorized returns a 401 response.
func Unauthorized(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Unauthorized access"
	}
	return Error(c, fiber.StatusUnauthorized, message)
}

// Forbidden returns a 403 response.
func Forbidden(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Access forbidden"
	}
	return Error(c, fiber.StatusForbidden, message)
}

// TooManyRequests returns a 429 response.
func TooManyRequests(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Too many requests"
	}
	return Error(c, fiber.StatusTooManyRequests, message)
}

// ServerError returns a 500 response. The message stays generic; callers log
// the underlying error server-side instead of leaking it to clients.
func ServerError(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Internal server error"
	}
	return Error(c, fiber.StatusInternalServerError, message)
}
