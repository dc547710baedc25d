package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The request structs mirror the handler payloads so the entity-derived
// message keys resolve the same way they do in production.

type CreateUserRequest struct {
	Username string   `json:"username" validate:"required,min=3,max=30,username_chars"`
	Email    string   `json:"email" validate:"required,email"`
	Auth0ID  string   `json:"auth0Id" validate:"required"`
	Name     string   `json:"name" validate:"omitempty,min=2,max=100"`
	Roles    []string `json:"roles" validate:"omitempty,min=1,dive,role"`
}

type CreateCourseRequest struct {
	Title       string   `json:"title" validate:"required,min=5,max=200"`
	Description string   `json:"description" validate:"required,min=20,max=2000"`
	Category    string   `json:"category" validate:"required,min=2,max=50"`
	Level       string   `json:"level" validate:"required,course_level"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Tags        []string `json:"tags" validate:"omitempty,dive,notblank"`
	Instructor  string   `json:"instructor" validate:"omitempty,object_id"`
}

type CreateRatingRequest struct {
	Rating  *int   `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"omitempty,min=10,max=500"`
	Course  string `json:"course" validate:"required,object_id"`
}

func validUser() CreateUserRequest {
	return CreateUserRequest{
		Username: "jane_doe",
		Email:    "jane@example.com",
		Auth0ID:  "auth0|abc123",
		Name:     "Jane Doe",
		Roles:    []string{"student"},
	}
}

func validCourse() CreateCourseRequest {
	price := 49.99
	return CreateCourseRequest{
		Title:       "Introduction to Go",
		Description: "A hands-on course covering the Go programming language.",
		Category:    "Programming",
		Level:       "beginner",
		Price:       &price,
	}
}

func TestValidatePassesOnValidPayload(t *testing.T) {
	v := NewValidator()
	assert.Nil(t, v.Validate(validUser()))
	assert.Nil(t, v.Validate(validCourse()))
}

func TestUsernameRules(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name     string
		username string
		want     string
	}{
		{"too short", "ab", "Username must be between 3 and 30 characters"},
		{"too long", "a_very_long_username_that_goes_past_thirty", "Username must be between 3 and 30 characters"},
		{"illegal characters", "jane doe!", "Username can only contain letters, numbers, and underscores"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validUser()
			req.Username = tt.username
			errs := v.Validate(req)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.want, errs[0])
		})
	}
}

func TestEmailRule(t *testing.T) {
	v := NewValidator()

	req := validUser()
	req.Email = "not-an-email"
	errs := v.Validate(req)
	require.Len(t, errs, 1)
	assert.Equal(t, "Please provide a valid email address", errs[0])
}

func TestRoleRuleRejectsUnknownRole(t *testing.T) {
	v := NewValidator()

	req := validUser()
	req.Roles = []string{"student", "superuser"}
	errs := v.Validate(req)
	require.Len(t, errs, 1)
	assert.Equal(t, "Invalid role provided", errs[0])
}

func TestCourseLevelRule(t *testing.T) {
	v := NewValidator()

	for _, level := range []string{"مبتدئ", "متوسط", "متقدم", "beginner", "intermediate", "advanced"} {
		req := validCourse()
		req.Level = level
		assert.Nil(t, v.Validate(req), "level %q must be accepted", level)
	}

	req := validCourse()
	req.Level = "expert"
	errs := v.Validate(req)
	require.Len(t, errs, 1)
	assert.Equal(t,
		"Level must be one of: مبتدئ, متوسط, متقدم, beginner, intermediate, advanced",
		errs[0])
}

func TestCoursePriceRule(t *testing.T) {
	v := NewValidator()

	price := -1.0
	req := validCourse()
	req.Price = &price
	errs := v.Validate(req)
	require.Len(t, errs, 1)
	assert.Equal(t, "Price must be a positive number", errs[0])

	// Zero is a legal price (free course).
	price = 0
	req.Price = &price
	assert.Nil(t, v.Validate(req))
}

func TestObjectIDRule(t *testing.T) {
	v := NewValidator()

	req := validCourse()
	req.Instructor = "not-a-hex-id"
	errs := v.Validate(req)
	require.Len(t, errs, 1)
	assert.Equal(t, "Instructor ID must be a valid document ID", errs[0])

	req.Instructor = "507f1f77bcf86cd799439011"
	assert.Nil(t, v.Validate(req))
}

func TestNotBlankRule(t *testing.T) {
	v := NewValidator()

	req := validCourse()
	req.Tags = []string{"go", "   "}
	errs := v.Validate(req)
	require.Len(t, errs, 1)
	assert.Equal(t, "Tags must contain non-empty strings", errs[0])
}

func TestValidateAccumulatesAllFailures(t *testing.T) {
	v := NewValidator()

	req := validUser()
	req.Username = "x!"
	req.Email = "bad"
	req.Roles = []string{"wizard"}

	errs := v.Validate(req)
	require.Len(t, errs, 3)
	assert.Contains(t, errs, "Username must be between 3 and 30 characters")
	assert.Contains(t, errs, "Please provide a valid email address")
	assert.Contains(t, errs, "Invalid role provided")
}

func TestRatingRules(t *testing.T) {
	v := NewValidator()

	six := 6
	req := CreateRatingRequest{
		Rating: &six,
		Course: "507f1f77bcf86cd799439011",
	}
	errs := v.Validate(req)
	require.Len(t, errs, 1)
	assert.Equal(t, "Rating must be between 1 and 5", errs[0])

	three := 3
	req = CreateRatingRequest{
		Rating:  &three,
		Comment: "short",
		Course:  "507f1f77bcf86cd799439011",
	}
	errs = v.Validate(req)
	require.Len(t, errs, 1)
	assert.Equal(t, "Comment must be between 10 and 500 characters", errs[0])
}
