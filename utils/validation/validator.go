// Package validation applies per-entity rule sets to incoming payloads.
// Failures accumulate one human-readable message per failing rule and are
// surfaced together as a 422 validation error; nothing short-circuits.
package validation

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/edupress/edu-platform-api/model"
	"github.com/edupress/edu-platform-api/utils/auth"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// Validator wraps the go-playground validator with the platform's custom
// rules and message formatting.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator with all custom rules registered.
func NewValidator() *Validator {
	v := validator.New()

	// Report errors against JSON field names, not Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("username_chars", func(fl validator.FieldLevel) bool {
		return usernameRegex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		_, ok := auth.ParseRole(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("course_level", func(fl validator.FieldLevel) bool {
		return model.IsValidCourseLevel(fl.Field().String())
	})
	_ = v.RegisterValidation("object_id", func(fl validator.FieldLevel) bool {
		_, err := primitive.ObjectIDFromHex(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return &Validator{validate: v}
}

// Validate checks a request struct against its rule set and returns every
// rule failure as a separate message. A nil slice means the payload passed.
func (v *Validator) Validate(s interface{}) []string {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{"Invalid payload"}
	}

	msgs := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		msgs = append(msgs, messageFor(fe))
	}
	return msgs
}
