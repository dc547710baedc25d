package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/edupress/edu-platform-api/model"
)

// messages maps "<entity>.<field>.<tag>" (with "<field>.<tag>" and "<tag>"
// fallbacks) to the message surfaced for that rule failure. The texts match
// what clients already display per field.
var messages = map[string]string{
	// user
	"user.username.min":            "Username must be between 3 and 30 characters",
	"user.username.max":            "Username must be between 3 and 30 characters",
	"user.username.required":       "Username must be between 3 and 30 characters",
	"user.username.username_chars": "Username can only contain letters, numbers, and underscores",
	"user.email.email":             "Please provide a valid email address",
	"user.email.required":          "Please provide a valid email address",
	"user.name.min":                "Name must be between 2 and 100 characters",
	"user.name.max":                "Name must be between 2 and 100 characters",
	"user.roles.min":               "Roles must not be empty",
	"user.roles.role":              "Invalid role provided",

	// course
	"course.title.min":             "Course title must be between 5 and 200 characters",
	"course.title.max":             "Course title must be between 5 and 200 characters",
	"course.title.required":        "Course title must be between 5 and 200 characters",
	"course.description.min":       "Course description must be between 20 and 2000 characters",
	"course.description.max":       "Course description must be between 20 and 2000 characters",
	"course.description.required":  "Course description must be between 20 and 2000 characters",
	"course.category.min":          "Category must be between 2 and 50 characters",
	"course.category.max":          "Category must be between 2 and 50 characters",
	"course.category.required":     "Category must be between 2 and 50 characters",
	"course.price.gte":             "Price must be a positive number",
	"course.duration.min":          "Duration must be a positive integer",
	"course.maxStudents.min":       "Max students must be a positive integer",
	"course.tags.notblank":         "Tags must contain non-empty strings",
	"course.instructor.object_id":  "Instructor ID must be a valid document ID",

	// lesson
	"lesson.title.min":            "Lesson title must be between 5 and 200 characters",
	"lesson.title.max":            "Lesson title must be between 5 and 200 characters",
	"lesson.title.required":       "Lesson title must be between 5 and 200 characters",
	"lesson.description.min":      "Lesson description must be between 10 and 1000 characters",
	"lesson.description.max":      "Lesson description must be between 10 and 1000 characters",
	"lesson.content.min":          "Lesson content must be at least 10 characters",
	"lesson.duration.min":         "Duration must be a positive integer",
	"lesson.duration.required":    "Duration must be a positive integer",
	"lesson.order.min":            "Order must be a positive integer",
	"lesson.order.required":       "Order must be a positive integer",
	"lesson.course.object_id":     "Course ID must be a valid document ID",
	"lesson.course.required":      "Course ID must be a valid document ID",

	// rating
	"rating.rating.min":        "Rating must be between 1 and 5",
	"rating.rating.max":        "Rating must be between 1 and 5",
	"rating.rating.required":   "Rating must be between 1 and 5",
	"rating.comment.min":       "Comment must be between 10 and 500 characters",
	"rating.comment.max":       "Comment must be between 10 and 500 characters",
	"rating.course.object_id":  "Course ID must be a valid document ID",
	"rating.course.required":   "Course ID must be a valid document ID",

	// shared fallbacks
	"course_level":   fmt.Sprintf("Level must be one of: %s", strings.Join(model.CourseLevels, ", ")),
	"object_id":      "ID must be a valid document ID",
	"role":           "Invalid role provided",
	"username_chars": "Username can only contain letters, numbers, and underscores",
	"notblank":       "Tags must contain non-empty strings",
	"required":       "This field is required",
}

// messageFor resolves the message for a single rule failure. The entity
// prefix is derived from the request struct name, so CreateCourseRequest and
// UpdateCourseRequest share "course.*" messages.
func messageFor(fe validator.FieldError) string {
	entity := entityOf(fe.Namespace())
	field := fe.Field()
	// dive rules report element fields as "roles[0]"; match on the base name
	if i := strings.IndexByte(field, '['); i > 0 {
		field = field[:i]
	}
	tag := fe.Tag()

	for _, key := range []string{
		entity + "." + field + "." + tag,
		field + "." + tag,
		tag,
	} {
		if msg, ok := messages[key]; ok {
			return msg
		}
	}
	return fmt.Sprintf("%s is invalid", field)
}

// entityOf turns "CreateCourseRequest.title" into "course".
func entityOf(namespace string) string {
	structName := strings.SplitN(namespace, ".", 2)[0]
	structName = strings.TrimPrefix(structName, "Create")
	structName = strings.TrimPrefix(structName, "Update")
	structName = strings.TrimSuffix(structName, "Request")
	return strings.ToLower(structName)
}
