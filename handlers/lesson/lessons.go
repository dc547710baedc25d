package lesson

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/edupress/edu-platform-api/database"
	"github.com/edupress/edu-platform-api/handlers"
	"github.com/edupress/edu-platform-api/model"
	"github.com/edupress/edu-platform-api/utils/auth"
	"github.com/edupress/edu-platform-api/utils/middleware"
	"github.com/edupress/edu-platform-api/utils/query"
	"github.com/edupress/edu-platform-api/utils/response"
	"github.com/edupress/edu-platform-api/utils/validation"
)

// LessonHandler handles lesson requests.
type LessonHandler struct {
	store     database.Storage
	validator *validation.Validator
}

// NewLessonHandler creates a new lesson handler.
func NewLessonHandler(store database.Storage) *LessonHandler {
	return &LessonHandler{
		store:     store,
		validator: validation.NewValidator(),
	}
}

// CreateLessonRequest is the payload for creating a lesson.
type CreateLessonRequest struct {
	Title       string `json:"title" validate:"required,min=5,max=200"`
	Description string `json:"description" validate:"omitempty,min=10,max=1000"`
	Content     string `json:"content" validate:"omitempty,min=10"`
	Duration    int    `json:"duration" validate:"required,min=1"`
	Order       int    `json:"order" validate:"required,min=1"`
	Course      string `json:"course" validate:"required,object_id"`
	VideoURL    string `json:"videoUrl"`
}

// UpdateLessonRequest is the payload for updating a lesson; every field is
// optional and applied only when present.
type UpdateLessonRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=5,max=200"`
	Description *string `json:"description" validate:"omitempty,min=10,max=1000"`
	Content     *string `json:"content" validate:"omitempty,min=10"`
	Duration    *int    `json:"duration" validate:"omitempty,min=1"`
	Order       *int    `json:"order" validate:"omitempty,min=1"`
	VideoURL    *string `json:"videoUrl"`
	IsPublished *bool   `json:"isPublished"`
}

// ListLessons handles GET /api/lessons?course=<id>, ordered by the lesson
// sequence. Only enrolled students, the course instructor, or admins may
// read a course's lessons.
func (h *LessonHandler) ListLessons(c *fiber.Ctx) error {
	courseID, err := primitive.ObjectIDFromHex(c.Query("course"))
	if err != nil {
		return response.ValidationError(c, []string{"Course ID must be a valid document ID"})
	}

	var course model.Course
	if err := h.store.Courses().FindOne(c.Context(), bson.M{"_id": courseID}).Decode(&course); err != nil {
		if err == mongo.ErrNoDocuments {
			return response.NotFound(c, "Course")
		}
		log.Errorf("lessons: course fetch failed: %v", err)
		return response.ServerError(c, "Failed to fetch lessons")
	}

	if !h.mayReadLessons(c, &course) {
		return response.Forbidden(c, "You must be enrolled in this course to view its lessons")
	}

	p := query.ParsePagination(c)
	filter := bson.M{"course": courseID}

	total, err := h.store.Lessons().CountDocuments(c.Context(), filter)
	if err != nil {
		log.Errorf("lessons: count failed: %v", err)
		return response.ServerError(c, "Failed to fetch lessons")
	}

	cur, err := h.store.Lessons().Find(c.Context(), filter,
		query.FindOptions(p, bson.D{{Key: "order", Value: 1}}))
	if err != nil {
		log.Errorf("lessons: find failed: %v", err)
		return response.ServerError(c, "Failed to fetch lessons")
	}
	defer cur.Close(c.Context())

	lessons := []model.Lesson{}
	if err := cur.All(c.Context(), &lessons); err != nil {
		log.Errorf("lessons: decode failed: %v", err)
		return response.ServerError(c, "Failed to fetch lessons")
	}

	return response.Paginated(c, lessons, p.Page, p.Limit, total)
}

// GetLesson handles GET /api/lessons/:id.
func (h *LessonHandler) GetLesson(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return response.ValidationError(c, []string{"ID must be a valid document ID"})
	}

	var lesson model.Lesson
	if err := h.store.Lessons().FindOne(c.Context(), bson.M{"_id": id}).Decode(&lesson); err != nil {
		if err == mongo.ErrNoDocuments {
			return response.NotFound(c, "Lesson")
		}
		log.Errorf("lessons: fetch failed: %v", err)
		return response.ServerError(c, "Failed to fetch lesson")
	}

	var course model.Course
	if err := h.store.Courses().FindOne(c.Context(), bson.M{"_id": lesson.Course}).Decode(&course); err != nil {
		log.Errorf("lessons: course fetch failed: %v", err)
		return response.ServerError(c, "Failed to fetch lesson")
	}
	if !h.mayReadLessons(c, &course) {
		return response.Forbidden(c, "You must be enrolled in this course to view its lessons")
	}

	return response.Success(c, lesson)
}

// CreateLesson handles POST /api/lessons (course instructor or admin).
func (h *LessonHandler) CreateLesson(c *fiber.Ctx) error {
	var req CreateLessonRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if errs := h.validator.Validate(&req); errs != nil {
		return response.ValidationError(c, errs)
	}

	courseID, _ := primitive.ObjectIDFromHex(req.Course)
	caller, ok := h.requireInstructor(c, courseID)
	if !ok {
		return nil
	}

	now := time.Now().UTC()
	lesson := model.Lesson{
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		Duration:    req.Duration,
		Order:       req.Order,
		Course:      courseID,
		VideoURL:    req.VideoURL,
		CreatedBy:   caller.ID,
		UpdatedBy:   caller.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	res, err := h.store.Lessons().InsertOne(c.Context(), lesson)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return response.ValidationError(c, []string{"A lesson with this order already exists in the course"})
		}
		log.Errorf("lessons: insert failed: %v", err)
		return response.ServerError(c, "Failed to create lesson")
	}
	lesson.ID = res.InsertedID.(primitive.ObjectID)

	return response.Created(c, lesson)
}

// UpdateLesson handles PUT /api/lessons/:id (course instructor or admin).
func (h *LessonHandler) UpdateLesson(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return response.ValidationError(c, []string{"ID must be a valid document ID"})
	}

	var req UpdateLessonRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if errs := h.validator.Validate(&req); errs != nil {
		return response.ValidationError(c, errs)
	}

	var lesson model.Lesson
	if err := h.store.Lessons().FindOne(c.Context(), bson.M{"_id": id}).Decode(&lesson); err != nil {
		if err == mongo.ErrNoDocuments {
			return response.NotFound(c, "Lesson")
		}
		log.Errorf("lessons: fetch failed: %v", err)
		return response.ServerError(c, "Failed to update lesson")
	}

	caller, ok := h.requireInstructor(c, lesson.Course)
	if !ok {
		return nil
	}

	set := bson.M{"updatedAt": time.Now().UTC(), "updatedBy": caller.ID}
	if req.Title != nil {
		set["title"] = *req.Title
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.Content != nil {
		set["content"] = *req.Content
	}
	if req.Duration != nil {
		set["duration"] = *req.Duration
	}
	if req.Order != nil {
		set["order"] = *req.Order
	}
	if req.VideoURL != nil {
		set["videoUrl"] = *req.VideoURL
	}
	if req.IsPublished != nil {
		set["isPublished"] = *req.IsPublished
	}

	var updated model.Lesson
	if err := h.store.Lessons().FindOneAndUpdate(c.Context(),
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return response.ValidationError(c, []string{"A lesson with this order already exists in the course"})
		}
		log.Errorf("lessons: update failed: %v", err)
		return response.ServerError(c, "Failed to update lesson")
	}

	return response.Success(c, updated, "Lesson updated successfully")
}

// DeleteLesson handles DELETE /api/lessons/:id (course instructor or admin).
func (h *LessonHandler) DeleteLesson(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return response.ValidationError(c, []string{"ID must be a valid document ID"})
	}

	var lesson model.Lesson
	if err := h.store.Lessons().FindOne(c.Context(), bson.M{"_id": id}).Decode(&lesson); err != nil {
		if err == mongo.ErrNoDocuments {
			return response.NotFound(c, "Lesson")
		}
		log.Errorf("lessons: fetch failed: %v", err)
		return response.ServerError(c, "Failed to delete lesson")
	}

	if _, ok := h.requireInstructor(c, lesson.Course); !ok {
		return nil
	}

	if _, err := h.store.Lessons().DeleteOne(c.Context(), bson.M{"_id": id}); err != nil {
		log.Errorf("lessons: delete failed: %v", err)
		return response.ServerError(c, "Failed to delete lesson")
	}

	return response.NoContent(c)
}

// mayReadLessons reports whether the caller may read a course's lessons:
// admins and the instructor always, students only when enrolled.
func (h *LessonHandler) mayReadLessons(c *fiber.Ctx, course *model.Course) bool {
	ident, ok := middleware.GetIdentity(c)
	if !ok {
		return false
	}
	if ident.Roles.Has(auth.RoleAdmin) {
		return true
	}

	caller, err := handlers.CurrentUser(c, h.store)
	if err != nil {
		return false
	}
	if course.Instructor == caller.ID {
		return true
	}

	n, err := h.store.Enrollments().CountDocuments(c.Context(),
		bson.M{"user": caller.ID, "course": course.ID})
	return err == nil && n > 0
}

// requireInstructor enforces the authoritative instructor-or-admin check for
// lesson mutations. When it returns false the rejection has been written.
func (h *LessonHandler) requireInstructor(c *fiber.Ctx, courseID primitive.ObjectID) (*model.User, bool) {
	var course model.Course
	if err := h.store.Courses().FindOne(c.Context(), bson.M{"_id": courseID}).Decode(&course); err != nil {
		if err == mongo.ErrNoDocuments {
			_ = response.NotFound(c, "Course")
		} else {
			log.Errorf("lessons: course fetch failed: %v", err)
			_ = response.ServerError(c, "Failed to fetch course")
		}
		return nil, false
	}

	caller, err := handlers.CurrentUser(c, h.store)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			_ = response.Unauthorized(c, "User not registered on the platform")
		} else {
			log.Errorf("lessons: caller lookup failed: %v", err)
			_ = response.ServerError(c, "Failed to fetch course")
		}
		return nil, false
	}

	ident, _ := middleware.GetIdentity(c)
	if !ident.Roles.Has(auth.RoleAdmin) && course.Instructor != caller.ID {
		_ = response.Forbidden(c, "Only the course instructor or an admin may modify lessons")
		return nil, false
	}

	return caller, true
}
