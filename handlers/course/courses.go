package course

import (
	"strconv"
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

// CourseHandler handles course requests.
type CourseHandler struct {
	store     database.Storage
	validator *validation.Validator
}

// NewCourseHandler creates a new course handler.
func NewCourseHandler(store database.Storage) *CourseHandler {
	return &CourseHandler{
		store:     store,
		validator: validation.NewValidator(),
	}
}

// CreateCourseRequest is the payload for creating a course.
type CreateCourseRequest struct {
	Title       string   `json:"title" validate:"required,min=5,max=200"`
	Description string   `json:"description" validate:"required,min=20,max=2000"`
	Category    string   `json:"category" validate:"required,min=2,max=50"`
	Level       string   `json:"level" validate:"required,course_level"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Duration    int      `json:"duration" validate:"omitempty,min=1"`
	MaxStudents int      `json:"maxStudents" validate:"omitempty,min=1"`
	Thumbnail   string   `json:"thumbnail"`
	Tags        []string `json:"tags" validate:"omitempty,dive,notblank"`
	Instructor  string   `json:"instructor" validate:"omitempty,object_id"`
}

// UpdateCourseRequest is the payload for updating a course; every field is
// optional and applied only when present.
type UpdateCourseRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=5,max=200"`
	Description *string  `json:"description" validate:"omitempty,min=20,max=2000"`
	Category    *string  `json:"category" validate:"omitempty,min=2,max=50"`
	Level       *string  `json:"level" validate:"omitempty,course_level"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Duration    *int     `json:"duration" validate:"omitempty,min=1"`
	MaxStudents *int     `json:"maxStudents" validate:"omitempty,min=1"`
	Thumbnail   *string  `json:"thumbnail"`
	Tags        []string `json:"tags" validate:"omitempty,dive,notblank"`
	IsPublished *bool    `json:"isPublished"`
}

// ListCourses handles GET /api/courses. Anonymous callers and students see
// published courses only; admins see everything, optionally filtered by the
// isPublished query parameter.
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	p := query.ParsePagination(c)
	sort := query.ParseSort(c, "createdAt")
	filter := query.ParseSearch(c, "title", "description", "category")

	ident, authed := middleware.GetIdentity(c)
	isAdmin := authed && ident.Roles.Has(auth.RoleAdmin)

	if isAdmin {
		if v := c.Query("isPublished"); v != "" {
			filter["isPublished"] = v == "true"
		}
	} else {
		filter["isPublished"] = true
	}

	if category := c.Query("category"); category != "" {
		filter["category"] = category
	}
	if level := c.Query("level"); level != "" {
		filter["level"] = level
	}
	if instructor := c.Query("instructor"); instructor != "" {
		if id, err := primitive.ObjectIDFromHex(instructor); err == nil {
			filter["instructor"] = id
		}
	}
	if priceRange := priceFilter(c); priceRange != nil {
		filter["price"] = priceRange
	}

	total, err := h.store.Courses().CountDocuments(c.Context(), filter)
	if err != nil {
		log.Errorf("courses: count failed: %v", err)
		return response.ServerError(c, "Failed to fetch courses")
	}

	cur, err := h.store.Courses().Find(c.Context(), filter, query.FindOptions(p, sort))
	if err != nil {
		log.Errorf("courses: find failed: %v", err)
		return response.ServerError(c, "Failed to fetch courses")
	}
	defer cur.Close(c.Context())

	courses := []model.Course{}
	if err := cur.All(c.Context(), &courses); err != nil {
		log.Errorf("courses: decode failed: %v", err)
		return response.ServerError(c, "Failed to fetch courses")
	}

	return response.Paginated(c, courses, p.Page, p.Limit, total)
}

func priceFilter(c *fiber.Ctx) bson.M {
	rng := bson.M{}
	if v, err := strconv.ParseFloat(c.Query("minPrice"), 64); err == nil {
		rng["$gte"] = v
	}
	if v, err := strconv.ParseFloat(c.Query("maxPrice"), 64); err == nil {
		rng["$lte"] = v
	}
	if len(rng) == 0 {
		return nil
	}
	return rng
}

// GetCourse handles GET /api/courses/:id.
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return response.ValidationError(c, []string{"ID must be a valid document ID"})
	}

	var course model.Course
	if err := h.store.Courses().FindOne(c.Context(), bson.M{"_id": id}).Decode(&course); err != nil {
		if err == mongo.ErrNoDocuments {
			return response.NotFound(c, "Course")
		}
		log.Errorf("courses: fetch failed: %v", err)
		return response.ServerError(c, "Failed to fetch course")
	}

	return response.Success(c, course)
}

// CreateCourse handles POST /api/courses (teacher or admin). The instructor
// is the caller unless an admin names another user.
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	caller, err := handlers.CurrentUser(c, h.store)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return response.Unauthorized(c, "User not registered on the platform")
		}
		log.Errorf("courses: caller lookup failed: %v", err)
		return response.ServerError(c, "Failed to create course")
	}

	var req CreateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if errs := h.validator.Validate(&req); errs != nil {
		return response.ValidationError(c, errs)
	}

	ident, _ := middleware.GetIdentity(c)
	instructor := caller.ID
	if req.Instructor != "" && ident.Roles.Has(auth.RoleAdmin) {
		instructor, _ = primitive.ObjectIDFromHex(req.Instructor)
	}

	now := time.Now().UTC()
	course := model.Course{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Level:       req.Level,
		Price:       *req.Price,
		Duration:    req.Duration,
		MaxStudents: req.MaxStudents,
		Thumbnail:   req.Thumbnail,
		Tags:        req.Tags,
		Instructor:  instructor,
		CreatedBy:   caller.ID,
		UpdatedBy:   caller.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	res, err := h.store.Courses().InsertOne(c.Context(), course)
	if err != nil {
		log.Errorf("courses: insert failed: %v", err)
		return response.ServerError(c, "Failed to create course")
	}
	course.ID = res.InsertedID.(primitive.ObjectID)

	return response.Created(c, course)
}

// UpdateCourse handles PUT /api/courses/:id. Only the course instructor or
// an admin may update; the instructor is read from the stored course, not
// from the request.
func (h *CourseHandler) UpdateCourse(c *fiber.Ctx) error {
	course, caller, ok := h.loadForMutation(c)
	if !ok {
		return nil
	}

	var req UpdateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if errs := h.validator.Validate(&req); errs != nil {
		return response.ValidationError(c, errs)
	}

	set := bson.M{"updatedAt": time.Now().UTC(), "updatedBy": caller.ID}
	if req.Title != nil {
		set["title"] = *req.Title
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.Category != nil {
		set["category"] = *req.Category
	}
	if req.Level != nil {
		set["level"] = *req.Level
	}
	if req.Price != nil {
		set["price"] = *req.Price
	}
	if req.Duration != nil {
		set["duration"] = *req.Duration
	}
	if req.MaxStudents != nil {
		set["maxStudents"] = *req.MaxStudents
	}
	if req.Thumbnail != nil {
		set["thumbnail"] = *req.Thumbnail
	}
	if req.Tags != nil {
		set["tags"] = req.Tags
	}
	if req.IsPublished != nil {
		set["isPublished"] = *req.IsPublished
	}

	var updated model.Course
	if err := h.store.Courses().FindOneAndUpdate(c.Context(),
		bson.M{"_id": course.ID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated); err != nil {
		log.Errorf("courses: update failed: %v", err)
		return response.ServerError(c, "Failed to update course")
	}

	return response.Success(c, updated, "Course updated successfully")
}

// PublishCourse handles PATCH /api/courses/:id/publish.
func (h *CourseHandler) PublishCourse(c *fiber.Ctx) error {
	course, caller, ok := h.loadForMutation(c)
	if !ok {
		return nil
	}

	var updated model.Course
	if err := h.store.Courses().FindOneAndUpdate(c.Context(),
		bson.M{"_id": course.ID},
		bson.M{"$set": bson.M{
			"isPublished": !course.IsPublished,
			"updatedBy":   caller.ID,
			"updatedAt":   time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated); err != nil {
		log.Errorf("courses: publish toggle failed: %v", err)
		return response.ServerError(c, "Failed to update course")
	}

	return response.Success(c, updated, "Course updated successfully")
}

// DeleteCourse handles DELETE /api/courses/:id.
func (h *CourseHandler) DeleteCourse(c *fiber.Ctx) error {
	course, _, ok := h.loadForMutation(c)
	if !ok {
		return nil
	}

	if _, err := h.store.Courses().DeleteOne(c.Context(), bson.M{"_id": course.ID}); err != nil {
		log.Errorf("courses: delete failed: %v", err)
		return response.ServerError(c, "Failed to delete course")
	}

	return response.NoContent(c)
}

// loadForMutation fetches the course and the caller, and enforces the
// authoritative instructor-or-admin check against the stored record. When it
// returns false the rejection response has already been written.
func (h *CourseHandler) loadForMutation(c *fiber.Ctx) (*model.Course, *model.User, bool) {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		_ = response.ValidationError(c, []string{"ID must be a valid document ID"})
		return nil, nil, false
	}

	var course model.Course
	if err := h.store.Courses().FindOne(c.Context(), bson.M{"_id": id}).Decode(&course); err != nil {
		if err == mongo.ErrNoDocuments {
			_ = response.NotFound(c, "Course")
		} else {
			log.Errorf("courses: fetch failed: %v", err)
			_ = response.ServerError(c, "Failed to fetch course")
		}
		return nil, nil, false
	}

	caller, err := handlers.CurrentUser(c, h.store)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			_ = response.Unauthorized(c, "User not registered on the platform")
		} else {
			log.Errorf("courses: caller lookup failed: %v", err)
			_ = response.ServerError(c, "Failed to fetch course")
		}
		return nil, nil, false
	}

	ident, _ := middleware.GetIdentity(c)
	if !ident.Roles.Has(auth.RoleAdmin) && course.Instructor != caller.ID {
		_ = response.Forbidden(c, "Only the course instructor or an admin may modify this course")
		return nil, nil, false
	}

	return &course, caller, true
}
