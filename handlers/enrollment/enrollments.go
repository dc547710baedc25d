package enrollment

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

// EnrollmentHandler handles enrollment requests.
type EnrollmentHandler struct {
	store     database.Storage
	validator *validation.Validator
}

// NewEnrollmentHandler creates a new enrollment handler.
func NewEnrollmentHandler(store database.Storage) *EnrollmentHandler {
	return &EnrollmentHandler{
		store:     store,
		validator: validation.NewValidator(),
	}
}

// CreateEnrollmentRequest is the payload for enrolling in a course.
type CreateEnrollmentRequest struct {
	Course string `json:"course" validate:"required,object_id"`
}

// UpdateProgressRequest marks a lesson of the enrolled course completed.
type UpdateProgressRequest struct {
	Lesson string `json:"lesson" validate:"required,object_id"`
}

// Enroll handles POST /api/enrollments: the caller enrolls themselves in a
// published course, subject to the course capacity.
func (h *EnrollmentHandler) Enroll(c *fiber.Ctx) error {
	var req CreateEnrollmentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if errs := h.validator.Validate(&req); errs != nil {
		return response.ValidationError(c, errs)
	}

	caller, err := handlers.CurrentUser(c, h.store)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return response.Unauthorized(c, "User not registered on the platform")
		}
		log.Errorf("enrollments: caller lookup failed: %v", err)
		return response.ServerError(c, "Failed to enroll")
	}

	courseID, _ := primitive.ObjectIDFromHex(req.Course)
	var course model.Course
	if err := h.store.Courses().FindOne(c.Context(), bson.M{"_id": courseID}).Decode(&course); err != nil {
		if err == mongo.ErrNoDocuments {
			return response.NotFound(c, "Course")
		}
		log.Errorf("enrollments: course fetch failed: %v", err)
		return response.ServerError(c, "Failed to enroll")
	}
	if !course.IsPublished {
		return response.ValidationError(c, []string{"You can only enroll in published courses"})
	}

	if course.MaxStudents > 0 {
		enrolled, err := h.store.Enrollments().CountDocuments(c.Context(), bson.M{"course": courseID})
		if err != nil {
			log.Errorf("enrollments: capacity count failed: %v", err)
			return response.ServerError(c, "Failed to enroll")
		}
		if enrolled >= int64(course.MaxStudents) {
			return response.ValidationError(c, []string{"Course is full"})
		}
	}

	enrollment := model.Enrollment{
		User:             caller.ID,
		Course:           courseID,
		EnrolledAt:       time.Now().UTC(),
		CompletedLessons: []primitive.ObjectID{},
	}

	res, err := h.store.Enrollments().InsertOne(c.Context(), enrollment)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return response.ValidationError(c, []string{"You are already enrolled in this course"})
		}
		log.Errorf("enrollments: insert failed: %v", err)
		return response.ServerError(c, "Failed to enroll")
	}
	enrollment.ID = res.InsertedID.(primitive.ObjectID)

	return response.Created(c, enrollment, "Enrolled successfully")
}

// ListEnrollments handles GET /api/enrollments: the caller's enrollments,
// or any user's for admins via the user query parameter.
func (h *EnrollmentHandler) ListEnrollments(c *fiber.Ctx) error {
	caller, err := handlers.CurrentUser(c, h.store)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return response.Unauthorized(c, "User not registered on the platform")
		}
		log.Errorf("enrollments: caller lookup failed: %v", err)
		return response.ServerError(c, "Failed to fetch enrollments")
	}

	userID := caller.ID
	ident, _ := middleware.GetIdentity(c)
	if other := c.Query("user"); other != "" && ident.Roles.Has(auth.RoleAdmin) {
		if id, err := primitive.ObjectIDFromHex(other); err == nil {
			userID = id
		}
	}

	p := query.ParsePagination(c)
	sort := query.ParseSort(c, "enrolledAt")
	filter := bson.M{"user": userID}

	total, err := h.store.Enrollments().CountDocuments(c.Context(), filter)
	if err != nil {
		log.Errorf("enrollments: count failed: %v", err)
		return response.ServerError(c, "Failed to fetch enrollments")
	}

	cur, err := h.store.Enrollments().Find(c.Context(), filter, query.FindOptions(p, sort))
	if err != nil {
		log.Errorf("enrollments: find failed: %v", err)
		return response.ServerError(c, "Failed to fetch enrollments")
	}
	defer cur.Close(c.Context())

	enrollments := []model.Enrollment{}
	if err := cur.All(c.Context(), &enrollments); err != nil {
		log.Errorf("enrollments: decode failed: %v", err)
		return response.ServerError(c, "Failed to fetch enrollments")
	}

	return response.Paginated(c, enrollments, p.Page, p.Limit, total)
}

// UpdateProgress handles PUT /api/enrollments/:id/progress. Only the
// enrollment owner may record progress; the lesson must belong to the
// enrolled course. Progress is recomputed as completed/total lessons and the
// certificate flag is set when it reaches 100.
func (h *EnrollmentHandler) UpdateProgress(c *fiber.Ctx) error {
	enrollment, _, ok := h.loadOwned(c, false)
	if !ok {
		return nil
	}

	var req UpdateProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if errs := h.validator.Validate(&req); errs != nil {
		return response.ValidationError(c, errs)
	}

	lessonID, _ := primitive.ObjectIDFromHex(req.Lesson)
	n, err := h.store.Lessons().CountDocuments(c.Context(),
		bson.M{"_id": lessonID, "course": enrollment.Course})
	if err != nil {
		log.Errorf("enrollments: lesson check failed: %v", err)
		return response.ServerError(c, "Failed to update progress")
	}
	if n == 0 {
		return response.ValidationError(c, []string{"Lesson does not belong to the enrolled course"})
	}

	completed := enrollment.CompletedLessons
	seen := false
	for _, id := range completed {
		if id == lessonID {
			seen = true
			break
		}
	}
	if !seen {
		completed = append(completed, lessonID)
	}

	totalLessons, err := h.store.Lessons().CountDocuments(c.Context(), bson.M{"course": enrollment.Course})
	if err != nil {
		log.Errorf("enrollments: lesson count failed: %v", err)
		return response.ServerError(c, "Failed to update progress")
	}

	progress := 0.0
	if totalLessons > 0 {
		progress = float64(len(completed)) / float64(totalLessons) * 100
		if progress > 100 {
			progress = 100
		}
	}

	now := time.Now().UTC()
	set := bson.M{
		"completedLessons": completed,
		"progress":         progress,
		"lastAccessedAt":   now,
	}
	if progress >= 100 && !enrollment.CertificateIssued {
		set["certificateIssued"] = true
		set["certificateIssuedAt"] = now
	}

	var updated model.Enrollment
	if err := h.store.Enrollments().FindOneAndUpdate(c.Context(),
		bson.M{"_id": enrollment.ID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated); err != nil {
		log.Errorf("enrollments: progress update failed: %v", err)
		return response.ServerError(c, "Failed to update progress")
	}

	return response.Success(c, updated, "Progress updated successfully")
}

// Unenroll handles DELETE /api/enrollments/:id (owner or admin).
func (h *EnrollmentHandler) Unenroll(c *fiber.Ctx) error {
	enrollment, _, ok := h.loadOwned(c, true)
	if !ok {
		return nil
	}

	if _, err := h.store.Enrollments().DeleteOne(c.Context(), bson.M{"_id": enrollment.ID}); err != nil {
		log.Errorf("enrollments: delete failed: %v", err)
		return response.ServerError(c, "Failed to unenroll")
	}

	return response.NoContent(c)
}

// loadOwned fetches the enrollment and enforces the authoritative owner
// check against the stored record; admins pass when adminOverride is set.
// When it returns false the rejection has already been written.
func (h *EnrollmentHandler) loadOwned(c *fiber.Ctx, adminOverride bool) (*model.Enrollment, *model.User, bool) {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		_ = response.ValidationError(c, []string{"ID must be a valid document ID"})
		return nil, nil, false
	}

	var enrollment model.Enrollment
	if err := h.store.Enrollments().FindOne(c.Context(), bson.M{"_id": id}).Decode(&enrollment); err != nil {
		if err == mongo.ErrNoDocuments {
			_ = response.NotFound(c, "Enrollment")
		} else {
			log.Errorf("enrollments: fetch failed: %v", err)
			_ = response.ServerError(c, "Failed to fetch enrollment")
		}
		return nil, nil, false
	}

	caller, err := handlers.CurrentUser(c, h.store)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			_ = response.Unauthorized(c, "User not registered on the platform")
		} else {
			log.Errorf("enrollments: caller lookup failed: %v", err)
			_ = response.ServerError(c, "Failed to fetch enrollment")
		}
		return nil, nil, false
	}

	ident, _ := middleware.GetIdentity(c)
	isAdmin := adminOverride && ident.Roles.Has(auth.RoleAdmin)
	if !isAdmin && enrollment.User != caller.ID {
		_ = response.ValidationError(c, []string{"You can only access your own resources"})
		return nil, nil, false
	}

	return &enrollment, caller, true
}
