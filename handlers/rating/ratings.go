package rating

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

// RatingHandler handles course rating requests.
type RatingHandler struct {
	store     database.Storage
	validator *validation.Validator
}

// NewRatingHandler creates a new rating handler.
func NewRatingHandler(store database.Storage) *RatingHandler {
	return &RatingHandler{
		store:     store,
		validator: validation.NewValidator(),
	}
}

// CreateRatingRequest is the payload for rating a course.
type CreateRatingRequest struct {
	Rating  *int   `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"omitempty,min=10,max=500"`
	Course  string `json:"course" validate:"required,object_id"`
}

// UpdateRatingRequest is the payload for updating a rating; every field is
// optional and applied only when present.
type UpdateRatingRequest struct {
	Rating  *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,min=10,max=500"`
}

// courseRatings is the list payload: the page of ratings plus the course
// average over all of them.
type courseRatings struct {
	Ratings []model.Rating `json:"ratings"`
	Average float64        `json:"average"`
}

// CreateRating handles POST /api/ratings. Only enrolled students may rate,
// once per course.
func (h *RatingHandler) CreateRating(c *fiber.Ctx) error {
	var req CreateRatingRequest
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
		log.Errorf("ratings: caller lookup failed: %v", err)
		return response.ServerError(c, "Failed to create rating")
	}

	courseID, _ := primitive.ObjectIDFromHex(req.Course)
	enrolled, err := h.store.Enrollments().CountDocuments(c.Context(),
		bson.M{"user": caller.ID, "course": courseID})
	if err != nil {
		log.Errorf("ratings: enrollment check failed: %v", err)
		return response.ServerError(c, "Failed to create rating")
	}
	if enrolled == 0 {
		return response.ValidationError(c, []string{"You can only rate courses you are enrolled in"})
	}

	now := time.Now().UTC()
	rating := model.Rating{
		User:      caller.ID,
		Course:    courseID,
		Rating:    *req.Rating,
		Comment:   req.Comment,
		CreatedAt: now,
		UpdatedAt: now,
	}

	res, err := h.store.Ratings().InsertOne(c.Context(), rating)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return response.ValidationError(c, []string{"You have already rated this course"})
		}
		log.Errorf("ratings: insert failed: %v", err)
		return response.ServerError(c, "Failed to create rating")
	}
	rating.ID = res.InsertedID.(primitive.ObjectID)

	return response.Created(c, rating)
}

// ListByCourse handles GET /api/ratings?course=<id>: a public page of
// ratings with the course average.
func (h *RatingHandler) ListByCourse(c *fiber.Ctx) error {
	courseID, err := primitive.ObjectIDFromHex(c.Query("course"))
	if err != nil {
		return response.ValidationError(c, []string{"Course ID must be a valid document ID"})
	}

	p := query.ParsePagination(c)
	sort := query.ParseSort(c, "createdAt")
	filter := bson.M{"course": courseID}

	total, err := h.store.Ratings().CountDocuments(c.Context(), filter)
	if err != nil {
		log.Errorf("ratings: count failed: %v", err)
		return response.ServerError(c, "Failed to fetch ratings")
	}

	cur, err := h.store.Ratings().Find(c.Context(), filter, query.FindOptions(p, sort))
	if err != nil {
		log.Errorf("ratings: find failed: %v", err)
		return response.ServerError(c, "Failed to fetch ratings")
	}
	defer cur.Close(c.Context())

	ratings := []model.Rating{}
	if err := cur.All(c.Context(), &ratings); err != nil {
		log.Errorf("ratings: decode failed: %v", err)
		return response.ServerError(c, "Failed to fetch ratings")
	}

	average, err := h.courseAverage(c, courseID)
	if err != nil {
		log.Errorf("ratings: average failed: %v", err)
		return response.ServerError(c, "Failed to fetch ratings")
	}

	return response.Paginated(c, courseRatings{Ratings: ratings, Average: average},
		p.Page, p.Limit, total)
}

func (h *RatingHandler) courseAverage(c *fiber.Ctx, courseID primitive.ObjectID) (float64, error) {
	cur, err := h.store.Ratings().Aggregate(c.Context(), mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"course": courseID}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"average": bson.M{"$avg": "$rating"},
		}}},
	})
	if err != nil {
		return 0, err
	}
	defer cur.Close(c.Context())

	var results []struct {
		Average float64 `bson:"average"`
	}
	if err := cur.All(c.Context(), &results); err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Average, nil
}

// UpdateRating handles PUT /api/ratings/:id (rating owner or admin).
func (h *RatingHandler) UpdateRating(c *fiber.Ctx) error {
	rating, ok := h.loadOwned(c)
	if !ok {
		return nil
	}

	var req UpdateRatingRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if errs := h.validator.Validate(&req); errs != nil {
		return response.ValidationError(c, errs)
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if req.Rating != nil {
		set["rating"] = *req.Rating
	}
	if req.Comment != nil {
		set["comment"] = *req.Comment
	}

	var updated model.Rating
	if err := h.store.Ratings().FindOneAndUpdate(c.Context(),
		bson.M{"_id": rating.ID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated); err != nil {
		log.Errorf("ratings: update failed: %v", err)
		return response.ServerError(c, "Failed to update rating")
	}

	return response.Success(c, updated, "Rating updated successfully")
}

// DeleteRating handles DELETE /api/ratings/:id (rating owner or admin).
func (h *RatingHandler) DeleteRating(c *fiber.Ctx) error {
	rating, ok := h.loadOwned(c)
	if !ok {
		return nil
	}

	if _, err := h.store.Ratings().DeleteOne(c.Context(), bson.M{"_id": rating.ID}); err != nil {
		log.Errorf("ratings: delete failed: %v", err)
		return response.ServerError(c, "Failed to delete rating")
	}

	return response.NoContent(c)
}

// loadOwned fetches the rating and enforces the authoritative owner-or-admin
// check against the stored record. When it returns false the rejection has
// already been written.
func (h *RatingHandler) loadOwned(c *fiber.Ctx) (*model.Rating, bool) {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		_ = response.ValidationError(c, []string{"ID must be a valid document ID"})
		return nil, false
	}

	var rating model.Rating
	if err := h.store.Ratings().FindOne(c.Context(), bson.M{"_id": id}).Decode(&rating); err != nil {
		if err == mongo.ErrNoDocuments {
			_ = response.NotFound(c, "Rating")
		} else {
			log.Errorf("ratings: fetch failed: %v", err)
			_ = response.ServerError(c, "Failed to fetch rating")
		}
		return nil, false
	}

	caller, err := handlers.CurrentUser(c, h.store)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			_ = response.Unauthorized(c, "User not registered on the platform")
		} else {
			log.Errorf("ratings: caller lookup failed: %v", err)
			_ = response.ServerError(c, "Failed to fetch rating")
		}
		return nil, false
	}

	ident, _ := middleware.GetIdentity(c)
	if !ident.Roles.Has(auth.RoleAdmin) && rating.User != caller.ID {
		_ = response.ValidationError(c, []string{"You can only access your own resources"})
		return nil, false
	}

	return &rating, true
}
