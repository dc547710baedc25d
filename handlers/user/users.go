package user

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/edupress/edu-platform-api/database"
	"github.com/edupress/edu-platform-api/model"
	"github.com/edupress/edu-platform-api/utils/auth"
	"github.com/edupress/edu-platform-api/utils/middleware"
	"github.com/edupress/edu-platform-api/utils/query"
	"github.com/edupress/edu-platform-api/utils/response"
	"github.com/edupress/edu-platform-api/utils/validation"
)

// UserHandler handles user management requests.
type UserHandler struct {
	store     database.Storage
	validator *validation.Validator
}

// NewUserHandler creates a new user handler.
func NewUserHandler(store database.Storage) *UserHandler {
	return &UserHandler{
		store:     store,
		validator: validation.NewValidator(),
	}
}

// CreateUserRequest is the payload for creating a user.
type CreateUserRequest struct {
	Username string   `json:"username" validate:"required,min=3,max=30,username_chars"`
	Email    string   `json:"email" validate:"required,email"`
	Auth0ID  string   `json:"auth0Id" validate:"required"`
	Name     string   `json:"name" validate:"omitempty,min=2,max=100"`
	Roles    []string `json:"roles" validate:"omitempty,min=1,dive,role"`
}

// UpdateUserRequest is the payload for updating a user; every field is
// optional and applied only when present.
type UpdateUserRequest struct {
	Username   *string  `json:"username" validate:"omitempty,min=3,max=30,username_chars"`
	Email      *string  `json:"email" validate:"omitempty,email"`
	Name       *string  `json:"name" validate:"omitempty,min=2,max=100"`
	Roles      []string `json:"roles" validate:"omitempty,min=1,dive,role"`
	IsDisabled *bool    `json:"isDisabled"`
}

// ListUsers handles GET /api/users (admin only).
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	p := query.ParsePagination(c)
	sort := query.ParseSort(c, "createdAt")
	filter := query.ParseSearch(c, "username", "email", "name")

	total, err := h.store.Users().CountDocuments(c.Context(), filter)
	if err != nil {
		log.Errorf("users: count failed: %v", err)
		return response.ServerError(c, "Failed to fetch users")
	}

	cur, err := h.store.Users().Find(c.Context(), filter, query.FindOptions(p, sort))
	if err != nil {
		log.Errorf("users: find failed: %v", err)
		return response.ServerError(c, "Failed to fetch users")
	}
	defer cur.Close(c.Context())

	users := []model.User{}
	if err := cur.All(c.Context(), &users); err != nil {
		log.Errorf("users: decode failed: %v", err)
		return response.ServerError(c, "Failed to fetch users")
	}

	return response.Paginated(c, users, p.Page, p.Limit, total)
}

// GetUser handles GET /api/users/:id. Non-admins may only fetch themselves.
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return response.ValidationError(c, []string{"ID must be a valid document ID"})
	}

	var user model.User
	if err := h.store.Users().FindOne(c.Context(), bson.M{"_id": id}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return response.NotFound(c, "User")
		}
		log.Errorf("users: fetch failed: %v", err)
		return response.ServerError(c, "Failed to fetch user")
	}

	ident, _ := middleware.GetIdentity(c)
	if !ident.Roles.Has(auth.RoleAdmin) && user.Auth0ID != ident.Subject {
		return response.ValidationError(c, []string{"You can only access your own resources"})
	}

	return response.Success(c, user)
}

// CreateUser handles POST /api/users (admin only).
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if errs := h.validator.Validate(&req); errs != nil {
		return response.ValidationError(c, errs)
	}

	roles := req.Roles
	if len(roles) == 0 {
		roles = []string{auth.RoleStudent.String()}
	}

	now := time.Now().UTC()
	user := model.User{
		Username:  req.Username,
		Email:     req.Email,
		Auth0ID:   req.Auth0ID,
		Name:      req.Name,
		Roles:     roles,
		CreatedAt: now,
		UpdatedAt: now,
	}

	res, err := h.store.Users().InsertOne(c.Context(), user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return response.ValidationError(c, []string{"Username or email already exists"})
		}
		log.Errorf("users: insert failed: %v", err)
		return response.ServerError(c, "Failed to create user")
	}
	user.ID = res.InsertedID.(primitive.ObjectID)

	return response.Created(c, user)
}

// UpdateUser handles PUT /api/users/:id. Users may update their own profile;
// only admins may change roles or the disabled flag.
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return response.ValidationError(c, []string{"ID must be a valid document ID"})
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if errs := h.validator.Validate(&req); errs != nil {
		return response.ValidationError(c, errs)
	}

	var target model.User
	if err := h.store.Users().FindOne(c.Context(), bson.M{"_id": id}).Decode(&target); err != nil {
		if err == mongo.ErrNoDocuments {
			return response.NotFound(c, "User")
		}
		log.Errorf("users: fetch failed: %v", err)
		return response.ServerError(c, "Failed to update user")
	}

	ident, _ := middleware.GetIdentity(c)
	isAdmin := ident.Roles.Has(auth.RoleAdmin)
	if !isAdmin && target.Auth0ID != ident.Subject {
		return response.ValidationError(c, []string{"You can only access your own resources"})
	}
	if !isAdmin && (req.Roles != nil || req.IsDisabled != nil) {
		return response.Forbidden(c, "Only admins may change roles or account status")
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if req.Username != nil {
		set["username"] = *req.Username
	}
	if req.Email != nil {
		set["email"] = *req.Email
	}
	if req.Name != nil {
		set["name"] = *req.Name
	}
	if req.Roles != nil {
		set["roles"] = req.Roles
	}
	if req.IsDisabled != nil {
		set["isDisabled"] = *req.IsDisabled
	}

	if err := h.store.Users().FindOneAndUpdate(c.Context(),
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&target); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return response.ValidationError(c, []string{"Username or email already exists"})
		}
		log.Errorf("users: update failed: %v", err)
		return response.ServerError(c, "Failed to update user")
	}

	return response.Success(c, target, "User updated successfully")
}

// DeleteUser handles DELETE /api/users/:id (admin only).
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return response.ValidationError(c, []string{"ID must be a valid document ID"})
	}

	res, err := h.store.Users().DeleteOne(c.Context(), bson.M{"_id": id})
	if err != nil {
		log.Errorf("users: delete failed: %v", err)
		return response.ServerError(c, "Failed to delete user")
	}
	if res.DeletedCount == 0 {
		return response.NotFound(c, "User")
	}

	return response.NoContent(c)
}
