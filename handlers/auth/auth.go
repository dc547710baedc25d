package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/edupress/edu-platform-api/database"
	"github.com/edupress/edu-platform-api/model"
	"github.com/edupress/edu-platform-api/services/auth0"
	"github.com/edupress/edu-platform-api/services/device"
	authutil "github.com/edupress/edu-platform-api/utils/auth"
	"github.com/edupress/edu-platform-api/utils/middleware"
	"github.com/edupress/edu-platform-api/utils/response"
	"github.com/edupress/edu-platform-api/utils/validation"
)

// AuthHandler handles login, profile and device management. Token issuance
// and verification live on the identity provider; login only syncs the
// provider identity into the platform's user store.
type AuthHandler struct {
	store      database.Storage
	devices    *device.Service
	management *auth0.Client
	throttle   *middleware.LoginThrottle
	validator  *validation.Validator
}

// NewAuthHandler creates a new auth handler. management may be nil, in which
// case profile sync is skipped.
func NewAuthHandler(store database.Storage, devices *device.Service, management *auth0.Client, throttle *middleware.LoginThrottle) *AuthHandler {
	return &AuthHandler{
		store:      store,
		devices:    devices,
		management: management,
		throttle:   throttle,
		validator:  validation.NewValidator(),
	}
}

// LoginRequest is the payload for POST /api/auth/login. The caller is
// identified by the bearer token; the body only describes the device.
type LoginRequest struct {
	DeviceID   string           `json:"deviceId" validate:"required,min=8,max=128"`
	DeviceInfo model.DeviceInfo `json:"deviceInfo"`
}

// loginResponse carries the synced user record and the registered device.
type loginResponse struct {
	User   *model.User   `json:"user"`
	Device *model.Device `json:"device,omitempty"`
}

// profileResponse is the GET /api/auth/me payload.
type profileResponse struct {
	User    *model.User    `json:"user"`
	Devices []model.Device `json:"devices"`
}

// Login handles POST /api/auth/login: upserts the platform user for the
// token identity, syncs the provider profile, registers the login device
// against the device limit, and stamps lastLoginAt.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	ident, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if h.devices != nil {
		if errs := h.validator.Validate(&req); errs != nil {
			return response.ValidationError(c, errs)
		}
	}

	user, err := h.syncUser(c.Context(), ident)
	if err != nil {
		log.Errorf("auth: user sync failed for %s: %v", ident.Subject, err)
		h.throttle.RecordFailure(c)
		return response.ServerError(c, "Login failed")
	}

	if user.IsDisabled {
		h.throttle.RecordFailure(c)
		return response.Forbidden(c, "Account is disabled")
	}

	resp := loginResponse{User: user}
	if h.devices != nil {
		dev, err := h.devices.Register(c.Context(), user.ID, req.DeviceID, req.DeviceInfo)
		if err != nil {
			if err == device.ErrDeviceLimitReached {
				h.throttle.RecordFailure(c)
				return response.Forbidden(c,
					"Device limit reached. Please deactivate another device before logging in")
			}
			log.Errorf("auth: device registration failed for %s: %v", ident.Subject, err)
			return response.ServerError(c, "Login failed")
		}
		resp.Device = dev
	}

	// Mirror the synced platform state onto the provider record so the
	// tenant dashboard shows it. Failures are logged by the client and
	// fail the login rather than leaving the two sides disagreeing.
	if h.management != nil {
		metadata := map[string]interface{}{
			"username":    user.Username,
			"roles":       user.Roles,
			"lastLoginAt": user.LastLoginAt,
		}
		if _, err := h.management.UpdateUserMetadata(c.Context(), ident.Subject, metadata); err != nil {
			return response.ServerError(c, "Login failed")
		}
	}

	h.throttle.Reset(c)
	return response.Success(c, resp, "Login successful")
}

// Me handles GET /api/auth/me: the caller's platform profile and devices.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	ident, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	var user model.User
	if err := h.store.Users().FindOne(c.Context(), bson.M{"auth0Id": ident.Subject}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return response.NotFound(c, "User")
		}
		log.Errorf("auth: profile fetch failed for %s: %v", ident.Subject, err)
		return response.ServerError(c, "Failed to fetch profile")
	}

	devices := []model.Device{}
	if h.devices != nil {
		list, err := h.devices.ListForUser(c.Context(), user.ID)
		if err != nil {
			log.Errorf("auth: device list failed for %s: %v", ident.Subject, err)
			return response.ServerError(c, "Failed to fetch profile")
		}
		devices = list
	}

	return response.Success(c, profileResponse{User: &user, Devices: devices})
}

// RemoveDevice handles DELETE /api/auth/devices/:deviceId, freeing a slot
// for the device limit.
func (h *AuthHandler) RemoveDevice(c *fiber.Ctx) error {
	ident, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}
	if h.devices == nil {
		return response.NotFound(c, "Device")
	}

	var user model.User
	if err := h.store.Users().FindOne(c.Context(), bson.M{"auth0Id": ident.Subject}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return response.Unauthorized(c, "User not registered on the platform")
		}
		log.Errorf("auth: caller lookup failed: %v", err)
		return response.ServerError(c, "Failed to remove device")
	}

	if err := h.devices.Deactivate(c.Context(), user.ID, c.Params("deviceId")); err != nil {
		if err == mongo.ErrNoDocuments {
			return response.NotFound(c, "Device")
		}
		log.Errorf("auth: device deactivation failed: %v", err)
		return response.ServerError(c, "Failed to remove device")
	}

	return response.NoContent(c)
}

// syncUser upserts the platform user document for the token identity,
// filling email, name and picture from the provider profile. A Management
// API failure fails the sync; the client already logged it.
func (h *AuthHandler) syncUser(ctx context.Context, ident *authutil.Identity) (*model.User, error) {
	email := ident.Email
	name := ident.Name
	picture := ident.Picture
	if h.management != nil {
		profile, err := h.management.GetUser(ctx, ident.Subject)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch provider profile: %w", err)
		}
		if profile.Email != "" {
			email = profile.Email
		}
		if profile.Name != "" {
			name = profile.Name
		}
		if profile.Picture != "" {
			picture = profile.Picture
		}
	}

	now := time.Now().UTC()
	users := h.store.Users()

	set := bson.M{
		"lastLoginAt": now,
		"updatedAt":   now,
	}
	if email != "" {
		set["email"] = email
	}
	if name != "" {
		set["name"] = name
	}
	if picture != "" {
		set["picture"] = picture
	}
	if roles := ident.Roles.Strings(); len(roles) > 0 {
		set["roles"] = roles
	}

	var user model.User
	err := users.FindOneAndUpdate(ctx,
		bson.M{"auth0Id": ident.Subject},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err == nil {
		return &user, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	// First login: provision the platform account.
	user = model.User{
		Username:    usernameFor(email, ident.Subject),
		Email:       email,
		Auth0ID:     ident.Subject,
		Name:        name,
		Picture:     picture,
		Roles:       ident.Roles.Strings(),
		LastLoginAt: &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if len(user.Roles) == 0 {
		user.Roles = []string{authutil.RoleStudent.String()}
	}

	res, err := users.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Username collision with another account: retry with a
			// randomized suffix.
			user.Username = fmt.Sprintf("%s_%s", user.Username, uuid.NewString()[:8])
			res, err = users.InsertOne(ctx, user)
		}
		if err != nil {
			return nil, err
		}
	}
	user.ID = res.InsertedID.(primitive.ObjectID)
	return &user, nil
}

// usernameFor derives a username from the email local part, falling back to
// the provider subject when no usable email is present.
func usernameFor(email, subject string) string {
	base := subject
	if at := strings.IndexByte(email, '@'); at > 0 {
		base = email[:at]
	}

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	name := b.String()
	if len(name) < 3 {
		name = fmt.Sprintf("user_%s", uuid.NewString()[:8])
	}
	if len(name) > 30 {
		name = name[:30]
	}
	return name
}
