// Package handlers holds the health endpoint and helpers shared by the
// per-entity handler packages.
package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/edupress/edu-platform-api/database"
	"github.com/edupress/edu-platform-api/model"
	"github.com/edupress/edu-platform-api/utils/middleware"
)

// CurrentUser resolves the authenticated caller's platform user document by
// the identity subject. Returns mongo.ErrNoDocuments when the caller has a
// valid token but no platform account yet (i.e. has never logged in).
func CurrentUser(c *fiber.Ctx, store database.Storage) (*model.User, error) {
	ident, ok := middleware.GetIdentity(c)
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	var user model.User
	err := store.Users().FindOne(c.Context(), bson.M{"auth0Id": ident.Subject}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
