// Package device tracks login devices per user and enforces the configured
// device limit at login time.
package device

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/edupress/edu-platform-api/database"
	"github.com/edupress/edu-platform-api/model"
)

// ErrDeviceLimitReached means the user already has the maximum number of
// active devices and the new device was not registered.
var ErrDeviceLimitReached = errors.New("device limit reached")

// Service manages device documents.
type Service struct {
	store database.Storage
	limit int
}

// NewService creates a device service enforcing the given active-device limit.
func NewService(store database.Storage, limit int) *Service {
	return &Service{store: store, limit: limit}
}

// Register records a login from the given device. A known device is
// reactivated and touched; a new one counts against the device limit.
func (s *Service) Register(ctx context.Context, userID primitive.ObjectID, deviceID string, info model.DeviceInfo) (*model.Device, error) {
	now := time.Now().UTC()
	devices := s.store.Devices()

	// Known device: touch and reactivate without a limit check.
	var existing model.Device
	err := devices.FindOneAndUpdate(ctx,
		bson.M{"user": userID, "deviceId": deviceID},
		bson.M{"$set": bson.M{
			"deviceInfo": info,
			"isActive":   true,
			"lastUsedAt": now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&existing)
	if err == nil {
		return &existing, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	active, err := devices.CountDocuments(ctx, bson.M{"user": userID, "isActive": true})
	if err != nil {
		return nil, err
	}
	if s.limit > 0 && active >= int64(s.limit) {
		return nil, ErrDeviceLimitReached
	}

	dev := model.Device{
		User:       userID,
		DeviceID:   deviceID,
		DeviceInfo: info,
		IsActive:   true,
		LastUsedAt: now,
		CreatedAt:  now,
	}
	res, err := devices.InsertOne(ctx, dev)
	if err != nil {
		return nil, err
	}
	dev.ID = res.InsertedID.(primitive.ObjectID)
	return &dev, nil
}

// ListForUser returns a user's devices, most recently used first.
func (s *Service) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]model.Device, error) {
	cur, err := s.store.Devices().Find(ctx,
		bson.M{"user": userID},
		options.Find().SetSort(bson.D{{Key: "lastUsedAt", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	devices := []model.Device{}
	if err := cur.All(ctx, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// Deactivate marks one of the user's devices inactive, freeing a slot.
func (s *Service) Deactivate(ctx context.Context, userID primitive.ObjectID, deviceID string) error {
	res, err := s.store.Devices().UpdateOne(ctx,
		bson.M{"user": userID, "deviceId": deviceID},
		bson.M{"$set": bson.M{"isActive": false}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// DeactivateStale marks devices unused since the cutoff as inactive and
// returns how many were swept.
func (s *Service) DeactivateStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.store.Devices().UpdateMany(ctx,
		bson.M{"isActive": true, "lastUsedAt": bson.M{"$lt": cutoff}},
		bson.M{"$set": bson.M{"isActive": false}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
