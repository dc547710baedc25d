package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a platform account. Authentication is delegated to the
// hosted identity provider; Auth0ID links the document to that identity.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Username    string             `bson:"username" json:"username"`
	Email       string             `bson:"email" json:"email"`
	Auth0ID     string             `bson:"auth0Id" json:"auth0Id"`
	Name        string             `bson:"name,omitempty" json:"name,omitempty"`
	Picture     string             `bson:"picture,omitempty" json:"picture,omitempty"`
	Roles       []string           `bson:"roles" json:"roles"`
	IsDisabled  bool               `bson:"isDisabled" json:"isDisabled"`
	LastLoginAt *time.Time         `bson:"lastLoginAt,omitempty" json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Device tracks a login device for the device-limit check.
type Device struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	User       primitive.ObjectID `bson:"user" json:"user"`
	DeviceID   string             `bson:"deviceId" json:"deviceId"`
	DeviceInfo DeviceInfo         `bson:"deviceInfo" json:"deviceInfo"`
	IsActive   bool               `bson:"isActive" json:"isActive"`
	LastUsedAt time.Time          `bson:"lastUsedAt" json:"lastUsedAt"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

// DeviceInfo is the opaque client-reported device description.
type DeviceInfo struct {
	UserAgent        string `bson:"userAgent" json:"userAgent"`
	Platform         string `bson:"platform" json:"platform"`
	Language         string `bson:"language" json:"language"`
	ScreenResolution string `bson:"screenResolution" json:"screenResolution"`
	Timezone         string `bson:"timezone" json:"timezone"`
	Fingerprint      string `bson:"fingerprint" json:"fingerprint"`
}
