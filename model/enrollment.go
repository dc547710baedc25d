package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Enrollment ties a user to a course, one per (user, course) pair.
// Progress stays within [0,100] and is recomputed from CompletedLessons.
type Enrollment struct {
	ID                  primitive.ObjectID   `bson:"_id,omitempty" json:"_id,omitempty"`
	User                primitive.ObjectID   `bson:"user" json:"user"`
	Course              primitive.ObjectID   `bson:"course" json:"course"`
	EnrolledAt          time.Time            `bson:"enrolledAt" json:"enrolledAt"`
	Progress            float64              `bson:"progress" json:"progress"`
	CompletedLessons    []primitive.ObjectID `bson:"completedLessons" json:"completedLessons"`
	LastAccessedAt      *time.Time           `bson:"lastAccessedAt,omitempty" json:"lastAccessedAt,omitempty"`
	CertificateIssued   bool                 `bson:"certificateIssued" json:"certificateIssued"`
	CertificateIssuedAt *time.Time           `bson:"certificateIssuedAt,omitempty" json:"certificateIssuedAt,omitempty"`
}

// Rating is a user's review of a course, one per (user, course) pair.
type Rating struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Course    primitive.ObjectID `bson:"course" json:"course"`
	Rating    int                `bson:"rating" json:"rating"`
	Comment   string             `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
