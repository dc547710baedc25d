package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CourseLevels is the closed set of accepted course difficulty names,
// localized Arabic names first.
var CourseLevels = []string{"مبتدئ", "متوسط", "متقدم", "beginner", "intermediate", "advanced"}

// IsValidCourseLevel reports whether level is one of the accepted names.
func IsValidCourseLevel(level string) bool {
	for _, l := range CourseLevels {
		if level == l {
			return true
		}
	}
	return false
}

// Course is a published or draft course. Instructor and CreatedBy hold
// opaque references resolved on read, never embedded documents.
type Course struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Category    string             `bson:"category" json:"category"`
	Level       string             `bson:"level" json:"level"`
	Price       float64            `bson:"price" json:"price"`
	Duration    int                `bson:"duration,omitempty" json:"duration,omitempty"`
	Thumbnail   string             `bson:"thumbnail,omitempty" json:"thumbnail,omitempty"`
	Tags        []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	Instructor  primitive.ObjectID `bson:"instructor" json:"instructor"`
	IsPublished bool               `bson:"isPublished" json:"isPublished"`
	MaxStudents int                `bson:"maxStudents,omitempty" json:"maxStudents,omitempty"`
	CreatedBy   primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	UpdatedBy   primitive.ObjectID `bson:"updatedBy" json:"updatedBy"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Lesson belongs to a course and is sequenced by Order, unique per course.
type Lesson struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Content     string             `bson:"content,omitempty" json:"content,omitempty"`
	Duration    int                `bson:"duration" json:"duration"`
	Order       int                `bson:"order" json:"order"`
	Course      primitive.ObjectID `bson:"course" json:"course"`
	VideoURL    string             `bson:"videoUrl,omitempty" json:"videoUrl,omitempty"`
	Resources   []string           `bson:"resources,omitempty" json:"resources,omitempty"`
	IsPublished bool               `bson:"isPublished" json:"isPublished"`
	CreatedBy   primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	UpdatedBy   primitive.ObjectID `bson:"updatedBy" json:"updatedBy"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
