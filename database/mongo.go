package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Storage is the document-store handle handed to routers and handlers.
type Storage interface {
	Init(ctx context.Context) error
	DB() *mongo.Database
	Close(ctx context.Context) error

	Users() *mongo.Collection
	Devices() *mongo.Collection
	Courses() *mongo.Collection
	Lessons() *mongo.Collection
	Enrollments() *mongo.Collection
	Ratings() *mongo.Collection
}

// MongoStore is the MongoDB-backed Storage implementation.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// StartMongo connects to MongoDB and pings it before returning.
func StartMongo(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(100).
		SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		log.Println("Unable to connect to MongoDB:", err)
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	log.Println("Successfully connected to MongoDB.")

	return &MongoStore{
		client: client,
		db:     client.Database(dbName),
	}, nil
}

// Init creates the indexes the entity invariants rely on.
func (s *MongoStore) Init(ctx context.Context) error {
	log.Println("Ensuring MongoDB indexes...")

	unique := options.Index().SetUnique(true)

	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.Users(): {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "auth0Id", Value: 1}}, Options: unique},
		},
		s.Devices(): {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "deviceId", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "isActive", Value: 1}}},
		},
		s.Courses(): {
			{Keys: bson.D{{Key: "instructor", Value: 1}}},
			{Keys: bson.D{{Key: "category", Value: 1}}},
			{Keys: bson.D{{Key: "isPublished", Value: 1}}},
		},
		s.Lessons(): {
			{Keys: bson.D{{Key: "course", Value: 1}, {Key: "order", Value: 1}}, Options: unique},
		},
		s.Enrollments(): {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "course", Value: 1}}, Options: unique},
		},
		s.Ratings(): {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "course", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "course", Value: 1}}},
		},
	}

	for coll, models := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}

// DB exposes the underlying database handle.
func (s *MongoStore) DB() *mongo.Database {
	return s.db
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) Users() *mongo.Collection       { return s.db.Collection("users") }
func (s *MongoStore) Devices() *mongo.Collection     { return s.db.Collection("devices") }
func (s *MongoStore) Courses() *mongo.Collection     { return s.db.Collection("courses") }
func (s *MongoStore) Lessons() *mongo.Collection     { return s.db.Collection("lessons") }
func (s *MongoStore) Enrollments() *mongo.Collection { return s.db.Collection("enrollments") }
func (s *MongoStore) Ratings() *mongo.Collection     { return s.db.Collection("ratings") }
