package mongo

import (
	"context"
	"errors"
	"time"

	"alcyxob/photo-portfolio/internal/domain"
	"alcyxob/photo-portfolio/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoContactRepository struct {
	collection *mongo.Collection
}

// NewMongoContactRepository creates a contact message repository backed by MongoDB.
func NewMongoContactRepository(db *mongo.Database) repository.ContactRepository {
	return &mongoContactRepository{
		collection: db.Collection(contactCollectionName),
	}
}

func (r *mongoContactRepository) Create(ctx context.Context, msg *domain.ContactMessage) (primitive.ObjectID, error) {
	if msg.Email == "" || msg.Message == "" {
		return primitive.NilObjectID, errors.New("contact message requires email and message")
	}

	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, msg)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

func (r *mongoContactRepository) List(ctx context.Context, limit int64) ([]domain.ContactMessage, error) {
	var messages []domain.ContactMessage
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func contactIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}
}
