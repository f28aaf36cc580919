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

// mongoOrderRepository implements repository.OrderRepository
type mongoOrderRepository struct {
	collection *mongo.Collection
}

// NewMongoOrderRepository creates a new Order repository backed by MongoDB.
func NewMongoOrderRepository(db *mongo.Database) repository.OrderRepository {
	return &mongoOrderRepository{
		collection: db.Collection(orderCollectionName),
	}
}

// Create inserts a captured order.
func (r *mongoOrderRepository) Create(ctx context.Context, order *domain.Order) (primitive.ObjectID, error) {
	if len(order.Items) == 0 || order.CustomerEmail == "" {
		return primitive.NilObjectID, errors.New("order requires items and a customer email")
	}

	order.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now
	if order.Status == "" {
		order.Status = domain.OrderStatusPending
	}

	result, err := r.collection.InsertOne(ctx, order)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves an order by its ID.
func (r *mongoOrderRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Order, error) {
	var order domain.Order
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// List returns the most recent orders first. limit <= 0 means no limit.
func (r *mongoOrderRepository) List(ctx context.Context, limit int64) ([]domain.Order, error) {
	var orders []domain.Order
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus moves an order to a new status.
func (r *mongoOrderRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.OrderStatus) error {
	update := bson.M{
		"$set": bson.M{
			"status":    status,
			"updatedAt": time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func orderIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "customerEmail", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}
}
