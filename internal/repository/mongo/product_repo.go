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

// mongoProductRepository implements repository.ProductRepository
type mongoProductRepository struct {
	collection *mongo.Collection
}

// NewMongoProductRepository creates a new Product repository backed by MongoDB.
func NewMongoProductRepository(db *mongo.Database) repository.ProductRepository {
	return &mongoProductRepository{
		collection: db.Collection(productCollectionName),
	}
}

// Create inserts a new product.
func (r *mongoProductRepository) Create(ctx context.Context, product *domain.Product) (primitive.ObjectID, error) {
	if product.Name == "" || product.PriceCents <= 0 || product.Currency == "" {
		return primitive.NilObjectID, errors.New("product requires name, positive price and currency")
	}

	product.ID = primitive.NewObjectID()
	product.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, product)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves a product by its ID.
func (r *mongoProductRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Product, error) {
	var product domain.Product
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// ListActive returns the products currently on sale, cheapest first.
func (r *mongoProductRepository) ListActive(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	findOptions := options.Find().SetSort(bson.D{{Key: "priceCents", Value: 1}, {Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"active": true}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func productIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "active", Value: 1}, {Key: "priceCents", Value: 1}}},
	}
}
