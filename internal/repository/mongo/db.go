package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// Collection names
const (
	productCollectionName = "products"
	orderCollectionName   = "orders"
	contactCollectionName = "contact_messages"
)

// ConnectDB establishes a connection to MongoDB using the provided URI
// and verifies it with a ping against the primary.
func ConnectDB(ctx context.Context, uri string) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}

	// The initial connection might succeed while the server is unresponsive
	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every shop and contact collection.
// Failures are logged, not fatal: the server works without them, only slower.
func EnsureIndexes(ctx context.Context, db *mongo.Database, log *logrus.Logger) {
	ensure := func(name string, models []mongo.IndexModel) {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			log.WithError(err).WithField("collection", name).Warn("failed to create indexes")
		}
	}
	ensure(productCollectionName, productIndexes())
	ensure(orderCollectionName, orderIndexes())
	ensure(contactCollectionName, contactIndexes())
}
