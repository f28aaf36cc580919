// Package redis implements the visitor cart store on Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"alcyxob/photo-portfolio/internal/domain"
	"alcyxob/photo-portfolio/internal/repository"

	"github.com/go-redis/redis/v8"
)

// CartKey is the key pattern of a cart: cart:{cartID}
const CartKey = "cart:%s"

// DefaultCartTTL applies when no TTL is configured.
const DefaultCartTTL = 7 * 24 * time.Hour

type cartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartRepository stores carts as JSON strings that expire after ttl of inactivity.
func NewCartRepository(client *redis.Client, ttl time.Duration) repository.CartRepository {
	if ttl <= 0 {
		ttl = DefaultCartTTL
	}
	return &cartRepository{client: client, ttl: ttl}
}

// Get returns repository.ErrNotFound for unknown or expired carts.
func (r *cartRepository) Get(ctx context.Context, id string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, fmt.Sprintf(CartKey, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("decode cart %q: %w", id, err)
	}
	return &cart, nil
}

// Save writes the cart and refreshes its TTL.
func (r *cartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	if cart.ID == "" {
		return errors.New("cart requires an id")
	}
	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, fmt.Sprintf(CartKey, cart.ID), data, r.ttl).Err()
}

func (r *cartRepository) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, fmt.Sprintf(CartKey, id)).Err()
}

// Connect creates a Redis client and verifies the connection.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return client, nil
}
