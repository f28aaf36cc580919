package repository

import (
	"context"

	"alcyxob/photo-portfolio/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound      = RepositoryError("not found")
	ErrUpdateFailed  = RepositoryError("update failed")
	ErrAlreadyExists = RepositoryError("already exists")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UploadRepository reads and writes the per-slug metadata documents.
// There is no concurrency control: the last Save wins.
type UploadRepository interface {
	Get(ctx context.Context, slug string) (*domain.Upload, error)
	Save(ctx context.Context, upload *domain.Upload) error
	// Delete removes only the metadata document, not the delivered files.
	Delete(ctx context.Context, slug string) error
	List(ctx context.Context) ([]domain.Upload, error)
	ListSlugs(ctx context.Context) ([]string, error)
}

// GalleryOrderRepository stores the single gallery ordering document.
type GalleryOrderRepository interface {
	// Get returns an empty order when none has been saved yet.
	Get(ctx context.Context) (domain.GalleryOrder, error)
	Save(ctx context.Context, order domain.GalleryOrder) error
}

// ProductRepository defines the interface for print-shop products.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Product, error)
	ListActive(ctx context.Context) ([]domain.Product, error)
}

// OrderRepository defines the interface for captured orders.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Order, error)
	List(ctx context.Context, limit int64) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.OrderStatus) error
}

// ContactRepository stores contact form submissions.
type ContactRepository interface {
	Create(ctx context.Context, msg *domain.ContactMessage) (primitive.ObjectID, error)
	List(ctx context.Context, limit int64) ([]domain.ContactMessage, error)
}

// CartRepository stores visitor carts with an expiry.
type CartRepository interface {
	Get(ctx context.Context, id string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, id string) error
}
