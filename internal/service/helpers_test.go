package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"alcyxob/photo-portfolio/internal/domain"
	"alcyxob/photo-portfolio/internal/repository"
	"alcyxob/photo-portfolio/internal/storage"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var testNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// putObject stores a small text object under key.
func putObject(t *testing.T, store storage.ObjectStorage, key, body string) {
	t.Helper()
	require.NoError(t, store.PutObject(context.Background(), key, strings.NewReader(body), int64(len(body)), ""))
}

// seedUpload stores the files of u and its metadata document.
func seedUpload(t *testing.T, store storage.ObjectStorage, repo repository.UploadRepository, u *domain.Upload) {
	t.Helper()
	for i, f := range u.Files {
		body := strings.Repeat("x", int(f.Size))
		putObject(t, store, domain.FileKey(u.Slug, f.Name), body)
		if u.Files[i].Key == "" {
			u.Files[i].Key = domain.FileKey(u.Slug, f.Name)
		}
	}
	require.NoError(t, repo.Save(context.Background(), u))
}

// --- in-memory Mongo repository fakes ---

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[primitive.ObjectID]domain.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[primitive.ObjectID]domain.Product{}}
}

func (r *fakeProductRepo) Create(ctx context.Context, p *domain.Product) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = primitive.NewObjectID()
	r.products[p.ID] = *p
	return p.ID, nil
}

func (r *fakeProductRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *fakeProductRepo) ListActive(ctx context.Context) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Product
	for _, p := range r.products {
		if p.Active {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PriceCents < out[j].PriceCents })
	return out, nil
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[primitive.ObjectID]domain.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[primitive.ObjectID]domain.Order{}}
}

func (r *fakeOrderRepo) Create(ctx context.Context, o *domain.Order) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o.ID = primitive.NewObjectID()
	r.orders[o.ID] = *o
	return o.ID, nil
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (r *fakeOrderRepo) List(ctx context.Context, limit int64) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Order
	for _, o := range r.orders {
		out = append(out, o)
	}
	return out, nil
}

func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	o.Status = status
	r.orders[id] = o
	return nil
}

type fakeContactRepo struct {
	messages []domain.ContactMessage
}

func (r *fakeContactRepo) Create(ctx context.Context, msg *domain.ContactMessage) (primitive.ObjectID, error) {
	msg.ID = primitive.NewObjectID()
	r.messages = append(r.messages, *msg)
	return msg.ID, nil
}

func (r *fakeContactRepo) List(ctx context.Context, limit int64) ([]domain.ContactMessage, error) {
	return r.messages, nil
}
