package objectstore

import (
	"context"
	"strings"
	"testing"
	"time"

	"alcyxob/photo-portfolio/internal/domain"
	"alcyxob/photo-portfolio/internal/repository"
	"alcyxob/photo-portfolio/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadRepository_SaveGet(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	repo := NewUploadRepository(store)

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	upload := &domain.Upload{
		Slug:      "smith-wedding",
		Title:     "Smith Wedding",
		CreatedAt: created,
		Files: []domain.FileDescriptor{
			{Name: "a.jpg", Key: domain.FileKey("smith-wedding", "a.jpg"), Size: 10, Type: "image/jpeg"},
		},
		Ratings: map[string]bool{"uploads/smith-wedding/a.jpg": true},
	}
	require.NoError(t, repo.Save(ctx, upload))

	_, err := store.StatObject(ctx, "uploads/smith-wedding/metadata.json")
	require.NoError(t, err)

	got, err := repo.Get(ctx, "smith-wedding")
	require.NoError(t, err)
	assert.Equal(t, "Smith Wedding", got.Title)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.Len(t, got.Files, 1)
	assert.True(t, got.IsRated("uploads/smith-wedding/a.jpg"))
}

func TestUploadRepository_GetMissing(t *testing.T) {
	repo := NewUploadRepository(storage.NewMemoryStorage())
	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUploadRepository_GetFillsDefaults(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	doc := `{"title":"Hand written","files":[]}`
	require.NoError(t, store.PutObject(ctx, "uploads/manual/metadata.json", strings.NewReader(doc), int64(len(doc)), "application/json"))

	got, err := NewUploadRepository(store).Get(ctx, "manual")
	require.NoError(t, err)
	assert.Equal(t, "manual", got.Slug)
	assert.NotNil(t, got.Ratings)
}

func TestUploadRepository_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	repo := NewUploadRepository(store)

	for _, slug := range []string{"b-gallery", "a-gallery"} {
		require.NoError(t, repo.Save(ctx, &domain.Upload{Slug: slug, Title: slug}))
	}
	// A file without metadata must not be reported as an upload
	require.NoError(t, store.PutObject(ctx, "uploads/orphan/x.jpg", strings.NewReader("x"), 1, "image/jpeg"))
	// Neither must nested objects named like metadata
	require.NoError(t, store.PutObject(ctx, "uploads/a-gallery/sub/metadata.json", strings.NewReader("{}"), 2, "application/json"))

	slugs, err := repo.ListSlugs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a-gallery", "b-gallery"}, slugs)

	uploads, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, uploads, 2)
	assert.Equal(t, "a-gallery", uploads[0].Slug)

	require.NoError(t, repo.Delete(ctx, "a-gallery"))
	assert.ErrorIs(t, repo.Delete(ctx, "a-gallery"), repository.ErrNotFound)

	slugs, err = repo.ListSlugs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b-gallery"}, slugs)
}

func TestUploadRepository_SaveRequiresSlug(t *testing.T) {
	repo := NewUploadRepository(storage.NewMemoryStorage())
	assert.Error(t, repo.Save(context.Background(), &domain.Upload{}))
}

func TestGalleryOrderRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGalleryOrderRepository(storage.NewMemoryStorage())

	order, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, order)

	require.NoError(t, repo.Save(ctx, domain.GalleryOrder{"weddings": {"b.jpg", "a.jpg"}}))
	order, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.jpg", "a.jpg"}, order["weddings"])
}
