// Package objectstore implements repositories that keep JSON documents
// in the object store next to the files they describe.
package objectstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"alcyxob/photo-portfolio/internal/domain"
	"alcyxob/photo-portfolio/internal/repository"
	"alcyxob/photo-portfolio/internal/storage"
)

const jsonContentType = "application/json"

// uploadRepository implements repository.UploadRepository
type uploadRepository struct {
	store storage.ObjectStorage
}

// NewUploadRepository creates a metadata store keyed by slug.
func NewUploadRepository(store storage.ObjectStorage) repository.UploadRepository {
	return &uploadRepository{store: store}
}

// Get loads the metadata document of a slug.
func (r *uploadRepository) Get(ctx context.Context, slug string) (*domain.Upload, error) {
	var upload domain.Upload
	if err := getJSON(ctx, r.store, domain.MetadataKey(slug), &upload); err != nil {
		return nil, err
	}
	if upload.Ratings == nil {
		upload.Ratings = map[string]bool{}
	}
	// Documents written by hand may omit the slug
	if upload.Slug == "" {
		upload.Slug = slug
	}
	return &upload, nil
}

// Save overwrites the metadata document of upload.Slug.
func (r *uploadRepository) Save(ctx context.Context, upload *domain.Upload) error {
	if upload.Slug == "" {
		return errors.New("upload requires a slug")
	}
	return putJSON(ctx, r.store, domain.MetadataKey(upload.Slug), upload)
}

// Delete removes the metadata document of a slug.
func (r *uploadRepository) Delete(ctx context.Context, slug string) error {
	key := domain.MetadataKey(slug)
	if _, err := r.store.StatObject(ctx, key); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return repository.ErrNotFound
		}
		return err
	}
	return r.store.DeleteObject(ctx, key)
}

// ListSlugs returns the slugs that have a metadata document, sorted.
func (r *uploadRepository) ListSlugs(ctx context.Context) ([]string, error) {
	objects, err := r.store.ListObjects(ctx, domain.UploadsPrefix)
	if err != nil {
		return nil, err
	}

	var slugs []string
	for _, obj := range objects {
		if slug, ok := slugFromMetadataKey(obj.Key); ok {
			slugs = append(slugs, slug)
		}
	}
	return slugs, nil
}

// List loads every metadata document. Documents that vanish between the
// listing and the read are skipped.
func (r *uploadRepository) List(ctx context.Context) ([]domain.Upload, error) {
	slugs, err := r.ListSlugs(ctx)
	if err != nil {
		return nil, err
	}

	uploads := make([]domain.Upload, 0, len(slugs))
	for _, slug := range slugs {
		upload, err := r.Get(ctx, slug)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("load metadata for %q: %w", slug, err)
		}
		uploads = append(uploads, *upload)
	}
	return uploads, nil
}

// slugFromMetadataKey extracts the slug from uploads/{slug}/metadata.json.
func slugFromMetadataKey(key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, domain.UploadsPrefix)
	if !ok {
		return "", false
	}
	slug, name, ok := strings.Cut(rest, "/")
	if !ok || slug == "" || name != domain.MetadataFileName {
		return "", false
	}
	return slug, true
}

func getJSON(ctx context.Context, store storage.ObjectStorage, key string, v any) error {
	rc, _, err := store.GetObject(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return repository.ErrNotFound
		}
		return err
	}
	defer rc.Close()

	if err := json.NewDecoder(rc).Decode(v); err != nil {
		return fmt.Errorf("decode %q: %w", key, err)
	}
	return nil
}

func putJSON(ctx context.Context, store storage.ObjectStorage, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return store.PutObject(ctx, key, bytes.NewReader(data), int64(len(data)), jsonContentType)
}
