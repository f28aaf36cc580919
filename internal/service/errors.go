package service

import (
	"context"
	"errors"
	"fmt"

	"alcyxob/photo-portfolio/internal/domain"
	"alcyxob/photo-portfolio/internal/repository"
)

// --- Error Definitions ---
var (
	ErrInvalidSlug      = errors.New("invalid slug")
	ErrReservedSlug     = errors.New("slug is reserved")
	ErrUploadNotFound   = errors.New("upload not found")
	ErrUploadExists     = errors.New("an upload with this slug already exists")
	ErrUploadExpired    = errors.New("upload has expired")
	ErrFileNotFound     = errors.New("file not found")
	ErrInvalidFilename  = errors.New("invalid filename")
	ErrDuplicateFile    = errors.New("duplicate file name")
	ErrNoFiles          = errors.New("at least one file is required")
	ErrRatingsDisabled  = errors.New("ratings are disabled for this upload")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrCategoryNotFound = errors.New("category not found")
)

// loadUpload validates the slug and fetches its metadata document.
func loadUpload(ctx context.Context, repo repository.UploadRepository, slug string) (*domain.Upload, error) {
	if !ValidSlug(slug) {
		return nil, ErrInvalidSlug
	}
	upload, err := repo.Get(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUploadNotFound
		}
		return nil, fmt.Errorf("load upload %q: %w", slug, err)
	}
	return upload, nil
}
