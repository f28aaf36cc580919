package objectstore

import (
	"context"
	"errors"

	"alcyxob/photo-portfolio/internal/domain"
	"alcyxob/photo-portfolio/internal/repository"
	"alcyxob/photo-portfolio/internal/storage"
)

type galleryOrderRepository struct {
	store storage.ObjectStorage
}

// NewGalleryOrderRepository stores the gallery order at domain.GalleryOrderKey.
func NewGalleryOrderRepository(store storage.ObjectStorage) repository.GalleryOrderRepository {
	return &galleryOrderRepository{store: store}
}

func (r *galleryOrderRepository) Get(ctx context.Context) (domain.GalleryOrder, error) {
	order := domain.GalleryOrder{}
	if err := getJSON(ctx, r.store, domain.GalleryOrderKey, &order); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.GalleryOrder{}, nil
		}
		return nil, err
	}
	return order, nil
}

func (r *galleryOrderRepository) Save(ctx context.Context, order domain.GalleryOrder) error {
	if order == nil {
		order = domain.GalleryOrder{}
	}
	return putJSON(ctx, r.store, domain.GalleryOrderKey, order)
}
