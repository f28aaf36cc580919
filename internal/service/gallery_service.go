package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"alcyxob/photo-portfolio/internal/domain"
	"alcyxob/photo-portfolio/internal/repository"
	"alcyxob/photo-portfolio/internal/storage"
)

// Category is a public gallery with its photo count.
type Category struct {
	Name       string `json:"name"`
	PhotoCount int    `json:"photoCount"`
	CoverURL   string `json:"coverUrl,omitempty"`
}

// GalleryService serves the public portfolio galleries.
type GalleryService interface {
	ListCategories(ctx context.Context) ([]Category, error)
	ListPhotos(ctx context.Context, category string) ([]domain.Photo, error)
	// OpenPhoto streams a gallery photo. The caller must close FileStream.Body.
	OpenPhoto(ctx context.Context, category, filename string) (*FileStream, error)

	GetOrder(ctx context.Context) (domain.GalleryOrder, error)
	// SetOrder replaces the ordering of one category. Every listed file must exist.
	SetOrder(ctx context.Context, category string, files []string) (domain.GalleryOrder, error)
}

type galleryService struct {
	orderRepo   repository.GalleryOrderRepository
	fileStorage storage.ObjectStorage
}

// NewGalleryService creates the gallery service.
func NewGalleryService(orderRepo repository.GalleryOrderRepository, fileStorage storage.ObjectStorage) GalleryService {
	return &galleryService{orderRepo: orderRepo, fileStorage: fileStorage}
}

// PhotoURL is the public route of a gallery photo.
func PhotoURL(category, filename string) string {
	return "/api/photos/" + url.PathEscape(category) + "/" + url.PathEscape(filename)
}

func validCategory(category string) bool {
	return ValidSlug(category)
}

func (s *galleryService) ListCategories(ctx context.Context) ([]Category, error) {
	objects, err := s.fileStorage.ListObjects(ctx, domain.PhotosPrefix)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}

	byName := make(map[string][]storage.ObjectInfo)
	for _, obj := range objects {
		category, filename, ok := splitPhotoKey(obj.Key)
		if !ok || !validCategory(category) || filename == "" || strings.Contains(filename, "/") {
			continue
		}
		byName[category] = append(byName[category], obj)
	}

	order, err := s.orderRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load gallery order: %w", err)
	}

	categories := make([]Category, 0, len(byName))
	for name, objs := range byName {
		photos := orderPhotos(name, objs, order[name])
		categories = append(categories, Category{
			Name:       name,
			PhotoCount: len(photos),
			CoverURL:   photos[0].URL,
		})
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (s *galleryService) ListPhotos(ctx context.Context, category string) ([]domain.Photo, error) {
	if !validCategory(category) {
		return nil, ErrInvalidCategory
	}
	objects, err := s.fileStorage.ListObjects(ctx, domain.PhotosPrefix+category+"/")
	if err != nil {
		return nil, fmt.Errorf("list photos of %q: %w", category, err)
	}

	// Only direct children belong to the category
	direct := make([]storage.ObjectInfo, 0, len(objects))
	for _, obj := range objects {
		if _, filename, ok := splitPhotoKey(obj.Key); ok && filename != "" && !strings.Contains(filename, "/") {
			direct = append(direct, obj)
		}
	}
	if len(direct) == 0 {
		return nil, ErrCategoryNotFound
	}

	order, err := s.orderRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load gallery order: %w", err)
	}
	return orderPhotos(category, direct, order[category]), nil
}

func (s *galleryService) OpenPhoto(ctx context.Context, category, filename string) (*FileStream, error) {
	if !validCategory(category) {
		return nil, ErrInvalidCategory
	}
	if !validFilename(filename) {
		return nil, ErrFileNotFound
	}

	body, info, err := s.fileStorage.GetObject(ctx, domain.PhotoKey(category, filename))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("open photo %q/%q: %w", category, filename, err)
	}

	contentType, reader, err := detectContentType(filename, info.ContentType, body)
	if err != nil {
		body.Close()
		return nil, err
	}
	return &FileStream{
		Body:        readCloser{Reader: reader, Closer: body},
		Name:        filename,
		ContentType: contentType,
		Size:        info.Size,
		ModTime:     info.LastModified,
		ETag:        info.ETag,
	}, nil
}

func (s *galleryService) GetOrder(ctx context.Context) (domain.GalleryOrder, error) {
	order, err := s.orderRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load gallery order: %w", err)
	}
	return order, nil
}

func (s *galleryService) SetOrder(ctx context.Context, category string, files []string) (domain.GalleryOrder, error) {
	photos, err := s.ListPhotos(ctx, category)
	if err != nil {
		return nil, err
	}
	existing := make(map[string]struct{}, len(photos))
	for _, p := range photos {
		existing[p.Filename] = struct{}{}
	}

	seen := make(map[string]struct{}, len(files))
	cleaned := make([]string, 0, len(files))
	for _, name := range files {
		if _, ok := existing[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrFileNotFound, name)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateFile, name)
		}
		seen[name] = struct{}{}
		cleaned = append(cleaned, name)
	}

	order, err := s.orderRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load gallery order: %w", err)
	}
	if order == nil {
		order = domain.GalleryOrder{}
	}
	if len(cleaned) == 0 {
		delete(order, category)
	} else {
		order[category] = cleaned
	}
	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("save gallery order: %w", err)
	}
	return order, nil
}

// splitPhotoKey splits photos/{category}/{filename}.
func splitPhotoKey(key string) (category, filename string, ok bool) {
	rest, found := strings.CutPrefix(key, domain.PhotosPrefix)
	if !found {
		return "", "", false
	}
	return strings.Cut(rest, "/")
}

// orderPhotos lists the ordered files first, then the rest alphabetically.
// Ordered names with no stored object are skipped.
func orderPhotos(category string, objects []storage.ObjectInfo, ordered []string) []domain.Photo {
	byName := make(map[string]storage.ObjectInfo, len(objects))
	for _, obj := range objects {
		_, filename, _ := splitPhotoKey(obj.Key)
		byName[filename] = obj
	}

	photos := make([]domain.Photo, 0, len(objects))
	placed := make(map[string]struct{}, len(ordered))
	add := func(filename string, obj storage.ObjectInfo) {
		photos = append(photos, domain.Photo{
			Category: category,
			Filename: filename,
			Size:     obj.Size,
			Type:     ContentTypeByName(filename),
			URL:      PhotoURL(category, filename),
		})
		placed[filename] = struct{}{}
	}

	for _, name := range ordered {
		if _, done := placed[name]; done {
			continue
		}
		if obj, ok := byName[name]; ok {
			add(name, obj)
		}
	}

	rest := make([]string, 0, len(byName))
	for name := range byName {
		if _, done := placed[name]; !done {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		add(name, byName[name])
	}
	return photos
}
