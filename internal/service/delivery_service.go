package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"alcyxob/photo-portfolio/internal/domain"
	"alcyxob/photo-portfolio/internal/repository"
	"alcyxob/photo-portfolio/internal/storage"
)

// PublicFile is the client-facing view of a delivered file. It carries a
// route URL, never the storage key.
type PublicFile struct {
	Name       string     `json:"name"`
	Size       int64      `json:"size"`
	Type       string     `json:"type"`
	CapturedAt *time.Time `json:"capturedAt,omitempty"`
	URL        string     `json:"url"`
	Rated      bool       `json:"rated"`
}

// PublicUpload is the redacted metadata returned by GET /api/:slug.
type PublicUpload struct {
	Slug            string       `json:"slug"`
	Title           string       `json:"title"`
	CreatedAt       time.Time    `json:"createdAt"`
	ExpiresAt       time.Time    `json:"expiresAt"`
	Expired         bool         `json:"expired"`
	RatingsEnabled  bool         `json:"ratingsEnabled"`
	Downloads       int          `json:"downloads"`
	FileCount       int          `json:"fileCount"`
	TotalSize       int64        `json:"totalSize"`
	Files           []PublicFile `json:"files"`
	PreviewImage    string       `json:"previewImage,omitempty"`
	BackgroundImage string       `json:"backgroundImage,omitempty"`
}

// DeliveryService serves the private client delivery pages.
type DeliveryService interface {
	GetPublic(ctx context.Context, slug string) (*PublicUpload, error)
	// OpenFile streams a delivered file. The caller must close FileStream.Body.
	OpenFile(ctx context.Context, slug, filename string) (*FileStream, error)
	// RecordDownload increments the download counter and returns the new value.
	RecordDownload(ctx context.Context, slug string) (int, error)
	// Rate lets the client mark a file, when the upload has ratings enabled.
	Rate(ctx context.Context, slug, filename string, rated bool) (*PublicUpload, error)
}

type deliveryService struct {
	uploadRepo  repository.UploadRepository
	fileStorage storage.ObjectStorage
	expiryDays  int
	now         func() time.Time
}

// NewDeliveryService creates the public delivery service.
func NewDeliveryService(uploadRepo repository.UploadRepository, fileStorage storage.ObjectStorage, defaultExpiryDays int) DeliveryService {
	return &deliveryService{
		uploadRepo:  uploadRepo,
		fileStorage: fileStorage,
		expiryDays:  defaultExpiryDays,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *deliveryService) GetPublic(ctx context.Context, slug string) (*PublicUpload, error) {
	upload, err := loadUpload(ctx, s.uploadRepo, slug)
	if err != nil {
		return nil, err
	}
	return toPublicUpload(upload, s.now(), s.expiryDays), nil
}

func (s *deliveryService) OpenFile(ctx context.Context, slug, filename string) (*FileStream, error) {
	if !validFilename(filename) {
		return nil, ErrFileNotFound
	}
	upload, err := loadUpload(ctx, s.uploadRepo, slug)
	if err != nil {
		return nil, err
	}
	if IsExpired(upload, s.now(), s.expiryDays) {
		return nil, ErrUploadExpired
	}

	file, ok := upload.FindFile(filename)
	if !ok {
		return nil, ErrFileNotFound
	}

	// The key is rebuilt from slug + filename rather than trusted from the document
	body, info, err := s.fileStorage.GetObject(ctx, domain.FileKey(slug, file.Name))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("open %q/%q: %w", slug, filename, err)
	}

	stored := file.Type
	if stored == "" {
		stored = info.ContentType
	}
	contentType, reader, err := detectContentType(file.Name, stored, body)
	if err != nil {
		body.Close()
		return nil, err
	}

	return &FileStream{
		Body:        readCloser{Reader: reader, Closer: body},
		Name:        file.Name,
		ContentType: contentType,
		Size:        info.Size,
		ModTime:     info.LastModified,
		ETag:        info.ETag,
	}, nil
}

func (s *deliveryService) RecordDownload(ctx context.Context, slug string) (int, error) {
	upload, err := loadUpload(ctx, s.uploadRepo, slug)
	if err != nil {
		return 0, err
	}
	upload.Downloads++
	if err := s.uploadRepo.Save(ctx, upload); err != nil {
		return 0, fmt.Errorf("save download count for %q: %w", slug, err)
	}
	return upload.Downloads, nil
}

func (s *deliveryService) Rate(ctx context.Context, slug, filename string, rated bool) (*PublicUpload, error) {
	upload, err := loadUpload(ctx, s.uploadRepo, slug)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if IsExpired(upload, now, s.expiryDays) {
		return nil, ErrUploadExpired
	}
	if !upload.RatingsEnabled {
		return nil, ErrRatingsDisabled
	}
	file, ok := upload.FindFile(filename)
	if !ok {
		return nil, ErrFileNotFound
	}

	applyRating(upload, file.Key, rated)
	if err := s.uploadRepo.Save(ctx, upload); err != nil {
		return nil, fmt.Errorf("save rating for %q: %w", slug, err)
	}
	return toPublicUpload(upload, now, s.expiryDays), nil
}

// applyRating adds the key to the ratings mapping when rated, removes it otherwise.
func applyRating(upload *domain.Upload, fileKey string, rated bool) {
	if upload.Ratings == nil {
		upload.Ratings = map[string]bool{}
	}
	if rated {
		upload.Ratings[fileKey] = true
	} else {
		delete(upload.Ratings, fileKey)
	}
}

// FileURL is the public route of a delivered file.
func FileURL(slug, filename string) string {
	return "/api/" + url.PathEscape(slug) + "/files/" + url.PathEscape(filename)
}

func toPublicUpload(u *domain.Upload, now time.Time, defaultDays int) *PublicUpload {
	pub := &PublicUpload{
		Slug:           u.Slug,
		Title:          u.Title,
		CreatedAt:      u.CreatedAt,
		ExpiresAt:      ExpiresAt(u, defaultDays),
		Expired:        IsExpired(u, now, defaultDays),
		RatingsEnabled: u.RatingsEnabled,
		Downloads:      u.Downloads,
		FileCount:      len(u.Files),
		TotalSize:      u.TotalSize(),
		Files:          make([]PublicFile, 0, len(u.Files)),
	}
	// Expired deliveries only reveal that they existed
	if pub.Expired {
		return pub
	}
	for _, f := range u.Files {
		pub.Files = append(pub.Files, PublicFile{
			Name:       f.Name,
			Size:       f.Size,
			Type:       f.Type,
			CapturedAt: f.CapturedAt,
			URL:        FileURL(u.Slug, f.Name),
			Rated:      u.IsRated(f.Key),
		})
	}
	if f, ok := u.FindFileByKey(u.PreviewImage); ok {
		pub.PreviewImage = FileURL(u.Slug, f.Name)
	}
	if f, ok := u.FindFileByKey(u.BackgroundImage); ok {
		pub.BackgroundImage = FileURL(u.Slug, f.Name)
	}
	return pub
}
