package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"alcyxob/photo-portfolio/internal/domain"
	"alcyxob/photo-portfolio/internal/repository"
	"alcyxob/photo-portfolio/internal/storage"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

// UploadSummary is one row of the admin uploads listing.
type UploadSummary struct {
	Slug           string    `json:"slug"`
	Title          string    `json:"title"`
	CreatedAt      time.Time `json:"createdAt"`
	ExpiresAt      time.Time `json:"expiresAt"`
	Expired        bool      `json:"expired"`
	FileCount      int       `json:"fileCount"`
	TotalSize      int64     `json:"totalSize"`
	TotalSizeHuman string    `json:"totalSizeHuman"`
	Downloads      int       `json:"downloads"`
	RatedCount     int       `json:"ratedCount"`
	RatingsEnabled bool      `json:"ratingsEnabled"`
}

// NewFile is a file to be stored as part of a new upload.
type NewFile struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
	CapturedAt  *time.Time
}

// CreateUploadInput describes a new delivery.
type CreateUploadInput struct {
	Slug           string
	Title          string
	ExpiresAt      *time.Time
	RatingsEnabled bool
	Files          []NewFile
}

// OrphanedPrefix is a slug prefix holding objects but no metadata document.
type OrphanedPrefix struct {
	Slug      string   `json:"slug"`
	Keys      []string `json:"keys"`
	TotalSize int64    `json:"totalSize"`
}

// MissingFiles lists the file keys a metadata document references but storage lacks.
type MissingFiles struct {
	Slug string   `json:"slug"`
	Keys []string `json:"keys"`
}

// OrphanReport is the result of orphan detection.
type OrphanReport struct {
	OrphanedObjects []OrphanedPrefix `json:"orphanedObjects"`
	MissingFiles    []MissingFiles   `json:"missingFiles"`
}

// Empty reports whether nothing is orphaned.
func (r *OrphanReport) Empty() bool {
	return len(r.OrphanedObjects) == 0 && len(r.MissingFiles) == 0
}

// CleanupReport summarizes an orphan cleanup run.
type CleanupReport struct {
	DeletedObjects  int      `json:"deletedObjects"`
	FreedBytes      int64    `json:"freedBytes"`
	FreedHuman      string   `json:"freedHuman"`
	PrunedFiles     int      `json:"prunedFiles"`
	DeletedMetadata []string `json:"deletedMetadata"`
}

// SlugUsage is the storage footprint of one delivery.
type SlugUsage struct {
	Slug      string `json:"slug"`
	Objects   int    `json:"objects"`
	Bytes     int64  `json:"bytes"`
	Size      string `json:"size"`
	Downloads int    `json:"downloads"`
}

// UsageStats is the monthly cost and usage report.
type UsageStats struct {
	Month                string      `json:"month"`
	ObjectCount          int         `json:"objectCount"`
	TotalBytes           int64       `json:"totalBytes"`
	TotalSize            string      `json:"totalSize"`
	DeliveryBytes        int64       `json:"deliveryBytes"`
	GalleryBytes         int64       `json:"galleryBytes"`
	UploadCount          int         `json:"uploadCount"`
	UploadsThisMonth     int         `json:"uploadsThisMonth"`
	ExpiredUploads       int         `json:"expiredUploads"`
	Downloads            int         `json:"downloads"`
	EgressBytes          int64       `json:"egressBytes"`
	PricePerGBMonth      float64     `json:"pricePerGbMonth"`
	PricePerGBEgress     float64     `json:"pricePerGbEgress"`
	EstimatedStorageCost float64     `json:"estimatedStorageCost"`
	EstimatedEgressCost  float64     `json:"estimatedEgressCost"`
	EstimatedTotalCost   float64     `json:"estimatedTotalCost"`
	Slugs                []SlugUsage `json:"slugs"`
}

// Pricing holds the storage provider prices used for cost estimates.
type Pricing struct {
	PerGBMonth  float64
	PerGBEgress float64
}

// bytesPerGB is the binary gigabyte the providers bill by.
const bytesPerGB = 1 << 30

// AdminService manages deliveries on behalf of the authenticated admin.
type AdminService interface {
	ListUploads(ctx context.Context) ([]UploadSummary, error)
	GetUpload(ctx context.Context, slug string) (*domain.Upload, error)
	CreateUpload(ctx context.Context, in CreateUploadInput) (*domain.Upload, error)
	// DeleteUpload removes every object under the slug, metadata included,
	// and returns how many objects were deleted.
	DeleteUpload(ctx context.Context, slug string) (int, error)
	// FileDownloadURL returns a short-lived direct storage URL for a delivered file.
	FileDownloadURL(ctx context.Context, slug, filename string) (string, error)

	FindOrphans(ctx context.Context) (*OrphanReport, error)
	CleanupOrphans(ctx context.Context) (*CleanupReport, error)
	Stats(ctx context.Context, month time.Time) (*UsageStats, error)

	SetRating(ctx context.Context, slug, fileKey string, rated bool) (*domain.Upload, error)
	ClearRatings(ctx context.Context, slug string) (*domain.Upload, error)
	SetRatingsEnabled(ctx context.Context, slug string, enabled bool) (*domain.Upload, error)
	SetBackgroundImage(ctx context.Context, slug, fileKey string) (*domain.Upload, error)
	SetPreviewImage(ctx context.Context, slug, fileKey string) (*domain.Upload, error)
	SetExpiry(ctx context.Context, slug string, expiresAt *time.Time) (*domain.Upload, error)
}

type adminService struct {
	uploadRepo  repository.UploadRepository
	fileStorage storage.ObjectStorage
	expiryDays  int
	pricing     Pricing
	log         *logrus.Entry
	now         func() time.Time
}

// NewAdminService creates the admin service.
func NewAdminService(
	uploadRepo repository.UploadRepository,
	fileStorage storage.ObjectStorage,
	defaultExpiryDays int,
	pricing Pricing,
	log *logrus.Logger,
) AdminService {
	return &adminService{
		uploadRepo:  uploadRepo,
		fileStorage: fileStorage,
		expiryDays:  defaultExpiryDays,
		pricing:     pricing,
		log:         log.WithField("component", "admin"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// === Uploads ===

func (s *adminService) ListUploads(ctx context.Context) ([]UploadSummary, error) {
	uploads, err := s.uploadRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}

	now := s.now()
	summaries := make([]UploadSummary, 0, len(uploads))
	for i := range uploads {
		u := &uploads[i]
		total := u.TotalSize()
		summaries = append(summaries, UploadSummary{
			Slug:           u.Slug,
			Title:          u.Title,
			CreatedAt:      u.CreatedAt,
			ExpiresAt:      ExpiresAt(u, s.expiryDays),
			Expired:        IsExpired(u, now, s.expiryDays),
			FileCount:      len(u.Files),
			TotalSize:      total,
			TotalSizeHuman: humanize.IBytes(uint64(total)),
			Downloads:      u.Downloads,
			RatedCount:     len(u.Ratings),
			RatingsEnabled: u.RatingsEnabled,
		})
	}
	// Newest first
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

func (s *adminService) GetUpload(ctx context.Context, slug string) (*domain.Upload, error) {
	return loadUpload(ctx, s.uploadRepo, slug)
}

func (s *adminService) CreateUpload(ctx context.Context, in CreateUploadInput) (*domain.Upload, error) {
	if !ValidSlug(in.Slug) {
		return nil, ErrInvalidSlug
	}
	if IsReservedSlug(in.Slug) {
		return nil, ErrReservedSlug
	}
	if len(in.Files) == 0 {
		return nil, ErrNoFiles
	}

	seen := make(map[string]struct{}, len(in.Files))
	for _, f := range in.Files {
		if !validFilename(f.Name) || f.Name == domain.MetadataFileName {
			return nil, fmt.Errorf("%w: %q", ErrInvalidFilename, f.Name)
		}
		if _, dup := seen[f.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateFile, f.Name)
		}
		seen[f.Name] = struct{}{}
	}

	if _, err := s.uploadRepo.Get(ctx, in.Slug); err == nil {
		return nil, ErrUploadExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check slug %q: %w", in.Slug, err)
	}

	upload := &domain.Upload{
		Slug:           in.Slug,
		Title:          strings.TrimSpace(in.Title),
		CreatedAt:      s.now(),
		ExpiresAt:      in.ExpiresAt,
		Files:          make([]domain.FileDescriptor, 0, len(in.Files)),
		Ratings:        map[string]bool{},
		RatingsEnabled: in.RatingsEnabled,
	}
	if upload.Title == "" {
		upload.Title = in.Slug
	}

	var stored []string
	for _, f := range in.Files {
		contentType := f.ContentType
		if contentType == "" || contentType == "application/octet-stream" {
			if ct := ContentTypeByName(f.Name); ct != "" {
				contentType = ct
			}
		}
		key := domain.FileKey(in.Slug, f.Name)
		if err := s.fileStorage.PutObject(ctx, key, f.Body, f.Size, contentType); err != nil {
			s.rollback(ctx, stored)
			return nil, fmt.Errorf("store %q: %w", f.Name, err)
		}
		stored = append(stored, key)
		upload.Files = append(upload.Files, domain.FileDescriptor{
			Name:       f.Name,
			Key:        key,
			Size:       f.Size,
			Type:       contentType,
			CapturedAt: f.CapturedAt,
		})
	}
	upload.PreviewImage = upload.Files[0].Key

	if err := s.uploadRepo.Save(ctx, upload); err != nil {
		s.rollback(ctx, stored)
		return nil, fmt.Errorf("save metadata for %q: %w", in.Slug, err)
	}

	s.log.WithFields(logrus.Fields{"slug": in.Slug, "files": len(upload.Files)}).Info("upload created")
	return upload, nil
}

// rollback removes objects stored by a create that failed halfway.
func (s *adminService) rollback(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}
	if err := s.fileStorage.DeleteObjects(ctx, keys); err != nil {
		s.log.WithError(err).WithField("keys", len(keys)).Error("failed to roll back stored files")
	}
}

func (s *adminService) DeleteUpload(ctx context.Context, slug string) (int, error) {
	if !ValidSlug(slug) {
		return 0, ErrInvalidSlug
	}

	objects, err := s.fileStorage.ListObjects(ctx, domain.UploadPrefix(slug))
	if err != nil {
		return 0, fmt.Errorf("list objects of %q: %w", slug, err)
	}
	if len(objects) == 0 {
		return 0, ErrUploadNotFound
	}

	keys := make([]string, 0, len(objects))
	for _, obj := range objects {
		// Metadata goes last so a partial failure leaves the upload listable
		if obj.Key != domain.MetadataKey(slug) {
			keys = append(keys, obj.Key)
		}
	}
	if err := s.fileStorage.DeleteObjects(ctx, keys); err != nil {
		return 0, fmt.Errorf("delete files of %q: %w", slug, err)
	}
	if err := s.uploadRepo.Delete(ctx, slug); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return len(keys), fmt.Errorf("delete metadata of %q: %w", slug, err)
	}

	s.log.WithFields(logrus.Fields{"slug": slug, "objects": len(objects)}).Info("upload deleted")
	return len(objects), nil
}

func (s *adminService) FileDownloadURL(ctx context.Context, slug, filename string) (string, error) {
	upload, err := loadUpload(ctx, s.uploadRepo, slug)
	if err != nil {
		return "", err
	}
	file, ok := upload.FindFile(filename)
	if !ok {
		return "", ErrFileNotFound
	}
	u, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, domain.FileKey(slug, file.Name), storage.DefaultPresignedURLExpiry)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return "", ErrFileNotFound
		}
		return "", fmt.Errorf("presign %q/%q: %w", slug, filename, err)
	}
	return u, nil
}

// === Orphans ===

// slugGroup collects the objects stored under one uploads/{slug}/ prefix.
type slugGroup struct {
	objects     []storage.ObjectInfo
	hasMetadata bool
}

func (s *adminService) groupUploadObjects(ctx context.Context) (map[string]*slugGroup, error) {
	objects, err := s.fileStorage.ListObjects(ctx, domain.UploadsPrefix)
	if err != nil {
		return nil, fmt.Errorf("list upload objects: %w", err)
	}

	groups := make(map[string]*slugGroup)
	for _, obj := range objects {
		rest := strings.TrimPrefix(obj.Key, domain.UploadsPrefix)
		slug, name, ok := strings.Cut(rest, "/")
		if !ok || slug == "" {
			// Objects directly under uploads/ belong to no slug
			slug = ""
		}
		g, exists := groups[slug]
		if !exists {
			g = &slugGroup{}
			groups[slug] = g
		}
		g.objects = append(g.objects, obj)
		if slug != "" && name == domain.MetadataFileName {
			g.hasMetadata = true
		}
	}
	return groups, nil
}

func (s *adminService) FindOrphans(ctx context.Context) (*OrphanReport, error) {
	groups, err := s.groupUploadObjects(ctx)
	if err != nil {
		return nil, err
	}

	report := &OrphanReport{
		OrphanedObjects: []OrphanedPrefix{},
		MissingFiles:    []MissingFiles{},
	}

	slugs := make([]string, 0, len(groups))
	for slug := range groups {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	for _, slug := range slugs {
		g := groups[slug]
		if !g.hasMetadata {
			orphan := OrphanedPrefix{Slug: slug}
			for _, obj := range g.objects {
				orphan.Keys = append(orphan.Keys, obj.Key)
				orphan.TotalSize += obj.Size
			}
			report.OrphanedObjects = append(report.OrphanedObjects, orphan)
			continue
		}

		upload, err := s.uploadRepo.Get(ctx, slug)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("load metadata for %q: %w", slug, err)
		}

		present := make(map[string]struct{}, len(g.objects))
		for _, obj := range g.objects {
			present[obj.Key] = struct{}{}
		}
		var missing []string
		for _, f := range upload.Files {
			if _, ok := present[domain.FileKey(slug, f.Name)]; !ok {
				missing = append(missing, f.Key)
			}
		}
		if len(missing) > 0 {
			report.MissingFiles = append(report.MissingFiles, MissingFiles{Slug: slug, Keys: missing})
		}
	}
	return report, nil
}

func (s *adminService) CleanupOrphans(ctx context.Context) (*CleanupReport, error) {
	report, err := s.FindOrphans(ctx)
	if err != nil {
		return nil, err
	}

	result := &CleanupReport{DeletedMetadata: []string{}}

	var keys []string
	for _, orphan := range report.OrphanedObjects {
		keys = append(keys, orphan.Keys...)
		result.FreedBytes += orphan.TotalSize
	}
	if len(keys) > 0 {
		if err := s.fileStorage.DeleteObjects(ctx, keys); err != nil {
			return nil, fmt.Errorf("delete orphaned objects: %w", err)
		}
		result.DeletedObjects = len(keys)
	}

	for _, m := range report.MissingFiles {
		upload, err := s.uploadRepo.Get(ctx, m.Slug)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("load metadata for %q: %w", m.Slug, err)
		}

		pruned := pruneFiles(upload, m.Keys)
		result.PrunedFiles += pruned

		if len(upload.Files) == 0 {
			if err := s.uploadRepo.Delete(ctx, m.Slug); err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("delete metadata of %q: %w", m.Slug, err)
			}
			result.DeletedMetadata = append(result.DeletedMetadata, m.Slug)
			continue
		}
		if err := s.uploadRepo.Save(ctx, upload); err != nil {
			return nil, fmt.Errorf("save pruned metadata of %q: %w", m.Slug, err)
		}
	}

	result.FreedHuman = humanize.IBytes(uint64(result.FreedBytes))
	s.log.WithFields(logrus.Fields{
		"deletedObjects":  result.DeletedObjects,
		"prunedFiles":     result.PrunedFiles,
		"deletedMetadata": len(result.DeletedMetadata),
	}).Info("orphan cleanup finished")
	return result, nil
}

// pruneFiles drops descriptors whose keys are listed, along with every
// reference to them, and returns how many were dropped.
func pruneFiles(upload *domain.Upload, keys []string) int {
	drop := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		drop[k] = struct{}{}
	}

	kept := upload.Files[:0]
	for _, f := range upload.Files {
		if _, ok := drop[f.Key]; ok {
			continue
		}
		kept = append(kept, f)
	}
	pruned := len(upload.Files) - len(kept)
	upload.Files = kept

	for k := range drop {
		delete(upload.Ratings, k)
	}
	if _, ok := drop[upload.PreviewImage]; ok {
		upload.PreviewImage = ""
	}
	if _, ok := drop[upload.BackgroundImage]; ok {
		upload.BackgroundImage = ""
	}
	return pruned
}

// === Stats ===

func (s *adminService) Stats(ctx context.Context, month time.Time) (*UsageStats, error) {
	objects, err := s.fileStorage.ListObjects(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	uploads, err := s.uploadRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}

	monthStart := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	stats := &UsageStats{
		Month:            monthStart.Format("2006-01"),
		ObjectCount:      len(objects),
		UploadCount:      len(uploads),
		PricePerGBMonth:  s.pricing.PerGBMonth,
		PricePerGBEgress: s.pricing.PerGBEgress,
		Slugs:            []SlugUsage{},
	}

	perSlug := make(map[string]*SlugUsage)
	for _, obj := range objects {
		stats.TotalBytes += obj.Size
		switch {
		case strings.HasPrefix(obj.Key, domain.UploadsPrefix):
			stats.DeliveryBytes += obj.Size
			slug, _, _ := strings.Cut(strings.TrimPrefix(obj.Key, domain.UploadsPrefix), "/")
			u, ok := perSlug[slug]
			if !ok {
				u = &SlugUsage{Slug: slug}
				perSlug[slug] = u
			}
			u.Objects++
			u.Bytes += obj.Size
		case strings.HasPrefix(obj.Key, domain.PhotosPrefix):
			stats.GalleryBytes += obj.Size
		}
	}

	now := s.now()
	for i := range uploads {
		u := &uploads[i]
		if !u.CreatedAt.Before(monthStart) && u.CreatedAt.Before(monthEnd) {
			stats.UploadsThisMonth++
		}
		if IsExpired(u, now, s.expiryDays) {
			stats.ExpiredUploads++
		}
		stats.Downloads += u.Downloads
		// Each recorded download is one file; estimate it at the average file size
		if len(u.Files) > 0 {
			stats.EgressBytes += int64(u.Downloads) * (u.TotalSize() / int64(len(u.Files)))
		}
		if usage, ok := perSlug[u.Slug]; ok {
			usage.Downloads = u.Downloads
		}
	}

	for _, u := range perSlug {
		u.Size = humanize.IBytes(uint64(u.Bytes))
		stats.Slugs = append(stats.Slugs, *u)
	}
	sort.Slice(stats.Slugs, func(i, j int) bool {
		if stats.Slugs[i].Bytes != stats.Slugs[j].Bytes {
			return stats.Slugs[i].Bytes > stats.Slugs[j].Bytes
		}
		return stats.Slugs[i].Slug < stats.Slugs[j].Slug
	})

	stats.TotalSize = humanize.IBytes(uint64(stats.TotalBytes))
	stats.EstimatedStorageCost = roundCents(float64(stats.TotalBytes) / bytesPerGB * s.pricing.PerGBMonth)
	stats.EstimatedEgressCost = roundCents(float64(stats.EgressBytes) / bytesPerGB * s.pricing.PerGBEgress)
	stats.EstimatedTotalCost = roundCents(stats.EstimatedStorageCost + stats.EstimatedEgressCost)
	return stats, nil
}

func roundCents(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

// === Metadata toggles ===

// mutate is the read-modify-write cycle shared by every admin toggle.
func (s *adminService) mutate(ctx context.Context, slug string, fn func(*domain.Upload) error) (*domain.Upload, error) {
	upload, err := loadUpload(ctx, s.uploadRepo, slug)
	if err != nil {
		return nil, err
	}
	if err := fn(upload); err != nil {
		return nil, err
	}
	if err := s.uploadRepo.Save(ctx, upload); err != nil {
		return nil, fmt.Errorf("save metadata for %q: %w", slug, err)
	}
	return upload, nil
}

func (s *adminService) SetRating(ctx context.Context, slug, fileKey string, rated bool) (*domain.Upload, error) {
	return s.mutate(ctx, slug, func(u *domain.Upload) error {
		if rated {
			if _, ok := u.FindFileByKey(fileKey); !ok {
				return ErrFileNotFound
			}
		}
		applyRating(u, fileKey, rated)
		return nil
	})
}

func (s *adminService) ClearRatings(ctx context.Context, slug string) (*domain.Upload, error) {
	return s.mutate(ctx, slug, func(u *domain.Upload) error {
		u.Ratings = map[string]bool{}
		return nil
	})
}

func (s *adminService) SetRatingsEnabled(ctx context.Context, slug string, enabled bool) (*domain.Upload, error) {
	return s.mutate(ctx, slug, func(u *domain.Upload) error {
		u.RatingsEnabled = enabled
		return nil
	})
}

func (s *adminService) SetBackgroundImage(ctx context.Context, slug, fileKey string) (*domain.Upload, error) {
	return s.mutate(ctx, slug, func(u *domain.Upload) error {
		if fileKey != "" {
			if _, ok := u.FindFileByKey(fileKey); !ok {
				return ErrFileNotFound
			}
		}
		u.BackgroundImage = fileKey
		return nil
	})
}

func (s *adminService) SetPreviewImage(ctx context.Context, slug, fileKey string) (*domain.Upload, error) {
	return s.mutate(ctx, slug, func(u *domain.Upload) error {
		if fileKey != "" {
			if _, ok := u.FindFileByKey(fileKey); !ok {
				return ErrFileNotFound
			}
		}
		u.PreviewImage = fileKey
		return nil
	})
}

func (s *adminService) SetExpiry(ctx context.Context, slug string, expiresAt *time.Time) (*domain.Upload, error) {
	return s.mutate(ctx, slug, func(u *domain.Upload) error {
		if expiresAt != nil {
			t := expiresAt.UTC()
			u.ExpiresAt = &t
		} else {
			u.ExpiresAt = nil
		}
		return nil
	})
}
