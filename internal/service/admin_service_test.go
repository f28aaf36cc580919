package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"alcyxob/photo-portfolio/internal/logging"
	"alcyxob/photo-portfolio/internal/repository/objectstore"
	"alcyxob/photo-portfolio/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdmin(t *testing.T) (*adminService, *storage.MemoryStorage) {
	t.Helper()
	store := storage.NewMemoryStorage()
	svc := NewAdminService(
		objectstore.NewUploadRepository(store),
		store,
		30,
		Pricing{PerGBMonth: 0.015, PerGBEgress: 0.09},
		logging.Discard(),
	).(*adminService)
	svc.now = fixedClock
	return svc, store
}

func newFile(name, body string) NewFile {
	return NewFile{Name: name, Size: int64(len(body)), Body: strings.NewReader(body)}
}

func TestAdminService_CreateUpload(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestAdmin(t)

	u, err := svc.CreateUpload(ctx, CreateUploadInput{
		Slug:           "smith-wedding",
		Title:          "  Smith Wedding ",
		RatingsEnabled: true,
		Files:          []NewFile{newFile("a.jpg", "aaaa"), newFile("notes", "hello")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Smith Wedding", u.Title)
	assert.True(t, u.CreatedAt.Equal(testNow))
	require.Len(t, u.Files, 2)
	assert.Equal(t, "uploads/smith-wedding/a.jpg", u.Files[0].Key)
	assert.Equal(t, "image/jpeg", u.Files[0].Type)
	assert.Equal(t, "uploads/smith-wedding/a.jpg", u.PreviewImage)
	assert.NotNil(t, u.Ratings)

	// two files plus the metadata document
	assert.Equal(t, 3, store.Len())

	got, err := svc.GetUpload(ctx, "smith-wedding")
	require.NoError(t, err)
	assert.Equal(t, u.Files, got.Files)
}

func TestAdminService_CreateUploadValidation(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestAdmin(t)

	tests := []struct {
		name string
		in   CreateUploadInput
		want error
	}{
		{"invalid slug", CreateUploadInput{Slug: "a b", Files: []NewFile{newFile("a.jpg", "a")}}, ErrInvalidSlug},
		{"reserved slug", CreateUploadInput{Slug: "admin", Files: []NewFile{newFile("a.jpg", "a")}}, ErrReservedSlug},
		{"no files", CreateUploadInput{Slug: "ok"}, ErrNoFiles},
		{"path filename", CreateUploadInput{Slug: "ok", Files: []NewFile{newFile("../a.jpg", "a")}}, ErrInvalidFilename},
		{"metadata filename", CreateUploadInput{Slug: "ok", Files: []NewFile{newFile("metadata.json", "{}")}}, ErrInvalidFilename},
		{"duplicate", CreateUploadInput{Slug: "ok", Files: []NewFile{newFile("a.jpg", "a"), newFile("a.jpg", "b")}}, ErrDuplicateFile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateUpload(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, 0, store.Len(), "rejected uploads store nothing")
}

func TestAdminService_CreateUploadExisting(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAdmin(t)
	in := CreateUploadInput{Slug: "dup", Files: []NewFile{newFile("a.jpg", "a")}}
	_, err := svc.CreateUpload(ctx, in)
	require.NoError(t, err)

	_, err = svc.CreateUpload(ctx, CreateUploadInput{Slug: "dup", Files: []NewFile{newFile("b.jpg", "b")}})
	assert.ErrorIs(t, err, ErrUploadExists)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("client went away") }

func TestAdminService_CreateUploadRollsBack(t *testing.T) {
	svc, store := newTestAdmin(t)
	_, err := svc.CreateUpload(context.Background(), CreateUploadInput{
		Slug: "partial",
		Files: []NewFile{
			newFile("a.jpg", "aaaa"),
			{Name: "b.jpg", Size: 10, Body: io.LimitReader(failingReader{}, 10)},
		},
	})
	require.Error(t, err)
	assert.Equal(t, 0, store.Len())
}

func TestAdminService_ListUploads(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestAdmin(t)
	old := sampleUpload(testNow.Add(-40 * 24 * time.Hour))
	old.Slug = "old"
	seedUpload(t, store, svc.uploadRepo, old)
	fresh := sampleUpload(testNow.Add(-time.Hour))
	fresh.Slug = "fresh"
	fresh.Ratings = map[string]bool{"uploads/fresh/a.jpg": true}
	seedUpload(t, store, svc.uploadRepo, fresh)

	list, err := svc.ListUploads(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "fresh", list[0].Slug)
	assert.False(t, list[0].Expired)
	assert.Equal(t, 1, list[0].RatedCount)
	assert.Equal(t, "old", list[1].Slug)
	assert.True(t, list[1].Expired)
	assert.EqualValues(t, 10, list[1].TotalSize)
	assert.Equal(t, "10 B", list[1].TotalSizeHuman)
}

func TestAdminService_DeleteUpload(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestAdmin(t)
	seedUpload(t, store, svc.uploadRepo, sampleUpload(testNow))
	putObject(t, store, "uploads/smith-wedding-2/a.jpg", "keep")

	n, err := svc.DeleteUpload(ctx, "smith-wedding")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = svc.GetUpload(ctx, "smith-wedding")
	assert.ErrorIs(t, err, ErrUploadNotFound)
	// a slug sharing the prefix is untouched
	_, err = store.StatObject(ctx, "uploads/smith-wedding-2/a.jpg")
	assert.NoError(t, err)

	_, err = svc.DeleteUpload(ctx, "smith-wedding")
	assert.ErrorIs(t, err, ErrUploadNotFound)
}

func TestAdminService_FindOrphans(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestAdmin(t)

	seedUpload(t, store, svc.uploadRepo, sampleUpload(testNow))
	// files with no metadata document
	putObject(t, store, "uploads/abandoned/x.jpg", "xxx")
	putObject(t, store, "uploads/abandoned/y.jpg", "yy")
	// metadata referencing a file that is gone
	broken := sampleUpload(testNow)
	broken.Slug = "broken"
	seedUpload(t, store, svc.uploadRepo, broken)
	require.NoError(t, store.DeleteObject(ctx, "uploads/broken/b.jpg"))

	report, err := svc.FindOrphans(ctx)
	require.NoError(t, err)
	assert.False(t, report.Empty())

	require.Len(t, report.OrphanedObjects, 1)
	assert.Equal(t, "abandoned", report.OrphanedObjects[0].Slug)
	assert.Equal(t, []string{"uploads/abandoned/x.jpg", "uploads/abandoned/y.jpg"}, report.OrphanedObjects[0].Keys)
	assert.EqualValues(t, 5, report.OrphanedObjects[0].TotalSize)

	require.Len(t, report.MissingFiles, 1)
	assert.Equal(t, "broken", report.MissingFiles[0].Slug)
	assert.Equal(t, []string{"uploads/broken/b.jpg"}, report.MissingFiles[0].Keys)
}

func TestAdminService_CleanupOrphans(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestAdmin(t)

	seedUpload(t, store, svc.uploadRepo, sampleUpload(testNow))
	putObject(t, store, "uploads/abandoned/x.jpg", "xxx")

	broken := sampleUpload(testNow)
	broken.Slug = "broken"
	broken.Ratings = map[string]bool{"uploads/broken/b.jpg": true}
	broken.PreviewImage = "uploads/broken/b.jpg"
	seedUpload(t, store, svc.uploadRepo, broken)
	require.NoError(t, store.DeleteObject(ctx, "uploads/broken/b.jpg"))

	empty := sampleUpload(testNow)
	empty.Slug = "empty"
	empty.Files = empty.Files[:1]
	seedUpload(t, store, svc.uploadRepo, empty)
	require.NoError(t, store.DeleteObject(ctx, "uploads/empty/a.jpg"))

	result, err := svc.CleanupOrphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.DeletedObjects)
	assert.EqualValues(t, 3, result.FreedBytes)
	assert.Equal(t, 2, result.PrunedFiles)
	assert.Equal(t, []string{"empty"}, result.DeletedMetadata)

	_, err = store.StatObject(ctx, "uploads/abandoned/x.jpg")
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)

	fixed, err := svc.GetUpload(ctx, "broken")
	require.NoError(t, err)
	require.Len(t, fixed.Files, 1)
	assert.Equal(t, "a.jpg", fixed.Files[0].Name)
	assert.Empty(t, fixed.Ratings)
	assert.Empty(t, fixed.PreviewImage)

	_, err = svc.GetUpload(ctx, "empty")
	assert.ErrorIs(t, err, ErrUploadNotFound)

	// untouched upload survives and nothing is left to clean
	_, err = svc.GetUpload(ctx, "smith-wedding")
	assert.NoError(t, err)
	report, err := svc.FindOrphans(ctx)
	require.NoError(t, err)
	assert.True(t, report.Empty())
}

func TestAdminService_Stats(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestAdmin(t)

	u := sampleUpload(time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC))
	u.Downloads = 4
	seedUpload(t, store, svc.uploadRepo, u)
	old := sampleUpload(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	old.Slug = "old"
	seedUpload(t, store, svc.uploadRepo, old)
	putObject(t, store, "photos/landscape/a.jpg", "1234567890")

	stats, err := svc.Stats(ctx, time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2026-05", stats.Month)
	assert.Equal(t, 2, stats.UploadCount)
	assert.Equal(t, 1, stats.UploadsThisMonth)
	assert.Equal(t, 1, stats.ExpiredUploads)
	assert.Equal(t, 4, stats.Downloads)
	// four downloads at an average of 5 bytes
	assert.EqualValues(t, 20, stats.EgressBytes)
	assert.EqualValues(t, 10, stats.GalleryBytes)
	assert.Equal(t, stats.TotalBytes, stats.DeliveryBytes+stats.GalleryBytes)
	assert.Equal(t, 7, stats.ObjectCount)
	assert.Equal(t, 0.0, stats.EstimatedStorageCost)
	assert.Equal(t, 0.015, stats.PricePerGBMonth)

	require.Len(t, stats.Slugs, 2)
	// the longer slug makes for the larger metadata document
	assert.Equal(t, "smith-wedding", stats.Slugs[0].Slug)
	assert.Equal(t, 4, stats.Slugs[0].Downloads)
	assert.Equal(t, "old", stats.Slugs[1].Slug)
}

func TestRoundCents(t *testing.T) {
	assert.Equal(t, 3.0, roundCents(float64(int64(200)<<30)/bytesPerGB*0.015))
	assert.Equal(t, 1.23, roundCents(1.2345))
	assert.Equal(t, 0.0, roundCents(0.0001))
}

func TestAdminService_Ratings(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestAdmin(t)
	seedUpload(t, store, svc.uploadRepo, sampleUpload(testNow))

	u, err := svc.SetRating(ctx, "smith-wedding", "uploads/smith-wedding/a.jpg", true)
	require.NoError(t, err)
	assert.True(t, u.IsRated("uploads/smith-wedding/a.jpg"))

	_, err = svc.SetRating(ctx, "smith-wedding", "uploads/other/a.jpg", true)
	assert.ErrorIs(t, err, ErrFileNotFound)

	u, err = svc.SetRating(ctx, "smith-wedding", "uploads/smith-wedding/b.jpg", true)
	require.NoError(t, err)
	assert.Len(t, u.Ratings, 2)

	u, err = svc.SetRating(ctx, "smith-wedding", "uploads/smith-wedding/a.jpg", false)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"uploads/smith-wedding/b.jpg": true}, u.Ratings)

	u, err = svc.ClearRatings(ctx, "smith-wedding")
	require.NoError(t, err)
	assert.Empty(t, u.Ratings)

	got, err := svc.GetUpload(ctx, "smith-wedding")
	require.NoError(t, err)
	assert.Empty(t, got.Ratings)
}

func TestAdminService_Toggles(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestAdmin(t)
	seedUpload(t, store, svc.uploadRepo, sampleUpload(testNow))

	u, err := svc.SetRatingsEnabled(ctx, "smith-wedding", false)
	require.NoError(t, err)
	assert.False(t, u.RatingsEnabled)

	u, err = svc.SetBackgroundImage(ctx, "smith-wedding", "uploads/smith-wedding/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "uploads/smith-wedding/a.jpg", u.BackgroundImage)
	_, err = svc.SetBackgroundImage(ctx, "smith-wedding", "uploads/smith-wedding/zzz.jpg")
	assert.ErrorIs(t, err, ErrFileNotFound)

	u, err = svc.SetPreviewImage(ctx, "smith-wedding", "")
	require.NoError(t, err)
	assert.Empty(t, u.PreviewImage)

	when := time.Date(2027, 1, 1, 0, 0, 0, 0, time.FixedZone("CET", 3600))
	u, err = svc.SetExpiry(ctx, "smith-wedding", &when)
	require.NoError(t, err)
	require.NotNil(t, u.ExpiresAt)
	assert.True(t, u.ExpiresAt.Equal(when))

	u, err = svc.SetExpiry(ctx, "smith-wedding", nil)
	require.NoError(t, err)
	assert.Nil(t, u.ExpiresAt)

	_, err = svc.SetRatingsEnabled(ctx, "missing", true)
	assert.ErrorIs(t, err, ErrUploadNotFound)
}

func TestAdminService_FileDownloadURL(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestAdmin(t)
	seedUpload(t, store, svc.uploadRepo, sampleUpload(testNow))

	u, err := svc.FileDownloadURL(ctx, "smith-wedding", "a.jpg")
	require.NoError(t, err)
	assert.Contains(t, u, "uploads/smith-wedding/a.jpg")

	_, err = svc.FileDownloadURL(ctx, "smith-wedding", "zzz.jpg")
	assert.ErrorIs(t, err, ErrFileNotFound)
}
