package domain

import (
	"path"
	"time"
)

// UploadsPrefix is the object-store prefix under which every delivery lives.
const UploadsPrefix = "uploads/"

// MetadataFileName is the name of the per-slug metadata document.
const MetadataFileName = "metadata.json"

// Upload is the metadata document describing one client delivery.
// It is stored as JSON next to the delivered files in the object store.
type Upload struct {
	Slug            string           `json:"slug"`
	Title           string           `json:"title"`
	CreatedAt       time.Time        `json:"createdAt"`
	ExpiresAt       *time.Time       `json:"expiresAt,omitempty"` // Explicit override; nil means "use the default window"
	Files           []FileDescriptor `json:"files"`
	Ratings         map[string]bool  `json:"ratings"` // file key -> rated
	RatingsEnabled  bool             `json:"ratingsEnabled"`
	Downloads       int              `json:"downloads"`
	PreviewImage    string           `json:"previewImage,omitempty"`    // File key
	BackgroundImage string           `json:"backgroundImage,omitempty"` // File key
}

// FileDescriptor describes a single delivered file.
type FileDescriptor struct {
	Name       string     `json:"name"`
	Key        string     `json:"key"` // Storage key, internal use only
	Size       int64      `json:"size"`
	Type       string     `json:"type"`
	CapturedAt *time.Time `json:"capturedAt,omitempty"`
}

// UploadPrefix returns the storage prefix holding every object of a slug.
func UploadPrefix(slug string) string {
	return UploadsPrefix + slug + "/"
}

// MetadataKey returns the storage key of the metadata document for a slug.
func MetadataKey(slug string) string {
	return UploadPrefix(slug) + MetadataFileName
}

// FileKey derives the storage key of a delivered file from slug and filename.
// Keys are never accepted from clients; they are always rebuilt here.
func FileKey(slug, filename string) string {
	return UploadPrefix(slug) + path.Base(filename)
}

// TotalSize sums the size of every file in the upload.
func (u *Upload) TotalSize() int64 {
	var total int64
	for _, f := range u.Files {
		total += f.Size
	}
	return total
}

// FindFile returns the descriptor with the given name.
func (u *Upload) FindFile(name string) (*FileDescriptor, bool) {
	for i := range u.Files {
		if u.Files[i].Name == name {
			return &u.Files[i], true
		}
	}
	return nil, false
}

// FindFileByKey returns the descriptor with the given storage key.
func (u *Upload) FindFileByKey(key string) (*FileDescriptor, bool) {
	for i := range u.Files {
		if u.Files[i].Key == key {
			return &u.Files[i], true
		}
	}
	return nil, false
}

// IsRated reports whether the file with the given key is rated.
func (u *Upload) IsRated(key string) bool {
	return u.Ratings[key]
}
