package domain

// PhotosPrefix is the object-store prefix for public gallery photos,
// laid out as photos/{category}/{filename}.
const PhotosPrefix = "photos/"

// GalleryOrderKey is the storage key of the gallery ordering document.
const GalleryOrderKey = "galleries/order.json"

// GalleryOrder maps a category to its ordered list of filenames.
type GalleryOrder map[string][]string

// Photo is a public gallery photo.
type Photo struct {
	Category string `json:"category"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Type     string `json:"type,omitempty"`
	URL      string `json:"url"`
}

// PhotoKey returns the storage key of a gallery photo.
func PhotoKey(category, filename string) string {
	return PhotosPrefix + category + "/" + filename
}
