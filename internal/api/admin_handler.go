package api

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"alcyxob/photo-portfolio/internal/metrics"
	"alcyxob/photo-portfolio/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// multipartMemory is how much of an upload form is buffered in memory
// before gin spills file parts to disk.
const multipartMemory = 32 << 20

// AdminHandler exposes the delivery management operations.
type AdminHandler struct {
	adminService   service.AdminService
	maxUploadBytes int64
	log            *logrus.Logger
	now            func() time.Time
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(adminService service.AdminService, maxUploadBytes int64, log *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		adminService:   adminService,
		maxUploadBytes: maxUploadBytes,
		log:            log,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// --- Request/Response Structs ---

// CreateUploadForm is the multipart form of a new delivery; files arrive in the "files" parts.
type CreateUploadForm struct {
	Slug           string `form:"slug" binding:"required,slug"`
	Title          string `form:"title"`
	ExpiresAt      string `form:"expiresAt"` // RFC 3339, optional
	RatingsEnabled bool   `form:"ratingsEnabled"`
}

type SetRatingRequest struct {
	FileKey string `json:"fileKey" binding:"required"`
	Rated   *bool  `json:"rated" binding:"required"`
}

type RatingsEnabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type FileKeyRequest struct {
	FileKey string `json:"fileKey"`
}

type ExpiryRequest struct {
	ExpiresAt *time.Time `json:"expiresAt"`
}

type DeleteUploadResponse struct {
	Slug           string `json:"slug"`
	DeletedObjects int    `json:"deletedObjects"`
}

type DownloadURLResponse struct {
	URL string `json:"url"`
}

// --- Handler Methods ---

// ListUploads godoc
// @Summary List deliveries
// @Tags Admin
// @Produce json
// @Success 200 {array} service.UploadSummary
// @Failure 401 {object} gin.H "Unauthorized"
// @Router /admin/uploads [get]
func (h *AdminHandler) ListUploads(c *gin.Context) {
	summaries, err := h.adminService.ListUploads(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "list uploads")
		return
	}
	c.JSON(http.StatusOK, summaries)
}

// GetUpload godoc
// @Summary Get the full metadata of a delivery
// @Tags Admin
// @Produce json
// @Param slug path string true "Delivery slug"
// @Success 200 {object} domain.Upload
// @Failure 404 {object} gin.H "Not found"
// @Router /admin/uploads/{slug} [get]
func (h *AdminHandler) GetUpload(c *gin.Context) {
	upload, err := h.adminService.GetUpload(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, h.log, err, "load the upload")
		return
	}
	c.JSON(http.StatusOK, upload)
}

// CreateUpload godoc
// @Summary Create a delivery
// @Description Stores the uploaded files under the slug and writes its metadata document.
// @Tags Admin
// @Accept multipart/form-data
// @Produce json
// @Param slug formData string true "Delivery slug"
// @Param title formData string false "Title"
// @Param expiresAt formData string false "Expiry override (RFC 3339)"
// @Param ratingsEnabled formData bool false "Allow client ratings"
// @Param files formData file true "Files"
// @Success 201 {object} domain.Upload
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 409 {object} gin.H "Slug already in use"
// @Failure 413 {object} gin.H "Upload too large"
// @Router /admin/uploads [post]
func (h *AdminHandler) CreateUpload(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortWithError(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("Upload exceeds %d bytes", h.maxUploadBytes))
			return
		}
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid multipart form: %v", err))
		return
	}
	defer c.Request.MultipartForm.RemoveAll()

	var form CreateUploadForm
	if err := c.ShouldBind(&form); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	in := service.CreateUploadInput{
		Slug:           form.Slug,
		Title:          form.Title,
		RatingsEnabled: form.RatingsEnabled,
	}
	if form.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, form.ExpiresAt)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "expiresAt must be an RFC 3339 timestamp")
			return
		}
		t = t.UTC()
		in.ExpiresAt = &t
	}

	headers := c.Request.MultipartForm.File["files"]
	files := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Could not read file %q", fh.Filename))
			return
		}
		files = append(files, f)
		in.Files = append(in.Files, service.NewFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}

	upload, err := h.adminService.CreateUpload(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.log, err, "create the upload")
		return
	}
	c.JSON(http.StatusCreated, upload)
}

// DeleteUpload godoc
// @Summary Delete a delivery
// @Description Deletes every stored object of the delivery, metadata included.
// @Tags Admin
// @Produce json
// @Param slug path string true "Delivery slug"
// @Success 200 {object} DeleteUploadResponse
// @Failure 404 {object} gin.H "Not found"
// @Router /admin/uploads/{slug} [delete]
func (h *AdminHandler) DeleteUpload(c *gin.Context) {
	slug := c.Param("slug")
	n, err := h.adminService.DeleteUpload(c.Request.Context(), slug)
	if err != nil {
		respondError(c, h.log, err, "delete the upload")
		return
	}
	c.JSON(http.StatusOK, DeleteUploadResponse{Slug: slug, DeletedObjects: n})
}

// FileDownloadURL godoc
// @Summary Direct storage link for a delivered file
// @Tags Admin
// @Produce json
// @Param slug path string true "Delivery slug"
// @Param filename path string true "File name"
// @Success 200 {object} DownloadURLResponse
// @Failure 404 {object} gin.H "Not found"
// @Router /admin/uploads/{slug}/files/{filename}/url [get]
func (h *AdminHandler) FileDownloadURL(c *gin.Context) {
	u, err := h.adminService.FileDownloadURL(c.Request.Context(), c.Param("slug"), c.Param("filename"))
	if err != nil {
		respondError(c, h.log, err, "create the download link")
		return
	}
	c.JSON(http.StatusOK, DownloadURLResponse{URL: u})
}

// FindOrphans godoc
// @Summary Report orphaned uploads
// @Description Lists objects without metadata and metadata entries whose files are missing.
// @Tags Admin
// @Produce json
// @Success 200 {object} service.OrphanReport
// @Router /admin/orphans [get]
func (h *AdminHandler) FindOrphans(c *gin.Context) {
	report, err := h.adminService.FindOrphans(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "find orphans")
		return
	}
	c.JSON(http.StatusOK, report)
}

// CleanupOrphans godoc
// @Summary Delete orphaned uploads
// @Tags Admin
// @Produce json
// @Success 200 {object} service.CleanupReport
// @Router /admin/orphans/cleanup [post]
func (h *AdminHandler) CleanupOrphans(c *gin.Context) {
	report, err := h.adminService.CleanupOrphans(c.Request.Context())
	if err != nil {
		metrics.RecordOrphanCleanup("manual", 0, false)
		respondError(c, h.log, err, "clean up orphans")
		return
	}
	metrics.RecordOrphanCleanup("manual", report.DeletedObjects, true)
	c.JSON(http.StatusOK, report)
}

// Stats godoc
// @Summary Storage usage and cost estimate
// @Tags Admin
// @Produce json
// @Param month query string false "Month as YYYY-MM, defaults to the current month"
// @Success 200 {object} service.UsageStats
// @Failure 400 {object} gin.H "Invalid month"
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	month := h.now()
	if raw := strings.TrimSpace(c.Query("month")); raw != "" {
		parsed, err := time.Parse("2006-01", raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "month must be formatted as YYYY-MM")
			return
		}
		month = parsed
	}

	stats, err := h.adminService.Stats(c.Request.Context(), month)
	if err != nil {
		respondError(c, h.log, err, "compute stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// SetRating godoc
// @Summary Rate a file as the admin
// @Tags Admin
// @Accept json
// @Produce json
// @Param slug path string true "Delivery slug"
// @Param rating body SetRatingRequest true "Rating"
// @Success 200 {object} domain.Upload
// @Router /admin/uploads/{slug}/ratings [put]
func (h *AdminHandler) SetRating(c *gin.Context) {
	var req SetRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	upload, err := h.adminService.SetRating(c.Request.Context(), c.Param("slug"), req.FileKey, *req.Rated)
	if err != nil {
		respondError(c, h.log, err, "save the rating")
		return
	}
	c.JSON(http.StatusOK, upload)
}

// ClearRatings godoc
// @Summary Clear all ratings of a delivery
// @Tags Admin
// @Produce json
// @Param slug path string true "Delivery slug"
// @Success 200 {object} domain.Upload
// @Router /admin/uploads/{slug}/ratings [delete]
func (h *AdminHandler) ClearRatings(c *gin.Context) {
	upload, err := h.adminService.ClearRatings(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, h.log, err, "clear ratings")
		return
	}
	c.JSON(http.StatusOK, upload)
}

// SetRatingsEnabled godoc
// @Summary Allow or forbid client ratings
// @Tags Admin
// @Accept json
// @Produce json
// @Param slug path string true "Delivery slug"
// @Param body body RatingsEnabledRequest true "Flag"
// @Success 200 {object} domain.Upload
// @Router /admin/uploads/{slug}/ratings-enabled [put]
func (h *AdminHandler) SetRatingsEnabled(c *gin.Context) {
	var req RatingsEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	upload, err := h.adminService.SetRatingsEnabled(c.Request.Context(), c.Param("slug"), *req.Enabled)
	if err != nil {
		respondError(c, h.log, err, "update ratings")
		return
	}
	c.JSON(http.StatusOK, upload)
}

// SetBackgroundImage godoc
// @Summary Choose the background image of a delivery
// @Description An empty fileKey clears it.
// @Tags Admin
// @Accept json
// @Produce json
// @Param slug path string true "Delivery slug"
// @Param body body FileKeyRequest true "File key"
// @Success 200 {object} domain.Upload
// @Router /admin/uploads/{slug}/background [put]
func (h *AdminHandler) SetBackgroundImage(c *gin.Context) {
	var req FileKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	upload, err := h.adminService.SetBackgroundImage(c.Request.Context(), c.Param("slug"), req.FileKey)
	if err != nil {
		respondError(c, h.log, err, "set the background image")
		return
	}
	c.JSON(http.StatusOK, upload)
}

// SetPreviewImage godoc
// @Summary Choose the preview image of a delivery
// @Description An empty fileKey clears it.
// @Tags Admin
// @Accept json
// @Produce json
// @Param slug path string true "Delivery slug"
// @Param body body FileKeyRequest true "File key"
// @Success 200 {object} domain.Upload
// @Router /admin/uploads/{slug}/preview [put]
func (h *AdminHandler) SetPreviewImage(c *gin.Context) {
	var req FileKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	upload, err := h.adminService.SetPreviewImage(c.Request.Context(), c.Param("slug"), req.FileKey)
	if err != nil {
		respondError(c, h.log, err, "set the preview image")
		return
	}
	c.JSON(http.StatusOK, upload)
}

// SetExpiry godoc
// @Summary Override or reset the expiry of a delivery
// @Description A null expiresAt falls back to the default window.
// @Tags Admin
// @Accept json
// @Produce json
// @Param slug path string true "Delivery slug"
// @Param body body ExpiryRequest true "Expiry"
// @Success 200 {object} domain.Upload
// @Router /admin/uploads/{slug}/expiry [put]
func (h *AdminHandler) SetExpiry(c *gin.Context) {
	var req ExpiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	upload, err := h.adminService.SetExpiry(c.Request.Context(), c.Param("slug"), req.ExpiresAt)
	if err != nil {
		respondError(c, h.log, err, "set the expiry")
		return
	}
	c.JSON(http.StatusOK, upload)
}
