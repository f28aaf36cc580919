package api

import (
	"net/http"

	"alcyxob/photo-portfolio/internal/metrics"
	"alcyxob/photo-portfolio/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// PhotoCacheControl lets browsers and CDNs keep gallery photos for a year.
const PhotoCacheControl = "public, max-age=31536000, immutable"

// GalleryHandler serves the public portfolio and its admin ordering.
type GalleryHandler struct {
	galleryService service.GalleryService
	log            *logrus.Logger
}

// NewGalleryHandler creates a new GalleryHandler.
func NewGalleryHandler(galleryService service.GalleryService, log *logrus.Logger) *GalleryHandler {
	return &GalleryHandler{galleryService: galleryService, log: log}
}

type SetOrderRequest struct {
	Files []string `json:"files"`
}

// ServePhoto godoc
// @Summary Get a gallery photo
// @Description Streams a public photo with a one year immutable cache header.
// @Tags Galleries
// @Produce image/jpeg
// @Param category path string true "Category"
// @Param filename path string true "File name"
// @Success 200 {file} binary
// @Failure 404 {object} gin.H "Not found"
// @Router /photos/{category}/{filename} [get]
func (h *GalleryHandler) ServePhoto(c *gin.Context) {
	f, err := h.galleryService.OpenPhoto(c.Request.Context(), c.Param("category"), c.Param("filename"))
	if err != nil {
		respondError(c, h.log, err, "open the photo")
		return
	}
	defer f.Body.Close()

	metrics.RecordFileServed("photo")
	writeStream(c, f, PhotoCacheControl, false)
}

// ListCategories godoc
// @Summary List gallery categories
// @Tags Galleries
// @Produce json
// @Success 200 {array} service.Category
// @Router /galleries [get]
func (h *GalleryHandler) ListCategories(c *gin.Context) {
	categories, err := h.galleryService.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "list galleries")
		return
	}
	c.JSON(http.StatusOK, categories)
}

// ListPhotos godoc
// @Summary List the photos of a category
// @Tags Galleries
// @Produce json
// @Param category path string true "Category"
// @Success 200 {array} domain.Photo
// @Failure 404 {object} gin.H "Not found"
// @Router /galleries/{category} [get]
func (h *GalleryHandler) ListPhotos(c *gin.Context) {
	photos, err := h.galleryService.ListPhotos(c.Request.Context(), c.Param("category"))
	if err != nil {
		respondError(c, h.log, err, "list photos")
		return
	}
	c.JSON(http.StatusOK, photos)
}

// GetOrder godoc
// @Summary Get the gallery ordering document
// @Tags Admin
// @Produce json
// @Success 200 {object} domain.GalleryOrder
// @Router /admin/galleries/order [get]
func (h *GalleryHandler) GetOrder(c *gin.Context) {
	order, err := h.galleryService.GetOrder(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "load the gallery order")
		return
	}
	c.JSON(http.StatusOK, order)
}

// SetOrder godoc
// @Summary Set the photo order of a category
// @Tags Admin
// @Accept json
// @Produce json
// @Param category path string true "Category"
// @Param order body SetOrderRequest true "Ordered file names"
// @Success 200 {object} domain.GalleryOrder
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 404 {object} gin.H "Unknown category or file"
// @Router /admin/galleries/{category}/order [put]
func (h *GalleryHandler) SetOrder(c *gin.Context) {
	var req SetOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	order, err := h.galleryService.SetOrder(c.Request.Context(), c.Param("category"), req.Files)
	if err != nil {
		respondError(c, h.log, err, "save the gallery order")
		return
	}
	c.JSON(http.StatusOK, order)
}
