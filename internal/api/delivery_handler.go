package api

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"alcyxob/photo-portfolio/internal/metrics"
	"alcyxob/photo-portfolio/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// DeliveryCacheControl keeps delivered files out of shared caches; they expire.
const DeliveryCacheControl = "private, no-cache"

// DeliveryHandler serves the private client delivery pages.
type DeliveryHandler struct {
	deliveryService service.DeliveryService
	log             *logrus.Logger
}

// NewDeliveryHandler creates a new DeliveryHandler.
func NewDeliveryHandler(deliveryService service.DeliveryService, log *logrus.Logger) *DeliveryHandler {
	return &DeliveryHandler{deliveryService: deliveryService, log: log}
}

type RateRequest struct {
	File  string `json:"file" binding:"required"`
	Rated *bool  `json:"rated" binding:"required"`
}

// publicError answers client delivery requests. An invalid slug is reported
// as a missing upload so slugs cannot be probed.
func (h *DeliveryHandler) publicError(c *gin.Context, err error, action string) {
	if errors.Is(err, service.ErrInvalidSlug) {
		abortWithError(c, http.StatusNotFound, service.ErrUploadNotFound.Error())
		return
	}
	respondError(c, h.log, err, action)
}

// GetUpload godoc
// @Summary Get a delivery
// @Description Returns the public metadata of a client delivery. Storage keys are never included.
// @Tags Delivery
// @Produce json
// @Param slug path string true "Delivery slug"
// @Success 200 {object} service.PublicUpload
// @Failure 404 {object} gin.H "Not found"
// @Router /{slug} [get]
func (h *DeliveryHandler) GetUpload(c *gin.Context) {
	pub, err := h.deliveryService.GetPublic(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.publicError(c, err, "load the delivery")
		return
	}
	c.JSON(http.StatusOK, pub)
}

// ServeFile godoc
// @Summary Download a delivered file
// @Description Streams one file of a delivery. With download=1 it is sent as an attachment and counted.
// @Tags Delivery
// @Produce octet-stream
// @Param slug path string true "Delivery slug"
// @Param filename path string true "File name"
// @Param download query bool false "Send as attachment"
// @Success 200 {file} binary
// @Failure 404 {object} gin.H "Not found"
// @Failure 410 {object} gin.H "Delivery expired"
// @Router /{slug}/files/{filename} [get]
func (h *DeliveryHandler) ServeFile(c *gin.Context) {
	slug := c.Param("slug")
	download, _ := strconv.ParseBool(c.Query("download"))

	f, err := h.deliveryService.OpenFile(c.Request.Context(), slug, c.Param("filename"))
	if err != nil {
		h.publicError(c, err, "open the file")
		return
	}
	defer f.Body.Close()

	kind := "view"
	if download {
		kind = "download"
		if _, err := h.deliveryService.RecordDownload(c.Request.Context(), slug); err != nil {
			// The file is still served
			requestLog(c, h.log).WithError(err).WithField("slug", slug).Warn("failed to record download")
		}
	}
	metrics.RecordFileServed(kind)
	writeStream(c, f, DeliveryCacheControl, download)
}

// Rate godoc
// @Summary Rate a delivered file
// @Description Marks or unmarks a file as a favourite when the delivery allows ratings.
// @Tags Delivery
// @Accept json
// @Produce json
// @Param slug path string true "Delivery slug"
// @Param rating body RateRequest true "Rating"
// @Success 200 {object} service.PublicUpload
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 403 {object} gin.H "Ratings disabled"
// @Failure 404 {object} gin.H "Not found"
// @Failure 410 {object} gin.H "Delivery expired"
// @Router /{slug}/ratings [post]
func (h *DeliveryHandler) Rate(c *gin.Context) {
	var req RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	pub, err := h.deliveryService.Rate(c.Request.Context(), c.Param("slug"), req.File, *req.Rated)
	if err != nil {
		h.publicError(c, err, "save the rating")
		return
	}
	c.JSON(http.StatusOK, pub)
}

// writeStream copies an opened file to the response with its metadata headers.
func writeStream(c *gin.Context, f *service.FileStream, cacheControl string, attachment bool) {
	headers := map[string]string{
		"Cache-Control": cacheControl,
	}
	if f.ETag != "" {
		headers["ETag"] = `"` + f.ETag + `"`
	}
	if !f.ModTime.IsZero() {
		headers["Last-Modified"] = f.ModTime.UTC().Format(http.TimeFormat)
	}
	disposition := "inline"
	if attachment {
		disposition = "attachment"
	}
	headers["Content-Disposition"] = mime.FormatMediaType(disposition, map[string]string{"filename": f.Name})
	c.DataFromReader(http.StatusOK, f.Size, f.ContentType, f.Body, headers)
}
