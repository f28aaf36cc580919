package api

import (
	"errors"
	"net/http"

	"alcyxob/photo-portfolio/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

var (
	badRequestErrors = []error{
		service.ErrInvalidSlug,
		service.ErrReservedSlug,
		service.ErrInvalidFilename,
		service.ErrDuplicateFile,
		service.ErrNoFiles,
		service.ErrInvalidCategory,
		service.ErrInvalidQuantity,
		service.ErrInvalidProduct,
		service.ErrInvalidCustomer,
		service.ErrMixedCurrency,
		service.ErrEmptyCart,
		service.ErrInvalidOrderStatus,
		service.ErrInvalidMessage,
	}
	notFoundErrors = []error{
		service.ErrUploadNotFound,
		service.ErrFileNotFound,
		service.ErrCategoryNotFound,
		service.ErrProductNotFound,
		service.ErrPhotoNotFound,
		service.ErrCartItemNotFound,
		service.ErrOrderNotFound,
	}
)

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// statusFor maps a service error to its HTTP status code.
func statusFor(err error) int {
	switch {
	case isAny(err, badRequestErrors):
		return http.StatusBadRequest
	case isAny(err, notFoundErrors):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUploadExists):
		return http.StatusConflict
	case errors.Is(err, service.ErrUploadExpired):
		return http.StatusGone
	case errors.Is(err, service.ErrRatingsDisabled):
		return http.StatusForbidden
	case errors.Is(err, service.ErrAuthenticationFailed), errors.Is(err, service.ErrNotAuthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error response for err. Unexpected errors are
// logged with request context and answered with a generic message.
func respondError(c *gin.Context, log *logrus.Logger, err error, action string) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		requestLog(c, log).WithError(err).Error(action + " failed")
		abortWithError(c, code, "An unexpected error occurred while trying to "+action)
		return
	}
	abortWithError(c, code, err.Error())
}

// requestLog returns a log entry carrying the request id, when one was assigned.
func requestLog(c *gin.Context, log *logrus.Logger) *logrus.Entry {
	entry := log.WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	})
	if id, ok := c.Get(ContextRequestIDKey); ok {
		entry = entry.WithField("requestId", id)
	}
	return entry
}
