package api

import (
	"fmt"
	"net/http"
	"strconv"

	"alcyxob/photo-portfolio/internal/domain"
	"alcyxob/photo-portfolio/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const defaultMessageLimit = 100

// ContactHandler accepts contact form submissions.
type ContactHandler struct {
	contactService service.ContactService
	log            *logrus.Logger
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(contactService service.ContactService, log *logrus.Logger) *ContactHandler {
	return &ContactHandler{contactService: contactService, log: log}
}

type ContactRequest struct {
	Name    string `json:"name" binding:"required,max=200"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject" binding:"max=200"`
	Message string `json:"message" binding:"required,max=5000"`
}

// Submit godoc
// @Summary Send a contact message
// @Tags Contact
// @Accept json
// @Produce json
// @Param message body ContactRequest true "Message"
// @Success 201 {object} domain.ContactMessage
// @Failure 400 {object} gin.H "Invalid input"
// @Router /contact [post]
func (h *ContactHandler) Submit(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	msg, err := h.contactService.Submit(c.Request.Context(), domain.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		respondError(c, h.log, err, "send the message")
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// ListMessages godoc
// @Summary List contact messages, newest first
// @Tags Admin
// @Produce json
// @Param limit query int false "Maximum number of messages"
// @Success 200 {array} domain.ContactMessage
// @Router /admin/messages [get]
func (h *ContactHandler) ListMessages(c *gin.Context) {
	limit := int64(defaultMessageLimit)
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			abortWithError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	messages, err := h.contactService.List(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.log, err, "list messages")
		return
	}
	if messages == nil {
		messages = []domain.ContactMessage{}
	}
	c.JSON(http.StatusOK, messages)
}
