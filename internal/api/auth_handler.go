package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"alcyxob/photo-portfolio/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuthHandler holds the authentication service dependency.
type AuthHandler struct {
	authService  service.AuthService
	cookieName   string
	secureCookie bool
	log          *logrus.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService, cookieName string, secureCookie bool, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		cookieName:   cookieName,
		secureCookie: secureCookie,
		log:          log,
	}
}

// --- Request/Response Structs ---

type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

type SessionResponse struct {
	IsLoggedIn bool       `json:"isLoggedIn"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

// --- Handler Methods ---

// Login godoc
// @Summary Log in as the admin
// @Description Checks the admin password and sets the sealed session cookie.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Admin password"
// @Success 200 {object} SessionResponse "Login successful"
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 401 {object} gin.H "Unauthorized (invalid password)"
// @Failure 429 {object} gin.H "Too many attempts"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /admin/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	cookie, expires, err := h.authService.Login(c.Request.Context(), req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAuthenticationFailed) {
			requestLog(c, h.log).WithField("clientIp", c.ClientIP()).Warn("failed admin login")
			abortWithError(c, http.StatusUnauthorized, "Invalid password")
		} else {
			requestLog(c, h.log).WithError(err).Error("could not create admin session")
			abortWithError(c, http.StatusInternalServerError, "Could not process login")
		}
		return
	}

	h.setSessionCookie(c, cookie, expires)
	c.JSON(http.StatusOK, SessionResponse{IsLoggedIn: true, ExpiresAt: &expires})
}

// Logout godoc
// @Summary Log out
// @Description Clears the admin session cookie.
// @Tags Auth
// @Success 204 "Logged out"
// @Router /admin/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	c.Status(http.StatusNoContent)
}

// Session godoc
// @Summary Current session state
// @Description Reports whether the request carries a live admin session.
// @Tags Auth
// @Produce json
// @Success 200 {object} SessionResponse
// @Router /admin/session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	cookie, err := c.Cookie(h.cookieName)
	if err != nil || h.authService.Authenticate(cookie) != nil {
		c.JSON(http.StatusOK, SessionResponse{IsLoggedIn: false})
		return
	}
	c.JSON(http.StatusOK, SessionResponse{IsLoggedIn: true})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, expires time.Time) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.cookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(h.authService.SessionTTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
