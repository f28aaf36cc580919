package api

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"alcyxob/photo-portfolio/internal/metrics"
	"alcyxob/photo-portfolio/internal/service"
	"alcyxob/photo-portfolio/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Constants for context keys
const (
	ContextRequestIDKey = "requestID"
	ContextAdminKey     = "isAdmin"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// AdminAuthMiddleware rejects requests without a live admin session cookie.
func AdminAuthMiddleware(authService service.AuthService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(cookieName)
		if err != nil || cookie == "" {
			abortWithError(c, http.StatusUnauthorized, "Authentication required")
			return
		}

		if err := authService.Authenticate(cookie); err != nil {
			if errors.Is(err, session.ErrExpiredSession) {
				abortWithError(c, http.StatusUnauthorized, "Session has expired")
			} else {
				abortWithError(c, http.StatusUnauthorized, "Authentication required")
			}
			return
		}

		c.Set(ContextAdminKey, true)
		c.Next()
	}
}

// RequestLogger assigns a request id and logs every request once it has been served.
func RequestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		c.Set(ContextRequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		entry := log.WithFields(logrus.Fields{
			"requestId": requestID,
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
			"clientIp":  c.ClientIP(),
			"bytes":     c.Writer.Size(),
		})
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request served")
		}
	}
}

// Metrics records request counts and latencies by route template.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		done := metrics.InFlight()
		start := time.Now()
		c.Next()
		done()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// LoginRateLimiter throttles login attempts per client IP.
type LoginRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
	log      *logrus.Logger
}

// maxTrackedClients bounds the limiter table before it is reset.
const maxTrackedClients = 10000

// NewLoginRateLimiter allows perSecond attempts per client with the given burst.
func NewLoginRateLimiter(perSecond float64, burst int, log *logrus.Logger) *LoginRateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &LoginRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(perSecond),
		burst:    burst,
		log:      log,
	}
}

func (rl *LoginRateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[key]
	if !exists {
		if len(rl.limiters) >= maxTrackedClients {
			rl.limiters = make(map[string]*rate.Limiter)
		}
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = limiter
	}
	return limiter
}

// Handler returns the rate limiting middleware handler.
func (rl *LoginRateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if !rl.getLimiter(key).Allow() {
			requestLog(c, rl.log).WithField("clientIp", key).Warn("login rate limit exceeded")
			c.Header("Retry-After", "5")
			abortWithError(c, http.StatusTooManyRequests, "Too many login attempts, try again later")
			return
		}
		c.Next()
	}
}
