package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"alcyxob/photo-portfolio/internal/domain"
	"alcyxob/photo-portfolio/internal/logging"
	"alcyxob/photo-portfolio/internal/repository"
	"alcyxob/photo-portfolio/internal/repository/objectstore"
	"alcyxob/photo-portfolio/internal/service"
	"alcyxob/photo-portfolio/internal/session"
	"alcyxob/photo-portfolio/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPassword   = "correct horse battery staple"
	testSecret     = "0123456789abcdef0123456789abcdef"
	testCookieName = "admin_session"
)

type testServer struct {
	router     *gin.Engine
	store      *storage.MemoryStorage
	uploadRepo repository.UploadRepository
}

// newTestServer wires the delivery, admin and gallery surfaces over an
// in-memory object store. Shop and contact services are left unset.
func newTestServer(t *testing.T, loginBurst int) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := storage.NewMemoryStorage()
	uploadRepo := objectstore.NewUploadRepository(store)
	sealer, err := session.NewSealer(testSecret, 5*time.Hour)
	require.NoError(t, err)
	log := logging.Discard()

	router := gin.New()
	SetupRoutes(router, Services{
		Auth:     service.NewAuthService(testPassword, "", sealer),
		Delivery: service.NewDeliveryService(uploadRepo, store, 30),
		Admin:    service.NewAdminService(uploadRepo, store, 30, service.Pricing{PerGBMonth: 0.015}, log),
		Gallery:  service.NewGalleryService(objectstore.NewGalleryOrderRepository(store), store),
	}, RouteOptions{
		SessionCookieName: testCookieName,
		MaxUploadBytes:    1 << 20,
		CartMaxAgeSeconds: 3600,
		LoginRate:         0.0001,
		LoginBurst:        loginBurst,
	}, log)

	return &testServer{router: router, store: store, uploadRepo: uploadRepo}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// seed stores an upload with the given files and expiry.
func (s *testServer) seed(t *testing.T, slug string, expiresAt time.Time, files ...string) {
	t.Helper()
	u := &domain.Upload{
		Slug:      slug,
		Title:     "Test delivery",
		CreatedAt: time.Now().UTC().Add(-time.Hour),
		ExpiresAt: &expiresAt,
	}
	for _, name := range files {
		body := "content of " + name
		key := domain.FileKey(slug, name)
		require.NoError(t, s.store.PutObject(context.Background(), key, strings.NewReader(body), int64(len(body)), "image/jpeg"))
		u.Files = append(u.Files, domain.FileDescriptor{Name: name, Key: key, Size: int64(len(body)), Type: "image/jpeg"})
	}
	require.NoError(t, s.uploadRepo.Save(context.Background(), u))
}

func (s *testServer) login(t *testing.T) *http.Cookie {
	t.Helper()
	w := s.do(jsonRequest(http.MethodPost, "/api/admin/login", LoginRequest{Password: testPassword}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	for _, c := range w.Result().Cookies() {
		if c.Name == testCookieName {
			return c
		}
	}
	t.Fatal("login did not set the session cookie")
	return nil
}

func jsonRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, 5)
	w := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestAdminRoutes_RequireSession(t *testing.T) {
	s := newTestServer(t, 5)
	s.seed(t, "smith-wedding", time.Now().Add(24*time.Hour), "a.jpg")

	w := s.do(httptest.NewRequest(http.MethodDelete, "/api/admin/uploads/smith-wedding", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/admin/uploads", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Nothing was deleted
	_, err := s.uploadRepo.Get(context.Background(), "smith-wedding")
	assert.NoError(t, err)
}

func TestAdminRoutes_RejectForgedCookie(t *testing.T) {
	s := newTestServer(t, 5)
	req := httptest.NewRequest(http.MethodGet, "/api/admin/uploads", nil)
	req.AddCookie(&http.Cookie{Name: testCookieName, Value: "not-a-sealed-session"})
	w := s.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	s := newTestServer(t, 5)
	w := s.do(jsonRequest(http.MethodPost, "/api/admin/login", LoginRequest{Password: "nope"}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Result().Cookies())
}

func TestLogin_ThenAdminAccess(t *testing.T) {
	s := newTestServer(t, 5)
	s.seed(t, "smith-wedding", time.Now().Add(24*time.Hour), "a.jpg", "b.jpg")
	cookie := s.login(t)
	assert.True(t, cookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/session", nil)
	req.AddCookie(cookie)
	w := s.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	var sess SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))
	assert.True(t, sess.IsLoggedIn)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/uploads", nil)
	req.AddCookie(cookie)
	w = s.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	var uploads []service.UploadSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &uploads))
	require.Len(t, uploads, 1)
	assert.Equal(t, "smith-wedding", uploads[0].Slug)

	req = httptest.NewRequest(http.MethodDelete, "/api/admin/uploads/smith-wedding", nil)
	req.AddCookie(cookie)
	w = s.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var deleted DeleteUploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &deleted))
	assert.Equal(t, 3, deleted.DeletedObjects)

	_, err := s.uploadRepo.Get(context.Background(), "smith-wedding")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLogin_IsRateLimited(t *testing.T) {
	s := newTestServer(t, 2)
	for i := 0; i < 2; i++ {
		w := s.do(jsonRequest(http.MethodPost, "/api/admin/login", LoginRequest{Password: "wrong"}))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w := s.do(jsonRequest(http.MethodPost, "/api/admin/login", LoginRequest{Password: testPassword}))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestLogout_ClearsCookie(t *testing.T) {
	s := newTestServer(t, 5)
	w := s.do(httptest.NewRequest(http.MethodPost, "/api/admin/logout", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, testCookieName, cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestCreateUpload_Multipart(t *testing.T) {
	s := newTestServer(t, 5)
	cookie := s.login(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("slug", "jones-family"))
	require.NoError(t, mw.WriteField("title", "Jones family"))
	part, err := mw.CreateFormFile("files", "portrait.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("\xff\xd8\xff\xe0 fake jpeg"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(cookie)
	w := s.do(req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	u, err := s.uploadRepo.Get(context.Background(), "jones-family")
	require.NoError(t, err)
	require.Len(t, u.Files, 1)
	assert.Equal(t, "portrait.jpg", u.Files[0].Name)
}

func TestCreateUpload_InvalidSlug(t *testing.T) {
	s := newTestServer(t, 5)
	cookie := s.login(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("slug", "../etc"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(cookie)
	w := s.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetUpload_NoStorageKeys(t *testing.T) {
	s := newTestServer(t, 5)
	s.seed(t, "smith-wedding", time.Now().Add(24*time.Hour), "a.jpg")

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/smith-wedding", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), domain.FileKey("smith-wedding", "a.jpg"))
	assert.NotContains(t, w.Body.String(), `"key"`)

	var pub service.PublicUpload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pub))
	assert.False(t, pub.Expired)
	require.Len(t, pub.Files, 1)
	assert.Equal(t, "/api/smith-wedding/files/a.jpg", pub.Files[0].URL)
}

func TestGetUpload_UnknownOrInvalidSlug(t *testing.T) {
	s := newTestServer(t, 5)
	for _, target := range []string{"/api/nobody-here", "/api/Bad_Slug"} {
		w := s.do(httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusNotFound, w.Code, target)
	}
}

func TestExpiredDelivery(t *testing.T) {
	s := newTestServer(t, 5)
	s.seed(t, "old-shoot", time.Now().Add(-time.Hour), "a.jpg")

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/old-shoot", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var pub service.PublicUpload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pub))
	assert.True(t, pub.Expired)
	assert.Empty(t, pub.Files)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/old-shoot/files/a.jpg", nil))
	assert.Equal(t, http.StatusGone, w.Code)
}

func TestServeFile_DownloadIsCounted(t *testing.T) {
	s := newTestServer(t, 5)
	s.seed(t, "smith-wedding", time.Now().Add(24*time.Hour), "a.jpg")

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/smith-wedding/files/a.jpg", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, DeliveryCacheControl, w.Header().Get("Cache-Control"))
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Disposition"), "inline"))
	assert.Equal(t, "content of a.jpg", w.Body.String())

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/smith-wedding/files/a.jpg?download=1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Disposition"), "attachment"))

	u, err := s.uploadRepo.Get(context.Background(), "smith-wedding")
	require.NoError(t, err)
	assert.Equal(t, 1, u.Downloads)
}

func TestServeFile_Unknown(t *testing.T) {
	s := newTestServer(t, 5)
	s.seed(t, "smith-wedding", time.Now().Add(24*time.Hour), "a.jpg")

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/smith-wedding/files/missing.jpg", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(httptest.NewRequest(http.MethodGet, "/api/smith-wedding/files/metadata.json", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRate_DisabledUpload(t *testing.T) {
	s := newTestServer(t, 5)
	s.seed(t, "smith-wedding", time.Now().Add(24*time.Hour), "a.jpg")

	rated := true
	w := s.do(jsonRequest(http.MethodPost, "/api/smith-wedding/ratings", RateRequest{File: "a.jpg", Rated: &rated}))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestServePhoto_ImmutableCache(t *testing.T) {
	s := newTestServer(t, 5)
	body := "sunset pixels"
	require.NoError(t, s.store.PutObject(context.Background(), domain.PhotoKey("landscapes", "sunset.jpg"),
		strings.NewReader(body), int64(len(body)), "image/jpeg"))

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/photos/landscapes/sunset.jpg", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, max-age=31536000, immutable", w.Header().Get("Cache-Control"))
	assert.Equal(t, body, w.Body.String())

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/photos/landscapes/missing.jpg", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGalleries_Listing(t *testing.T) {
	s := newTestServer(t, 5)
	for _, key := range []string{
		domain.PhotoKey("landscapes", "a.jpg"),
		domain.PhotoKey("landscapes", "b.jpg"),
		domain.PhotoKey("portraits", "c.jpg"),
	} {
		require.NoError(t, s.store.PutObject(context.Background(), key, strings.NewReader("x"), 1, "image/jpeg"))
	}

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/galleries", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var categories []service.Category
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &categories))
	assert.Len(t, categories, 2)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/galleries/landscapes", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var photos []domain.Photo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &photos))
	assert.Len(t, photos, 2)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrInvalidSlug, http.StatusBadRequest},
		{service.ErrUploadNotFound, http.StatusNotFound},
		{service.ErrUploadExists, http.StatusConflict},
		{service.ErrUploadExpired, http.StatusGone},
		{service.ErrRatingsDisabled, http.StatusForbidden},
		{service.ErrAuthenticationFailed, http.StatusUnauthorized},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestEnableRatings_ThenClientRates(t *testing.T) {
	s := newTestServer(t, 5)
	s.seed(t, "smith-wedding", time.Now().Add(24*time.Hour), "a.jpg")
	cookie := s.login(t)

	enabled := true
	req := jsonRequest(http.MethodPut, "/api/admin/uploads/smith-wedding/ratings-enabled", RatingsEnabledRequest{Enabled: &enabled})
	req.AddCookie(cookie)
	w := s.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	rated := true
	w = s.do(jsonRequest(http.MethodPost, "/api/smith-wedding/ratings", RateRequest{File: "a.jpg", Rated: &rated}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var pub service.PublicUpload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pub))
	require.Len(t, pub.Files, 1)
	assert.True(t, pub.Files[0].Rated)

	req = httptest.NewRequest(http.MethodDelete, "/api/admin/uploads/smith-wedding/ratings", nil)
	req.AddCookie(cookie)
	w = s.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	u, err := s.uploadRepo.Get(context.Background(), "smith-wedding")
	require.NoError(t, err)
	assert.Empty(t, u.Ratings)
}

func TestStats_InvalidMonth(t *testing.T) {
	s := newTestServer(t, 5)
	cookie := s.login(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats?month=May", nil)
	req.AddCookie(cookie)
	w := s.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/stats?month=2026-05", nil)
	req.AddCookie(cookie)
	w = s.do(req)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
