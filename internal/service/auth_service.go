package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"time"

	"alcyxob/photo-portfolio/internal/session"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrAuthenticationFailed = errors.New("authentication failed: invalid password")
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrSessionGeneration    = errors.New("failed to create session")
)

// AuthService guards the admin surface with a single shared password.
type AuthService interface {
	// Login checks the password and returns a sealed session cookie value.
	Login(ctx context.Context, password string) (cookie string, expires time.Time, err error)
	// Authenticate returns nil when cookie holds a live, logged-in session.
	Authenticate(cookie string) error
	SessionTTL() time.Duration
}

type authService struct {
	password     string
	passwordHash string
	sealer       *session.Sealer
}

// NewAuthService creates the admin auth service. passwordHash, a bcrypt hash,
// takes precedence over the plain password when set.
func NewAuthService(password, passwordHash string, sealer *session.Sealer) AuthService {
	if password == "" && passwordHash == "" {
		panic("admin password cannot be empty") // Critical configuration
	}
	return &authService{
		password:     password,
		passwordHash: passwordHash,
		sealer:       sealer,
	}
}

func (s *authService) Login(ctx context.Context, password string) (string, time.Time, error) {
	if password == "" || !s.checkPassword(password) {
		return "", time.Time{}, ErrAuthenticationFailed
	}

	cookie, expires, err := s.sealer.Seal(session.Data{IsLoggedIn: true})
	if err != nil {
		return "", time.Time{}, ErrSessionGeneration
	}
	return cookie, expires, nil
}

func (s *authService) Authenticate(cookie string) error {
	if cookie == "" {
		return ErrNotAuthenticated
	}
	data, err := s.sealer.Open(cookie)
	if err != nil {
		return err
	}
	if !data.IsLoggedIn {
		return ErrNotAuthenticated
	}
	return nil
}

func (s *authService) SessionTTL() time.Duration {
	return s.sealer.TTL()
}

func (s *authService) checkPassword(password string) bool {
	if s.passwordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)) == nil
	}
	// Compare digests so the comparison time does not depend on the length
	got := sha256.Sum256([]byte(password))
	want := sha256.Sum256([]byte(s.password))
	return subtle.ConstantTimeCompare(got[:], want[:]) == 1
}
