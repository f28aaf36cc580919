// Package session implements the encrypted admin session cookie.
//
// A session is a set of JWT claims signed with HS256 and then sealed with
// XChaCha20-Poly1305, so the cookie is both tamper-proof and opaque to the
// browser. Signing and encryption keys are derived from one secret via HKDF.
package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// MinSecretLength is the minimum length of the session secret.
const MinSecretLength = 32

const (
	tokenPrefix = "v1."
	issuer      = "photo-portfolio"
	hkdfSalt    = "photo-portfolio-session"
)

var (
	ErrInvalidSession = errors.New("invalid session")
	ErrExpiredSession = errors.New("session has expired")
	ErrWeakSecret     = fmt.Errorf("session secret must be at least %d characters", MinSecretLength)
)

// Data is the content of an admin session.
type Data struct {
	IsLoggedIn bool `json:"isLoggedIn"`
}

type sessionClaims struct {
	IsLoggedIn bool `json:"isLoggedIn"`
	jwt.RegisteredClaims
}

// Sealer seals and opens session cookies.
type Sealer struct {
	signKey []byte
	encKey  []byte
	ttl     time.Duration
	now     func() time.Time
}

// NewSealer derives the session keys from secret. Sessions expire after ttl.
func NewSealer(secret string, ttl time.Duration) (*Sealer, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}

	signKey, err := deriveKey(secret, "session-signing")
	if err != nil {
		return nil, err
	}
	encKey, err := deriveKey(secret, "session-encryption")
	if err != nil {
		return nil, err
	}

	return &Sealer{
		signKey: signKey,
		encKey:  encKey,
		ttl:     ttl,
		now:     time.Now,
	}, nil
}

// TTL returns the lifetime of sealed sessions.
func (s *Sealer) TTL() time.Duration {
	return s.ttl
}

// Seal encodes data into an opaque cookie value and returns its expiry.
func (s *Sealer) Seal(data Data) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.ttl)

	claims := sessionClaims{
		IsLoggedIn: data.IsLoggedIn,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}

	aead, err := chacha20poly1305.NewX(s.encKey)
	if err != nil {
		return "", time.Time{}, err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(signed)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", time.Time{}, fmt.Errorf("generate nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(signed), nil)

	return tokenPrefix + base64.RawURLEncoding.EncodeToString(sealed), expires, nil
}

// Open decrypts and verifies a cookie value.
func (s *Sealer) Open(value string) (*Data, error) {
	encoded, ok := strings.CutPrefix(value, tokenPrefix)
	if !ok {
		return nil, ErrInvalidSession
	}
	sealed, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalidSession
	}

	aead, err := chacha20poly1305.NewX(s.encKey)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrInvalidSession
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	signed, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrInvalidSession
	}

	// Expiry is checked against s.now below so tests can move the clock
	claims := &sessionClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	token, err := parser.ParseWithClaims(string(signed), claims, func(*jwt.Token) (interface{}, error) {
		return s.signKey, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}
	if claims.Issuer != issuer || claims.ExpiresAt == nil {
		return nil, ErrInvalidSession
	}
	if !s.now().Before(claims.ExpiresAt.Time) {
		return nil, ErrExpiredSession
	}

	return &Data{IsLoggedIn: claims.IsLoggedIn}, nil
}

func deriveKey(secret, info string) ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	r := hkdf.New(sha256.New, []byte(secret), []byte(hkdfSalt), []byte(info))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", info, err)
	}
	return key, nil
}
