package session

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestSealer(t *testing.T, now *time.Time) *Sealer {
	t.Helper()
	s, err := NewSealer(testSecret, 5*time.Hour)
	require.NoError(t, err)
	s.now = func() time.Time { return *now }
	return s
}

func TestSealOpen_RoundTrip(t *testing.T) {
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	s := newTestSealer(t, &now)

	value, expires, err := s.Seal(Data{IsLoggedIn: true})
	require.NoError(t, err)
	assert.Equal(t, now.Add(5*time.Hour).Unix(), expires.Unix())
	assert.True(t, strings.HasPrefix(value, "v1."))

	data, err := s.Open(value)
	require.NoError(t, err)
	assert.True(t, data.IsLoggedIn)
}

func TestOpen_Expired(t *testing.T) {
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	s := newTestSealer(t, &now)

	value, _, err := s.Seal(Data{IsLoggedIn: true})
	require.NoError(t, err)

	now = now.Add(5*time.Hour + time.Second)
	_, err = s.Open(value)
	assert.ErrorIs(t, err, ErrExpiredSession)
}

func TestOpen_Tampered(t *testing.T) {
	now := time.Now()
	s := newTestSealer(t, &now)

	value, _, err := s.Seal(Data{IsLoggedIn: true})
	require.NoError(t, err)

	// Flip one character in the payload
	b := []byte(value)
	i := len(b) - 5
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}

	for _, bad := range []string{string(b), "", "v1.", "v1.!!!", "v2." + value[3:], "v1.AAAA"} {
		_, err := s.Open(bad)
		assert.ErrorIs(t, err, ErrInvalidSession, "value %q", bad)
	}
}

func TestOpen_OtherSecret(t *testing.T) {
	now := time.Now()
	s := newTestSealer(t, &now)
	value, _, err := s.Seal(Data{IsLoggedIn: true})
	require.NoError(t, err)

	other, err := NewSealer(strings.Repeat("z", 40), time.Hour)
	require.NoError(t, err)
	_, err = other.Open(value)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestNewSealer_Validation(t *testing.T) {
	_, err := NewSealer("short", time.Hour)
	assert.ErrorIs(t, err, ErrWeakSecret)

	_, err = NewSealer(testSecret, 0)
	assert.Error(t, err)
}
