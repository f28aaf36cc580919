package service

import (
	"time"

	"alcyxob/photo-portfolio/internal/domain"
)

// ExpiresAt returns when an upload stops being available: the explicit
// override when set, otherwise createdAt plus defaultDays.
func ExpiresAt(u *domain.Upload, defaultDays int) time.Time {
	if u.ExpiresAt != nil {
		return *u.ExpiresAt
	}
	return u.CreatedAt.Add(time.Duration(defaultDays) * 24 * time.Hour)
}

// IsExpired is true iff now is strictly after the upload's expiry.
func IsExpired(u *domain.Upload, now time.Time, defaultDays int) bool {
	return now.After(ExpiresAt(u, defaultDays))
}
