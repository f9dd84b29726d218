package credential

import (
	"testing"
	"time"
)

func TestCredential_IsExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	safety := 60 * time.Second

	tests := []struct {
		name      string
		expiresAt *time.Time
		want      bool
	}{
		{"nil expiry never expires", nil, false},
		{"already past", timePtr(now.Add(-time.Minute)), true},
		{"inside safety window", timePtr(now.Add(30 * time.Second)), true},
		{"outside safety window", timePtr(now.Add(5 * time.Minute)), false},
		{"exactly at safety boundary", timePtr(now.Add(safety)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Credential{ExpiresAt: tt.expiresAt}
			if got := c.IsExpired(now, safety); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCredential_ExpiresWithin(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	window := 24 * time.Hour

	tests := []struct {
		name      string
		expiresAt *time.Time
		want      bool
	}{
		{"nil expiry never needs proactive refresh", nil, false},
		{"within window", timePtr(now.Add(12 * time.Hour)), true},
		{"beyond window", timePtr(now.Add(48 * time.Hour)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Credential{ExpiresAt: tt.expiresAt}
			if got := c.ExpiresWithin(now, window); got != tt.want {
				t.Errorf("ExpiresWithin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func timePtr(t time.Time) *time.Time { return &t }
