package ai

import (
	"testing"
	"time"
)

func TestIsBusinessHours(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"tuesday 10am", time.Date(2026, 7, 28, 10, 0, 0, 0, time.UTC), true},
		{"tuesday 8am before open", time.Date(2026, 7, 28, 8, 0, 0, 0, time.UTC), false},
		{"tuesday 5pm at close", time.Date(2026, 7, 28, 17, 0, 0, 0, time.UTC), false},
		{"tuesday 4:59pm still open", time.Date(2026, 7, 28, 16, 59, 0, 0, time.UTC), true},
		{"saturday 10am", time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC), false},
		{"sunday 10am", time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isBusinessHours(tt.t); got != tt.want {
				t.Errorf("isBusinessHours(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}
