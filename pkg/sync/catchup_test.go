package sync

import (
	"testing"
	"time"
)

func TestChooseMode(t *testing.T) {
	now := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)
	threshold := 36 * time.Hour

	recent := now.Add(-1 * time.Hour)
	stale := now.Add(-48 * time.Hour)
	atThreshold := now.Add(-threshold)

	tests := []struct {
		name string
		last *time.Time
		want Mode
	}{
		{"never synced", nil, ModeCatchUp},
		{"recently synced", &recent, ModeIncremental},
		{"stale beyond threshold", &stale, ModeCatchUp},
		{"exactly at threshold is not yet stale", &atThreshold, ModeIncremental},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChooseMode(tt.last, now, threshold); got != tt.want {
				t.Errorf("ChooseMode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCatchUpWindowStart(t *testing.T) {
	now := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)
	window := 30 * 24 * time.Hour

	want := now.Add(-window)
	if got := CatchUpWindowStart(now, window); !got.Equal(want) {
		t.Errorf("CatchUpWindowStart() = %v, want %v", got, want)
	}
}
