package utils

import (
	"testing"
	"time"
)

func TestIsMarketOpen(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"midday weekday", time.Date(2026, 3, 2, 12, 0, 0, 0, EasternLocation), true},
		{"open bell", time.Date(2026, 3, 2, 9, 30, 0, 0, EasternLocation), true},
		{"just before open", time.Date(2026, 3, 2, 9, 29, 0, 0, EasternLocation), false},
		{"close bell", time.Date(2026, 3, 2, 16, 0, 0, 0, EasternLocation), false},
		{"saturday", time.Date(2026, 3, 7, 12, 0, 0, 0, EasternLocation), false},
		{"sunday", time.Date(2026, 3, 8, 12, 0, 0, 0, EasternLocation), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsMarketOpen(tt.at); got != tt.want {
				t.Errorf("IsMarketOpen(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestNextMarketOpen(t *testing.T) {
	// Monday pre-open rolls to the same day's open.
	at := time.Date(2026, 3, 2, 8, 0, 0, 0, EasternLocation)
	next := NextMarketOpen(at)
	want := time.Date(2026, 3, 2, 9, 30, 0, 0, EasternLocation)
	if !next.Equal(want) {
		t.Errorf("NextMarketOpen(pre-open Monday) = %v, want %v", next, want)
	}

	// Friday after the close rolls over the weekend.
	at = time.Date(2026, 3, 6, 17, 0, 0, 0, EasternLocation)
	next = NextMarketOpen(at)
	want = time.Date(2026, 3, 9, 9, 30, 0, 0, EasternLocation)
	if !next.Equal(want) {
		t.Errorf("NextMarketOpen(Friday evening) = %v, want %v", next, want)
	}
}
