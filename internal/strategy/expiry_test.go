package strategy

import (
	"testing"
	"time"

	"tradecover/internal/errors"
)

func TestDaysToExpiryFormats(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		expiry string
		want   int
	}{
		{"date only", "2026-04-01", 30},
		{"rfc3339", "2026-04-01T15:30:00Z", 30},
		{"datetime without zone", "2026-04-01T15:30:00", 30},
		{"same day", "2026-03-02", 0},
		{"past date floors at zero", "2026-02-20", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DaysToExpiry(tt.expiry, now)
			if err != nil {
				t.Fatalf("DaysToExpiry(%q) error: %v", tt.expiry, err)
			}
			if got != tt.want {
				t.Errorf("DaysToExpiry(%q) = %d, want %d", tt.expiry, got, tt.want)
			}
		})
	}
}

func TestDaysToExpiryIgnoresTimeOfDay(t *testing.T) {
	late := time.Date(2026, 3, 2, 23, 59, 0, 0, time.UTC)
	got, err := DaysToExpiry("2026-03-03", late)
	if err != nil {
		t.Fatal(err)
	}
	if got != 1 {
		t.Errorf("DaysToExpiry late in the day = %d, want 1", got)
	}
}

func TestDaysToExpiryInvalidInput(t *testing.T) {
	now := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	for _, expiry := range []string{"", "not-a-date", "03/02/2026", "2026-13-40"} {
		if _, err := DaysToExpiry(expiry, now); !errors.Is(err, errors.ErrInvalidDate) {
			t.Errorf("DaysToExpiry(%q) error = %v, want ErrInvalidDate", expiry, err)
		}
	}
}

func TestWithinExpiryWindow(t *testing.T) {
	tests := []struct {
		name      string
		dte       int
		target    int
		tolerance int
		want      bool
	}{
		{"inside", 30, 30, 10, true},
		{"lower edge", 20, 30, 10, true},
		{"upper edge", 40, 30, 10, true},
		{"below", 19, 30, 10, false},
		{"above", 41, 30, 10, false},
		{"floor blocks same-week legs", 5, 10, 10, false},
		{"floor edge", 7, 10, 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WithinExpiryWindow(tt.dte, tt.target, tt.tolerance)
			if got != tt.want {
				t.Errorf("WithinExpiryWindow(%d, %d, %d) = %v, want %v",
					tt.dte, tt.target, tt.tolerance, got, tt.want)
			}
		})
	}
}
