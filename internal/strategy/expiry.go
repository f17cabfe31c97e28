package strategy

import (
	"strings"
	"time"

	"tradecover/internal/errors"
)

// DefaultExpiryTolerance is the window half-width in days around the
// target expiry.
const DefaultExpiryTolerance = 10

// minExpiryFloor is the hard lower bound on acceptable days to expiry.
// Same-week legs are never selected regardless of tolerance.
const minExpiryFloor = 7

// DaysToExpiry returns the calendar-day difference between the expiry date
// and now, floored at zero once the date has passed. Both date-only
// ("2006-01-02") and date-time (RFC3339) encodings are accepted and
// normalized to dates before subtracting. Unparsable input returns
// ErrInvalidDate; callers exclude the leg rather than aborting selection.
func DaysToExpiry(expiry string, now time.Time) (int, error) {
	if expiry == "" {
		return 0, errors.Wrap(errors.ErrInvalidDate, "empty expiry")
	}

	var t time.Time
	var err error
	if strings.Contains(expiry, "T") {
		t, err = time.Parse(time.RFC3339, expiry)
		if err != nil {
			t, err = time.Parse("2006-01-02T15:04:05", expiry)
		}
	} else {
		t, err = time.Parse("2006-01-02", expiry)
	}
	if err != nil {
		return 0, errors.Wrapf(errors.ErrInvalidDate, "%q", expiry)
	}

	expiryDate := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	nowDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	days := int(expiryDate.Sub(nowDate).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return days, nil
}

// WithinExpiryWindow reports whether dte lies inside the inclusive window
// [max(7, target-tolerance), target+tolerance].
func WithinExpiryWindow(dte, targetDTE, tolerance int) bool {
	min := targetDTE - tolerance
	if min < minExpiryFloor {
		min = minExpiryFloor
	}
	return dte >= min && dte <= targetDTE+tolerance
}

// withinWindow applies the default tolerance against the strategy's
// configured target expiry.
func (c common) withinWindow(dte int) bool {
	return WithinExpiryWindow(dte, c.expiryDays, DefaultExpiryTolerance)
}
