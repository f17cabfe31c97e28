package utils

import "time"

// EasternLocation is the timezone for US equity and options markets.
var EasternLocation *time.Location

func init() {
	var err error
	EasternLocation, err = time.LoadLocation("America/New_York")
	if err != nil {
		EasternLocation = time.FixedZone("ET", -5*60*60)
	}
}

// IsMarketOpen reports whether US equity markets are in the regular
// session at the given instant. Ignores exchange holidays.
func IsMarketOpen(t time.Time) bool {
	et := t.In(EasternLocation)
	if et.Weekday() == time.Saturday || et.Weekday() == time.Sunday {
		return false
	}
	minutes := et.Hour()*60 + et.Minute()
	// 9:30 to 16:00 ET
	return minutes >= 9*60+30 && minutes < 16*60
}

// NextMarketOpen returns the next regular session open at or after t.
func NextMarketOpen(t time.Time) time.Time {
	et := t.In(EasternLocation)
	open := time.Date(et.Year(), et.Month(), et.Day(), 9, 30, 0, 0, EasternLocation)
	if !et.Before(open) {
		open = open.AddDate(0, 0, 1)
	}
	for open.Weekday() == time.Saturday || open.Weekday() == time.Sunday {
		open = open.AddDate(0, 0, 1)
	}
	return open
}
