package timezone

import (
	"sync"
	"time"
)

const DefaultTimezone = "Europe/Paris"

var (
	mu      sync.RWMutex
	current = DefaultTimezone
)

// Configure sets the venue timezone; invalid names keep the previous one.
func Configure(tz string) bool {
	if !IsValid(tz) {
		return false
	}
	mu.Lock()
	current = tz
	mu.Unlock()
	return true
}

func IsValid(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

func Location() *time.Location {
	mu.RLock()
	tz := current
	mu.RUnlock()

	if loc, err := time.LoadLocation(tz); err == nil {
		return loc
	}
	return time.UTC
}

func Now() time.Time {
	return time.Now().In(Location())
}

// StartOfDay normalizes t to local midnight of the venue.
func StartOfDay(t time.Time) time.Time {
	t = t.In(Location())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, Location())
}

// MinuteOfDay is the minutes since local midnight of t.
func MinuteOfDay(t time.Time) int {
	t = t.In(Location())
	return t.Hour()*60 + t.Minute()
}

// At builds the local time of a date at minute-of-day m.
func At(date time.Time, m int) time.Time {
	d := StartOfDay(date)
	return time.Date(d.Year(), d.Month(), d.Day(), m/60, m%60, 0, 0, d.Location())
}
