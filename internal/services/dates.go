package services

import (
	"time"

	"github.com/issaclevi/wayzx-backend/internal/models"
)

const (
	dateLayout = "2006-01-02"

	// MaxBookingSpanDays bounds the days of one booking or availability query
	MaxBookingSpanDays = 92
)

// ParseDay parses a YYYY-MM-DD calendar date. Calendar days are stored as UTC midnights,
// so the date means the same day regardless of the caller's timezone.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, validationf("date", "invalid date %q, use YYYY-MM-DD", s)
	}
	return models.TruncateDay(t), nil
}

// FormatDay renders a stored calendar day
func FormatDay(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// Today returns the current calendar day in loc
func Today(loc *time.Location) time.Time {
	return models.TruncateDay(time.Now().In(loc))
}

// ParseDateRange parses an inclusive day span. An empty end means a single day;
// an empty start means today in loc.
func ParseDateRange(start, end string, loc *time.Location) (time.Time, time.Time, error) {
	var from time.Time
	if start == "" {
		from = Today(loc)
	} else {
		var err error
		if from, err = ParseDay(start); err != nil {
			return time.Time{}, time.Time{}, &ValidationError{Field: "start_date", Message: err.(*ValidationError).Message}
		}
	}

	to := from
	if end != "" {
		var err error
		if to, err = ParseDay(end); err != nil {
			return time.Time{}, time.Time{}, &ValidationError{Field: "end_date", Message: err.(*ValidationError).Message}
		}
	}

	if to.Before(from) {
		return time.Time{}, time.Time{}, validationf("end_date", "end date must not be before start date")
	}
	if days := int(to.Sub(from).Hours()/24) + 1; days > MaxBookingSpanDays {
		return time.Time{}, time.Time{}, validationf("end_date", "date range of %d days exceeds the limit of %d", days, MaxBookingSpanDays)
	}
	return from, to, nil
}

// LoadLocation resolves an IANA zone name, falling back to fallback and then UTC
func LoadLocation(name, fallback string) *time.Location {
	for _, n := range []string{name, fallback} {
		if n == "" {
			continue
		}
		if loc, err := time.LoadLocation(n); err == nil {
			return loc
		}
	}
	return time.UTC
}
