package service

import (
	"strings"
	"time"
)

// Accepted ISO-8601 shapes. Fractional seconds are accepted after any
// layout that carries seconds.
var isoLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDatetime parses an ISO-8601 date or datetime. Values without an
// offset are taken as UTC; the result is always in UTC.
func ParseDatetime(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	if len(v) > 10 && v[10] == ' ' {
		v = v[:10] + "T" + v[11:]
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, newErr(ErrValidation,
		"Invalid date format: Invalid isoformat string: '%s'. Use ISO 8601 format (YYYY-MM-DDTHH:MM:SS).", s)
}

func parseOptionalDatetime(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := ParseDatetime(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func checkReminder(reminder, expiration *time.Time) error {
	if reminder != nil && expiration != nil && reminder.After(*expiration) {
		return newErr(ErrValidation, "Reminder datetime cannot be after expiration datetime.")
	}
	return nil
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
