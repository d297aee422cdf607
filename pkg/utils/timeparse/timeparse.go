package timeparse

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/typeWolffo/zpi-wsiz/pkg/core/model"
)

// Layouts accepted for order timestamps. Layouts without a zone are read in
// the caller's location.
var timestampLayouts = []string{
	time.RFC3339Nano,
	model.UpdateTimeLayout,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// Timestamp parses an order timestamp as stored or returned by the API
func Timestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if loc == nil {
		loc = time.Local
	}

	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// OptionalTimestamp parses s, treating an empty string as absent
func OptionalTimestamp(s string, loc *time.Location) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := Timestamp(s, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// TimeOfDay parses "HH:MM" or "HH:MM:SS" as used for mechanic shifts.
// Seconds are dropped.
func TimeOfDay(s string) (model.TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return model.TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return model.TimeOfDay{}, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return model.TimeOfDay{}, fmt.Errorf("invalid minute in %q", s)
	}
	if len(parts) == 3 {
		if sec, err := strconv.Atoi(parts[2]); err != nil || sec < 0 || sec > 59 {
			return model.TimeOfDay{}, fmt.Errorf("invalid second in %q", s)
		}
	}

	return model.TimeOfDay{Hour: hour, Minute: minute}, nil
}

// FormatTimeOfDay renders t as "HH:MM:SS", the form stored for shifts
func FormatTimeOfDay(t model.TimeOfDay) string {
	return fmt.Sprintf("%02d:%02d:00", t.Hour, t.Minute)
}

// Day parses a calendar day "YYYY-MM-DD" at midnight in loc
func Day(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q, expected YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}
