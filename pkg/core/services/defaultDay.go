package services

import (
	"fmt"
	"time"

	"github.com/typeWolffo/zpi-wsiz/internal/config"
	"github.com/typeWolffo/zpi-wsiz/pkg/utils/timeparse"
)

// DefaultDay returns the day a board opens on when none is given: today when
// it is a working day, otherwise the next working day from the configured rule
func DefaultDay(cfg *config.Config, now time.Time, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	rule, err := cfg.WorkingDayRule(today)
	if err != nil {
		return time.Time{}, err
	}
	next := rule.After(today, true)
	if next.IsZero() {
		return time.Time{}, fmt.Errorf("no working day on or after %s", today.Format("2006-01-02"))
	}
	return next.In(loc), nil
}

// ParseDay parses a YYYY-MM-DD day in loc. An empty value selects DefaultDay.
func ParseDay(cfg *config.Config, value string, now time.Time, loc *time.Location) (time.Time, error) {
	if value == "" {
		return DefaultDay(cfg, now, loc)
	}
	return timeparse.Day(value, loc)
}
