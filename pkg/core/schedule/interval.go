package schedule

import (
	"cmp"
	"math"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/typeWolffo/zpi-wsiz/pkg/core/model"
)

// ToDayMinutes converts a time of day to minutes since the start of the
// working window (7:00). Values outside [0, 660] are returned as-is.
func ToDayMinutes(t model.TimeOfDay) int {
	return (t.Hour-model.DayStartHour)*60 + t.Minute
}

// FromDayMinutes is the inverse of ToDayMinutes
func FromDayMinutes(minutes int) model.TimeOfDay {
	hour := floorDiv(minutes, 60)
	return model.TimeOfDay{
		Hour:   hour + model.DayStartHour,
		Minute: minutes - hour*60,
	}
}

// Bounds returns the [start, end) day-minute interval of an appointment
func Bounds(a model.Appointment) (start, end int) {
	start = ToDayMinutes(a.Start)
	return start, start + a.Duration
}

// Overlaps reports whether two appointments share any minute.
// Touching intervals (a ends exactly when b starts) do not overlap.
func Overlaps(a, b model.Appointment) bool {
	aStart, aEnd := Bounds(a)
	bStart, bEnd := Bounds(b)
	return aStart < bEnd && aEnd > bStart
}

// HasCollision reports whether candidate overlaps any of others
func HasCollision(candidate model.Appointment, others []model.Appointment) bool {
	for _, other := range others {
		if Overlaps(candidate, other) {
			return true
		}
	}
	return false
}

// DurationMinutes returns the elapsed minutes between start and end, rounded
// to the nearest minute. An end before start is a data error: it is logged
// and the default duration is returned instead of a negative value.
func DurationMinutes(start, end time.Time, logger *zap.Logger) int {
	if end.Before(start) {
		if logger != nil {
			logger.Warn("Invalid date range, end precedes start; using default duration",
				zap.Time("start", start),
				zap.Time("end", end),
				zap.Int("default_minutes", model.DefaultDuration))
		}
		return model.DefaultDuration
	}
	return int(roundHalfUp(end.Sub(start).Minutes()))
}

// SortByStart returns a copy of appointments ordered by start time.
// Ties keep their input order.
func SortByStart(appointments []model.Appointment) []model.Appointment {
	sorted := slices.Clone(appointments)
	slices.SortStableFunc(sorted, func(a, b model.Appointment) int {
		return cmp.Compare(ToDayMinutes(a.Start), ToDayMinutes(b.Start))
	})
	return sorted
}

// FindNearestFreeSlot finds a start time for moving that avoids every
// appointment in others, preferring the gap nearest to preferred.
//
// Gaps are scanned in start order. A gap before an appointment is taken when
// it is long enough and its start is at least as close to preferred as the
// end of the appointment bounding it. Failing that, the space after the last
// appointment is used if it fits inside the window. When nothing fits the
// window start (7:00) is returned, which may still collide.
func FindNearestFreeSlot(moving model.Appointment, others []model.Appointment, preferred model.TimeOfDay) model.TimeOfDay {
	if len(others) == 0 {
		return preferred
	}

	preferredMinutes := ToDayMinutes(preferred)
	available := 0

	for _, appointment := range SortByStart(others) {
		start, end := Bounds(appointment)

		if start-available >= moving.Duration {
			if abs(available-preferredMinutes) <= abs(end-preferredMinutes) {
				return FromDayMinutes(available)
			}
		}

		available = end
	}

	if model.WindowMinutes-available >= moving.Duration {
		return FromDayMinutes(available)
	}

	return model.WindowStart
}

// MaxDurationBefore returns the longest duration an appointment starting at
// start may take without running into the first of others that starts after
// it. The bool is false when no appointment starts after start.
func MaxDurationBefore(start model.TimeOfDay, others []model.Appointment) (int, bool) {
	startMinutes := ToDayMinutes(start)
	for _, other := range SortByStart(others) {
		otherStart := ToDayMinutes(other.Start)
		if otherStart > startMinutes {
			return otherStart - startMinutes, true
		}
	}
	return 0, false
}

// WithinShift reports whether the appointment lies inside the mechanic's shift.
// Shift bounds are informational; callers only warn on a false result.
func WithinShift(mechanic model.Mechanic, appointment model.Appointment) bool {
	shiftStart := mechanic.ShiftStart.Hour*60 + mechanic.ShiftStart.Minute
	shiftEnd := mechanic.ShiftEnd.Hour*60 + mechanic.ShiftEnd.Minute

	start := appointment.Start.Hour*60 + appointment.Start.Minute
	end := start + appointment.Duration

	return start >= shiftStart && end <= shiftEnd
}

// OverlapPair names two appointments of the same mechanic that overlap
type OverlapPair struct {
	MechanicID string
	FirstID    string
	SecondID   string
}

// FindOverlaps returns every pair of overlapping appointments that share a
// mechanic. An empty result means the no-overlap invariant holds.
func FindOverlaps(appointments []model.Appointment) []OverlapPair {
	byMechanic := make(map[string][]model.Appointment)
	var order []string
	for _, a := range appointments {
		if _, ok := byMechanic[a.MechanicID]; !ok {
			order = append(order, a.MechanicID)
		}
		byMechanic[a.MechanicID] = append(byMechanic[a.MechanicID], a)
	}

	var pairs []OverlapPair
	for _, mechanicID := range order {
		group := byMechanic[mechanicID]
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if Overlaps(group[i], group[j]) {
					pairs = append(pairs, OverlapPair{
						MechanicID: mechanicID,
						FirstID:    group[i].ID,
						SecondID:   group[j].ID,
					})
				}
			}
		}
	}
	return pairs
}

// SnapMinutes rounds minutes to the nearest multiple of model.SnapMinutes
func SnapMinutes(minutes int) int {
	return int(roundHalfUp(float64(minutes)/model.SnapMinutes)) * model.SnapMinutes
}

// FloorToSnap rounds minutes down to a multiple of model.SnapMinutes
func FloorToSnap(minutes int) int {
	return floorDiv(minutes, model.SnapMinutes) * model.SnapMinutes
}

// Clamp bounds v to [lo, hi]
func Clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// RoundHalfUp rounds x to the nearest integer with halves going up,
// so -2.5 becomes -2 and 2.5 becomes 3.
func RoundHalfUp(x float64) int {
	return int(roundHalfUp(x))
}

func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
