package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/typeWolffo/zpi-wsiz/pkg/core/model"
)

func appt(id, mechanicID string, hour, minute, duration int) model.Appointment {
	return model.Appointment{
		ID:         id,
		MechanicID: mechanicID,
		Start:      model.TimeOfDay{Hour: hour, Minute: minute},
		Duration:   duration,
	}
}

func TestToDayMinutes(t *testing.T) {
	assert.Equal(t, 0, ToDayMinutes(model.TimeOfDay{Hour: 7, Minute: 0}))
	assert.Equal(t, 90, ToDayMinutes(model.TimeOfDay{Hour: 8, Minute: 30}))
	assert.Equal(t, 660, ToDayMinutes(model.TimeOfDay{Hour: 18, Minute: 0}))
	assert.Equal(t, -60, ToDayMinutes(model.TimeOfDay{Hour: 6, Minute: 0}))
	assert.Equal(t, 900, ToDayMinutes(model.TimeOfDay{Hour: 22, Minute: 0}))
}

func TestFromDayMinutes_RoundTrip(t *testing.T) {
	for _, minutes := range []int{-75, -60, 0, 15, 59, 60, 135, 660, 1000} {
		assert.Equal(t, minutes, ToDayMinutes(FromDayMinutes(minutes)), "minutes=%d", minutes)
	}
	assert.Equal(t, model.TimeOfDay{Hour: 5, Minute: 45}, FromDayMinutes(-75))
}

func TestOverlaps(t *testing.T) {
	a := appt("a", "m1", 10, 0, 60)

	t.Run("partial overlap", func(t *testing.T) {
		b := appt("b", "m1", 10, 30, 30)
		assert.True(t, Overlaps(a, b))
		assert.True(t, Overlaps(b, a))
	})

	t.Run("touching is not overlapping", func(t *testing.T) {
		b := appt("b", "m1", 11, 0, 30)
		assert.False(t, Overlaps(a, b))
		assert.False(t, Overlaps(b, a))
	})

	t.Run("contained", func(t *testing.T) {
		b := appt("b", "m1", 10, 15, 15)
		assert.True(t, Overlaps(a, b))
	})

	t.Run("disjoint", func(t *testing.T) {
		b := appt("b", "m1", 8, 0, 60)
		assert.False(t, Overlaps(a, b))
	})
}

func TestHasCollision(t *testing.T) {
	others := []model.Appointment{appt("x", "m1", 8, 0, 60), appt("y", "m1", 12, 0, 60)}
	assert.False(t, HasCollision(appt("c", "m1", 9, 0, 60), others))
	assert.True(t, HasCollision(appt("c", "m1", 11, 30, 60), others))
	assert.False(t, HasCollision(appt("c", "m1", 11, 30, 60), nil))
}

func TestDurationMinutes(t *testing.T) {
	start := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	t.Run("rounds to nearest minute", func(t *testing.T) {
		assert.Equal(t, 90, DurationMinutes(start, start.Add(90*time.Minute), zap.NewNop()))
		assert.Equal(t, 91, DurationMinutes(start, start.Add(90*time.Minute+30*time.Second), zap.NewNop()))
		assert.Equal(t, 90, DurationMinutes(start, start.Add(90*time.Minute+29*time.Second), zap.NewNop()))
	})

	t.Run("end before start reports and falls back", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		logger := zap.New(core)

		got := DurationMinutes(start, start.Add(-2*time.Hour), logger)

		assert.Equal(t, model.DefaultDuration, got)
		require.Equal(t, 1, logs.Len())
		assert.Contains(t, logs.All()[0].Message, "end precedes start")
	})

	t.Run("nil logger is tolerated", func(t *testing.T) {
		assert.Equal(t, model.DefaultDuration, DurationMinutes(start, start.Add(-time.Minute), nil))
	})
}

func TestFindNearestFreeSlot_NoOthersReturnsPreferred(t *testing.T) {
	moving := appt("m", "m1", 9, 0, 30)
	preferred := model.TimeOfDay{Hour: 13, Minute: 45}
	assert.Equal(t, preferred, FindNearestFreeSlot(moving, nil, preferred))
}

func TestFindNearestFreeSlot_PrefersGapAfterConflict(t *testing.T) {
	// 9:00-10:00 is taken, a 30 minute appointment dropped at 9:30 goes to 10:00
	others := []model.Appointment{appt("busy", "m1", 9, 0, 60)}
	moving := appt("m", "m1", 14, 0, 30)

	got := FindNearestFreeSlot(moving, others, model.TimeOfDay{Hour: 9, Minute: 30})

	assert.Equal(t, model.TimeOfDay{Hour: 10, Minute: 0}, got)
}

func TestFindNearestFreeSlot_PrefersGapBeforeConflict(t *testing.T) {
	// 9:00-12:00 is taken, dropping at 8:30 is nearer the 7:00 gap than 12:00
	others := []model.Appointment{appt("busy", "m1", 9, 0, 180)}
	moving := appt("m", "m1", 14, 0, 60)

	got := FindNearestFreeSlot(moving, others, model.TimeOfDay{Hour: 8, Minute: 30})

	assert.Equal(t, model.TimeOfDay{Hour: 7, Minute: 0}, got)
}

func TestFindNearestFreeSlot_SkipsGapsTooSmall(t *testing.T) {
	others := []model.Appointment{
		appt("a", "m1", 7, 15, 60), // 7:15-8:15, leaves a 15 minute gap before
		appt("b", "m1", 8, 30, 60), // 8:30-9:30
	}
	moving := appt("m", "m1", 14, 0, 45)

	got := FindNearestFreeSlot(moving, others, model.TimeOfDay{Hour: 7, Minute: 30})

	assert.Equal(t, model.TimeOfDay{Hour: 9, Minute: 30}, got)
}

func TestFindNearestFreeSlot_UnsortedInput(t *testing.T) {
	others := []model.Appointment{
		appt("late", "m1", 13, 0, 60),
		appt("early", "m1", 7, 0, 120),
	}
	moving := appt("m", "m1", 14, 0, 60)

	got := FindNearestFreeSlot(moving, others, model.TimeOfDay{Hour: 8, Minute: 0})

	assert.Equal(t, model.TimeOfDay{Hour: 9, Minute: 0}, got)
}

func TestFindNearestFreeSlot_SaturatedWindowFallsBackToWindowStart(t *testing.T) {
	others := []model.Appointment{appt("all-day", "m1", 7, 0, 660)}
	moving := appt("m", "m1", 9, 0, 30)

	got := FindNearestFreeSlot(moving, others, model.TimeOfDay{Hour: 12, Minute: 0})

	assert.Equal(t, model.WindowStart, got)
}

func TestMaxDurationBefore(t *testing.T) {
	others := []model.Appointment{appt("b", "m1", 12, 0, 60), appt("a", "m1", 10, 30, 30)}

	d, ok := MaxDurationBefore(model.TimeOfDay{Hour: 9, Minute: 0}, others)
	assert.True(t, ok)
	assert.Equal(t, 90, d)

	_, ok = MaxDurationBefore(model.TimeOfDay{Hour: 12, Minute: 0}, others)
	assert.False(t, ok)
}

func TestWithinShift(t *testing.T) {
	mechanic := model.Mechanic{
		ID:         "m1",
		ShiftStart: model.TimeOfDay{Hour: 8, Minute: 0},
		ShiftEnd:   model.TimeOfDay{Hour: 16, Minute: 0},
	}

	assert.True(t, WithinShift(mechanic, appt("a", "m1", 8, 0, 60)))
	assert.True(t, WithinShift(mechanic, appt("a", "m1", 15, 0, 60)))
	assert.False(t, WithinShift(mechanic, appt("a", "m1", 7, 45, 60)))
	assert.False(t, WithinShift(mechanic, appt("a", "m1", 15, 30, 60)))
}

func TestFindOverlaps(t *testing.T) {
	appointments := []model.Appointment{
		appt("a", "m1", 9, 0, 60),
		appt("b", "m1", 9, 30, 60),
		appt("c", "m2", 9, 0, 60), // different mechanic, same time
		appt("d", "m1", 10, 15, 30),
	}

	pairs := FindOverlaps(appointments)

	require.Len(t, pairs, 2)
	assert.Equal(t, OverlapPair{MechanicID: "m1", FirstID: "a", SecondID: "b"}, pairs[0])
	assert.Equal(t, OverlapPair{MechanicID: "m1", FirstID: "b", SecondID: "d"}, pairs[1])

	assert.Empty(t, FindOverlaps(appointments[2:]))
}

func TestSnapping(t *testing.T) {
	assert.Equal(t, 0, SnapMinutes(7))
	assert.Equal(t, 15, SnapMinutes(8))
	assert.Equal(t, 15, SnapMinutes(22))
	assert.Equal(t, 30, SnapMinutes(23))
	assert.Equal(t, -15, SnapMinutes(-8))
	assert.Equal(t, 0, SnapMinutes(-7))

	assert.Equal(t, 45, FloorToSnap(59))
	assert.Equal(t, -15, FloorToSnap(-1))
}
