package schedule

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/typeWolffo/zpi-wsiz/pkg/core/model"
)

func ts(s string) *time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return &t
}

func strPtr(s string) *string {
	return &s
}

func order(id string, mechanicID *string, start, end string) model.RepairOrderRecord {
	o := model.RepairOrderRecord{
		ID:                 id,
		Description:        "Brake pads",
		AssignedMechanicID: mechanicID,
		Make:               "Skoda",
		Model:              "Octavia",
		Year:               "2019",
		RegistrationNumber: "WA12345",
		CustomerFirstName:  "Anna",
		CustomerLastName:   "Nowak",
	}
	if start != "" {
		o.StartDate = ts(start)
	}
	if end != "" {
		o.EndDate = ts(end)
	}
	return o
}

var selectedDay = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func projectOne(t *testing.T, o model.RepairOrderRecord) model.Appointment {
	t.Helper()
	p := NewProjector(zap.NewNop(), nil)
	got := p.ProjectForDay([]model.RepairOrderRecord{o}, selectedDay)
	require.Len(t, got, 1)
	return got[0]
}

func TestProjectForDay_SameDayOrder(t *testing.T) {
	a := projectOne(t, order("o1", strPtr("m1"), "2024-03-15 09:15", "2024-03-15 11:00"))

	assert.Equal(t, "o1", a.ID)
	assert.Equal(t, "m1", a.MechanicID)
	assert.Equal(t, model.TimeOfDay{Hour: 9, Minute: 15}, a.Start)
	assert.Equal(t, 105, a.Duration)
	assert.Equal(t, "Skoda Octavia (2019)", a.Car)
	assert.Equal(t, "Anna Nowak", a.CustomerName)
	assert.Equal(t, "WA12345", a.RegistrationNumber)
	assert.Equal(t, "Brake pads", a.Description)
	assert.NotEmpty(t, a.Color)
	require.NotNil(t, a.StartDate)
	require.NotNil(t, a.EndDate)
}

func TestProjectForDay_EndsOnDayClipsToSyntheticStart(t *testing.T) {
	a := projectOne(t, order("o1", strPtr("m1"), "2024-03-14 22:00", "2024-03-15 02:00"))

	assert.Equal(t, model.TimeOfDay{Hour: 8, Minute: 0}, a.Start)
	assert.Equal(t, 120, a.Duration)
}

func TestProjectForDay_StartsOnDayClipsAtMidnight(t *testing.T) {
	a := projectOne(t, order("o1", strPtr("m1"), "2024-03-15 22:00", "2024-03-16 02:00"))

	assert.Equal(t, model.TimeOfDay{Hour: 22, Minute: 0}, a.Start)
	assert.Equal(t, 120, a.Duration)
}

func TestProjectForDay_SpanningOrderTakesFullDay(t *testing.T) {
	a := projectOne(t, order("o1", strPtr("m1"), "2024-03-14 10:00", "2024-03-16 10:00"))

	assert.Equal(t, model.TimeOfDay{Hour: 8, Minute: 0}, a.Start)
	assert.Equal(t, FullDayMinutes, a.Duration)
}

func TestProjectForDay_ExcludesOtherDays(t *testing.T) {
	p := NewProjector(zap.NewNop(), nil)
	got := p.ProjectForDay([]model.RepairOrderRecord{
		order("before", strPtr("m1"), "2024-03-14 09:00", "2024-03-14 10:00"),
		order("after", strPtr("m1"), "2024-03-16 09:00", "2024-03-16 10:00"),
		order("today", strPtr("m1"), "2024-03-15 09:00", "2024-03-15 10:00"),
	}, selectedDay)

	require.Len(t, got, 1)
	assert.Equal(t, "today", got[0].ID)
}

func TestProjectForDay_UndatedOrderGetsDefaults(t *testing.T) {
	a := projectOne(t, order("o1", nil, "", ""))

	assert.Equal(t, model.DefaultStart, a.Start)
	assert.Equal(t, model.DefaultDuration, a.Duration)
	assert.Equal(t, "", a.MechanicID)
	assert.False(t, a.HasDates())
}

func TestProjectForDay_FloorsShortDurations(t *testing.T) {
	a := projectOne(t, order("o1", strPtr("m1"), "2024-03-15 09:00", "2024-03-15 09:05"))

	assert.Equal(t, model.MinDuration, a.Duration)
}

func TestProjectForDay_InvalidRangeFallsBackAndReports(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	p := NewProjector(zap.New(core), nil)

	got := p.ProjectForDay([]model.RepairOrderRecord{
		order("o1", strPtr("m1"), "2024-03-15 10:00", "2022-03-15 11:00"),
	}, selectedDay)

	require.Len(t, got, 1)
	assert.Equal(t, model.TimeOfDay{Hour: 10, Minute: 0}, got[0].Start)
	assert.Equal(t, model.DefaultDuration, got[0].Duration)
	assert.Equal(t, 1, logs.Len())
}

func TestProjectForDay_UsesSelectedDayLocation(t *testing.T) {
	warsaw := time.FixedZone("CET", 60*60)
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, warsaw)

	// 23:30 UTC on the 14th is 00:30 CET on the 15th
	start := time.Date(2024, 3, 14, 23, 30, 0, 0, time.UTC)
	end := time.Date(2024, 3, 15, 1, 0, 0, 0, time.UTC)
	o := order("o1", strPtr("m1"), "", "")
	o.StartDate, o.EndDate = &start, &end

	got := NewProjector(zap.NewNop(), nil).ProjectForDay([]model.RepairOrderRecord{o}, day)

	require.Len(t, got, 1)
	assert.Equal(t, model.TimeOfDay{Hour: 0, Minute: 30}, got[0].Start)
	assert.Equal(t, 90, got[0].Duration)
}

type placement struct {
	MechanicID string
	Start      model.TimeOfDay
	Duration   int
}

func placements(appointments []model.Appointment) []placement {
	out := make([]placement, len(appointments))
	for i, a := range appointments {
		out[i] = placement{a.MechanicID, a.Start, a.Duration}
	}
	return out
}

func TestProjectForDay_Deterministic(t *testing.T) {
	orders := []model.RepairOrderRecord{
		order("o1", strPtr("m1"), "2024-03-15 09:00", "2024-03-15 10:00"),
		order("o2", nil, "", ""),
		order("o3", strPtr("m2"), "2024-03-14 22:00", "2024-03-15 02:00"),
	}

	first := NewProjector(zap.NewNop(), RandomPalette(nil, rand.New(rand.NewSource(1)))).ProjectForDay(orders, selectedDay)
	second := NewProjector(zap.NewNop(), RandomPalette(nil, rand.New(rand.NewSource(99)))).ProjectForDay(orders, selectedDay)

	assert.Equal(t, placements(first), placements(second))
}

func TestPaletteByID_StableColours(t *testing.T) {
	colors := PaletteByID(nil)
	assert.Equal(t, colors("order-1"), colors("order-1"))
	assert.Contains(t, DefaultPalette, colors("order-2"))

	single := PaletteByID([]string{"#000000"})
	assert.Equal(t, "#000000", single("anything"))
}

var mechanics = []model.Mechanic{
	{ID: "m1", FirstName: "Jan", LastName: "Kowalski"},
	{ID: "m2", FirstName: "Piotr", LastName: "Zielinski"},
}

func TestDistributeUnassigned_AllSettledIsUnchanged(t *testing.T) {
	p := NewProjector(zap.NewNop(), nil)
	orders := []model.RepairOrderRecord{
		order("o1", strPtr("m1"), "2024-03-15 09:00", "2024-03-15 10:00"),
		order("o2", strPtr("m1"), "2024-03-15 09:30", "2024-03-15 10:30"),
	}

	assert.Equal(t, p.ProjectForDay(orders, selectedDay), p.DistributeUnassigned(orders, mechanics, selectedDay))
}

func TestDistributeUnassigned_AssignsLeastBusyMechanic(t *testing.T) {
	p := NewProjector(zap.NewNop(), nil)
	orders := []model.RepairOrderRecord{
		order("o1", strPtr("m1"), "2024-03-15 09:00", "2024-03-15 10:00"),
		order("o2", nil, "2024-03-15 12:00", "2024-03-15 13:00"),
		order("o3", nil, "2024-03-15 14:00", "2024-03-15 15:00"),
	}

	got := p.DistributeUnassigned(orders, mechanics, selectedDay)

	require.Len(t, got, 3)
	assert.Equal(t, "m1", got[0].MechanicID)
	assert.Equal(t, "m2", got[1].MechanicID, "m2 has fewer appointments")
	assert.Equal(t, "m1", got[2].MechanicID, "tie goes to the first listed mechanic")

	// Dated orders keep their slots
	assert.Equal(t, model.TimeOfDay{Hour: 12, Minute: 0}, got[1].Start)
	assert.Equal(t, model.TimeOfDay{Hour: 14, Minute: 0}, got[2].Start)
}

func TestLeastBusyMechanic(t *testing.T) {
	_, ok := LeastBusyMechanic(nil, nil)
	assert.False(t, ok)

	id, ok := LeastBusyMechanic(nil, mechanics)
	require.True(t, ok)
	assert.Equal(t, mechanics[0].ID, id)

	busy := []model.Appointment{{ID: "a", MechanicID: mechanics[0].ID}, {ID: "b"}}
	id, ok = LeastBusyMechanic(busy, mechanics)
	require.True(t, ok)
	assert.Equal(t, mechanics[1].ID, id)
}

func TestDistributeUnassigned_PacksUndatedOrdersFromEight(t *testing.T) {
	p := NewProjector(zap.NewNop(), nil)
	orders := []model.RepairOrderRecord{
		order("dated", strPtr("m1"), "2024-03-15 08:30", "2024-03-15 09:30"),
		order("u1", strPtr("m1"), "", ""),
		order("u2", strPtr("m1"), "", ""),
		order("u3", strPtr("m2"), "", ""),
	}

	got := p.DistributeUnassigned(orders, mechanics, selectedDay)

	require.Len(t, got, 4)
	assert.Equal(t, model.TimeOfDay{Hour: 8, Minute: 30}, got[0].Start)
	assert.Equal(t, model.TimeOfDay{Hour: 9, Minute: 30}, got[1].Start)
	assert.Equal(t, model.TimeOfDay{Hour: 10, Minute: 30}, got[2].Start)
	assert.Equal(t, model.TimeOfDay{Hour: 8, Minute: 0}, got[3].Start, "first appointment of m2 starts at 8:00")

	assert.Empty(t, FindOverlaps(got))
}

func TestDistributeUnassigned_UsesGapBetweenAppointments(t *testing.T) {
	p := NewProjector(zap.NewNop(), nil)
	orders := []model.RepairOrderRecord{
		order("a", strPtr("m1"), "2024-03-15 08:00", "2024-03-15 09:00"),
		order("b", strPtr("m1"), "2024-03-15 10:00", "2024-03-15 11:00"),
		order("u", strPtr("m1"), "", ""),
	}

	got := p.DistributeUnassigned(orders, mechanics, selectedDay)

	assert.Equal(t, model.TimeOfDay{Hour: 9, Minute: 0}, got[2].Start)
}

func TestDistributeUnassigned_OverflowsPastWindow(t *testing.T) {
	p := NewProjector(zap.NewNop(), nil)
	orders := []model.RepairOrderRecord{
		order("long", strPtr("m1"), "2024-03-15 08:00", "2024-03-15 18:00"),
		order("u", strPtr("m1"), "", ""),
	}

	got := p.DistributeUnassigned(orders, mechanics, selectedDay)

	assert.Equal(t, model.TimeOfDay{Hour: 18, Minute: 0}, got[1].Start)
}

func TestDistributeUnassigned_NoMechanicsLeavesUnassigned(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	p := NewProjector(zap.New(core), nil)

	got := p.DistributeUnassigned([]model.RepairOrderRecord{order("o1", nil, "", "")}, nil, selectedDay)

	require.Len(t, got, 1)
	assert.Equal(t, "", got[0].MechanicID)
	assert.Equal(t, model.DefaultStart, got[0].Start)
	assert.Equal(t, 1, logs.Len())
}

func TestFirstFreeSlot(t *testing.T) {
	existing := []model.Appointment{
		appt("a", "m1", 7, 0, 50),
		appt("b", "m1", 9, 0, 60),
	}

	// the gap opens at 7:50 and is rounded up to 8:00
	assert.Equal(t, model.TimeOfDay{Hour: 8, Minute: 0}, FirstFreeSlot(60, existing))
	assert.Equal(t, model.WindowStart, FirstFreeSlot(60, nil))
}
