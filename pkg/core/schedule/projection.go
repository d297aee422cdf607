package schedule

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/typeWolffo/zpi-wsiz/pkg/core/model"
)

// FullDayMinutes is the duration given to an order that spans the whole selected day
const FullDayMinutes = 24 * 60

// SchedulerProjector turns persisted repair orders into day-scoped appointments
type SchedulerProjector interface {
	// ProjectForDay projects every order that touches day, clipped to it
	ProjectForDay(orders []model.RepairOrderRecord, day time.Time) []model.Appointment

	// DistributeUnassigned projects orders for day, then gives unassigned
	// orders a mechanic and undated orders a free slot
	DistributeUnassigned(orders []model.RepairOrderRecord, mechanics []model.Mechanic, day time.Time) []model.Appointment
}

// Projector is the default SchedulerProjector
type Projector struct {
	colors ColorFunc
	logger *zap.Logger
}

var _ SchedulerProjector = (*Projector)(nil)

// NewProjector creates a projector. A nil colors func uses PaletteByID(DefaultPalette).
func NewProjector(logger *zap.Logger, colors ColorFunc) *Projector {
	if colors == nil {
		colors = PaletteByID(DefaultPalette)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Projector{colors: colors, logger: logger}
}

// DayBounds returns the first and last instant (23:59:59.999) of the
// calendar day containing day, in day's location
func DayBounds(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return start, end
}

// ProjectForDay projects the orders visible on day. Orders without dates are
// unscheduled and appear on every day at the default slot.
func (p *Projector) ProjectForDay(orders []model.RepairOrderRecord, day time.Time) []model.Appointment {
	dayStart, dayEnd := DayBounds(day)
	loc := day.Location()

	appointments := make([]model.Appointment, 0, len(orders))
	for _, order := range orders {
		if !order.HasDates() {
			appointments = append(appointments, p.newAppointment(order, model.DefaultStart, model.DefaultDuration))
			continue
		}

		start := order.StartDate.In(loc)
		end := order.EndDate.In(loc)

		startsToday := within(start, dayStart, dayEnd)
		endsToday := within(end, dayStart, dayEnd)
		spansToday := start.Before(dayStart) && end.After(dayEnd)

		if end.Before(start) {
			// DurationMinutes reports the bad range and falls back
			if !startsToday {
				continue
			}
			duration := DurationMinutes(start, end, p.logger.With(zap.String("order_id", order.ID)))
			appointments = append(appointments, p.newAppointment(order, model.TimeOfDayOf(start), duration))
			continue
		}

		if !startsToday && !endsToday && !spansToday {
			continue
		}

		var (
			startOfDay model.TimeOfDay
			duration   int
		)
		switch {
		case startsToday && endsToday:
			startOfDay = model.TimeOfDayOf(start)
			duration = DurationMinutes(start, end, p.logger)
		case startsToday:
			startOfDay = model.TimeOfDayOf(start)
			duration = DurationMinutes(start, dayEnd, p.logger)
		case endsToday:
			startOfDay = model.DefaultStart
			duration = DurationMinutes(dayStart, end, p.logger)
		default:
			startOfDay = model.DefaultStart
			duration = FullDayMinutes
		}

		appointments = append(appointments, p.newAppointment(order, startOfDay, duration))
	}

	return appointments
}

// DistributeUnassigned runs the load-balancing heuristic over the day's
// projection. It is a no-op when every order already has a mechanic and dates.
func (p *Projector) DistributeUnassigned(orders []model.RepairOrderRecord, mechanics []model.Mechanic, day time.Time) []model.Appointment {
	result := p.ProjectForDay(orders, day)

	allSettled := true
	for _, a := range result {
		if a.MechanicID == "" || !a.HasDates() {
			allSettled = false
			break
		}
	}
	if allSettled {
		return result
	}

	// Assign each unassigned appointment to the least busy mechanic
	for i := range result {
		if result[i].MechanicID != "" {
			continue
		}
		mechanicID, ok := LeastBusyMechanic(result, mechanics)
		if !ok {
			p.logger.Warn("No mechanics available, appointment left unassigned", zap.String("order_id", result[i].ID))
			continue
		}
		result[i].MechanicID = mechanicID
		p.logger.Debug("Assigned order to least busy mechanic",
			zap.String("order_id", result[i].ID),
			zap.String("mechanic_id", mechanicID))
	}

	// Dated appointments keep their slot; undated ones are packed after them
	placed := make(map[string][]model.Appointment)
	for _, a := range result {
		if a.HasDates() && a.MechanicID != "" {
			placed[a.MechanicID] = append(placed[a.MechanicID], a)
		}
	}

	for i := range result {
		a := &result[i]
		if a.HasDates() || a.MechanicID == "" {
			continue
		}

		a.Start = firstGapFrom(model.DefaultStart, a.Duration, placed[a.MechanicID])
		placed[a.MechanicID] = append(placed[a.MechanicID], *a)

		p.logger.Debug("Placed undated order",
			zap.String("order_id", a.ID),
			zap.String("mechanic_id", a.MechanicID),
			zap.Stringer("start", a.Start))
	}

	return result
}

// LeastBusyMechanic returns the mechanic holding the fewest appointments.
// Ties go to the mechanic listed first.
func LeastBusyMechanic(appointments []model.Appointment, mechanics []model.Mechanic) (string, bool) {
	if len(mechanics) == 0 {
		return "", false
	}

	counts := make(map[string]int, len(mechanics))
	for _, a := range appointments {
		counts[a.MechanicID]++
	}

	best := mechanics[0].ID
	bestCount := counts[best]
	for _, m := range mechanics[1:] {
		if c := counts[m.ID]; c < bestCount {
			best, bestCount = m.ID, c
		}
	}
	return best, true
}

// firstGapFrom returns the earliest start at or after from where duration
// minutes fit between existing appointments. When no gap fits, the minute
// after the last appointment is returned, even past the window end.
func firstGapFrom(from model.TimeOfDay, duration int, existing []model.Appointment) model.TimeOfDay {
	if len(existing) == 0 {
		return from
	}

	available := ToDayMinutes(from)
	for _, appointment := range SortByStart(existing) {
		start, end := Bounds(appointment)
		if start-available >= duration {
			break
		}
		available = max(available, end)
	}
	return FromDayMinutes(available)
}

// FirstFreeSlot returns the first start from 7:00 with room for duration,
// rounded up to the 15 minute grid
func FirstFreeSlot(duration int, existing []model.Appointment) model.TimeOfDay {
	start := firstGapFrom(model.WindowStart, duration, existing)
	return FromDayMinutes(-FloorToSnap(-ToDayMinutes(start)))
}

func (p *Projector) newAppointment(order model.RepairOrderRecord, start model.TimeOfDay, duration int) model.Appointment {
	mechanicID := ""
	if order.AssignedMechanicID != nil {
		mechanicID = *order.AssignedMechanicID
	}

	return model.Appointment{
		ID:                 order.ID,
		MechanicID:         mechanicID,
		Car:                fmt.Sprintf("%s %s (%s)", order.Make, order.Model, order.Year),
		Start:              start,
		Duration:           max(model.MinDuration, duration),
		Color:              p.colors(order.ID),
		Description:        order.Description,
		CustomerName:       fmt.Sprintf("%s %s", order.CustomerFirstName, order.CustomerLastName),
		RegistrationNumber: order.RegistrationNumber,
		StartDate:          order.StartDate,
		EndDate:            order.EndDate,
	}
}

func within(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}
