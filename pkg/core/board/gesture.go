package board

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/typeWolffo/zpi-wsiz/pkg/core/model"
	"github.com/typeWolffo/zpi-wsiz/pkg/core/schedule"
)

// Outcome describes how a gesture was resolved
type Outcome int

const (
	// NoChange means the gesture was released without modifying the board
	NoChange Outcome = iota
	// Clear means the requested placement was free and applied as is
	Clear
	// Colliding means the requested start collided and the appointment was moved to the nearest free slot
	Colliding
	// Clamped means the requested duration collided and was cut to fit
	Clamped
)

func (o Outcome) String() string {
	switch o {
	case Clear:
		return "clear"
	case Colliding:
		return "colliding"
	case Clamped:
		return "clamped"
	default:
		return "no change"
	}
}

// Result is the resolution of a completed gesture
type Result struct {
	Outcome     Outcome
	Appointment model.Appointment
}

// Preview is the visual state of the gesture in progress
type Preview struct {
	State         State
	AppointmentID string
	OffsetX       float64
	Width         float64
}

type gesture struct {
	kind State
	id   string

	// drag
	offsetX float64

	// resize
	startX       float64
	initialWidth float64
	previewWidth float64
}

func (b *Board) beginLocked(kind State, id string) error {
	if b.closed {
		return ErrClosed
	}
	if b.gesture != nil {
		return ErrGestureInProgress
	}
	if b.indexLocked(id) < 0 {
		return ErrUnknownAppointment
	}
	b.gesture = &gesture{kind: kind, id: id}
	return nil
}

// endLocked returns the active gesture of the given kind and returns the board to idle
func (b *Board) endLocked(kind State) (*gesture, model.Appointment, error) {
	if b.closed {
		return nil, model.Appointment{}, ErrClosed
	}
	g := b.gesture
	if g == nil || g.kind != kind {
		return nil, model.Appointment{}, ErrNoGesture
	}
	b.gesture = nil

	i := b.indexLocked(g.id)
	if i < 0 {
		return nil, model.Appointment{}, ErrUnknownAppointment
	}
	return g, b.appointments[i], nil
}

// BeginDrag starts relocating the appointment with the given id
func (b *Board) BeginDrag(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.beginLocked(Dragging, id)
}

// DragMove records the horizontal pointer offset of the drag in pixels
func (b *Board) DragMove(deltaX float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.gesture == nil || b.gesture.kind != Dragging {
		return ErrNoGesture
	}
	b.gesture.offsetX = deltaX
	return nil
}

// EndDrag drops the dragged appointment. A nil drop, or a drop on a row that
// is not on the board, releases the gesture without change. Otherwise the
// start moves by deltaX pixels, snaps to the 15 minute grid and, on collision,
// is moved to the nearest free slot in the target row.
func (b *Board) EndDrag(drop *DropTarget, deltaX float64) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	g, current, err := b.endLocked(Dragging)
	if err != nil {
		return Result{}, err
	}
	logger := b.logger.With(zap.String("appointment_id", g.id))

	if drop == nil || drop.Width <= 0 {
		logger.Debug("Drag released outside a row")
		return Result{Outcome: NoChange, Appointment: current}, nil
	}
	mechanic, ok := b.mechanicLocked(drop.MechanicID)
	if !ok {
		logger.Debug("Drag released on unknown row", zap.String("mechanic_id", drop.MechanicID))
		return Result{Outcome: NoChange, Appointment: current}, nil
	}

	deltaMinutes := DeltaMinutes(deltaX, drop.Width)
	candidate := schedule.Clamp(schedule.ToDayMinutes(current.Start)+deltaMinutes, 0, model.WindowMinutes)

	next := current
	next.MechanicID = mechanic.ID
	next.Start = schedule.FromDayMinutes(schedule.SnapMinutes(candidate))

	outcome := Clear
	if others := b.forMechanicLocked(mechanic.ID, current.ID); schedule.HasCollision(next, others) {
		next.Start = schedule.FindNearestFreeSlot(next, others, next.Start)
		outcome = Colliding
	}

	if next.MechanicID == current.MechanicID && next.Start == current.Start {
		return Result{Outcome: NoChange, Appointment: current}, nil
	}

	if !schedule.WithinShift(mechanic, next) {
		logger.Warn("Appointment placed outside mechanic shift",
			zap.String("mechanic_id", mechanic.ID),
			zap.Stringer("start", next.Start),
			zap.Stringer("shift_start", mechanic.ShiftStart),
			zap.Stringer("shift_end", mechanic.ShiftEnd))
	}

	logger.Info("Relocated appointment",
		zap.String("from_mechanic_id", current.MechanicID),
		zap.String("to_mechanic_id", next.MechanicID),
		zap.Stringer("from", current.Start),
		zap.Stringer("to", next.Start),
		zap.Stringer("outcome", outcome))

	previous := current
	next = b.reassignLocked(previous, next, func() { b.restoreLocked(previous) },
		"Appointment moved", "Failed to move appointment")

	return Result{Outcome: outcome, Appointment: next}, nil
}

// BeginResize starts resizing the appointment from its right edge.
// initialWidth is the block's rendered width and pointerX the pointer
// position, both in pixels.
func (b *Board) BeginResize(id string, initialWidth, pointerX float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.beginLocked(Resizing, id); err != nil {
		return err
	}
	b.gesture.startX = pointerX
	b.gesture.initialWidth = initialWidth
	b.gesture.previewWidth = initialWidth
	return nil
}

// ResizeMove updates the preview and returns its width in pixels
func (b *Board) ResizeMove(pointerX, containerWidth float64) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	g := b.gesture
	if g == nil || g.kind != Resizing {
		return 0, ErrNoGesture
	}
	g.previewWidth = ResizePreviewWidth(g.initialWidth, pointerX-g.startX, containerWidth)
	return g.previewWidth, nil
}

// EndResize commits the resize. The duration changes by the pointer travel
// converted to minutes against containerWidth and snapped to 15 minutes.
// A duration that would run into a later appointment is cut at its start.
func (b *Board) EndResize(pointerX, containerWidth float64) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	g, current, err := b.endLocked(Resizing)
	if err != nil {
		return Result{}, err
	}
	logger := b.logger.With(zap.String("appointment_id", g.id))

	if containerWidth <= 0 {
		logger.Debug("Resize released without a measurable row")
		return Result{Outcome: NoChange, Appointment: current}, nil
	}

	duration := max(model.MinDuration, current.Duration+ResizeDeltaMinutes(pointerX-g.startX, containerWidth))

	next := current
	next.Duration = duration

	outcome := Clear
	if others := b.forMechanicLocked(current.MechanicID, current.ID); schedule.HasCollision(next, others) {
		if limit, ok := schedule.MaxDurationBefore(current.Start, others); ok && limit < duration {
			duration = limit
		}
		next.Duration = max(model.MinDuration, schedule.FloorToSnap(duration))
		outcome = Clamped
	}

	if next.Duration == current.Duration {
		return Result{Outcome: NoChange, Appointment: current}, nil
	}

	start := b.dayTime(next.Start)
	end := start.Add(time.Duration(next.Duration) * time.Minute)
	update := model.OrderUpdate{EndDate: formatUpdateTime(end)}
	var startPtr *time.Time
	if current.StartDate == nil {
		// An undated order gains its placed start along with the new end
		update.StartDate = formatUpdateTime(start)
		startPtr = &start
		next.StartDate = &start
	}
	next.EndDate = &end

	logger.Info("Resized appointment",
		zap.Int("from_duration", current.Duration),
		zap.Int("to_duration", next.Duration),
		zap.Stringer("outcome", outcome))

	previous := current
	m := mutation{
		kind:    kindResize,
		apply:   func() { b.applyOrderLocked(previous.ID, nil, startPtr, &end) },
		revert:  func() { b.restoreLocked(previous) },
		success: "Appointment resized",
		failure: "Failed to resize appointment",
	}
	if b.updater != nil {
		id := current.ID
		m.send = func(ctx context.Context) error { return b.updater.UpdateRepairOrder(ctx, id, update) }
	}
	b.commitLocked(next, m)

	return Result{Outcome: outcome, Appointment: next}, nil
}

// CancelGesture abandons the gesture in progress without changing the board
func (b *Board) CancelGesture() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gesture = nil
}

// Preview returns the visual state of the gesture in progress
func (b *Board) Preview() Preview {
	b.mu.Lock()
	defer b.mu.Unlock()

	g := b.gesture
	if g == nil {
		return Preview{State: Idle}
	}
	return Preview{State: g.kind, AppointmentID: g.id, OffsetX: g.offsetX, Width: g.previewWidth}
}

// AddAppointment schedules a new order on the selected day. Without an
// assigned mechanic the order goes to the mechanic with the fewest
// appointments. The order is placed in its mechanic's first free slot and
// keeps its duration when it already has valid dates. An empty id is filled
// with a new UUID.
func (b *Board) AddAppointment(order model.RepairOrderRecord) (model.Appointment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return model.Appointment{}, ErrClosed
	}
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if b.indexLocked(order.ID) >= 0 {
		return model.Appointment{}, ErrDuplicateAppointment
	}

	mechanicID := ""
	if order.HasMechanic() {
		mechanicID = *order.AssignedMechanicID
	} else {
		var ok bool
		if mechanicID, ok = schedule.LeastBusyMechanic(b.appointments, b.mechanics); !ok {
			return model.Appointment{}, ErrNoMechanics
		}
	}

	duration := model.DefaultDuration
	if order.HasDates() {
		duration = max(model.MinDuration, schedule.DurationMinutes(*order.StartDate, *order.EndDate, b.logger))
	}
	slot := schedule.FirstFreeSlot(duration, b.forMechanicLocked(mechanicID, ""))
	start := b.dayTime(slot)
	end := start.Add(time.Duration(duration) * time.Minute)

	order.AssignedMechanicID = &mechanicID
	order.StartDate = &start
	order.EndDate = &end

	projected := b.projector.ProjectForDay([]model.RepairOrderRecord{order}, b.day)
	if len(projected) != 1 {
		return model.Appointment{}, fmt.Errorf("failed to project new order %s onto %s", order.ID, b.day.Format("2006-01-02"))
	}
	appointment := projected[0]

	b.logger.Info("Added appointment",
		zap.String("appointment_id", order.ID),
		zap.String("mechanic_id", mechanicID),
		zap.Stringer("start", appointment.Start),
		zap.Int("duration", appointment.Duration))

	id := order.ID
	record := order
	m := mutation{
		kind:    kindCreate,
		apply:   func() { b.upsertOrderLocked(record) },
		revert:  func() { b.removeLocked(id) },
		success: "Appointment added",
		failure: "Failed to add appointment",
	}
	if b.creator != nil {
		m.send = func(ctx context.Context) error { return b.creator.CreateRepairOrder(ctx, record) }
	}
	b.commitLocked(appointment, m)

	return appointment, nil
}
