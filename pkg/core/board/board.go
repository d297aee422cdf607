package board

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/typeWolffo/zpi-wsiz/pkg/core/model"
	"github.com/typeWolffo/zpi-wsiz/pkg/core/schedule"
)

var (
	// ErrUnknownAppointment is returned when a gesture names an appointment not on the board
	ErrUnknownAppointment = errors.New("board: unknown appointment")
	// ErrGestureInProgress is returned when a gesture starts while another is active
	ErrGestureInProgress = errors.New("board: gesture already in progress")
	// ErrNoGesture is returned when a move or end event arrives without a matching gesture
	ErrNoGesture = errors.New("board: no matching gesture in progress")
	// ErrClosed is returned after the board has been closed
	ErrClosed = errors.New("board: closed")
	// ErrDuplicateAppointment is returned when an added order reuses an id already on the board
	ErrDuplicateAppointment = errors.New("board: duplicate appointment")
	// ErrNoMechanics is returned when an appointment is added to a board without mechanics
	ErrNoMechanics = errors.New("board: no mechanics to assign")
)

// State is the gesture state of the board
type State int

const (
	Idle State = iota
	Dragging
	Resizing
)

func (s State) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case Resizing:
		return "resizing"
	default:
		return "idle"
	}
}

// OrderUpdater is the mutation sink for reassign and resize
type OrderUpdater interface {
	UpdateRepairOrder(ctx context.Context, id string, update model.OrderUpdate) error
}

// OrderCreator persists orders added from the board
type OrderCreator interface {
	CreateRepairOrder(ctx context.Context, record model.RepairOrderRecord) error
}

// Config holds the collaborators of a Board
type Config struct {
	// Projector builds appointments from orders; defaults to schedule.NewProjector
	Projector schedule.SchedulerProjector

	// Updater receives reassign and resize mutations. Nil keeps changes local.
	Updater OrderUpdater

	// Creator receives orders added with AddAppointment. Nil keeps them local.
	Creator OrderCreator

	// Notifier receives user-facing notifications. Nil discards them.
	Notifier Notifier

	Logger    *zap.Logger
	Mechanics []model.Mechanic
	Day       time.Time
}

// Board holds the appointments of one selected day and applies drag and
// resize gestures to them. Local changes are applied immediately and then
// persisted asynchronously; failed mutations are rolled back.
//
// All state lives behind mu. Gesture calls and mutation completions are the
// only writers.
type Board struct {
	mu sync.Mutex

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closed    bool
	projector schedule.SchedulerProjector
	updater   OrderUpdater
	creator   OrderCreator
	notifier  Notifier
	logger    *zap.Logger

	mechanics    []model.Mechanic
	orders       []model.RepairOrderRecord
	day          time.Time
	appointments []model.Appointment

	// generations maps appointment id to the generation of its latest local
	// edit. A mutation result whose generation is no longer current is stale.
	generations map[string]uint64
	nextGen     uint64

	// projection counts re-projections and loads counts order reloads.
	// A mutation settling after either reconciles with the rebuilt state.
	projection uint64
	loads      uint64

	gesture *gesture
}

// New creates a board for cfg.Day and projects orders onto it.
// ctx scopes every mutation the board dispatches.
func New(ctx context.Context, cfg Config, orders []model.RepairOrderRecord) *Board {
	ctx, cancel := context.WithCancel(ctx)

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	projector := cfg.Projector
	if projector == nil {
		projector = schedule.NewProjector(logger, nil)
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = NotifierFunc(func(Notification) {})
	}
	day := cfg.Day
	if day.IsZero() {
		day = time.Now()
	}

	b := &Board{
		ctx:         ctx,
		cancel:      cancel,
		projector:   projector,
		updater:     cfg.Updater,
		creator:     cfg.Creator,
		notifier:    notifier,
		logger:      logger,
		mechanics:   slices.Clone(cfg.Mechanics),
		orders:      slices.Clone(orders),
		day:         day,
		generations: make(map[string]uint64),
	}
	b.projectLocked()
	return b
}

// SetDay changes the selected day and rebuilds the projection. Any gesture
// in progress is discarded. Mutations still in flight settle against the
// rebuilt board: a confirmed edit is shown wherever its order now falls and a
// failed one is rolled back and reported.
func (b *Board) SetDay(day time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.day = day
	b.projectLocked()
}

// Reload replaces the backing orders and rebuilds the projection, with the
// same rules as SetDay. Edits confirmed after the reload are applied on top
// of the new orders.
func (b *Board) Reload(orders []model.RepairOrderRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.loads++
	b.orders = slices.Clone(orders)
	b.projectLocked()
}

func (b *Board) projectLocked() {
	b.appointments = b.projector.DistributeUnassigned(b.orders, b.mechanics, b.day)
	b.projection++
	if b.gesture != nil {
		b.logger.Debug("Discarding gesture on re-projection", zap.String("appointment_id", b.gesture.id))
		b.gesture = nil
	}

	b.logger.Debug("Projected board",
		zap.String("day", b.day.Format("2006-01-02")),
		zap.Int("orders", len(b.orders)),
		zap.Int("appointments", len(b.appointments)))
}

// Day returns the selected day
func (b *Board) Day() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.day
}

// State returns the current gesture state
func (b *Board) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.gesture == nil {
		return Idle
	}
	return b.gesture.kind
}

// Mechanics returns the board's mechanics in row order
func (b *Board) Mechanics() []model.Mechanic {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.mechanics)
}

// Orders returns the backing orders, including local edits still being saved
func (b *Board) Orders() []model.RepairOrderRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.orders)
}

// Appointments returns a copy of every appointment on the board
func (b *Board) Appointments() []model.Appointment {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.appointments)
}

// AppointmentsFor returns the appointments of one mechanic
func (b *Board) AppointmentsFor(mechanicID string) []model.Appointment {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.forMechanicLocked(mechanicID, "")
}

// Appointment returns the appointment with the given id
func (b *Board) Appointment(id string) (model.Appointment, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexLocked(id)
	if i < 0 {
		return model.Appointment{}, false
	}
	return b.appointments[i], true
}

// CheckInvariant returns every pair of overlapping appointments that share a
// mechanic. Outside a gesture the result should be empty. The accepted
// exceptions are the window-start fallback of a saturated row, a rollback
// whose move to a free slot failed to save, and a save confirmed after a
// re-projection onto a slot taken in the meantime.
func (b *Board) CheckInvariant() []schedule.OverlapPair {
	b.mu.Lock()
	defer b.mu.Unlock()

	pairs := schedule.FindOverlaps(b.appointments)
	for _, p := range pairs {
		b.logger.Warn("Overlapping appointments on board",
			zap.String("mechanic_id", p.MechanicID),
			zap.String("first_id", p.FirstID),
			zap.String("second_id", p.SecondID))
	}
	return pairs
}

// Wait blocks until every dispatched mutation has completed
func (b *Board) Wait() {
	b.wg.Wait()
}

// Close detaches the board and cancels in-flight mutations. Results that
// arrive later are dropped without touching state or notifying.
func (b *Board) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.gesture = nil
	b.cancel()
}

func (b *Board) indexLocked(id string) int {
	return slices.IndexFunc(b.appointments, func(a model.Appointment) bool { return a.ID == id })
}

// forMechanicLocked returns the mechanic's appointments, skipping excludeID
func (b *Board) forMechanicLocked(mechanicID, excludeID string) []model.Appointment {
	var out []model.Appointment
	for _, a := range b.appointments {
		if a.MechanicID == mechanicID && a.ID != excludeID {
			out = append(out, a)
		}
	}
	return out
}

func (b *Board) mechanicLocked(id string) (model.Mechanic, bool) {
	i := slices.IndexFunc(b.mechanics, func(m model.Mechanic) bool { return m.ID == id })
	if i < 0 {
		return model.Mechanic{}, false
	}
	return b.mechanics[i], true
}

// dayTime returns the instant on the selected day at the given time of day
func (b *Board) dayTime(t model.TimeOfDay) time.Time {
	dayStart, _ := schedule.DayBounds(b.day)
	return dayStart.Add(time.Duration(t.Hour)*time.Hour + time.Duration(t.Minute)*time.Minute)
}
