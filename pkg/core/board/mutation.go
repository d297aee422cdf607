package board

import (
	"context"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/typeWolffo/zpi-wsiz/pkg/core/model"
	"github.com/typeWolffo/zpi-wsiz/pkg/core/schedule"
)

type mutationKind string

const (
	kindReassign mutationKind = "reassign"
	kindResize   mutationKind = "resize"
	kindCreate   mutationKind = "create"
)

// mutation is one optimistic edit waiting for the persistence layer.
// apply and revert run under the board lock.
type mutation struct {
	kind mutationKind
	id   string
	gen  uint64
	send func(ctx context.Context) error

	// apply records the edit on the backing orders
	apply func()
	// revert puts the appointment back after a failure, as long as the board
	// has not been re-projected since the edit
	revert func()

	// previous is the backing order before apply; hadPrevious is false for
	// new orders
	previous    model.RepairOrderRecord
	hadPrevious bool

	// projection and loads are the board counters at commit time
	projection uint64
	loads      uint64

	success string
	failure string
}

// commitLocked applies next to local state and to the backing orders,
// stamps a new generation for its id and dispatches m. A nil m.send keeps the
// edit local.
func (b *Board) commitLocked(next model.Appointment, m mutation) {
	b.putLocked(next)

	m.id = next.ID
	m.previous, m.hadPrevious = b.orderLocked(m.id)
	if m.apply != nil {
		m.apply()
	}

	b.nextGen++
	m.gen = b.nextGen
	b.generations[m.id] = m.gen
	m.projection = b.projection
	m.loads = b.loads

	if m.send == nil {
		return
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		err := m.send(b.ctx)
		b.settle(m, err)
	}()
}

func (b *Board) settle(m mutation, err error) {
	b.mu.Lock()
	n, ok := b.settleLocked(m, err)
	b.mu.Unlock()

	if ok {
		b.notifier.Notify(n)
	}
}

func (b *Board) settleLocked(m mutation, err error) (Notification, bool) {
	logger := b.logger.With(
		zap.String("appointment_id", m.id),
		zap.String("mutation", string(m.kind)),
		zap.Uint64("generation", m.gen))

	if b.closed {
		logger.Debug("Dropping mutation result for closed board", zap.Error(err))
		return Notification{}, false
	}

	if b.generations[m.id] != m.gen {
		logger.Debug("Ignoring stale mutation result", zap.Error(err))
		return Notification{}, false
	}

	reprojected := b.projection != m.projection

	if err == nil {
		if reprojected {
			// Reloaded orders may predate the save
			if m.apply != nil {
				m.apply()
			}
			b.refreshLocked(m.id)
		}
		logger.Info("Mutation confirmed", zap.Bool("reprojected", reprojected))
		return Notification{Level: LevelInfo, Action: string(m.kind), AppointmentID: m.id, Message: m.success}, true
	}

	logger.Error("Mutation failed, rolling back", zap.Error(err), zap.Bool("reprojected", reprojected))

	// Later results for this id belong to edits the rollback has undone
	b.nextGen++
	b.generations[m.id] = b.nextGen

	if b.loads == m.loads {
		b.restoreOrderLocked(m)
	}
	if reprojected {
		b.refreshLocked(m.id)
	} else if m.revert != nil {
		m.revert()
	}

	return Notification{Level: LevelError, Action: string(m.kind), AppointmentID: m.id, Message: m.failure, Err: err}, true
}

// reassignLocked commits next, previous moved to another mechanic or start,
// and persists both dates derived from the selected day
func (b *Board) reassignLocked(previous, next model.Appointment, revert func(), success, failure string) model.Appointment {
	start := b.dayTime(next.Start)
	end := start.Add(time.Duration(next.Duration) * time.Minute)
	next.StartDate = &start
	next.EndDate = &end

	mechanicID := next.MechanicID
	update := model.OrderUpdate{
		AssignedMechanicID: &mechanicID,
		StartDate:          formatUpdateTime(start),
		EndDate:            formatUpdateTime(end),
	}
	m := mutation{
		kind:    kindReassign,
		apply:   func() { b.applyOrderLocked(previous.ID, &mechanicID, &start, &end) },
		revert:  revert,
		success: success,
		failure: failure,
	}
	if b.updater != nil {
		id := previous.ID
		m.send = func(ctx context.Context) error { return b.updater.UpdateRepairOrder(ctx, id, update) }
	}
	b.commitLocked(next, m)
	return next
}

// restoreLocked puts previous back on the board. When its slot was taken in
// the meantime it moves to the nearest free slot on its row, and that
// placement is persisted.
func (b *Board) restoreLocked(previous model.Appointment) {
	b.putLocked(previous)
	if previous.MechanicID == "" {
		return
	}

	others := b.forMechanicLocked(previous.MechanicID, previous.ID)
	if !schedule.HasCollision(previous, others) {
		return
	}

	logger := b.logger.With(
		zap.String("appointment_id", previous.ID),
		zap.String("mechanic_id", previous.MechanicID))

	next := previous
	next.Start = schedule.FindNearestFreeSlot(previous, others, previous.Start)
	if next.Start == previous.Start {
		logger.Warn("Restored appointment overlaps and its row has no free slot", zap.Stringer("start", previous.Start))
		return
	}

	logger.Info("Restored appointment collided, moving it to a free slot",
		zap.Stringer("from", previous.Start),
		zap.Stringer("to", next.Start))
	b.reassignLocked(previous, next, func() { b.putLocked(previous) },
		"Appointment moved to a free slot", "Failed to move appointment to a free slot")
}

// refreshLocked rebuilds the appointment with the given id from its backing
// order on the selected day, leaving every other appointment as it is
func (b *Board) refreshLocked(id string) {
	b.appointments = slices.DeleteFunc(b.appointments, func(a model.Appointment) bool { return a.ID == id })
	if _, ok := b.orderLocked(id); !ok {
		return
	}

	for _, a := range b.projector.DistributeUnassigned(b.orders, b.mechanics, b.day) {
		if a.ID != id {
			continue
		}
		if schedule.HasCollision(a, b.forMechanicLocked(a.MechanicID, a.ID)) {
			b.logger.Warn("Refreshed appointment overlaps its row",
				zap.String("appointment_id", id),
				zap.String("mechanic_id", a.MechanicID))
		}
		b.appointments = append(b.appointments, a)
		return
	}
}

// putLocked replaces the appointment with a's id, or adds a
func (b *Board) putLocked(a model.Appointment) {
	if i := b.indexLocked(a.ID); i >= 0 {
		b.appointments[i] = a
		return
	}
	b.appointments = append(b.appointments, a)
}

func (b *Board) removeLocked(id string) {
	b.appointments = slices.DeleteFunc(b.appointments, func(a model.Appointment) bool { return a.ID == id })
	b.orders = slices.DeleteFunc(b.orders, func(o model.RepairOrderRecord) bool { return o.ID == id })
}

func (b *Board) orderIndexLocked(id string) int {
	return slices.IndexFunc(b.orders, func(o model.RepairOrderRecord) bool { return o.ID == id })
}

func (b *Board) orderLocked(id string) (model.RepairOrderRecord, bool) {
	i := b.orderIndexLocked(id)
	if i < 0 {
		return model.RepairOrderRecord{}, false
	}
	return b.orders[i], true
}

// upsertOrderLocked replaces the order with record's id, or adds record
func (b *Board) upsertOrderLocked(record model.RepairOrderRecord) {
	if i := b.orderIndexLocked(record.ID); i >= 0 {
		b.orders[i] = record
		return
	}
	b.orders = append(b.orders, record)
}

// restoreOrderLocked undoes m.apply on the backing orders
func (b *Board) restoreOrderLocked(m mutation) {
	if m.hadPrevious {
		b.upsertOrderLocked(m.previous)
		return
	}
	b.orders = slices.DeleteFunc(b.orders, func(o model.RepairOrderRecord) bool { return o.ID == m.id })
}

// applyOrderLocked records an edit on the backing order so a re-projection
// reflects it. Nil arguments leave the field untouched.
func (b *Board) applyOrderLocked(id string, mechanicID *string, start, end *time.Time) {
	i := b.orderIndexLocked(id)
	if i < 0 {
		return
	}
	if mechanicID != nil {
		b.orders[i].AssignedMechanicID = mechanicID
	}
	if start != nil {
		b.orders[i].StartDate = start
	}
	if end != nil {
		b.orders[i].EndDate = end
	}
}

func formatUpdateTime(t time.Time) *string {
	s := t.Format(model.UpdateTimeLayout)
	return &s
}
