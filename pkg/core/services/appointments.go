package services

import (
	"fmt"
	"time"

	"github.com/typeWolffo/zpi-wsiz/pkg/core/board"
	"github.com/typeWolffo/zpi-wsiz/pkg/core/model"
	"github.com/typeWolffo/zpi-wsiz/pkg/core/schedule"
)

// Gestures are replayed against a row exactly WindowMinutes pixels wide, so
// one pixel of travel is one minute.
const commandRowWidth = model.WindowMinutes

// MoveAppointment relocates an appointment to mechanicID at start, as a drag
// and drop would. The board resolves collisions and persists the change.
func MoveAppointment(b *board.Board, id, mechanicID string, start model.TimeOfDay) (board.Result, error) {
	current, ok := b.Appointment(id)
	if !ok {
		return board.Result{}, fmt.Errorf("failed to move %s: %w", id, board.ErrUnknownAppointment)
	}
	if err := b.BeginDrag(id); err != nil {
		return board.Result{}, fmt.Errorf("failed to move %s: %w", id, err)
	}

	deltaX := float64(schedule.ToDayMinutes(start) - schedule.ToDayMinutes(current.Start))
	result, err := b.EndDrag(&board.DropTarget{MechanicID: mechanicID, Width: commandRowWidth}, deltaX)
	if err != nil {
		return board.Result{}, fmt.Errorf("failed to move %s: %w", id, err)
	}
	return result, nil
}

// ResizeAppointment sets an appointment's duration, as a drag of its right
// edge would. Like the drag, it is the change in duration that snaps to 15
// minutes, so a 50 minute appointment asked for 60 becomes 65. The result is
// cut at the next appointment.
func ResizeAppointment(b *board.Board, id string, duration int) (board.Result, error) {
	current, ok := b.Appointment(id)
	if !ok {
		return board.Result{}, fmt.Errorf("failed to resize %s: %w", id, board.ErrUnknownAppointment)
	}
	if err := b.BeginResize(id, float64(current.Duration), 0); err != nil {
		return board.Result{}, fmt.Errorf("failed to resize %s: %w", id, err)
	}

	result, err := b.EndResize(float64(duration-current.Duration), commandRowWidth)
	if err != nil {
		return board.Result{}, fmt.Errorf("failed to resize %s: %w", id, err)
	}
	return result, nil
}

// NewOrder describes an order added from the board
type NewOrder struct {
	Description string
	MechanicID  string
	VehicleID   string
	// Duration in minutes, DefaultDuration when zero
	Duration int
}

// AddAppointment places a new order on the board's day in its mechanic's
// first free slot. Without a mechanic the least busy one is chosen.
func AddAppointment(b *board.Board, order NewOrder) (model.Appointment, error) {
	record := model.RepairOrderRecord{Description: order.Description}
	if order.MechanicID != "" {
		mechanicID := order.MechanicID
		record.AssignedMechanicID = &mechanicID
	}
	if order.VehicleID != "" {
		vehicleID := order.VehicleID
		record.VehicleID = &vehicleID
	}
	if order.Duration > 0 {
		day := b.Day()
		start := atTimeOfDay(day, model.WindowStart)
		end := start.Add(time.Duration(order.Duration) * time.Minute)
		record.StartDate = &start
		record.EndDate = &end
	}

	appointment, err := b.AddAppointment(record)
	if err != nil {
		return model.Appointment{}, fmt.Errorf("failed to add appointment: %w", err)
	}
	return appointment, nil
}
