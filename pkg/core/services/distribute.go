package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/typeWolffo/zpi-wsiz/pkg/core/model"
	"github.com/typeWolffo/zpi-wsiz/pkg/core/schedule"
	"github.com/typeWolffo/zpi-wsiz/pkg/db"
)

// DistributeStore defines the store operations needed by DistributeUnassigned
type DistributeStore interface {
	db.Fetcher
	db.OrderUpdater
}

// Assignment is a placement chosen for an order that had no mechanic or no dates
type Assignment struct {
	OrderID    string
	MechanicID string
	Start      model.TimeOfDay
	Duration   int
	Update     model.OrderUpdate
}

// DistributeResult reports what auto-distribution chose for a day
type DistributeResult struct {
	Day          time.Time
	Mechanics    []model.Mechanic
	Appointments []model.Appointment
	Assignments  []Assignment
	// Unplaced lists orders left without a mechanic because none exist
	Unplaced []string
	Applied  bool
}

// DistributeUnassigned runs auto-distribution over the day's projection and
// returns the placements chosen for unassigned or undated orders. When apply
// is set each placement is persisted through the store.
func DistributeUnassigned(ctx context.Context, store DistributeStore, projector schedule.SchedulerProjector, logger *zap.Logger, day time.Time, apply bool) (*DistributeResult, error) {
	data, err := LoadBoardData(ctx, store, logger)
	if err != nil {
		return nil, err
	}
	if projector == nil {
		projector = schedule.NewProjector(logger, nil)
	}

	logger.Debug("Distributing unassigned orders",
		zap.String("day", day.Format("2006-01-02")),
		zap.Int("mechanics", len(data.Mechanics)),
		zap.Bool("apply", apply))

	originals := make(map[string]model.RepairOrderRecord, len(data.Orders))
	for _, o := range data.Orders {
		originals[o.ID] = o
	}

	result := &DistributeResult{
		Day:          day,
		Mechanics:    data.Mechanics,
		Appointments: projector.DistributeUnassigned(data.Orders, data.Mechanics, day),
	}

	for _, a := range result.Appointments {
		order, ok := originals[a.ID]
		if !ok || (order.HasMechanic() && order.HasDates()) {
			continue
		}
		if a.MechanicID == "" {
			result.Unplaced = append(result.Unplaced, a.ID)
			continue
		}

		assignment := Assignment{
			OrderID:    a.ID,
			MechanicID: a.MechanicID,
			Start:      a.Start,
			Duration:   a.Duration,
		}
		if !order.HasMechanic() {
			mechanicID := a.MechanicID
			assignment.Update.AssignedMechanicID = &mechanicID
		}
		if !order.HasDates() {
			start := atTimeOfDay(day, a.Start)
			end := start.Add(time.Duration(a.Duration) * time.Minute)
			startStr := start.Format(model.UpdateTimeLayout)
			endStr := end.Format(model.UpdateTimeLayout)
			assignment.Update.StartDate = &startStr
			assignment.Update.EndDate = &endStr
		}
		result.Assignments = append(result.Assignments, assignment)
	}

	logger.Info("Auto-distribution computed",
		zap.Int("assignments", len(result.Assignments)),
		zap.Int("unplaced", len(result.Unplaced)))

	if !apply {
		return result, nil
	}

	for _, assignment := range result.Assignments {
		if err := store.UpdateRepairOrder(ctx, assignment.OrderID, assignment.Update); err != nil {
			return result, fmt.Errorf("failed to apply placement for order %s: %w", assignment.OrderID, err)
		}
		logger.Debug("Applied placement",
			zap.String("order_id", assignment.OrderID),
			zap.String("mechanic_id", assignment.MechanicID),
			zap.Stringer("start", assignment.Start))
	}
	result.Applied = true

	return result, nil
}

// atTimeOfDay returns t on the calendar day of day, in day's location
func atTimeOfDay(day time.Time, t model.TimeOfDay) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, day.Location())
}
