package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/typeWolffo/zpi-wsiz/pkg/core/model"
	"github.com/typeWolffo/zpi-wsiz/pkg/db"
)

// SeedStore defines the store operations needed to seed sample data
type SeedStore interface {
	db.MechanicCreator
	db.OrderCreator
}

// SeedResult lists the records created by SeedSampleData
type SeedResult struct {
	Mechanics []model.Mechanic
	Orders    []model.RepairOrderRecord
}

// SeedSampleData inserts three mechanics and a handful of orders on day:
// assigned and dated, unassigned and dated, and undated ones
func SeedSampleData(ctx context.Context, store SeedStore, logger *zap.Logger, day time.Time) (*SeedResult, error) {
	shiftStart := model.TimeOfDay{Hour: 7}
	shiftEnd := model.TimeOfDay{Hour: 15}

	mechanics := []model.Mechanic{
		{ID: uuid.New().String(), FirstName: "Adam", LastName: "Nowak", ShiftStart: shiftStart, ShiftEnd: shiftEnd},
		{ID: uuid.New().String(), FirstName: "Ewa", LastName: "Kowalska", ShiftStart: shiftStart, ShiftEnd: shiftEnd},
		{ID: uuid.New().String(), FirstName: "Piotr", LastName: "Wiśniewski", ShiftStart: model.TimeOfDay{Hour: 10}, ShiftEnd: model.TimeOfDay{Hour: model.DayEndHour}},
	}

	for _, m := range mechanics {
		if err := store.CreateMechanic(ctx, m); err != nil {
			return nil, fmt.Errorf("failed to create mechanic %s: %w", m.FullName(), err)
		}
		logger.Debug("Seeded mechanic", zap.String("id", m.ID), zap.String("name", m.FullName()))
	}

	at := func(hour, minute int) *time.Time {
		t := atTimeOfDay(day, model.TimeOfDay{Hour: hour, Minute: minute})
		return &t
	}
	mechanicID := func(i int) *string {
		id := mechanics[i].ID
		return &id
	}

	orders := []model.RepairOrderRecord{
		{Description: "Oil and filter change", AssignedMechanicID: mechanicID(0), StartDate: at(8, 0), EndDate: at(9, 0)},
		{Description: "Brake pads front axle", AssignedMechanicID: mechanicID(0), StartDate: at(9, 30), EndDate: at(11, 0)},
		{Description: "Timing belt replacement", AssignedMechanicID: mechanicID(1), StartDate: at(7, 0), EndDate: at(11, 30)},
		{Description: "Air conditioning service", AssignedMechanicID: mechanicID(2), StartDate: at(12, 0), EndDate: at(13, 15)},
		{Description: "Tyre swap", StartDate: at(10, 0), EndDate: at(10, 45)},
		{Description: "Diagnostics: engine light"},
		{Description: "Wheel alignment"},
	}

	for i := range orders {
		orders[i].ID = uuid.New().String()
		if err := store.CreateRepairOrder(ctx, orders[i]); err != nil {
			return nil, fmt.Errorf("failed to create repair order %q: %w", orders[i].Description, err)
		}
		logger.Debug("Seeded repair order", zap.String("id", orders[i].ID), zap.String("description", orders[i].Description))
	}

	logger.Info("Seeded sample data",
		zap.Int("mechanics", len(mechanics)),
		zap.Int("orders", len(orders)),
		zap.String("day", day.Format("2006-01-02")))

	return &SeedResult{Mechanics: mechanics, Orders: orders}, nil
}
