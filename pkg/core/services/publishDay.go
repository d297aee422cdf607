package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/typeWolffo/zpi-wsiz/internal/config"
	"github.com/typeWolffo/zpi-wsiz/pkg/clients/sheetsclient"
	"github.com/typeWolffo/zpi-wsiz/pkg/core/model"
	"github.com/typeWolffo/zpi-wsiz/pkg/core/schedule"
	"github.com/typeWolffo/zpi-wsiz/pkg/db"
)

const unassignedMechanic = "Unassigned"

// DayPublisher writes a day's board to a spreadsheet
type DayPublisher interface {
	PublishDay(spreadsheetID string, day *sheetsclient.PublishedDay) error
}

// PublishDay projects the day and publishes it to the configured schedule sheet
func PublishDay(ctx context.Context, store db.Fetcher, publisher DayPublisher, projector schedule.SchedulerProjector, cfg *config.Config, logger *zap.Logger, day time.Time) (*sheetsclient.PublishedDay, error) {
	if cfg.ScheduleSheetID == "" {
		return nil, fmt.Errorf("scheduleSheetID is not configured")
	}

	data, err := LoadBoardData(ctx, store, logger)
	if err != nil {
		return nil, err
	}
	if projector == nil {
		projector = schedule.NewProjector(logger, nil)
	}

	published := BuildPublishedDay(data.Mechanics, projector.ProjectForDay(data.Orders, day), day)

	logger.Debug("Publishing day",
		zap.String("tab", sheetsclient.TabTitle(day)),
		zap.Int("rows", len(published.Rows)))

	if err := publisher.PublishDay(cfg.ScheduleSheetID, published); err != nil {
		return nil, fmt.Errorf("failed to publish day: %w", err)
	}

	logger.Info("Published day", zap.String("tab", sheetsclient.TabTitle(day)), zap.Int("rows", len(published.Rows)))
	return published, nil
}

// BuildPublishedDay lays out appointments by mechanic, in mechanic order,
// then by start. Appointments without a known mechanic come last.
func BuildPublishedDay(mechanics []model.Mechanic, appointments []model.Appointment, day time.Time) *sheetsclient.PublishedDay {
	rank := make(map[string]int, len(mechanics))
	names := make(map[string]string, len(mechanics))
	for i, m := range mechanics {
		rank[m.ID] = i
		names[m.ID] = m.FullName()
	}
	rankOf := func(id string) int {
		if r, ok := rank[id]; ok {
			return r
		}
		return len(mechanics)
	}

	sorted := schedule.SortByStart(appointments)
	slices.SortStableFunc(sorted, func(a, b model.Appointment) int {
		return rankOf(a.MechanicID) - rankOf(b.MechanicID)
	})

	rows := make([]sheetsclient.PublishedDayRow, 0, len(sorted))
	for _, a := range sorted {
		mechanic, ok := names[a.MechanicID]
		if !ok {
			mechanic = unassignedMechanic
		}
		end := schedule.FromDayMinutes(schedule.ToDayMinutes(a.Start) + a.Duration)
		rows = append(rows, sheetsclient.PublishedDayRow{
			Mechanic:     mechanic,
			Start:        a.Start.String(),
			End:          end.String(),
			Minutes:      a.Duration,
			Car:          a.Car,
			Registration: a.RegistrationNumber,
			Customer:     a.CustomerName,
			Description:  a.Description,
			OrderID:      a.ID,
		})
	}

	return &sheetsclient.PublishedDay{Day: day, Rows: rows}
}
