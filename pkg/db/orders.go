package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/typeWolffo/zpi-wsiz/pkg/core/model"
	"github.com/typeWolffo/zpi-wsiz/pkg/utils/timeparse"
)

// ErrNotFound is returned when an update targets a missing repair order
var ErrNotFound = errors.New("repair order not found")

// ErrEmptyUpdate is returned for an update with no fields set
var ErrEmptyUpdate = errors.New("update has no fields")

// ResolvedUpdate is an OrderUpdate with its timestamps parsed
type ResolvedUpdate struct {
	AssignedMechanicID *string
	StartDate          *time.Time
	EndDate            *time.Time
}

// ResolveUpdate parses the timestamps of update in loc
func ResolveUpdate(update model.OrderUpdate, loc *time.Location) (ResolvedUpdate, error) {
	if update.IsEmpty() {
		return ResolvedUpdate{}, ErrEmptyUpdate
	}

	resolved := ResolvedUpdate{AssignedMechanicID: update.AssignedMechanicID}
	if update.StartDate != nil {
		t, err := timeparse.Timestamp(*update.StartDate, loc)
		if err != nil {
			return ResolvedUpdate{}, fmt.Errorf("failed to parse start date: %w", err)
		}
		resolved.StartDate = &t
	}
	if update.EndDate != nil {
		t, err := timeparse.Timestamp(*update.EndDate, loc)
		if err != nil {
			return ResolvedUpdate{}, fmt.Errorf("failed to parse end date: %w", err)
		}
		resolved.EndDate = &t
	}
	return resolved, nil
}

var validate = validator.New()

// SanitizeRepairOrders checks fetched records before they reach the
// projection. A record without an id is dropped. An invalid customer email
// is blanked, and an order with only one of its dates is treated as undated.
// Each repair is logged as a warning; the fetch itself never fails.
func SanitizeRepairOrders(records []model.RepairOrderRecord, logger *zap.Logger) []model.RepairOrderRecord {
	clean := make([]model.RepairOrderRecord, 0, len(records))
	for i, r := range records {
		logger := logger.With(zap.Int("index", i), zap.String("order_id", r.ID))

		if err := validate.Struct(r); err != nil {
			var fieldErrs validator.ValidationErrors
			if !errors.As(err, &fieldErrs) {
				logger.Warn("Skipping unreadable repair order", zap.Error(err))
				continue
			}
			drop := false
			for _, fe := range fieldErrs {
				switch fe.StructField() {
				case "ID":
					drop = true
				case "CustomerEmail":
					r.CustomerEmail = ""
				}
				logger.Warn("Invalid repair order field",
					zap.String("field", fe.StructField()),
					zap.String("rule", fe.Tag()))
			}
			if drop {
				logger.Warn("Skipping repair order without id")
				continue
			}
		}

		if (r.StartDate == nil) != (r.EndDate == nil) {
			logger.Warn("Repair order has only one of start and end, treating it as undated")
			r.StartDate, r.EndDate = nil, nil
		}
		clean = append(clean, r)
	}
	return clean
}
