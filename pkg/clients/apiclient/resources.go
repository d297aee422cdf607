package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/typeWolffo/zpi-wsiz/pkg/core/model"
	"github.com/typeWolffo/zpi-wsiz/pkg/db"
	"github.com/typeWolffo/zpi-wsiz/pkg/utils/timeparse"
)

type mechanicDTO struct {
	ID         string `json:"id"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	ShiftStart string `json:"shiftStart"`
	ShiftEnd   string `json:"shiftEnd"`
}

type repairOrderDTO struct {
	ID                  string  `json:"id"`
	Description         string  `json:"description"`
	AssignedMechanicID  *string `json:"assignedMechanicId"`
	VehicleID           *string `json:"vehicleId"`
	StartDate           *string `json:"startDate"`
	EndDate             *string `json:"endDate"`
	Make                string  `json:"make"`
	Model               string  `json:"model"`
	Year                string  `json:"year"`
	VIN                 string  `json:"vin"`
	RegistrationNumber  string  `json:"registrationNumber"`
	CustomerFirstName   string  `json:"customerFirstName"`
	CustomerLastName    string  `json:"customerLastName"`
	CustomerEmail       string  `json:"customerEmail"`
	CustomerPhoneNumber string  `json:"customerPhoneNumber"`
}

type createRepairOrderRequest struct {
	ID                 string  `json:"id,omitempty"`
	Description        string  `json:"description"`
	AssignedMechanicID *string `json:"assignedMechanicId,omitempty"`
	VehicleID          *string `json:"vehicleId,omitempty"`
	StartDate          *string `json:"startDate,omitempty"`
	EndDate            *string `json:"endDate,omitempty"`
}

// ListMechanics fetches every mechanic
func (c *Client) ListMechanics(ctx context.Context) ([]model.Mechanic, error) {
	var resp envelope[[]mechanicDTO]
	if err := c.do(ctx, http.MethodGet, "/api/mechanic/all", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list mechanics: %w", err)
	}

	mechanics := make([]model.Mechanic, 0, len(resp.Data))
	for _, dto := range resp.Data {
		m := model.Mechanic{ID: dto.ID, FirstName: dto.FirstName, LastName: dto.LastName}
		var err error
		if dto.ShiftStart != "" {
			if m.ShiftStart, err = timeparse.TimeOfDay(dto.ShiftStart); err != nil {
				return nil, fmt.Errorf("failed to parse shift start of mechanic %s: %w", dto.ID, err)
			}
		}
		if dto.ShiftEnd != "" {
			if m.ShiftEnd, err = timeparse.TimeOfDay(dto.ShiftEnd); err != nil {
				return nil, fmt.Errorf("failed to parse shift end of mechanic %s: %w", dto.ID, err)
			}
		}
		mechanics = append(mechanics, m)
	}
	return mechanics, nil
}

// ListRepairOrders fetches every repair order
func (c *Client) ListRepairOrders(ctx context.Context) ([]model.RepairOrderRecord, error) {
	var resp envelope[[]repairOrderDTO]
	if err := c.do(ctx, http.MethodGet, "/api/repair-order/all", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list repair orders: %w", err)
	}

	orders := make([]model.RepairOrderRecord, 0, len(resp.Data))
	for _, dto := range resp.Data {
		r := model.RepairOrderRecord{
			ID:                  dto.ID,
			Description:         dto.Description,
			AssignedMechanicID:  nonEmpty(dto.AssignedMechanicID),
			VehicleID:           nonEmpty(dto.VehicleID),
			Make:                dto.Make,
			Model:               dto.Model,
			Year:                dto.Year,
			VIN:                 dto.VIN,
			RegistrationNumber:  dto.RegistrationNumber,
			CustomerFirstName:   dto.CustomerFirstName,
			CustomerLastName:    dto.CustomerLastName,
			CustomerEmail:       dto.CustomerEmail,
			CustomerPhoneNumber: dto.CustomerPhoneNumber,
		}
		r.StartDate = c.optionalTimestamp(dto.ID, "start", dto.StartDate)
		r.EndDate = c.optionalTimestamp(dto.ID, "end", dto.EndDate)
		orders = append(orders, r)
	}
	return orders, nil
}

// UpdateRepairOrder sends a partial update of one order
func (c *Client) UpdateRepairOrder(ctx context.Context, id string, update model.OrderUpdate) error {
	if update.IsEmpty() {
		return db.ErrEmptyUpdate
	}
	path := "/api/repair-order/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodPatch, path, update, nil); err != nil {
		return fmt.Errorf("failed to update repair order %s: %w", id, err)
	}
	return nil
}

// CreateRepairOrder creates an order. Timestamps are sent in the client's location.
func (c *Client) CreateRepairOrder(ctx context.Context, record model.RepairOrderRecord) error {
	req := createRepairOrderRequest{
		ID:                 record.ID,
		Description:        record.Description,
		AssignedMechanicID: record.AssignedMechanicID,
		VehicleID:          record.VehicleID,
		StartDate:          c.formatTimestamp(record.StartDate),
		EndDate:            c.formatTimestamp(record.EndDate),
	}
	if err := c.do(ctx, http.MethodPost, "/api/repair-order", req, nil); err != nil {
		return fmt.Errorf("failed to create repair order: %w", err)
	}
	return nil
}

// optionalTimestamp parses one date of an order. An unreadable value is
// logged and treated as absent.
func (c *Client) optionalTimestamp(orderID, field string, s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, err := timeparse.OptionalTimestamp(*s, c.loc)
	if err != nil {
		c.logger.Warn("Ignoring unreadable repair order date",
			zap.String("order_id", orderID),
			zap.String("field", field),
			zap.Error(err))
		return nil
	}
	return t
}

func (c *Client) formatTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.In(c.loc).Format(model.UpdateTimeLayout)
	return &s
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
