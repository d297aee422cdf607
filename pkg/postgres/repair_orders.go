package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/typeWolffo/zpi-wsiz/pkg/core/model"
	"github.com/typeWolffo/zpi-wsiz/pkg/db"
)

// ListRepairOrders retrieves all repair orders joined with their vehicle and
// customer. Orders without a vehicle come back with empty vehicle fields.
func (d *DB) ListRepairOrders(ctx context.Context) ([]model.RepairOrderRecord, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT ro.id::text, ro.description, ro.assigned_mechanic_id::text, ro.vehicle_id::text,
		       ro.start_time, ro.end_time,
		       COALESCE(v.make, ''), COALESCE(v.model, ''), COALESCE(v.year, ''),
		       COALESCE(v.vin, ''), COALESCE(v.registration_number, ''),
		       COALESCE(lower(c.first_name), ''), COALESCE(lower(c.last_name), ''),
		       COALESCE(lower(c.email), ''), COALESCE(c.phone_number, '')
		FROM repair_orders ro
		LEFT JOIN vehicles v ON ro.vehicle_id = v.id
		LEFT JOIN customers c ON v.customer_id = c.id
		ORDER BY ro.created_at, ro.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query repair orders: %w", err)
	}
	defer rows.Close()

	var orders []model.RepairOrderRecord
	for rows.Next() {
		var r model.RepairOrderRecord
		var start, end *time.Time
		if err := rows.Scan(
			&r.ID, &r.Description, &r.AssignedMechanicID, &r.VehicleID,
			&start, &end,
			&r.Make, &r.Model, &r.Year, &r.VIN, &r.RegistrationNumber,
			&r.CustomerFirstName, &r.CustomerLastName, &r.CustomerEmail, &r.CustomerPhoneNumber,
		); err != nil {
			return nil, fmt.Errorf("failed to scan repair order: %w", err)
		}
		r.StartDate = inLocation(start, d.loc)
		r.EndDate = inLocation(end, d.loc)
		orders = append(orders, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating repair orders: %w", err)
	}

	return orders, nil
}

// UpdateRepairOrder applies the fields set in update to one order
func (d *DB) UpdateRepairOrder(ctx context.Context, id string, update model.OrderUpdate) error {
	resolved, err := db.ResolveUpdate(update, d.loc)
	if err != nil {
		return fmt.Errorf("failed to resolve update for repair order %s: %w", id, err)
	}

	tag, err := d.pool.Exec(ctx, `
		UPDATE repair_orders
		SET assigned_mechanic_id = COALESCE($2::uuid, assigned_mechanic_id),
		    start_time = COALESCE($3, start_time),
		    end_time = COALESCE($4, end_time),
		    updated_at = NOW()
		WHERE id = $1
	`, id, resolved.AssignedMechanicID, resolved.StartDate, resolved.EndDate)
	if err != nil {
		return fmt.Errorf("failed to update repair order %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update repair order %s: %w", id, db.ErrNotFound)
	}

	d.logger.Debug("Updated repair order", zap.String("order_id", id))
	return nil
}

// CreateRepairOrder inserts a repair order. An empty id is filled with a new UUID.
func (d *DB) CreateRepairOrder(ctx context.Context, record model.RepairOrderRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	_, err := d.pool.Exec(ctx, `
		INSERT INTO repair_orders (id, description, assigned_mechanic_id, vehicle_id, start_time, end_time)
		VALUES ($1, $2, $3::uuid, $4::uuid, $5, $6)
	`, record.ID, record.Description, record.AssignedMechanicID, record.VehicleID, record.StartDate, record.EndDate)
	if err != nil {
		return fmt.Errorf("failed to insert repair order: %w", err)
	}
	return nil
}

func inLocation(t *time.Time, loc *time.Location) *time.Time {
	if t == nil {
		return nil
	}
	local := t.In(loc)
	return &local
}
