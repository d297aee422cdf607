package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/typeWolffo/zpi-wsiz/pkg/core/model"
	"github.com/typeWolffo/zpi-wsiz/pkg/db"
	"github.com/typeWolffo/zpi-wsiz/pkg/utils/timeparse"
)

// ListRepairOrders retrieves all repair orders joined with their vehicle and customer
func (d *DB) ListRepairOrders(ctx context.Context) ([]model.RepairOrderRecord, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT ro.id, ro.description, ro.assigned_mechanic_id, ro.vehicle_id,
		       ro.start_time, ro.end_time,
		       COALESCE(v.make, ''), COALESCE(v.model, ''), COALESCE(v.year, ''),
		       COALESCE(v.vin, ''), COALESCE(v.registration_number, ''),
		       COALESCE(lower(c.first_name), ''), COALESCE(lower(c.last_name), ''),
		       COALESCE(lower(c.email), ''), COALESCE(c.phone_number, '')
		FROM repair_orders ro
		LEFT JOIN vehicles v ON ro.vehicle_id = v.id
		LEFT JOIN customers c ON v.customer_id = c.id
		ORDER BY ro.seq, ro.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query repair orders: %w", err)
	}
	defer rows.Close()

	var orders []model.RepairOrderRecord
	for rows.Next() {
		var r model.RepairOrderRecord
		var mechanicID, vehicleID, start, end sql.NullString
		if err := rows.Scan(
			&r.ID, &r.Description, &mechanicID, &vehicleID,
			&start, &end,
			&r.Make, &r.Model, &r.Year, &r.VIN, &r.RegistrationNumber,
			&r.CustomerFirstName, &r.CustomerLastName, &r.CustomerEmail, &r.CustomerPhoneNumber,
		); err != nil {
			return nil, fmt.Errorf("failed to scan repair order: %w", err)
		}
		if mechanicID.Valid {
			r.AssignedMechanicID = &mechanicID.String
		}
		if vehicleID.Valid {
			r.VehicleID = &vehicleID.String
		}
		if r.StartDate, err = d.readTimestamp(start); err != nil {
			return nil, fmt.Errorf("failed to parse start of repair order %s: %w", r.ID, err)
		}
		if r.EndDate, err = d.readTimestamp(end); err != nil {
			return nil, fmt.Errorf("failed to parse end of repair order %s: %w", r.ID, err)
		}
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

	result, err := d.db.ExecContext(ctx, `
		UPDATE repair_orders
		SET assigned_mechanic_id = COALESCE(?, assigned_mechanic_id),
		    start_time = COALESCE(?, start_time),
		    end_time = COALESCE(?, end_time),
		    updated_at = ?
		WHERE id = ?
	`, nullString(resolved.AssignedMechanicID), formatTimestamp(resolved.StartDate), formatTimestamp(resolved.EndDate),
		time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to update repair order %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
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
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO repair_orders (id, description, assigned_mechanic_id, vehicle_id, start_time, end_time, seq)
		VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM repair_orders))
	`, record.ID, record.Description, nullString(record.AssignedMechanicID), nullString(record.VehicleID),
		formatTimestamp(record.StartDate), formatTimestamp(record.EndDate))
	if err != nil {
		return fmt.Errorf("failed to insert repair order: %w", err)
	}
	return nil
}

func (d *DB) readTimestamp(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := timeparse.OptionalTimestamp(s.String, d.loc)
	if err != nil || t == nil {
		return t, err
	}
	local := t.In(d.loc)
	return &local, nil
}
