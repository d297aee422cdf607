package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/typeWolffo/zpi-wsiz/pkg/core/model"
	"github.com/typeWolffo/zpi-wsiz/pkg/utils/timeparse"
)

// ListMechanics retrieves all mechanics in board row order
func (d *DB) ListMechanics(ctx context.Context) ([]model.Mechanic, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, first_name, last_name, shift_start, shift_end
		FROM mechanics
		ORDER BY last_name, first_name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query mechanics: %w", err)
	}
	defer rows.Close()

	var mechanics []model.Mechanic
	for rows.Next() {
		var m model.Mechanic
		var shiftStart, shiftEnd string
		if err := rows.Scan(&m.ID, &m.FirstName, &m.LastName, &shiftStart, &shiftEnd); err != nil {
			return nil, fmt.Errorf("failed to scan mechanic: %w", err)
		}
		if m.ShiftStart, err = timeparse.TimeOfDay(shiftStart); err != nil {
			return nil, fmt.Errorf("failed to parse shift start of mechanic %s: %w", m.ID, err)
		}
		if m.ShiftEnd, err = timeparse.TimeOfDay(shiftEnd); err != nil {
			return nil, fmt.Errorf("failed to parse shift end of mechanic %s: %w", m.ID, err)
		}
		mechanics = append(mechanics, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mechanics: %w", err)
	}

	return mechanics, nil
}

// CreateMechanic inserts a mechanic. An empty id is filled with a new UUID.
func (d *DB) CreateMechanic(ctx context.Context, mechanic model.Mechanic) error {
	if mechanic.ID == "" {
		mechanic.ID = uuid.New().String()
	}
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO mechanics (id, first_name, last_name, shift_start, shift_end)
		VALUES (?, ?, ?, ?, ?)
	`, mechanic.ID, mechanic.FirstName, mechanic.LastName,
		timeparse.FormatTimeOfDay(mechanic.ShiftStart), timeparse.FormatTimeOfDay(mechanic.ShiftEnd))
	if err != nil {
		return fmt.Errorf("failed to insert mechanic: %w", err)
	}
	return nil
}
