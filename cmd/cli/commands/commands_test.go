package commands

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/typeWolffo/zpi-wsiz/internal/config"
	"github.com/typeWolffo/zpi-wsiz/pkg/core/model"
)

func init() {
	color.NoColor = true
}

// mockDatabase implements db.Database, db.Migrator and db.MechanicCreator
type mockDatabase struct {
	mechanics []model.Mechanic
	orders    []model.RepairOrderRecord
	updateErr error

	mu               sync.Mutex
	updates          map[string]model.OrderUpdate
	created          []model.RepairOrderRecord
	createdMechanics []model.Mechanic
	migrated         bool
}

func (m *mockDatabase) ListMechanics(ctx context.Context) ([]model.Mechanic, error) {
	return m.mechanics, nil
}

func (m *mockDatabase) ListRepairOrders(ctx context.Context) ([]model.RepairOrderRecord, error) {
	return m.orders, nil
}

func (m *mockDatabase) UpdateRepairOrder(ctx context.Context, id string, update model.OrderUpdate) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updates == nil {
		m.updates = make(map[string]model.OrderUpdate)
	}
	m.updates[id] = update
	return nil
}

func (m *mockDatabase) CreateRepairOrder(ctx context.Context, record model.RepairOrderRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, record)
	return nil
}

func (m *mockDatabase) CreateMechanic(ctx context.Context, mechanic model.Mechanic) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createdMechanics = append(m.createdMechanics, mechanic)
	return nil
}

func (m *mockDatabase) RunMigrations(ctx context.Context) error {
	m.migrated = true
	return nil
}

func (m *mockDatabase) Close() error { return nil }

func strPtr(s string) *string { return &s }

func at(hour, minute int) *time.Time {
	t := time.Date(2024, 3, 15, hour, minute, 0, 0, time.UTC)
	return &t
}

func newTestDatabase() *mockDatabase {
	return &mockDatabase{
		mechanics: []model.Mechanic{
			{ID: "m1", FirstName: "Adam", LastName: "Nowak", ShiftStart: model.TimeOfDay{Hour: 7}, ShiftEnd: model.TimeOfDay{Hour: 15}},
			{ID: "m2", FirstName: "Ewa", LastName: "Kowalska", ShiftStart: model.TimeOfDay{Hour: 7}, ShiftEnd: model.TimeOfDay{Hour: 15}},
		},
		orders: []model.RepairOrderRecord{
			{ID: "o1", Description: "Oil change", Make: "Skoda", Model: "Octavia", Year: "2019", RegistrationNumber: "WA12345",
				AssignedMechanicID: strPtr("m1"), StartDate: at(8, 0), EndDate: at(9, 0)},
			{ID: "o2", Description: "Tyres", StartDate: at(12, 0), EndDate: at(12, 45)},
		},
	}
}

func newTestApp(database *mockDatabase) (*AppContext, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &AppContext{
		Cfg:      &config.Config{Backend: config.BackendSQLite, SQLitePath: "test.db"},
		Location: time.UTC,
		Database: database,
		Logger:   zap.NewNop(),
		Ctx:      context.Background(),
		Out:      out,
		Now:      func() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) },
	}, out
}

func TestBoardCmd(t *testing.T) {
	app, out := newTestApp(newTestDatabase())

	cmd := BoardCmd(app)
	cmd.SetArgs([]string{"--day", "2024-03-15", "--overlaps"})
	require.NoError(t, cmd.Execute())

	text := out.String()
	assert.Contains(t, text, "Board for Friday, 15 Mar 2024")
	assert.Contains(t, text, "Adam Nowak")
	assert.Contains(t, text, "Unassigned")
	assert.Contains(t, text, "08:00-09:00")
	assert.Contains(t, text, "[o1]")
	assert.Contains(t, text, "no overlapping appointments")
}

func TestMoveCmd(t *testing.T) {
	database := newTestDatabase()
	app, out := newTestApp(database)

	cmd := MoveCmd(app)
	cmd.SetArgs([]string{"o1", "m2", "10:00"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "moved o1 to m2 at 10:00 for 60m")
	assert.Contains(t, out.String(), "Appointment moved (o1)")
	assert.Equal(t, "m2", *database.updates["o1"].AssignedMechanicID)
}

func TestMoveCmd_DryRun(t *testing.T) {
	database := newTestDatabase()
	app, _ := newTestApp(database)

	cmd := MoveCmd(app)
	cmd.SetArgs([]string{"o1", "m2", "10:00", "--dry-run"})
	require.NoError(t, cmd.Execute())

	assert.Empty(t, database.updates)
}

func TestMoveCmd_RolledBack(t *testing.T) {
	database := newTestDatabase()
	database.updateErr = errors.New("service unavailable")
	app, out := newTestApp(database)

	cmd := MoveCmd(app)
	cmd.SetArgs([]string{"o1", "m2", "10:00"})
	err := cmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rolled back")
	assert.Contains(t, out.String(), "Failed to move appointment (o1): service unavailable")
}

func TestMoveCmd_InvalidTime(t *testing.T) {
	app, _ := newTestApp(newTestDatabase())

	cmd := MoveCmd(app)
	cmd.SetArgs([]string{"o1", "m2", "noon"})
	assert.Error(t, cmd.Execute())
}

func TestResizeCmd(t *testing.T) {
	database := newTestDatabase()
	app, out := newTestApp(database)

	cmd := ResizeCmd(app)
	cmd.SetArgs([]string{"o1", "100"})
	require.NoError(t, cmd.Execute())

	// 40 minutes of growth snaps to 45
	assert.Contains(t, out.String(), "resized o1 to m1 at 08:00 for 105m")
	assert.Equal(t, "2024-03-15 09:45:00", *database.updates["o1"].EndDate)

	cmd = ResizeCmd(app)
	cmd.SetArgs([]string{"o1", "-5"})
	assert.Error(t, cmd.Execute())
}

func TestAddCmd(t *testing.T) {
	database := newTestDatabase()
	app, out := newTestApp(database)

	cmd := AddCmd(app)
	cmd.SetArgs([]string{"Battery check", "--mechanic", "m1", "--duration", "30"})
	require.NoError(t, cmd.Execute())

	require.Len(t, database.created, 1)
	assert.Equal(t, "Battery check", database.created[0].Description)
	assert.Contains(t, out.String(), "for m1 at 07:00 for 30m")
}

func TestDistributeCmd(t *testing.T) {
	database := newTestDatabase()
	app, out := newTestApp(database)

	cmd := DistributeCmd(app)
	cmd.SetArgs([]string{"--day", "2024-03-15"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "o2 -> m2 at 12:00 for 45m")
	assert.Contains(t, out.String(), "Dry run")
	assert.Empty(t, database.updates)

	cmd = DistributeCmd(app)
	cmd.SetArgs([]string{"--day", "2024-03-15", "--apply"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "saved 1 placement(s)")
	assert.Equal(t, "m2", *database.updates["o2"].AssignedMechanicID)
}

func TestMigrateAndSeedCmd(t *testing.T) {
	database := &mockDatabase{}
	app, out := newTestApp(database)

	cmd := SeedCmd(app)
	cmd.SetArgs([]string{"--day", "2024-03-15"})
	require.NoError(t, cmd.Execute())

	assert.True(t, database.migrated)
	assert.Len(t, database.createdMechanics, 3)
	assert.Len(t, database.created, 7)
	assert.Contains(t, out.String(), "seeded 3 mechanics and 7 repair orders on 2024-03-15")

	cmd = MigrateCmd(app)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "schema is up to date")
}

func TestInteractiveCmd(t *testing.T) {
	database := newTestDatabase()
	app, out := newTestApp(database)

	script := strings.Join([]string{
		"help",
		"move o1 m2 13:00",
		"resize o1 30",
		"bogus",
		"overlaps",
		"day 2024-03-18",
		"show",
		"exit",
	}, "\n")

	cmd := InteractiveCmd(app)
	cmd.SetIn(strings.NewReader(script))
	cmd.SetArgs([]string{"--day", "2024-03-15"})
	require.NoError(t, cmd.Execute())

	text := out.String()
	assert.Contains(t, text, "Available commands:")
	assert.Contains(t, text, "moved o1 to m2 at 13:00 for 60m")
	assert.Contains(t, text, "resized o1 to m2 at 13:00 for 30m")
	assert.Contains(t, text, "unknown command: bogus")
	assert.Contains(t, text, "No overlapping appointments")
	assert.Contains(t, text, "Switched to Monday, 18 Mar 2024")
	assert.Contains(t, text, "Goodbye!")

	update := database.updates["o1"]
	assert.Equal(t, "2024-03-15 13:30:00", *update.EndDate)
}
