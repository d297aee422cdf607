package db

import (
	"context"

	"github.com/typeWolffo/zpi-wsiz/pkg/core/model"
)

// Fetcher reads the records a board is projected from
type Fetcher interface {
	ListMechanics(ctx context.Context) ([]model.Mechanic, error)
	ListRepairOrders(ctx context.Context) ([]model.RepairOrderRecord, error)
}

// OrderUpdater applies the partial updates sent by reassign and resize
type OrderUpdater interface {
	UpdateRepairOrder(ctx context.Context, id string, update model.OrderUpdate) error
}

// OrderCreator inserts new repair orders
type OrderCreator interface {
	CreateRepairOrder(ctx context.Context, record model.RepairOrderRecord) error
}

// Database defines the interface for all store operations.
// postgres.DB, sqlite.DB and apiclient.Client implement this interface.
type Database interface {
	Fetcher
	OrderUpdater
	OrderCreator
	Close() error
}

// Migrator is implemented by stores that own their schema
type Migrator interface {
	RunMigrations(ctx context.Context) error
}

// MechanicCreator inserts mechanics, used when seeding a local store
type MechanicCreator interface {
	CreateMechanic(ctx context.Context, mechanic model.Mechanic) error
}
