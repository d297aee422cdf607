package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/typeWolffo/zpi-wsiz/pkg/core/board"
	"github.com/typeWolffo/zpi-wsiz/pkg/core/model"
	"github.com/typeWolffo/zpi-wsiz/pkg/core/schedule"
	"github.com/typeWolffo/zpi-wsiz/pkg/db"
)

// BoardStore defines the store operations needed by an interactive board
type BoardStore interface {
	db.Fetcher
	db.OrderUpdater
	db.OrderCreator
}

// BoardData is everything a board is projected from
type BoardData struct {
	Mechanics []model.Mechanic
	Orders    []model.RepairOrderRecord
}

// LoadBoardData fetches mechanics and repair orders concurrently. Invalid
// orders are repaired or skipped with a warning rather than failing the load.
func LoadBoardData(ctx context.Context, store db.Fetcher, logger *zap.Logger) (*BoardData, error) {
	logger.Debug("Loading board data")

	var data BoardData
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		mechanics, err := store.ListMechanics(gctx)
		if err != nil {
			return fmt.Errorf("failed to fetch mechanics: %w", err)
		}
		data.Mechanics = mechanics
		return nil
	})
	g.Go(func() error {
		orders, err := store.ListRepairOrders(gctx)
		if err != nil {
			return fmt.Errorf("failed to fetch repair orders: %w", err)
		}
		data.Orders = orders
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	data.Orders = db.SanitizeRepairOrders(data.Orders, logger)

	logger.Debug("Loaded board data",
		zap.Int("mechanics", len(data.Mechanics)),
		zap.Int("orders", len(data.Orders)))

	return &data, nil
}

// BoardOptions configures OpenBoard
type BoardOptions struct {
	Day       time.Time
	Projector schedule.SchedulerProjector
	Notifier  board.Notifier
	// ReadOnly keeps every change on the board without persisting it
	ReadOnly bool
}

// OpenBoard loads the store and builds a board for opts.Day. Mutations are
// persisted to store unless opts.ReadOnly is set. The board lives until ctx is
// cancelled or it is closed.
func OpenBoard(ctx context.Context, store BoardStore, logger *zap.Logger, opts BoardOptions) (*board.Board, error) {
	data, err := LoadBoardData(ctx, store, logger)
	if err != nil {
		return nil, err
	}

	cfg := board.Config{
		Projector: opts.Projector,
		Notifier:  opts.Notifier,
		Logger:    logger,
		Mechanics: data.Mechanics,
		Day:       opts.Day,
	}
	if !opts.ReadOnly {
		cfg.Updater = store
		cfg.Creator = store
	}

	b := board.New(ctx, cfg, data.Orders)
	logger.Info("Opened board",
		zap.String("day", b.Day().Format("2006-01-02")),
		zap.Int("appointments", len(b.Appointments())),
		zap.Bool("read_only", opts.ReadOnly))

	return b, nil
}
