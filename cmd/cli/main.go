package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/typeWolffo/zpi-wsiz/cmd/cli/commands"
	"github.com/typeWolffo/zpi-wsiz/internal/config"
	"github.com/typeWolffo/zpi-wsiz/pkg/clients/apiclient"
	"github.com/typeWolffo/zpi-wsiz/pkg/clients/eventbus"
	"github.com/typeWolffo/zpi-wsiz/pkg/core/schedule"
	"github.com/typeWolffo/zpi-wsiz/pkg/db"
	"github.com/typeWolffo/zpi-wsiz/pkg/postgres"
	"github.com/typeWolffo/zpi-wsiz/pkg/sqlite"
	"github.com/typeWolffo/zpi-wsiz/pkg/utils/logging"
)

var (
	env     string
	verbose bool
	app     = &commands.AppContext{Out: os.Stdout, Now: time.Now}
	events  *eventbus.Publisher
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	app.Ctx = ctx

	rootCmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Workshop scheduler - plan repair orders on the mechanic board",
		Long:  `A CLI tool for viewing and editing the daily mechanic board: reassign and resize appointments, distribute unassigned orders and publish a day to a sheet.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			closeApp()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (selects scheduler_config.<env>.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to the console")

	rootCmd.AddCommand(commands.BoardCmd(app))
	rootCmd.AddCommand(commands.MoveCmd(app))
	rootCmd.AddCommand(commands.ResizeCmd(app))
	rootCmd.AddCommand(commands.AddCmd(app))
	rootCmd.AddCommand(commands.DistributeCmd(app))
	rootCmd.AddCommand(commands.PublishCmd(app))
	rootCmd.AddCommand(commands.MigrateCmd(app))
	rootCmd.AddCommand(commands.SeedCmd(app))
	rootCmd.AddCommand(commands.ServeCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		closeApp()
		os.Exit(1)
	}
}

// initApp sets up logger, config, store, projector and event publisher
func initApp() error {
	var err error
	app.Env = env

	// Initialize logger
	app.Logger, err = logging.InitLogger(env, verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))

	// Load configuration
	app.Logger.Info("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Location, err = app.Cfg.Location()
	if err != nil {
		return err
	}
	app.Logger.Debug("Configuration loaded successfully",
		zap.String("backend", app.Cfg.Backend),
		zap.String("timezone", app.Location.String()))

	// Connect to the store
	app.Logger.Info("Connecting to store", zap.String("backend", app.Cfg.Backend))
	app.Database, err = openStore(app.Ctx, app.Cfg, app.Location, app.Logger)
	if err != nil {
		return err
	}

	// Projector, optionally cached
	var projector schedule.SchedulerProjector = schedule.NewProjector(app.Logger, schedule.PaletteByID(app.Cfg.Palette))
	if size := app.Cfg.CacheSize(); size > 0 {
		projector, err = schedule.NewCachedProjector(projector, size, app.Logger)
		if err != nil {
			return fmt.Errorf("failed to create projection cache: %w", err)
		}
		app.Logger.Debug("Projection cache enabled", zap.Int("size", size))
	}
	app.Projector = projector

	// Board events
	if app.Cfg.Events.Enabled {
		app.Logger.Info("Connecting to event broker", zap.String("exchange", app.Cfg.Events.Exchange))
		events, err = eventbus.Dial(app.Cfg.Events.URL, app.Cfg.Events.Exchange, app.Logger)
		if err != nil {
			return err
		}
		app.Notifier = events
	}

	app.Logger.Info("Application initialized successfully")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, loc *time.Location, logger *zap.Logger) (db.Database, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		store, err := postgres.NewDB(ctx, cfg.DatabaseURL, loc, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return store, nil
	case config.BackendSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath, loc, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		return store, nil
	case config.BackendAPI:
		store, err := apiclient.NewClient(ctx, apiclient.Options{
			BaseURL:  cfg.APIBaseURL,
			Token:    cfg.APIToken,
			Location: loc,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create API client: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// closeApp releases the store and event connection and flushes the logger
func closeApp() {
	if events != nil {
		if err := events.Close(); err != nil && app.Logger != nil {
			app.Logger.Warn("Failed to close event publisher", zap.Error(err))
		}
		events = nil
	}
	if app.Database != nil {
		if err := app.Database.Close(); err != nil && app.Logger != nil {
			app.Logger.Warn("Failed to close store", zap.Error(err))
		}
		app.Database = nil
	}
	if app.Logger != nil {
		app.Logger.Sync()
	}
}
