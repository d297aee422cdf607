package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/typeWolffo/zpi-wsiz/pkg/core/services"
	"github.com/typeWolffo/zpi-wsiz/pkg/db"
)

// MigrateCmd creates the migrate command
func MigrateCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations to the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			migrator, ok := app.Database.(db.Migrator)
			if !ok {
				return fmt.Errorf("backend %q does not own a schema", app.Cfg.Backend)
			}
			if err := migrator.RunMigrations(app.Ctx); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "%s schema is up to date\n", color.New(color.FgGreen).Sprint("✓"))
			return nil
		},
	}
}

// SeedCmd creates the seed command
func SeedCmd(app *AppContext) *cobra.Command {
	var day string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert sample mechanics and repair orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, ok := app.Database.(services.SeedStore)
			if !ok {
				return fmt.Errorf("backend %q cannot be seeded", app.Cfg.Backend)
			}
			if migrator, ok := app.Database.(db.Migrator); ok {
				if err := migrator.RunMigrations(app.Ctx); err != nil {
					return err
				}
			}

			d, err := app.day(day)
			if err != nil {
				return err
			}
			result, err := services.SeedSampleData(app.Ctx, store, app.Logger, d)
			if err != nil {
				return err
			}

			fmt.Fprintf(app.Out, "%s seeded %d mechanics and %d repair orders on %s\n",
				color.New(color.FgGreen).Sprint("✓"),
				len(result.Mechanics), len(result.Orders), d.Format("2006-01-02"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&day, "day", "d", "", "Day the sample orders are placed on (YYYY-MM-DD, defaults to the next working day)")

	return cmd
}
