package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/typeWolffo/zpi-wsiz/pkg/core/services"
)

// DistributeCmd creates the distribute command
func DistributeCmd(app *AppContext) *cobra.Command {
	var day string
	var apply bool

	cmd := &cobra.Command{
		Use:   "distribute",
		Short: "Assign unassigned orders to the least busy mechanics",
		Long: `Distribute assigns every order without a mechanic to the mechanic holding the
fewest appointments and packs undated orders into the first free gap from 8:00.
Without --apply the placements are only shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := app.day(day)
			if err != nil {
				return err
			}

			result, err := services.DistributeUnassigned(app.Ctx, app.Database, app.Projector, app.Logger, d, apply)
			if err != nil {
				return err
			}

			RenderBoard(app.Out, result.Day, result.Mechanics, result.Appointments)
			fmt.Fprintln(app.Out)
			if len(result.Assignments) == 0 && len(result.Unplaced) == 0 {
				fmt.Fprintln(app.Out, "Nothing to distribute - every order has a mechanic and dates.")
				return nil
			}

			for _, a := range result.Assignments {
				fmt.Fprintf(app.Out, "  %s -> %s at %s for %dm\n", a.OrderID, a.MechanicID, a.Start, a.Duration)
			}
			for _, id := range result.Unplaced {
				fmt.Fprintf(app.Out, "  %s %s left unassigned, no mechanics\n", color.New(color.FgYellow).Sprint("!"), id)
			}

			if result.Applied {
				fmt.Fprintf(app.Out, "\n%s saved %d placement(s)\n", color.New(color.FgGreen).Sprint("✓"), len(result.Assignments))
			} else {
				fmt.Fprintln(app.Out, "\nDry run - re-run with --apply to save these placements.")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&day, "day", "d", "", "Day to distribute (YYYY-MM-DD, defaults to the next working day)")
	cmd.Flags().BoolVar(&apply, "apply", false, "Save the placements")

	return cmd
}
