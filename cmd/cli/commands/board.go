package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// BoardCmd creates the board command
func BoardCmd(app *AppContext) *cobra.Command {
	var day string
	var checkOverlaps bool

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show the mechanic board for a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, _, err := openBoard(app, day, true)
			if err != nil {
				return err
			}
			defer b.Close()

			RenderBoard(app.Out, b.Day(), b.Mechanics(), b.Appointments())

			if !checkOverlaps {
				return nil
			}
			pairs := b.CheckInvariant()
			app.Logger.Debug("Checked board for overlaps", zap.Int("pairs", len(pairs)))
			if len(pairs) == 0 {
				fmt.Fprintf(app.Out, "\n%s no overlapping appointments\n", color.New(color.FgGreen).Sprint("✓"))
				return nil
			}
			fmt.Fprintf(app.Out, "\n%s %d overlapping pair(s):\n", color.New(color.FgRed).Sprint("✗"), len(pairs))
			for _, p := range pairs {
				fmt.Fprintf(app.Out, "  %s: %s and %s\n", p.MechanicID, p.FirstID, p.SecondID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&day, "day", "d", "", "Day to show (YYYY-MM-DD, defaults to the next working day)")
	cmd.Flags().BoolVar(&checkOverlaps, "overlaps", false, "List appointments of the same mechanic that overlap")

	return cmd
}
