package commands

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/typeWolffo/zpi-wsiz/pkg/core/services"
	"github.com/typeWolffo/zpi-wsiz/pkg/utils/timeparse"
)

// MoveCmd creates the move command
func MoveCmd(app *AppContext) *cobra.Command {
	var day string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "move <appointment_id> <mechanic_id> <HH:MM>",
		Short: "Reassign an appointment to a mechanic and start time",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := timeparse.TimeOfDay(args[2])
			if err != nil {
				return err
			}

			b, console, err := openBoard(app, day, dryRun)
			if err != nil {
				return err
			}
			defer b.Close()

			result, err := services.MoveAppointment(b, args[0], args[1], start)
			if err != nil {
				return err
			}
			renderResult(app.Out, "moved", result)
			return settle(b, console)
		},
	}

	cmd.Flags().StringVarP(&day, "day", "d", "", "Day of the appointment (YYYY-MM-DD, defaults to the next working day)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the placement without saving it")

	return cmd
}

// ResizeCmd creates the resize command
func ResizeCmd(app *AppContext) *cobra.Command {
	var day string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "resize <appointment_id> <minutes>",
		Short: "Change the duration of an appointment",
		Long: `Change the duration of an appointment as dragging its right edge would.
The change in duration snaps to 15 minutes, so an appointment of 50 minutes
resized to 60 ends up 65 minutes long. A duration that would run into the next
appointment is cut at its start.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			minutes, err := strconv.Atoi(args[1])
			if err != nil || minutes <= 0 {
				return fmt.Errorf("minutes must be a positive integer, got: %s", args[1])
			}

			b, console, err := openBoard(app, day, dryRun)
			if err != nil {
				return err
			}
			defer b.Close()

			result, err := services.ResizeAppointment(b, args[0], minutes)
			if err != nil {
				return err
			}
			renderResult(app.Out, "resized", result)
			return settle(b, console)
		},
	}

	cmd.Flags().StringVarP(&day, "day", "d", "", "Day of the appointment (YYYY-MM-DD, defaults to the next working day)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the new duration without saving it")

	return cmd
}

// AddCmd creates the add command
func AddCmd(app *AppContext) *cobra.Command {
	var day, mechanicID, vehicleID string
	var duration int

	cmd := &cobra.Command{
		Use:   "add <description>",
		Short: "Add a repair order in the first free slot of the day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if duration < 0 {
				return fmt.Errorf("duration must not be negative, got: %d", duration)
			}

			b, console, err := openBoard(app, day, false)
			if err != nil {
				return err
			}
			defer b.Close()

			appointment, err := services.AddAppointment(b, services.NewOrder{
				Description: args[0],
				MechanicID:  mechanicID,
				VehicleID:   vehicleID,
				Duration:    duration,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(app.Out, "%s added %s for %s at %s for %dm\n",
				color.New(color.FgGreen).Sprint("✓"),
				appointment.ID, appointment.MechanicID, appointment.Start, appointment.Duration)
			return settle(b, console)
		},
	}

	cmd.Flags().StringVarP(&day, "day", "d", "", "Day to schedule on (YYYY-MM-DD, defaults to the next working day)")
	cmd.Flags().StringVarP(&mechanicID, "mechanic", "m", "", "Mechanic id (defaults to the least busy mechanic)")
	cmd.Flags().StringVar(&vehicleID, "vehicle", "", "Vehicle id")
	cmd.Flags().IntVar(&duration, "duration", 0, "Duration in minutes (defaults to 60)")

	return cmd
}
