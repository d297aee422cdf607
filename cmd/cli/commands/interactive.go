package commands

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/typeWolffo/zpi-wsiz/pkg/core/board"
	"github.com/typeWolffo/zpi-wsiz/pkg/core/services"
	"github.com/typeWolffo/zpi-wsiz/pkg/utils/timeparse"
)

var sessionHelp = []struct{ use, short string }{
	{"show", "Draw the board"},
	{"day <YYYY-MM-DD>", "Switch to another day"},
	{"reload", "Fetch orders again"},
	{"move <id> <mechanic_id> <HH:MM>", "Reassign an appointment"},
	{"resize <id> <minutes>", "Change an appointment's duration"},
	{"add <minutes> <description>", "Add an order in the first free slot"},
	{"overlaps", "List overlapping appointments"},
	{"help", "Show this help message"},
	{"exit, quit", "Exit the interactive session"},
}

// InteractiveCmd creates the interactive command
func InteractiveCmd(app *AppContext) *cobra.Command {
	var day string

	cmd := &cobra.Command{
		Use:   "interactive",
		Short: "Start an interactive board session (load once, run multiple edits)",
		Long: `Start an interactive session on one board. Every edit is applied at once and
saved in the background; a failed save is rolled back and reported.

Type 'help' to see available commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, console, err := openBoard(app, day, false)
			if err != nil {
				return err
			}
			defer b.Close()

			fmt.Fprintf(app.Out, "\nBoard session for %s\n", b.Day().Format("Monday, 02 Jan 2006"))
			fmt.Fprintln(app.Out, "Type 'help' for available commands, 'exit' or 'quit' to leave")

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(app.Out, "> ")
				if !scanner.Scan() {
					break
				}

				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}

				parts := strings.Fields(line)
				name, rest := parts[0], parts[1:]
				if name == "exit" || name == "quit" {
					fmt.Fprintln(app.Out, "Goodbye!")
					break
				}

				if err := runSessionCommand(app, b, name, rest); err != nil {
					fmt.Fprintf(app.Out, "%s Error: %v\n\n", color.New(color.FgRed).Sprint("✗"), err)
				}
				b.Wait()
				console.flush()
			}

			if err := scanner.Err(); err != nil {
				return fmt.Errorf("error reading input: %w", err)
			}
			return settle(b, console)
		},
	}

	cmd.Flags().StringVarP(&day, "day", "d", "", "Day to open (YYYY-MM-DD, defaults to the next working day)")

	return cmd
}

func runSessionCommand(app *AppContext, b *board.Board, name string, args []string) error {
	switch name {
	case "help":
		printSessionHelp(app.Out)
	case "show":
		RenderBoard(app.Out, b.Day(), b.Mechanics(), b.Appointments())
	case "day":
		if len(args) != 1 {
			return fmt.Errorf("usage: day <YYYY-MM-DD>")
		}
		d, err := timeparse.Day(args[0], app.Location)
		if err != nil {
			return err
		}
		b.SetDay(d)
		fmt.Fprintf(app.Out, "Switched to %s\n", d.Format("Monday, 02 Jan 2006"))
	case "reload":
		data, err := services.LoadBoardData(app.Ctx, app.Database, app.Logger)
		if err != nil {
			return err
		}
		b.Reload(data.Orders)
		fmt.Fprintf(app.Out, "Reloaded %d orders\n", len(data.Orders))
	case "move":
		if len(args) != 3 {
			return fmt.Errorf("usage: move <id> <mechanic_id> <HH:MM>")
		}
		start, err := timeparse.TimeOfDay(args[2])
		if err != nil {
			return err
		}
		result, err := services.MoveAppointment(b, args[0], args[1], start)
		if err != nil {
			return err
		}
		renderResult(app.Out, "moved", result)
	case "resize":
		if len(args) != 2 {
			return fmt.Errorf("usage: resize <id> <minutes>")
		}
		minutes, err := strconv.Atoi(args[1])
		if err != nil || minutes <= 0 {
			return fmt.Errorf("minutes must be a positive integer, got: %s", args[1])
		}
		result, err := services.ResizeAppointment(b, args[0], minutes)
		if err != nil {
			return err
		}
		renderResult(app.Out, "resized", result)
	case "add":
		if len(args) < 2 {
			return fmt.Errorf("usage: add <minutes> <description>")
		}
		minutes, err := strconv.Atoi(args[0])
		if err != nil || minutes <= 0 {
			return fmt.Errorf("minutes must be a positive integer, got: %s", args[0])
		}
		appointment, err := services.AddAppointment(b, services.NewOrder{
			Description: strings.Join(args[1:], " "),
			Duration:    minutes,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(app.Out, "%s added %s for %s at %s\n",
			color.New(color.FgGreen).Sprint("✓"), appointment.ID, appointment.MechanicID, appointment.Start)
	case "overlaps":
		pairs := b.CheckInvariant()
		if len(pairs) == 0 {
			fmt.Fprintln(app.Out, "No overlapping appointments")
		}
		for _, p := range pairs {
			fmt.Fprintf(app.Out, "  %s: %s and %s\n", p.MechanicID, p.FirstID, p.SecondID)
		}
	default:
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", name)
	}
	return nil
}

func printSessionHelp(w io.Writer) {
	fmt.Fprintln(w, "\nAvailable commands:")
	for _, c := range sessionHelp {
		fmt.Fprintf(w, "  %-34s %s\n", c.use, c.short)
	}
	fmt.Fprintln(w)
}
