package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/typeWolffo/zpi-wsiz/pkg/core/board"
	"github.com/typeWolffo/zpi-wsiz/pkg/core/model"
	"github.com/typeWolffo/zpi-wsiz/pkg/core/schedule"
)

const (
	cellMinutes  = model.SnapMinutes
	cellsPerHour = 60 / cellMinutes
	gridCells    = model.WindowMinutes / cellMinutes
	emptyCell    = "·"
	overlapCell  = "!"
	minNameWidth = 12
)

// terminalColors are the basic ANSI colours appointment colours are mapped onto
var terminalColors = []struct {
	attr    color.Attribute
	r, g, b int
}{
	{color.FgBlue, 59, 130, 246},
	{color.FgMagenta, 139, 92, 246},
	{color.FgRed, 239, 68, 68},
	{color.FgGreen, 16, 185, 129},
	{color.FgYellow, 245, 158, 11},
	{color.FgHiBlue, 99, 102, 241},
	{color.FgCyan, 6, 182, 212},
	{color.FgWhite, 229, 231, 235},
}

// colorFor maps a #rgb or #rrggbb colour to the nearest terminal colour
func colorFor(hex string) color.Attribute {
	r, g, b, ok := parseHex(hex)
	if !ok {
		return color.FgWhite
	}

	best := terminalColors[0].attr
	bestDist := -1
	for _, c := range terminalColors {
		dr, dg, db := r-c.r, g-c.g, b-c.b
		dist := dr*dr + dg*dg + db*db
		if bestDist < 0 || dist < bestDist {
			best, bestDist = c.attr, dist
		}
	}
	return best
}

func parseHex(hex string) (r, g, b int, ok bool) {
	s := strings.TrimPrefix(hex, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), true
}

// blockLabel is the letter drawn for the i-th appointment of a row
func blockLabel(i int) string {
	return string(rune('a' + i%26))
}

// RenderBoard draws one row per mechanic on a 15 minute grid from 7:00 to
// 18:00, followed by a legend of every appointment. Appointments without a
// known mechanic get their own row. Cells shared by two appointments are
// drawn as "!".
func RenderBoard(w io.Writer, day time.Time, mechanics []model.Mechanic, appointments []model.Appointment) {
	type row struct {
		label        string
		appointments []model.Appointment
	}

	known := make(map[string]bool, len(mechanics))
	rows := make([]row, 0, len(mechanics)+1)
	for _, m := range mechanics {
		known[m.ID] = true
		var own []model.Appointment
		for _, a := range appointments {
			if a.MechanicID == m.ID {
				own = append(own, a)
			}
		}
		rows = append(rows, row{label: m.FullName(), appointments: schedule.SortByStart(own)})
	}
	var unassigned []model.Appointment
	for _, a := range appointments {
		if !known[a.MechanicID] {
			unassigned = append(unassigned, a)
		}
	}
	if len(unassigned) > 0 {
		rows = append(rows, row{label: "Unassigned", appointments: schedule.SortByStart(unassigned)})
	}

	nameWidth := minNameWidth
	for _, r := range rows {
		nameWidth = max(nameWidth, len([]rune(r.label)))
	}
	nameWidth += 2

	bold := color.New(color.Bold)
	fmt.Fprintf(w, "\n%s\n\n", bold.Sprintf("Board for %s", day.Format("Monday, 02 Jan 2006")))

	// Time axis
	fmt.Fprintf(w, "%-*s", nameWidth, "")
	for hour := model.DayStartHour; hour < model.DayEndHour; hour++ {
		fmt.Fprintf(w, "%-*s", cellsPerHour, fmt.Sprintf("%02d", hour))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("-", nameWidth+gridCells))

	for _, r := range rows {
		cells := make([]string, gridCells)
		counts := make([]int, gridCells)
		for i, a := range r.appointments {
			from, to, ok := board.Cells(a, cellMinutes)
			if !ok {
				continue
			}
			label := color.New(colorFor(a.Color)).Sprint(blockLabel(i))
			for c := from; c < to && c < gridCells; c++ {
				counts[c]++
				cells[c] = label
			}
		}

		fmt.Fprintf(w, "%-*s", nameWidth, r.label)
		for c := range cells {
			switch {
			case counts[c] == 0:
				fmt.Fprint(w, emptyCell)
			case counts[c] > 1:
				fmt.Fprint(w, color.New(color.FgRed, color.Bold).Sprint(overlapCell))
			default:
				fmt.Fprint(w, cells[c])
			}
		}
		fmt.Fprintln(w)
	}

	// Legend
	fmt.Fprintln(w)
	for _, r := range rows {
		if len(r.appointments) == 0 {
			continue
		}
		fmt.Fprintln(w, bold.Sprint(r.label))
		for i, a := range r.appointments {
			end := schedule.FromDayMinutes(schedule.ToDayMinutes(a.Start) + a.Duration)
			fmt.Fprintf(w, "  %s  %s-%s %4dm  %s  %s  %s  [%s]\n",
				color.New(colorFor(a.Color)).Sprint(blockLabel(i)),
				a.Start, end, a.Duration,
				a.Car, a.RegistrationNumber, a.Description, a.ID)
		}
	}
}

// renderResult prints the outcome of a gesture replayed from the command line
func renderResult(w io.Writer, verb string, result board.Result) {
	a := result.Appointment
	switch result.Outcome {
	case board.NoChange:
		fmt.Fprintf(w, "%s %s: nothing to change\n", color.New(color.FgYellow).Sprint("!"), a.ID)
	case board.Colliding, board.Clamped:
		fmt.Fprintf(w, "%s %s %s to %s at %s for %dm (%s)\n",
			color.New(color.FgYellow).Sprint("✓"), verb, a.ID, a.MechanicID, a.Start, a.Duration, result.Outcome)
	default:
		fmt.Fprintf(w, "%s %s %s to %s at %s for %dm\n",
			color.New(color.FgGreen).Sprint("✓"), verb, a.ID, a.MechanicID, a.Start, a.Duration)
	}
}
