package board

import (
	"fmt"
	"strings"

	"github.com/typeWolffo/zpi-wsiz/pkg/core/model"
	"github.com/typeWolffo/zpi-wsiz/pkg/core/schedule"
)

// MinPreviewWidth is the narrowest a resize preview is drawn, in pixels
const MinPreviewWidth = 30

const rowIDPrefix = "mechanic-"

// DropTarget is the mechanic row under the pointer when a drag ends
type DropTarget struct {
	MechanicID string
	// Width is the rendered width of the row in pixels
	Width float64
}

// RowID returns the drop target id of a mechanic row
func RowID(mechanicID string) string {
	return rowIDPrefix + mechanicID
}

// DropTargetFromRow resolves a row id produced by RowID. Mechanic ids may
// themselves contain dashes.
func DropTargetFromRow(rowID string, width float64) (*DropTarget, bool) {
	mechanicID, ok := strings.CutPrefix(rowID, rowIDPrefix)
	if !ok || mechanicID == "" {
		return nil, false
	}
	return &DropTarget{MechanicID: mechanicID, Width: width}, true
}

// PixelsPerMinute is the horizontal scale of a row of the given width
func PixelsPerMinute(width float64) float64 {
	return width / model.WindowMinutes
}

// DeltaMinutes converts a pointer travel of dx pixels in a row of the given
// width to whole minutes
func DeltaMinutes(dx, width float64) int {
	if width <= 0 {
		return 0
	}
	return schedule.RoundHalfUp(dx / PixelsPerMinute(width))
}

// ResizeDeltaMinutes converts resize travel to minutes snapped to 15
func ResizeDeltaMinutes(dx, width float64) int {
	if width <= 0 {
		return 0
	}
	return schedule.SnapMinutes(schedule.RoundHalfUp(dx / width * model.WindowMinutes))
}

// ResizePreviewWidth is the transient width of a block being resized. The
// travel is snapped to 15 minutes when the row width is known.
func ResizePreviewWidth(initialWidth, dx, containerWidth float64) float64 {
	width := initialWidth + dx
	if containerWidth > 0 {
		width = initialWidth + float64(ResizeDeltaMinutes(dx, containerWidth))*PixelsPerMinute(containerWidth)
	}
	return max(MinPreviewWidth, width)
}

// BlockStyle positions an appointment inside its row, in percent of the row width
type BlockStyle struct {
	LeftPercent  float64
	WidthPercent float64
}

func BlockStyleOf(a model.Appointment) BlockStyle {
	return BlockStyle{
		LeftPercent:  float64(schedule.ToDayMinutes(a.Start)) / model.WindowMinutes * 100,
		WidthPercent: float64(a.Duration) / model.WindowMinutes * 100,
	}
}

// Cells returns the half-open range of grid cells covered by a, with cells of
// cellMinutes each, clipped to the working window. ok is false when a lies
// entirely outside it.
func Cells(a model.Appointment, cellMinutes int) (from, to int, ok bool) {
	start, end := schedule.Bounds(a)
	start = schedule.Clamp(start, 0, model.WindowMinutes)
	end = schedule.Clamp(end, 0, model.WindowMinutes)
	if end <= start {
		return 0, 0, false
	}
	from = start / cellMinutes
	to = (end + cellMinutes - 1) / cellMinutes
	return from, to, true
}

// TimeSlot is one tick of the time axis
type TimeSlot struct {
	Time   model.TimeOfDay
	Label  string
	IsHour bool
}

// TimeSlots returns the axis ticks from 7 AM to 6 PM: every hour is labelled
// and quarter hours in between are unlabelled ticks
func TimeSlots() []TimeSlot {
	var slots []TimeSlot
	for hour := model.DayStartHour; hour <= model.DayEndHour; hour++ {
		slots = append(slots, TimeSlot{Time: model.TimeOfDay{Hour: hour}, Label: HourLabel(hour), IsHour: true})
		if hour == model.DayEndHour {
			break
		}
		for minute := model.SnapMinutes; minute < 60; minute += model.SnapMinutes {
			slots = append(slots, TimeSlot{Time: model.TimeOfDay{Hour: hour, Minute: minute}})
		}
	}
	return slots
}

// HourLabel formats an hour as "7 AM", "12 PM", "6 PM"
func HourLabel(hour int) string {
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d %s", h, suffix)
}
