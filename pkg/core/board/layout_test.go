package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typeWolffo/zpi-wsiz/pkg/core/model"
)

func TestDeltaMinutes(t *testing.T) {
	assert.Equal(t, 1.0, PixelsPerMinute(660))
	assert.Equal(t, 15, DeltaMinutes(30, 1320))
	assert.Equal(t, -90, DeltaMinutes(-90, 660))
	assert.Equal(t, 0, DeltaMinutes(100, 0))
}

func TestResizeDeltaMinutes(t *testing.T) {
	assert.Equal(t, 15, ResizeDeltaMinutes(10, 660))
	assert.Equal(t, 0, ResizeDeltaMinutes(7, 660))
	assert.Equal(t, 60, ResizeDeltaMinutes(120, 1320))
	assert.Equal(t, 0, ResizeDeltaMinutes(120, 0))
}

func TestResizePreviewWidth(t *testing.T) {
	assert.Equal(t, 75.0, ResizePreviewWidth(60, 20, 660))
	assert.Equal(t, float64(MinPreviewWidth), ResizePreviewWidth(60, -200, 660))
	// unknown row width previews the raw travel
	assert.Equal(t, 83.0, ResizePreviewWidth(60, 23, 0))
}

func TestBlockStyleOf(t *testing.T) {
	style := BlockStyleOf(model.Appointment{Start: model.TimeOfDay{Hour: 12, Minute: 30}, Duration: 66})
	assert.InDelta(t, 50.0, style.LeftPercent, 1e-9)
	assert.InDelta(t, 10.0, style.WidthPercent, 1e-9)
}

func TestCells(t *testing.T) {
	from, to, ok := Cells(model.Appointment{Start: model.TimeOfDay{Hour: 9, Minute: 10}, Duration: 40}, 15)
	require.True(t, ok)
	assert.Equal(t, 8, from)
	assert.Equal(t, 12, to)

	// clipped to the window
	from, to, ok = Cells(model.Appointment{Start: model.TimeOfDay{Hour: 17, Minute: 0}, Duration: 240}, 15)
	require.True(t, ok)
	assert.Equal(t, 40, from)
	assert.Equal(t, 44, to)

	_, _, ok = Cells(model.Appointment{Start: model.TimeOfDay{Hour: 19, Minute: 0}, Duration: 60}, 15)
	assert.False(t, ok)
}

func TestTimeSlots(t *testing.T) {
	slots := TimeSlots()

	require.Len(t, slots, 45)
	assert.Equal(t, TimeSlot{Time: model.TimeOfDay{Hour: 7}, Label: "7 AM", IsHour: true}, slots[0])
	assert.Equal(t, TimeSlot{Time: model.TimeOfDay{Hour: 7, Minute: 15}}, slots[1])
	assert.Equal(t, "6 PM", slots[len(slots)-1].Label)

	hours := 0
	for _, s := range slots {
		if s.IsHour {
			hours++
		}
	}
	assert.Equal(t, 12, hours)
}

func TestHourLabel(t *testing.T) {
	assert.Equal(t, "7 AM", HourLabel(7))
	assert.Equal(t, "11 AM", HourLabel(11))
	assert.Equal(t, "12 PM", HourLabel(12))
	assert.Equal(t, "12 AM", HourLabel(0))
	assert.Equal(t, "6 PM", HourLabel(18))
}

func TestDropTargetFromRow(t *testing.T) {
	id := "9b2f0c1e-7a44-4c1b-9d55-2f6c3b1a8e90"

	drop, ok := DropTargetFromRow(RowID(id), 800)
	require.True(t, ok)
	assert.Equal(t, &DropTarget{MechanicID: id, Width: 800}, drop)

	_, ok = DropTargetFromRow("calendar", 800)
	assert.False(t, ok)
	_, ok = DropTargetFromRow("mechanic-", 800)
	assert.False(t, ok)
}
