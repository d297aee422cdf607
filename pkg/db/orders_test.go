package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/typeWolffo/zpi-wsiz/pkg/core/model"
)

func strPtr(s string) *string { return &s }

func TestResolveUpdate(t *testing.T) {
	update := model.OrderUpdate{
		AssignedMechanicID: strPtr("m1"),
		StartDate:          strPtr("2024-03-15 09:00:00"),
		EndDate:            strPtr("2024-03-15 10:30:00"),
	}

	got, err := ResolveUpdate(update, time.UTC)
	require.NoError(t, err)

	assert.Equal(t, "m1", *got.AssignedMechanicID)
	assert.Equal(t, time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC), *got.StartDate)
	assert.Equal(t, time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC), *got.EndDate)
}

func TestResolveUpdate_EndOnly(t *testing.T) {
	got, err := ResolveUpdate(model.OrderUpdate{EndDate: strPtr("2024-03-15 10:30:00")}, time.UTC)
	require.NoError(t, err)

	assert.Nil(t, got.AssignedMechanicID)
	assert.Nil(t, got.StartDate)
	require.NotNil(t, got.EndDate)
}

func TestResolveUpdate_Errors(t *testing.T) {
	_, err := ResolveUpdate(model.OrderUpdate{}, time.UTC)
	assert.ErrorIs(t, err, ErrEmptyUpdate)

	_, err = ResolveUpdate(model.OrderUpdate{EndDate: strPtr("half past ten")}, time.UTC)
	assert.ErrorContains(t, err, "failed to parse end date")
}

func TestSanitizeRepairOrders(t *testing.T) {
	start := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	core, logs := observer.New(zapcore.WarnLevel)

	records := []model.RepairOrderRecord{
		{ID: "o1", CustomerEmail: "jan@example.com", StartDate: &start, EndDate: &start},
		{ID: ""},
		{ID: "o3", Description: "Brakes", CustomerEmail: "not-an-email"},
		{ID: "o4", StartDate: &start},
		{ID: "o5", EndDate: &start},
	}

	got := SanitizeRepairOrders(records, zap.New(core))

	require.Len(t, got, 4)
	assert.Equal(t, records[0], got[0])

	assert.Equal(t, "o3", got[1].ID)
	assert.Empty(t, got[1].CustomerEmail)
	assert.Equal(t, "Brakes", got[1].Description)

	for _, r := range got[2:] {
		assert.False(t, r.HasDates(), r.ID)
		assert.Nil(t, r.StartDate, r.ID)
		assert.Nil(t, r.EndDate, r.ID)
	}

	assert.Equal(t, 1, logs.FilterMessage("Skipping repair order without id").Len())
	assert.Equal(t, 2, logs.FilterMessageSnippet("treating it as undated").Len())
	assert.Equal(t, 1, logs.FilterField(zap.String("field", "CustomerEmail")).Len())

	// the input slice is left untouched
	assert.Equal(t, "not-an-email", records[2].CustomerEmail)
	assert.NotNil(t, records[3].StartDate)
}
