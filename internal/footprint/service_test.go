package footprint

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func TestServiceCreate(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	fp, err := svc.Create(ctx, "usr_a", CreateInput{
		Category:    "transport",
		Amount:      100,
		Unit:        "km",
		Date:        mustDate(t, "2024-01-15"),
		Description: "Airport run",
		Meta:        map[string]string{"transport_type": "car_petrol"},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(fp.ID, "fp_"))
	assert.Equal(t, "usr_a", fp.UserID)
	assert.Equal(t, "transport", fp.Category)
	assert.InDelta(t, 19.2, fp.CO2Kg, 1e-9) // 100 km at 0.192 kg/km
	assert.Equal(t, "Airport run", fp.Meta["description"])
	assert.Equal(t, 100.0, fp.Meta["original_amount"])
	assert.Equal(t, "km", fp.Meta["original_unit"])
}

func TestServiceList_ScopedToUser(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	for _, user := range []string{"usr_a", "usr_a", "usr_b"} {
		_, err := svc.Create(ctx, user, CreateInput{
			Category: "energy", Amount: 10, Unit: "kwh", Date: mustDate(t, "2024-01-10"),
		})
		require.NoError(t, err)
	}

	footprints, total, err := svc.List(ctx, "usr_a", ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, footprints, 2)
	for _, fp := range footprints {
		assert.Equal(t, "usr_a", fp.UserID)
	}
}

func TestServiceList_NewestFirst(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	for _, date := range []string{"2024-01-05", "2024-03-01", "2024-02-10"} {
		_, err := svc.Create(ctx, "usr_a", CreateInput{
			Category: "food", Amount: 1, Unit: "kg", Date: mustDate(t, date),
		})
		require.NoError(t, err)
	}

	footprints, _, err := svc.List(ctx, "usr_a", ListFilter{})
	require.NoError(t, err)
	require.Len(t, footprints, 3)
	assert.Equal(t, mustDate(t, "2024-03-01"), footprints[0].Date)
	assert.Equal(t, mustDate(t, "2024-02-10"), footprints[1].Date)
	assert.Equal(t, mustDate(t, "2024-01-05"), footprints[2].Date)
}

func TestServiceSummary(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()
	now := time.Now()

	// two recent transport entries, one recent food entry, one stale entry
	entries := []struct {
		category string
		amount   float64
		unit     string
		date     time.Time
	}{
		{"transport", 100, "km", now.AddDate(0, 0, -1)}, // 19.2 kg
		{"transport", 50, "km", now.AddDate(0, 0, -2)},  // 9.6 kg
		{"food", 1, "kg", now.AddDate(0, 0, -3)},        // 4.0 kg generic
		{"food", 100, "kg", now.AddDate(0, 0, -200)},    // outside 30d
	}
	for _, e := range entries {
		_, err := svc.Create(ctx, "usr_a", CreateInput{
			Category: e.category, Amount: e.amount, Unit: e.unit, Date: e.date,
		})
		require.NoError(t, err)
	}

	result, err := svc.Summary(ctx, "usr_a", "30d")
	require.NoError(t, err)

	assert.Equal(t, "30d", result.Period)
	assert.Equal(t, 2, result.TotalCategories)
	require.Len(t, result.Summary, 2)

	// transport leads: 28.8 kg vs 4.0 kg
	assert.Equal(t, "transport", result.Summary[0].Category)
	assert.InDelta(t, 28.8, result.Summary[0].TotalCO2Kg, 1e-9)
	assert.Equal(t, 2, result.Summary[0].Count)
	assert.Equal(t, "food", result.Summary[1].Category)
	assert.InDelta(t, 32.8, result.TotalCO2Kg, 1e-9)

	// every bucket carries the window it was computed over
	for _, b := range result.Summary {
		assert.Equal(t, "30d", b.Period)
	}
}

func TestServiceSummary_InvalidPeriodDefaults(t *testing.T) {
	svc := NewService(NewMemoryStore())

	result, err := svc.Summary(context.Background(), "usr_a", "14d")
	require.NoError(t, err)
	assert.Equal(t, "30d", result.Period)
	assert.Empty(t, result.Summary)
	assert.Zero(t, result.TotalCO2Kg)
}

func TestServiceImport_RowIndependence(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)
	ctx := context.Background()

	rows := []Row{
		{Category: "transport", Amount: "100", Unit: "km", Date: "2024-01-15"},
		{Category: "", Amount: "10", Unit: "km", Date: "2024-01-15"},
		{Category: "energy", Amount: "50", Unit: "kwh", Date: "2024-01-16"},
	}

	result, err := svc.Import(ctx, "usr_a", rows)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 3, result.TotalRows)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Row 2")

	_, total, err := store.ListByUser(ctx, "usr_a", ListFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestServiceDelete_Ownership(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	fp, err := svc.Create(ctx, "usr_a", CreateInput{
		Category: "food", Amount: 1, Unit: "kg", Date: mustDate(t, "2024-01-10"),
	})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, "usr_b", fp.ID), ErrNotOwner)
	require.NoError(t, svc.Delete(ctx, "usr_a", fp.ID))
	assert.ErrorIs(t, svc.Delete(ctx, "usr_a", fp.ID), ErrFootprintNotFound)
}
