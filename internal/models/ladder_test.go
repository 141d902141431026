package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withToday(t *testing.T, day time.Time) {
	t.Helper()
	prev := clock
	clock = func() time.Time { return day }
	t.Cleanup(func() { clock = prev })
}

func TestNewLadderDefaultsAndNormalisation(t *testing.T) {
	l, err := NewLadder(map[string]interface{}{
		"ladder_number":        " L-001 ",
		"manufacturer":         "Hailo",
		"model":                "",
		"ladder_type":          "Stehleiter",
		"height_cm":            "180",
		"location":             "Halle 3",
		"department":           "   ",
		"next_inspection_date": "2025-01-31",
		"colour":               "red",
	})
	require.NoError(t, err)
	assert.Equal(t, "L-001", l.LadderNumber)
	assert.Nil(t, l.Model)
	assert.Nil(t, l.Department)
	assert.Equal(t, LadderTypeStep, l.LadderType)
	assert.Equal(t, MaterialAluminium, l.Material)
	assert.Equal(t, DefaultMaxLoadKg, l.MaxLoadKg)
	assert.Equal(t, 180, l.HeightCm)
	assert.Equal(t, LadderStatusActive, l.Status)
	assert.Equal(t, DefaultInspectionIntervalMonths, l.InspectionIntervalMonths)
	assert.Empty(t, l.Validate())
}

func TestLadderStrictSetters(t *testing.T) {
	l := &Ladder{}

	err := l.SetLadderType("Hochleiter")
	var invalid *InvalidArgumentError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "ladder_type", invalid.Field)
	assert.Contains(t, err.Error(), "Hochleiter")

	assert.Error(t, l.SetMaterial("Kunststoff"))
	assert.Error(t, l.SetStatus("lost"))
	assert.Error(t, l.SetMaxLoadKg(0))
	assert.Error(t, l.SetHeightCm(-1))
	assert.Error(t, l.SetInspectionIntervalMonths(0))
	assert.Error(t, l.SetNextInspectionDate("2023-02-29"))
	assert.NoError(t, l.SetPurchaseDate(""))
	assert.Nil(t, l.PurchaseDate)
	assert.NoError(t, l.SetHeightCm(1))
}

func TestNewLadderRejectsInvalidValues(t *testing.T) {
	_, err := NewLadder(map[string]interface{}{"max_load_kg": 0})
	assert.True(t, IsInvalidArgument(err))

	_, err = NewLadder(map[string]interface{}{"height_cm": "tall"})
	assert.True(t, IsInvalidArgument(err))
}

func TestLadderValidateCollectsEverything(t *testing.T) {
	l := &Ladder{Material: "Plastik", Status: "gone"}
	assert.Equal(t, []string{
		MsgLadderNumberRequired,
		MsgManufacturerRequired,
		MsgLadderTypeRequired,
		MsgLocationRequired,
		MsgLadderNextDateRequired,
		MsgMaterialInvalid,
		MsgStatusInvalid,
		MsgMaxLoadPositive,
		MsgHeightPositive,
		MsgInspectionIntervalPositive,
	}, l.Validate())
}

func TestNeedsInspection(t *testing.T) {
	withToday(t, time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC))

	l := &Ladder{}
	require.NoError(t, l.SetNextInspectionDate("2024-06-15"))
	assert.True(t, l.NeedsInspection())
	assert.Equal(t, 0, l.DaysUntilInspection())

	require.NoError(t, l.SetNextInspectionDate("2024-06-10"))
	assert.True(t, l.NeedsInspection())
	assert.Equal(t, -5, l.DaysUntilInspection())

	require.NoError(t, l.SetNextInspectionDate("2024-06-16"))
	assert.False(t, l.NeedsInspection())
	assert.Equal(t, 1, l.DaysUntilInspection())

	assert.True(t, (&Ladder{}).NeedsInspection())
}

func TestCalculateNextInspectionDate(t *testing.T) {
	withToday(t, time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))

	l := &Ladder{InspectionIntervalMonths: 6}
	assert.Equal(t, "2024-09-10", l.CalculateNextInspectionDate(nil).Format(DateLayout))

	base := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	l.InspectionIntervalMonths = 12
	assert.Equal(t, "2025-03-01", l.CalculateNextInspectionDate(&base).Format(DateLayout))

	l.InspectionIntervalMonths = 0
	assert.Equal(t, "2025-03-10", l.CalculateNextInspectionDate(nil).Format(DateLayout))
}

func TestDispose(t *testing.T) {
	l := &Ladder{Status: LadderStatusActive}
	l.Dispose()
	assert.True(t, l.IsDisposed())
}
