package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInspectionData() map[string]interface{} {
	return map[string]interface{}{
		"ladder_id":                   "ladder-1",
		"inspector_id":                "user-1",
		"inspection_date":             "2024-06-15",
		"inspection_type":             "initial",
		"overall_result":              "passed",
		"next_inspection_date":        "2025-06-15",
		"inspection_duration_minutes": 25,
		"weather_conditions":          "  sunny ",
		"temperature_celsius":         21.5,
		"general_notes":               "",
		"recommendations":             "replace feet next year",
		"defects_found":               "   ",
		"actions_required":            "none",
		"inspector_signature":         "M. Muster",
		"supervisor_approval_id":      "user-2",
		"approval_date":               "2024-06-16",
	}
}

func TestNewInspectionDefaults(t *testing.T) {
	insp, err := NewInspection(nil)
	require.NoError(t, err)
	assert.Equal(t, InspectionTypeRoutine, insp.InspectionType())
	assert.False(t, insp.IsPersisted())
	assert.Equal(t, "", insp.ID())
}

func TestValidateEmptyInspectionReportsRequiredFields(t *testing.T) {
	insp, err := NewInspection(nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		MsgLadderIDRequired,
		MsgInspectorIDRequired,
		MsgInspectionDateRequired,
		MsgOverallResultRequired,
		MsgNextInspectionDateRequired,
	}, insp.Validate())
}

func TestValidateNextDateMustFollowInspectionDate(t *testing.T) {
	data := validInspectionData()
	data["inspection_date"] = "2024-06-15"
	data["next_inspection_date"] = "2024-01-15"
	insp, err := NewInspection(data)
	require.NoError(t, err)
	assert.Equal(t, []string{MsgNextDateAfterInspection}, insp.Validate())

	require.NoError(t, insp.SetNextInspectionDate("2024-06-15"))
	assert.Contains(t, insp.Validate(), MsgNextDateAfterInspection)

	require.NoError(t, insp.SetNextInspectionDate("2024-06-16"))
	assert.Empty(t, insp.Validate())
}

func TestTemperatureBoundsAreInclusive(t *testing.T) {
	insp, err := NewInspection(nil)
	require.NoError(t, err)

	for _, ok := range []float64{-50, 60, 0} {
		v := ok
		assert.NoError(t, insp.SetTemperatureCelsius(&v), "temperature %v", v)
	}
	for _, bad := range []float64{61, -51, 60.5} {
		v := bad
		err := insp.SetTemperatureCelsius(&v)
		require.Error(t, err, "temperature %v", v)
		assert.True(t, IsInvalidArgument(err))
	}
	require.NotNil(t, insp.TemperatureCelsius())
	assert.Equal(t, 0.0, *insp.TemperatureCelsius())
	assert.NoError(t, insp.SetTemperatureCelsius(nil))
	assert.Nil(t, insp.TemperatureCelsius())
}

func TestDurationMustBePositive(t *testing.T) {
	insp, err := NewInspection(nil)
	require.NoError(t, err)
	zero, one := 0, 1
	assert.Error(t, insp.SetInspectionDurationMinutes(&zero))
	assert.NoError(t, insp.SetInspectionDurationMinutes(&one))
}

func TestInspectionDateLeapYear(t *testing.T) {
	insp, err := NewInspection(nil)
	require.NoError(t, err)

	require.NoError(t, insp.SetInspectionDate("2024-02-29"))
	assert.Equal(t, "2024-02-29", FormatDate(insp.InspectionDate()))

	err = insp.SetInspectionDate("2023-02-29")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2023-02-29")
	assert.Equal(t, "2024-02-29", FormatDate(insp.InspectionDate()))

	assert.Error(t, insp.SetInspectionDate("15.06.2024"))
}

func TestEnumSettersRejectUnknownValues(t *testing.T) {
	insp, err := NewInspection(nil)
	require.NoError(t, err)

	err = insp.SetOverallResult("ok-ish")
	var invalid *InvalidArgumentError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "overall_result", invalid.Field)
	assert.Equal(t, []string{"passed", "failed", "conditional"}, invalid.Expected)

	assert.Error(t, insp.SetInspectionType("yearly"))
	assert.Equal(t, InspectionTypeRoutine, insp.InspectionType())
}

func TestRoundTripFromMap(t *testing.T) {
	insp, err := NewInspection(validInspectionData())
	require.NoError(t, err)

	assert.Equal(t, "ladder-1", insp.LadderID())
	assert.Equal(t, "user-1", insp.InspectorID())
	assert.Equal(t, "2024-06-15", FormatDate(insp.InspectionDate()))
	assert.Equal(t, InspectionTypeInitial, insp.InspectionType())
	assert.Equal(t, ResultPassed, insp.OverallResult())
	assert.Equal(t, "2025-06-15", FormatDate(insp.NextInspectionDate()))
	require.NotNil(t, insp.InspectionDurationMinutes())
	assert.Equal(t, 25, *insp.InspectionDurationMinutes())
	assert.Equal(t, "sunny", *insp.WeatherConditions())
	assert.Equal(t, 21.5, *insp.TemperatureCelsius())
	assert.Nil(t, insp.GeneralNotes())
	assert.Equal(t, "replace feet next year", *insp.Recommendations())
	assert.Nil(t, insp.DefectsFound())
	assert.Equal(t, "none", *insp.ActionsRequired())
	assert.Equal(t, "M. Muster", *insp.InspectorSignature())
	assert.Equal(t, "user-2", *insp.SupervisorApprovalID())
	assert.Equal(t, "2024-06-16", FormatDate(insp.ApprovalDate()))
	assert.True(t, insp.IsApproved())
	assert.False(t, insp.IsPersisted())
	assert.Empty(t, insp.Validate())
}

func TestFillIsAllOrNothing(t *testing.T) {
	insp, err := NewInspection(validInspectionData())
	require.NoError(t, err)
	before := insp.Record()

	err = insp.Fill(map[string]interface{}{
		"ladder_id":           "ladder-9",
		"temperature_celsius": 99,
	})
	require.Error(t, err)
	assert.Equal(t, before, insp.Record())
}

func TestSetIDNilKeepsDraft(t *testing.T) {
	insp, err := NewInspection(nil)
	require.NoError(t, err)

	require.NoError(t, insp.SetID(""))
	assert.False(t, insp.IsPersisted())
	require.NoError(t, insp.SetLadderID("ladder-1"))
}

func TestPersistedInspectionIsFrozen(t *testing.T) {
	insp, err := NewInspection(validInspectionData())
	require.NoError(t, err)
	critical := SeverityCritical
	deadline := DateOf(insp.InspectionDate().AddDate(0, 0, 7))
	note := "cracked stile"
	items := []InspectionItem{
		{ItemName: "rungs", Result: ItemResultOK},
		{ItemName: "stiles", Result: ItemResultDefect, Severity: &critical, RepairRequired: true, RepairDeadline: &deadline, Notes: &note},
	}
	require.NoError(t, insp.SetItems(items))
	require.NoError(t, insp.SetID("insp-1"))
	require.True(t, insp.IsPersisted())
	require.Equal(t, ResultFailed, insp.CalculateOverallResult())

	before := insp.Record()
	beforeItems := insp.Items()
	one := 1
	temp := 10.0

	mutators := map[string]func() error{
		"SetID":                        func() error { return insp.SetID("insp-2") },
		"SetID empty":                  func() error { return insp.SetID("") },
		"SetLadderID":                  func() error { return insp.SetLadderID("x") },
		"SetInspectorID":               func() error { return insp.SetInspectorID("x") },
		"SetInspectionDate":            func() error { return insp.SetInspectionDate("2024-01-01") },
		"SetNextInspectionDate":        func() error { return insp.SetNextInspectionDate("2026-01-01") },
		"SetInspectionType":            func() error { return insp.SetInspectionType("special") },
		"SetOverallResult":             func() error { return insp.SetOverallResult("failed") },
		"SetInspectionDurationMinutes": func() error { return insp.SetInspectionDurationMinutes(&one) },
		"SetTemperatureCelsius":        func() error { return insp.SetTemperatureCelsius(&temp) },
		"SetWeatherConditions":         func() error { return insp.SetWeatherConditions("rain") },
		"SetGeneralNotes":              func() error { return insp.SetGeneralNotes("x") },
		"SetRecommendations":           func() error { return insp.SetRecommendations("x") },
		"SetDefectsFound":              func() error { return insp.SetDefectsFound("x") },
		"SetActionsRequired":           func() error { return insp.SetActionsRequired("x") },
		"SetInspectorSignature":        func() error { return insp.SetInspectorSignature("x") },
		"SetSupervisorApprovalID":      func() error { return insp.SetSupervisorApprovalID("x") },
		"SetApprovalDate":              func() error { return insp.SetApprovalDate("2024-07-01") },
		"SetItems":                     func() error { return insp.SetItems(nil) },
		"Fill":                         func() error { return insp.Fill(map[string]interface{}{"general_notes": "x"}) },
		"Fill invalid":                 func() error { return insp.Fill(map[string]interface{}{"overall_result": "bogus"}) },
		"MarkStored":                   func() error { return insp.MarkStored("insp-3", before.CreatedAt, before.UpdatedAt) },
	}

	for name, mutate := range mutators {
		err := mutate()
		assert.True(t, errors.Is(err, ErrInspectionFrozen), "%s returned %v", name, err)
		assert.False(t, IsInvalidArgument(err), name)
	}

	*items[1].Severity = SeverityLow
	*items[1].Notes = "fine"
	*items[1].RepairDeadline = deadline.AddDate(1, 0, 0)
	returned := insp.Items()
	*returned[1].Severity = SeverityMedium
	returned[1].Result = ItemResultOK
	*insp.CriticalDefects()[0].Severity = SeverityLow

	assert.Equal(t, before, insp.Record())
	assert.Equal(t, beforeItems, insp.Items())
	assert.Equal(t, ResultFailed, insp.CalculateOverallResult())
	require.Len(t, insp.CriticalDefects(), 1)
	assert.Equal(t, "cracked stile", *insp.Defects()[0].Notes)
	assert.Equal(t, "insp-1", insp.ID())
}

func TestValidateReportsOutOfRangeFieldsInOrder(t *testing.T) {
	day := DateOf(Today())
	next := day.AddDate(1, 0, 0)
	hot := MaxTemperatureCelsius + 0.5
	zero := 0
	insp := &Inspection{
		ladderID:           "ladder-1",
		inspectorID:        "user-1",
		inspectionDate:     &day,
		nextInspectionDate: &next,
		inspectionType:     InspectionType("x"),
		overallResult:      OverallResult("y"),
		temperatureCelsius: &hot,
		durationMinutes:    &zero,
	}

	assert.Equal(t, []string{
		MsgInspectionTypeInvalid,
		MsgOverallResultInvalid,
		MsgTemperatureRange,
		MsgDurationPositive,
	}, insp.Validate())

	cold := MinTemperatureCelsius - 1
	negative := -5
	insp.temperatureCelsius = &cold
	insp.durationMinutes = &negative
	insp.inspectionType = InspectionTypeRoutine
	insp.overallResult = ResultPassed
	assert.Equal(t, []string{MsgTemperatureRange, MsgDurationPositive}, insp.Validate())
}

func TestNewInspectionWithIDIsFrozen(t *testing.T) {
	data := validInspectionData()
	data["id"] = "insp-7"
	insp, err := NewInspection(data)
	require.NoError(t, err)
	assert.True(t, insp.IsPersisted())
	assert.Equal(t, "ladder-1", insp.LadderID())
	assert.ErrorIs(t, insp.SetGeneralNotes("late edit"), ErrInspectionFrozen)
}

func TestGettersReturnCopies(t *testing.T) {
	insp, err := NewInspection(validInspectionData())
	require.NoError(t, err)
	require.NoError(t, insp.SetID("insp-1"))

	d := insp.InspectionDate()
	*d = d.AddDate(1, 0, 0)
	assert.Equal(t, "2024-06-15", FormatDate(insp.InspectionDate()))

	notes := insp.Recommendations()
	*notes = "tampered"
	assert.Equal(t, "replace feet next year", *insp.Recommendations())
}

func TestAttachAssociationsOnFrozenInspection(t *testing.T) {
	insp, err := NewInspection(validInspectionData())
	require.NoError(t, err)
	require.NoError(t, insp.SetID("insp-1"))

	insp.AttachLadder(&Ladder{ID: "ladder-1", LadderNumber: "L-001"})
	insp.AttachInspector(&User{ID: "user-1", Username: "mmuster"})
	assert.Equal(t, "L-001", insp.Ladder().LadderNumber)
	assert.Equal(t, "mmuster", insp.Inspector().Username)
}

func TestInspectionAggregatesOwnItems(t *testing.T) {
	insp, err := NewInspection(nil)
	require.NoError(t, err)
	assert.Equal(t, ResultConditional, insp.CalculateOverallResult())

	require.NoError(t, insp.SetItems([]InspectionItem{
		{ItemName: "rungs", Result: ItemResultOK},
		{ItemName: "stile", Result: ItemResultDefect, Severity: severity(SeverityCritical)},
	}))
	assert.Equal(t, ResultFailed, insp.CalculateOverallResult())
	assert.Len(t, insp.Defects(), 1)
	assert.Len(t, insp.CriticalDefects(), 1)
	// Calculating does not assign.
	assert.Equal(t, OverallResult(""), insp.OverallResult())
}

func TestRestoreInspection(t *testing.T) {
	orig, err := NewInspection(validInspectionData())
	require.NoError(t, err)
	rec := orig.Record()
	rec.ID = "insp-1"

	restored, err := RestoreInspection(rec, []InspectionItem{{ItemName: "rungs", Result: ItemResultOK}})
	require.NoError(t, err)
	assert.True(t, restored.IsPersisted())
	assert.Equal(t, rec, restored.Record())
	assert.Len(t, restored.Items(), 1)

	rec.OverallResult = "unknown"
	_, err = RestoreInspection(rec, nil)
	assert.True(t, IsInvalidArgument(err))
}

func TestInspectionMarshalJSON(t *testing.T) {
	insp, err := NewInspection(validInspectionData())
	require.NoError(t, err)

	raw, err := json.Marshal(insp)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "ladder-1", decoded["ladder_id"])
	assert.Equal(t, "passed", decoded["overall_result"])
	assert.Equal(t, true, decoded["is_approved"])
	assert.Equal(t, []interface{}{}, decoded["items"])
}
