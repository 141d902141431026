package models

import (
	"encoding/json"
	"strings"
	"time"
)

// InspectionType describes why an inspection took place.
type InspectionType string

const (
	InspectionTypeRoutine       InspectionType = "routine"
	InspectionTypeInitial       InspectionType = "initial"
	InspectionTypeAfterIncident InspectionType = "after_incident"
	InspectionTypeSpecial       InspectionType = "special"
)

// InspectionTypes lists the accepted inspection types.
var InspectionTypes = []InspectionType{InspectionTypeRoutine, InspectionTypeInitial, InspectionTypeAfterIncident, InspectionTypeSpecial}

// Valid reports whether t is a known inspection type.
func (t InspectionType) Valid() bool {
	for _, known := range InspectionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseInspectionType converts raw input into an InspectionType.
func ParseInspectionType(raw string) (InspectionType, error) {
	t := InspectionType(raw)
	if !t.Valid() {
		return "", invalidEnum("inspection_type", raw, enumStrings(InspectionTypes))
	}
	return t, nil
}

const (
	MinTemperatureCelsius = -50.0
	MaxTemperatureCelsius = 60.0
)

// Validation messages reported by Inspection.Validate.
const (
	MsgLadderIDRequired           = "ladder_id is required"
	MsgInspectorIDRequired        = "inspector_id is required"
	MsgInspectionDateRequired     = "inspection_date is required"
	MsgOverallResultRequired      = "overall_result is required"
	MsgNextInspectionDateRequired = "next_inspection_date is required"
	MsgNextDateAfterInspection    = "next_inspection_date must be after inspection_date"
	MsgInspectionTypeInvalid      = "inspection_type is invalid"
	MsgOverallResultInvalid       = "overall_result is invalid"
	MsgTemperatureRange           = "temperature_celsius must be between -50 and 60"
	MsgDurationPositive           = "inspection_duration_minutes must be greater than 0"
)

type inspectionState int

const (
	inspectionDraft inspectionState = iota
	inspectionPersisted
)

// Inspection is a dated safety check of a ladder. It is mutable while it is a
// draft and becomes permanently read-only once an identifier is assigned.
type Inspection struct {
	state inspectionState

	id                   string
	ladderID             string
	inspectorID          string
	inspectionDate       *time.Time
	inspectionType       InspectionType
	overallResult        OverallResult
	nextInspectionDate   *time.Time
	durationMinutes      *int
	weatherConditions    *string
	temperatureCelsius   *float64
	generalNotes         *string
	recommendations      *string
	defectsFound         *string
	actionsRequired      *string
	inspectorSignature   *string
	supervisorApprovalID *string
	approvalDate         *time.Time
	createdAt            time.Time
	updatedAt            time.Time

	items []InspectionItem

	// Attached associations; populated by the repository, not part of the record.
	ladder    *Ladder
	inspector *User
}

// NewInspection builds a draft inspection and applies data through the strict
// setters. Unknown keys are ignored. A non-empty "id" freezes the result.
func NewInspection(data map[string]interface{}) (*Inspection, error) {
	insp := &Inspection{inspectionType: InspectionTypeRoutine}
	if len(data) == 0 {
		return insp, nil
	}
	if err := insp.Fill(data); err != nil {
		return nil, err
	}
	return insp, nil
}

// mutate is the single gate every write goes through. fn runs against a copy
// which replaces the receiver only when fn succeeds.
func (i *Inspection) mutate(fn func(d *Inspection) error) error {
	if i.state == inspectionPersisted {
		return ErrInspectionFrozen
	}
	draft := *i
	if err := fn(&draft); err != nil {
		return err
	}
	*i = draft
	return nil
}

var inspectionFields = []struct {
	key   string
	apply func(d *Inspection, v interface{}) error
}{
	{"ladder_id", func(d *Inspection, v interface{}) error { d.ladderID = strings.TrimSpace(stringValue(v)); return nil }},
	{"inspector_id", func(d *Inspection, v interface{}) error {
		d.inspectorID = strings.TrimSpace(stringValue(v))
		return nil
	}},
	{"inspection_date", func(d *Inspection, v interface{}) error { return d.assignInspectionDate(stringValue(v)) }},
	{"inspection_type", func(d *Inspection, v interface{}) error { return d.assignInspectionType(stringValue(v)) }},
	{"overall_result", func(d *Inspection, v interface{}) error { return d.assignOverallResult(stringValue(v)) }},
	{"next_inspection_date", func(d *Inspection, v interface{}) error { return d.assignNextInspectionDate(stringValue(v)) }},
	{"inspection_duration_minutes", func(d *Inspection, v interface{}) error {
		if isBlank(v) {
			return d.assignDuration(nil)
		}
		n, err := intValue("inspection_duration_minutes", v)
		if err != nil {
			return err
		}
		return d.assignDuration(&n)
	}},
	{"weather_conditions", func(d *Inspection, v interface{}) error {
		d.weatherConditions = normalizeString(stringValue(v))
		return nil
	}},
	{"temperature_celsius", func(d *Inspection, v interface{}) error {
		if isBlank(v) {
			return d.assignTemperature(nil)
		}
		f, err := floatValue("temperature_celsius", v)
		if err != nil {
			return err
		}
		return d.assignTemperature(&f)
	}},
	{"general_notes", func(d *Inspection, v interface{}) error { d.generalNotes = normalizeString(stringValue(v)); return nil }},
	{"recommendations", func(d *Inspection, v interface{}) error {
		d.recommendations = normalizeString(stringValue(v))
		return nil
	}},
	{"defects_found", func(d *Inspection, v interface{}) error { d.defectsFound = normalizeString(stringValue(v)); return nil }},
	{"actions_required", func(d *Inspection, v interface{}) error {
		d.actionsRequired = normalizeString(stringValue(v))
		return nil
	}},
	{"inspector_signature", func(d *Inspection, v interface{}) error {
		d.inspectorSignature = normalizeString(stringValue(v))
		return nil
	}},
	{"supervisor_approval_id", func(d *Inspection, v interface{}) error {
		d.supervisorApprovalID = normalizeString(stringValue(v))
		return nil
	}},
	{"approval_date", func(d *Inspection, v interface{}) error { return d.assignApprovalDate(stringValue(v)) }},
	// id goes last so a map describing a stored row freezes after its fields are set.
	{"id", func(d *Inspection, v interface{}) error { d.assignID(stringValue(v)); return nil }},
}

// Fill applies every recognised key of data. Nothing is applied when the
// inspection is frozen or any value is rejected.
func (i *Inspection) Fill(data map[string]interface{}) error {
	return i.mutate(func(d *Inspection) error {
		for _, field := range inspectionFields {
			v, ok := data[field.key]
			if !ok {
				continue
			}
			if err := field.apply(d, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (i *Inspection) assignID(id string) {
	i.id = strings.TrimSpace(id)
	if i.id != "" {
		i.state = inspectionPersisted
	}
}

func (i *Inspection) assignInspectionDate(raw string) error {
	t, err := ParseDate("inspection_date", raw)
	if err != nil {
		return err
	}
	i.inspectionDate = &t
	return nil
}

func (i *Inspection) assignNextInspectionDate(raw string) error {
	t, err := ParseDate("next_inspection_date", raw)
	if err != nil {
		return err
	}
	i.nextInspectionDate = &t
	return nil
}

func (i *Inspection) assignApprovalDate(raw string) error {
	t, err := parseOptionalDate("approval_date", raw)
	if err != nil {
		return err
	}
	i.approvalDate = t
	return nil
}

func (i *Inspection) assignInspectionType(raw string) error {
	t, err := ParseInspectionType(raw)
	if err != nil {
		return err
	}
	i.inspectionType = t
	return nil
}

func (i *Inspection) assignOverallResult(raw string) error {
	r, err := ParseOverallResult(raw)
	if err != nil {
		return err
	}
	i.overallResult = r
	return nil
}

func (i *Inspection) assignDuration(minutes *int) error {
	if minutes != nil && *minutes <= 0 {
		return invalidValue("inspection_duration_minutes", *minutes, "must be greater than 0")
	}
	i.durationMinutes = cloneInt(minutes)
	return nil
}

func (i *Inspection) assignTemperature(celsius *float64) error {
	if celsius != nil && (*celsius < MinTemperatureCelsius || *celsius > MaxTemperatureCelsius) {
		return invalidValue("temperature_celsius", *celsius, "must be between -50 and 60")
	}
	i.temperatureCelsius = cloneFloat(celsius)
	return nil
}

// SetID assigns the persistent identifier. A non-empty id freezes the
// inspection for good; an empty id on a draft keeps it a draft.
func (i *Inspection) SetID(id string) error {
	return i.mutate(func(d *Inspection) error {
		d.assignID(id)
		return nil
	})
}

// SetLadderID sets the inspected ladder reference.
func (i *Inspection) SetLadderID(id string) error {
	return i.mutate(func(d *Inspection) error {
		d.ladderID = strings.TrimSpace(id)
		return nil
	})
}

// SetInspectorID sets the inspecting user reference.
func (i *Inspection) SetInspectorID(id string) error {
	return i.mutate(func(d *Inspection) error {
		d.inspectorID = strings.TrimSpace(id)
		return nil
	})
}

// SetInspectionDate parses a YYYY-MM-DD date.
func (i *Inspection) SetInspectionDate(raw string) error {
	return i.mutate(func(d *Inspection) error { return d.assignInspectionDate(raw) })
}

// SetNextInspectionDate parses a YYYY-MM-DD date. Ordering against the
// inspection date is checked by Validate.
func (i *Inspection) SetNextInspectionDate(raw string) error {
	return i.mutate(func(d *Inspection) error { return d.assignNextInspectionDate(raw) })
}

// SetInspectionType rejects unknown types.
func (i *Inspection) SetInspectionType(raw string) error {
	return i.mutate(func(d *Inspection) error { return d.assignInspectionType(raw) })
}

// SetOverallResult rejects unknown verdicts.
func (i *Inspection) SetOverallResult(raw string) error {
	return i.mutate(func(d *Inspection) error { return d.assignOverallResult(raw) })
}

// SetInspectionDurationMinutes requires a positive duration; nil clears it.
func (i *Inspection) SetInspectionDurationMinutes(minutes *int) error {
	return i.mutate(func(d *Inspection) error { return d.assignDuration(minutes) })
}

// SetTemperatureCelsius requires a value within [-50, 60]; nil clears it.
func (i *Inspection) SetTemperatureCelsius(celsius *float64) error {
	return i.mutate(func(d *Inspection) error { return d.assignTemperature(celsius) })
}

func (i *Inspection) SetWeatherConditions(v string) error {
	return i.mutate(func(d *Inspection) error { d.weatherConditions = normalizeString(v); return nil })
}

func (i *Inspection) SetGeneralNotes(v string) error {
	return i.mutate(func(d *Inspection) error { d.generalNotes = normalizeString(v); return nil })
}

func (i *Inspection) SetRecommendations(v string) error {
	return i.mutate(func(d *Inspection) error { d.recommendations = normalizeString(v); return nil })
}

func (i *Inspection) SetDefectsFound(v string) error {
	return i.mutate(func(d *Inspection) error { d.defectsFound = normalizeString(v); return nil })
}

func (i *Inspection) SetActionsRequired(v string) error {
	return i.mutate(func(d *Inspection) error { d.actionsRequired = normalizeString(v); return nil })
}

func (i *Inspection) SetInspectorSignature(v string) error {
	return i.mutate(func(d *Inspection) error { d.inspectorSignature = normalizeString(v); return nil })
}

// SetSupervisorApprovalID records the approving supervisor. Like every other
// setter it is rejected after the inspection is frozen.
func (i *Inspection) SetSupervisorApprovalID(v string) error {
	return i.mutate(func(d *Inspection) error { d.supervisorApprovalID = normalizeString(v); return nil })
}

// SetApprovalDate parses an optional approval date.
func (i *Inspection) SetApprovalDate(raw string) error {
	return i.mutate(func(d *Inspection) error { return d.assignApprovalDate(raw) })
}

// SetItems replaces the checkpoint list.
func (i *Inspection) SetItems(items []InspectionItem) error {
	return i.mutate(func(d *Inspection) error {
		d.items = cloneItems(items)
		return nil
	})
}

// AttachLadder links the loaded ladder. Associations are not part of the
// record and may be attached to frozen inspections.
func (i *Inspection) AttachLadder(l *Ladder) { i.ladder = l }

// AttachInspector links the loaded inspector.
func (i *Inspection) AttachInspector(u *User) { i.inspector = u }

func (i *Inspection) ID() string                 { return i.id }
func (i *Inspection) LadderID() string           { return i.ladderID }
func (i *Inspection) InspectorID() string        { return i.inspectorID }
func (i *Inspection) InspectionDate() *time.Time { return cloneTime(i.inspectionDate) }
func (i *Inspection) InspectionType() InspectionType {
	if i.inspectionType == "" {
		return InspectionTypeRoutine
	}
	return i.inspectionType
}
func (i *Inspection) OverallResult() OverallResult    { return i.overallResult }
func (i *Inspection) NextInspectionDate() *time.Time  { return cloneTime(i.nextInspectionDate) }
func (i *Inspection) InspectionDurationMinutes() *int { return cloneInt(i.durationMinutes) }
func (i *Inspection) WeatherConditions() *string      { return cloneString(i.weatherConditions) }
func (i *Inspection) TemperatureCelsius() *float64    { return cloneFloat(i.temperatureCelsius) }
func (i *Inspection) GeneralNotes() *string           { return cloneString(i.generalNotes) }
func (i *Inspection) Recommendations() *string        { return cloneString(i.recommendations) }
func (i *Inspection) DefectsFound() *string           { return cloneString(i.defectsFound) }
func (i *Inspection) ActionsRequired() *string        { return cloneString(i.actionsRequired) }
func (i *Inspection) InspectorSignature() *string     { return cloneString(i.inspectorSignature) }
func (i *Inspection) SupervisorApprovalID() *string   { return cloneString(i.supervisorApprovalID) }
func (i *Inspection) ApprovalDate() *time.Time        { return cloneTime(i.approvalDate) }
func (i *Inspection) CreatedAt() time.Time            { return i.createdAt }
func (i *Inspection) UpdatedAt() time.Time            { return i.updatedAt }
func (i *Inspection) Ladder() *Ladder                 { return i.ladder }
func (i *Inspection) Inspector() *User                { return i.inspector }
func (i *Inspection) Items() []InspectionItem         { return cloneItems(i.items) }
func (i *Inspection) IsPersisted() bool               { return i.state == inspectionPersisted }

// IsApproved is true when both the supervisor and the approval date are set.
func (i *Inspection) IsApproved() bool {
	return i.supervisorApprovalID != nil && i.approvalDate != nil
}

// CalculateOverallResult derives a candidate verdict from the attached items.
// It does not assign it.
func (i *Inspection) CalculateOverallResult() OverallResult {
	return CalculateOverallResult(i.items)
}

// Defects returns the items recorded as defects.
func (i *Inspection) Defects() []InspectionItem {
	return cloneItems(Defects(i.items))
}

// CriticalDefects returns the defects graded critical.
func (i *Inspection) CriticalDefects() []InspectionItem {
	return cloneItems(CriticalDefects(i.items))
}

// Validate reports every problem with the inspection in a fixed order. It
// never fails and does not depend on the strict setters having run.
func (i *Inspection) Validate() []string {
	errs := make([]string, 0)

	if i.ladderID == "" {
		errs = append(errs, MsgLadderIDRequired)
	}
	if i.inspectorID == "" {
		errs = append(errs, MsgInspectorIDRequired)
	}
	if i.inspectionDate == nil {
		errs = append(errs, MsgInspectionDateRequired)
	}
	if i.overallResult == "" {
		errs = append(errs, MsgOverallResultRequired)
	}
	if i.nextInspectionDate == nil {
		errs = append(errs, MsgNextInspectionDateRequired)
	}
	if i.inspectionDate != nil && i.nextInspectionDate != nil && !i.nextInspectionDate.After(*i.inspectionDate) {
		errs = append(errs, MsgNextDateAfterInspection)
	}
	if i.inspectionType != "" && !i.inspectionType.Valid() {
		errs = append(errs, MsgInspectionTypeInvalid)
	}
	if i.overallResult != "" && !i.overallResult.Valid() {
		errs = append(errs, MsgOverallResultInvalid)
	}
	if t := i.temperatureCelsius; t != nil && (*t < MinTemperatureCelsius || *t > MaxTemperatureCelsius) {
		errs = append(errs, MsgTemperatureRange)
	}
	if d := i.durationMinutes; d != nil && *d <= 0 {
		errs = append(errs, MsgDurationPositive)
	}

	return errs
}

// InspectionRecord is the storage shape of an inspection row.
type InspectionRecord struct {
	ID                        string     `db:"id" json:"id,omitempty"`
	LadderID                  string     `db:"ladder_id" json:"ladder_id"`
	InspectorID               string     `db:"inspector_id" json:"inspector_id"`
	InspectionDate            time.Time  `db:"inspection_date" json:"inspection_date"`
	InspectionType            string     `db:"inspection_type" json:"inspection_type"`
	OverallResult             string     `db:"overall_result" json:"overall_result"`
	NextInspectionDate        time.Time  `db:"next_inspection_date" json:"next_inspection_date"`
	InspectionDurationMinutes *int       `db:"inspection_duration_minutes" json:"inspection_duration_minutes,omitempty"`
	WeatherConditions         *string    `db:"weather_conditions" json:"weather_conditions,omitempty"`
	TemperatureCelsius        *float64   `db:"temperature_celsius" json:"temperature_celsius,omitempty"`
	GeneralNotes              *string    `db:"general_notes" json:"general_notes,omitempty"`
	Recommendations           *string    `db:"recommendations" json:"recommendations,omitempty"`
	DefectsFound              *string    `db:"defects_found" json:"defects_found,omitempty"`
	ActionsRequired           *string    `db:"actions_required" json:"actions_required,omitempty"`
	InspectorSignature        *string    `db:"inspector_signature" json:"inspector_signature,omitempty"`
	SupervisorApprovalID      *string    `db:"supervisor_approval_id" json:"supervisor_approval_id,omitempty"`
	ApprovalDate              *time.Time `db:"approval_date" json:"approval_date,omitempty"`
	CreatedAt                 time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt                 time.Time  `db:"updated_at" json:"updated_at"`
}

// Record returns the storage shape of the inspection.
func (i *Inspection) Record() InspectionRecord {
	rec := InspectionRecord{
		ID:                        i.id,
		LadderID:                  i.ladderID,
		InspectorID:               i.inspectorID,
		InspectionType:            string(i.InspectionType()),
		OverallResult:             string(i.overallResult),
		InspectionDurationMinutes: cloneInt(i.durationMinutes),
		WeatherConditions:         cloneString(i.weatherConditions),
		TemperatureCelsius:        cloneFloat(i.temperatureCelsius),
		GeneralNotes:              cloneString(i.generalNotes),
		Recommendations:           cloneString(i.recommendations),
		DefectsFound:              cloneString(i.defectsFound),
		ActionsRequired:           cloneString(i.actionsRequired),
		InspectorSignature:        cloneString(i.inspectorSignature),
		SupervisorApprovalID:      cloneString(i.supervisorApprovalID),
		ApprovalDate:              cloneTime(i.approvalDate),
		CreatedAt:                 i.createdAt,
		UpdatedAt:                 i.updatedAt,
	}
	if i.inspectionDate != nil {
		rec.InspectionDate = *i.inspectionDate
	}
	if i.nextInspectionDate != nil {
		rec.NextInspectionDate = *i.nextInspectionDate
	}
	return rec
}

// RestoreInspection rebuilds an inspection from storage. Enumerations and
// ranges are re-checked because rows are not trusted blindly. A record with
// an id comes back frozen.
func RestoreInspection(rec InspectionRecord, items []InspectionItem) (*Inspection, error) {
	inspType, err := ParseInspectionType(rec.InspectionType)
	if err != nil {
		return nil, err
	}
	result, err := ParseOverallResult(rec.OverallResult)
	if err != nil {
		return nil, err
	}

	insp := &Inspection{
		ladderID:             rec.LadderID,
		inspectorID:          rec.InspectorID,
		inspectionType:       inspType,
		overallResult:        result,
		weatherConditions:    cloneString(rec.WeatherConditions),
		generalNotes:         cloneString(rec.GeneralNotes),
		recommendations:      cloneString(rec.Recommendations),
		defectsFound:         cloneString(rec.DefectsFound),
		actionsRequired:      cloneString(rec.ActionsRequired),
		inspectorSignature:   cloneString(rec.InspectorSignature),
		supervisorApprovalID: cloneString(rec.SupervisorApprovalID),
		createdAt:            rec.CreatedAt,
		updatedAt:            rec.UpdatedAt,
		items:                cloneItems(items),
	}
	if !rec.InspectionDate.IsZero() {
		d := DateOf(rec.InspectionDate)
		insp.inspectionDate = &d
	}
	if !rec.NextInspectionDate.IsZero() {
		d := DateOf(rec.NextInspectionDate)
		insp.nextInspectionDate = &d
	}
	if rec.ApprovalDate != nil {
		d := DateOf(*rec.ApprovalDate)
		insp.approvalDate = &d
	}
	if err := insp.assignDuration(rec.InspectionDurationMinutes); err != nil {
		return nil, err
	}
	if err := insp.assignTemperature(rec.TemperatureCelsius); err != nil {
		return nil, err
	}
	insp.assignID(rec.ID)
	return insp, nil
}

// MarkStored records persistence timestamps and the identifier in one step,
// freezing the inspection.
func (i *Inspection) MarkStored(id string, createdAt, updatedAt time.Time) error {
	return i.mutate(func(d *Inspection) error {
		d.createdAt = createdAt
		d.updatedAt = updatedAt
		d.assignID(id)
		return nil
	})
}

type inspectionView struct {
	InspectionRecord
	IsApproved bool             `json:"is_approved"`
	Items      []InspectionItem `json:"items"`
	Ladder     *Ladder          `json:"ladder,omitempty"`
	Inspector  *User            `json:"inspector,omitempty"`
}

// MarshalJSON renders the record together with items and attached associations.
func (i *Inspection) MarshalJSON() ([]byte, error) {
	items := cloneItems(i.items)
	if items == nil {
		items = []InspectionItem{}
	}
	return json.Marshal(inspectionView{
		InspectionRecord: i.Record(),
		IsApproved:       i.IsApproved(),
		Items:            items,
		Ladder:           i.ladder,
		Inspector:        i.inspector,
	})
}

// InspectionFilter captures list criteria for inspections.
type InspectionFilter struct {
	LadderID       string
	InspectorID    string
	OverallResult  *OverallResult
	InspectionType *InspectionType
	DateFrom       *time.Time
	DateTo         *time.Time
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}
