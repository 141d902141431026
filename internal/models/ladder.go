package models

import (
	"time"
)

// LadderType classifies the construction of a ladder.
type LadderType string

const (
	LadderTypeLeaning      LadderType = "Anlegeleiter"
	LadderTypeStep         LadderType = "Stehleiter"
	LadderTypeMultiPurpose LadderType = "Mehrzweckleiter"
	LadderTypePlatform     LadderType = "Podestleiter"
	LadderTypeExtension    LadderType = "Schiebeleiter"
)

// LadderTypes lists the accepted ladder types.
var LadderTypes = []LadderType{LadderTypeLeaning, LadderTypeStep, LadderTypeMultiPurpose, LadderTypePlatform, LadderTypeExtension}

// Valid reports whether t is a known ladder type.
func (t LadderType) Valid() bool {
	for _, known := range LadderTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseLadderType converts raw input into a LadderType.
func ParseLadderType(raw string) (LadderType, error) {
	t := LadderType(raw)
	if !t.Valid() {
		return "", invalidEnum("ladder_type", raw, enumStrings(LadderTypes))
	}
	return t, nil
}

// Material is the main construction material of a ladder.
type Material string

const (
	MaterialAluminium  Material = "Aluminium"
	MaterialWood       Material = "Holz"
	MaterialFiberglass Material = "Fiberglas"
	MaterialSteel      Material = "Stahl"
)

// Materials lists the accepted materials.
var Materials = []Material{MaterialAluminium, MaterialWood, MaterialFiberglass, MaterialSteel}

// Valid reports whether m is a known material.
func (m Material) Valid() bool {
	for _, known := range Materials {
		if m == known {
			return true
		}
	}
	return false
}

// ParseMaterial converts raw input into a Material.
func ParseMaterial(raw string) (Material, error) {
	m := Material(raw)
	if !m.Valid() {
		return "", invalidEnum("material", raw, enumStrings(Materials))
	}
	return m, nil
}

// LadderStatus tracks the lifecycle of a ladder.
type LadderStatus string

const (
	LadderStatusActive    LadderStatus = "active"
	LadderStatusInactive  LadderStatus = "inactive"
	LadderStatusDefective LadderStatus = "defective"
	LadderStatusDisposed  LadderStatus = "disposed"
)

// LadderStatuses lists the accepted statuses.
var LadderStatuses = []LadderStatus{LadderStatusActive, LadderStatusInactive, LadderStatusDefective, LadderStatusDisposed}

// Valid reports whether s is a known status.
func (s LadderStatus) Valid() bool {
	for _, known := range LadderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseLadderStatus converts raw input into a LadderStatus.
func ParseLadderStatus(raw string) (LadderStatus, error) {
	s := LadderStatus(raw)
	if !s.Valid() {
		return "", invalidEnum("status", raw, enumStrings(LadderStatuses))
	}
	return s, nil
}

const (
	DefaultMaxLoadKg                = 150
	DefaultInspectionIntervalMonths = 12
)

// Validation messages reported by Ladder.Validate.
const (
	MsgLadderNumberRequired       = "ladder_number is required"
	MsgManufacturerRequired       = "manufacturer is required"
	MsgLadderTypeRequired         = "ladder_type is required"
	MsgLadderTypeInvalid          = "ladder_type is invalid"
	MsgLocationRequired           = "location is required"
	MsgLadderNextDateRequired     = "next_inspection_date is required"
	MsgMaterialInvalid            = "material is invalid"
	MsgStatusInvalid              = "status is invalid"
	MsgMaxLoadPositive            = "max_load_kg must be greater than 0"
	MsgHeightPositive             = "height_cm must be greater than 0"
	MsgInspectionIntervalPositive = "inspection_interval_months must be greater than 0"
)

// Ladder is a tracked piece of access equipment subject to periodic inspection.
type Ladder struct {
	ID                       string       `db:"id" json:"id,omitempty"`
	LadderNumber             string       `db:"ladder_number" json:"ladder_number"`
	Manufacturer             string       `db:"manufacturer" json:"manufacturer"`
	Model                    *string      `db:"model" json:"model,omitempty"`
	LadderType               LadderType   `db:"ladder_type" json:"ladder_type"`
	Material                 Material     `db:"material" json:"material"`
	MaxLoadKg                int          `db:"max_load_kg" json:"max_load_kg"`
	HeightCm                 int          `db:"height_cm" json:"height_cm"`
	PurchaseDate             *time.Time   `db:"purchase_date" json:"purchase_date,omitempty"`
	Location                 string       `db:"location" json:"location"`
	Department               *string      `db:"department" json:"department,omitempty"`
	ResponsiblePerson        *string      `db:"responsible_person" json:"responsible_person,omitempty"`
	SerialNumber             *string      `db:"serial_number" json:"serial_number,omitempty"`
	Notes                    *string      `db:"notes" json:"notes,omitempty"`
	Status                   LadderStatus `db:"status" json:"status"`
	NextInspectionDate       *time.Time   `db:"next_inspection_date" json:"next_inspection_date"`
	InspectionIntervalMonths int          `db:"inspection_interval_months" json:"inspection_interval_months"`
	CreatedAt                time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt                time.Time    `db:"updated_at" json:"updated_at"`
}

// LadderFilter captures list criteria for ladders.
type LadderFilter struct {
	Status     *LadderStatus
	LadderType *LadderType
	Location   string
	Department string
	Search     string
	DueOnly    bool
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// NewLadder builds a ladder with defaults and applies data through the strict
// setters. Unknown keys are ignored.
func NewLadder(data map[string]interface{}) (*Ladder, error) {
	l := &Ladder{
		Material:                 MaterialAluminium,
		MaxLoadKg:                DefaultMaxLoadKg,
		Status:                   LadderStatusActive,
		InspectionIntervalMonths: DefaultInspectionIntervalMonths,
	}
	if err := l.Fill(data); err != nil {
		return nil, err
	}
	return l, nil
}

var ladderFields = []struct {
	key   string
	apply func(l *Ladder, v interface{}) error
}{
	{"id", func(l *Ladder, v interface{}) error { l.ID = stringValue(v); return nil }},
	{"ladder_number", func(l *Ladder, v interface{}) error { l.SetLadderNumber(stringValue(v)); return nil }},
	{"manufacturer", func(l *Ladder, v interface{}) error { l.SetManufacturer(stringValue(v)); return nil }},
	{"model", func(l *Ladder, v interface{}) error { l.SetModel(stringValue(v)); return nil }},
	{"ladder_type", func(l *Ladder, v interface{}) error { return l.SetLadderType(stringValue(v)) }},
	{"material", func(l *Ladder, v interface{}) error { return l.SetMaterial(stringValue(v)) }},
	{"max_load_kg", func(l *Ladder, v interface{}) error {
		n, err := intValue("max_load_kg", v)
		if err != nil {
			return err
		}
		return l.SetMaxLoadKg(n)
	}},
	{"height_cm", func(l *Ladder, v interface{}) error {
		n, err := intValue("height_cm", v)
		if err != nil {
			return err
		}
		return l.SetHeightCm(n)
	}},
	{"purchase_date", func(l *Ladder, v interface{}) error { return l.SetPurchaseDate(stringValue(v)) }},
	{"location", func(l *Ladder, v interface{}) error { l.SetLocation(stringValue(v)); return nil }},
	{"department", func(l *Ladder, v interface{}) error { l.SetDepartment(stringValue(v)); return nil }},
	{"responsible_person", func(l *Ladder, v interface{}) error { l.SetResponsiblePerson(stringValue(v)); return nil }},
	{"serial_number", func(l *Ladder, v interface{}) error { l.SetSerialNumber(stringValue(v)); return nil }},
	{"notes", func(l *Ladder, v interface{}) error { l.SetNotes(stringValue(v)); return nil }},
	{"status", func(l *Ladder, v interface{}) error { return l.SetStatus(stringValue(v)) }},
	{"next_inspection_date", func(l *Ladder, v interface{}) error { return l.SetNextInspectionDate(stringValue(v)) }},
	{"inspection_interval_months", func(l *Ladder, v interface{}) error {
		n, err := intValue("inspection_interval_months", v)
		if err != nil {
			return err
		}
		return l.SetInspectionIntervalMonths(n)
	}},
}

// Fill applies every recognised key of data. Either all values are applied or
// none are.
func (l *Ladder) Fill(data map[string]interface{}) error {
	draft := *l
	for _, field := range ladderFields {
		v, ok := data[field.key]
		if !ok {
			continue
		}
		if err := field.apply(&draft, v); err != nil {
			return err
		}
	}
	*l = draft
	return nil
}

// SetLadderNumber trims and stores the inventory number.
func (l *Ladder) SetLadderNumber(v string) { l.LadderNumber = derefOrEmpty(normalizeString(v)) }

// SetManufacturer trims and stores the manufacturer.
func (l *Ladder) SetManufacturer(v string) { l.Manufacturer = derefOrEmpty(normalizeString(v)) }

// SetModel trims the model; blank clears it.
func (l *Ladder) SetModel(v string) { l.Model = normalizeString(v) }

// SetLocation trims and stores the location.
func (l *Ladder) SetLocation(v string) { l.Location = derefOrEmpty(normalizeString(v)) }

func (l *Ladder) SetDepartment(v string)        { l.Department = normalizeString(v) }
func (l *Ladder) SetResponsiblePerson(v string) { l.ResponsiblePerson = normalizeString(v) }
func (l *Ladder) SetSerialNumber(v string)      { l.SerialNumber = normalizeString(v) }
func (l *Ladder) SetNotes(v string)             { l.Notes = normalizeString(v) }

// SetLadderType rejects unknown types.
func (l *Ladder) SetLadderType(v string) error {
	t, err := ParseLadderType(v)
	if err != nil {
		return err
	}
	l.LadderType = t
	return nil
}

// SetMaterial rejects unknown materials.
func (l *Ladder) SetMaterial(v string) error {
	m, err := ParseMaterial(v)
	if err != nil {
		return err
	}
	l.Material = m
	return nil
}

// SetStatus rejects unknown statuses.
func (l *Ladder) SetStatus(v string) error {
	s, err := ParseLadderStatus(v)
	if err != nil {
		return err
	}
	l.Status = s
	return nil
}

// SetMaxLoadKg requires a positive load.
func (l *Ladder) SetMaxLoadKg(kg int) error {
	if kg <= 0 {
		return invalidValue("max_load_kg", kg, "must be greater than 0")
	}
	l.MaxLoadKg = kg
	return nil
}

// SetHeightCm requires a positive height.
func (l *Ladder) SetHeightCm(cm int) error {
	if cm <= 0 {
		return invalidValue("height_cm", cm, "must be greater than 0")
	}
	l.HeightCm = cm
	return nil
}

// SetInspectionIntervalMonths requires a positive interval.
func (l *Ladder) SetInspectionIntervalMonths(months int) error {
	if months <= 0 {
		return invalidValue("inspection_interval_months", months, "must be greater than 0")
	}
	l.InspectionIntervalMonths = months
	return nil
}

// SetPurchaseDate parses an optional date; blank clears it.
func (l *Ladder) SetPurchaseDate(raw string) error {
	d, err := parseOptionalDate("purchase_date", raw)
	if err != nil {
		return err
	}
	l.PurchaseDate = d
	return nil
}

// SetNextInspectionDate parses the due date.
func (l *Ladder) SetNextInspectionDate(raw string) error {
	d, err := ParseDate("next_inspection_date", raw)
	if err != nil {
		return err
	}
	l.NextInspectionDate = &d
	return nil
}

// Validate reports every problem with the ladder in a fixed order. It never fails.
func (l *Ladder) Validate() []string {
	errs := make([]string, 0)

	if l.LadderNumber == "" {
		errs = append(errs, MsgLadderNumberRequired)
	}
	if l.Manufacturer == "" {
		errs = append(errs, MsgManufacturerRequired)
	}
	if l.LadderType == "" {
		errs = append(errs, MsgLadderTypeRequired)
	} else if !l.LadderType.Valid() {
		errs = append(errs, MsgLadderTypeInvalid)
	}
	if l.Location == "" {
		errs = append(errs, MsgLocationRequired)
	}
	if l.NextInspectionDate == nil {
		errs = append(errs, MsgLadderNextDateRequired)
	}
	if l.Material != "" && !l.Material.Valid() {
		errs = append(errs, MsgMaterialInvalid)
	}
	if l.Status != "" && !l.Status.Valid() {
		errs = append(errs, MsgStatusInvalid)
	}
	if l.MaxLoadKg <= 0 {
		errs = append(errs, MsgMaxLoadPositive)
	}
	if l.HeightCm <= 0 {
		errs = append(errs, MsgHeightPositive)
	}
	if l.InspectionIntervalMonths <= 0 {
		errs = append(errs, MsgInspectionIntervalPositive)
	}

	return errs
}

// NeedsInspection is true when the due date is today or already past. A ladder
// without a due date is always due.
func (l *Ladder) NeedsInspection() bool {
	return l.NeedsInspectionOn(Today())
}

// NeedsInspectionOn evaluates NeedsInspection against the given day.
func (l *Ladder) NeedsInspectionOn(day time.Time) bool {
	if l.NextInspectionDate == nil {
		return true
	}
	return !DateOf(*l.NextInspectionDate).After(DateOf(day))
}

// DaysUntilInspection returns the signed number of days until the due date;
// negative values mean overdue. Zero is returned when no date is set.
func (l *Ladder) DaysUntilInspection() int {
	return l.DaysUntilInspectionFrom(Today())
}

// DaysUntilInspectionFrom evaluates DaysUntilInspection against the given day.
func (l *Ladder) DaysUntilInspectionFrom(day time.Time) int {
	if l.NextInspectionDate == nil {
		return 0
	}
	return daysBetween(DateOf(day), DateOf(*l.NextInspectionDate))
}

// CalculateNextInspectionDate adds the inspection interval to base, or to today
// when base is nil.
func (l *Ladder) CalculateNextInspectionDate(base *time.Time) time.Time {
	start := Today()
	if base != nil {
		start = DateOf(*base)
	}
	months := l.InspectionIntervalMonths
	if months <= 0 {
		months = DefaultInspectionIntervalMonths
	}
	return start.AddDate(0, months, 0)
}

// Dispose retires the ladder.
func (l *Ladder) Dispose() {
	l.Status = LadderStatusDisposed
}

// IsDisposed reports whether the ladder was retired.
func (l *Ladder) IsDisposed() bool {
	return l.Status == LadderStatusDisposed
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func enumStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
