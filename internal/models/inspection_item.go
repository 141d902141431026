package models

import (
	"time"
)

// ItemCategory groups checkpoints of an inspection.
type ItemCategory string

const (
	ItemCategoryStructure   ItemCategory = "structure"
	ItemCategorySafety      ItemCategory = "safety"
	ItemCategoryFunction    ItemCategory = "function"
	ItemCategoryMarking     ItemCategory = "marking"
	ItemCategoryAccessories ItemCategory = "accessories"
)

// ItemCategories lists the accepted categories.
var ItemCategories = []ItemCategory{ItemCategoryStructure, ItemCategorySafety, ItemCategoryFunction, ItemCategoryMarking, ItemCategoryAccessories}

// Valid reports whether c is a known category.
func (c ItemCategory) Valid() bool {
	for _, known := range ItemCategories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseItemCategory converts raw input into an ItemCategory.
func ParseItemCategory(raw string) (ItemCategory, error) {
	c := ItemCategory(raw)
	if !c.Valid() {
		return "", invalidEnum("category", raw, enumStrings(ItemCategories))
	}
	return c, nil
}

// ItemResult is the finding recorded for a checkpoint.
type ItemResult string

const (
	ItemResultOK            ItemResult = "ok"
	ItemResultDefect        ItemResult = "defect"
	ItemResultWear          ItemResult = "wear"
	ItemResultNotApplicable ItemResult = "not_applicable"
)

// ItemResults lists the accepted results.
var ItemResults = []ItemResult{ItemResultOK, ItemResultDefect, ItemResultWear, ItemResultNotApplicable}

// Valid reports whether r is a known result.
func (r ItemResult) Valid() bool {
	for _, known := range ItemResults {
		if r == known {
			return true
		}
	}
	return false
}

// ParseItemResult converts raw input into an ItemResult.
func ParseItemResult(raw string) (ItemResult, error) {
	r := ItemResult(raw)
	if !r.Valid() {
		return "", invalidEnum("result", raw, enumStrings(ItemResults))
	}
	return r, nil
}

// Severity grades a defect. It is only meaningful when the result is defect.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities lists the accepted severities.
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	for _, known := range Severities {
		if s == known {
			return true
		}
	}
	return false
}

// ParseSeverity converts raw input into a Severity.
func ParseSeverity(raw string) (Severity, error) {
	s := Severity(raw)
	if !s.Valid() {
		return "", invalidEnum("severity", raw, enumStrings(Severities))
	}
	return s, nil
}

// Validation messages reported by InspectionItem.Validate.
const (
	MsgItemNameRequired = "item_name is required"
	MsgCategoryInvalid  = "category is invalid"
	MsgResultInvalid    = "result is invalid"
	MsgSeverityInvalid  = "severity is invalid"
)

// InspectionItem is one checked point within an inspection.
type InspectionItem struct {
	ID             string       `db:"id" json:"id,omitempty"`
	InspectionID   string       `db:"inspection_id" json:"inspection_id,omitempty"`
	Category       ItemCategory `db:"category" json:"category"`
	ItemName       string       `db:"item_name" json:"item_name"`
	Description    *string      `db:"description" json:"description,omitempty"`
	Result         ItemResult   `db:"result" json:"result"`
	Severity       *Severity    `db:"severity" json:"severity,omitempty"`
	RepairRequired bool         `db:"repair_required" json:"repair_required"`
	RepairDeadline *time.Time   `db:"repair_deadline" json:"repair_deadline,omitempty"`
	PhotoPath      *string      `db:"photo_path" json:"photo_path,omitempty"`
	Notes          *string      `db:"notes" json:"notes,omitempty"`
	SortOrder      int          `db:"sort_order" json:"sort_order"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
}

// NewInspectionItem builds an item from a field map. Unknown keys are ignored.
func NewInspectionItem(data map[string]interface{}) (*InspectionItem, error) {
	item := &InspectionItem{Category: ItemCategoryStructure, Result: ItemResultOK}
	if err := item.Fill(data); err != nil {
		return nil, err
	}
	return item, nil
}

var itemFields = []struct {
	key   string
	apply func(it *InspectionItem, v interface{}) error
}{
	{"id", func(it *InspectionItem, v interface{}) error { it.ID = stringValue(v); return nil }},
	{"inspection_id", func(it *InspectionItem, v interface{}) error { it.InspectionID = stringValue(v); return nil }},
	{"category", func(it *InspectionItem, v interface{}) error { return it.SetCategory(stringValue(v)) }},
	{"item_name", func(it *InspectionItem, v interface{}) error { it.SetItemName(stringValue(v)); return nil }},
	{"description", func(it *InspectionItem, v interface{}) error { it.SetDescription(stringValue(v)); return nil }},
	{"result", func(it *InspectionItem, v interface{}) error { return it.SetResult(stringValue(v)) }},
	{"severity", func(it *InspectionItem, v interface{}) error { return it.SetSeverity(stringValue(v)) }},
	{"repair_required", func(it *InspectionItem, v interface{}) error { it.RepairRequired = boolValue(v); return nil }},
	{"repair_deadline", func(it *InspectionItem, v interface{}) error { return it.SetRepairDeadline(stringValue(v)) }},
	{"photo_path", func(it *InspectionItem, v interface{}) error { it.SetPhotoPath(stringValue(v)); return nil }},
	{"notes", func(it *InspectionItem, v interface{}) error { it.SetNotes(stringValue(v)); return nil }},
	{"sort_order", func(it *InspectionItem, v interface{}) error {
		if isBlank(v) {
			return nil
		}
		n, err := intValue("sort_order", v)
		if err != nil {
			return err
		}
		it.SortOrder = n
		return nil
	}},
}

// Fill applies every recognised key of data atomically.
func (it *InspectionItem) Fill(data map[string]interface{}) error {
	draft := *it
	for _, field := range itemFields {
		v, ok := data[field.key]
		if !ok {
			continue
		}
		if err := field.apply(&draft, v); err != nil {
			return err
		}
	}
	*it = draft
	return nil
}

// SetCategory rejects unknown categories.
func (it *InspectionItem) SetCategory(v string) error {
	c, err := ParseItemCategory(v)
	if err != nil {
		return err
	}
	it.Category = c
	return nil
}

// SetResult rejects unknown results.
func (it *InspectionItem) SetResult(v string) error {
	r, err := ParseItemResult(v)
	if err != nil {
		return err
	}
	it.Result = r
	return nil
}

// SetSeverity rejects unknown severities; blank clears it.
func (it *InspectionItem) SetSeverity(v string) error {
	if normalizeString(v) == nil {
		it.Severity = nil
		return nil
	}
	s, err := ParseSeverity(v)
	if err != nil {
		return err
	}
	it.Severity = &s
	return nil
}

// SetRepairDeadline parses an optional date.
func (it *InspectionItem) SetRepairDeadline(raw string) error {
	d, err := parseOptionalDate("repair_deadline", raw)
	if err != nil {
		return err
	}
	it.RepairDeadline = d
	return nil
}

func (it *InspectionItem) SetItemName(v string)    { it.ItemName = derefOrEmpty(normalizeString(v)) }
func (it *InspectionItem) SetDescription(v string) { it.Description = normalizeString(v) }
func (it *InspectionItem) SetPhotoPath(v string)   { it.PhotoPath = normalizeString(v) }
func (it *InspectionItem) SetNotes(v string)       { it.Notes = normalizeString(v) }

// Validate reports problems with the item in a fixed order.
func (it *InspectionItem) Validate() []string {
	errs := make([]string, 0)
	if it.ItemName == "" {
		errs = append(errs, MsgItemNameRequired)
	}
	if !it.Category.Valid() {
		errs = append(errs, MsgCategoryInvalid)
	}
	if !it.Result.Valid() {
		errs = append(errs, MsgResultInvalid)
	}
	if it.Severity != nil && !it.Severity.Valid() {
		errs = append(errs, MsgSeverityInvalid)
	}
	return errs
}

func (it InspectionItem) clone() InspectionItem {
	out := it
	out.Description = cloneString(it.Description)
	out.PhotoPath = cloneString(it.PhotoPath)
	out.Notes = cloneString(it.Notes)
	out.RepairDeadline = cloneTime(it.RepairDeadline)
	if it.Severity != nil {
		s := *it.Severity
		out.Severity = &s
	}
	return out
}

// cloneItems deep-copies items so no pointer field is shared with the caller.
func cloneItems(items []InspectionItem) []InspectionItem {
	if items == nil {
		return nil
	}
	out := make([]InspectionItem, len(items))
	for i, item := range items {
		out[i] = item.clone()
	}
	return out
}

// IsDefect reports whether the item was recorded as a defect.
func (it InspectionItem) IsDefect() bool {
	return it.Result == ItemResultDefect
}

// IsCritical reports a defect graded critical.
func (it InspectionItem) IsCritical() bool {
	return it.Classify() == DefectCritical
}

// IsRepairOverdue is true when a required repair's deadline has passed.
func (it InspectionItem) IsRepairOverdue() bool {
	return it.IsRepairOverdueOn(Today())
}

// IsRepairOverdueOn evaluates IsRepairOverdue against the given day.
func (it InspectionItem) IsRepairOverdueOn(day time.Time) bool {
	if !it.RepairRequired || it.RepairDeadline == nil {
		return false
	}
	return DateOf(*it.RepairDeadline).Before(DateOf(day))
}
