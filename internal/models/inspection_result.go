package models

// OverallResult is the final verdict of an inspection.
type OverallResult string

const (
	ResultPassed      OverallResult = "passed"
	ResultFailed      OverallResult = "failed"
	ResultConditional OverallResult = "conditional"
)

// OverallResults lists the accepted verdicts.
var OverallResults = []OverallResult{ResultPassed, ResultFailed, ResultConditional}

// Valid reports whether r is a known verdict.
func (r OverallResult) Valid() bool {
	for _, known := range OverallResults {
		if r == known {
			return true
		}
	}
	return false
}

// ParseOverallResult converts raw input into an OverallResult.
func ParseOverallResult(raw string) (OverallResult, error) {
	r := OverallResult(raw)
	if !r.Valid() {
		return "", invalidEnum("overall_result", raw, enumStrings(OverallResults))
	}
	return r, nil
}

// DefectClass is what a single item contributes to the overall result.
type DefectClass int

const (
	DefectNone DefectClass = iota
	DefectMinor
	DefectCritical
)

// String returns a readable name.
func (c DefectClass) String() string {
	switch c {
	case DefectMinor:
		return "minor"
	case DefectCritical:
		return "critical"
	default:
		return "none"
	}
}

// ClassifyItem maps a result/severity pair onto a defect class. A defect with
// no severity counts as minor.
func ClassifyItem(result ItemResult, severity *Severity) DefectClass {
	if result != ItemResultDefect {
		return DefectNone
	}
	if severity != nil && *severity == SeverityCritical {
		return DefectCritical
	}
	return DefectMinor
}

// Classify applies ClassifyItem to the item.
func (it InspectionItem) Classify() DefectClass {
	return ClassifyItem(it.Result, it.Severity)
}

// CalculateOverallResult reduces items to a verdict: any critical defect fails
// the inspection, any other defect makes it conditional, otherwise it passes.
// An empty list is conditional.
func CalculateOverallResult(items []InspectionItem) OverallResult {
	if len(items) == 0 {
		return ResultConditional
	}

	worst := DefectNone
	for _, item := range items {
		if class := item.Classify(); class > worst {
			worst = class
			if worst == DefectCritical {
				break
			}
		}
	}

	switch worst {
	case DefectCritical:
		return ResultFailed
	case DefectMinor:
		return ResultConditional
	default:
		return ResultPassed
	}
}

// Defects returns the items recorded as defects, keeping their order.
func Defects(items []InspectionItem) []InspectionItem {
	out := make([]InspectionItem, 0)
	for _, item := range items {
		if item.IsDefect() {
			out = append(out, item)
		}
	}
	return out
}

// CriticalDefects returns the defects graded critical, keeping their order.
func CriticalDefects(items []InspectionItem) []InspectionItem {
	out := make([]InspectionItem, 0)
	for _, item := range items {
		if item.IsCritical() {
			out = append(out, item)
		}
	}
	return out
}

// OverdueRepairs returns defects whose repair deadline has passed.
func OverdueRepairs(items []InspectionItem) []InspectionItem {
	out := make([]InspectionItem, 0)
	for _, item := range items {
		if item.IsRepairOverdue() {
			out = append(out, item)
		}
	}
	return out
}
