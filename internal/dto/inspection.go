package dto

import "github.com/noah-isme/ladder-inspection-api/internal/models"

// InspectionRequest is the payload for recording an inspection. The inspector
// defaults to the signed-in user.
type InspectionRequest struct {
	LadderID                  string                  `json:"ladder_id"`
	InspectorID               string                  `json:"inspector_id,omitempty"`
	InspectionDate            *string                 `json:"inspection_date,omitempty"`
	InspectionType            *string                 `json:"inspection_type,omitempty"`
	OverallResult             *string                 `json:"overall_result,omitempty"`
	NextInspectionDate        *string                 `json:"next_inspection_date,omitempty"`
	InspectionDurationMinutes *int                    `json:"inspection_duration_minutes,omitempty"`
	WeatherConditions         *string                 `json:"weather_conditions,omitempty" validate:"omitempty,max=100"`
	TemperatureCelsius        *float64                `json:"temperature_celsius,omitempty"`
	GeneralNotes              *string                 `json:"general_notes,omitempty"`
	Recommendations           *string                 `json:"recommendations,omitempty"`
	DefectsFound              *string                 `json:"defects_found,omitempty"`
	ActionsRequired           *string                 `json:"actions_required,omitempty"`
	InspectorSignature        *string                 `json:"inspector_signature,omitempty"`
	SupervisorApprovalID      *string                 `json:"supervisor_approval_id,omitempty"`
	ApprovalDate              *string                 `json:"approval_date,omitempty"`
	Items                     []InspectionItemRequest `json:"items" validate:"max=200,dive"`
}

// Fields converts the header of the request into the field map accepted by
// models.NewInspection. Items are handled separately.
func (r InspectionRequest) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		"ladder_id":    r.LadderID,
		"inspector_id": r.InspectorID,
	}
	put(fields, "inspection_date", r.InspectionDate)
	put(fields, "inspection_type", r.InspectionType)
	put(fields, "overall_result", r.OverallResult)
	put(fields, "next_inspection_date", r.NextInspectionDate)
	put(fields, "inspection_duration_minutes", r.InspectionDurationMinutes)
	put(fields, "weather_conditions", r.WeatherConditions)
	put(fields, "temperature_celsius", r.TemperatureCelsius)
	put(fields, "general_notes", r.GeneralNotes)
	put(fields, "recommendations", r.Recommendations)
	put(fields, "defects_found", r.DefectsFound)
	put(fields, "actions_required", r.ActionsRequired)
	put(fields, "inspector_signature", r.InspectorSignature)
	put(fields, "supervisor_approval_id", r.SupervisorApprovalID)
	put(fields, "approval_date", r.ApprovalDate)
	return fields
}

// InspectionItemRequest is one checkpoint of an inspection payload.
type InspectionItemRequest struct {
	Category       *string `json:"category,omitempty"`
	ItemName       string  `json:"item_name" validate:"max=200"`
	Description    *string `json:"description,omitempty"`
	Result         *string `json:"result,omitempty"`
	Severity       *string `json:"severity,omitempty"`
	RepairRequired *bool   `json:"repair_required,omitempty"`
	RepairDeadline *string `json:"repair_deadline,omitempty"`
	PhotoPath      *string `json:"photo_path,omitempty" validate:"omitempty,max=255"`
	Notes          *string `json:"notes,omitempty"`
	SortOrder      *int    `json:"sort_order,omitempty"`
}

// Fields converts the item into the field map accepted by models.NewInspectionItem.
func (r InspectionItemRequest) Fields() map[string]interface{} {
	fields := map[string]interface{}{"item_name": r.ItemName}
	put(fields, "category", r.Category)
	put(fields, "description", r.Description)
	put(fields, "result", r.Result)
	put(fields, "severity", r.Severity)
	put(fields, "repair_required", r.RepairRequired)
	put(fields, "repair_deadline", r.RepairDeadline)
	put(fields, "photo_path", r.PhotoPath)
	put(fields, "notes", r.Notes)
	put(fields, "sort_order", r.SortOrder)
	return fields
}

// ResultPreviewRequest asks for the verdict an item list would produce.
type ResultPreviewRequest struct {
	Items []InspectionItemRequest `json:"items" validate:"max=200,dive"`
}

// ResultPreviewResponse is the computed verdict for a preview request.
type ResultPreviewResponse struct {
	OverallResult   models.OverallResult `json:"overall_result"`
	DefectCount     int                  `json:"defect_count"`
	CriticalCount   int                  `json:"critical_count"`
	ItemClasses     []string             `json:"item_classes"`
	ValidationNotes []string             `json:"validation_notes,omitempty"`
}

// DefectReport lists the findings of a stored inspection.
type DefectReport struct {
	InspectionID    string                  `json:"inspection_id"`
	LadderID        string                  `json:"ladder_id"`
	OverallResult   models.OverallResult    `json:"overall_result"`
	Defects         []models.InspectionItem `json:"defects"`
	CriticalDefects []models.InspectionItem `json:"critical_defects"`
	OverdueRepairs  []models.InspectionItem `json:"overdue_repairs"`
}

// PhotoUploadResponse describes a stored item photo.
type PhotoUploadResponse struct {
	Path        string `json:"path"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"download_url"`
	ExpiresAt   string `json:"expires_at"`
}
