package dto

import "github.com/noah-isme/ladder-inspection-api/internal/models"

// LadderRequest is the payload for creating or updating a ladder. Every field
// is optional on update.
type LadderRequest struct {
	LadderNumber             *string `json:"ladder_number,omitempty" validate:"omitempty,max=50"`
	Manufacturer             *string `json:"manufacturer,omitempty" validate:"omitempty,max=100"`
	Model                    *string `json:"model,omitempty" validate:"omitempty,max=100"`
	LadderType               *string `json:"ladder_type,omitempty"`
	Material                 *string `json:"material,omitempty"`
	MaxLoadKg                *int    `json:"max_load_kg,omitempty"`
	HeightCm                 *int    `json:"height_cm,omitempty"`
	PurchaseDate             *string `json:"purchase_date,omitempty"`
	Location                 *string `json:"location,omitempty" validate:"omitempty,max=200"`
	Department               *string `json:"department,omitempty" validate:"omitempty,max=100"`
	ResponsiblePerson        *string `json:"responsible_person,omitempty" validate:"omitempty,max=100"`
	SerialNumber             *string `json:"serial_number,omitempty" validate:"omitempty,max=100"`
	Notes                    *string `json:"notes,omitempty"`
	Status                   *string `json:"status,omitempty"`
	NextInspectionDate       *string `json:"next_inspection_date,omitempty"`
	InspectionIntervalMonths *int    `json:"inspection_interval_months,omitempty"`
}

// Fields converts the request into the field map accepted by models.NewLadder.
func (r LadderRequest) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	put(fields, "ladder_number", r.LadderNumber)
	put(fields, "manufacturer", r.Manufacturer)
	put(fields, "model", r.Model)
	put(fields, "ladder_type", r.LadderType)
	put(fields, "material", r.Material)
	put(fields, "max_load_kg", r.MaxLoadKg)
	put(fields, "height_cm", r.HeightCm)
	put(fields, "purchase_date", r.PurchaseDate)
	put(fields, "location", r.Location)
	put(fields, "department", r.Department)
	put(fields, "responsible_person", r.ResponsiblePerson)
	put(fields, "serial_number", r.SerialNumber)
	put(fields, "notes", r.Notes)
	put(fields, "status", r.Status)
	put(fields, "next_inspection_date", r.NextInspectionDate)
	put(fields, "inspection_interval_months", r.InspectionIntervalMonths)
	return fields
}

// LadderDueResponse lists ladders due within a window.
type LadderDueResponse struct {
	Until   string          `json:"until"`
	Days    int             `json:"days"`
	Ladders []models.Ladder `json:"ladders"`
}
