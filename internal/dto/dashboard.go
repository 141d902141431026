package dto

import "github.com/noah-isme/ladder-inspection-api/internal/models"

// DashboardResponse wraps the summary with cache provenance.
type DashboardResponse struct {
	Summary models.DashboardSummary `json:"summary"`
	Cached  bool                    `json:"cached"`
}
