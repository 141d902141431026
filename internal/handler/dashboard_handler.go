package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ladder-inspection-api/internal/dto"
	"github.com/noah-isme/ladder-inspection-api/internal/middleware"
	"github.com/noah-isme/ladder-inspection-api/internal/models"
	appErrors "github.com/noah-isme/ladder-inspection-api/pkg/errors"
	"github.com/noah-isme/ladder-inspection-api/pkg/response"
)

type dashboardService interface {
	Summary(ctx context.Context) (*dto.DashboardResponse, error)
	Metrics() models.SystemMetrics
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
	enabled bool
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService, enabled bool) *DashboardHandler {
	return &DashboardHandler{service: service, enabled: enabled}
}

// Summary godoc
// @Summary Fleet summary
// @Description Ladder counts by status, overdue and due-soon inspections and recent results
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	if !h.enabled {
		response.Error(c, appErrors.ErrFeatureDisabled)
		return
	}
	res, err := h.service.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, res.Cached)
	response.JSON(c, http.StatusOK, res.Summary, nil, middleware.ResponseMeta(c))
}

// Metrics godoc
// @Summary Process metrics
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /dashboard/metrics [get]
func (h *DashboardHandler) Metrics(c *gin.Context) {
	if !h.enabled {
		response.Error(c, appErrors.ErrFeatureDisabled)
		return
	}
	response.JSON(c, http.StatusOK, h.service.Metrics(), nil)
}
