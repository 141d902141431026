package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ladder-inspection-api/internal/dto"
	"github.com/noah-isme/ladder-inspection-api/internal/models"
)

type fakeDashboardSrv struct {
	cached bool
}

func (f *fakeDashboardSrv) Summary(context.Context) (*dto.DashboardResponse, error) {
	return &dto.DashboardResponse{
		Summary: models.DashboardSummary{TotalLadders: 12, OverdueLadders: 2},
		Cached:  f.cached,
	}, nil
}

func (f *fakeDashboardSrv) Metrics() models.SystemMetrics {
	return models.SystemMetrics{InspectionsRecorded: 4}
}

func newDashboardRouter(svc *fakeDashboardSrv, enabled bool) http.Handler {
	h := NewDashboardHandler(svc, enabled)
	r := testRouter(inspectorClaims)
	r.GET("/dashboard", h.Summary)
	r.GET("/dashboard/metrics", h.Metrics)
	return r
}

func TestDashboardHandlerSummary(t *testing.T) {
	rec := doJSON(newDashboardRouter(&fakeDashboardSrv{cached: true}, true), http.MethodGet, "/dashboard", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Contains(t, env.Meta, "processing_time_ms")
	assert.Contains(t, string(env.Data), `"total_ladders":12`)
}

func TestDashboardHandlerMetrics(t *testing.T) {
	rec := doJSON(newDashboardRouter(&fakeDashboardSrv{}, true), http.MethodGet, "/dashboard/metrics", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(decodeEnvelope(t, rec).Data), `"inspections_recorded":4`)
}

func TestDashboardHandlerDisabled(t *testing.T) {
	router := newDashboardRouter(&fakeDashboardSrv{}, false)
	assert.Equal(t, http.StatusNotFound, doJSON(router, http.MethodGet, "/dashboard", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(router, http.MethodGet, "/dashboard/metrics", nil).Code)
}
