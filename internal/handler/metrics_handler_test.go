package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMetricsHandlerReady(t *testing.T) {
	up := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	gin.SetMode(gin.TestMode)
	healthy := gin.New()
	healthy.GET("/ready", NewMetricsHandler(nil, map[string]Pinger{"postgres": up, "redis": up}, nil).Ready)
	rec := doJSON(healthy, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"up"`)

	degraded := gin.New()
	degraded.GET("/ready", NewMetricsHandler(nil, map[string]Pinger{"postgres": up, "redis": down}, nil).Ready)
	rec = doJSON(degraded, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"down"`)
}

func TestMetricsHandlerPrometheusWithoutRegistry(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewMetricsHandler(nil, nil, nil)
	r.GET("/metrics", h.Prometheus)
	r.GET("/health", h.Health)

	assert.Equal(t, http.StatusServiceUnavailable, doJSON(r, http.MethodGet, "/metrics", nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/health", nil).Code)
}
