package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ladder-inspection-api/internal/models"
	appErrors "github.com/noah-isme/ladder-inspection-api/pkg/errors"
)

type fakeExportService struct {
	lastFormat models.ExportFormat
	lastFilter models.LadderFilter
}

func (f *fakeExportService) LadderRegister(_ context.Context, filter models.LadderFilter, format models.ExportFormat) (*models.ExportFile, error) {
	f.lastFilter = filter
	f.lastFormat = format
	return &models.ExportFile{Filename: "ladder-register." + string(format), ContentType: format.ContentType(), Data: []byte("data")}, nil
}

func (f *fakeExportService) InspectionProtocol(_ context.Context, id string) (*models.ExportFile, error) {
	if id != "insp-1" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "inspection not found")
	}
	return &models.ExportFile{Filename: "inspection-L-001-2026-03-09.pdf", ContentType: models.ExportFormatPDF.ContentType(), Data: []byte("%PDF")}, nil
}

func newExportRouter(svc *fakeExportService, enabled bool) http.Handler {
	h := NewExportHandler(svc, enabled)
	r := testRouter(inspectorClaims)
	r.GET("/ladders/export", h.LadderRegister)
	r.GET("/inspections/:id/protocol", h.InspectionProtocol)
	return r
}

func TestExportHandlerLadderRegister(t *testing.T) {
	svc := &fakeExportService{}
	rec := doJSON(newExportRouter(svc, true), http.MethodGet, "/ladders/export?format=xlsx&status=active", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ExportFormatXLSX, svc.lastFormat)
	require.NotNil(t, svc.lastFilter.Status)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "ladder-register.xlsx")
	assert.Equal(t, models.ExportFormatXLSX.ContentType(), rec.Header().Get("Content-Type"))
}

func TestExportHandlerRejectsUnknownFormat(t *testing.T) {
	rec := doJSON(newExportRouter(&fakeExportService{}, true), http.MethodGet, "/ladders/export?format=doc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportHandlerProtocol(t *testing.T) {
	router := newExportRouter(&fakeExportService{}, true)

	rec := doJSON(router, http.MethodGet, "/inspections/insp-1/protocol", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "%PDF", rec.Body.String())

	assert.Equal(t, http.StatusNotFound, doJSON(router, http.MethodGet, "/inspections/other/protocol", nil).Code)
}

func TestExportHandlerDisabled(t *testing.T) {
	rec := doJSON(newExportRouter(&fakeExportService{}, false), http.MethodGet, "/ladders/export", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, appErrors.ErrFeatureDisabled.Code, decodeEnvelope(t, rec).Error.Code)
}
