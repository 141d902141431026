package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ladder-inspection-api/internal/models"
	appErrors "github.com/noah-isme/ladder-inspection-api/pkg/errors"
	"github.com/noah-isme/ladder-inspection-api/pkg/response"
)

type exportService interface {
	LadderRegister(ctx context.Context, filter models.LadderFilter, format models.ExportFormat) (*models.ExportFile, error)
	InspectionProtocol(ctx context.Context, id string) (*models.ExportFile, error)
}

// ExportHandler streams register exports and inspection protocols.
type ExportHandler struct {
	service exportService
	enabled bool
}

// NewExportHandler constructs the handler. A disabled handler answers every
// request with FEATURE_DISABLED.
func NewExportHandler(svc exportService, enabled bool) *ExportHandler {
	return &ExportHandler{service: svc, enabled: enabled}
}

// LadderRegister godoc
// @Summary Export ladder register
// @Description Accepts the same filters as the ladder list
// @Tags Exports
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv, xlsx or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /ladders/export [get]
func (h *ExportHandler) LadderRegister(c *gin.Context) {
	if !h.enabled {
		response.Error(c, appErrors.ErrFeatureDisabled)
		return
	}
	format, err := models.ParseExportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	filter, err := ladderFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	file, err := h.service.LadderRegister(c.Request.Context(), filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

// InspectionProtocol godoc
// @Summary Inspection protocol PDF
// @Tags Exports
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Inspection ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /inspections/{id}/protocol [get]
func (h *ExportHandler) InspectionProtocol(c *gin.Context) {
	if !h.enabled {
		response.Error(c, appErrors.ErrFeatureDisabled)
		return
	}
	file, err := h.service.InspectionProtocol(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
