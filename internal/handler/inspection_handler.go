package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ladder-inspection-api/internal/dto"
	"github.com/noah-isme/ladder-inspection-api/internal/models"
	appErrors "github.com/noah-isme/ladder-inspection-api/pkg/errors"
	"github.com/noah-isme/ladder-inspection-api/pkg/response"
)

type inspectionService interface {
	Create(ctx context.Context, req dto.InspectionRequest, meta models.AuditMeta) (*models.Inspection, error)
	Update(ctx context.Context, id string, req dto.InspectionRequest) (*models.Inspection, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*models.Inspection, error)
	List(ctx context.Context, filter models.InspectionFilter) ([]*models.Inspection, *models.Pagination, error)
	ListByLadder(ctx context.Context, ladderID string, filter models.InspectionFilter) ([]*models.Inspection, *models.Pagination, error)
	Preview(ctx context.Context, req dto.ResultPreviewRequest) (*dto.ResultPreviewResponse, error)
	Defects(ctx context.Context, id string) (*dto.DefectReport, error)
}

// InspectionHandler records and reads inspection protocols.
type InspectionHandler struct {
	service inspectionService
}

// NewInspectionHandler constructs the handler.
func NewInspectionHandler(svc inspectionService) *InspectionHandler {
	return &InspectionHandler{service: svc}
}

// Create godoc
// @Summary Record inspection
// @Description Stores an inspection with its items. The inspector defaults to the caller and the overall result is derived from the items when omitted.
// @Tags Inspections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.InspectionRequest true "Inspection"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /inspections [post]
func (h *InspectionHandler) Create(c *gin.Context) {
	var req dto.InspectionRequest
	if !bindJSON(c, &req) {
		return
	}

	insp, err := h.service.Create(c.Request.Context(), req, auditMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, insp)
}

// Get godoc
// @Summary Get inspection
// @Tags Inspections
// @Produce json
// @Security BearerAuth
// @Param id path string true "Inspection ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /inspections/{id} [get]
func (h *InspectionHandler) Get(c *gin.Context) {
	insp, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, insp, nil)
}

// List godoc
// @Summary List inspections
// @Tags Inspections
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param ladder_id query string false "Ladder ID"
// @Param inspector_id query string false "Inspector ID"
// @Param overall_result query string false "passed, failed or conditional"
// @Param inspection_type query string false "Inspection type"
// @Param date_from query string false "YYYY-MM-DD"
// @Param date_to query string false "YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /inspections [get]
func (h *InspectionHandler) List(c *gin.Context) {
	filter, err := inspectionFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// ListByLadder godoc
// @Summary Inspection history of a ladder
// @Tags Inspections
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ladder ID"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /ladders/{id}/inspections [get]
func (h *InspectionHandler) ListByLadder(c *gin.Context) {
	filter, err := inspectionFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	items, pagination, err := h.service.ListByLadder(c.Request.Context(), c.Param("id"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Update godoc
// @Summary Update inspection
// @Description Stored inspections are immutable; this always fails with 409 for existing records
// @Tags Inspections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Inspection ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /inspections/{id} [patch]
func (h *InspectionHandler) Update(c *gin.Context) {
	var req dto.InspectionRequest
	if !bindJSON(c, &req) {
		return
	}

	insp, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, insp, nil)
}

// Delete godoc
// @Summary Delete inspection
// @Description Stored inspections are immutable; this always fails with 409 for existing records
// @Tags Inspections
// @Security BearerAuth
// @Param id path string true "Inspection ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /inspections/{id} [delete]
func (h *InspectionHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Preview godoc
// @Summary Preview overall result
// @Description Classifies items and derives the overall result without storing anything
// @Tags Inspections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ResultPreviewRequest true "Items"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /inspections/preview [post]
func (h *InspectionHandler) Preview(c *gin.Context) {
	var req dto.ResultPreviewRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.service.Preview(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Defects godoc
// @Summary Defect report
// @Tags Inspections
// @Produce json
// @Security BearerAuth
// @Param id path string true "Inspection ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /inspections/{id}/defects [get]
func (h *InspectionHandler) Defects(c *gin.Context) {
	res, err := h.service.Defects(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

func inspectionFilterFromQuery(c *gin.Context) (models.InspectionFilter, error) {
	var filter models.InspectionFilter
	filter.Page, filter.PageSize = paging(c)
	filter.LadderID = c.Query("ladder_id")
	filter.InspectorID = c.Query("inspector_id")
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")

	if raw := strings.TrimSpace(c.Query("overall_result")); raw != "" {
		result, err := models.ParseOverallResult(raw)
		if err != nil {
			return filter, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
		}
		filter.OverallResult = &result
	}
	if raw := strings.TrimSpace(c.Query("inspection_type")); raw != "" {
		inspType, err := models.ParseInspectionType(raw)
		if err != nil {
			return filter, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
		}
		filter.InspectionType = &inspType
	}

	var err error
	if filter.DateFrom, err = queryDate(c, "date_from"); err != nil {
		return filter, err
	}
	if filter.DateTo, err = queryDate(c, "date_to"); err != nil {
		return filter, err
	}
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateTo.Before(*filter.DateFrom) {
		return filter, appErrors.Clone(appErrors.ErrValidation, "date_to must not be before date_from")
	}
	return filter, nil
}
