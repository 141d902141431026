package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ladder-inspection-api/internal/dto"
	"github.com/noah-isme/ladder-inspection-api/internal/models"
	appErrors "github.com/noah-isme/ladder-inspection-api/pkg/errors"
	"github.com/noah-isme/ladder-inspection-api/pkg/response"
)

type ladderService interface {
	List(ctx context.Context, filter models.LadderFilter) ([]models.Ladder, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Ladder, error)
	Create(ctx context.Context, req dto.LadderRequest, meta models.AuditMeta) (*models.Ladder, error)
	Update(ctx context.Context, id string, req dto.LadderRequest, meta models.AuditMeta) (*models.Ladder, error)
	Dispose(ctx context.Context, id string, meta models.AuditMeta) (*models.Ladder, error)
	Due(ctx context.Context, days int) (*dto.LadderDueResponse, error)
}

// LadderHandler serves the ladder register.
type LadderHandler struct {
	service ladderService
}

// NewLadderHandler constructs the handler.
func NewLadderHandler(svc ladderService) *LadderHandler {
	return &LadderHandler{service: svc}
}

// List godoc
// @Summary List ladders
// @Tags Ladders
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param status query string false "active, inactive, defective or disposed"
// @Param ladder_type query string false "Ladder type"
// @Param location query string false "Location"
// @Param department query string false "Department"
// @Param search query string false "Matches number, manufacturer, model and serial"
// @Param due_only query bool false "Only ladders due today or earlier"
// @Param sort_by query string false "Sort by"
// @Param sort_order query string false "Sort order"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /ladders [get]
func (h *LadderHandler) List(c *gin.Context) {
	filter, err := ladderFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	ladders, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, ladders, pagination)
}

// Get godoc
// @Summary Get ladder
// @Tags Ladders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ladder ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /ladders/{id} [get]
func (h *LadderHandler) Get(c *gin.Context) {
	ladder, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ladder, nil)
}

// Create godoc
// @Summary Register ladder
// @Tags Ladders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.LadderRequest true "Ladder"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /ladders [post]
func (h *LadderHandler) Create(c *gin.Context) {
	var req dto.LadderRequest
	if !bindJSON(c, &req) {
		return
	}

	ladder, err := h.service.Create(c.Request.Context(), req, auditMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, ladder)
}

// Update godoc
// @Summary Update ladder
// @Description Applies only the fields present in the payload
// @Tags Ladders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ladder ID"
// @Param payload body dto.LadderRequest true "Changed fields"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /ladders/{id} [patch]
func (h *LadderHandler) Update(c *gin.Context) {
	var req dto.LadderRequest
	if !bindJSON(c, &req) {
		return
	}

	ladder, err := h.service.Update(c.Request.Context(), c.Param("id"), req, auditMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ladder, nil)
}

// Dispose godoc
// @Summary Dispose ladder
// @Description Marks the ladder as disposed; the record is kept
// @Tags Ladders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ladder ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /ladders/{id} [delete]
func (h *LadderHandler) Dispose(c *gin.Context) {
	ladder, err := h.service.Dispose(c.Request.Context(), c.Param("id"), auditMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ladder, nil)
}

// Due godoc
// @Summary Ladders due for inspection
// @Tags Ladders
// @Produce json
// @Security BearerAuth
// @Param days query int false "Look-ahead window in days" default(30)
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /ladders/due [get]
func (h *LadderHandler) Due(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "days must be an integer"))
		return
	}

	res, err := h.service.Due(c.Request.Context(), days)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

func ladderFilterFromQuery(c *gin.Context) (models.LadderFilter, error) {
	var filter models.LadderFilter
	filter.Page, filter.PageSize = paging(c)

	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status, err := models.ParseLadderStatus(raw)
		if err != nil {
			return filter, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
		}
		filter.Status = &status
	}
	if raw := strings.TrimSpace(c.Query("ladder_type")); raw != "" {
		ladderType, err := models.ParseLadderType(raw)
		if err != nil {
			return filter, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
		}
		filter.LadderType = &ladderType
	}
	dueOnly, err := queryBool(c, "due_only")
	if err != nil {
		return filter, err
	}
	filter.DueOnly = dueOnly != nil && *dueOnly

	filter.Location = c.Query("location")
	filter.Department = c.Query("department")
	filter.Search = c.Query("search")
	filter.SortBy = c.Query("sort_by")
	filter.SortOrder = c.Query("sort_order")
	return filter, nil
}
