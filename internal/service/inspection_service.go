package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/ladder-inspection-api/internal/dto"
	"github.com/noah-isme/ladder-inspection-api/internal/models"
	"github.com/noah-isme/ladder-inspection-api/internal/repository"
	appErrors "github.com/noah-isme/ladder-inspection-api/pkg/errors"
	"github.com/noah-isme/ladder-inspection-api/pkg/jobs"
)

type inspectionRepository interface {
	Create(ctx context.Context, insp *models.Inspection, followUp repository.LadderFollowUp) error
	FindByID(ctx context.Context, id string) (*models.Inspection, error)
	List(ctx context.Context, filter models.InspectionFilter) ([]*models.Inspection, int, error)
}

type ladderLookup interface {
	FindByID(ctx context.Context, id string) (*models.Ladder, error)
}

type inspectorLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindActiveByID(ctx context.Context, id string) (*models.User, error)
}

// InspectionConfig tunes the inspection workflow.
type InspectionConfig struct {
	AutoCalculateResult bool
}

// InspectionService records inspections and serves their history. Stored
// inspections are never changed.
type InspectionService struct {
	repo       inspectionRepository
	ladders    ladderLookup
	inspectors inspectorLookup
	audit      auditWriter
	events     eventSubmitter
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	config     InspectionConfig
}

// NewInspectionService constructs an InspectionService.
func NewInspectionService(repo inspectionRepository, ladders ladderLookup, inspectors inspectorLookup, audit auditWriter, events eventSubmitter, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg InspectionConfig) *InspectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &InspectionService{
		repo:       repo,
		ladders:    ladders,
		inspectors: inspectors,
		audit:      audit,
		events:     events,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		config:     cfg,
	}
}

// Create records a new inspection together with its items and advances the
// ladder's due date. A failed inspection marks the ladder defective.
func (s *InspectionService) Create(ctx context.Context, req dto.InspectionRequest, meta models.AuditMeta) (*models.Inspection, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, requestInvalid(err, "invalid inspection payload")
	}
	if req.InspectorID == "" {
		req.InspectorID = meta.ActorID
	}

	insp, err := models.NewInspection(req.Fields())
	if err != nil {
		return nil, invalidArgument(err)
	}
	items, itemMsgs, err := buildItems(req.Items)
	if err != nil {
		return nil, invalidArgument(err)
	}
	if err := insp.SetItems(items); err != nil {
		return nil, s.mapWriteError(err)
	}

	var ladder *models.Ladder
	if insp.LadderID() != "" {
		if ladder, err = s.loadLadder(ctx, insp.LadderID()); err != nil {
			return nil, err
		}
	}
	if ladder != nil && ladder.IsDisposed() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "disposed ladders cannot be inspected")
	}
	inspector, err := s.loadInspector(ctx, insp.InspectorID())
	if err != nil {
		return nil, err
	}

	if req.OverallResult == nil && s.config.AutoCalculateResult {
		if err := insp.SetOverallResult(string(insp.CalculateOverallResult())); err != nil {
			return nil, s.mapWriteError(err)
		}
	}
	if req.NextInspectionDate == nil && ladder != nil && insp.InspectionDate() != nil {
		next := ladder.CalculateNextInspectionDate(insp.InspectionDate())
		if err := insp.SetNextInspectionDate(models.FormatDate(&next)); err != nil {
			return nil, s.mapWriteError(err)
		}
	}

	if msgs := append(insp.Validate(), itemMsgs...); len(msgs) > 0 {
		return nil, validationFailed("inspection", msgs)
	}

	followUp := repository.LadderFollowUp{LadderID: ladder.ID, NextInspectionDate: *insp.NextInspectionDate()}
	if status := followUpStatus(ladder, insp.OverallResult()); status != nil {
		followUp.Status = status
	}

	if err := s.repo.Create(ctx, insp, followUp); err != nil {
		return nil, s.mapWriteError(err)
	}

	ladder.NextInspectionDate = insp.NextInspectionDate()
	if followUp.Status != nil {
		ladder.Status = *followUp.Status
	}
	insp.AttachLadder(ladder)
	insp.AttachInspector(inspector)

	s.afterCreate(ctx, insp, ladder, meta)
	return insp, nil
}

// Update always fails for stored inspections; the entity guard's error is
// reported as a conflict.
func (s *InspectionService) Update(ctx context.Context, id string, req dto.InspectionRequest) (*models.Inspection, error) {
	insp, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := insp.Fill(req.Fields()); err != nil {
		return nil, s.mapWriteError(err)
	}
	// A loaded inspection is always frozen, so Fill cannot succeed.
	return nil, appErrors.Clone(appErrors.ErrImmutable, "inspections cannot be changed once stored")
}

// Delete rejects removal of a stored inspection.
func (s *InspectionService) Delete(ctx context.Context, id string) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	return s.mapWriteError(models.ErrInspectionFrozen)
}

// Get returns an inspection with its ladder and inspector attached.
func (s *InspectionService) Get(ctx context.Context, id string) (*models.Inspection, error) {
	insp, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	s.attach(ctx, insp)
	return insp, nil
}

// List returns inspections matching the filter.
func (s *InspectionService) List(ctx context.Context, filter models.InspectionFilter) ([]*models.Inspection, *models.Pagination, error) {
	inspections, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list inspections")
	}
	if inspections == nil {
		inspections = []*models.Inspection{}
	}
	return inspections, newPagination(filter.Page, filter.PageSize, total), nil
}

// ListByLadder returns the inspection history of one ladder, newest first.
func (s *InspectionService) ListByLadder(ctx context.Context, ladderID string, filter models.InspectionFilter) ([]*models.Inspection, *models.Pagination, error) {
	if _, err := s.loadLadder(ctx, ladderID); err != nil {
		return nil, nil, err
	}
	filter.LadderID = ladderID
	return s.List(ctx, filter)
}

// Preview computes the verdict an item list would produce without storing
// anything.
func (s *InspectionService) Preview(ctx context.Context, req dto.ResultPreviewRequest) (*dto.ResultPreviewResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, requestInvalid(err, "invalid preview payload")
	}
	items, msgs, err := buildItems(req.Items)
	if err != nil {
		return nil, invalidArgument(err)
	}

	classes := make([]string, len(items))
	for i, item := range items {
		classes[i] = item.Classify().String()
	}
	return &dto.ResultPreviewResponse{
		OverallResult:   models.CalculateOverallResult(items),
		DefectCount:     len(models.Defects(items)),
		CriticalCount:   len(models.CriticalDefects(items)),
		ItemClasses:     classes,
		ValidationNotes: msgs,
	}, nil
}

// Defects reports the defects, critical defects and overdue repairs of a
// stored inspection.
func (s *InspectionService) Defects(ctx context.Context, id string) (*dto.DefectReport, error) {
	insp, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	items := insp.Items()
	return &dto.DefectReport{
		InspectionID:    insp.ID(),
		LadderID:        insp.LadderID(),
		OverallResult:   insp.OverallResult(),
		Defects:         insp.Defects(),
		CriticalDefects: insp.CriticalDefects(),
		OverdueRepairs:  models.OverdueRepairs(items),
	}, nil
}

func (s *InspectionService) find(ctx context.Context, id string) (*models.Inspection, error) {
	insp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "inspection not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load inspection")
	}
	return insp, nil
}

func (s *InspectionService) attach(ctx context.Context, insp *models.Inspection) {
	if ladder, err := s.ladders.FindByID(ctx, insp.LadderID()); err == nil {
		insp.AttachLadder(ladder)
	} else if !errors.Is(err, sql.ErrNoRows) {
		s.logger.Warn("failed to attach ladder", zap.String("inspection_id", insp.ID()), zap.Error(err))
	}
	if s.inspectors == nil {
		return
	}
	if user, err := s.inspectors.FindByID(ctx, insp.InspectorID()); err == nil {
		insp.AttachInspector(user)
	} else if !errors.Is(err, sql.ErrNoRows) {
		s.logger.Warn("failed to attach inspector", zap.String("inspection_id", insp.ID()), zap.Error(err))
	}
}

func (s *InspectionService) loadLadder(ctx context.Context, id string) (*models.Ladder, error) {
	if id == "" {
		return nil, validationFailed("inspection", []string{models.MsgLadderIDRequired})
	}
	ladder, err := s.ladders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "ladder not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ladder")
	}
	return ladder, nil
}

func (s *InspectionService) loadInspector(ctx context.Context, id string) (*models.User, error) {
	if id == "" || s.inspectors == nil {
		return nil, nil
	}
	user, err := s.inspectors.FindActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "inspector not found or inactive")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load inspector")
	}
	return user, nil
}

func (s *InspectionService) mapWriteError(err error) error {
	switch {
	case errors.Is(err, models.ErrInspectionFrozen):
		return appErrors.Wrap(err, appErrors.ErrImmutable.Code, appErrors.ErrImmutable.Status, appErrors.ErrImmutable.Message)
	case models.IsInvalidArgument(err):
		return invalidArgument(err)
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store inspection")
	}
}

func (s *InspectionService) afterCreate(ctx context.Context, insp *models.Inspection, ladder *models.Ladder, meta models.AuditMeta) {
	s.metrics.RecordInspection(insp.OverallResult(), insp.InspectionType())

	if s.audit != nil {
		id := insp.ID()
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     stringPtr(meta.ActorID),
			Action:     models.AuditActionInspectionCreate,
			Resource:   "inspection",
			ResourceID: &id,
			NewValues:  auditPayload(insp.Record()),
			IPAddress:  meta.IP,
			UserAgent:  meta.UserAgent,
		}); err != nil {
			s.logger.Warn("failed to record inspection audit log", zap.String("inspection_id", id), zap.Error(err))
		}
	}

	event := InspectionEvent{
		InspectionID:       insp.ID(),
		LadderID:           ladder.ID,
		LadderNumber:       ladder.LadderNumber,
		Result:             insp.OverallResult(),
		CriticalDefects:    len(insp.CriticalDefects()),
		NextInspectionDate: models.FormatDate(insp.NextInspectionDate()),
	}
	if s.events != nil {
		err := s.events.Submit(jobs.Task[InspectionEvent]{ID: uuid.NewString(), Kind: InspectionEventRecorded, Payload: event})
		if err == nil {
			return
		}
		s.logger.Warn("failed to queue inspection event", zap.String("inspection_id", event.InspectionID), zap.Error(err))
	}
	s.cache.Invalidate(ctx, dashboardCachePattern)
}

// followUpStatus returns the ladder status implied by a verdict, or nil when
// the status stays as it is.
func followUpStatus(ladder *models.Ladder, result models.OverallResult) *models.LadderStatus {
	switch {
	case result == models.ResultFailed && ladder.Status != models.LadderStatusDefective:
		status := models.LadderStatusDefective
		return &status
	case result == models.ResultPassed && ladder.Status == models.LadderStatusDefective:
		status := models.LadderStatusActive
		return &status
	}
	return nil
}

// buildItems converts request items through the strict setters. Rejected
// values abort; Validate messages are collected with their position.
func buildItems(reqs []dto.InspectionItemRequest) ([]models.InspectionItem, []string, error) {
	items := make([]models.InspectionItem, 0, len(reqs))
	var msgs []string
	for i, r := range reqs {
		item, err := models.NewInspectionItem(r.Fields())
		if err != nil {
			return nil, nil, fmt.Errorf("items[%d]: %w", i, err)
		}
		for _, msg := range item.Validate() {
			msgs = append(msgs, fmt.Sprintf("items[%d]: %s", i, msg))
		}
		items = append(items, *item)
	}
	return items, msgs, nil
}
