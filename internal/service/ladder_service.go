package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/ladder-inspection-api/internal/dto"
	"github.com/noah-isme/ladder-inspection-api/internal/models"
	"github.com/noah-isme/ladder-inspection-api/pkg/cache"
	appErrors "github.com/noah-isme/ladder-inspection-api/pkg/errors"
)

type ladderRepository interface {
	FindByID(ctx context.Context, id string) (*models.Ladder, error)
	ExistsByNumber(ctx context.Context, number, excludeID string) (bool, error)
	List(ctx context.Context, filter models.LadderFilter) ([]models.Ladder, int, error)
	ListDue(ctx context.Context, until time.Time) ([]models.Ladder, error)
	Create(ctx context.Context, ladder *models.Ladder) error
	Update(ctx context.Context, ladder *models.Ladder) error
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// dashboardCachePattern matches every cached dashboard payload.
var dashboardCachePattern = cache.Key("dashboard", "*")

// LadderService manages the ladder register.
type LadderService struct {
	repo      ladderRepository
	audit     auditWriter
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLadderService constructs a LadderService.
func NewLadderService(repo ladderRepository, audit auditWriter, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *LadderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &LadderService{repo: repo, audit: audit, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// List returns ladders matching the filter.
func (s *LadderService) List(ctx context.Context, filter models.LadderFilter) ([]models.Ladder, *models.Pagination, error) {
	ladders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list ladders")
	}
	return ladders, newPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a ladder by id.
func (s *LadderService) Get(ctx context.Context, id string) (*models.Ladder, error) {
	ladder, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "ladder not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ladder")
	}
	return ladder, nil
}

// Create registers a ladder. Without an explicit due date the first
// inspection is scheduled one interval from today.
func (s *LadderService) Create(ctx context.Context, req dto.LadderRequest, meta models.AuditMeta) (*models.Ladder, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, requestInvalid(err, "invalid ladder payload")
	}

	ladder, err := models.NewLadder(req.Fields())
	if err != nil {
		return nil, invalidArgument(err)
	}
	if ladder.NextInspectionDate == nil {
		next := ladder.CalculateNextInspectionDate(nil)
		ladder.NextInspectionDate = &next
	}
	if msgs := ladder.Validate(); len(msgs) > 0 {
		return nil, validationFailed("ladder", msgs)
	}
	if err := s.ensureUniqueNumber(ctx, ladder.LadderNumber, ""); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, ladder); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create ladder")
	}

	s.afterWrite(ctx, models.AuditActionLadderCreate, "create", ladder, nil, meta)
	return ladder, nil
}

// Update applies the provided fields to an existing ladder. Disposed ladders
// are read-only.
func (s *LadderService) Update(ctx context.Context, id string, req dto.LadderRequest, meta models.AuditMeta) (*models.Ladder, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, requestInvalid(err, "invalid ladder payload")
	}

	ladder, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ladder.IsDisposed() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "disposed ladders cannot be changed")
	}
	before := *ladder

	if err := ladder.Fill(req.Fields()); err != nil {
		return nil, invalidArgument(err)
	}
	if msgs := ladder.Validate(); len(msgs) > 0 {
		return nil, validationFailed("ladder", msgs)
	}
	if ladder.LadderNumber != before.LadderNumber {
		if err := s.ensureUniqueNumber(ctx, ladder.LadderNumber, ladder.ID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, ladder); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "ladder not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update ladder")
	}

	s.afterWrite(ctx, models.AuditActionLadderUpdate, "update", ladder, &before, meta)
	return ladder, nil
}

// Dispose retires a ladder. The record and its inspection history are kept.
func (s *LadderService) Dispose(ctx context.Context, id string, meta models.AuditMeta) (*models.Ladder, error) {
	ladder, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ladder.IsDisposed() {
		return ladder, nil
	}
	before := *ladder

	ladder.Dispose()
	if err := s.repo.Update(ctx, ladder); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "ladder not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to dispose ladder")
	}

	s.afterWrite(ctx, models.AuditActionLadderDispose, "dispose", ladder, &before, meta)
	return ladder, nil
}

// Due lists ladders that are overdue or fall due within days from today.
func (s *LadderService) Due(ctx context.Context, days int) (*dto.LadderDueResponse, error) {
	if days < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "days must not be negative")
	}
	until := models.Today().AddDate(0, 0, days)
	ladders, err := s.repo.ListDue(ctx, until)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list due ladders")
	}
	if ladders == nil {
		ladders = []models.Ladder{}
	}
	return &dto.LadderDueResponse{Until: models.FormatDate(&until), Days: days, Ladders: ladders}, nil
}

func (s *LadderService) ensureUniqueNumber(ctx context.Context, number, excludeID string) error {
	exists, err := s.repo.ExistsByNumber(ctx, number, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check ladder number")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("ladder number %s is already registered", number))
	}
	return nil
}

func (s *LadderService) afterWrite(ctx context.Context, action, change string, ladder, before *models.Ladder, meta models.AuditMeta) {
	s.metrics.RecordLadderChange(change)
	s.cache.Invalidate(ctx, dashboardCachePattern)

	if s.audit == nil {
		return
	}
	var old []byte
	if before != nil {
		old = auditPayload(before)
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     stringPtr(meta.ActorID),
		Action:     action,
		Resource:   "ladder",
		ResourceID: &ladder.ID,
		OldValues:  old,
		NewValues:  auditPayload(ladder),
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record ladder audit log", zap.String("ladder_id", ladder.ID), zap.Error(err))
	}
}
