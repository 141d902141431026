package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/ladder-inspection-api/internal/dto"
	"github.com/noah-isme/ladder-inspection-api/internal/models"
	"github.com/noah-isme/ladder-inspection-api/pkg/cache"
	appErrors "github.com/noah-isme/ladder-inspection-api/pkg/errors"
)

type ladderStatsRepository interface {
	CountByStatus(ctx context.Context) ([]models.StatusCount, error)
	CountDueBetween(ctx context.Context, from *time.Time, to time.Time) (int, error)
}

type inspectionStatsRepository interface {
	CountByResultSince(ctx context.Context, since time.Time) ([]models.StatusCount, error)
	CountOverdueRepairs(ctx context.Context, today time.Time) (int, error)
	CountPendingApprovals(ctx context.Context) (int, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL      time.Duration
	DueWindowDays int
	RecentDays    int
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Ladders     ladderStatsRepository
	Inspections inspectionStatsRepository
	Cache       *CacheService
	Metrics     *MetricsService
	Logger      *zap.Logger
	Config      DashboardServiceConfig
}

// DashboardService composes fleet and inspection figures.
type DashboardService struct {
	ladders     ladderStatsRepository
	inspections inspectionStatsRepository
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
	now         func() time.Time
	cfg         DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.DueWindowDays <= 0 {
		cfg.DueWindowDays = 30
	}
	if cfg.RecentDays <= 0 {
		cfg.RecentDays = 30
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		ladders:     params.Ladders,
		inspections: params.Inspections,
		cache:       params.Cache,
		metrics:     params.Metrics,
		logger:      logger,
		now:         time.Now,
		cfg:         cfg,
	}
}

// Summary returns the dashboard figures and whether they came from the cache.
func (s *DashboardService) Summary(ctx context.Context) (*dto.DashboardResponse, error) {
	today := models.DateOf(s.now())
	key := cache.Key("dashboard", "summary", today.Format(models.DateLayout))

	summary, hit, err := cached(ctx, s.cache, key, s.cfg.CacheTTL, func(ctx context.Context) (models.DashboardSummary, error) {
		return s.compose(ctx, today)
	})
	if err != nil {
		return nil, err
	}
	return &dto.DashboardResponse{Summary: summary, Cached: hit}, nil
}

// Metrics returns a snapshot of the process counters.
func (s *DashboardService) Metrics() models.SystemMetrics {
	return s.metrics.Snapshot()
}

func (s *DashboardService) compose(ctx context.Context, today time.Time) (models.DashboardSummary, error) {
	summary := models.DashboardSummary{
		LaddersByStatus:  make(map[models.LadderStatus]int, len(models.LadderStatuses)),
		RecentResults:    make(map[models.OverallResult]int, len(models.OverallResults)),
		DueWindowDays:    s.cfg.DueWindowDays,
		RecentWindowDays: s.cfg.RecentDays,
		GeneratedAt:      s.now().UTC(),
	}
	for _, status := range models.LadderStatuses {
		summary.LaddersByStatus[status] = 0
	}
	for _, result := range models.OverallResults {
		summary.RecentResults[result] = 0
	}

	var (
		byStatus, results []models.StatusCount
		overdue, dueSoon  int
		repairs, pending  int
	)
	yesterday := today.AddDate(0, 0, -1)
	windowEnd := today.AddDate(0, 0, s.cfg.DueWindowDays)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		if byStatus, err = s.ladders.CountByStatus(gctx); err != nil {
			return s.internal(err, "failed to count ladders")
		}
		return nil
	})
	g.Go(func() (err error) {
		if overdue, err = s.ladders.CountDueBetween(gctx, nil, yesterday); err != nil {
			return s.internal(err, "failed to count overdue ladders")
		}
		if dueSoon, err = s.ladders.CountDueBetween(gctx, &today, windowEnd); err != nil {
			return s.internal(err, "failed to count due ladders")
		}
		return nil
	})
	g.Go(func() (err error) {
		if results, err = s.inspections.CountByResultSince(gctx, today.AddDate(0, 0, -s.cfg.RecentDays)); err != nil {
			return s.internal(err, "failed to count inspections")
		}
		return nil
	})
	g.Go(func() (err error) {
		if repairs, err = s.inspections.CountOverdueRepairs(gctx, today); err != nil {
			return s.internal(err, "failed to count overdue repairs")
		}
		if pending, err = s.inspections.CountPendingApprovals(gctx); err != nil {
			return s.internal(err, "failed to count pending approvals")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return summary, err
	}

	for _, row := range byStatus {
		summary.LaddersByStatus[models.LadderStatus(row.Key)] = row.Count
		summary.TotalLadders += row.Count
	}
	for _, row := range results {
		summary.RecentResults[models.OverallResult(row.Key)] = row.Count
	}
	summary.OverdueLadders = overdue
	summary.DueSoonLadders = dueSoon
	summary.OpenOverdueRepairs = repairs
	summary.PendingApprovals = pending
	return summary, nil
}

func (s *DashboardService) internal(err error, message string) error {
	s.logger.Error(message, zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
