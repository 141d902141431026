package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/ladder-inspection-api/internal/models"
	"github.com/noah-isme/ladder-inspection-api/pkg/jobs"
)

// InspectionEventRecorded is the task kind submitted after an inspection is stored.
const InspectionEventRecorded = "inspection.recorded"

// InspectionEvent is the payload handed to background workers after an
// inspection was stored.
type InspectionEvent struct {
	InspectionID       string               `json:"inspection_id"`
	LadderID           string               `json:"ladder_id"`
	LadderNumber       string               `json:"ladder_number"`
	Result             models.OverallResult `json:"result"`
	CriticalDefects    int                  `json:"critical_defects"`
	NextInspectionDate string               `json:"next_inspection_date"`
}

type eventSubmitter interface {
	Submit(task jobs.Task[InspectionEvent]) error
}

// InspectionEventHandler runs the follow-up work of a stored inspection.
type InspectionEventHandler struct {
	cache  *CacheService
	logger *zap.Logger
}

// NewInspectionEventHandler constructs the handler.
func NewInspectionEventHandler(cache *CacheService, logger *zap.Logger) *InspectionEventHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InspectionEventHandler{cache: cache, logger: logger}
}

// Handle drops cached dashboard figures and flags failed ladders in the log.
func (h *InspectionEventHandler) Handle(ctx context.Context, task jobs.Task[InspectionEvent]) error {
	h.cache.Invalidate(ctx, dashboardCachePattern)

	ev := task.Payload
	if ev.Result == models.ResultFailed {
		h.logger.Warn("ladder failed inspection and is taken out of service",
			zap.String("inspection_id", ev.InspectionID),
			zap.String("ladder_id", ev.LadderID),
			zap.String("ladder_number", ev.LadderNumber),
			zap.Int("critical_defects", ev.CriticalDefects),
		)
		return nil
	}
	h.logger.Info("inspection recorded",
		zap.String("inspection_id", ev.InspectionID),
		zap.String("ladder_number", ev.LadderNumber),
		zap.String("result", string(ev.Result)),
		zap.String("next_inspection_date", ev.NextInspectionDate),
	)
	return nil
}
