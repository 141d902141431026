package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/ladder-inspection-api/internal/models"
	"github.com/noah-isme/ladder-inspection-api/pkg/database"
)

const inspectionColumns = `id, ladder_id, inspector_id, inspection_date, inspection_type, overall_result, next_inspection_date, inspection_duration_minutes, weather_conditions, temperature_celsius, general_notes, recommendations, defects_found, actions_required, inspector_signature, supervisor_approval_id, approval_date, created_at, updated_at`

const itemColumns = `id, inspection_id, category, item_name, description, result, severity, repair_required, repair_deadline, photo_path, notes, sort_order, created_at`

// LadderFollowUp is the ladder update written together with an inspection.
type LadderFollowUp struct {
	LadderID           string
	NextInspectionDate time.Time
	Status             *models.LadderStatus
}

// InspectionRepository persists inspections and their items.
type InspectionRepository struct {
	db *sqlx.DB
}

// NewInspectionRepository creates a new InspectionRepository.
func NewInspectionRepository(db *sqlx.DB) *InspectionRepository {
	return &InspectionRepository{db: db}
}

// Create stores the draft, its items and the ladder follow-up in a single
// transaction. On success the inspection carries its id and is frozen.
func (r *InspectionRepository) Create(ctx context.Context, insp *models.Inspection, followUp LadderFollowUp) error {
	if insp.IsPersisted() {
		return models.ErrInspectionFrozen
	}

	id := uuid.NewString()
	now := time.Now().UTC()

	rec := insp.Record()
	rec.ID = id
	rec.CreatedAt = now
	rec.UpdatedAt = now

	items := insp.Items()
	for i := range items {
		items[i].ID = uuid.NewString()
		items[i].InspectionID = id
		items[i].CreatedAt = now
		if items[i].SortOrder == 0 {
			items[i].SortOrder = i + 1
		}
	}

	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const insertInspection = `INSERT INTO inspections (id, ladder_id, inspector_id, inspection_date, inspection_type, overall_result, next_inspection_date, inspection_duration_minutes, weather_conditions, temperature_celsius, general_notes, recommendations, defects_found, actions_required, inspector_signature, supervisor_approval_id, approval_date, created_at, updated_at) VALUES (:id, :ladder_id, :inspector_id, :inspection_date, :inspection_type, :overall_result, :next_inspection_date, :inspection_duration_minutes, :weather_conditions, :temperature_celsius, :general_notes, :recommendations, :defects_found, :actions_required, :inspector_signature, :supervisor_approval_id, :approval_date, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, insertInspection, rec); err != nil {
			return fmt.Errorf("insert inspection: %w", err)
		}

		const insertItem = `INSERT INTO inspection_items (id, inspection_id, category, item_name, description, result, severity, repair_required, repair_deadline, photo_path, notes, sort_order, created_at) VALUES (:id, :inspection_id, :category, :item_name, :description, :result, :severity, :repair_required, :repair_deadline, :photo_path, :notes, :sort_order, :created_at)`
		for i := range items {
			if _, err := tx.NamedExecContext(ctx, insertItem, items[i]); err != nil {
				return fmt.Errorf("insert inspection item %d: %w", i+1, err)
			}
		}

		if followUp.LadderID != "" {
			return updateLadderFollowUp(ctx, tx, followUp.LadderID, followUp.NextInspectionDate, followUp.Status, now)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := insp.SetItems(items); err != nil {
		return err
	}
	return insp.MarkStored(id, now, now)
}

// FindByID loads an inspection with its items.
func (r *InspectionRepository) FindByID(ctx context.Context, id string) (*models.Inspection, error) {
	query := fmt.Sprintf(`SELECT %s FROM inspections WHERE id = $1 LIMIT 1`, inspectionColumns)
	var rec models.InspectionRecord
	if err := r.db.GetContext(ctx, &rec, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find inspection by id: %w", err)
	}

	itemsByInspection, err := r.itemsFor(ctx, []string{rec.ID})
	if err != nil {
		return nil, err
	}
	insp, err := models.RestoreInspection(rec, itemsByInspection[rec.ID])
	if err != nil {
		return nil, fmt.Errorf("restore inspection %s: %w", rec.ID, err)
	}
	return insp, nil
}

// List returns inspections matching the filter, newest first by default.
func (r *InspectionRepository) List(ctx context.Context, filter models.InspectionFilter) ([]*models.Inspection, int, error) {
	baseQuery := `FROM inspections WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.LadderID != "" {
		conditions = append(conditions, fmt.Sprintf("ladder_id = $%d", len(args)+1))
		args = append(args, filter.LadderID)
	}
	if filter.InspectorID != "" {
		conditions = append(conditions, fmt.Sprintf("inspector_id = $%d", len(args)+1))
		args = append(args, filter.InspectorID)
	}
	if filter.OverallResult != nil {
		conditions = append(conditions, fmt.Sprintf("overall_result = $%d", len(args)+1))
		args = append(args, string(*filter.OverallResult))
	}
	if filter.InspectionType != nil {
		conditions = append(conditions, fmt.Sprintf("inspection_type = $%d", len(args)+1))
		args = append(args, string(*filter.InspectionType))
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("inspection_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("inspection_date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"inspection_date":      true,
		"next_inspection_date": true,
		"overall_result":       true,
		"created_at":           true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "inspection_date"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, created_at DESC LIMIT %d OFFSET %d", inspectionColumns, baseQuery, sortBy, sortOrder, pageSize, offset)
	var records []models.InspectionRecord
	if err := r.db.SelectContext(ctx, &records, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list inspections: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", baseQuery), args...); err != nil {
		return nil, 0, fmt.Errorf("count inspections: %w", err)
	}

	ids := make([]string, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}
	itemsByInspection, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	out := make([]*models.Inspection, 0, len(records))
	for _, rec := range records {
		insp, err := models.RestoreInspection(rec, itemsByInspection[rec.ID])
		if err != nil {
			return nil, 0, fmt.Errorf("restore inspection %s: %w", rec.ID, err)
		}
		out = append(out, insp)
	}
	return out, total, nil
}

func (r *InspectionRepository) itemsFor(ctx context.Context, ids []string) (map[string][]models.InspectionItem, error) {
	out := make(map[string][]models.InspectionItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM inspection_items WHERE inspection_id = ANY($1) ORDER BY sort_order ASC, created_at ASC`, itemColumns)
	var items []models.InspectionItem
	if err := r.db.SelectContext(ctx, &items, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list inspection items: %w", err)
	}
	for _, item := range items {
		out[item.InspectionID] = append(out[item.InspectionID], item)
	}
	return out, nil
}

// CountByResultSince groups inspections dated on or after since by result.
func (r *InspectionRepository) CountByResultSince(ctx context.Context, since time.Time) ([]models.StatusCount, error) {
	const query = `SELECT overall_result AS key, COUNT(*) AS count FROM inspections WHERE inspection_date >= $1 GROUP BY overall_result`
	var rows []models.StatusCount
	if err := r.db.SelectContext(ctx, &rows, query, since); err != nil {
		return nil, fmt.Errorf("count inspections by result: %w", err)
	}
	return rows, nil
}

// CountOverdueRepairs counts required repairs whose deadline lies before today.
func (r *InspectionRepository) CountOverdueRepairs(ctx context.Context, today time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM inspection_items WHERE repair_required = TRUE AND repair_deadline IS NOT NULL AND repair_deadline < $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, today); err != nil {
		return 0, fmt.Errorf("count overdue repairs: %w", err)
	}
	return total, nil
}

// CountPendingApprovals counts failed or conditional inspections that have
// not been approved by a supervisor.
func (r *InspectionRepository) CountPendingApprovals(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM inspections WHERE overall_result IN ('failed', 'conditional') AND (supervisor_approval_id IS NULL OR approval_date IS NULL)`
	var total int
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, fmt.Errorf("count pending approvals: %w", err)
	}
	return total, nil
}
