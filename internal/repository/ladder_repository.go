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

	"github.com/noah-isme/ladder-inspection-api/internal/models"
)

const ladderColumns = `id, ladder_number, manufacturer, model, ladder_type, material, max_load_kg, height_cm, purchase_date, location, department, responsible_person, serial_number, notes, status, next_inspection_date, inspection_interval_months, created_at, updated_at`

// LadderRepository provides database access for the ladder register.
type LadderRepository struct {
	db *sqlx.DB
}

// NewLadderRepository creates a new LadderRepository.
func NewLadderRepository(db *sqlx.DB) *LadderRepository {
	return &LadderRepository{db: db}
}

// FindByID returns a ladder by identifier.
func (r *LadderRepository) FindByID(ctx context.Context, id string) (*models.Ladder, error) {
	query := fmt.Sprintf(`SELECT %s FROM ladders WHERE id = $1 LIMIT 1`, ladderColumns)
	var ladder models.Ladder
	if err := r.db.GetContext(ctx, &ladder, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find ladder by id: %w", err)
	}
	return &ladder, nil
}

// ExistsByNumber reports whether another ladder already uses number.
func (r *LadderRepository) ExistsByNumber(ctx context.Context, number, excludeID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM ladders WHERE LOWER(ladder_number) = LOWER($1) AND id <> $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, number, excludeID); err != nil {
		return false, fmt.Errorf("check ladder number: %w", err)
	}
	return exists, nil
}

// List returns ladders matching the filter together with the total count.
func (r *LadderRepository) List(ctx context.Context, filter models.LadderFilter) ([]models.Ladder, int, error) {
	baseQuery := `FROM ladders WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, string(*filter.Status))
	}
	if filter.LadderType != nil {
		conditions = append(conditions, fmt.Sprintf("ladder_type = $%d", len(args)+1))
		args = append(args, string(*filter.LadderType))
	}
	if filter.Location != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(location) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Location)+"%")
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(ladder_number) LIKE $%d OR LOWER(manufacturer) LIKE $%d OR LOWER(COALESCE(serial_number, '')) LIKE $%d)", idx, idx, idx))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.DueOnly {
		conditions = append(conditions, fmt.Sprintf("status <> 'disposed' AND (next_inspection_date IS NULL OR next_inspection_date <= $%d)", len(args)+1))
		args = append(args, models.Today())
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"ladder_number":        true,
		"location":             true,
		"status":               true,
		"next_inspection_date": true,
		"created_at":           true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "ladder_number"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "ASC"
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", ladderColumns, baseQuery, sortBy, sortOrder, pageSize, offset)
	var ladders []models.Ladder
	if err := r.db.SelectContext(ctx, &ladders, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list ladders: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", baseQuery), args...); err != nil {
		return nil, 0, fmt.Errorf("count ladders: %w", err)
	}

	return ladders, total, nil
}

// ListDue returns active ladders whose next inspection falls on or before until.
func (r *LadderRepository) ListDue(ctx context.Context, until time.Time) ([]models.Ladder, error) {
	query := fmt.Sprintf(`SELECT %s FROM ladders WHERE status <> 'disposed' AND (next_inspection_date IS NULL OR next_inspection_date <= $1) ORDER BY next_inspection_date ASC NULLS FIRST, ladder_number ASC`, ladderColumns)
	var ladders []models.Ladder
	if err := r.db.SelectContext(ctx, &ladders, query, until); err != nil {
		return nil, fmt.Errorf("list due ladders: %w", err)
	}
	return ladders, nil
}

// Create inserts a ladder, assigning id and timestamps.
func (r *LadderRepository) Create(ctx context.Context, ladder *models.Ladder) error {
	if ladder.ID == "" {
		ladder.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if ladder.CreatedAt.IsZero() {
		ladder.CreatedAt = now
	}
	ladder.UpdatedAt = now

	const query = `INSERT INTO ladders (id, ladder_number, manufacturer, model, ladder_type, material, max_load_kg, height_cm, purchase_date, location, department, responsible_person, serial_number, notes, status, next_inspection_date, inspection_interval_months, created_at, updated_at) VALUES (:id, :ladder_number, :manufacturer, :model, :ladder_type, :material, :max_load_kg, :height_cm, :purchase_date, :location, :department, :responsible_person, :serial_number, :notes, :status, :next_inspection_date, :inspection_interval_months, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, ladder); err != nil {
		return fmt.Errorf("create ladder: %w", err)
	}
	return nil
}

// Update stores every mutable column of the ladder.
func (r *LadderRepository) Update(ctx context.Context, ladder *models.Ladder) error {
	ladder.UpdatedAt = time.Now().UTC()
	const query = `UPDATE ladders SET ladder_number = :ladder_number, manufacturer = :manufacturer, model = :model, ladder_type = :ladder_type, material = :material, max_load_kg = :max_load_kg, height_cm = :height_cm, purchase_date = :purchase_date, location = :location, department = :department, responsible_person = :responsible_person, serial_number = :serial_number, notes = :notes, status = :status, next_inspection_date = :next_inspection_date, inspection_interval_months = :inspection_interval_months, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, ladder)
	if err != nil {
		return fmt.Errorf("update ladder: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByStatus groups the register by status.
func (r *LadderRepository) CountByStatus(ctx context.Context) ([]models.StatusCount, error) {
	const query = `SELECT status AS key, COUNT(*) AS count FROM ladders GROUP BY status`
	var rows []models.StatusCount
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count ladders by status: %w", err)
	}
	return rows, nil
}

// CountDueBetween counts non-disposed ladders due in [from, to]. A nil from
// includes overdue ladders and ladders without a date.
func (r *LadderRepository) CountDueBetween(ctx context.Context, from *time.Time, to time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM ladders WHERE status <> 'disposed' AND (next_inspection_date IS NULL OR next_inspection_date <= $1)`
	args := []interface{}{to}
	if from != nil {
		query = `SELECT COUNT(*) FROM ladders WHERE status <> 'disposed' AND next_inspection_date >= $1 AND next_inspection_date <= $2`
		args = []interface{}{*from, to}
	}
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count due ladders: %w", err)
	}
	return total, nil
}

func updateLadderFollowUp(ctx context.Context, tx *sqlx.Tx, ladderID string, next time.Time, status *models.LadderStatus, at time.Time) error {
	query := `UPDATE ladders SET next_inspection_date = $2, updated_at = $3 WHERE id = $1`
	args := []interface{}{ladderID, next, at}
	if status != nil {
		query = `UPDATE ladders SET next_inspection_date = $2, updated_at = $3, status = $4 WHERE id = $1`
		args = append(args, string(*status))
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update ladder follow-up: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
