package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ladder-inspection-api/internal/models"
)

var inspectionRowColumns = []string{"id", "ladder_id", "inspector_id", "inspection_date", "inspection_type", "overall_result", "next_inspection_date", "inspection_duration_minutes", "weather_conditions", "temperature_celsius", "general_notes", "recommendations", "defects_found", "actions_required", "inspector_signature", "supervisor_approval_id", "approval_date", "created_at", "updated_at"}

var itemRowColumns = []string{"id", "inspection_id", "category", "item_name", "description", "result", "severity", "repair_required", "repair_deadline", "photo_path", "notes", "sort_order", "created_at"}

func draftInspection(t *testing.T) *models.Inspection {
	t.Helper()
	insp, err := models.NewInspection(map[string]interface{}{
		"ladder_id":            "ladder-1",
		"inspector_id":         "user-1",
		"inspection_date":      "2024-05-10",
		"overall_result":       "failed",
		"next_inspection_date": "2025-05-10",
	})
	require.NoError(t, err)

	item, err := models.NewInspectionItem(map[string]interface{}{"item_name": "Holme", "result": "defect", "severity": "critical"})
	require.NoError(t, err)
	require.NoError(t, insp.SetItems([]models.InspectionItem{*item}))
	return insp
}

func TestCreateInspectionFreezesOnCommit(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInspectionRepository(db)

	insp := draftInspection(t)
	next := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	defective := models.LadderStatusDefective

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO inspections ").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO inspection_items").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE ladders SET next_inspection_date = $2, updated_at = $3, status = $4 WHERE id = $1")).
		WithArgs("ladder-1", next, sqlmock.AnyArg(), "defective").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), insp, LadderFollowUp{LadderID: "ladder-1", NextInspectionDate: next, Status: &defective})
	require.NoError(t, err)

	assert.True(t, insp.IsPersisted())
	assert.NotEmpty(t, insp.ID())
	require.Len(t, insp.Items(), 1)
	assert.Equal(t, insp.ID(), insp.Items()[0].InspectionID)
	assert.Equal(t, 1, insp.Items()[0].SortOrder)
	assert.ErrorIs(t, insp.SetGeneralNotes("late edit"), models.ErrInspectionFrozen)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInspectionRollsBackAndStaysDraft(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInspectionRepository(db)

	insp := draftInspection(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO inspections ").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO inspection_items").WillReturnError(errors.New("constraint violated"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), insp, LadderFollowUp{LadderID: "ladder-1", NextInspectionDate: time.Now()})
	require.Error(t, err)

	assert.False(t, insp.IsPersisted())
	assert.Empty(t, insp.ID())
	assert.Empty(t, insp.Items()[0].ID)
	assert.NoError(t, insp.SetGeneralNotes("still editable"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInspectionRejectsPersisted(t *testing.T) {
	db, _, cleanup := newMock(t)
	defer cleanup()
	repo := NewInspectionRepository(db)

	insp := draftInspection(t)
	require.NoError(t, insp.SetID("existing"))

	err := repo.Create(context.Background(), insp, LadderFollowUp{})
	assert.ErrorIs(t, err, models.ErrInspectionFrozen)
}

func TestFindInspectionByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInspectionRepository(db)

	now := time.Now()
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + inspectionColumns + " FROM inspections WHERE id = $1 LIMIT 1")).
		WithArgs("insp-1").
		WillReturnRows(sqlmock.NewRows(inspectionRowColumns).
			AddRow("insp-1", "ladder-1", "user-1", day, "routine", "conditional", day.AddDate(1, 0, 0), 25, nil, 18.5, nil, nil, nil, nil, nil, nil, nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM inspection_items WHERE inspection_id = ANY($1) ORDER BY sort_order ASC, created_at ASC")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(itemRowColumns).
			AddRow("item-1", "insp-1", "structure", "Sprossen", nil, "defect", "medium", true, day.AddDate(0, 1, 0), nil, nil, 1, now))

	insp, err := repo.FindByID(context.Background(), "insp-1")
	require.NoError(t, err)
	assert.True(t, insp.IsPersisted())
	assert.Equal(t, models.ResultConditional, insp.OverallResult())
	require.Len(t, insp.Items(), 1)
	require.NotNil(t, insp.Items()[0].Severity)
	assert.Equal(t, models.SeverityMedium, *insp.Items()[0].Severity)
	assert.Equal(t, models.ResultConditional, insp.CalculateOverallResult())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindInspectionRejectsCorruptRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInspectionRepository(db)

	now := time.Now()
	mock.ExpectQuery("FROM inspections WHERE id").
		WillReturnRows(sqlmock.NewRows(inspectionRowColumns).
			AddRow("insp-1", "ladder-1", "user-1", now, "routine", "excellent", now, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, now, now))
	mock.ExpectQuery("FROM inspection_items").
		WillReturnRows(sqlmock.NewRows(itemRowColumns))

	_, err := repo.FindByID(context.Background(), "insp-1")
	require.Error(t, err)
	assert.True(t, models.IsInvalidArgument(err))
}

func TestListInspectionsByLadder(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInspectionRepository(db)

	now := time.Now()
	where := "FROM inspections WHERE 1=1 AND ladder_id = $1"
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + inspectionColumns + " " + where + " ORDER BY inspection_date DESC, created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("ladder-1").
		WillReturnRows(sqlmock.NewRows(inspectionRowColumns).
			AddRow("insp-2", "ladder-1", "user-1", now, "routine", "passed", now.AddDate(1, 0, 0), nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, now, now).
			AddRow("insp-1", "ladder-1", "user-1", now.AddDate(-1, 0, 0), "initial", "passed", now, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) " + where)).
		WithArgs("ladder-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("FROM inspection_items WHERE inspection_id = ANY").
		WillReturnRows(sqlmock.NewRows(itemRowColumns).
			AddRow("item-1", "insp-1", "safety", "Fuesse", nil, "ok", nil, false, nil, nil, nil, 1, now))

	list, total, err := repo.List(context.Background(), models.InspectionFilter{LadderID: "ladder-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, list, 2)
	assert.Empty(t, list[0].Items())
	assert.Len(t, list[1].Items(), 1)
	assert.Equal(t, models.InspectionTypeInitial, list[1].InspectionType())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInspectionDashboardCounts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInspectionRepository(db)

	since := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT overall_result AS key, COUNT(*) AS count FROM inspections WHERE inspection_date >= $1 GROUP BY overall_result")).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"key", "count"}).AddRow("passed", 4).AddRow("failed", 1))
	mock.ExpectQuery("FROM inspection_items WHERE repair_required = TRUE").
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("overall_result IN").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	counts, err := repo.CountByResultSince(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, []models.StatusCount{{Key: "passed", Count: 4}, {Key: "failed", Count: 1}}, counts)

	overdue, err := repo.CountOverdueRepairs(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, 2, overdue)

	pending, err := repo.CountPendingApprovals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, pending)
	assert.NoError(t, mock.ExpectationsWereMet())
}
