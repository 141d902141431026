package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/ladder-inspection-api/internal/dto"
	"github.com/noah-isme/ladder-inspection-api/internal/models"
	appErrors "github.com/noah-isme/ladder-inspection-api/pkg/errors"
)

type mockLadderRepo struct {
	ladders   map[string]*models.Ladder
	dueUntil  time.Time
	createErr error
	updated   int
}

func (m *mockLadderRepo) FindByID(ctx context.Context, id string) (*models.Ladder, error) {
	if l, ok := m.ladders[id]; ok {
		copy := *l
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockLadderRepo) ExistsByNumber(ctx context.Context, number, excludeID string) (bool, error) {
	for id, l := range m.ladders {
		if id != excludeID && strings.EqualFold(l.LadderNumber, number) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockLadderRepo) List(ctx context.Context, filter models.LadderFilter) ([]models.Ladder, int, error) {
	var out []models.Ladder
	for _, l := range m.ladders {
		if filter.Status != nil && l.Status != *filter.Status {
			continue
		}
		out = append(out, *l)
	}
	return out, len(out), nil
}

func (m *mockLadderRepo) ListDue(ctx context.Context, until time.Time) ([]models.Ladder, error) {
	m.dueUntil = until
	var out []models.Ladder
	for _, l := range m.ladders {
		if !l.IsDisposed() && l.NeedsInspectionOn(until) {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *mockLadderRepo) Create(ctx context.Context, ladder *models.Ladder) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.ladders == nil {
		m.ladders = make(map[string]*models.Ladder)
	}
	ladder.ID = "ladder-" + ladder.LadderNumber
	copy := *ladder
	m.ladders[ladder.ID] = &copy
	return nil
}

func (m *mockLadderRepo) Update(ctx context.Context, ladder *models.Ladder) error {
	if _, ok := m.ladders[ladder.ID]; !ok {
		return sql.ErrNoRows
	}
	m.updated++
	copy := *ladder
	m.ladders[ladder.ID] = &copy
	return nil
}

func ptr[T any](v T) *T { return &v }

func validLadderRequest(number string) dto.LadderRequest {
	return dto.LadderRequest{
		LadderNumber:       ptr(number),
		Manufacturer:       ptr("Hailo"),
		LadderType:         ptr(string(models.LadderTypeStep)),
		HeightCm:           ptr(250),
		Location:           ptr("Halle 3"),
		NextInspectionDate: ptr("2030-05-01"),
	}
}

func newLadderFixture() (*LadderService, *mockLadderRepo, *mockUserRepo) {
	repo := &mockLadderRepo{ladders: map[string]*models.Ladder{}}
	audit := &mockUserRepo{}
	return NewLadderService(repo, audit, nil, nil, nil, zap.NewNop()), repo, audit
}

func TestLadderServiceCreate(t *testing.T) {
	svc, repo, audit := newLadderFixture()

	ladder, err := svc.Create(context.Background(), validLadderRequest("L-001"), models.AuditMeta{ActorID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "ladder-L-001", ladder.ID)
	assert.Equal(t, models.MaterialAluminium, ladder.Material)
	assert.Equal(t, models.DefaultMaxLoadKg, ladder.MaxLoadKg)
	assert.Equal(t, models.LadderStatusActive, ladder.Status)
	assert.Len(t, repo.ladders, 1)
	require.Len(t, audit.auditLogs, 1)
	assert.Equal(t, models.AuditActionLadderCreate, audit.auditLogs[0].Action)
}

func TestLadderServiceCreateDefaultsNextInspectionDate(t *testing.T) {
	svc, _, _ := newLadderFixture()
	req := validLadderRequest("L-002")
	req.NextInspectionDate = nil
	req.InspectionIntervalMonths = ptr(6)

	ladder, err := svc.Create(context.Background(), req, models.AuditMeta{})
	require.NoError(t, err)
	require.NotNil(t, ladder.NextInspectionDate)
	assert.Equal(t, models.Today().AddDate(0, 6, 0), *ladder.NextInspectionDate)
}

func TestLadderServiceCreateRejectsInvalidEnum(t *testing.T) {
	svc, repo, _ := newLadderFixture()
	req := validLadderRequest("L-003")
	req.LadderType = ptr("Strickleiter")

	_, err := svc.Create(context.Background(), req, models.AuditMeta{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidArgument.Code, appErr.Code)
	assert.Equal(t, 422, appErr.Status)
	assert.Empty(t, repo.ladders)
}

func TestLadderServiceCreateCollectsValidationErrors(t *testing.T) {
	svc, _, _ := newLadderFixture()

	_, err := svc.Create(context.Background(), dto.LadderRequest{NextInspectionDate: ptr("2030-01-01")}, models.AuditMeta{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, []string{
		models.MsgLadderNumberRequired,
		models.MsgManufacturerRequired,
		models.MsgLadderTypeRequired,
		models.MsgLocationRequired,
		models.MsgHeightPositive,
	}, appErr.Details)
}

func TestLadderServiceCreateDuplicateNumber(t *testing.T) {
	svc, _, _ := newLadderFixture()
	_, err := svc.Create(context.Background(), validLadderRequest("L-004"), models.AuditMeta{})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), validLadderRequest("l-004"), models.AuditMeta{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestLadderServiceUpdate(t *testing.T) {
	svc, repo, audit := newLadderFixture()
	created, err := svc.Create(context.Background(), validLadderRequest("L-005"), models.AuditMeta{})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, dto.LadderRequest{Location: ptr("Lager"), MaxLoadKg: ptr(120)}, models.AuditMeta{})
	require.NoError(t, err)
	assert.Equal(t, "Lager", updated.Location)
	assert.Equal(t, 120, updated.MaxLoadKg)
	assert.Equal(t, "Hailo", updated.Manufacturer)
	assert.Equal(t, 1, repo.updated)
	require.Len(t, audit.auditLogs, 2)
	assert.NotEmpty(t, audit.auditLogs[1].OldValues)
}

func TestLadderServiceUpdateRejectedValueLeavesLadderUntouched(t *testing.T) {
	svc, repo, _ := newLadderFixture()
	created, err := svc.Create(context.Background(), validLadderRequest("L-006"), models.AuditMeta{})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), created.ID, dto.LadderRequest{Location: ptr("Lager"), MaxLoadKg: ptr(0)}, models.AuditMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidArgument.Code, appErrors.FromError(err).Code)
	assert.Equal(t, "Halle 3", repo.ladders[created.ID].Location)
	assert.Zero(t, repo.updated)
}

func TestLadderServiceUpdateNumberConflict(t *testing.T) {
	svc, _, _ := newLadderFixture()
	_, err := svc.Create(context.Background(), validLadderRequest("L-007"), models.AuditMeta{})
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), validLadderRequest("L-008"), models.AuditMeta{})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), second.ID, dto.LadderRequest{LadderNumber: ptr("L-007")}, models.AuditMeta{})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestLadderServiceDispose(t *testing.T) {
	svc, repo, audit := newLadderFixture()
	created, err := svc.Create(context.Background(), validLadderRequest("L-009"), models.AuditMeta{})
	require.NoError(t, err)

	disposed, err := svc.Dispose(context.Background(), created.ID, models.AuditMeta{ActorID: "admin"})
	require.NoError(t, err)
	assert.True(t, disposed.IsDisposed())
	assert.Equal(t, models.LadderStatusDisposed, repo.ladders[created.ID].Status)
	assert.Equal(t, models.AuditActionLadderDispose, audit.auditLogs[len(audit.auditLogs)-1].Action)

	_, err = svc.Update(context.Background(), created.ID, dto.LadderRequest{Location: ptr("x")}, models.AuditMeta{})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	again, err := svc.Dispose(context.Background(), created.ID, models.AuditMeta{})
	require.NoError(t, err)
	assert.True(t, again.IsDisposed())
	assert.Equal(t, 1, repo.updated)
}

func TestLadderServiceGetNotFound(t *testing.T) {
	svc, _, _ := newLadderFixture()
	_, err := svc.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestLadderServiceDue(t *testing.T) {
	svc, repo, _ := newLadderFixture()
	past := models.Today().AddDate(0, 0, -3)
	soon := models.Today().AddDate(0, 0, 10)
	later := models.Today().AddDate(0, 3, 0)
	repo.ladders["a"] = &models.Ladder{ID: "a", NextInspectionDate: &past, Status: models.LadderStatusActive}
	repo.ladders["b"] = &models.Ladder{ID: "b", NextInspectionDate: &soon, Status: models.LadderStatusActive}
	repo.ladders["c"] = &models.Ladder{ID: "c", NextInspectionDate: &later, Status: models.LadderStatusActive}
	repo.ladders["d"] = &models.Ladder{ID: "d", NextInspectionDate: &past, Status: models.LadderStatusDisposed}

	res, err := svc.Due(context.Background(), 30)
	require.NoError(t, err)
	assert.Len(t, res.Ladders, 2)
	assert.Equal(t, models.Today().AddDate(0, 0, 30), repo.dueUntil)

	_, err = svc.Due(context.Background(), -1)
	assert.Error(t, err)
}
