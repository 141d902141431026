package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/noah-isme/ladder-inspection-api/internal/models"
	appErrors "github.com/noah-isme/ladder-inspection-api/pkg/errors"
	"github.com/noah-isme/ladder-inspection-api/pkg/export"
)

type pagedLadders struct {
	all   []models.Ladder
	pages []int
}

func (p *pagedLadders) List(_ context.Context, filter models.LadderFilter) ([]models.Ladder, int, error) {
	p.pages = append(p.pages, filter.Page)
	start := (filter.Page - 1) * filter.PageSize
	if start >= len(p.all) {
		return nil, len(p.all), nil
	}
	end := start + filter.PageSize
	if end > len(p.all) {
		end = len(p.all)
	}
	return p.all[start:end], len(p.all), nil
}

type stubInspectionGetter struct {
	insp *models.Inspection
}

func (s stubInspectionGetter) Get(context.Context, string) (*models.Inspection, error) {
	if s.insp == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "inspection not found")
	}
	return s.insp, nil
}

func makeLadders(n int) []models.Ladder {
	out := make([]models.Ladder, n)
	next := models.Today().AddDate(0, 0, 10)
	for i := range out {
		out[i] = models.Ladder{
			ID:                 fmt.Sprintf("l%d", i),
			LadderNumber:       fmt.Sprintf("L-%03d", i),
			LadderType:         models.LadderTypeStep,
			Manufacturer:       "Zarges",
			Material:           models.MaterialAluminium,
			HeightCm:           200,
			MaxLoadKg:          150,
			Location:           "Werkstatt",
			Status:             models.LadderStatusActive,
			NextInspectionDate: &next,
		}
	}
	return out
}

func newExportFixture(ladders *pagedLadders, insp *models.Inspection, maxRows int) *ExportService {
	svc := NewExportService(ladders, stubInspectionGetter{insp: insp}, export.NewCSVExporter(), export.NewXLSXExporter(), export.NewPDFExporter(), zap.NewNop(), ExportConfig{MaxRows: maxRows})
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 8, 30, 0, 0, time.UTC) }
	return svc
}

func TestExportServiceLadderRegisterCSV(t *testing.T) {
	ladders := &pagedLadders{all: makeLadders(150)}
	svc := newExportFixture(ladders, nil, 1000)

	file, err := svc.LadderRegister(context.Background(), models.LadderFilter{}, models.ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "ladder-register-20260310-083000.csv", file.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)
	assert.Equal(t, []int{1, 2}, ladders.pages)

	body := strings.TrimPrefix(string(file.Data), "\ufeff")
	lines := strings.Split(strings.TrimSpace(body), "\n")
	assert.Len(t, lines, 151)
	assert.True(t, strings.HasPrefix(lines[0], "Leiter-Nr.;Typ;Hersteller"))
	assert.Contains(t, lines[1], "L-000;Stehleiter;Zarges")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(lines[1]), ";10"))
}

func TestExportServiceLadderRegisterXLSX(t *testing.T) {
	svc := newExportFixture(&pagedLadders{all: makeLadders(3)}, nil, 1000)

	file, err := svc.LadderRegister(context.Background(), models.LadderFilter{}, models.ExportFormatXLSX)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(file.Filename, ".xlsx"))

	book, err := excelize.OpenReader(bytes.NewReader(file.Data))
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows("Leitern")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Leiter-Nr.", rows[0][0])
	assert.Equal(t, "L-002", rows[3][0])
}

func TestExportServiceLadderRegisterPDF(t *testing.T) {
	svc := newExportFixture(&pagedLadders{all: makeLadders(2)}, nil, 1000)

	file, err := svc.LadderRegister(context.Background(), models.LadderFilter{}, models.ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Data, []byte("%PDF")))
}

func TestExportServiceLadderRegisterRowLimit(t *testing.T) {
	svc := newExportFixture(&pagedLadders{all: makeLadders(20)}, nil, 10)

	_, err := svc.LadderRegister(context.Background(), models.LadderFilter{}, models.ExportFormatCSV)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestExportServiceInspectionProtocol(t *testing.T) {
	high := models.SeverityCritical
	deadline := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	notes := "Spreizsicherung erneuern"
	insp, err := models.RestoreInspection(models.InspectionRecord{
		ID:                 "insp-1",
		LadderID:           "l1",
		InspectorID:        "u1",
		InspectionDate:     time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		InspectionType:     "routine",
		OverallResult:      "failed",
		NextInspectionDate: time.Date(2027, 3, 9, 0, 0, 0, 0, time.UTC),
		ActionsRequired:    &notes,
	}, []models.InspectionItem{
		{ItemName: "Holme", Category: models.ItemCategoryStructure, Result: models.ItemResultOK},
		{ItemName: "Spreizsicherung", Category: models.ItemCategorySafety, Result: models.ItemResultDefect, Severity: &high, RepairRequired: true, RepairDeadline: &deadline},
	})
	require.NoError(t, err)
	ladder := makeLadders(1)[0]
	insp.AttachLadder(&ladder)
	insp.AttachInspector(&models.User{ID: "u1", Username: "anna", FirstName: "Anna", LastName: "Müller"})

	svc := newExportFixture(&pagedLadders{}, insp, 1000)
	file, err := svc.InspectionProtocol(context.Background(), "insp-1")
	require.NoError(t, err)
	assert.Equal(t, "inspection-L-000-2026-03-09.pdf", file.Filename)
	assert.True(t, bytes.HasPrefix(file.Data, []byte("%PDF")))
}

func TestExportServiceInspectionProtocolNotFound(t *testing.T) {
	svc := newExportFixture(&pagedLadders{}, nil, 1000)
	_, err := svc.InspectionProtocol(context.Background(), "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
