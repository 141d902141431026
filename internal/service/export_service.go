package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/ladder-inspection-api/internal/models"
	appErrors "github.com/noah-isme/ladder-inspection-api/pkg/errors"
	"github.com/noah-isme/ladder-inspection-api/pkg/export"
)

type ladderLister interface {
	List(ctx context.Context, filter models.LadderFilter) ([]models.Ladder, int, error)
}

type inspectionGetter interface {
	Get(ctx context.Context, id string) (*models.Inspection, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type xlsxRenderer interface {
	Render(data export.Dataset, sheet string) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	RenderDocument(doc export.Document) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	MaxRows int
}

// ExportService renders the ladder register and inspection protocols.
type ExportService struct {
	ladders     ladderLister
	inspections inspectionGetter
	csv         csvRenderer
	xlsx        xlsxRenderer
	pdf         pdfRenderer
	logger      *zap.Logger
	cfg         ExportConfig
	now         func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(ladders ladderLister, inspections inspectionGetter, csv csvRenderer, xlsx xlsxRenderer, pdf pdfRenderer, logger *zap.Logger, cfg ExportConfig) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 5000
	}
	return &ExportService{
		ladders:     ladders,
		inspections: inspections,
		csv:         csv,
		xlsx:        xlsx,
		pdf:         pdf,
		logger:      logger,
		cfg:         cfg,
		now:         time.Now,
	}
}

var ladderRegisterColumns = []export.Column{
	{Key: "ladder_number", Label: "Leiter-Nr.", Width: 1.2},
	{Key: "ladder_type", Label: "Typ", Width: 1.3},
	{Key: "manufacturer", Label: "Hersteller", Width: 1.3},
	{Key: "model", Label: "Modell", Width: 1.2},
	{Key: "material", Label: "Material", Width: 1},
	{Key: "height_cm", Label: "Höhe (cm)", Width: 0.8},
	{Key: "max_load_kg", Label: "Last (kg)", Width: 0.8},
	{Key: "location", Label: "Standort", Width: 1.6},
	{Key: "department", Label: "Abteilung", Width: 1.2},
	{Key: "status", Label: "Status", Width: 0.9},
	{Key: "next_inspection_date", Label: "Nächste Prüfung", Width: 1.1},
	{Key: "days_until_inspection", Label: "Tage", Width: 0.6},
}

// LadderRegister exports the ladders matching filter in the requested format.
func (s *ExportService) LadderRegister(ctx context.Context, filter models.LadderFilter, format models.ExportFormat) (*models.ExportFile, error) {
	ladders, err := s.collectLadders(ctx, filter)
	if err != nil {
		return nil, err
	}

	data := export.Dataset{Columns: ladderRegisterColumns, Rows: make([]map[string]string, 0, len(ladders))}
	for i := range ladders {
		data.Rows = append(data.Rows, ladderRow(&ladders[i]))
	}

	stamp := s.now().UTC().Format("20060102-150405")
	title := fmt.Sprintf("Leiterverzeichnis, Stand %s", s.now().Format("02.01.2006"))
	var rendered []byte
	switch format {
	case models.ExportFormatXLSX:
		rendered, err = s.xlsx.Render(data, "Leitern")
	case models.ExportFormatPDF:
		rendered, err = s.pdf.Render(data, title)
	default:
		format = models.ExportFormatCSV
		rendered, err = s.csv.Render(data)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render ladder register")
	}

	s.logger.Info("ladder register exported", zap.String("format", string(format)), zap.Int("rows", len(data.Rows)))
	return &models.ExportFile{
		Filename:    fmt.Sprintf("ladder-register-%s.%s", stamp, format),
		ContentType: format.ContentType(),
		Data:        rendered,
	}, nil
}

// InspectionProtocol renders a stored inspection as a PDF protocol.
func (s *ExportService) InspectionProtocol(ctx context.Context, id string) (*models.ExportFile, error) {
	insp, err := s.inspections.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	doc := protocolDocument(insp, s.now())
	rendered, err := s.pdf.RenderDocument(doc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render inspection protocol")
	}

	number := insp.LadderID()
	if l := insp.Ladder(); l != nil {
		number = l.LadderNumber
	}
	return &models.ExportFile{
		Filename:    fmt.Sprintf("inspection-%s-%s.pdf", sanitizeFilename(number), models.FormatDate(insp.InspectionDate())),
		ContentType: models.ExportFormatPDF.ContentType(),
		Data:        rendered,
	}, nil
}

// collectLadders pages through the register up to the configured row limit.
func (s *ExportService) collectLadders(ctx context.Context, filter models.LadderFilter) ([]models.Ladder, error) {
	const pageSize = 100
	filter.PageSize = pageSize
	var out []models.Ladder
	for page := 1; ; page++ {
		filter.Page = page
		batch, total, err := s.ladders.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ladders")
		}
		if total > s.cfg.MaxRows {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("export exceeds the limit of %d rows; narrow the filter", s.cfg.MaxRows))
		}
		out = append(out, batch...)
		if len(batch) < pageSize || len(out) >= total {
			return out, nil
		}
	}
}

func ladderRow(l *models.Ladder) map[string]string {
	days := ""
	if l.NextInspectionDate != nil {
		days = strconv.Itoa(l.DaysUntilInspection())
	}
	return map[string]string{
		"ladder_number":         l.LadderNumber,
		"ladder_type":           string(l.LadderType),
		"manufacturer":          l.Manufacturer,
		"model":                 deref(l.Model),
		"material":              string(l.Material),
		"height_cm":             strconv.Itoa(l.HeightCm),
		"max_load_kg":           strconv.Itoa(l.MaxLoadKg),
		"location":              l.Location,
		"department":            deref(l.Department),
		"status":                string(l.Status),
		"next_inspection_date":  models.FormatDate(l.NextInspectionDate),
		"days_until_inspection": days,
	}
}

var protocolItemColumns = []export.Column{
	{Key: "pos", Label: "Pos.", Width: 0.4},
	{Key: "category", Label: "Kategorie", Width: 1},
	{Key: "item", Label: "Prüfpunkt", Width: 2},
	{Key: "result", Label: "Ergebnis", Width: 0.9},
	{Key: "severity", Label: "Schwere", Width: 0.8},
	{Key: "repair", Label: "Reparatur bis", Width: 1},
}

func protocolDocument(insp *models.Inspection, printed time.Time) export.Document {
	header := []export.Field{
		{Label: "Prüfdatum", Value: models.FormatDate(insp.InspectionDate())},
		{Label: "Prüfart", Value: string(insp.InspectionType())},
		{Label: "Gesamtergebnis", Value: strings.ToUpper(string(insp.OverallResult()))},
		{Label: "Nächste Prüfung", Value: models.FormatDate(insp.NextInspectionDate())},
	}
	if d := insp.InspectionDurationMinutes(); d != nil {
		header = append(header, export.Field{Label: "Dauer (min)", Value: strconv.Itoa(*d)})
	}
	if w := insp.WeatherConditions(); w != nil {
		header = append(header, export.Field{Label: "Witterung", Value: *w})
	}
	if t := insp.TemperatureCelsius(); t != nil {
		header = append(header, export.Field{Label: "Temperatur", Value: strconv.FormatFloat(*t, 'f', 1, 64) + " °C"})
	}

	ladderFields := []export.Field{{Label: "Leiter-ID", Value: insp.LadderID()}}
	if l := insp.Ladder(); l != nil {
		ladderFields = []export.Field{
			{Label: "Leiter-Nr.", Value: l.LadderNumber},
			{Label: "Typ", Value: string(l.LadderType)},
			{Label: "Hersteller", Value: strings.TrimSpace(l.Manufacturer + " " + deref(l.Model))},
			{Label: "Standort", Value: l.Location},
			{Label: "Seriennummer", Value: deref(l.SerialNumber)},
		}
	}

	inspector := insp.InspectorID()
	if u := insp.Inspector(); u != nil {
		inspector = u.FullName()
	}

	items := export.Dataset{Columns: protocolItemColumns}
	for i, item := range insp.Items() {
		severity := ""
		if item.Severity != nil {
			severity = string(*item.Severity)
		}
		repair := ""
		if item.RepairRequired {
			repair = "ja"
			if item.RepairDeadline != nil {
				repair = models.FormatDate(item.RepairDeadline)
			}
		}
		items.Rows = append(items.Rows, map[string]string{
			"pos":      strconv.Itoa(i + 1),
			"category": string(item.Category),
			"item":     item.ItemName,
			"result":   string(item.Result),
			"severity": severity,
			"repair":   repair,
		})
	}

	sections := []export.Section{
		{Heading: "Leiter", Fields: ladderFields},
		{Heading: "Prüfung", Fields: header},
		{Heading: "Prüfpunkte", Table: &items},
	}
	if defects := insp.Defects(); len(defects) > 0 {
		lines := make([]string, len(defects))
		for i, d := range defects {
			lines[i] = fmt.Sprintf("- %s (%s)", d.ItemName, d.Classify())
		}
		sections = append(sections, export.Section{Heading: "Mängel", Text: strings.Join(lines, "\n")})
	}
	var notes []export.Field
	for _, n := range []struct {
		label string
		value *string
	}{
		{"Festgestellte Mängel", insp.DefectsFound()},
		{"Erforderliche Maßnahmen", insp.ActionsRequired()},
		{"Empfehlungen", insp.Recommendations()},
		{"Bemerkungen", insp.GeneralNotes()},
	} {
		if n.value != nil {
			notes = append(notes, export.Field{Label: n.label, Value: *n.value})
		}
	}
	if len(notes) > 0 {
		sections = append(sections, export.Section{Heading: "Hinweise", Fields: notes})
	}

	signature := []export.Field{{Label: "Prüfer", Value: inspector}}
	if sig := insp.InspectorSignature(); sig != nil {
		signature = append(signature, export.Field{Label: "Unterschrift", Value: *sig})
	}
	if insp.IsApproved() {
		signature = append(signature, export.Field{Label: "Freigegeben am", Value: models.FormatDate(insp.ApprovalDate())})
	}
	sections = append(sections, export.Section{Heading: "Bestätigung", Fields: signature})

	return export.Document{
		Title:    "Prüfprotokoll Leiter",
		Subtitle: fmt.Sprintf("Protokoll %s", insp.ID()),
		Footer:   fmt.Sprintf("Erstellt am %s", printed.Format("02.01.2006 15:04")),
		Sections: sections,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func sanitizeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}
