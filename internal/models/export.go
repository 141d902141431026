package models

// ExportFormat is the file type of a generated export.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatXLSX ExportFormat = "xlsx"
	ExportFormatPDF  ExportFormat = "pdf"
)

// ExportFormats lists the accepted export formats.
var ExportFormats = []ExportFormat{ExportFormatCSV, ExportFormatXLSX, ExportFormatPDF}

// ParseExportFormat converts raw input into an ExportFormat. Blank means CSV.
func ParseExportFormat(raw string) (ExportFormat, error) {
	if raw == "" {
		return ExportFormatCSV, nil
	}
	f := ExportFormat(raw)
	for _, known := range ExportFormats {
		if f == known {
			return f, nil
		}
	}
	return "", invalidEnum("format", raw, enumStrings(ExportFormats))
}

// ContentType returns the MIME type of the format.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportFormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ExportFormatPDF:
		return "application/pdf"
	default:
		return "text/csv; charset=utf-8"
	}
}

// ExportFile is a rendered export ready to be sent as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
