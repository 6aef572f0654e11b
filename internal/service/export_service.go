package service

import (
	"fmt"
	"strconv"

	"github.com/noah-isme/courseflow-api/internal/models"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
	"github.com/noah-isme/courseflow-api/pkg/export"
)

// ExportFormat names a supported stats export encoding.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportService renders occupancy reports into downloadable documents.
type ExportService struct {
	csv *export.CSVExporter
	pdf *export.PDFExporter
}

// NewExportService constructs ExportService.
func NewExportService() *ExportService {
	return &ExportService{csv: export.NewCSVExporter(), pdf: export.NewPDFExporter()}
}

// RenderStats encodes a course occupancy report. Returns the payload and
// its content type.
func (s *ExportService) RenderStats(stats *models.CourseStats, format ExportFormat) ([]byte, string, error) {
	dataset := statsDataset(stats)
	switch format {
	case ExportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	case ExportFormatPDF:
		payload, err := s.pdf.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func statsDataset(stats *models.CourseStats) export.Dataset {
	rows := make([][]string, 0, len(stats.Sections)+1)
	for _, section := range stats.Sections {
		rows = append(rows, []string{
			section.SectionNumber,
			string(section.Type),
			string(section.ApprovalStatus),
			strconv.Itoa(section.Capacity),
			strconv.Itoa(section.Enrolled),
			strconv.Itoa(section.Available),
			strconv.FormatFloat(section.PercentFull, 'f', 2, 64),
			strconv.FormatBool(section.IsFull),
		})
	}
	rows = append(rows, []string{
		"TOTAL", "", "",
		strconv.Itoa(stats.TotalCapacity),
		strconv.Itoa(stats.TotalEnrolled),
		strconv.Itoa(stats.TotalAvailable),
		strconv.FormatFloat(stats.PercentFull, 'f', 2, 64),
		"",
	})
	return export.Dataset{
		Title:   fmt.Sprintf("Seat Occupancy - %s", stats.CourseCode),
		Headers: []string{"Section", "Type", "Approval", "Capacity", "Enrolled", "Available", "Percent Full", "Full"},
		Rows:    rows,
	}
}
