// Package export renders completed reports to PDF and stores the file so
// the report created event can point at it.
package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ugurcanyksl/PhoneBookApp/services/report-service/internal/models"

	"github.com/jung-kurt/gofpdf"
)

const contentTypePDF = "application/pdf"

// Exporter renders and stores report summaries.
type Exporter struct {
	store  Store
	prefix string
}

// NewExporter stores files under prefix in store.
func NewExporter(store Store, prefix string) *Exporter {
	if prefix == "" {
		prefix = "reports"
	}
	return &Exporter{store: store, prefix: prefix}
}

// Export renders dto and returns the stored file's location.
func (e *Exporter) Export(ctx context.Context, dto models.ReportDto) (string, error) {
	data, err := RenderPDF(dto)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/%s.pdf", e.prefix, dto.ID)
	path, err := e.store.Put(ctx, key, data, contentTypePDF)
	if err != nil {
		return "", fmt.Errorf("store report file: %w", err)
	}

	slog.Info("Exported report", "report_id", dto.ID, "path", path, "bytes", len(data))
	return path, nil
}

// RenderPDF lays out a one-page summary: header, request metadata, and one
// table row per location.
func RenderPDF(dto models.ReportDto) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Contact Report "+dto.ID.String(), true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Contact Report")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, "Report ID: "+dto.ID.String())
	pdf.Ln(5)
	pdf.Cell(0, 6, "Requested at: "+dto.RequestedAt.UTC().Format(time.RFC3339))
	pdf.Ln(5)
	pdf.Cell(0, 6, "Status: "+dto.Status.String())
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(80, 7, "Location", "1", 0, "L", false, 0, "")
	pdf.CellFormat(45, 7, "Contacts", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 7, "Phone numbers", "1", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, d := range dto.Details {
		pdf.CellFormat(80, 7, tr(d.Location), "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 7, fmt.Sprintf("%d", d.TotalContacts), "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 7, fmt.Sprintf("%d", d.TotalPhoneNumbers), "1", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render report pdf: %w", err)
	}
	return buf.Bytes(), nil
}
