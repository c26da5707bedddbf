package storage

import (
	"fmt"
	"io"
	"time"

	"github.com/ClareAI/astra-dialer-service/internal/domain"
	"github.com/jung-kurt/gofpdf/v2"
)

// WriteCallTranscriptPDF renders a call's transcript as a PDF document for
// download from the dashboard.
func WriteCallTranscriptPDF(call *domain.Call, writer io.Writer) error {
	if call == nil {
		return fmt.Errorf("call cannot be nil")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Call Transcript", "", 1, "", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Call ID: %s", call.ID), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("From %s to %s", call.FromNumber, call.ToNumber), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Status: %s", call.Status), "", 1, "", false, 0, "")
	if call.StartedAt != nil {
		pdf.CellFormat(0, 6, fmt.Sprintf("Started: %s", call.StartedAt.Format("2006-01-02 15:04:05")), "", 1, "", false, 0, "")
	}
	if call.DurationSeconds > 0 {
		pdf.CellFormat(0, 6, fmt.Sprintf("Duration: %ds", call.DurationSeconds), "", 1, "", false, 0, "")
	}
	pdf.Ln(6)

	if call.Summary != "" {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, "Summary", "", 1, "", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, call.Summary, "", "", false)
		pdf.Ln(4)
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Transcript", "", 1, "", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	transcript := call.Transcript
	if transcript == "" {
		transcript = "No transcript available."
	}
	pdf.MultiCell(0, 6, transcript, "", "", false)

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetY(-15)
	pdf.SetX(0)
	pdf.CellFormat(0, 10, fmt.Sprintf("Generated on %s", time.Now().Format("2006-01-02 15:04:05")), "", 0, "C", false, 0, "")

	if err := pdf.Output(writer); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}
