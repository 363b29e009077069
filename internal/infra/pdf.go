package infra

// pdf.go — Session close report generation using go-pdf/fpdf.
// Produces an A4 summary with:
//   - Session id, open/close timestamps and who performed each
//   - Per-currency reconciliation table (opening, in, out, expected,
//     counted, difference)
//   - Transaction count and total USD profit
//
// The output file is saved to storagePath/session_{id}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// ReportLine is one currency row of the reconciliation table.
type ReportLine struct {
	CurrencyCode string
	Opening      decimal.Decimal
	TotalIn      decimal.Decimal
	TotalOut     decimal.Decimal
	Expected     decimal.Decimal
	Counted      decimal.Decimal
	Difference   decimal.Decimal
}

// SessionReport is the flattened close report handed to the PDF generator
// and the mailer.
type SessionReport struct {
	SessionID        string
	OpenedBy         string
	OpenedAt         time.Time
	ClosedBy         string
	ClosedAt         time.Time
	Lines            []ReportLine
	TransactionCount int
	TotalProfitUSD   decimal.Decimal
}

// GenerateSessionReportPDF writes the close report PDF and returns its path.
// storagePath is created if needed.
func GenerateSessionReportPDF(report *SessionReport, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("session_%s.pdf", report.SessionID)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, "Cash Session Close Report", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, "Session "+report.SessionID, "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5,
		fmt.Sprintf("Opened %s by %s", report.OpenedAt.Format("02/01/2006 15:04"), report.OpenedBy),
		"", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5,
		fmt.Sprintf("Closed %s by %s", report.ClosedAt.Format("02/01/2006 15:04"), report.ClosedBy),
		"", 1, "L", false, 0, "")
	pdf.Ln(4)

	// ── Reconciliation table ──────────────────────────────────────────────────
	colCur := contentW * 0.13
	colNum := (contentW - colCur) / 6

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(colCur, 6, "Currency", "B", 0, "L", false, 0, "")
	for _, h := range []string{"Opening", "In", "Out", "Expected", "Counted", "Diff"} {
		pdf.CellFormat(colNum, 6, h, "B", 0, "R", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, line := range report.Lines {
		pdf.CellFormat(colCur, 6, line.CurrencyCode, "", 0, "L", false, 0, "")
		for _, v := range []decimal.Decimal{
			line.Opening, line.TotalIn, line.TotalOut,
			line.Expected, line.Counted, line.Difference,
		} {
			pdf.CellFormat(colNum, 6, v.StringFixed(2), "", 0, "R", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(3)

	// ── Totals ────────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5,
		fmt.Sprintf("Completed transactions: %d", report.TransactionCount),
		"", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 6,
		"Total profit (USD): "+report.TotalProfitUSD.StringFixed(2),
		"", 1, "L", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return filePath, nil
}
