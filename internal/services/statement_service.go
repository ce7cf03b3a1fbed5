package services

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"vivahahub/internal/domain"
	"vivahahub/internal/domain/models"
	"vivahahub/internal/repositories"
	"vivahahub/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// StatementService renders an escrow account and its ledger as a PDF
// statement for the participants.
type StatementService struct {
	EscrowRepo repositories.EscrowRepository
	TxRepo     repositories.EscrowTransactionRepository
	RequestID  string
}

func (s StatementService) Generate(actor domain.RequestContext, escrowID int64) ([]byte, string, error) {
	account, err := s.EscrowRepo.GetByID(escrowID)
	if err != nil {
		return nil, "", err
	}
	if err := Authorize(actor, account, ActionView); err != nil {
		return nil, "", err
	}
	entries, err := s.TxRepo.ListByAccount(escrowID)
	if err != nil {
		return nil, "", err
	}

	utils.LogEvent(s.RequestID, "statement", "generate", fmt.Sprintf("escrow_id=%d entries=%d", escrowID, len(entries)))
	return buildStatementPDF(account, entries)
}

func buildStatementPDF(a models.EscrowAccount, entries []models.EscrowTransaction) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Escrow Statement", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "ESCROW STATEMENT")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Statement No : ESC-%d-%s", a.ID, time.Now().Format("20060102")),
		fmt.Sprintf("Booking      : #%d", a.BookingID),
		fmt.Sprintf("Status       : %s", strings.ToUpper(a.Status)),
		fmt.Sprintf("Total Amount : %s", utils.FormatINR(a.TotalAmount)),
		fmt.Sprintf("Released     : %s", utils.FormatINR(a.ReleasedAmount)),
		fmt.Sprintf("Refunded     : %s", utils.FormatINR(a.RefundedAmount)),
		fmt.Sprintf("Available    : %s", utils.FormatINR(a.AvailableBalance())),
		fmt.Sprintf("Commission   : %s (%.1f%%)", utils.FormatINR(a.CommissionAmount), a.CommissionPercentage),
		fmt.Sprintf("Auto Release : %s", utils.FormatDate(a.AutoReleaseDate)),
	}
	for _, l := range lines {
		pdf.Cell(0, 7, l)
		pdf.Ln(7)
	}

	pdf.Ln(5)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Ledger")
	pdf.Ln(9)

	pdf.SetFont("Helvetica", "", 11)
	if len(entries) == 0 {
		pdf.Cell(0, 6, "No release or refund recorded yet.")
		pdf.Ln(6)
	}
	for i, e := range entries {
		row := fmt.Sprintf("%d) %s  %s  %s  %s",
			i+1,
			utils.FormatDateTime(e.ProcessedAt),
			strings.ToUpper(e.TransactionType),
			utils.FormatINR(e.Amount),
			safeText(e.Description, "-"),
		)
		pdf.MultiCell(0, 6, row, "", "", false)
		pdf.Ln(1)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Amounts are in Indian Rupees. This statement is generated from the escrow ledger and requires no signature.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("ESCROW_%d_STATEMENT.pdf", a.ID)
	return buf.Bytes(), filename, nil
}

func safeText(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}
