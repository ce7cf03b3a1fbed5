package services

import (
	"fmt"
	"time"

	"vivahahub/internal/domain/models"
	"vivahahub/internal/repositories"
	"vivahahub/internal/utils"
)

// ReconcileService audits the append-only ledger against the account
// accumulators. It is read-only; drift is reported, never repaired.
type ReconcileService struct {
	EscrowRepo repositories.EscrowRepository
	TxRepo     repositories.EscrowTransactionRepository
	RequestID  string
}

// DriftReport describes one account whose ledger sums disagree with its
// accumulators.
type DriftReport struct {
	EscrowID       int64     `json:"escrow_id"`
	BookingID      int64     `json:"booking_id"`
	Status         string    `json:"status"`
	ReleasedAmount int64     `json:"released_amount"`
	ReleasedLedger int64     `json:"released_ledger"`
	RefundedAmount int64     `json:"refunded_amount"`
	RefundedLedger int64     `json:"refunded_ledger"`
	CheckedAt      time.Time `json:"checked_at"`
}

// Audit walks every account and compares sum(release ledger) and sum(refund
// ledger) with the stored accumulators.
func (s ReconcileService) Audit() ([]DriftReport, error) {
	accounts, err := s.EscrowRepo.List(0, 0, 0)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	drifts := []DriftReport{}
	for _, a := range accounts {
		releasedLedger, err := s.TxRepo.SumByType(a.ID, models.TxTypeRelease)
		if err != nil {
			return nil, err
		}
		refundedLedger, err := s.TxRepo.SumByType(a.ID, models.TxTypeRefund)
		if err != nil {
			return nil, err
		}
		if releasedLedger == a.ReleasedAmount && refundedLedger == a.RefundedAmount {
			continue
		}
		drifts = append(drifts, DriftReport{
			EscrowID:       a.ID,
			BookingID:      a.BookingID,
			Status:         a.Status,
			ReleasedAmount: a.ReleasedAmount,
			ReleasedLedger: releasedLedger,
			RefundedAmount: a.RefundedAmount,
			RefundedLedger: refundedLedger,
			CheckedAt:      now,
		})
	}

	utils.LogEvent(s.RequestID, "escrow", "reconcile",
		fmt.Sprintf("accounts=%d drift=%d", len(accounts), len(drifts)))
	return drifts, nil
}
