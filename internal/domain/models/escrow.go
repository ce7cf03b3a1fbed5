package models

import "time"

// Escrow account statuses. An account starts pending, becomes funded when the
// gateway confirms capture, and ends released or refunded. Disputed is entered
// manually and can only be left through a refund.
const (
	EscrowStatusPending         = "pending"
	EscrowStatusFunded          = "funded"
	EscrowStatusPartialReleased = "partial_released"
	EscrowStatusReleased        = "released"
	EscrowStatusRefunded        = "refunded"
	EscrowStatusDisputed        = "disputed"
)

// Ledger entry types.
const (
	TxTypeRelease = "release"
	TxTypeRefund  = "refund"
)

// EscrowAccount is the held-funds ledger for one booking, 1:1.
// TotalAmount is fixed at creation; ReleasedAmount and RefundedAmount only
// grow, and their sum never exceeds TotalAmount.
type EscrowAccount struct {
	ID                   int64      `json:"id"`
	BookingID            int64      `json:"booking_id"`
	UserID               int64      `json:"user_id"`
	VendorID             int64      `json:"vendor_id"`
	TotalAmount          int64      `json:"total_amount"`
	AdvanceAmount        int64      `json:"advance_amount"`
	BalanceAmount        int64      `json:"balance_amount"`
	ReleasedAmount       int64      `json:"released_amount"`
	RefundedAmount       int64      `json:"refunded_amount"`
	CommissionAmount     int64      `json:"commission_amount"`
	CommissionPercentage float64    `json:"commission_percentage"`
	Currency             string     `json:"currency"`
	Status               string     `json:"status"`
	Notes                string     `json:"notes,omitempty"`
	AutoReleaseDate      time.Time  `json:"auto_release_date"`
	FundedAt             *time.Time `json:"funded_at,omitempty"`
	ReleasedAt           *time.Time `json:"released_at,omitempty"`
	RefundedAt           *time.Time `json:"refunded_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// AvailableBalance is what can still be released or refunded.
func (a EscrowAccount) AvailableBalance() int64 {
	return a.TotalAmount - a.ReleasedAmount - a.RefundedAmount
}

// CanRelease reports whether the account status admits a release.
func (a EscrowAccount) CanRelease() bool {
	return a.Status == EscrowStatusFunded || a.Status == EscrowStatusPartialReleased
}

// CanRefund reports whether the account status admits a refund.
func (a EscrowAccount) CanRefund() bool {
	switch a.Status {
	case EscrowStatusFunded, EscrowStatusPartialReleased, EscrowStatusDisputed:
		return true
	default:
		return false
	}
}

// IsParticipant reports whether userID is the payer or the payee.
func (a EscrowAccount) IsParticipant(userID int64) bool {
	return userID == a.UserID || userID == a.VendorID
}

// DeriveStatus recomputes status from the accumulators after adding a release
// or refund of amount. It mirrors the SQL CASE used by the repository so unit
// tests can check both agree.
func DeriveStatus(a EscrowAccount, txType string, amount int64) string {
	released := a.ReleasedAmount
	refunded := a.RefundedAmount
	switch txType {
	case TxTypeRelease:
		released += amount
	case TxTypeRefund:
		refunded += amount
	}
	if released >= a.TotalAmount {
		return EscrowStatusReleased
	}
	if refunded > 0 && refunded >= a.TotalAmount-released {
		return EscrowStatusRefunded
	}
	if txType == TxTypeRelease {
		return EscrowStatusPartialReleased
	}
	return a.Status
}

// EscrowTransaction is an append-only ledger entry; rows are written once per
// release/refund and never mutated.
type EscrowTransaction struct {
	ID              int64     `json:"id"`
	EscrowAccountID int64     `json:"escrow_account_id"`
	TransactionType string    `json:"transaction_type"`
	Amount          int64     `json:"amount"`
	FromUserID      int64     `json:"from_user_id"`
	ToUserID        int64     `json:"to_user_id"`
	Status          string    `json:"status"`
	Description     string    `json:"description"`
	ExternalRef     string    `json:"external_ref,omitempty"`
	CreatedBy       int64     `json:"created_by"`
	ProcessedAt     time.Time `json:"processed_at"`
}
