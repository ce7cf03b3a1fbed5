package services

import (
	"fmt"
	"strings"
	"time"

	"vivahahub/internal/domain"
	"vivahahub/internal/domain/models"
	"vivahahub/internal/repositories"
	"vivahahub/internal/utils"
)

// EscrowService owns the escrow lifecycle: creation, release, refund, dispute.
// All accumulator writes go through the repository's guarded statements, so
// two concurrent calls can never push released+refunded past total.
type EscrowService struct {
	EscrowRepo       repositories.EscrowRepository
	TxRepo           repositories.EscrowTransactionRepository
	BookingRepo      repositories.BookingRepository
	NotificationRepo repositories.NotificationRepository
	RequestID        string
	Now              func() time.Time
}

type CreateEscrowInput struct {
	BookingID            int64   `json:"booking_id"`
	TotalAmount          int64   `json:"total_amount"`
	AdvancePercentage    float64 `json:"advance_percentage"`
	CommissionPercentage float64 `json:"commission_percentage"`
	AutoReleaseDays      int     `json:"auto_release_days"`
}

type ReleaseInput struct {
	EscrowID           int64  `json:"escrow_id"`
	Amount             int64  `json:"amount"`
	Notes              string `json:"notes"`
	ExternalTransferID string `json:"external_transfer_id"`
}

type RefundInput struct {
	EscrowID         int64  `json:"escrow_id"`
	Amount           int64  `json:"amount"`
	Reason           string `json:"reason"`
	ExternalRefundID string `json:"external_refund_id"`
}

type DisputeInput struct {
	EscrowID int64  `json:"escrow_id"`
	Reason   string `json:"reason"`
}

func (s EscrowService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create sets up the one escrow account a booking may have. The requester
// must own the booking; payer and payee are taken from the booking itself.
func (s EscrowService) Create(actor domain.RequestContext, in CreateEscrowInput) (models.EscrowAccount, error) {
	if actor.UserID <= 0 {
		return models.EscrowAccount{}, domain.UnauthorizedError{}
	}
	if in.BookingID <= 0 {
		return models.EscrowAccount{}, domain.ValidationError{Field: "booking_id", Msg: "must be positive"}
	}
	if in.TotalAmount <= 0 {
		return models.EscrowAccount{}, domain.ValidationError{Field: "total_amount", Msg: "must be positive"}
	}
	if in.AdvancePercentage == 0 {
		in.AdvancePercentage = 30
	}
	if in.AdvancePercentage < 10 || in.AdvancePercentage > 100 {
		return models.EscrowAccount{}, domain.ValidationError{Field: "advance_percentage", Msg: "must be between 10 and 100"}
	}
	if in.CommissionPercentage == 0 {
		in.CommissionPercentage = 10
	}
	if in.CommissionPercentage < 0 || in.CommissionPercentage > 30 {
		return models.EscrowAccount{}, domain.ValidationError{Field: "commission_percentage", Msg: "must be between 0 and 30"}
	}
	if in.AutoReleaseDays == 0 {
		in.AutoReleaseDays = 7
	}
	if in.AutoReleaseDays < 1 || in.AutoReleaseDays > 90 {
		return models.EscrowAccount{}, domain.ValidationError{Field: "auto_release_days", Msg: "must be between 1 and 90"}
	}

	booking, err := s.BookingRepo.GetByID(in.BookingID)
	if err != nil {
		return models.EscrowAccount{}, err
	}
	if booking.UserID != int64(actor.UserID) && !actor.IsAdmin() {
		return models.EscrowAccount{}, domain.ForbiddenError{Resource: "booking", Action: "create escrow for"}
	}

	exists, err := s.EscrowRepo.ExistsForBooking(in.BookingID)
	if err != nil {
		return models.EscrowAccount{}, err
	}
	if exists {
		return models.EscrowAccount{}, domain.ConflictError{Resource: "escrow", Msg: "escrow already exists for this booking"}
	}

	advance := utils.PercentOf(in.TotalAmount, in.AdvancePercentage)
	account := models.EscrowAccount{
		BookingID:            in.BookingID,
		UserID:               booking.UserID,
		VendorID:             booking.VendorID,
		TotalAmount:          in.TotalAmount,
		AdvanceAmount:        advance,
		BalanceAmount:        in.TotalAmount - advance,
		CommissionAmount:     utils.PercentOf(in.TotalAmount, in.CommissionPercentage),
		CommissionPercentage: in.CommissionPercentage,
		Currency:             "INR",
		Status:               models.EscrowStatusPending,
		AutoReleaseDate:      s.now().AddDate(0, 0, in.AutoReleaseDays),
	}

	created, err := s.EscrowRepo.Create(account)
	if err != nil {
		return models.EscrowAccount{}, err
	}

	s.notify(created.VendorID, "escrow_created", "Escrow created",
		fmt.Sprintf("An escrow of %s has been set up for booking #%d.", utils.FormatINR(created.TotalAmount), created.BookingID))

	utils.LogEvent(s.RequestID, "escrow", "create",
		fmt.Sprintf("escrow_id=%d booking_id=%d total=%d", created.ID, created.BookingID, created.TotalAmount))
	return created, nil
}

// Get returns one account, visible to participants and admins only.
func (s EscrowService) Get(actor domain.RequestContext, escrowID int64) (models.EscrowAccount, error) {
	account, err := s.EscrowRepo.GetByID(escrowID)
	if err != nil {
		return models.EscrowAccount{}, err
	}
	if err := Authorize(actor, account, ActionView); err != nil {
		return models.EscrowAccount{}, err
	}
	return account, nil
}

// List returns the requester's accounts; admins see every account.
func (s EscrowService) List(actor domain.RequestContext, bookingID, escrowID int64) ([]models.EscrowAccount, error) {
	if actor.UserID <= 0 {
		return nil, domain.UnauthorizedError{}
	}
	userID := int64(actor.UserID)
	if actor.IsAdmin() {
		userID = 0
	}
	return s.EscrowRepo.List(userID, bookingID, escrowID)
}

// Release moves amount from held to released. Only the payer or an admin may
// release; the vendor cannot pay themselves out.
func (s EscrowService) Release(actor domain.RequestContext, in ReleaseInput) (models.EscrowAccount, error) {
	if in.Amount <= 0 {
		return models.EscrowAccount{}, domain.ValidationError{Field: "amount", Msg: "must be positive"}
	}

	account, err := s.EscrowRepo.GetByID(in.EscrowID)
	if err != nil {
		return models.EscrowAccount{}, err
	}
	if err := Authorize(actor, account, ActionRelease); err != nil {
		return models.EscrowAccount{}, err
	}
	if err := s.checkRelease(account, in.Amount); err != nil {
		return models.EscrowAccount{}, err
	}

	note := s.auditNote("release", in.Amount, actor, in.Notes)
	ok, err := s.EscrowRepo.ApplyRelease(in.EscrowID, in.Amount, note)
	if err != nil {
		return models.EscrowAccount{}, err
	}
	if !ok {
		// Guard rejected the write: the account changed under us. Re-read to
		// report the current reason.
		account, err = s.EscrowRepo.GetByID(in.EscrowID)
		if err != nil {
			return models.EscrowAccount{}, err
		}
		return models.EscrowAccount{}, s.checkRelease(account, in.Amount)
	}

	updated, err := s.EscrowRepo.GetByID(in.EscrowID)
	if err != nil {
		return models.EscrowAccount{}, err
	}

	if _, err := s.TxRepo.Append(models.EscrowTransaction{
		EscrowAccountID: updated.ID,
		TransactionType: models.TxTypeRelease,
		Amount:          in.Amount,
		FromUserID:      updated.UserID,
		ToUserID:        updated.VendorID,
		Status:          "completed",
		Description:     in.Notes,
		ExternalRef:     in.ExternalTransferID,
		CreatedBy:       int64(actor.UserID),
	}); err != nil {
		utils.LogEvent(s.RequestID, "escrow", "release", "ledger append failed: "+err.Error())
		return models.EscrowAccount{}, err
	}

	s.notify(updated.VendorID, "escrow_released", "Funds released",
		fmt.Sprintf("%s has been released to you from escrow #%d.", utils.FormatINR(in.Amount), updated.ID))
	s.notify(updated.UserID, "escrow_released", "Release confirmed",
		fmt.Sprintf("You released %s from escrow #%d.", utils.FormatINR(in.Amount), updated.ID))

	if updated.Status == models.EscrowStatusReleased {
		if err := s.BookingRepo.MarkCompleted(updated.BookingID); err != nil {
			utils.LogEvent(s.RequestID, "escrow", "release", "booking completion failed: "+err.Error())
			return models.EscrowAccount{}, err
		}
	}

	utils.LogEvent(s.RequestID, "escrow", "release",
		fmt.Sprintf("escrow_id=%d amount=%d status=%s", updated.ID, in.Amount, updated.Status))
	return updated, nil
}

// Refund moves amount back to the customer. Payer, payee, or admin may start
// it; disputed accounts can only be exited this way.
func (s EscrowService) Refund(actor domain.RequestContext, in RefundInput) (models.EscrowAccount, error) {
	if in.Amount <= 0 {
		return models.EscrowAccount{}, domain.ValidationError{Field: "amount", Msg: "must be positive"}
	}
	if len(strings.TrimSpace(in.Reason)) < 10 {
		return models.EscrowAccount{}, domain.ValidationError{Field: "reason", Msg: "must be at least 10 characters"}
	}

	account, err := s.EscrowRepo.GetByID(in.EscrowID)
	if err != nil {
		return models.EscrowAccount{}, err
	}
	if err := Authorize(actor, account, ActionRefund); err != nil {
		return models.EscrowAccount{}, err
	}
	if err := s.checkRefund(account, in.Amount); err != nil {
		return models.EscrowAccount{}, err
	}

	note := s.auditNote("refund", in.Amount, actor, in.Reason)
	ok, err := s.EscrowRepo.ApplyRefund(in.EscrowID, in.Amount, note)
	if err != nil {
		return models.EscrowAccount{}, err
	}
	if !ok {
		account, err = s.EscrowRepo.GetByID(in.EscrowID)
		if err != nil {
			return models.EscrowAccount{}, err
		}
		return models.EscrowAccount{}, s.checkRefund(account, in.Amount)
	}

	updated, err := s.EscrowRepo.GetByID(in.EscrowID)
	if err != nil {
		return models.EscrowAccount{}, err
	}

	if _, err := s.TxRepo.Append(models.EscrowTransaction{
		EscrowAccountID: updated.ID,
		TransactionType: models.TxTypeRefund,
		Amount:          in.Amount,
		FromUserID:      updated.VendorID,
		ToUserID:        updated.UserID,
		Status:          "completed",
		Description:     in.Reason,
		ExternalRef:     in.ExternalRefundID,
		CreatedBy:       int64(actor.UserID),
	}); err != nil {
		utils.LogEvent(s.RequestID, "escrow", "refund", "ledger append failed: "+err.Error())
		return models.EscrowAccount{}, err
	}

	s.notify(updated.UserID, "escrow_refunded", "Refund processed",
		fmt.Sprintf("%s has been refunded to you from escrow #%d.", utils.FormatINR(in.Amount), updated.ID))
	s.notify(updated.VendorID, "escrow_refunded", "Refund issued",
		fmt.Sprintf("%s was refunded to the customer from escrow #%d.", utils.FormatINR(in.Amount), updated.ID))

	if updated.Status == models.EscrowStatusRefunded {
		if err := s.BookingRepo.MarkCancelled(updated.BookingID, in.Reason); err != nil {
			utils.LogEvent(s.RequestID, "escrow", "refund", "booking cancellation failed: "+err.Error())
			return models.EscrowAccount{}, err
		}
	}

	utils.LogEvent(s.RequestID, "escrow", "refund",
		fmt.Sprintf("escrow_id=%d amount=%d status=%s", updated.ID, in.Amount, updated.Status))
	return updated, nil
}

// Dispute freezes a live account until a refund resolves it.
func (s EscrowService) Dispute(actor domain.RequestContext, in DisputeInput) (models.EscrowAccount, error) {
	if len(strings.TrimSpace(in.Reason)) < 10 {
		return models.EscrowAccount{}, domain.ValidationError{Field: "reason", Msg: "must be at least 10 characters"}
	}

	account, err := s.EscrowRepo.GetByID(in.EscrowID)
	if err != nil {
		return models.EscrowAccount{}, err
	}
	if err := Authorize(actor, account, ActionDispute); err != nil {
		return models.EscrowAccount{}, err
	}

	note := s.auditNote("dispute", 0, actor, in.Reason)
	ok, err := s.EscrowRepo.MarkDisputed(in.EscrowID, note)
	if err != nil {
		return models.EscrowAccount{}, err
	}
	if !ok {
		return models.EscrowAccount{}, domain.BusinessRuleError{
			Rule: "escrow status",
			Msg:  fmt.Sprintf("cannot dispute an account in status %q", account.Status),
		}
	}

	updated, err := s.EscrowRepo.GetByID(in.EscrowID)
	if err != nil {
		return models.EscrowAccount{}, err
	}

	other := updated.VendorID
	if int64(actor.UserID) == updated.VendorID {
		other = updated.UserID
	}
	s.notify(other, "escrow_disputed", "Escrow disputed",
		fmt.Sprintf("Escrow #%d has been marked as disputed.", updated.ID))

	utils.LogEvent(s.RequestID, "escrow", "dispute", fmt.Sprintf("escrow_id=%d", updated.ID))
	return updated, nil
}

func (s EscrowService) checkRelease(account models.EscrowAccount, amount int64) error {
	if !account.CanRelease() {
		return domain.BusinessRuleError{
			Rule: "escrow status",
			Msg:  fmt.Sprintf("cannot release from an account in status %q", account.Status),
		}
	}
	if available := account.AvailableBalance(); amount > available {
		return domain.BusinessRuleError{
			Rule: "insufficient funds",
			Msg:  fmt.Sprintf("requested %s but only %s is available", utils.FormatINR(amount), utils.FormatINR(available)),
		}
	}
	return nil
}

func (s EscrowService) checkRefund(account models.EscrowAccount, amount int64) error {
	if !account.CanRefund() {
		return domain.BusinessRuleError{
			Rule: "escrow status",
			Msg:  fmt.Sprintf("cannot refund from an account in status %q", account.Status),
		}
	}
	if available := account.AvailableBalance(); amount > available {
		return domain.BusinessRuleError{
			Rule: "insufficient funds",
			Msg:  fmt.Sprintf("requested %s but only %s is available", utils.FormatINR(amount), utils.FormatINR(available)),
		}
	}
	return nil
}

func (s EscrowService) auditNote(op string, amount int64, actor domain.RequestContext, detail string) string {
	detail = strings.TrimSpace(detail)
	line := fmt.Sprintf("\n[%s] %s", utils.FormatDateTime(s.now()), op)
	if amount > 0 {
		line += " " + utils.FormatINR(amount)
	}
	line += fmt.Sprintf(" by user %d", actor.UserID)
	if detail != "" {
		line += ": " + detail
	}
	return line
}

// notify is fire and forget: a failed insert is logged and never fails the
// primary operation.
func (s EscrowService) notify(userID int64, typ, title, message string) {
	err := s.NotificationRepo.Insert(models.Notification{
		UserID:  userID,
		Type:    typ,
		Title:   title,
		Message: message,
	})
	if err != nil {
		utils.LogEvent(s.RequestID, "notify", typ, "insert failed: "+err.Error())
	}
}
