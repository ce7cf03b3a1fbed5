package services

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"vivahahub/internal/domain"
	"vivahahub/internal/domain/models"
	"vivahahub/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
)

func newEscrowService(db *sql.DB) EscrowService {
	return EscrowService{
		EscrowRepo:       repositories.EscrowRepository{DB: db},
		TxRepo:           repositories.EscrowTransactionRepository{DB: db},
		BookingRepo:      repositories.BookingRepository{DB: db},
		NotificationRepo: repositories.NotificationRepository{DB: db},
		Now:              func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func escrowRows(a models.EscrowAccount) *sqlmock.Rows {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	if a.Currency == "" {
		a.Currency = "INR"
	}
	return sqlmock.NewRows([]string{
		"id", "booking_id", "user_id", "vendor_id", "total_amount", "advance_amount", "balance_amount",
		"released_amount", "refunded_amount", "commission_amount", "commission_percentage", "currency",
		"status", "notes", "auto_release_date", "funded_at", "released_at", "refunded_at", "created_at", "updated_at",
	}).AddRow(
		a.ID, a.BookingID, a.UserID, a.VendorID, a.TotalAmount, a.AdvanceAmount, a.BalanceAmount,
		a.ReleasedAmount, a.RefundedAmount, a.CommissionAmount, a.CommissionPercentage, a.Currency,
		a.Status, a.Notes, now.AddDate(0, 0, 7), nil, nil, nil, now, now,
	)
}

func bookingRows(b models.Booking) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "vendor_id", "service_type", "event_date", "venue_name",
		"guest_count", "total_amount", "status", "payment_status", "cancel_reason",
	}).AddRow(
		b.ID, b.UserID, b.VendorID, b.ServiceType, b.EventDate, b.VenueName,
		b.GuestCount, b.TotalAmount, b.Status, b.PaymentStatus, b.CancelReason,
	)
}

func TestCreateEscrowRejectsDuplicateBooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM bookings").WithArgs(int64(5)).
		WillReturnRows(bookingRows(models.Booking{ID: 5, UserID: 10, VendorID: 20, Status: "confirmed"}))
	mock.ExpectQuery("FROM escrow_accounts WHERE booking_id").WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	svc := newEscrowService(db)
	_, err = svc.Create(domain.RequestContext{UserID: 10, Role: domain.RoleCustomer}, CreateEscrowInput{
		BookingID:   5,
		TotalAmount: 100000,
	})
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateEscrowForbiddenForNonOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM bookings").WithArgs(int64(5)).
		WillReturnRows(bookingRows(models.Booking{ID: 5, UserID: 10, VendorID: 20}))

	svc := newEscrowService(db)
	_, err = svc.Create(domain.RequestContext{UserID: 99, Role: domain.RoleCustomer}, CreateEscrowInput{
		BookingID:   5,
		TotalAmount: 100000,
	})
	if !domain.IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateEscrowDerivesAmounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM bookings").WithArgs(int64(5)).
		WillReturnRows(bookingRows(models.Booking{ID: 5, UserID: 10, VendorID: 20}))
	mock.ExpectQuery("FROM escrow_accounts WHERE booking_id").WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO escrow_accounts").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("FROM escrow_accounts WHERE id").WithArgs(int64(1)).
		WillReturnRows(escrowRows(models.EscrowAccount{
			ID: 1, BookingID: 5, UserID: 10, VendorID: 20,
			TotalAmount: 100000, AdvanceAmount: 30000, BalanceAmount: 70000,
			CommissionAmount: 10000, CommissionPercentage: 10,
			Status: models.EscrowStatusPending,
		}))
	mock.ExpectExec("INSERT INTO notifications").
		WillReturnResult(sqlmock.NewResult(1, 1))

	svc := newEscrowService(db)
	created, err := svc.Create(domain.RequestContext{UserID: 10, Role: domain.RoleCustomer}, CreateEscrowInput{
		BookingID:   5,
		TotalAmount: 100000,
	})
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	if created.AdvanceAmount != 30000 || created.BalanceAmount != 70000 {
		t.Fatalf("derived amounts wrong: advance=%d balance=%d", created.AdvanceAmount, created.BalanceAmount)
	}
	if created.Status != models.EscrowStatusPending {
		t.Fatalf("status = %q, want pending", created.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReleaseRejectsInsufficientFunds(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM escrow_accounts WHERE id").WithArgs(int64(1)).
		WillReturnRows(escrowRows(models.EscrowAccount{
			ID: 1, BookingID: 5, UserID: 10, VendorID: 20,
			TotalAmount: 50000, Status: models.EscrowStatusFunded,
		}))

	svc := newEscrowService(db)
	_, err = svc.Release(domain.RequestContext{UserID: 10, Role: domain.RoleCustomer}, ReleaseInput{
		EscrowID: 1,
		Amount:   60000,
	})
	if !domain.IsBusinessRule(err) {
		t.Fatalf("expected business rule error, got %v", err)
	}
	if !strings.Contains(err.Error(), "50,000") {
		t.Fatalf("error should report the available balance, got %q", err.Error())
	}
	// No UPDATE was expected, so any write would fail the mock.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReleaseFullAmountCompletesBooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	// total 100000, 30000 already released; releasing the remaining 70000
	// must flip the account to released and the booking to completed.
	mock.ExpectQuery("FROM escrow_accounts WHERE id").WithArgs(int64(1)).
		WillReturnRows(escrowRows(models.EscrowAccount{
			ID: 1, BookingID: 5, UserID: 10, VendorID: 20,
			TotalAmount: 100000, ReleasedAmount: 30000,
			Status: models.EscrowStatusPartialReleased,
		}))
	mock.ExpectExec("UPDATE escrow_accounts").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM escrow_accounts WHERE id").WithArgs(int64(1)).
		WillReturnRows(escrowRows(models.EscrowAccount{
			ID: 1, BookingID: 5, UserID: 10, VendorID: 20,
			TotalAmount: 100000, ReleasedAmount: 100000,
			Status: models.EscrowStatusReleased,
		}))
	mock.ExpectExec("INSERT INTO escrow_transactions").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO notifications").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO notifications").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec("UPDATE bookings").
		WillReturnResult(sqlmock.NewResult(0, 1))

	svc := newEscrowService(db)
	updated, err := svc.Release(domain.RequestContext{UserID: 10, Role: domain.RoleCustomer}, ReleaseInput{
		EscrowID: 1,
		Amount:   70000,
	})
	if err != nil {
		t.Fatalf("release error: %v", err)
	}
	if updated.Status != models.EscrowStatusReleased {
		t.Fatalf("status = %q, want released", updated.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReleaseGuardLostRaceReportsCurrentState(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	// The first read sees funds, but the guarded UPDATE affects no rows
	// because a concurrent release consumed the balance in between.
	mock.ExpectQuery("FROM escrow_accounts WHERE id").WithArgs(int64(1)).
		WillReturnRows(escrowRows(models.EscrowAccount{
			ID: 1, BookingID: 5, UserID: 10, VendorID: 20,
			TotalAmount: 50000, Status: models.EscrowStatusFunded,
		}))
	mock.ExpectExec("UPDATE escrow_accounts").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FROM escrow_accounts WHERE id").WithArgs(int64(1)).
		WillReturnRows(escrowRows(models.EscrowAccount{
			ID: 1, BookingID: 5, UserID: 10, VendorID: 20,
			TotalAmount: 50000, ReleasedAmount: 50000,
			Status: models.EscrowStatusReleased,
		}))

	svc := newEscrowService(db)
	_, err = svc.Release(domain.RequestContext{UserID: 10, Role: domain.RoleCustomer}, ReleaseInput{
		EscrowID: 1,
		Amount:   50000,
	})
	if !domain.IsBusinessRule(err) {
		t.Fatalf("expected business rule error after lost race, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRefundFullAmountCancelsBooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM escrow_accounts WHERE id").WithArgs(int64(2)).
		WillReturnRows(escrowRows(models.EscrowAccount{
			ID: 2, BookingID: 8, UserID: 10, VendorID: 20,
			TotalAmount: 50000, Status: models.EscrowStatusFunded,
		}))
	mock.ExpectExec("UPDATE escrow_accounts").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM escrow_accounts WHERE id").WithArgs(int64(2)).
		WillReturnRows(escrowRows(models.EscrowAccount{
			ID: 2, BookingID: 8, UserID: 10, VendorID: 20,
			TotalAmount: 50000, RefundedAmount: 50000,
			Status: models.EscrowStatusRefunded,
		}))
	mock.ExpectExec("INSERT INTO escrow_transactions").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO notifications").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO notifications").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec("UPDATE bookings").
		WillReturnResult(sqlmock.NewResult(0, 1))

	svc := newEscrowService(db)
	updated, err := svc.Refund(domain.RequestContext{UserID: 20, Role: domain.RoleVendor}, RefundInput{
		EscrowID: 2,
		Amount:   50000,
		Reason:   "event cancelled by the couple",
	})
	if err != nil {
		t.Fatalf("refund error: %v", err)
	}
	if updated.Status != models.EscrowStatusRefunded {
		t.Fatalf("status = %q, want refunded", updated.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRefundRejectsShortReason(t *testing.T) {
	svc := EscrowService{}
	_, err := svc.Refund(domain.RequestContext{UserID: 10, Role: domain.RoleCustomer}, RefundInput{
		EscrowID: 1,
		Amount:   1000,
		Reason:   "too short",
	})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
