package services

import (
	"testing"
	"time"

	"vivahahub/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSweepReleasesOverdueAccounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	overdue := models.EscrowAccount{
		ID: 1, BookingID: 5, UserID: 10, VendorID: 20,
		TotalAmount: 50000, Status: models.EscrowStatusFunded,
	}

	mock.ExpectQuery("FROM escrow_accounts").
		WillReturnRows(escrowRows(overdue))
	// Release of the remaining 50000 through the guarded path.
	mock.ExpectQuery("FROM escrow_accounts WHERE id").WithArgs(int64(1)).
		WillReturnRows(escrowRows(overdue))
	mock.ExpectExec("UPDATE escrow_accounts").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM escrow_accounts WHERE id").WithArgs(int64(1)).
		WillReturnRows(escrowRows(models.EscrowAccount{
			ID: 1, BookingID: 5, UserID: 10, VendorID: 20,
			TotalAmount: 50000, ReleasedAmount: 50000,
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

	s := AutoReleaseService{
		Escrow: newEscrowService(db),
		Now:    func() time.Time { return time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC) },
	}
	n, err := s.Sweep()
	if err != nil {
		t.Fatalf("sweep error: %v", err)
	}
	if n != 1 {
		t.Fatalf("released %d accounts, want 1", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSweepNoOverdueAccountsIsNoOp(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM escrow_accounts").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	s := AutoReleaseService{Escrow: newEscrowService(db)}
	n, err := s.Sweep()
	if err != nil {
		t.Fatalf("sweep error: %v", err)
	}
	if n != 0 {
		t.Fatalf("released %d accounts, want 0", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSweepSkipsDrainedAccounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	// The overdue account was manually released between the scan and the
	// release attempt: guard affects zero rows, re-read shows it closed.
	overdue := models.EscrowAccount{
		ID: 1, BookingID: 5, UserID: 10, VendorID: 20,
		TotalAmount: 50000, Status: models.EscrowStatusFunded,
	}
	drained := models.EscrowAccount{
		ID: 1, BookingID: 5, UserID: 10, VendorID: 20,
		TotalAmount: 50000, ReleasedAmount: 50000,
		Status: models.EscrowStatusReleased,
	}

	mock.ExpectQuery("FROM escrow_accounts").
		WillReturnRows(escrowRows(overdue))
	mock.ExpectQuery("FROM escrow_accounts WHERE id").WithArgs(int64(1)).
		WillReturnRows(escrowRows(overdue))
	mock.ExpectExec("UPDATE escrow_accounts").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FROM escrow_accounts WHERE id").WithArgs(int64(1)).
		WillReturnRows(escrowRows(drained))

	s := AutoReleaseService{Escrow: newEscrowService(db)}
	n, err := s.Sweep()
	if err != nil {
		t.Fatalf("sweep error: %v", err)
	}
	if n != 0 {
		t.Fatalf("released %d accounts, want 0", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
