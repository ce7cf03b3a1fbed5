package repositories

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	intconfig "vivahahub/internal/config"
	"vivahahub/internal/domain"
	"vivahahub/internal/domain/models"
)

type EscrowRepository struct {
	DB *sql.DB
}

func (r EscrowRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const escrowColumns = `id,
	       booking_id,
	       user_id,
	       vendor_id,
	       total_amount,
	       advance_amount,
	       balance_amount,
	       released_amount,
	       refunded_amount,
	       commission_amount,
	       commission_percentage,
	       COALESCE(currency,'INR'),
	       status,
	       COALESCE(notes,''),
	       auto_release_date,
	       funded_at,
	       released_at,
	       refunded_at,
	       created_at,
	       updated_at`

func scanEscrow(row interface{ Scan(...any) error }) (models.EscrowAccount, error) {
	var (
		a                              models.EscrowAccount
		fundedAt, releasedAt, refundAt sql.NullTime
	)
	err := row.Scan(
		&a.ID,
		&a.BookingID,
		&a.UserID,
		&a.VendorID,
		&a.TotalAmount,
		&a.AdvanceAmount,
		&a.BalanceAmount,
		&a.ReleasedAmount,
		&a.RefundedAmount,
		&a.CommissionAmount,
		&a.CommissionPercentage,
		&a.Currency,
		&a.Status,
		&a.Notes,
		&a.AutoReleaseDate,
		&fundedAt,
		&releasedAt,
		&refundAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return models.EscrowAccount{}, err
	}
	if fundedAt.Valid {
		a.FundedAt = &fundedAt.Time
	}
	if releasedAt.Valid {
		a.ReleasedAt = &releasedAt.Time
	}
	if refundAt.Valid {
		a.RefundedAt = &refundAt.Time
	}
	return a, nil
}

// Create inserts a new escrow account. The caller is responsible for the
// one-per-booking check; the unique key on booking_id backs it up.
func (r EscrowRepository) Create(a models.EscrowAccount) (models.EscrowAccount, error) {
	res, err := r.db().Exec(`
		INSERT INTO escrow_accounts
			(booking_id, user_id, vendor_id, total_amount, advance_amount, balance_amount,
			 released_amount, refunded_amount, commission_amount, commission_percentage,
			 currency, status, notes, auto_release_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, 0, ?, ?, ?, ?, ?, ?, NOW(), NOW())`,
		a.BookingID, a.UserID, a.VendorID, a.TotalAmount, a.AdvanceAmount, a.BalanceAmount,
		a.CommissionAmount, a.CommissionPercentage, a.Currency, a.Status, a.Notes, a.AutoReleaseDate,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return models.EscrowAccount{}, domain.ConflictError{Resource: "escrow", Msg: "escrow already exists for this booking", Err: err}
		}
		return models.EscrowAccount{}, err
	}
	id, _ := res.LastInsertId()
	return r.GetByID(id)
}

func (r EscrowRepository) GetByID(id int64) (models.EscrowAccount, error) {
	row := r.db().QueryRow(`SELECT `+escrowColumns+` FROM escrow_accounts WHERE id=? LIMIT 1`, id)
	a, err := scanEscrow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.EscrowAccount{}, domain.NotFoundError{Resource: "escrow account", Err: err}
	}
	return a, err
}

// ExistsForBooking reports whether the booking already has an escrow account.
func (r EscrowRepository) ExistsForBooking(bookingID int64) (bool, error) {
	var n int
	err := r.db().QueryRow(`SELECT COUNT(*) FROM escrow_accounts WHERE booking_id=?`, bookingID).Scan(&n)
	return n > 0, err
}

// List returns accounts visible to userID (payer or payee side), optionally
// narrowed by booking or account id. Admins pass userID=0 to see everything.
func (r EscrowRepository) List(userID, bookingID, escrowID int64) ([]models.EscrowAccount, error) {
	query := `SELECT ` + escrowColumns + ` FROM escrow_accounts WHERE 1=1`
	args := []any{}
	if userID > 0 {
		query += ` AND (user_id=? OR vendor_id=?)`
		args = append(args, userID, userID)
	}
	if bookingID > 0 {
		query += ` AND booking_id=?`
		args = append(args, bookingID)
	}
	if escrowID > 0 {
		query += ` AND id=?`
		args = append(args, escrowID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db().Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.EscrowAccount{}
	for rows.Next() {
		a, err := scanEscrow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ApplyRelease adds amount to released_amount in one guarded statement. The
// WHERE clause enforces status and available balance, so concurrent calls
// cannot oversubscribe the account; zero rows affected means the guard failed
// and the caller classifies why.
func (r EscrowRepository) ApplyRelease(id, amount int64, auditNote string) (bool, error) {
	res, err := r.db().Exec(`
		UPDATE escrow_accounts
		SET released_amount = released_amount + ?,
		    status = CASE WHEN released_amount + ? >= total_amount THEN 'released' ELSE 'partial_released' END,
		    released_at = CASE WHEN released_amount + ? >= total_amount THEN NOW() ELSE released_at END,
		    notes = CONCAT(COALESCE(notes,''), ?),
		    updated_at = NOW()
		WHERE id = ?
		  AND status IN ('funded','partial_released')
		  AND released_amount + refunded_amount + ? <= total_amount`,
		amount, amount, amount, auditNote, id, amount,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ApplyRefund mirrors ApplyRelease for the refund side. Status flips to
// refunded once refunds cover everything not already released.
func (r EscrowRepository) ApplyRefund(id, amount int64, auditNote string) (bool, error) {
	res, err := r.db().Exec(`
		UPDATE escrow_accounts
		SET refunded_amount = refunded_amount + ?,
		    status = CASE WHEN refunded_amount + ? >= total_amount - released_amount THEN 'refunded' ELSE status END,
		    refunded_at = CASE WHEN refunded_amount + ? >= total_amount - released_amount THEN NOW() ELSE refunded_at END,
		    notes = CONCAT(COALESCE(notes,''), ?),
		    updated_at = NOW()
		WHERE id = ?
		  AND status IN ('funded','partial_released','disputed')
		  AND released_amount + refunded_amount + ? <= total_amount`,
		amount, amount, amount, auditNote, id, amount,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkFunded moves a pending account to funded when the gateway confirms
// capture for its booking.
func (r EscrowRepository) MarkFunded(bookingID int64) (bool, error) {
	res, err := r.db().Exec(`
		UPDATE escrow_accounts
		SET status='funded', funded_at=NOW(), updated_at=NOW()
		WHERE booking_id=? AND status='pending'`, bookingID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkDisputed freezes a live account; only a refund leaves this state.
func (r EscrowRepository) MarkDisputed(id int64, auditNote string) (bool, error) {
	res, err := r.db().Exec(`
		UPDATE escrow_accounts
		SET status='disputed',
		    notes = CONCAT(COALESCE(notes,''), ?),
		    updated_at=NOW()
		WHERE id=? AND status IN ('funded','partial_released')`, auditNote, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListAutoReleasable returns live accounts whose auto-release deadline has
// passed and which still hold a balance.
func (r EscrowRepository) ListAutoReleasable(now time.Time) ([]models.EscrowAccount, error) {
	rows, err := r.db().Query(`
		SELECT `+escrowColumns+`
		FROM escrow_accounts
		WHERE status IN ('funded','partial_released')
		  AND auto_release_date <= ?
		  AND released_amount + refunded_amount < total_amount
		ORDER BY auto_release_date ASC`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.EscrowAccount{}
	for rows.Next() {
		a, err := scanEscrow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Duplicate entry")
}
