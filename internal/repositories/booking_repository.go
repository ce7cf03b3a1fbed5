package repositories

import (
	"database/sql"
	"errors"

	intconfig "vivahahub/internal/config"
	"vivahahub/internal/domain"
	"vivahahub/internal/domain/models"
)

type BookingRepository struct {
	DB *sql.DB
}

func (r BookingRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r BookingRepository) GetByID(id int64) (models.Booking, error) {
	if id <= 0 {
		return models.Booking{}, domain.ValidationError{Field: "booking_id", Msg: "must be positive"}
	}
	var b models.Booking
	err := r.db().QueryRow(`
		SELECT id,
		       user_id,
		       vendor_id,
		       COALESCE(service_type,''),
		       COALESCE(event_date,''),
		       COALESCE(venue_name,''),
		       COALESCE(guest_count,0),
		       COALESCE(total_amount,0),
		       status,
		       COALESCE(payment_status,''),
		       COALESCE(cancel_reason,'')
		FROM bookings
		WHERE id=? LIMIT 1`, id).Scan(
		&b.ID,
		&b.UserID,
		&b.VendorID,
		&b.ServiceType,
		&b.EventDate,
		&b.VenueName,
		&b.GuestCount,
		&b.TotalAmount,
		&b.Status,
		&b.PaymentStatus,
		&b.CancelReason,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Booking{}, domain.NotFoundError{Resource: "booking", Err: err}
	}
	return b, err
}

// MarkCompleted flips the booking to completed/fully_paid when its escrow is
// fully released.
func (r BookingRepository) MarkCompleted(id int64) error {
	_, err := r.db().Exec(`
		UPDATE bookings
		SET status='completed', payment_status='fully_paid', updated_at=NOW()
		WHERE id=?`, id)
	return err
}

// MarkCancelled records the cancellation reason alongside the status flip.
func (r BookingRepository) MarkCancelled(id int64, reason string) error {
	_, err := r.db().Exec(`
		UPDATE bookings
		SET status='cancelled', cancel_reason=?, cancelled_at=NOW(), updated_at=NOW()
		WHERE id=?`, reason, id)
	return err
}

func (r BookingRepository) UpdateStatus(id int64, status string) error {
	_, err := r.db().Exec(`UPDATE bookings SET status=?, updated_at=NOW() WHERE id=?`, status, id)
	return err
}

func (r BookingRepository) UpdatePaymentStatus(id int64, paymentStatus string) error {
	_, err := r.db().Exec(`UPDATE bookings SET payment_status=?, updated_at=NOW() WHERE id=?`, paymentStatus, id)
	return err
}
