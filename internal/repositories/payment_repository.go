package repositories

import (
	"database/sql"
	"errors"

	intconfig "vivahahub/internal/config"
	"vivahahub/internal/domain"
	"vivahahub/internal/domain/models"
)

type PaymentRepository struct {
	DB *sql.DB
}

func (r PaymentRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r PaymentRepository) GetByGatewayOrderID(orderID string) (models.Payment, error) {
	var (
		p          models.Payment
		capturedAt sql.NullTime
	)
	err := r.db().QueryRow(`
		SELECT id, booking_id, user_id, amount, COALESCE(currency,'INR'),
		       gateway_order_id, COALESCE(gateway_payment_id,''),
		       status, COALESCE(failure_reason,''), captured_at, created_at
		FROM payments
		WHERE gateway_order_id=? LIMIT 1`, orderID).Scan(
		&p.ID,
		&p.BookingID,
		&p.UserID,
		&p.Amount,
		&p.Currency,
		&p.GatewayOrderID,
		&p.GatewayPaymentID,
		&p.Status,
		&p.FailureReason,
		&capturedAt,
		&p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Payment{}, domain.NotFoundError{Resource: "payment", Err: err}
	}
	if capturedAt.Valid {
		p.CapturedAt = &capturedAt.Time
	}
	return p, err
}

// MarkCaptured records the gateway payment id and capture time.
func (r PaymentRepository) MarkCaptured(orderID, gatewayPaymentID string) error {
	_, err := r.db().Exec(`
		UPDATE payments
		SET status='captured', gateway_payment_id=?, captured_at=NOW(), updated_at=NOW()
		WHERE gateway_order_id=? AND status <> 'captured'`, gatewayPaymentID, orderID)
	return err
}

func (r PaymentRepository) MarkFailed(orderID, reason string) error {
	_, err := r.db().Exec(`
		UPDATE payments
		SET status='failed', failure_reason=?, updated_at=NOW()
		WHERE gateway_order_id=?`, reason, orderID)
	return err
}

func (r PaymentRepository) MarkRefunded(gatewayPaymentID string) error {
	_, err := r.db().Exec(`
		UPDATE payments
		SET status='refunded', updated_at=NOW()
		WHERE gateway_payment_id=?`, gatewayPaymentID)
	return err
}
