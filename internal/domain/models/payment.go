package models

import "time"

// Gateway payment statuses tracked locally.
const (
	PaymentStatusCreated  = "created"
	PaymentStatusCaptured = "captured"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// Payment mirrors a gateway payment attempt for a booking.
type Payment struct {
	ID               int64      `json:"id"`
	BookingID        int64      `json:"booking_id"`
	UserID           int64      `json:"user_id"`
	Amount           int64      `json:"amount"`
	Currency         string     `json:"currency"`
	GatewayOrderID   string     `json:"gateway_order_id"`
	GatewayPaymentID string     `json:"gateway_payment_id,omitempty"`
	Status           string     `json:"status"`
	FailureReason    string     `json:"failure_reason,omitempty"`
	CapturedAt       *time.Time `json:"captured_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// WebhookEvent records a processed gateway delivery so repeats are ignored.
type WebhookEvent struct {
	ID         int64     `json:"id"`
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	Payload    string    `json:"payload"`
	ReceivedAt time.Time `json:"received_at"`
}
