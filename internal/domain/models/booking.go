package models

// Booking statuses touched by the escrow flow.
const (
	BookingStatusPending     = "pending"
	BookingStatusAdvancePaid = "advance_paid"
	BookingStatusConfirmed   = "confirmed"
	BookingStatusCompleted   = "completed"
	BookingStatusCancelled   = "cancelled"
)

// Booking captures the marketplace booking data the escrow core needs. The
// escrow flow never creates bookings; it only flips status on terminal escrow
// states.
type Booking struct {
	ID            int64  `json:"id"`
	UserID        int64  `json:"user_id"`
	VendorID      int64  `json:"vendor_id"`
	ServiceType   string `json:"service_type"`
	EventDate     string `json:"event_date"`
	VenueName     string `json:"venue_name"`
	GuestCount    int    `json:"guest_count"`
	TotalAmount   int64  `json:"total_amount"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	CancelReason  string `json:"cancel_reason,omitempty"`
}
