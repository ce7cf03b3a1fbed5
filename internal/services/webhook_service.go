package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"vivahahub/internal/domain"
	"vivahahub/internal/domain/models"
	"vivahahub/internal/repositories"
	"vivahahub/internal/utils"
)

// WebhookService handles payment-gateway callbacks. Deliveries are verified
// against the shared secret, deduplicated by provider event id, and mapped to
// payment/booking/escrow updates. Notification failures never fail a webhook.
type WebhookService struct {
	Secret           string
	EventRepo        repositories.WebhookEventRepository
	PaymentRepo      repositories.PaymentRepository
	BookingRepo      repositories.BookingRepository
	EscrowRepo       repositories.EscrowRepository
	NotificationRepo repositories.NotificationRepository
	RequestID        string
}

// gatewayEvent is the envelope the provider posts.
type gatewayEvent struct {
	ID      string `json:"id"`
	Event   string `json:"event"`
	Payload struct {
		OrderID   string `json:"order_id"`
		PaymentID string `json:"payment_id"`
		RefundID  string `json:"refund_id"`
		Reason    string `json:"reason"`
	} `json:"payload"`
}

// VerifySignature checks the hex HMAC-SHA256 of the raw body in constant
// time.
func (s WebhookService) VerifySignature(rawBody []byte, signature string) bool {
	signature = strings.TrimSpace(signature)
	if s.Secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(s.Secret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

// Process applies one verified delivery. A repeat of an already-processed
// event id is acknowledged without touching any record.
func (s WebhookService) Process(rawBody []byte) error {
	var ev gatewayEvent
	if err := json.Unmarshal(rawBody, &ev); err != nil {
		return domain.ValidationError{Field: "body", Msg: "payload is not valid JSON", Err: err}
	}
	if strings.TrimSpace(ev.ID) == "" || strings.TrimSpace(ev.Event) == "" {
		return domain.ValidationError{Field: "body", Msg: "missing event id or type"}
	}

	fresh, err := s.EventRepo.InsertIfNew(ev.ID, ev.Event, string(rawBody))
	if err != nil {
		return err
	}
	if !fresh {
		utils.LogEvent(s.RequestID, "webhook", ev.Event, "duplicate delivery ignored event_id="+ev.ID)
		return nil
	}

	switch ev.Event {
	case "payment.captured":
		return s.handleCaptured(ev)
	case "payment.failed":
		return s.handleFailed(ev)
	case "order.paid":
		return s.handleOrderPaid(ev)
	case "refund.created":
		return s.handleRefundCreated(ev)
	default:
		utils.LogEvent(s.RequestID, "webhook", ev.Event, "unrecognized event ignored event_id="+ev.ID)
		return nil
	}
}

func (s WebhookService) handleCaptured(ev gatewayEvent) error {
	payment, err := s.PaymentRepo.GetByGatewayOrderID(ev.Payload.OrderID)
	if err != nil {
		return err
	}
	if err := s.PaymentRepo.MarkCaptured(ev.Payload.OrderID, ev.Payload.PaymentID); err != nil {
		return err
	}
	if err := s.BookingRepo.UpdateStatus(payment.BookingID, models.BookingStatusConfirmed); err != nil {
		return err
	}
	funded, err := s.EscrowRepo.MarkFunded(payment.BookingID)
	if err != nil {
		return err
	}
	if funded {
		utils.LogEvent(s.RequestID, "webhook", ev.Event, fmt.Sprintf("escrow funded booking_id=%d", payment.BookingID))
	}

	s.notify(payment.UserID, "payment_captured", "Payment received",
		fmt.Sprintf("Your payment of %s for booking #%d was received.", utils.FormatINR(payment.Amount), payment.BookingID))
	return nil
}

func (s WebhookService) handleFailed(ev gatewayEvent) error {
	payment, err := s.PaymentRepo.GetByGatewayOrderID(ev.Payload.OrderID)
	if err != nil {
		return err
	}
	if err := s.PaymentRepo.MarkFailed(ev.Payload.OrderID, ev.Payload.Reason); err != nil {
		return err
	}

	s.notify(payment.UserID, "payment_failed", "Payment failed",
		fmt.Sprintf("Your payment for booking #%d failed. Please try again.", payment.BookingID))
	return nil
}

func (s WebhookService) handleOrderPaid(ev gatewayEvent) error {
	payment, err := s.PaymentRepo.GetByGatewayOrderID(ev.Payload.OrderID)
	if err != nil {
		return err
	}
	if err := s.BookingRepo.UpdateStatus(payment.BookingID, models.BookingStatusAdvancePaid); err != nil {
		return err
	}
	return s.BookingRepo.UpdatePaymentStatus(payment.BookingID, "advance_paid")
}

func (s WebhookService) handleRefundCreated(ev gatewayEvent) error {
	if err := s.PaymentRepo.MarkRefunded(ev.Payload.PaymentID); err != nil {
		return err
	}
	utils.LogEvent(s.RequestID, "webhook", ev.Event, "gateway refund recorded payment_id="+ev.Payload.PaymentID)
	return nil
}

func (s WebhookService) notify(userID int64, typ, title, message string) {
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
