package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	intconfig "vivahahub/internal/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
)

func webhookRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		intconfig.DB = nil
	})
	intconfig.DB = db

	SetWebhookSecret("whsec_test")
	r := gin.New()
	r.POST("/api/payments/webhook", PaymentWebhook)
	return r, mock
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestWebhookRejectsBadSignatureWithoutTouchingDB(t *testing.T) {
	r, mock := webhookRouter(t)

	body := []byte(`{"id":"evt_1","event":"payment.captured","payload":{"order_id":"ord_1"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(body))
	req.Header.Set("X-Webhook-Signature", sign("wrong-secret", body))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	// No expectations were declared: any DB write would have failed the mock.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("db was touched: %v", err)
	}
}

func TestWebhookRejectsTamperedBody(t *testing.T) {
	r, mock := webhookRouter(t)

	original := []byte(`{"id":"evt_1","event":"payment.captured","payload":{"order_id":"ord_1"}}`)
	tampered := []byte(`{"id":"evt_1","event":"payment.captured","payload":{"order_id":"ord_2"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(tampered))
	req.Header.Set("X-Webhook-Signature", sign("whsec_test", original))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("db was touched: %v", err)
	}
}

func TestWebhookAcknowledgesDuplicateDelivery(t *testing.T) {
	r, mock := webhookRouter(t)

	mock.ExpectExec("INSERT IGNORE INTO webhook_events").
		WillReturnResult(sqlmock.NewResult(0, 0))

	body := []byte(`{"id":"evt_1","event":"payment.captured","payload":{"order_id":"ord_1"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(body))
	req.Header.Set("X-Webhook-Signature", sign("whsec_test", body))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
