package handlers

import (
	"io"
	"net/http"
	"strings"

	"vivahahub/internal/domain"
	"vivahahub/internal/http/middleware"
	"vivahahub/internal/services"

	"github.com/gin-gonic/gin"
)

var webhookSecret string

// SetWebhookSecret configures the shared gateway secret; called once from the
// router.
func SetWebhookSecret(secret string) {
	webhookSecret = strings.TrimSpace(secret)
}

// POST /api/payments/webhook
//
// The signature is the request's authentication; an invalid one must be
// rejected before any record is touched.
func PaymentWebhook(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "failed to read body", err)
		return
	}

	svc := services.WebhookService{
		Secret:    webhookSecret,
		RequestID: middleware.GetRequestID(c),
	}

	if !svc.VerifySignature(rawBody, c.GetHeader("X-Webhook-Signature")) {
		RespondError(c, http.StatusUnauthorized, "invalid webhook signature", nil)
		return
	}

	if err := svc.Process(rawBody); err != nil {
		if domain.IsValidation(err) || domain.IsNotFound(err) {
			RespondDomainError(c, err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "failed to process event", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
