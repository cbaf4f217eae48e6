package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/Dhoini/billing-service/internal/domain"
	"github.com/Dhoini/billing-service/internal/integration/stripe"
	"github.com/Dhoini/billing-service/internal/service"
	"github.com/Dhoini/billing-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

// События с развернутыми объектами (строки инвойса, метаданные) доходят
// до сотен килобайт; отказ по размеру заставил бы Stripe повторять доставку
const maxWebhookBodyBytes = 1 << 20

// WebhookHandler обработчик для вебхуков Stripe
type WebhookHandler struct {
	verifier   *stripe.WebhookVerifier
	reconciler *service.ReconcilerService
	log        *logger.Logger
}

// NewWebhookHandler создает новый обработчик вебхуков
func NewWebhookHandler(verifier *stripe.WebhookVerifier, reconciler *service.ReconcilerService, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifier:   verifier,
		reconciler: reconciler,
		log:        log,
	}
}

// HandleStripeWebhook проверяет подпись и применяет событие к локальному
// состоянию. Возврат 5xx заставляет Stripe повторить доставку.
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		h.log.Error("Failed to read webhook body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read webhook body"})
		return
	}

	event, err := h.verifier.VerifyAndParse(body, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, domain.ErrWebhookValidationFailed) {
			h.log.Warnw("Webhook rejected", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to verify webhook signature"})
			return
		}
		h.log.Errorw("Failed to parse webhook event", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse webhook event"})
		return
	}

	if err := h.reconciler.HandleEvent(c.Request.Context(), event); err != nil {
		h.log.Errorw("Failed to apply webhook event", "error", err, "eventID", event.ID, "type", event.Type)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process webhook event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
