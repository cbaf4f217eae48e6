package stripe

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"

	"github.com/Dhoini/billing-service/internal/domain"
	"github.com/Dhoini/billing-service/pkg/logger"
)

// WebhookVerifier проверяет подпись webhook-событий Stripe и разбирает их
// в доменные события. Ни одно поле payload не читается до проверки подписи.
type WebhookVerifier struct {
	secret string
	log    *logger.Logger
}

// NewWebhookVerifier создает новый верификатор вебхуков.
func NewWebhookVerifier(secret string, log *logger.Logger) *WebhookVerifier {
	return &WebhookVerifier{
		secret: secret,
		log:    log,
	}
}

// VerifyAndParse проверяет подпись и возвращает доменное событие.
// Для нераспознанных типов событий возвращается событие с пустыми данными.
func (v *WebhookVerifier) VerifyAndParse(payload []byte, sigHeader string) (*domain.SubscriptionEvent, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, v.secret)
	if err != nil {
		v.log.Warnw("Webhook signature verification failed", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrWebhookValidationFailed, err)
	}

	out := &domain.SubscriptionEvent{
		ID:   event.ID,
		Type: string(event.Type),
	}

	switch out.Type {
	case domain.EventSubscriptionCreated,
		domain.EventSubscriptionUpdated,
		domain.EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			v.log.Errorw("Failed to parse subscription from webhook event", "error", err, "eventID", event.ID)
			return nil, fmt.Errorf("stripe: failed to parse subscription event: %w", err)
		}
		out.Subscription = mapSubscription(&sub)

	case domain.EventCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			v.log.Errorw("Failed to parse checkout session from webhook event", "error", err, "eventID", event.ID)
			return nil, fmt.Errorf("stripe: failed to parse checkout session event: %w", err)
		}
		out.CheckoutSession = mapCheckoutSession(&session)

	default:
		v.log.Debugw("Ignoring webhook event type", "type", out.Type, "eventID", event.ID)
	}

	return out, nil
}
