package stripe

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v78"

	"github.com/Dhoini/billing-service/internal/domain"
)

// CreateCheckoutSession создает checkout-сессию в режиме подписки.
// userId и returnUrl вшиваются и в метаданные сессии, и в метаданные будущей
// подписки, чтобы webhook-реконсилиатор мог скоррелировать событие без
// дополнительного поиска.
func (sc *stripeClient) CreateCheckoutSession(ctx context.Context, p domain.CheckoutParams) (*domain.CheckoutSession, error) {
	if sc.priceID == "" {
		return nil, fmt.Errorf("%w: stripe price id is not configured", domain.ErrConfiguration)
	}

	metadata := map[string]string{
		metadataUserIDKey: p.UserID,
	}
	if p.ReturnURL != "" {
		metadata[metadataReturnURLKey] = p.ReturnURL
	}

	successURL := buildSuccessURL(sc.baseURL, p.ReturnURL)
	cancelURL := buildCancelURL(sc.baseURL, p.ReturnURL)

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(sc.priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		Metadata:   metadata,
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
	}
	if email := strings.TrimSpace(p.UserEmail); email != "" {
		params.CustomerEmail = stripe.String(email)
	}
	params.Context = ctx
	params.SetIdempotencyKey(uuid.NewString())

	session, err := sc.client.CheckoutSessions.New(params)
	if err != nil {
		logStripeError(sc.log, "CreateCheckoutSession", err)
		return nil, fmt.Errorf("stripe: failed to create checkout session: %w", err)
	}

	sc.log.Infow("Stripe checkout session created", "sessionID", session.ID, "userID", p.UserID)
	return mapCheckoutSession(session), nil
}

// buildSuccessURL собирает адрес возврата после успешной оплаты.
// Плейсхолдер {CHECKOUT_SESSION_ID} подставляет сам провайдер.
func buildSuccessURL(baseURL, returnURL string) string {
	successURL := baseURL + "/payment/success?session_id={CHECKOUT_SESSION_ID}"
	if returnURL != "" {
		successURL += "&returnUrl=" + url.QueryEscape(returnURL)
	}
	return successURL
}

// buildCancelURL собирает адрес возврата при отмене оплаты.
func buildCancelURL(baseURL, returnURL string) string {
	cancelURL := baseURL + "/pricing"
	if returnURL != "" {
		cancelURL += "?returnUrl=" + url.QueryEscape(returnURL)
	}
	return cancelURL
}

// GetCheckoutSession возвращает проекцию checkout-сессии по ее ID.
func (sc *stripeClient) GetCheckoutSession(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	session, err := sc.client.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		stripeErr, ok := err.(*stripe.Error)
		if ok && stripeErr.Code == stripe.ErrorCodeResourceMissing {
			sc.log.Warnw("Stripe checkout session not found", "sessionID", sessionID)
			return nil, domain.NewNotFoundError("checkout session", sessionID)
		}
		logStripeError(sc.log, "GetCheckoutSession", err)
		return nil, fmt.Errorf("stripe: failed to get checkout session: %w", err)
	}

	return mapCheckoutSession(session), nil
}
