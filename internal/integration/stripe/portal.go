package stripe

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v78"

	"github.com/Dhoini/billing-service/internal/domain"
)

// CreatePortalSession создает сессию клиентского портала Stripe.
// Ошибки API прокидываются типизированно, чтобы хендлер мог показать
// осмысленное сообщение при ненастроенном портале.
func (sc *stripeClient) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	session, err := sc.client.BillingPortalSessions.New(params)
	if err != nil {
		logStripeError(sc.log, "CreatePortalSession", err)
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			return "", domain.NewExternalServiceError("stripe", string(stripeErr.Code), stripeErr.Msg, stripeErr.HTTPStatusCode, err)
		}
		return "", fmt.Errorf("stripe: failed to create portal session: %w", err)
	}

	sc.log.Infow("Stripe customer portal session created", "stripeCustomerID", customerID)
	return session.URL, nil
}
