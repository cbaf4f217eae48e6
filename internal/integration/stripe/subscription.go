package stripe

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v78"

	"github.com/Dhoini/billing-service/internal/domain"
)

// GetSubscription возвращает живой объект подписки.
// latest_invoice разворачивается, чтобы получить дату последнего списания.
func (sc *stripeClient) GetSubscription(ctx context.Context, subscriptionID string) (*domain.ProviderSubscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	params.AddExpand("latest_invoice")

	sub, err := sc.client.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		stripeErr, ok := err.(*stripe.Error)
		if ok && stripeErr.Code == stripe.ErrorCodeResourceMissing {
			sc.log.Warnw("Stripe subscription not found", "stripeSubscriptionID", subscriptionID)
			return nil, domain.NewNotFoundError("subscription", subscriptionID)
		}
		logStripeError(sc.log, "GetSubscription", err)
		return nil, fmt.Errorf("stripe: failed to get subscription: %w", err)
	}

	return mapSubscription(sub), nil
}

// ListSubscriptions возвращает все подписки клиента, включая отмененные.
func (sc *stripeClient) ListSubscriptions(ctx context.Context, customerID string) ([]*domain.ProviderSubscription, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String("all"),
	}
	params.Context = ctx

	var subs []*domain.ProviderSubscription
	iter := sc.client.Subscriptions.List(params)
	for iter.Next() {
		subs = append(subs, mapSubscription(iter.Subscription()))
	}
	if err := iter.Err(); err != nil {
		logStripeError(sc.log, "ListSubscriptions", err)
		return nil, fmt.Errorf("stripe: failed to list subscriptions: %w", err)
	}

	sc.log.Debugw("Listed Stripe subscriptions", "stripeCustomerID", customerID, "count", len(subs))
	return subs, nil
}
