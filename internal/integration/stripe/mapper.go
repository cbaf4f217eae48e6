package stripe

import (
	"time"

	"github.com/stripe/stripe-go/v78"

	"github.com/Dhoini/billing-service/internal/domain"
)

// unixTime преобразует unix-метку Stripe в *time.Time, нулевая метка - nil
func unixTime(ts int64) *time.Time {
	if ts == 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}

// mapSubscription строит доменную проекцию подписки Stripe
func mapSubscription(sub *stripe.Subscription) *domain.ProviderSubscription {
	if sub == nil {
		return nil
	}

	out := &domain.ProviderSubscription{
		ID:                 sub.ID,
		Status:             string(sub.Status),
		Metadata:           sub.Metadata,
		CurrentPeriodStart: unixTime(sub.CurrentPeriodStart),
		CurrentPeriodEnd:   unixTime(sub.CurrentPeriodEnd),
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.LatestInvoice != nil {
		out.LatestInvoiceCreatedAt = unixTime(sub.LatestInvoice.Created)
	}
	return out
}

// mapCheckoutSession строит доменную проекцию checkout-сессии Stripe
func mapCheckoutSession(session *stripe.CheckoutSession) *domain.CheckoutSession {
	if session == nil {
		return nil
	}

	out := &domain.CheckoutSession{
		ID:            session.ID,
		URL:           session.URL,
		AmountTotal:   session.AmountTotal,
		Currency:      string(session.Currency),
		PaymentStatus: string(session.PaymentStatus),
		CustomerEmail: session.CustomerEmail,
		Metadata:      session.Metadata,
	}
	if session.CustomerEmail == "" && session.CustomerDetails != nil {
		out.CustomerEmail = session.CustomerDetails.Email
	}
	if session.Customer != nil {
		out.CustomerID = session.Customer.ID
	}
	if session.Subscription != nil {
		out.SubscriptionID = session.Subscription.ID
	}
	return out
}
