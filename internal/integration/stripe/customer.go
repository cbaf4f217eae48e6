package stripe

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v78"

	"github.com/Dhoini/billing-service/internal/domain"
)

// GetCustomer возвращает клиента Stripe по его ID.
// Удаленный клиент отличим по флагу Deleted, это не ошибка запроса.
func (sc *stripeClient) GetCustomer(ctx context.Context, customerID string) (*domain.ProviderCustomer, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx

	cus, err := sc.client.Customers.Get(customerID, params)
	if err != nil {
		stripeErr, ok := err.(*stripe.Error)
		if ok && stripeErr.Code == stripe.ErrorCodeResourceMissing {
			sc.log.Warnw("Stripe customer not found", "stripeCustomerID", customerID)
			return nil, domain.ErrCustomerNotFound
		}
		logStripeError(sc.log, "GetCustomer", err)
		return nil, fmt.Errorf("stripe: failed to get customer: %w", err)
	}

	return &domain.ProviderCustomer{
		ID:      cus.ID,
		Email:   cus.Email,
		Deleted: cus.Deleted,
	}, nil
}
