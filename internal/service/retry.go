package service

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stripe/stripe-go/v78"

	"github.com/Dhoini/billing-service/internal/domain"
)

// isRetryableStripeError определяет, имеет ли смысл повторять запрос к Stripe.
// Повторяем сетевые сбои, rate limit и ошибки на стороне API.
func isRetryableStripeError(err error) bool {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch stripeErr.Type {
		case stripe.ErrorTypeAPI:
			return true
		case stripe.ErrorTypeInvalidRequest:
			return stripeErr.HTTPStatusCode == 429
		default:
			return false
		}
	}
	// Не-Stripe ошибка - скорее всего транспортная, повторяем
	return true
}

// withProviderRetry выполняет операцию с экспоненциальным backoff.
// Неповторяемые ошибки Stripe прекращают попытки сразу.
func withProviderRetry(ctx context.Context, op func() error) error {
	wrapped := func() error {
		err := op()
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrCustomerNotFound) {
			return backoff.Permanent(err)
		}
		if !isRetryableStripeError(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(wrapped, backoff.WithContext(bo, ctx))
}
