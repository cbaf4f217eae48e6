package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dhoini/billing-service/internal/domain"
	stripeclient "github.com/Dhoini/billing-service/internal/integration/stripe"
	"github.com/Dhoini/billing-service/internal/metrics"
	"github.com/Dhoini/billing-service/internal/repository"
	"github.com/Dhoini/billing-service/pkg/logger"
)

// CheckoutService создает checkout-сессии и сессии клиентского портала.
type CheckoutService struct {
	provider  stripeclient.Client
	subs      repository.SubscriptionRepository
	returnURL string
	metrics   metrics.BillingMetrics
	log       *logger.Logger
}

// NewCheckoutService создает новый сервис checkout.
// returnURL - адрес возврата из клиентского портала.
func NewCheckoutService(
	provider stripeclient.Client,
	subs repository.SubscriptionRepository,
	returnURL string,
	m metrics.BillingMetrics,
	log *logger.Logger,
) *CheckoutService {
	return &CheckoutService{
		provider:  provider,
		subs:      subs,
		returnURL: returnURL,
		metrics:   m,
		log:       log,
	}
}

// CreateSession создает checkout-сессию у провайдера.
// Локального состояния не возникает: до завершения оплаты сессия живет
// только на стороне провайдера.
func (s *CheckoutService) CreateSession(ctx context.Context, params domain.CheckoutParams) (*domain.CheckoutSession, error) {
	if params.UserID == "" {
		return nil, fmt.Errorf("%w: userId is required", domain.ErrInvalidInput)
	}

	session, err := s.provider.CreateCheckoutSession(ctx, params)
	if err != nil {
		return nil, err
	}

	s.metrics.IncCheckoutSession()
	s.log.Infow("Checkout session created", "sessionID", session.ID, "userID", params.UserID)
	return session, nil
}

// GetSession возвращает проекцию checkout-сессии по ее ID.
func (s *CheckoutService) GetSession(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}
	return s.provider.GetCheckoutSession(ctx, sessionID)
}

// CreatePortalLink создает ссылку на клиентский портал для пользователя.
// Требует существующей записи о подписке со stripe_customer_id.
func (s *CheckoutService) CreatePortalLink(ctx context.Context, userID string) (string, error) {
	rec, err := s.subs.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", domain.NewNotFoundError("subscription", userID)
		}
		return "", fmt.Errorf("%w: failed to load subscription record: %v", domain.ErrPersistence, err)
	}
	if rec.StripeCustomerID == "" {
		return "", domain.NewNotFoundError("stripe customer", userID)
	}

	url, err := s.provider.CreatePortalSession(ctx, rec.StripeCustomerID, s.returnURL)
	if err != nil {
		return "", err
	}

	s.log.Infow("Customer portal session created", "userID", userID)
	return url, nil
}
