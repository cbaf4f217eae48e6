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

// SyncService пересобирает локальные записи из живых данных провайдера.
// Операторский путь для ремонта дрейфа после потерянных вебхуков.
type SyncService struct {
	subs     repository.SubscriptionRepository
	users    repository.UserRepository
	provider stripeclient.Client
	metrics  metrics.BillingMetrics
	log      *logger.Logger
}

// NewSyncService создает новый сервис ручной синхронизации.
func NewSyncService(
	subs repository.SubscriptionRepository,
	users repository.UserRepository,
	provider stripeclient.Client,
	m metrics.BillingMetrics,
	log *logger.Logger,
) *SyncService {
	return &SyncService{
		subs:     subs,
		users:    users,
		provider: provider,
		metrics:  m,
		log:      log,
	}
}

// Sync синхронизирует все подписки клиента провайдера с локальным хранилищем.
// Уже известные подписки пропускаются, если не указан force.
func (s *SyncService) Sync(ctx context.Context, customerID string, force bool) (*domain.SyncReport, error) {
	if customerID == "" {
		return nil, fmt.Errorf("%w: customerId is required", domain.ErrInvalidInput)
	}

	var customer *domain.ProviderCustomer
	err := withProviderRetry(ctx, func() error {
		var opErr error
		customer, opErr = s.provider.GetCustomer(ctx, customerID)
		return opErr
	})
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			return nil, domain.NewNotFoundError("customer", customerID)
		}
		return nil, fmt.Errorf("sync: failed to fetch customer: %w", err)
	}
	if customer.Deleted {
		return nil, domain.NewNotFoundError("customer", customerID)
	}
	if customer.Email == "" {
		return nil, domain.NewNotFoundError("customer email", customerID)
	}

	user, err := s.users.GetByEmail(ctx, customer.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warnw("No local user matches customer email, cannot sync", "stripeCustomerID", customerID)
			return nil, domain.NewNotFoundError("user", customer.Email)
		}
		return nil, fmt.Errorf("%w: user lookup by email failed: %v", domain.ErrPersistence, err)
	}

	var providerSubs []*domain.ProviderSubscription
	err = withProviderRetry(ctx, func() error {
		var opErr error
		providerSubs, opErr = s.provider.ListSubscriptions(ctx, customerID)
		return opErr
	})
	if err != nil {
		return nil, fmt.Errorf("sync: failed to list subscriptions: %w", err)
	}
	if len(providerSubs) == 0 {
		return nil, domain.NewNotFoundError("subscriptions", customerID)
	}

	report := &domain.SyncReport{
		Message: "Sync completed",
		Customer: domain.SyncCustomer{
			ID:     customerID,
			Email:  customer.Email,
			UserID: user.ID,
		},
	}

	for _, sub := range providerSubs {
		result := s.syncOne(ctx, user.ID, customerID, sub, force)
		s.metrics.IncSyncResult(string(result.Status))
		report.Results = append(report.Results, result)
	}

	s.log.Infow("Manual sync finished", "stripeCustomerID", customerID, "userID", user.ID, "count", len(report.Results))
	return report, nil
}

// syncOne применяет одну подписку провайдера к локальному хранилищу.
func (s *SyncService) syncOne(ctx context.Context, userID, customerID string, sub *domain.ProviderSubscription, force bool) domain.SyncResult {
	existing, err := s.subs.GetByStripeSubscriptionID(ctx, sub.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.log.Errorw("Failed to check existing subscription record", "error", err, "stripeSubscriptionID", sub.ID)
		return domain.SyncResult{SubscriptionID: sub.ID, Status: domain.SyncOutcomeError, Reason: "lookup failed"}
	}
	if existing != nil && !force {
		s.log.Debugw("Skipping already known subscription", "stripeSubscriptionID", sub.ID)
		return domain.SyncResult{SubscriptionID: sub.ID, Status: domain.SyncOutcomeSkipped}
	}

	rec := &domain.SubscriptionRecord{
		UserID:               userID,
		StripeCustomerID:     customerID,
		StripeSubscriptionID: sub.ID,
		Status:               sub.Status,
		CurrentPeriodStart:   sub.CurrentPeriodStart,
		CurrentPeriodEnd:     sub.CurrentPeriodEnd,
	}

	if err := s.subs.Upsert(ctx, rec); err != nil {
		s.log.Errorw("Failed to upsert subscription record during sync", "error", err, "stripeSubscriptionID", sub.ID)
		return domain.SyncResult{SubscriptionID: sub.ID, Status: domain.SyncOutcomeError, Reason: "write failed"}
	}

	return domain.SyncResult{SubscriptionID: sub.ID, Status: domain.SyncOutcomeSynced}
}
