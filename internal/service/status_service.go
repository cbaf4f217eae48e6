package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dhoini/billing-service/internal/domain"
	stripeclient "github.com/Dhoini/billing-service/internal/integration/stripe"
	"github.com/Dhoini/billing-service/internal/metrics"
	"github.com/Dhoini/billing-service/internal/repository"
	"github.com/Dhoini/billing-service/pkg/logger"
)

// StatusService отвечает на вопрос "какой у пользователя статус подписки".
// Предпочитает живые данные провайдера, при его недоступности откатывается
// на последнее сохраненное состояние.
type StatusService struct {
	subs     repository.SubscriptionRepository
	provider stripeclient.Client
	metrics  metrics.BillingMetrics
	log      *logger.Logger
}

// NewStatusService создает новый сервис чтения статуса.
func NewStatusService(
	subs repository.SubscriptionRepository,
	provider stripeclient.Client,
	m metrics.BillingMetrics,
	log *logger.Logger,
) *StatusService {
	return &StatusService{
		subs:     subs,
		provider: provider,
		metrics:  m,
		log:      log,
	}
}

// GetStatus возвращает статус подписки и дату последнего списания.
// Никогда не возвращает ошибку из-за отсутствия подписки или недоступности
// провайдера, только из-за отказа локального хранилища.
func (s *StatusService) GetStatus(ctx context.Context, userID string) (*domain.SubscriptionStatusInfo, error) {
	rec, err := s.subs.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.IncStatusRead("none")
			return &domain.SubscriptionStatusInfo{
				IsSubscribed:    false,
				Status:          domain.StatusNoSubscription,
				LastBillingDate: domain.BillingDateUnavailable,
			}, nil
		}
		return nil, fmt.Errorf("%w: failed to load subscription record: %v", domain.ErrPersistence, err)
	}

	live, err := s.provider.GetSubscription(ctx, rec.StripeSubscriptionID)
	if err != nil {
		// Провайдер недоступен, отдаем последнее сохраненное состояние
		s.log.Warnw("Provider lookup failed, serving persisted subscription state",
			"error", err, "userID", userID, "stripeSubscriptionID", rec.StripeSubscriptionID)
		s.metrics.IncStatusRead("fallback")

		lastBilling := domain.BillingDateUnavailable
		if rec.CurrentPeriodStart != nil {
			lastBilling = rec.CurrentPeriodStart.Format(domain.BillingDateLayout)
		}
		return &domain.SubscriptionStatusInfo{
			IsSubscribed:    rec.IsSubscribed(),
			Status:          rec.Status,
			LastBillingDate: lastBilling,
		}, nil
	}

	s.refreshRecord(ctx, rec, live)
	s.metrics.IncStatusRead("live")

	lastBilling := domain.BillingDateUnavailable
	switch {
	case live.LatestInvoiceCreatedAt != nil:
		lastBilling = live.LatestInvoiceCreatedAt.Format(domain.BillingDateLayout)
	case live.CurrentPeriodStart != nil:
		lastBilling = live.CurrentPeriodStart.Format(domain.BillingDateLayout)
	}

	return &domain.SubscriptionStatusInfo{
		IsSubscribed:    live.Status == domain.SubscriptionStatusActive,
		Status:          live.Status,
		LastBillingDate: lastBilling,
	}, nil
}

// refreshRecord дописывает свежие данные провайдера в локальную запись.
// Best-effort: ошибка записи не роняет чтение статуса.
func (s *StatusService) refreshRecord(ctx context.Context, rec *domain.SubscriptionRecord, live *domain.ProviderSubscription) {
	if rec.Status == live.Status && equalTimes(rec.CurrentPeriodStart, live.CurrentPeriodStart) && equalTimes(rec.CurrentPeriodEnd, live.CurrentPeriodEnd) {
		return
	}

	updated := &domain.SubscriptionRecord{
		UserID:               rec.UserID,
		StripeCustomerID:     rec.StripeCustomerID,
		StripeSubscriptionID: live.ID,
		Status:               live.Status,
		CurrentPeriodStart:   live.CurrentPeriodStart,
		CurrentPeriodEnd:     live.CurrentPeriodEnd,
		CreatedAt:            rec.CreatedAt,
	}
	if live.CustomerID != "" {
		updated.StripeCustomerID = live.CustomerID
	}

	if err := s.subs.Upsert(ctx, updated); err != nil {
		s.log.Warnw("Failed to refresh subscription record from provider", "error", err, "userID", rec.UserID)
		return
	}

	s.log.Debugw("Subscription record refreshed from provider", "userID", rec.UserID, "status", live.Status)
}

// equalTimes сравнивает опциональные метки времени
func equalTimes(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
