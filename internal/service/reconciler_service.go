package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dhoini/billing-service/internal/domain"
	stripeclient "github.com/Dhoini/billing-service/internal/integration/stripe"
	"github.com/Dhoini/billing-service/internal/kafka"
	"github.com/Dhoini/billing-service/internal/metrics"
	"github.com/Dhoini/billing-service/internal/repository"
	"github.com/Dhoini/billing-service/pkg/logger"
)

// Ключ метаданных провайдера с идентификатором локального пользователя
const metadataUserIDKey = "userId"

// StatusCacheInvalidator сбрасывает закешированный статус пользователя
// после изменения его подписки.
type StatusCacheInvalidator interface {
	Invalidate(userID string)
}

// ReconcilerService применяет webhook-события провайдера к локальным записям.
// Подпись события проверяется до вызова этого сервиса.
type ReconcilerService struct {
	subs     repository.SubscriptionRepository
	users    repository.UserRepository
	provider stripeclient.Client
	producer kafka.Producer
	cache    StatusCacheInvalidator
	metrics  metrics.BillingMetrics
	log      *logger.Logger
}

// NewReconcilerService создает новый сервис реконсиляции.
// producer и cache могут быть nil, тогда публикация и инвалидация пропускаются.
func NewReconcilerService(
	subs repository.SubscriptionRepository,
	users repository.UserRepository,
	provider stripeclient.Client,
	producer kafka.Producer,
	cache StatusCacheInvalidator,
	m metrics.BillingMetrics,
	log *logger.Logger,
) *ReconcilerService {
	return &ReconcilerService{
		subs:     subs,
		users:    users,
		provider: provider,
		producer: producer,
		cache:    cache,
		metrics:  m,
		log:      log,
	}
}

// HandleEvent применяет одно верифицированное событие.
// Возврат ошибки означает ответ 5xx и повторную доставку провайдером,
// поэтому нерезолвируемая корреляция фиксируется как warning и успех.
func (s *ReconcilerService) HandleEvent(ctx context.Context, ev *domain.SubscriptionEvent) error {
	switch ev.Type {
	case domain.EventSubscriptionCreated, domain.EventSubscriptionUpdated:
		return s.handleSubscriptionChange(ctx, ev.Type, ev.Subscription)

	case domain.EventSubscriptionDeleted:
		return s.handleSubscriptionDeleted(ctx, ev.Subscription)

	case domain.EventCheckoutSessionCompleted:
		return s.handleCheckoutCompleted(ctx, ev.CheckoutSession)

	default:
		s.log.Debugw("Webhook event acknowledged without state change", "type", ev.Type, "eventID", ev.ID)
		s.metrics.IncWebhookEvent(ev.Type, "ignored")
		return nil
	}
}

// handleSubscriptionChange обновляет запись по событиям created/updated.
// Двухшаговая схема: сначала резолвим userID, затем применяем upsert.
func (s *ReconcilerService) handleSubscriptionChange(ctx context.Context, eventType string, sub *domain.ProviderSubscription) error {
	if sub == nil {
		s.metrics.IncWebhookEvent(eventType, "dropped")
		return fmt.Errorf("subscription event without subscription payload")
	}

	userID, err := s.resolveUserID(ctx, sub)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrCustomerNotFound) {
			// Событие невозможно привязать к локальному пользователю.
			// Роняем его с предупреждением, иначе провайдер будет ретраить вечно.
			s.log.Warnw("Dropping webhook event with unresolvable user correlation",
				"type", eventType, "stripeSubscriptionID", sub.ID, "stripeCustomerID", sub.CustomerID)
			s.metrics.IncWebhookEvent(eventType, "dropped")
			return nil
		}
		s.metrics.IncWebhookEvent(eventType, "error")
		return fmt.Errorf("reconciler: failed to resolve user for subscription %s: %w", sub.ID, err)
	}

	if err := s.applySubscription(ctx, userID, sub); err != nil {
		s.metrics.IncWebhookEvent(eventType, "error")
		return err
	}

	s.metrics.IncWebhookEvent(eventType, "applied")
	return nil
}

// handleSubscriptionDeleted помечает запись как canceled по Stripe ID подписки.
func (s *ReconcilerService) handleSubscriptionDeleted(ctx context.Context, sub *domain.ProviderSubscription) error {
	if sub == nil {
		s.metrics.IncWebhookEvent(domain.EventSubscriptionDeleted, "dropped")
		return fmt.Errorf("subscription event without subscription payload")
	}

	rec, err := s.subs.MarkCanceled(ctx, sub.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warnw("No local record for deleted subscription, dropping event", "stripeSubscriptionID", sub.ID)
			s.metrics.IncWebhookEvent(domain.EventSubscriptionDeleted, "dropped")
			return nil
		}
		s.metrics.IncWebhookEvent(domain.EventSubscriptionDeleted, "error")
		return fmt.Errorf("%w: failed to cancel subscription record: %v", domain.ErrPersistence, err)
	}

	s.afterStateChange(ctx, kafka.TopicSubscriptionCanceled, rec)
	s.metrics.IncWebhookEvent(domain.EventSubscriptionDeleted, "applied")
	s.log.Infow("Subscription record canceled by webhook", "userID", rec.UserID, "stripeSubscriptionID", sub.ID)
	return nil
}

// handleCheckoutCompleted подтягивает подписку завершенной checkout-сессии
// и применяет ее как обычное изменение состояния.
func (s *ReconcilerService) handleCheckoutCompleted(ctx context.Context, session *domain.CheckoutSession) error {
	if session == nil || session.SubscriptionID == "" {
		s.log.Debugw("Checkout session completed without subscription, nothing to reconcile")
		s.metrics.IncWebhookEvent(domain.EventCheckoutSessionCompleted, "ignored")
		return nil
	}

	sub, err := s.provider.GetSubscription(ctx, session.SubscriptionID)
	if err != nil {
		s.metrics.IncWebhookEvent(domain.EventCheckoutSessionCompleted, "error")
		return fmt.Errorf("reconciler: failed to fetch subscription for completed checkout: %w", err)
	}

	// Метаданные сессии авторитетнее: userId вшивался при создании checkout.
	if sub.Metadata[metadataUserIDKey] == "" && session.Metadata[metadataUserIDKey] != "" {
		if sub.Metadata == nil {
			sub.Metadata = make(map[string]string)
		}
		sub.Metadata[metadataUserIDKey] = session.Metadata[metadataUserIDKey]
	}

	return s.handleSubscriptionChange(ctx, domain.EventCheckoutSessionCompleted, sub)
}

// resolveUserID определяет локального пользователя для подписки провайдера.
// Сначала метаданные, затем fallback через email клиента провайдера.
func (s *ReconcilerService) resolveUserID(ctx context.Context, sub *domain.ProviderSubscription) (string, error) {
	if userID := sub.Metadata[metadataUserIDKey]; userID != "" {
		return userID, nil
	}

	s.log.Debugw("Subscription has no userId metadata, falling back to customer email lookup",
		"stripeSubscriptionID", sub.ID, "stripeCustomerID", sub.CustomerID)

	if sub.CustomerID == "" {
		return "", domain.ErrCustomerNotFound
	}

	customer, err := s.provider.GetCustomer(ctx, sub.CustomerID)
	if err != nil {
		return "", err
	}
	if customer.Deleted || customer.Email == "" {
		return "", domain.ErrCustomerNotFound
	}

	user, err := s.users.GetByEmail(ctx, customer.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", domain.NewNotFoundError("user", customer.Email)
		}
		return "", fmt.Errorf("%w: user lookup by email failed: %v", domain.ErrPersistence, err)
	}

	s.log.Infow("Resolved user by customer email fallback", "userID", user.ID, "stripeCustomerID", sub.CustomerID)
	return user.ID, nil
}

// applySubscription перезаписывает локальную запись состоянием провайдера.
// Upsert по user_id идемпотентен, повторная доставка события безопасна.
func (s *ReconcilerService) applySubscription(ctx context.Context, userID string, sub *domain.ProviderSubscription) error {
	rec := &domain.SubscriptionRecord{
		UserID:               userID,
		StripeCustomerID:     sub.CustomerID,
		StripeSubscriptionID: sub.ID,
		Status:               sub.Status,
		CurrentPeriodStart:   sub.CurrentPeriodStart,
		CurrentPeriodEnd:     sub.CurrentPeriodEnd,
	}

	if err := s.subs.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("%w: failed to upsert subscription record: %v", domain.ErrPersistence, err)
	}

	s.afterStateChange(ctx, kafka.TopicSubscriptionStateChanged, rec)
	s.log.Infow("Subscription record reconciled", "userID", userID, "stripeSubscriptionID", sub.ID, "status", sub.Status)
	return nil
}

// afterStateChange публикует событие в Kafka и сбрасывает кеш статуса.
// Обе операции best-effort и не влияют на ответ провайдеру.
func (s *ReconcilerService) afterStateChange(ctx context.Context, topic string, rec *domain.SubscriptionRecord) {
	if s.cache != nil {
		s.cache.Invalidate(rec.UserID)
	}

	if s.producer != nil {
		go func(pubCtx context.Context) {
			pubCtx, cancel := context.WithTimeout(pubCtx, 10*time.Second)
			defer cancel()
			if err := s.producer.PublishSubscriptionEvent(pubCtx, topic, rec); err != nil {
				s.log.Warnw("Failed to publish subscription event", "error", err, "topic", topic, "userID", rec.UserID)
			}
		}(context.WithoutCancel(ctx))
	}
}
