package repository

import (
	"context"

	"github.com/Dhoini/billing-service/internal/domain"
	"github.com/Dhoini/billing-service/pkg/logger"
)

// CachedSubscriptionRepository реализует SubscriptionRepository с кешированием
type CachedSubscriptionRepository struct {
	repo  SubscriptionRepository
	cache *RedisCacheRepository
	log   *logger.Logger
}

// NewCachedSubscriptionRepository создает новый репозиторий с кешированием
func NewCachedSubscriptionRepository(
	repo SubscriptionRepository,
	cache *RedisCacheRepository,
	log *logger.Logger,
) SubscriptionRepository {
	return &CachedSubscriptionRepository{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Upsert сохраняет запись в БД и обновляет кеш
func (r *CachedSubscriptionRepository) Upsert(ctx context.Context, rec *domain.SubscriptionRecord) error {
	// Сначала сохраняем в основное хранилище
	if err := r.repo.Upsert(ctx, rec); err != nil {
		return err
	}

	// Затем обновляем кеш
	if err := r.cache.CacheRecord(ctx, rec); err != nil {
		r.log.Warnw("Failed to cache subscription record after upsert", "error", err, "userID", rec.UserID)
		// Продолжаем выполнение, несмотря на ошибку кеширования
	}

	return nil
}

// GetByUserID получает запись пользователя (сначала из кеша, потом из БД)
func (r *CachedSubscriptionRepository) GetByUserID(ctx context.Context, userID string) (*domain.SubscriptionRecord, error) {
	// Пытаемся получить из кеша
	cached, err := r.cache.GetCachedRecord(ctx, userID)
	if err != nil {
		r.log.Warnw("Error getting subscription record from cache", "error", err, "userID", userID)
		// Продолжаем выполнение при ошибке кеша
	}

	if cached != nil {
		r.log.Debugw("Subscription record found in cache", "userID", userID)
		return cached, nil
	}

	// Если не нашли в кеше, ищем в БД
	rec, err := r.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Кешируем найденную запись
	if rec != nil {
		if err := r.cache.CacheRecord(ctx, rec); err != nil {
			r.log.Warnw("Failed to cache subscription record after fetching", "error", err, "userID", userID)
		}
	}

	return rec, nil
}

// GetByStripeSubscriptionID возвращает запись по Stripe ID подписки.
// Кеш ключуется по userID, поэтому этот вторичный поиск идет напрямую в БД.
func (r *CachedSubscriptionRepository) GetByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*domain.SubscriptionRecord, error) {
	return r.repo.GetByStripeSubscriptionID(ctx, stripeSubscriptionID)
}

// MarkCanceled помечает запись как canceled в БД и инвалидирует кеш пользователя
func (r *CachedSubscriptionRepository) MarkCanceled(ctx context.Context, stripeSubscriptionID string) (*domain.SubscriptionRecord, error) {
	rec, err := r.repo.MarkCanceled(ctx, stripeSubscriptionID)
	if err != nil {
		return nil, err
	}

	if err := r.cache.InvalidateRecord(ctx, rec.UserID); err != nil {
		r.log.Warnw("Failed to invalidate subscription record cache after cancel", "error", err, "userID", rec.UserID)
	}

	return rec, nil
}
