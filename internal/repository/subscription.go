package repository

import (
	"context"

	"github.com/Dhoini/billing-service/internal/domain"
)

// SubscriptionRepository определяет методы для работы с хранилищем записей о подписках.
type SubscriptionRepository interface {
	// Upsert вставляет или обновляет запись по конфликту user_id.
	// Перезаписывает все поля провайдера и updated_at.
	Upsert(ctx context.Context, rec *domain.SubscriptionRecord) error

	// GetByUserID возвращает запись пользователя.
	GetByUserID(ctx context.Context, userID string) (*domain.SubscriptionRecord, error)

	// GetByStripeSubscriptionID возвращает запись по Stripe ID подписки.
	// Вторичный индекс, не ключ конфликта.
	GetByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*domain.SubscriptionRecord, error)

	// MarkCanceled помечает запись с данным Stripe ID подписки как canceled
	// и возвращает обновленную запись.
	MarkCanceled(ctx context.Context, stripeSubscriptionID string) (*domain.SubscriptionRecord, error)
}

// UserRepository определяет методы для каталога локальных пользователей.
type UserRepository interface {
	// GetByEmail возвращает пользователя по email (путь корреляции вебхуков).
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByID возвращает пользователя по ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)
}
