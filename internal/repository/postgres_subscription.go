package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Dhoini/billing-service/internal/domain"
	"github.com/Dhoini/billing-service/pkg/logger"
)

// postgresSubscriptionRepo реализует SubscriptionRepository для PostgreSQL.
type postgresSubscriptionRepo struct {
	db  *sqlx.DB
	log *logger.Logger
}

// NewPostgresSubscriptionRepository создает новый экземпляр репозитория для PostgreSQL.
func NewPostgresSubscriptionRepository(db *sqlx.DB, log *logger.Logger) SubscriptionRepository {
	return &postgresSubscriptionRepo{
		db:  db,
		log: log,
	}
}

// Upsert вставляет или обновляет запись о подписке по конфликту user_id.
// Одна атомарная инструкция, корректность при гонках вебхуков обеспечивается БД.
func (r *postgresSubscriptionRepo) Upsert(ctx context.Context, rec *domain.SubscriptionRecord) error {
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	query := `
        INSERT INTO user_subscriptions (
            user_id, stripe_customer_id, stripe_subscription_id, status,
            current_period_start, current_period_end, created_at, updated_at
        ) VALUES (
            :user_id, :stripe_customer_id, :stripe_subscription_id, :status,
            :current_period_start, :current_period_end, :created_at, :updated_at
        )
        ON CONFLICT (user_id) DO UPDATE SET
            stripe_customer_id = EXCLUDED.stripe_customer_id,
            stripe_subscription_id = EXCLUDED.stripe_subscription_id,
            status = EXCLUDED.status,
            current_period_start = EXCLUDED.current_period_start,
            current_period_end = EXCLUDED.current_period_end,
            updated_at = EXCLUDED.updated_at`

	_, err := r.db.NamedExecContext(ctx, query, rec)
	if err != nil {
		r.log.Errorw("Failed to upsert subscription record in DB", "error", err, "userID", rec.UserID, "stripeSubscriptionID", rec.StripeSubscriptionID)
		return fmt.Errorf("repository: failed to upsert subscription record: %w", err)
	}

	r.log.Debugw("Successfully upserted subscription record in DB", "userID", rec.UserID, "status", rec.Status)
	return nil
}

// GetByUserID возвращает запись о подписке пользователя.
func (r *postgresSubscriptionRepo) GetByUserID(ctx context.Context, userID string) (*domain.SubscriptionRecord, error) {
	var rec domain.SubscriptionRecord
	query := `
        SELECT user_id, stripe_customer_id, stripe_subscription_id, status,
               current_period_start, current_period_end, created_at, updated_at
        FROM user_subscriptions
        WHERE user_id = $1`

	err := r.db.GetContext(ctx, &rec, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Debugw("Subscription record not found by user ID", "userID", userID)
			return nil, ErrNotFound
		}
		r.log.Errorw("Failed to get subscription record by user ID from DB", "error", err, "userID", userID)
		return nil, fmt.Errorf("repository: failed to get subscription record by user ID: %w", err)
	}

	return &rec, nil
}

// GetByStripeSubscriptionID возвращает запись по Stripe ID подписки.
func (r *postgresSubscriptionRepo) GetByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*domain.SubscriptionRecord, error) {
	var rec domain.SubscriptionRecord
	query := `
        SELECT user_id, stripe_customer_id, stripe_subscription_id, status,
               current_period_start, current_period_end, created_at, updated_at
        FROM user_subscriptions
        WHERE stripe_subscription_id = $1`

	err := r.db.GetContext(ctx, &rec, query, stripeSubscriptionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Debugw("Subscription record not found by Stripe ID", "stripeSubscriptionID", stripeSubscriptionID)
			return nil, ErrNotFound
		}
		r.log.Errorw("Failed to get subscription record by Stripe ID from DB", "error", err, "stripeSubscriptionID", stripeSubscriptionID)
		return nil, fmt.Errorf("repository: failed to get subscription record by Stripe ID: %w", err)
	}

	return &rec, nil
}

// MarkCanceled помечает запись с данным Stripe ID подписки как canceled.
// Возвращает обновленную запись, чтобы вызывающий мог инвалидировать кеши по user_id.
func (r *postgresSubscriptionRepo) MarkCanceled(ctx context.Context, stripeSubscriptionID string) (*domain.SubscriptionRecord, error) {
	var rec domain.SubscriptionRecord
	query := `
        UPDATE user_subscriptions
        SET status = $1, updated_at = $2
        WHERE stripe_subscription_id = $3
        RETURNING user_id, stripe_customer_id, stripe_subscription_id, status,
                  current_period_start, current_period_end, created_at, updated_at`

	err := r.db.GetContext(ctx, &rec, query, domain.SubscriptionStatusCanceled, time.Now(), stripeSubscriptionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnw("No subscription record to cancel", "stripeSubscriptionID", stripeSubscriptionID)
			return nil, ErrNotFound
		}
		r.log.Errorw("Failed to mark subscription record as canceled", "error", err, "stripeSubscriptionID", stripeSubscriptionID)
		return nil, fmt.Errorf("repository: failed to mark subscription record as canceled: %w", err)
	}

	r.log.Debugw("Subscription record marked as canceled", "stripeSubscriptionID", stripeSubscriptionID, "userID", rec.UserID)
	return &rec, nil
}
