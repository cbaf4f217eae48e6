package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Dhoini/billing-service/internal/domain"
	"github.com/Dhoini/billing-service/pkg/logger"
)

const (
	// Префикс ключей для записей о подписках
	subscriptionRecordKeyPrefix = "subscription_record:"

	// TTL для кэша
	defaultCacheTTL = 15 * time.Minute
)

// RedisCacheRepository реализует кеширование записей о подписках с использованием Redis
type RedisCacheRepository struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedisCacheRepository создает новый экземпляр Redis репозитория
func NewRedisCacheRepository(redisAddr, redisPassword string, redisDB int, log *logger.Logger) (*RedisCacheRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})

	// Проверяем соединение с Redis
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Errorw("Failed to connect to Redis", "error", err)
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Infow("Connected to Redis successfully", "addr", redisAddr)
	return &RedisCacheRepository{
		client: client,
		log:    log,
	}, nil
}

// Close закрывает соединение с Redis
func (r *RedisCacheRepository) Close() error {
	return r.client.Close()
}

// CacheRecord кеширует запись о подписке пользователя в Redis
func (r *RedisCacheRepository) CacheRecord(ctx context.Context, rec *domain.SubscriptionRecord) error {
	key := fmt.Sprintf("%s%s", subscriptionRecordKeyPrefix, rec.UserID)

	data, err := json.Marshal(rec)
	if err != nil {
		r.log.Errorw("Failed to marshal subscription record for caching", "error", err, "userID", rec.UserID)
		return fmt.Errorf("failed to marshal subscription record: %w", err)
	}

	if err := r.client.Set(ctx, key, data, defaultCacheTTL).Err(); err != nil {
		r.log.Errorw("Failed to cache subscription record in Redis", "error", err, "userID", rec.UserID)
		return fmt.Errorf("failed to cache subscription record: %w", err)
	}

	r.log.Debugw("Subscription record cached successfully", "userID", rec.UserID)
	return nil
}

// GetCachedRecord получает запись о подписке пользователя из кеша
func (r *RedisCacheRepository) GetCachedRecord(ctx context.Context, userID string) (*domain.SubscriptionRecord, error) {
	key := fmt.Sprintf("%s%s", subscriptionRecordKeyPrefix, userID)

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			// Ключ не найден в кеше
			r.log.Debugw("Subscription record not found in cache", "userID", userID)
			return nil, nil // Возвращаем nil вместо ошибки
		}
		r.log.Errorw("Error getting subscription record from Redis", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to get subscription record from cache: %w", err)
	}

	var rec domain.SubscriptionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		r.log.Errorw("Failed to unmarshal cached subscription record", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to unmarshal cached subscription record: %w", err)
	}

	r.log.Debugw("Subscription record retrieved from cache", "userID", userID)
	return &rec, nil
}

// InvalidateRecord удаляет запись о подписке пользователя из кеша
func (r *RedisCacheRepository) InvalidateRecord(ctx context.Context, userID string) error {
	key := fmt.Sprintf("%s%s", subscriptionRecordKeyPrefix, userID)

	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.log.Errorw("Failed to invalidate subscription record cache", "error", err, "userID", userID)
		return fmt.Errorf("failed to invalidate subscription record cache: %w", err)
	}

	r.log.Debugw("Subscription record cache invalidated", "userID", userID)
	return nil
}
