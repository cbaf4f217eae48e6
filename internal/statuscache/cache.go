package statuscache

import (
	"context"
	"sync"
	"time"

	"github.com/Dhoini/billing-service/internal/domain"
	"github.com/Dhoini/billing-service/pkg/logger"
)

// DefaultTTL срок жизни закешированного статуса подписки
const DefaultTTL = 5 * time.Minute

// StatusReader источник актуального статуса подписки
type StatusReader interface {
	GetStatus(ctx context.Context, userID string) (*domain.SubscriptionStatusInfo, error)
}

type entry struct {
	info      domain.SubscriptionStatusInfo
	fetchedAt time.Time
}

// Cache кеш статусов подписки с TTL, ключуется по userID.
// Конкурентные чтения до заполнения могут выполнить лишний запрос к источнику,
// это допустимо: чтение идемпотентно.
type Cache struct {
	reader  StatusReader
	ttl     time.Duration
	log     *logger.Logger
	mu      sync.RWMutex
	entries map[string]entry
}

// New создает кеш со стандартным TTL.
func New(reader StatusReader, log *logger.Logger) *Cache {
	return NewWithTTL(reader, DefaultTTL, log)
}

// NewWithTTL создает кеш с заданным TTL.
func NewWithTTL(reader StatusReader, ttl time.Duration, log *logger.Logger) *Cache {
	return &Cache{
		reader:  reader,
		ttl:     ttl,
		log:     log,
		entries: make(map[string]entry),
	}
}

// GetStatus возвращает статус пользователя из кеша, если запись моложе TTL,
// иначе обращается к источнику и обновляет кеш.
func (c *Cache) GetStatus(ctx context.Context, userID string) (*domain.SubscriptionStatusInfo, error) {
	c.mu.RLock()
	e, ok := c.entries[userID]
	c.mu.RUnlock()

	if ok && time.Since(e.fetchedAt) < c.ttl {
		c.log.Debugw("Subscription status served from cache", "userID", userID)
		info := e.info
		return &info, nil
	}

	info, err := c.reader.GetStatus(ctx, userID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[userID] = entry{info: *info, fetchedAt: time.Now()}
	c.mu.Unlock()

	return info, nil
}

// Reset сбрасывает весь кеш.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
	c.log.Debugw("Subscription status cache reset")
}

// Invalidate сбрасывает закешированный статус пользователя.
// Вызывается после успешного возврата с checkout, чтобы следующий запрос
// гарантированно увидел свежие данные.
func (c *Cache) Invalidate(userID string) {
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()
	c.log.Debugw("Subscription status cache invalidated", "userID", userID)
}
