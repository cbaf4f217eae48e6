package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/Dhoini/billing-service/internal/domain"
	"github.com/Dhoini/billing-service/pkg/logger"
)

// Топики Kafka для событий жизненного цикла подписок
const (
	TopicSubscriptionStateChanged = "subscription_state_changed"
	TopicSubscriptionCanceled     = "subscription_canceled"
)

// subscriptionEventEnvelope конверт события для консьюмеров
type subscriptionEventEnvelope struct {
	EventID    string                     `json:"event_id"`
	OccurredAt time.Time                  `json:"occurred_at"`
	Record     *domain.SubscriptionRecord `json:"record"`
}

// Producer определяет интерфейс для публикации сообщений в Kafka.
type Producer interface {
	// PublishSubscriptionEvent отправляет событие об изменении состояния подписки.
	// Ключ сообщения - user_id, чтобы события одного пользователя попадали
	// в одну партицию и сохраняли порядок.
	PublishSubscriptionEvent(ctx context.Context, topic string, rec *domain.SubscriptionRecord) error
	// Close закрывает соединение продюсера Kafka.
	Close() error
}

// kafkaProducer реализует интерфейс Producer, используя segmentio/kafka-go.
type kafkaProducer struct {
	writer *kafka.Writer
	log    *logger.Logger
}

// NewKafkaProducer создает и настраивает новый продюсер Kafka.
func NewKafkaProducer(brokers []string, log *logger.Logger) (Producer, error) {
	if len(brokers) == 0 {
		log.Errorw("Kafka brokers list is empty in config, cannot create producer")
		return nil, errors.New("kafka brokers are not configured")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}

	log.Infow("Kafka producer initialized", "brokers", brokers)

	return &kafkaProducer{
		writer: writer,
		log:    log,
	}, nil
}

// PublishSubscriptionEvent упаковывает запись о подписке в конверт и отправляет в топик.
func (k *kafkaProducer) PublishSubscriptionEvent(ctx context.Context, topic string, rec *domain.SubscriptionRecord) error {
	envelope := subscriptionEventEnvelope{
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Record:     rec,
	}

	messageValue, err := json.Marshal(envelope)
	if err != nil {
		k.log.Errorw("Failed to marshal subscription event for Kafka", "error", err, "userID", rec.UserID, "topic", topic)
		return fmt.Errorf("kafka: failed to marshal message data: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(rec.UserID),
		Value: messageValue,
		Time:  time.Now(),
	}

	writeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	err = k.writer.WriteMessages(writeCtx, message)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			k.log.Errorw("Kafka write timeout exceeded", "error", err, "topic", topic, "userID", rec.UserID)
			return fmt.Errorf("kafka: write timeout: %w", err)
		}
		k.log.Errorw("Failed to write message to Kafka", "error", err, "topic", topic, "userID", rec.UserID)
		return fmt.Errorf("kafka: failed to write message: %w", err)
	}

	k.log.Debugw("Published subscription event to Kafka", "topic", topic, "userID", rec.UserID, "eventID", envelope.EventID)
	return nil
}

// Close закрывает соединение Kafka Writer.
func (k *kafkaProducer) Close() error {
	k.log.Infow("Closing Kafka producer writer...")
	err := k.writer.Close()
	if err != nil {
		k.log.Errorw("Failed to close Kafka writer", "error", err)
		return fmt.Errorf("kafka: failed to close writer: %w", err)
	}
	k.log.Infow("Kafka producer writer closed successfully")
	return nil
}
