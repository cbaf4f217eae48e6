package kafka

import (
	"errors"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/Dhoini/billing-service/pkg/logger"
)

// EnsureKafkaTopics проверяет и создает необходимые топики Kafka.
func EnsureKafkaTopics(brokers []string, log *logger.Logger) error {
	if len(brokers) == 0 || brokers[0] == "" {
		log.Errorw("Kafka broker address is empty")
		return errors.New("kafka broker address is empty")
	}

	requiredTopics := map[string]*sarama.TopicDetail{
		TopicSubscriptionStateChanged: {
			NumPartitions:     3,
			ReplicationFactor: 1,
		},
		TopicSubscriptionCanceled: {
			NumPartitions:     2,
			ReplicationFactor: 1,
		},
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_8_0_0

	admin, err := sarama.NewClusterAdmin(brokers, cfg)
	if err != nil {
		log.Errorw("Failed to connect to Kafka for topic creation", "brokers", brokers, "error", err)
		return fmt.Errorf("kafka admin connection failed: %w", err)
	}
	defer admin.Close()

	existing, err := admin.ListTopics()
	if err != nil {
		log.Errorw("Failed to list Kafka topics", "error", err)
		return fmt.Errorf("kafka list topics failed: %w", err)
	}

	for name, detail := range requiredTopics {
		if _, ok := existing[name]; ok {
			log.Debugw("Topic already exists", "topic", name)
			continue
		}

		log.Infow("Creating Kafka topic", "topic", name)
		if err := admin.CreateTopic(name, detail, false); err != nil {
			var topicErr *sarama.TopicError
			if errors.As(err, &topicErr) && topicErr.Err == sarama.ErrTopicAlreadyExists {
				log.Warnw("Topic already existed during creation attempt", "topic", name)
				continue
			}
			log.Errorw("Failed to create Kafka topic", "topic", name, "error", err)
			return fmt.Errorf("kafka create topic %s failed: %w", name, err)
		}
	}

	log.Infow("All required Kafka topics are present")
	return nil
}
