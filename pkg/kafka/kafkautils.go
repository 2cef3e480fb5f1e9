package kafkautils

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

type KafkaConfig struct {
	BootstrapServers string
	Topics           []TopicConfig
	// MaxElapsedTime bounds topic provisioning retries. Defaults to 2 minutes.
	MaxElapsedTime time.Duration
}

type TopicConfig struct {
	Topic             string
	NumPartitions     int
	ReplicationFactor int
	Config            map[string]string
}

// RetainedTopic describes a delete-policy topic that keeps records for the given retention.
func RetainedTopic(name string, partitions int, retention time.Duration) TopicConfig {
	return TopicConfig{
		Topic:             name,
		NumPartitions:     partitions,
		ReplicationFactor: 1,
		Config: map[string]string{
			"cleanup.policy": "delete",
			"retention.ms":   strconv.FormatInt(retention.Milliseconds(), 10),
		},
	}
}

// InitKafkaTopics creates the specified Kafka topics, treating existing topics as success.
// Failures are retried with exponential backoff until MaxElapsedTime or ctx expires.
func InitKafkaTopics(logger *zap.Logger, ctx context.Context, cnf KafkaConfig) error {
	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{"bootstrap.servers": cnf.BootstrapServers})
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer admin.Close()

	topics := make([]kafka.TopicSpecification, 0, len(cnf.Topics))
	for _, topic := range cnf.Topics {
		topics = append(topics, kafka.TopicSpecification{
			Topic:             topic.Topic,
			NumPartitions:     topic.NumPartitions,
			ReplicationFactor: topic.ReplicationFactor,
			Config:            topic.Config,
		})
	}

	operation := func() error {
		results, err := admin.CreateTopics(ctx, topics, kafka.SetAdminOperationTimeout(30*time.Second))
		if err != nil {
			logger.Warn("kafka_topic_creation_retrying", zap.Error(err))
			return fmt.Errorf("failed to create topics: %w", err)
		}
		for _, result := range results {
			switch result.Error.Code() {
			case kafka.ErrNoError:
				logger.Info("kafka_topic_created", zap.String("topic", result.Topic))
			case kafka.ErrTopicAlreadyExists:
				logger.Debug("kafka_topic_exists", zap.String("topic", result.Topic))
			default:
				return fmt.Errorf("kafka topic %s creation failed: %v", result.Topic, result.Error)
			}
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = cnf.MaxElapsedTime
	if b.MaxElapsedTime <= 0 {
		b.MaxElapsedTime = 2 * time.Minute
	}
	return backoff.Retry(operation, backoff.WithContext(b, ctx))
}

// NewIdempotentProducer builds a producer that waits for all replicas and never duplicates on retry.
func NewIdempotentProducer(bootstrapServers string, retries int) (*kafka.Producer, error) {
	return kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  bootstrapServers,
		"acks":               "all",
		"enable.idempotence": true,
		"retries":            retries,
	})
}
