package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/nimeshabuddhika/resilient-ledger/pkg"
	kafkautils "github.com/nimeshabuddhika/resilient-ledger/pkg/kafka"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/utils"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/views"
	"github.com/nimeshabuddhika/resilient-ledger/services/ledger-api/internal/observability"
	"go.uber.org/zap"
)

const (
	EventReasonRequest  = "request"
	EventReasonInterest = "interest"

	maxProduceAttempts = 4
	defaultOutboxSize  = 1024
)

// EventPublisher streams committed transaction records. Publishing is best effort
// and never changes the outcome of the committed unit.
type EventPublisher interface {
	Publish(ctx context.Context, event views.LedgerEvent)
	Close()
}

type PublisherConfig struct {
	Brokers    string
	Topic      string
	Partitions uint32
	Retries    int
	Retention  time.Duration
	// OutboxSize bounds events waiting for the producer. Events beyond it are dropped and counted.
	OutboxSize int
}

type KafkaEventPublisherImpl struct {
	logger   *zap.Logger
	cfg      PublisherConfig
	producer *kafka.Producer
	outbox   *eventOutbox
}

// NewKafkaEventPublisher provisions the ledger topic and starts an idempotent producer.
func NewKafkaEventPublisher(ctx context.Context, logger *zap.Logger, cfg PublisherConfig) (*KafkaEventPublisherImpl, error) {
	err := kafkautils.InitKafkaTopics(logger, ctx, kafkautils.KafkaConfig{
		BootstrapServers: cfg.Brokers,
		Topics:           []kafkautils.TopicConfig{kafkautils.RetainedTopic(cfg.Topic, int(cfg.Partitions), cfg.Retention)},
	})
	if err != nil {
		return nil, err
	}
	p, err := kafkautils.NewIdempotentProducer(cfg.Brokers, cfg.Retries)
	if err != nil {
		return nil, err
	}
	logger.Info("kafka_producer_created", zap.String("brokers", cfg.Brokers), zap.String("topic", cfg.Topic))

	k := &KafkaEventPublisherImpl{logger: logger, cfg: cfg, producer: p}
	k.outbox = newEventOutbox(cfg.OutboxSize, k.produce)
	go k.handleDeliveryReports()
	return k, nil
}

// Publish hands the event to the outbox and returns at once; broker backpressure never reaches the caller.
func (k *KafkaEventPublisherImpl) Publish(_ context.Context, event views.LedgerEvent) {
	if !k.outbox.enqueue(event) {
		k.logger.Warn("ledger_event_dropped_outbox_full",
			zap.String(pkg.TraceId, event.TraceID),
			zap.Int64("transaction_id", event.TransactionID))
		observability.EventsPublished.WithLabelValues("dropped").Inc()
	}
}

func (k *KafkaEventPublisherImpl) produce(event views.LedgerEvent) {
	value, err := json.Marshal(event)
	if err != nil {
		k.logger.Error("ledger_event_encode_failed", zap.String(pkg.TraceId, event.TraceID), zap.Error(err))
		observability.EventsPublished.WithLabelValues("encode_error").Inc()
		return
	}

	// Events of one account land on one partition so consumers see them in commit order.
	partitionKey := event.ToAccount
	if event.FromAccount != nil {
		partitionKey = *event.FromAccount
	}
	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &k.cfg.Topic,
			Partition: int32(uint64(partitionKey) % uint64(k.cfg.Partitions)),
		},
		Key:   []byte(strconv.FormatInt(event.TransactionID, 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: pkg.HeaderTraceId, Value: []byte(event.TraceID)},
			{Key: "x-ledger-reason", Value: []byte(event.Reason)},
		},
	}

	for attempt := 1; attempt <= maxProduceAttempts; attempt++ {
		err = k.producer.Produce(msg, nil)
		if err == nil {
			return
		}
		var kErr kafka.Error
		if !errors.As(err, &kErr) || kErr.Code() != kafka.ErrQueueFull || attempt == maxProduceAttempts {
			break
		}
		time.Sleep(utils.CalculateExponentialBackoffWithJitter(attempt, 20*time.Millisecond, 500*time.Millisecond))
	}
	k.logger.Error("ledger_event_publish_failed",
		zap.String(pkg.TraceId, event.TraceID),
		zap.Int64("transaction_id", event.TransactionID),
		zap.Error(err))
	observability.EventsPublished.WithLabelValues("produce_error").Inc()
}

func (k *KafkaEventPublisherImpl) handleDeliveryReports() {
	for e := range k.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				k.logger.Error("ledger_event_delivery_failed", zap.Error(ev.TopicPartition.Error))
				observability.EventsPublished.WithLabelValues("delivery_error").Inc()
				continue
			}
			observability.EventsPublished.WithLabelValues("delivered").Inc()
		case kafka.Error:
			k.logger.Warn("kafka_producer_error", zap.Error(ev))
		}
	}
}

func (k *KafkaEventPublisherImpl) Close() {
	k.outbox.close()
	if remaining := k.producer.Flush(5000); remaining > 0 {
		k.logger.Warn("kafka_producer_unflushed_events", zap.Int("remaining", remaining))
	}
	k.producer.Close()
	k.logger.Info("kafka_producer_closed")
}

type noopEventPublisher struct {
	logger *zap.Logger
}

// NewNoopEventPublisher is used when no broker is configured.
func NewNoopEventPublisher(logger *zap.Logger) EventPublisher {
	return noopEventPublisher{logger: logger}
}

func (n noopEventPublisher) Publish(_ context.Context, event views.LedgerEvent) {
	n.logger.Debug("ledger_event_discarded", zap.Int64("transaction_id", event.TransactionID), zap.String("reason", event.Reason))
}

func (n noopEventPublisher) Close() {}

// eventOutbox is a bounded queue drained by one sender goroutine, preserving enqueue order.
type eventOutbox struct {
	mu     sync.RWMutex
	closed bool
	events chan views.LedgerEvent
	done   chan struct{}
}

func newEventOutbox(size int, send func(views.LedgerEvent)) *eventOutbox {
	if size <= 0 {
		size = defaultOutboxSize
	}
	o := &eventOutbox{events: make(chan views.LedgerEvent, size), done: make(chan struct{})}
	go func() {
		defer close(o.done)
		for event := range o.events {
			send(event)
		}
	}()
	return o
}

// enqueue never blocks. It reports false when the outbox is full or closed.
func (o *eventOutbox) enqueue(event views.LedgerEvent) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return false
	}
	select {
	case o.events <- event:
		return true
	default:
		return false
	}
}

// close stops intake and waits until every queued event has been sent.
func (o *eventOutbox) close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	close(o.events)
	o.mu.Unlock()
	<-o.done
}
