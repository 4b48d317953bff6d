// Package kafka публикует доменные события заказов в Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/retailx/orders/internal/domain"
)

// Producer публикует события заказов через sarama SyncProducer.
type Producer struct {
	producer sarama.SyncProducer
	logger   *log.Entry
}

// NewProducer создаёт Kafka producer с идемпотентной доставкой.
func NewProducer(brokers []string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1 // требование идемпотентного продюсера

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return &Producer{
		producer: producer,
		logger:   log.WithField("component", "kafka-producer"),
	}, nil
}

// Publish сериализует событие заказа и отправляет его в TopicOrderEvents.
// Ключ сообщения — идентификатор заказа, чтобы события одного заказа
// попадали в одну партицию и сохраняли порядок.
func (p *Producer) Publish(ctx context.Context, event domain.OrderEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(orderEventEnvelope{
		EventID:       event.ID,
		EventType:     event.Type,
		OrderID:       event.OrderID,
		CustomerEmail: event.CustomerEmail,
		Status:        string(event.Status),
		OccurredAt:    event.OccurredAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     TopicOrderEvents,
		Key:       sarama.StringEncoder(event.OrderID),
		Value:     sarama.ByteEncoder(payload),
		Timestamp: time.Now(),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).WithFields(log.Fields{
			"topic":    TopicOrderEvents,
			"order_id": event.OrderID,
		}).Error("failed to send order event to kafka")
		return fmt.Errorf("send order event: %w", err)
	}

	p.logger.WithFields(log.Fields{
		"topic":     TopicOrderEvents,
		"order_id":  event.OrderID,
		"event":     event.Type,
		"partition": partition,
		"offset":    offset,
	}).Debug("order event sent to kafka")

	return nil
}

// Close закрывает producer.
func (p *Producer) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	return nil
}

var _ domain.EventPublisher = (*Producer)(nil)
