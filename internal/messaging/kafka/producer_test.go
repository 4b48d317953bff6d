package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/retailx/orders/internal/domain"
)

func testEvent() domain.OrderEvent {
	return domain.OrderEvent{
		ID:            "evt-1",
		Type:          domain.OrderEventCreated,
		OrderID:       "ORD-AB12CD34",
		CustomerEmail: "customer@example.com",
		Status:        domain.OrderStatusPending,
		OccurredAt:    time.Now().UTC(),
	}
}

func TestProducer_Publish(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)

	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-producer-test"),
	}

	mockProducer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(value []byte) error {
		var envelope orderEventEnvelope
		if err := json.Unmarshal(value, &envelope); err != nil {
			return err
		}
		require.Equal(t, domain.OrderEventCreated, envelope.EventType)
		require.Equal(t, "ORD-AB12CD34", envelope.OrderID)
		require.Equal(t, "PENDING", envelope.Status)
		return nil
	})

	err := producer.Publish(context.Background(), testEvent())
	require.NoError(t, err)
	require.NoError(t, mockProducer.Close())
}

func TestProducer_PublishError(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)

	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-producer-test"),
	}

	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	err := producer.Publish(context.Background(), testEvent())
	require.Error(t, err)
	require.NoError(t, mockProducer.Close())
}

func TestProducer_PublishCancelledContext(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)

	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-producer-test"),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := producer.Publish(ctx, testEvent())
	require.ErrorIs(t, err, context.Canceled)
	require.NoError(t, mockProducer.Close())
}
