package channel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NeuralTrust/TrailTrigger/pkg/domain/trail"
	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/sirupsen/logrus"
)

const (
	pollTimeout = 500 * time.Millisecond
	retryDelay  = time.Second
)

// consumer is the subset of *kafka.Consumer used by the subscriber.
type consumer interface {
	SubscribeTopics(topics []string, rebalanceCb kafka.RebalanceCb) error
	ReadMessage(timeout time.Duration) (*kafka.Message, error)
	CommitMessage(m *kafka.Message) ([]kafka.TopicPartition, error)
	Seek(partition kafka.TopicPartition, timeoutMs int) error
	Close() error
}

func NewKafkaConsumer(conf KafkaSettings) (*kafka.Consumer, error) {
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  fmt.Sprintf("%s:%s", conf.Host, conf.Port),
		"group.id":           conf.GroupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}
	return c, nil
}

type kafkaSubscriber struct {
	logger     *logrus.Logger
	consumer   consumer
	deadLetter *kafkaPublisher
	retryDelay time.Duration
}

// NewKafkaSubscriber consumes with c and dead-letters failed messages through p
// onto "<topic>.dlq".
func NewKafkaSubscriber(logger *logrus.Logger, c consumer, p producer) trail.Subscriber {
	return &kafkaSubscriber{
		logger:     logger,
		consumer:   c,
		deadLetter: &kafkaPublisher{producer: p},
		retryDelay: retryDelay,
	}
}

// Subscribe commits a message's offset only once it has been handled or
// dead-lettered. A message that could be neither is read again after a delay.
// A fatal consumer error ends the subscription.
func (k *kafkaSubscriber) Subscribe(ctx context.Context, topic string, handler trail.MessageHandler) error {
	if err := k.consumer.SubscribeTopics([]string{topic}, nil); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	k.logger.WithField("topic", topic).Debug("kafka consumer subscribed")

	for {
		if ctx.Err() != nil {
			k.logger.Info("kafka subscriber shutting down")
			return nil
		}

		msg, err := k.consumer.ReadMessage(pollTimeout)
		if err != nil {
			var kErr kafka.Error
			if errors.As(err, &kErr) {
				if kErr.Code() == kafka.ErrTimedOut {
					continue
				}
				if kErr.IsFatal() {
					return fmt.Errorf("kafka consumer failed: %w", err)
				}
			}
			k.logger.WithError(err).Warn("kafka read failed")
			k.wait(ctx)
			continue
		}

		if !k.handleMessage(ctx, topic, msg, handler) {
			if err := k.consumer.Seek(msg.TopicPartition, int(pollTimeout.Milliseconds())); err != nil {
				k.logger.WithError(err).Warn("failed to rewind kafka partition")
			}
			k.wait(ctx)
			continue
		}
		if _, err := k.consumer.CommitMessage(msg); err != nil {
			k.logger.WithError(err).Warn("failed to commit kafka offset")
		}
	}
}

// handleMessage reports whether the message is settled, either handled or
// dead-lettered.
func (k *kafkaSubscriber) handleMessage(ctx context.Context, topic string, msg *kafka.Message, handler trail.MessageHandler) bool {
	notification := trail.NotificationMessage{
		ID:   string(msg.Key),
		Body: string(msg.Value),
	}
	err := handler(ctx, notification)
	if err == nil {
		return true
	}

	dlq := topic + DeadLetterSuffix
	log := k.logger.WithError(err).WithFields(logrus.Fields{
		"event_id": notification.ID,
		"dlq":      dlq,
	})
	if pubErr := k.deadLetter.PublishBatch(ctx, dlq, []trail.NotificationMessage{notification}); pubErr != nil {
		log.Errorf("failed to dead-letter message: %v", pubErr)
		return false
	}
	log.Warn("message dead-lettered")
	return true
}

func (k *kafkaSubscriber) wait(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(k.retryDelay):
	}
}

func (k *kafkaSubscriber) Close() error {
	k.deadLetter.Close()
	return k.consumer.Close()
}
