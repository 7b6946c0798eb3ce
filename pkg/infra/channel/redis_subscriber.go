package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/NeuralTrust/TrailTrigger/pkg/domain/trail"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

type redisSubscriber struct {
	logger *logrus.Logger
	client *redis.Client
}

func NewRedisSubscriber(logger *logrus.Logger, client *redis.Client) trail.Subscriber {
	return &redisSubscriber{
		logger: logger,
		client: client,
	}
}

// Subscribe delivers every message published on topic to handler until ctx is
// cancelled. go-redis re-dials and resubscribes a dropped connection itself, so
// only the initial subscription can fail here. Messages whose handler fails
// are pushed verbatim onto the "<topic>.dlq" list.
func (r *redisSubscriber) Subscribe(ctx context.Context, topic string, handler trail.MessageHandler) error {
	pubSub := r.client.Subscribe(ctx, topic)
	defer func() { _ = pubSub.Close() }()

	if _, err := pubSub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	r.logger.WithField("topic", topic).Debug("redis pubsub connected")

	messages := pubSub.Channel()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("redis subscriber shutting down")
			return nil
		case msg, ok := <-messages:
			if !ok {
				return errors.New("redis pubsub channel closed")
			}
			r.handleMessage(ctx, topic, msg.Payload, handler)
		}
	}
}

func (r *redisSubscriber) handleMessage(ctx context.Context, topic, payload string, handler trail.MessageHandler) {
	var msg trail.NotificationMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil || msg.Body == "" {
		// a bare record published by another producer
		msg = trail.NotificationMessage{Body: payload}
	}

	err := handler(ctx, msg)
	if err == nil {
		return
	}

	log := r.logger.WithError(err).WithField("event_id", msg.ID)
	dlq := topic + DeadLetterSuffix
	if pushErr := r.client.LPush(ctx, dlq, payload).Err(); pushErr != nil {
		log.WithField("dlq", dlq).Errorf("failed to dead-letter message: %v", pushErr)
		return
	}
	log.WithField("dlq", dlq).Warn("message dead-lettered")
}

func (r *redisSubscriber) Close() error {
	return r.client.Close()
}
