package channel

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"

	"github.com/NeuralTrust/TrailTrigger/pkg/domain/trail"
	"github.com/go-redis/redis/v8"
)

func NewRedisClient(conf RedisSettings) *redis.Client {
	options := &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", conf.Host, conf.Port),
		Password: conf.Password,
		DB:       conf.DB,
	}
	if conf.TLS {
		options.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return redis.NewClient(options)
}

type redisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) trail.Publisher {
	return &redisPublisher{client: client}
}

// PublishBatch publishes every message on the topic in one MULTI/EXEC round
// trip. Each payload is the JSON encoding of the NotificationMessage.
func (p *redisPublisher) PublishBatch(ctx context.Context, topic string, messages []trail.NotificationMessage) error {
	payloads := make([]string, len(messages))
	for i, m := range messages {
		b, err := json.Marshal(m)
		if err != nil {
			return err
		}
		payloads[i] = string(b)
	}

	_, err := p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, payload := range payloads {
			pipe.Publish(ctx, topic, payload)
		}
		return nil
	})
	return err
}
