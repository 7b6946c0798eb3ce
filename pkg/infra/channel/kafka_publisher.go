package channel

import (
	"context"
	"errors"
	"fmt"

	"github.com/NeuralTrust/TrailTrigger/pkg/domain/trail"
	"github.com/confluentinc/confluent-kafka-go/kafka"
)

// producer is the subset of *kafka.Producer used by the publisher.
type producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Flush(timeoutMs int) int
	Close()
}

func NewKafkaProducer(conf KafkaSettings) (*kafka.Producer, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": fmt.Sprintf("%s:%s", conf.Host, conf.Port),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return p, nil
}

type kafkaPublisher struct {
	producer producer
}

func NewKafkaPublisher(p producer) trail.Publisher {
	return &kafkaPublisher{producer: p}
}

// PublishBatch produces every message keyed by its id and waits for all
// delivery reports. The first delivery error is returned.
func (p *kafkaPublisher) PublishBatch(ctx context.Context, topic string, messages []trail.NotificationMessage) error {
	if p.producer == nil {
		return errors.New("kafka producer is not initialized")
	}
	deliveryChan := make(chan kafka.Event, len(messages))

	produced := 0
	var produceErr error
	for _, m := range messages {
		err := p.producer.Produce(&kafka.Message{
			TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
			Key:            []byte(m.ID),
			Value:          []byte(m.Body),
		}, deliveryChan)
		if err != nil {
			produceErr = fmt.Errorf("failed to produce message %s: %w", m.ID, err)
			break
		}
		produced++
	}

	var deliveryErr error
	for i := 0; i < produced; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-deliveryChan:
			m, ok := e.(*kafka.Message)
			if !ok {
				if deliveryErr == nil {
					deliveryErr = fmt.Errorf("unexpected delivery event: %v", e)
				}
				continue
			}
			if m.TopicPartition.Error != nil && deliveryErr == nil {
				deliveryErr = fmt.Errorf("delivery failed: %w", m.TopicPartition.Error)
			}
		}
	}

	if produceErr != nil {
		return produceErr
	}
	return deliveryErr
}

func (p *kafkaPublisher) Close() {
	if p.producer != nil {
		p.producer.Flush(5000)
		p.producer.Close()
	}
}
