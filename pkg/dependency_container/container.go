package dependency_container

import (
	"context"
	"errors"
	"fmt"

	"github.com/NeuralTrust/TrailTrigger/pkg/app/dispatcher"
	"github.com/NeuralTrust/TrailTrigger/pkg/app/notifier"
	"github.com/NeuralTrust/TrailTrigger/pkg/config"
	"github.com/NeuralTrust/TrailTrigger/pkg/domain/trail"
	"github.com/NeuralTrust/TrailTrigger/pkg/handlers/lambda"
	"github.com/NeuralTrust/TrailTrigger/pkg/handlers/subscriber"
	"github.com/NeuralTrust/TrailTrigger/pkg/infra/awsx"
	"github.com/NeuralTrust/TrailTrigger/pkg/infra/breaker"
	"github.com/NeuralTrust/TrailTrigger/pkg/infra/channel"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/sirupsen/logrus"
)

type Mode string

const (
	ModeNotifier   Mode = "notifier"
	ModeDispatcher Mode = "dispatcher"
	ModeListen     Mode = "listen"
)

type Container struct {
	Filter            notifier.Filter
	Dispatcher        dispatcher.Dispatcher
	NotifierHandler   lambda.NotifierHandler
	DispatcherHandler lambda.DispatcherHandler
	Subscriber        trail.Subscriber
	MessageHandler    trail.MessageHandler

	closers []func() error
}

type ContainerDI struct {
	Cfg    *config.Config
	Logger *logrus.Logger
	Mode   Mode
}

// NewContainer wires the components a run mode needs. The configuration must
// already be validated for that mode.
func NewContainer(ctx context.Context, di ContainerDI) (*Container, error) {
	c := &Container{}

	awsCfg, err := awsx.LoadConfig(ctx, di.Cfg.AWS, di.Logger)
	if err != nil {
		return nil, err
	}

	switch di.Mode {
	case ModeNotifier:
		if err := c.buildNotifier(di, awsCfg); err != nil {
			return nil, c.closeAfter(err)
		}
	case ModeDispatcher:
		c.buildDispatcher(di, awsCfg)
	case ModeListen:
		c.buildDispatcher(di, awsCfg)
		if err := c.buildSubscriber(di); err != nil {
			return nil, c.closeAfter(err)
		}
	default:
		return nil, fmt.Errorf("unknown mode %q", di.Mode)
	}
	return c, nil
}

func (c *Container) buildNotifier(di ContainerDI, awsCfg aws.Config) error {
	pattern, err := di.Cfg.Filter.MatchPattern()
	if err != nil {
		return err
	}
	publisher, err := c.newPublisher(di.Cfg.Channel, awsCfg)
	if err != nil {
		return err
	}
	publisher = breaker.GuardPublisher(publisher, newBreaker(di.Cfg.Breaker, "publisher"))

	c.Filter = notifier.NewFilter(
		di.Logger,
		awsx.NewS3Store(awsx.NewS3Client(awsCfg)),
		publisher,
		notifier.Options{
			Pattern:     pattern,
			Topic:       di.Cfg.Channel.Topic,
			Compression: di.Cfg.Filter.Compression,
		},
	)
	c.NotifierHandler = lambda.NewNotifierHandler(di.Logger, c.Filter, lambda.NotifierOptions{
		Concurrency: di.Cfg.Workers.Concurrency,
		PushGateway: di.Cfg.Metrics.PushGateway,
	})
	return nil
}

func (c *Container) buildDispatcher(di ContainerDI, awsCfg aws.Config) {
	sender := breaker.GuardCommandSender(
		awsx.NewSSMSender(ssm.NewFromConfig(awsCfg)),
		newBreaker(di.Cfg.Breaker, "command-sender"),
	)
	c.Dispatcher = dispatcher.NewDispatcher(
		di.Logger,
		awsx.NewEC2TagReader(ec2.NewFromConfig(awsCfg)),
		sender,
		dispatcher.Options{
			Rule:            di.Cfg.Dispatch.TagRule(),
			DocumentName:    di.Cfg.Dispatch.DocumentName,
			DocumentVersion: di.Cfg.Dispatch.DocumentVersion,
		},
	)
	c.DispatcherHandler = lambda.NewDispatcherHandler(di.Logger, c.Dispatcher, lambda.DispatcherOptions{
		Concurrency: di.Cfg.Workers.Concurrency,
		PushGateway: di.Cfg.Metrics.PushGateway,
	})
}

func (c *Container) buildSubscriber(di ContainerDI) error {
	sub, err := c.newSubscriber(di.Logger, di.Cfg.Channel)
	if err != nil {
		return err
	}
	c.Subscriber = sub
	c.MessageHandler = subscriber.NewMessageHandler(di.Logger, c.Dispatcher)
	return nil
}

func (c *Container) newPublisher(cfg config.ChannelConfig, awsCfg aws.Config) (trail.Publisher, error) {
	switch cfg.Type {
	case config.ChannelSNS:
		return awsx.NewSNSPublisher(sns.NewFromConfig(awsCfg)), nil
	case config.ChannelRedis:
		settings, err := channel.DecodeRedisSettings(cfg.Settings)
		if err != nil {
			return nil, err
		}
		client := channel.NewRedisClient(settings)
		c.closers = append(c.closers, client.Close)
		return channel.NewRedisPublisher(client), nil
	case config.ChannelKafka:
		settings, err := channel.DecodeKafkaSettings(cfg.Settings)
		if err != nil {
			return nil, err
		}
		producer, err := channel.NewKafkaProducer(settings)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, func() error {
			producer.Flush(5000)
			producer.Close()
			return nil
		})
		return channel.NewKafkaPublisher(producer), nil
	default:
		return nil, fmt.Errorf("channel type %q is not supported", cfg.Type)
	}
}

func (c *Container) newSubscriber(logger *logrus.Logger, cfg config.ChannelConfig) (trail.Subscriber, error) {
	switch cfg.Type {
	case config.ChannelRedis:
		settings, err := channel.DecodeRedisSettings(cfg.Settings)
		if err != nil {
			return nil, err
		}
		return channel.NewRedisSubscriber(logger, channel.NewRedisClient(settings)), nil
	case config.ChannelKafka:
		settings, err := channel.DecodeKafkaSettings(cfg.Settings)
		if err != nil {
			return nil, err
		}
		consumer, err := channel.NewKafkaConsumer(settings)
		if err != nil {
			return nil, err
		}
		producer, err := channel.NewKafkaProducer(settings)
		if err != nil {
			_ = consumer.Close()
			return nil, err
		}
		return channel.NewKafkaSubscriber(logger, consumer, producer), nil
	default:
		return nil, fmt.Errorf("channel type %q cannot be subscribed to", cfg.Type)
	}
}

func newBreaker(cfg config.BreakerConfig, name string) breaker.CircuitBreaker {
	if !cfg.Enabled {
		return breaker.PassThrough()
	}
	return breaker.NewCircuitBreaker(name, cfg.Timeout, cfg.MaxFailures)
}

// Close releases channel connections, the subscriber's included.
func (c *Container) Close() error {
	var errs []error
	for _, closeFn := range c.closers {
		errs = append(errs, closeFn())
	}
	if c.Subscriber != nil {
		errs = append(errs, c.Subscriber.Close())
	}
	return errors.Join(errs...)
}

func (c *Container) closeAfter(err error) error {
	return errors.Join(err, c.Close())
}
