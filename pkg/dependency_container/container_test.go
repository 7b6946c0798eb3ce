package dependency_container

import (
	"context"
	"testing"
	"time"

	"github.com/NeuralTrust/TrailTrigger/pkg/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Filter: config.FilterConfig{
			EventSourcePattern: "ec2.amazonaws.com",
			EventNamePattern:   "RunInstances",
			Compression:        "gzip",
		},
		Channel: config.ChannelConfig{
			Type:     config.ChannelRedis,
			Topic:    "trail-events",
			Settings: map[string]interface{}{"host": "localhost", "port": 6379},
		},
		Dispatch: config.DispatchConfig{
			TagKey:       "Role",
			TagValues:    "web,worker",
			DocumentName: "AWS-RunShellScript",
		},
		AWS:     config.AWSConfig{Region: "eu-west-1"},
		Breaker: config.BreakerConfig{Enabled: true, MaxFailures: 3, Timeout: time.Second},
		Workers: config.WorkersConfig{Concurrency: 2},
	}
}

func TestNewContainer_Modes(t *testing.T) {
	logger := logrus.New()
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	c, err := NewContainer(context.Background(), ContainerDI{Cfg: testConfig(), Logger: logger, Mode: ModeNotifier})
	require.NoError(t, err)
	assert.NotNil(t, c.Filter)
	assert.NotNil(t, c.NotifierHandler)
	assert.Nil(t, c.Dispatcher)
	assert.NoError(t, c.Close())

	c, err = NewContainer(context.Background(), ContainerDI{Cfg: testConfig(), Logger: logger, Mode: ModeDispatcher})
	require.NoError(t, err)
	assert.NotNil(t, c.Dispatcher)
	assert.NotNil(t, c.DispatcherHandler)
	assert.Nil(t, c.Filter)

	c, err = NewContainer(context.Background(), ContainerDI{Cfg: testConfig(), Logger: logger, Mode: ModeListen})
	require.NoError(t, err)
	assert.NotNil(t, c.Subscriber)
	assert.NotNil(t, c.MessageHandler)
	assert.NoError(t, c.Close())

	_, err = NewContainer(context.Background(), ContainerDI{Cfg: testConfig(), Logger: logger, Mode: "unknown"})
	assert.EqualError(t, err, `unknown mode "unknown"`)
}

func TestContainer_ChannelFactories(t *testing.T) {
	c := &Container{}

	_, err := c.newPublisher(config.ChannelConfig{Type: "amqp"}, aws.Config{})
	assert.EqualError(t, err, `channel type "amqp" is not supported`)

	_, err = c.newPublisher(config.ChannelConfig{Type: config.ChannelRedis}, aws.Config{})
	assert.EqualError(t, err, "redis host is required")

	p, err := c.newPublisher(config.ChannelConfig{Type: config.ChannelSNS}, aws.Config{Region: "eu-west-1"})
	require.NoError(t, err)
	assert.NotNil(t, p)
	assert.Empty(t, c.closers)

	_, err = c.newSubscriber(logrus.New(), config.ChannelConfig{Type: config.ChannelSNS})
	assert.EqualError(t, err, `channel type "sns" cannot be subscribed to`)
}
