package mocks

import (
	"context"

	"github.com/NeuralTrust/TrailTrigger/pkg/domain/trail"
	"github.com/stretchr/testify/mock"
)

type ObjectStore struct {
	mock.Mock
}

func (m *ObjectStore) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	args := m.Called(ctx, bucket, key)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

type Publisher struct {
	mock.Mock
}

func (m *Publisher) PublishBatch(ctx context.Context, topic string, messages []trail.NotificationMessage) error {
	args := m.Called(ctx, topic, messages)
	return args.Error(0)
}

type TagReader struct {
	mock.Mock
}

func (m *TagReader) DescribeTags(ctx context.Context, resourceID string) ([]trail.Tag, error) {
	args := m.Called(ctx, resourceID)
	tags, _ := args.Get(0).([]trail.Tag)
	return tags, args.Error(1)
}

type CommandSender struct {
	mock.Mock
}

func (m *CommandSender) SendCommand(ctx context.Context, target trail.DispatchTarget) (string, error) {
	args := m.Called(ctx, target)
	return args.String(0), args.Error(1)
}
