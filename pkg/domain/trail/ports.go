package trail

import "context"

//go:generate mockery --name=ObjectStore --dir=. --output=./mocks --filename=object_store_mock.go --case=underscore --with-expecter
type ObjectStore interface {
	Fetch(ctx context.Context, bucket, key string) ([]byte, error)
}

//go:generate mockery --name=Publisher --dir=. --output=./mocks --filename=publisher_mock.go --case=underscore --with-expecter
type Publisher interface {
	PublishBatch(ctx context.Context, topic string, messages []NotificationMessage) error
}

// MessageHandler processes one delivered notification. A non-nil error hands
// the message to the transport's dead-letter sink.
type MessageHandler func(ctx context.Context, msg NotificationMessage) error

type Subscriber interface {
	Subscribe(ctx context.Context, topic string, handler MessageHandler) error
	Close() error
}

//go:generate mockery --name=TagReader --dir=. --output=./mocks --filename=tag_reader_mock.go --case=underscore --with-expecter
type TagReader interface {
	DescribeTags(ctx context.Context, resourceID string) ([]Tag, error)
}

//go:generate mockery --name=CommandSender --dir=. --output=./mocks --filename=command_sender_mock.go --case=underscore --with-expecter
type CommandSender interface {
	SendCommand(ctx context.Context, target DispatchTarget) (string, error)
}
