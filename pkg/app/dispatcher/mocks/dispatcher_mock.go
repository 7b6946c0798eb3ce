package mocks

import (
	"context"

	"github.com/NeuralTrust/TrailTrigger/pkg/domain/trail"
	"github.com/stretchr/testify/mock"
)

type Dispatcher struct {
	mock.Mock
}

func (m *Dispatcher) Process(ctx context.Context, msg trail.NotificationMessage) (trail.Outcome, error) {
	args := m.Called(ctx, msg)
	outcome, _ := args.Get(0).(trail.Outcome)
	return outcome, args.Error(1)
}
