package mocks

import (
	"context"

	"github.com/NeuralTrust/TrailTrigger/pkg/domain/trail"
	"github.com/stretchr/testify/mock"
)

type Filter struct {
	mock.Mock
}

func (m *Filter) Process(ctx context.Context, ref trail.LogBatchReference) (int, error) {
	args := m.Called(ctx, ref)
	return args.Int(0), args.Error(1)
}
