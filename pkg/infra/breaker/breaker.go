package breaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NeuralTrust/TrailTrigger/pkg/domain/trail"
	"github.com/aws/smithy-go"
	"github.com/sony/gobreaker"
)

type CircuitBreaker interface {
	Execute(fn func() error) error
}

type circuitBreakerWrapper struct {
	breaker *gobreaker.CircuitBreaker
}

// NewCircuitBreaker opens after maxFailures consecutive failures and lets a
// trial call through once timeout has elapsed. A panic inside the guarded call
// is recovered and counted as a failure. Client faults reported by an AWS
// service (InvalidInstanceId and the like) concern one request, not the
// downstream, and are returned without counting.
func NewCircuitBreaker(name string, timeout time.Duration, maxFailures uint32) CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || isClientFault(err)
		},
	}
	return &circuitBreakerWrapper{
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func (g *circuitBreakerWrapper) Execute(fn func() error) error {
	_, err := g.breaker.Execute(func() (result interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic recovered: %v", r)
			}
		}()
		return nil, fn()
	})
	if err != nil {
		return fmt.Errorf("breaker (%s): %w", g.breaker.Name(), err)
	}
	return nil
}

func isClientFault(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorFault() == smithy.FaultClient
}

type passThrough struct{}

// PassThrough runs every call unguarded; used when breaking is disabled.
func PassThrough() CircuitBreaker {
	return passThrough{}
}

func (passThrough) Execute(fn func() error) error {
	return fn()
}

type guardedPublisher struct {
	next trail.Publisher
	cb   CircuitBreaker
}

func GuardPublisher(next trail.Publisher, cb CircuitBreaker) trail.Publisher {
	return &guardedPublisher{next: next, cb: cb}
}

func (p *guardedPublisher) PublishBatch(ctx context.Context, topic string, messages []trail.NotificationMessage) error {
	return p.cb.Execute(func() error {
		return p.next.PublishBatch(ctx, topic, messages)
	})
}

type guardedCommandSender struct {
	next trail.CommandSender
	cb   CircuitBreaker
}

func GuardCommandSender(next trail.CommandSender, cb CircuitBreaker) trail.CommandSender {
	return &guardedCommandSender{next: next, cb: cb}
}

func (s *guardedCommandSender) SendCommand(ctx context.Context, target trail.DispatchTarget) (string, error) {
	var commandID string
	err := s.cb.Execute(func() error {
		id, err := s.next.SendCommand(ctx, target)
		commandID = id
		return err
	})
	return commandID, err
}
