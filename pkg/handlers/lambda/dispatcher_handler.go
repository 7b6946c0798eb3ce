package lambda

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/NeuralTrust/TrailTrigger/pkg/app/dispatcher"
	domain "github.com/NeuralTrust/TrailTrigger/pkg/domain/errors"
	"github.com/NeuralTrust/TrailTrigger/pkg/domain/trail"
	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const dispatcherStage = "dispatcher"

type DispatcherHandler interface {
	// Handle dispatches every notification carried by payload. A failed
	// result is returned together with a non-nil error so the runtime retries
	// or dead-letters the event.
	Handle(ctx context.Context, payload json.RawMessage) (Result, error)
}

type DispatcherOptions struct {
	Concurrency int
	PushGateway string
}

type dispatcherHandler struct {
	logger     *logrus.Logger
	dispatcher dispatcher.Dispatcher
	opts       DispatcherOptions
}

func NewDispatcherHandler(
	logger *logrus.Logger,
	dispatcher dispatcher.Dispatcher,
	opts DispatcherOptions,
) DispatcherHandler {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &dispatcherHandler{
		logger:     logger,
		dispatcher: dispatcher,
		opts:       opts,
	}
}

func (h *dispatcherHandler) Handle(ctx context.Context, payload json.RawMessage) (result Result, err error) {
	log := h.logger.WithField("invocation_id", invocationID(ctx))
	defer pushMetrics(ctx, log, h.opts.PushGateway, dispatcherStage)
	defer func() {
		if r := recover(); r != nil {
			perr := panicError(r)
			recordFailure(dispatcherStage, perr)
			log.WithField("kind", domain.KindInternal).Errorf("dispatcher panicked: %v", r)
			result, err = Failed(perr), perr
		}
	}()

	messages, err := Unwrap(payload)
	if err != nil {
		recordFailure(dispatcherStage, err)
		log.WithError(err).WithFields(errorFields(err)).Error("invalid dispatcher payload")
		return Failed(err), err
	}

	var (
		mu       sync.Mutex
		firstErr error
	)
	g := new(errgroup.Group)
	g.SetLimit(h.opts.Concurrency)
	for _, msg := range messages {
		msg := msg
		g.Go(func() error {
			outcome, err := h.process(ctx, msg)
			if err != nil {
				recordFailure(dispatcherStage, err)
				log.WithError(err).WithFields(errorFields(err)).
					WithField("event_id", msg.ID).
					Error("failed to dispatch event")
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return nil
			}
			log.WithFields(logrus.Fields{
				"event_id": msg.ID,
				"outcome":  outcome,
			}).Debug("event handled")
			return nil
		})
	}
	_ = g.Wait()

	if firstErr != nil {
		return Failed(firstErr), firstErr
	}
	return Success(), nil
}

func (h *dispatcherHandler) process(ctx context.Context, msg trail.NotificationMessage) (outcome trail.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome, err = "", panicError(r)
		}
	}()
	return h.dispatcher.Process(ctx, msg)
}

type payloadShape struct {
	Records []json.RawMessage `json:"Records"`
	Source  string            `json:"source"`
	Detail  json.RawMessage   `json:"detail"`
}

// Unwrap returns the notifications carried by payload, which is an SNS event,
// an EventBridge event whose detail is the audit record, or the bare record.
func Unwrap(payload json.RawMessage) ([]trail.NotificationMessage, error) {
	var shape payloadShape
	if err := json.Unmarshal(payload, &shape); err != nil {
		return nil, domain.New(domain.KindCorruptPayload, fmt.Errorf("decode payload: %w", err))
	}

	switch {
	case len(shape.Records) > 0:
		var event events.SNSEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, domain.New(domain.KindCorruptPayload, fmt.Errorf("decode SNS event: %w", err))
		}
		messages := make([]trail.NotificationMessage, 0, len(event.Records))
		for i, rec := range event.Records {
			if rec.SNS.Message == "" {
				return nil, domain.Newf(domain.KindMissingField, "SNS record %d has no message", i)
			}
			messages = append(messages, trail.NotificationMessage{
				ID:   rec.SNS.MessageID,
				Body: rec.SNS.Message,
			})
		}
		return messages, nil

	case shape.Source != "" && len(shape.Detail) > 0:
		var event events.CloudWatchEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, domain.New(domain.KindCorruptPayload, fmt.Errorf("decode EventBridge event: %w", err))
		}
		return []trail.NotificationMessage{{ID: event.ID, Body: string(event.Detail)}}, nil

	default:
		return []trail.NotificationMessage{{Body: string(payload)}}, nil
	}
}
