package lambda

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"github.com/NeuralTrust/TrailTrigger/pkg/app/notifier"
	domain "github.com/NeuralTrust/TrailTrigger/pkg/domain/errors"
	"github.com/NeuralTrust/TrailTrigger/pkg/domain/trail"
	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const notifierStage = "notifier"

type NotifierHandler interface {
	// Handle runs the record filter for every object named in the
	// notification. The error is always nil: failures are reported in Result.
	Handle(ctx context.Context, event events.S3Event) (Result, error)
}

type NotifierOptions struct {
	Concurrency int
	PushGateway string
}

type notifierHandler struct {
	logger *logrus.Logger
	filter notifier.Filter
	opts   NotifierOptions
}

func NewNotifierHandler(
	logger *logrus.Logger,
	filter notifier.Filter,
	opts NotifierOptions,
) NotifierHandler {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &notifierHandler{
		logger: logger,
		filter: filter,
		opts:   opts,
	}
}

func (h *notifierHandler) Handle(ctx context.Context, event events.S3Event) (result Result, err error) {
	log := h.logger.WithField("invocation_id", invocationID(ctx))
	defer pushMetrics(ctx, log, h.opts.PushGateway, notifierStage)
	defer func() {
		if r := recover(); r != nil {
			perr := panicError(r)
			recordFailure(notifierStage, perr)
			log.WithField("kind", domain.KindInternal).Errorf("notifier panicked: %v", r)
			result, err = Failed(perr), nil
		}
	}()

	refs, err := batchReferences(event)
	if err != nil {
		recordFailure(notifierStage, err)
		log.WithError(err).WithFields(errorFields(err)).Error("invalid S3 notification")
		return Failed(err), nil
	}

	var (
		mu       sync.Mutex
		firstErr error
		total    int
	)
	g := new(errgroup.Group)
	g.SetLimit(h.opts.Concurrency)
	for _, ref := range refs {
		ref := ref
		g.Go(func() error {
			published, err := h.process(ctx, ref)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				recordFailure(notifierStage, err)
				log.WithError(err).WithFields(errorFields(err)).WithFields(logrus.Fields{
					"bucket": ref.Bucket,
					"key":    ref.Key,
				}).Error("failed to process log object")
				if firstErr == nil {
					firstErr = err
				}
				return nil
			}
			total += published
			return nil
		})
	}
	_ = g.Wait()

	if firstErr != nil {
		return Failed(firstErr), nil
	}
	log.WithFields(logrus.Fields{
		"objects":   len(refs),
		"published": total,
	}).Debug("notification processed")
	return Success(), nil
}

func (h *notifierHandler) process(ctx context.Context, ref trail.LogBatchReference) (published int, err error) {
	defer func() {
		if r := recover(); r != nil {
			published, err = 0, panicError(r)
		}
	}()
	return h.filter.Process(ctx, ref)
}

// batchReferences extracts one reference per notification record. Keys arrive
// URL-encoded and are decoded here.
func batchReferences(event events.S3Event) ([]trail.LogBatchReference, error) {
	if len(event.Records) == 0 {
		return nil, domain.New(domain.KindCorruptPayload, errors.New("S3 notification carries no records"))
	}
	refs := make([]trail.LogBatchReference, 0, len(event.Records))
	for i, rec := range event.Records {
		bucket := rec.S3.Bucket.Name
		if bucket == "" || rec.S3.Object.Key == "" {
			return nil, domain.Newf(domain.KindMissingField, "record %d has no bucket or object key", i)
		}
		key := rec.S3.Object.URLDecodedKey
		if key == "" {
			decoded, err := url.QueryUnescape(rec.S3.Object.Key)
			if err != nil {
				return nil, domain.Newf(domain.KindCorruptPayload, "record %d: invalid object key %q: %v", i, rec.S3.Object.Key, err)
			}
			key = decoded
		}
		refs = append(refs, trail.LogBatchReference{Bucket: bucket, Key: key})
	}
	return refs, nil
}
