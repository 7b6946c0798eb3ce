package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/NeuralTrust/TrailTrigger/pkg/domain/errors"
	"github.com/NeuralTrust/TrailTrigger/pkg/domain/trail"
	"github.com/NeuralTrust/TrailTrigger/pkg/infra/codec"
	"github.com/NeuralTrust/TrailTrigger/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fastjson"
)

//go:generate mockery --name=Filter --dir=. --output=./mocks --filename=filter_mock.go --case=underscore --with-expecter
type Filter interface {
	// Process publishes every record of the referenced log object that matches
	// the configured pattern and returns how many were published.
	Process(ctx context.Context, ref trail.LogBatchReference) (int, error)
}

type Options struct {
	Pattern     trail.MatchPattern
	Topic       string
	Compression string
}

type filter struct {
	logger    *logrus.Logger
	store     trail.ObjectStore
	publisher trail.Publisher
	opts      Options
}

func NewFilter(
	logger *logrus.Logger,
	store trail.ObjectStore,
	publisher trail.Publisher,
	opts Options,
) Filter {
	return &filter{
		logger:    logger,
		store:     store,
		publisher: publisher,
		opts:      opts,
	}
}

func (f *filter) Process(ctx context.Context, ref trail.LogBatchReference) (int, error) {
	log := f.logger.WithFields(logrus.Fields{
		"bucket": ref.Bucket,
		"key":    ref.Key,
	})

	start := time.Now()
	raw, err := f.store.Fetch(ctx, ref.Bucket, ref.Key)
	prometheus.ObserveSince(prometheus.StageFetch, start)
	if err != nil {
		return 0, domain.New(domain.KindSourceUnavailable, fmt.Errorf("fetch %s: %w", ref, err))
	}
	if len(raw) == 0 {
		return 0, domain.Newf(domain.KindSourceUnavailable, "fetch %s: object has no body", ref)
	}

	start = time.Now()
	data, err := codec.Decompress(f.opts.Compression, raw)
	prometheus.ObserveSince(prometheus.StageDecompress, start)
	if err != nil {
		return 0, domain.New(domain.KindCorruptPayload, fmt.Errorf("decompress %s: %w", ref, err))
	}

	start = time.Now()
	messages, scanned, err := Match(f.opts.Pattern, data)
	prometheus.ObserveSince(prometheus.StageParse, start)
	prometheus.RecordsScanned.Add(float64(scanned))
	if err != nil {
		return 0, domain.New(domain.KindCorruptPayload, fmt.Errorf("parse %s: %w", ref, err))
	}

	if len(messages) == 0 {
		log.WithField("records", scanned).Debug("no matching events found in log object")
		return 0, nil
	}
	prometheus.RecordsMatched.Add(float64(len(messages)))

	ids := make([]string, len(messages))
	for i, m := range messages {
		ids[i] = m.ID
	}
	log.WithFields(logrus.Fields{
		"records": scanned,
		"matched": len(messages),
		"events":  ids,
	}).Info("publishing matching events")

	start = time.Now()
	err = f.publisher.PublishBatch(ctx, f.opts.Topic, messages)
	prometheus.ObserveSince(prometheus.StagePublish, start)
	if err != nil {
		return 0, domain.New(domain.KindDeliveryFailure, fmt.Errorf("publish to %s: %w", f.opts.Topic, err))
	}
	prometheus.NotificationsPublished.Add(float64(len(messages)))

	return len(messages), nil
}

// Match parses a decompressed CloudTrail document and returns one notification
// per record whose eventSource and eventName both match pattern, in document
// order. Each body is the record's compact JSON with every field preserved. A
// record lacking either string field does not match. scanned is the number of
// records read.
func Match(pattern trail.MatchPattern, data []byte) (messages []trail.NotificationMessage, scanned int, err error) {
	var p fastjson.Parser
	doc, err := p.ParseBytes(data)
	if err != nil {
		return nil, 0, err
	}
	if doc.Type() != fastjson.TypeObject {
		return nil, 0, fmt.Errorf("document is a JSON %s, not an object", doc.Type())
	}
	recordsValue := doc.Get("Records")
	if recordsValue == nil {
		return nil, 0, errors.New("document has no Records array")
	}
	records, err := recordsValue.Array()
	if err != nil {
		return nil, 0, fmt.Errorf("reading records array: %w", err)
	}

	for i, rec := range records {
		if rec.Type() != fastjson.TypeObject {
			return nil, i, fmt.Errorf("record %d is a JSON %s, not an object", i, rec.Type())
		}
		source, okSource := stringField(rec, "eventSource")
		name, okName := stringField(rec, "eventName")
		if !okSource || !okName || !pattern.Matches(source, name) {
			continue
		}
		id, _ := stringField(rec, "eventID")
		messages = append(messages, trail.NotificationMessage{
			ID:   id,
			Body: string(rec.MarshalTo(nil)),
		})
	}
	return messages, len(records), nil
}

func stringField(v *fastjson.Value, key string) (string, bool) {
	f := v.Get(key)
	if f == nil || f.Type() != fastjson.TypeString {
		return "", false
	}
	b, err := f.StringBytes()
	if err != nil {
		return "", false
	}
	return string(b), true
}
