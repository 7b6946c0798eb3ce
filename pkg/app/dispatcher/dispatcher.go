package dispatcher

import (
	"context"
	"fmt"
	"time"

	domain "github.com/NeuralTrust/TrailTrigger/pkg/domain/errors"
	"github.com/NeuralTrust/TrailTrigger/pkg/domain/trail"
	"github.com/NeuralTrust/TrailTrigger/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
)

const maxCommentLength = 100

//go:generate mockery --name=Dispatcher --dir=. --output=./mocks --filename=dispatcher_mock.go --case=underscore --with-expecter
type Dispatcher interface {
	// Process sends the configured command to the instance named in msg when
	// the instance carries an accepted tag, and skips it otherwise. Repeated
	// delivery of the same message sends the command again; the command
	// document is expected to be idempotent.
	Process(ctx context.Context, msg trail.NotificationMessage) (trail.Outcome, error)
}

type Options struct {
	Rule            trail.TagFilterRule
	DocumentName    string
	DocumentVersion string
}

type dispatcher struct {
	logger *logrus.Logger
	tags   trail.TagReader
	sender trail.CommandSender
	opts   Options
}

func NewDispatcher(
	logger *logrus.Logger,
	tags trail.TagReader,
	sender trail.CommandSender,
	opts Options,
) Dispatcher {
	return &dispatcher{
		logger: logger,
		tags:   tags,
		sender: sender,
		opts:   opts,
	}
}

func (d *dispatcher) Process(ctx context.Context, msg trail.NotificationMessage) (trail.Outcome, error) {
	rec, err := trail.DecodeAuditRecord([]byte(msg.Body))
	if err != nil {
		return "", domain.New(domain.KindCorruptPayload, err)
	}
	if rec.ResponseElements == nil || rec.ResponseElements.InstanceID == "" {
		return "", domain.Newf(domain.KindMissingField, "event %s has no responseElements.instanceId", eventID(msg, rec))
	}
	instanceID := rec.ResponseElements.InstanceID

	log := d.logger.WithFields(logrus.Fields{
		"event_id":    eventID(msg, rec),
		"instance_id": instanceID,
	})
	log.Debug("checking instance tags")

	start := time.Now()
	tags, err := d.tags.DescribeTags(ctx, instanceID)
	prometheus.ObserveSince(prometheus.StageDescribe, start)
	if err != nil {
		return "", domain.New(domain.KindSourceUnavailable, fmt.Errorf("describe tags of %s: %w", instanceID, err))
	}

	if !d.opts.Rule.Passes(tags) {
		log.WithField("tag_key", d.opts.Rule.Key).Info("instance does not carry an accepted tag value, skipping")
		prometheus.DispatchTotal.WithLabelValues(string(trail.OutcomeSkipped)).Inc()
		return trail.OutcomeSkipped, nil
	}

	target := trail.DispatchTarget{
		InstanceID:      instanceID,
		DocumentName:    d.opts.DocumentName,
		DocumentVersion: d.opts.DocumentVersion,
		Comment:         comment(eventID(msg, rec)),
	}

	start = time.Now()
	commandID, err := d.sender.SendCommand(ctx, target)
	prometheus.ObserveSince(prometheus.StageDispatch, start)
	if err != nil {
		return "", domain.New(domain.KindDispatchFailure, fmt.Errorf("send %s to %s: %w", d.opts.DocumentName, instanceID, err))
	}

	log.WithFields(logrus.Fields{
		"document":   d.opts.DocumentName,
		"command_id": commandID,
	}).Info("command sent to instance")
	prometheus.DispatchTotal.WithLabelValues(string(trail.OutcomeDispatched)).Inc()

	return trail.OutcomeDispatched, nil
}

func eventID(msg trail.NotificationMessage, rec *trail.AuditRecord) string {
	if rec.EventID != "" {
		return rec.EventID
	}
	return msg.ID
}

func comment(eventID string) string {
	c := "trailtrigger event " + eventID
	if len(c) > maxCommentLength {
		c = c[:maxCommentLength]
	}
	return c
}
