package subscriber

import (
	"context"

	"github.com/NeuralTrust/TrailTrigger/pkg/app/dispatcher"
	domain "github.com/NeuralTrust/TrailTrigger/pkg/domain/errors"
	"github.com/NeuralTrust/TrailTrigger/pkg/domain/trail"
	"github.com/NeuralTrust/TrailTrigger/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
)

const listenerStage = "listener"

// NewMessageHandler adapts the dispatcher to a channel subscription. A returned
// error makes the subscriber dead-letter the message.
func NewMessageHandler(logger *logrus.Logger, d dispatcher.Dispatcher) trail.MessageHandler {
	return func(ctx context.Context, msg trail.NotificationMessage) (err error) {
		log := logger.WithField("event_id", msg.ID)
		defer func() {
			if r := recover(); r != nil {
				err = domain.Newf(domain.KindInternal, "panic recovered: %v", r)
				prometheus.FailuresTotal.WithLabelValues(listenerStage, string(domain.KindInternal)).Inc()
				log.WithField("kind", domain.KindInternal).Errorf("handler panicked: %v", r)
			}
		}()

		outcome, err := d.Process(ctx, msg)
		if err != nil {
			kind := domain.KindOf(err)
			prometheus.FailuresTotal.WithLabelValues(listenerStage, string(kind)).Inc()
			log.WithError(err).WithField("kind", kind).Error("failed to dispatch event")
			return err
		}
		log.WithField("outcome", outcome).Debug("event handled")
		return nil
	}
}
