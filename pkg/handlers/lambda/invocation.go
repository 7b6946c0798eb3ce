package lambda

import (
	"context"
	"time"

	"github.com/NeuralTrust/TrailTrigger/pkg/infra/prometheus"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const pushTimeout = 2 * time.Second

// invocationID is the runtime's request id, or a fresh uuid outside Lambda.
func invocationID(ctx context.Context) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	return uuid.NewString()
}

func pushMetrics(ctx context.Context, log *logrus.Entry, gateway, job string) {
	if gateway == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
	defer cancel()
	if err := prometheus.Push(ctx, gateway, "trailtrigger_"+job); err != nil {
		log.WithError(err).Warn("failed to push metrics")
	}
}
