package lambda

import (
	domain "github.com/NeuralTrust/TrailTrigger/pkg/domain/errors"
	"github.com/NeuralTrust/TrailTrigger/pkg/infra/awsx"
	"github.com/NeuralTrust/TrailTrigger/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
)

const (
	StatusSuccess = "Success"
	StatusFailed  = "Failed"
)

// Result is the value every entry point returns to the runtime.
type Result struct {
	Status string `json:"status"`
	Msg    string `json:"msg,omitempty"`
}

func Success() Result {
	return Result{Status: StatusSuccess}
}

// Failed renders err as "<Kind> - <message>".
func Failed(err error) Result {
	return Result{Status: StatusFailed, Msg: domain.Describe(err)}
}

func recordFailure(stage string, err error) {
	prometheus.FailuresTotal.WithLabelValues(stage, string(domain.KindOf(err))).Inc()
}

func panicError(r interface{}) error {
	return domain.Newf(domain.KindInternal, "panic recovered: %v", r)
}

func errorFields(err error) logrus.Fields {
	fields := logrus.Fields{"kind": domain.KindOf(err)}
	if code := awsx.ErrorCode(err); code != "" {
		fields["aws_error_code"] = code
	}
	return fields
}
