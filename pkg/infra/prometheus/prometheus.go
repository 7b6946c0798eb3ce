package prometheus

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	StageFetch      = "fetch"
	StageDecompress = "decompress"
	StageParse      = "parse"
	StagePublish    = "publish"
	StageDescribe   = "describe_tags"
	StageDispatch   = "send_command"
)

var registry = prometheus.NewRegistry()

var registerer = prometheus.WrapRegistererWithPrefix("trailtrigger_", registry)

var (
	stageBuckets = []float64{
		5, 10, 25,
		50, 100, 250,
		500, 1000, 2500,
		5000, 10000, 30000,
	}

	RecordsScanned = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "records_scanned_total",
			Help: "Audit records read from log objects",
		},
	)

	RecordsMatched = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "records_matched_total",
			Help: "Audit records matching the configured source and name patterns",
		},
	)

	NotificationsPublished = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_published_total",
			Help: "Notifications accepted by the fan-out channel",
		},
	)

	DispatchTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_total",
			Help: "Dispatcher outcomes by result",
		},
		[]string{"outcome"},
	)

	FailuresTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "failures_total",
			Help: "Failed invocations by stage and error kind",
		},
		[]string{"stage", "kind"},
	)

	StageDuration = promauto.With(registerer).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stage_duration_ms",
			Help:    "Duration of external calls in milliseconds",
			Buckets: stageBuckets,
		},
		[]string{"stage"},
	)
)

// ObserveSince records the elapsed time of a stage that started at start.
func ObserveSince(stage string, start time.Time) {
	StageDuration.WithLabelValues(stage).Observe(float64(time.Since(start).Milliseconds()))
}

func Initialize() {
	_ = registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	_ = registry.Register(collectors.NewGoCollector())

	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry
}

func Registry() *prometheus.Registry {
	return registry
}

// Push sends the current registry to a Prometheus push gateway. Short-lived
// Lambda invocations use it instead of being scraped.
func Push(ctx context.Context, url, job string) error {
	return push.New(url, job).Gatherer(registry).PushContext(ctx)
}
