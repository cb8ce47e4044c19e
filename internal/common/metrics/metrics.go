// internal/common/metrics/metrics.go
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Registry holds every collector of the job. A one-shot job cannot be scraped,
// so the registry is pushed to a Pushgateway when the run ends.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	PropertiesObserved = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "backfill_properties",
			Help: "Properties seen by the last run, by embedding state",
		},
		[]string{"state"},
	)

	PropertiesUpdated = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "backfill_properties_updated_total",
			Help: "Properties whose embedding was written",
		},
	)

	PropertiesSkipped = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "backfill_properties_skipped_total",
			Help: "Updates that matched no row because the embedding was already set",
		},
	)

	BatchCommits = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "backfill_commits_total",
			Help: "Transactions committed",
		},
	)

	RunDuration = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "backfill_run_duration_seconds",
			Help: "Wall time of the last run",
		},
	)

	LastSuccess = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "backfill_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		},
	)

	RunFailures = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backfill_failures_total",
			Help: "Runs that ended in an error, by error code",
		},
		[]string{"error_code"},
	)
)

// Push sends the registry to the Pushgateway at url, replacing the previous
// metrics of the same job and instance.
func Push(ctx context.Context, url, job, instance string, g prometheus.Gatherer) error {
	if g == nil {
		g = Registry
	}
	pusher := push.New(url, job).Gatherer(g)
	if instance != "" {
		pusher = pusher.Grouping("instance", instance)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
