package observability

import (
	"context"
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability records per-call encoder instruments through OpenTelemetry.
// The prometheus exporter registers on the job's registry, so these series
// travel with the rest of the job metrics.
type Observability struct {
	meterProvider *metric.MeterProvider
	encodeCounter otelmetric.Int64Counter
	encodeLatency otelmetric.Float64Histogram
}

func New(serviceName string, reg prom.Registerer) (*Observability, error) {
	exporter, err := prometheus.New(prometheus.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	encodeCounter, err := meter.Int64Counter(
		"embedding_requests",
		otelmetric.WithDescription("Encoder calls by provider, model and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedding_requests counter: %w", err)
	}

	encodeLatency, err := meter.Float64Histogram(
		"embedding_encode_duration",
		otelmetric.WithDescription("Encoder call latency"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedding_encode_duration histogram: %w", err)
	}

	return &Observability{
		meterProvider: provider,
		encodeCounter: encodeCounter,
		encodeLatency: encodeLatency,
	}, nil
}

// RecordEncode records one encoder call.
func (o *Observability) RecordEncode(ctx context.Context, provider, model string, duration time.Duration, status string) {
	attrs := otelmetric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("model", model),
		attribute.String("status", status),
	)
	o.encodeCounter.Add(ctx, 1, attrs)
	o.encodeLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

// Shutdown flushes and stops the meter provider.
func (o *Observability) Shutdown(ctx context.Context) error {
	if o.meterProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return o.meterProvider.Shutdown(ctx)
}
