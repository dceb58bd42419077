package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	claimDuration otelmetric.Float64Histogram
	sweepDuration otelmetric.Float64Histogram
	ledgerEntries otelmetric.Int64Counter
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	claimDuration, _ := meter.Float64Histogram(
		"ownership.claim.duration",
		otelmetric.WithDescription("Claim transaction duration"),
		otelmetric.WithUnit("ms"),
	)

	sweepDuration, _ := meter.Float64Histogram(
		"ownership.sweep.duration",
		otelmetric.WithDescription("Expiry sweep pass duration"),
		otelmetric.WithUnit("ms"),
	)

	ledgerEntries, _ := meter.Int64Counter(
		"ledger.entries.written",
		otelmetric.WithDescription("Number of ledger entries appended or replaced"),
	)

	return &Observability{
		meterProvider: provider,
		meter:         meter,
		claimDuration: claimDuration,
		sweepDuration: sweepDuration,
		ledgerEntries: ledgerEntries,
	}
}

func (o *Observability) RecordClaimDuration(ctx context.Context, duration time.Duration, result string) {
	if o != nil && o.claimDuration != nil {
		o.claimDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("result", result),
		))
	}
}

func (o *Observability) RecordSweepDuration(ctx context.Context, duration time.Duration, trigger string) {
	if o != nil && o.sweepDuration != nil {
		o.sweepDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("trigger", trigger),
		))
	}
}

func (o *Observability) RecordLedgerEntry(ctx context.Context, kind string) {
	if o != nil && o.ledgerEntries != nil {
		o.ledgerEntries.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("kind", kind),
		))
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.meterProvider.Shutdown(ctx)
	}
}
