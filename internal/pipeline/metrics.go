package pipeline

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// runMetrics counts broadcast runs and times them end to end. A metrics init
// failure costs observability, never a run.
type runMetrics struct {
	runs     metric.Int64Counter
	duration metric.Float64Histogram
}

func newRunMetrics(log *slog.Logger) *runMetrics {
	meter := otel.Meter("github.com/aircast-dev/aircast/pipeline")

	runs, err := meter.Int64Counter("aircast.runs.total",
		metric.WithDescription("Broadcast runs by station and outcome"))
	if err != nil {
		log.Warn("failed to initialize metrics", slog.String("error", err.Error()))
		return nil
	}
	duration, err := meter.Float64Histogram("aircast.run.duration.seconds",
		metric.WithDescription("End to end broadcast generation time"),
		metric.WithUnit("s"))
	if err != nil {
		log.Warn("failed to initialize metrics", slog.String("error", err.Error()))
		return nil
	}
	return &runMetrics{runs: runs, duration: duration}
}

func (m *runMetrics) recordRun(ctx context.Context, stationID, outcome string, seconds float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("station", stationID),
		attribute.String("outcome", outcome),
	)
	m.runs.Add(ctx, 1, attrs)
	m.duration.Record(ctx, seconds, attrs)
}
