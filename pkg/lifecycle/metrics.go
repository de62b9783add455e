package lifecycle

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jllopis/praxis/pkg/core"
	"github.com/jllopis/praxis/pkg/telemetry"
)

var (
	lifecycleMetricsOnce sync.Once
	cycleCounter         metric.Int64Counter
	cycleFailureCounter  metric.Int64Counter
	cycleDuration        metric.Float64Histogram
	planningDuration     metric.Float64Histogram
	executionDuration    metric.Float64Histogram
)

func initLifecycleMetrics() {
	lifecycleMetricsOnce.Do(func() {
		meter := otel.Meter("praxis/lifecycle")
		cycleCounter, _ = meter.Int64Counter("praxis.lifecycle.cycle.count")
		cycleFailureCounter, _ = meter.Int64Counter("praxis.lifecycle.cycle.failure.count")
		cycleDuration, _ = meter.Float64Histogram("praxis.lifecycle.cycle.duration",
			metric.WithUnit("s"))
		planningDuration, _ = meter.Float64Histogram("praxis.lifecycle.planning.duration",
			metric.WithUnit("s"))
		executionDuration, _ = meter.Float64Histogram("praxis.lifecycle.execution.duration",
			metric.WithUnit("s"))
	})
}

func observeCycle(ctx context.Context, record core.CycleRecord) {
	if cycleCounter == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(telemetry.AttrActionKind, record.SelectedAction.Kind),
		attribute.Bool(telemetry.AttrCycleSuccess, record.ExecutionSuccess),
	)
	cycleCounter.Add(ctx, 1, attrs)
	if !record.ExecutionSuccess {
		cycleFailureCounter.Add(ctx, 1, attrs)
	}
	cycleDuration.Record(ctx, record.TotalDuration.Seconds(), attrs)
	planningDuration.Record(ctx, record.PlanningDuration.Seconds(), attrs)
	executionDuration.Record(ctx, record.ExecutionDuration.Seconds(), attrs)
}
