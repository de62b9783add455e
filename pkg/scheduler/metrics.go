package scheduler

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/jllopis/praxis/pkg/telemetry"
)

var (
	schedulerMetricsOnce sync.Once
	firedCounter         metric.Int64Counter
)

func initSchedulerMetrics() {
	schedulerMetricsOnce.Do(func() {
		meter := otel.Meter("praxis/scheduler")
		firedCounter, _ = meter.Int64Counter("praxis.scheduler.task.fired.count")
	})
}

func observeTaskFired(name string, runCount uint64) {
	if firedCounter == nil {
		return
	}
	firedCounter.Add(context.Background(), 1,
		metric.WithAttributes(telemetry.TaskAttributes(name, runCount)...))
}
