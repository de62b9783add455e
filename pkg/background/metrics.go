package background

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	backgroundMetricsOnce sync.Once
	iterationCounter      metric.Int64Counter
	errorCounter          metric.Int64Counter
	iterationLatencyMs    metric.Float64Histogram
)

func initBackgroundMetrics() {
	backgroundMetricsOnce.Do(func() {
		meter := otel.Meter("praxis/background")
		iterationCounter, _ = meter.Int64Counter("praxis.background.iteration.count")
		errorCounter, _ = meter.Int64Counter("praxis.background.iteration.error.count")
		iterationLatencyMs, _ = meter.Float64Histogram("praxis.background.iteration.latency_ms")
	})
}
