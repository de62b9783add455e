package queue

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	queueMetricsOnce sync.Once
	enqueuedCounter  metric.Int64Counter
	dequeuedCounter  metric.Int64Counter
	expiredCounter   metric.Int64Counter
)

func initQueueMetrics() {
	queueMetricsOnce.Do(func() {
		meter := otel.Meter("praxis/queue")
		enqueuedCounter, _ = meter.Int64Counter("praxis.queue.enqueued.count")
		dequeuedCounter, _ = meter.Int64Counter("praxis.queue.dequeued.count")
		expiredCounter, _ = meter.Int64Counter("praxis.queue.expired.count")
	})
}
