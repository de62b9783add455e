package memory

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jllopis/praxis/pkg/telemetry"
)

var (
	memoryMetricsOnce sync.Once
	storedCounter     metric.Int64Counter
	parkedCounter     metric.Int64Counter
)

func initMemoryMetrics() {
	memoryMetricsOnce.Do(func() {
		meter := otel.Meter("praxis/memory")
		storedCounter, _ = meter.Int64Counter("praxis.memory.stored.count")
		parkedCounter, _ = meter.Int64Counter("praxis.memory.parked.count")
	})
}

func observeStored(ctx context.Context, collection string, n int, stored bool) {
	if storedCounter == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(telemetry.AttrMemoryCollection, collection),
		attribute.Bool(telemetry.AttrMemoryStored, stored),
	)
	if stored {
		storedCounter.Add(ctx, int64(n), attrs)
		return
	}
	parkedCounter.Add(ctx, int64(n), attrs)
}
