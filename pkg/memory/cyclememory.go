// Copyright 2026 © The Praxis Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jllopis/praxis/pkg/core"
	"github.com/jllopis/praxis/pkg/errors"
	"github.com/jllopis/praxis/pkg/resilience"
)

// CycleMemory adapts a vector store and an embedder to the runtime's
// memory contract. Failed writes are parked and flushed by Consolidate,
// which runs as a background maintenance loop.
type CycleMemory struct {
	store      VectorStore
	embedder   Embedder
	collection string
	retry      resilience.RetryConfig
	timeout    resilience.TimeoutConfig

	mu      sync.Mutex
	pending []Point
}

// CycleMemoryOption configures a CycleMemory.
type CycleMemoryOption func(*CycleMemory)

// WithRetry overrides the upsert retry policy.
func WithRetry(rc resilience.RetryConfig) CycleMemoryOption {
	return func(m *CycleMemory) { m.retry = rc }
}

// WithEmbedTimeout bounds each embedding call.
func WithEmbedTimeout(d time.Duration) CycleMemoryOption {
	return func(m *CycleMemory) { m.timeout = resilience.TimeoutConfig{Duration: d} }
}

// NewCycleMemory creates a memory over the given backend and embedder.
func NewCycleMemory(store VectorStore, embedder Embedder, collection string, opts ...CycleMemoryOption) *CycleMemory {
	m := &CycleMemory{
		store:      store,
		embedder:   embedder,
		collection: collection,
		retry:      resilience.DefaultRetryConfig(),
		timeout:    resilience.TimeoutConfig{Duration: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(m)
	}
	initMemoryMetrics()
	return m
}

// EnsureCollection creates the backing collection for the given vector
// size. Safe to call on every startup.
func (m *CycleMemory) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	if err := m.store.CreateCollection(ctx, m.collection, vectorSize); err != nil {
		return errors.New(errors.CodeMemoryError, "create collection failed", err).
			WithContext("collection", m.collection)
	}
	return nil
}

// Store embeds a cycle summary and upserts it. On persistent failure the
// point is parked for the next Consolidate and the error is returned; the
// caller logs it and moves on.
func (m *CycleMemory) Store(ctx context.Context, summary core.CycleSummary) error {
	vec, err := resilience.WithTimeoutResult(ctx, m.timeout, func() ([]float32, error) {
		return m.embedder.Embed(ctx, summaryText(summary))
	})
	if err != nil {
		return errors.New(errors.CodeMemoryError, "embedding failed", err).
			WithContext("cycle_id", summary.CycleID).
			WithRecoverable(true)
	}

	point := Point{
		ID:     uuid.NewString(),
		Vector: vec,
		Payload: map[string]interface{}{
			"cycle_id": int64(summary.CycleID),
			"action":   summary.ActionKind,
			"success":  fmt.Sprintf("%t", summary.Success),
			"reward":   summary.Reward,
			"lesson":   summary.Lesson,
		},
		Timestamp: time.Now().UnixNano(),
	}

	err = m.retry.Do(ctx, func() error {
		return m.store.Upsert(ctx, m.collection, []Point{point})
	})
	if err != nil {
		m.mu.Lock()
		m.pending = append(m.pending, point)
		m.mu.Unlock()
		observeStored(ctx, m.collection, 1, false)
		return errors.New(errors.CodeMemoryError, "upsert failed, point parked", err).
			WithContext("cycle_id", summary.CycleID).
			WithRecoverable(true)
	}
	observeStored(ctx, m.collection, 1, true)
	return nil
}

// Consolidate flushes parked points. It is the body of the runtime's
// memory maintenance background process.
func (m *CycleMemory) Consolidate(ctx context.Context) error {
	m.mu.Lock()
	parked := m.pending
	m.pending = nil
	m.mu.Unlock()

	if len(parked) == 0 {
		return nil
	}
	if err := m.store.Upsert(ctx, m.collection, parked); err != nil {
		m.mu.Lock()
		m.pending = append(parked, m.pending...)
		m.mu.Unlock()
		return errors.New(errors.CodeMemoryError, "consolidate flush failed", err).
			WithContext("parked", len(parked)).
			WithRecoverable(true)
	}
	observeStored(ctx, m.collection, len(parked), true)
	slog.Default().Info("memory.consolidate.flushed",
		slog.Int("points", len(parked)),
	)
	return nil
}

// Recall returns the stored experiences nearest to the query text.
func (m *CycleMemory) Recall(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	vec, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return nil, errors.New(errors.CodeMemoryError, "query embedding failed", err)
	}
	return m.store.Search(ctx, m.collection, vec, limit, 0)
}

// Pending returns how many points await consolidation.
func (m *CycleMemory) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

func summaryText(s core.CycleSummary) string {
	status := "succeeded"
	if !s.Success {
		status = "failed"
	}
	text := fmt.Sprintf("action %s %s with reward %.2f", s.ActionKind, status, s.Reward)
	if s.Lesson != "" {
		text += ": " + s.Lesson
	}
	return text
}
