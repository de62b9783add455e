// Copyright 2026 © The Praxis Authors
// SPDX-License-Identifier: Apache-2.0

// Package cyclelog is the append-only record of completed runtime cycles.
// It is the sole source of truth for history-dependent decisions: the
// metacognition monitor and the dashboards both read from here.
package cyclelog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jllopis/praxis/pkg/core"
)

const defaultWindowSize = 256

// Logger keeps an in-memory trailing window of cycle records and writes
// every record through to a Store. The lifecycle controller is the only
// writer; readers see a consistent prefix because appends happen strictly
// between cycles.
type Logger struct {
	mu     sync.RWMutex
	window []core.CycleRecord
	limit  int
	store  Store

	nextID   uint64
	lastTime time.Time
}

// LoggerOption configures a Logger.
type LoggerOption func(*Logger)

// WithWindowSize bounds the in-memory trailing window.
func WithWindowSize(n int) LoggerOption {
	return func(l *Logger) {
		if n > 0 {
			l.limit = n
		}
	}
}

// NewLogger creates a logger writing through to store. A nil store keeps
// records only in the trailing window.
func NewLogger(store Store, opts ...LoggerOption) *Logger {
	l := &Logger{
		limit:  defaultWindowSize,
		store:  store,
		nextID: 1,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append assigns the next cycle id and a monotonically non-decreasing
// timestamp, then records the cycle. The returned record is the one stored.
// Store failures are logged, not returned: losing durable history must not
// fail the cycle that produced it.
func (l *Logger) Append(ctx context.Context, record core.CycleRecord) core.CycleRecord {
	l.mu.Lock()
	record.CycleID = l.nextID
	l.nextID++
	now := time.Now().UTC()
	if now.Before(l.lastTime) {
		now = l.lastTime
	}
	l.lastTime = now
	record.Timestamp = now

	l.window = append(l.window, record)
	if len(l.window) > l.limit {
		l.window = l.window[len(l.window)-l.limit:]
	}
	store := l.store
	l.mu.Unlock()

	if store != nil {
		if err := store.Append(ctx, record); err != nil {
			slog.Default().Warn("cyclelog.store.append.error",
				slog.Uint64("cycle_id", record.CycleID),
				slog.String("error", err.Error()),
			)
		}
	}
	return record
}

// Recent returns up to n most recent records, oldest first.
func (l *Logger) Recent(n int) []core.CycleRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n <= 0 || n > len(l.window) {
		n = len(l.window)
	}
	out := make([]core.CycleRecord, n)
	copy(out, l.window[len(l.window)-n:])
	return out
}

// Len returns the number of records in the trailing window.
func (l *Logger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.window)
}

// LastCycleID returns the id of the most recently appended cycle, or zero.
func (l *Logger) LastCycleID() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.nextID - 1
}
