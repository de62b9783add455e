// Copyright 2026 © The Praxis Authors
// SPDX-License-Identifier: Apache-2.0

// Package queue implements the priority-ordered event buffer that feeds the
// lifecycle controller.
package queue

import (
	"container/heap"
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jllopis/praxis/pkg/core"
)

// Stats is a point-in-time snapshot of queue counters.
type Stats struct {
	Size          int            `yaml:"size"`
	TotalEnqueued uint64         `yaml:"total_enqueued"`
	TotalDequeued uint64         `yaml:"total_dequeued"`
	TotalExpired  uint64         `yaml:"total_expired"`
	Paused        bool           `yaml:"paused"`
	ByPriority    map[string]int `yaml:"by_priority"`
	ByType        map[string]int `yaml:"by_type"`
}

// EventQueue is a strict-priority, FIFO-within-tier event buffer. Dequeue on
// an empty or paused queue is a normal outcome, not a failure; pausing stops
// consumption while leaving producers unblocked.
type EventQueue struct {
	mu     sync.Mutex
	heap   eventHeap
	seq    uint64
	paused bool

	totalEnqueued uint64
	totalDequeued uint64
	totalExpired  uint64
}

// New creates an empty event queue.
func New() *EventQueue {
	return &EventQueue{}
}

// Enqueue inserts the event and returns its id. Enqueue always succeeds,
// paused or not.
func (q *EventQueue) Enqueue(event core.Event) string {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.seq++
	heap.Push(&q.heap, &queuedEvent{event: event, seq: q.seq})
	q.totalEnqueued++
	initQueueMetrics()
	enqueuedCounter.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("event.type", event.Type),
		attribute.String("event.priority", event.Priority.String()),
	))
	return event.ID
}

// Dequeue removes and returns the highest-priority event. The second return
// is false when the queue is empty or paused. Expired events found on the
// way out are swept, counted, and never delivered.
func (q *EventQueue) Dequeue() (core.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.paused {
		return core.Event{}, false
	}
	now := time.Now()
	for q.heap.Len() > 0 {
		qe := heap.Pop(&q.heap).(*queuedEvent)
		if qe.event.Expired(now) {
			q.expireLocked(qe.event)
			continue
		}
		q.totalDequeued++
		initQueueMetrics()
		dequeuedCounter.Add(context.Background(), 1, metric.WithAttributes(
			attribute.String("event.type", qe.event.Type),
		))
		return qe.event, true
	}
	return core.Event{}, false
}

// Pause stops Dequeue from returning events. Enqueue keeps working.
func (q *EventQueue) Pause() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.paused = true
}

// Resume re-enables Dequeue. Ordering of events enqueued while paused is
// preserved.
func (q *EventQueue) Resume() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.paused = false
}

// Cancel removes a pending event by id. It reports whether the event was
// found and removed.
func (q *EventQueue) Cancel(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, qe := range q.heap {
		if qe.event.ID == id {
			heap.Remove(&q.heap, i)
			return true
		}
	}
	return false
}

// SweepExpired removes every event whose deadline has passed, counting each
// exactly once in total_expired. The lifecycle loop calls this on a fixed
// cadence in addition to the lazy sweep in Dequeue.
func (q *EventQueue) SweepExpired(now time.Time) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	swept := 0
	for i := 0; i < q.heap.Len(); {
		if q.heap[i].event.Expired(now) {
			qe := heap.Remove(&q.heap, i).(*queuedEvent)
			q.expireLocked(qe.event)
			swept++
			continue
		}
		i++
	}
	return swept
}

// Stats returns a snapshot of queue counters.
func (q *EventQueue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	byPriority := make(map[string]int)
	byType := make(map[string]int)
	for _, qe := range q.heap {
		byPriority[qe.event.Priority.String()]++
		byType[qe.event.Type]++
	}
	return Stats{
		Size:          q.heap.Len(),
		TotalEnqueued: q.totalEnqueued,
		TotalDequeued: q.totalDequeued,
		TotalExpired:  q.totalExpired,
		Paused:        q.paused,
		ByPriority:    byPriority,
		ByType:        byType,
	}
}

func (q *EventQueue) expireLocked(event core.Event) {
	q.totalExpired++
	initQueueMetrics()
	expiredCounter.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("event.type", event.Type),
	))
	slog.Default().Debug("queue.event.expired",
		slog.String("event_id", event.ID),
		slog.String("event_type", event.Type),
	)
}

// queuedEvent pairs an event with its insertion sequence number. The
// sequence is the FIFO tiebreaker within a priority tier.
type queuedEvent struct {
	event core.Event
	seq   uint64
}

type eventHeap []*queuedEvent

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].event.Priority != h[j].event.Priority {
		return h[i].event.Priority > h[j].event.Priority
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(*queuedEvent)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
