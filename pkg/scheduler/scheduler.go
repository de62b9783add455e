// Copyright 2026 © The Praxis Authors
// SPDX-License-Identifier: Apache-2.0

// Package scheduler holds timed tasks and promotes them into the event
// queue when due. It is driven by the lifecycle loop's tick, never by its
// own timer, so all time-based behavior stays deterministic.
package scheduler

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jllopis/praxis/pkg/core"
)

// Enqueuer is the slice of the event queue the scheduler needs.
type Enqueuer interface {
	Enqueue(event core.Event) string
}

// Task is a registered one-shot or recurring entry. Owned exclusively by
// the scheduler; mutated in place on each trigger.
type Task struct {
	Name      string
	NextRunAt time.Time
	Interval  time.Duration // zero means one-shot
	EventType string
	Priority  core.Priority
	Payload   map[string]any
	RunCount  uint64
}

// Stats is a snapshot of scheduler counters.
type Stats struct {
	TasksScheduled int       `yaml:"tasks_scheduled"`
	TasksExecuted  uint64    `yaml:"tasks_executed"`
	NextTask       string    `yaml:"next_task,omitempty"`
	NextRunAt      time.Time `yaml:"next_run_at,omitempty"`
}

// Scheduler promotes due tasks into the event queue on each tick.
type Scheduler struct {
	mu       sync.Mutex
	tasks    map[string]*Task
	queue    Enqueuer
	executed uint64
}

// New creates a scheduler that enqueues into the given queue.
func New(queue Enqueuer) *Scheduler {
	initSchedulerMetrics()
	return &Scheduler{
		tasks: make(map[string]*Task),
		queue: queue,
	}
}

// Register adds a task. Registering an existing name replaces the entry, so
// re-registration on agent restart is idempotent. A zero interval makes the
// task one-shot.
func (s *Scheduler) Register(task Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := task
	s.tasks[task.Name] = &t
	slog.Default().Debug("scheduler.task.registered",
		slog.String("task", task.Name),
		slog.Duration("interval", task.Interval),
		slog.Time("next_run_at", task.NextRunAt),
	)
}

// Cancel removes a task by name. It reports whether the task existed.
func (s *Scheduler) Cancel(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[name]; !ok {
		return false
	}
	delete(s.tasks, name)
	return true
}

// Tick fires every task due at now, at most once per task per tick.
// Recurring tasks advance next_run_at by interval from the previous
// next_run_at, not from now, so late ticks never accumulate drift: a task
// that fell behind stays due and fires again on the following tick.
func (s *Scheduler) Tick(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	fired := 0
	for name, task := range s.tasks {
		if task.NextRunAt.After(now) {
			continue
		}
		ev := core.NewEvent(task.EventType, task.Priority, clonePayload(task.Payload))
		s.queue.Enqueue(ev)
		task.RunCount++
		s.executed++
		fired++
		observeTaskFired(name, task.RunCount)
		slog.Default().Debug("scheduler.task.fired",
			slog.String("task", name),
			slog.String("event_type", task.EventType),
			slog.Uint64("run_count", task.RunCount),
		)
		if task.Interval <= 0 {
			delete(s.tasks, name)
			continue
		}
		task.NextRunAt = task.NextRunAt.Add(task.Interval)
	}
	return fired
}

// Stats returns a snapshot of scheduler counters and the nearest task.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := Stats{
		TasksScheduled: len(s.tasks),
		TasksExecuted:  s.executed,
	}
	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		task := s.tasks[name]
		if stats.NextTask == "" || task.NextRunAt.Before(stats.NextRunAt) {
			stats.NextTask = name
			stats.NextRunAt = task.NextRunAt
		}
	}
	return stats
}

// Snapshot returns a copy of all registered tasks, sorted by name.
func (s *Scheduler) Snapshot() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		out = append(out, *task)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func clonePayload(payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	return out
}
