package scheduler

import (
	"testing"
	"time"

	"github.com/jllopis/praxis/pkg/core"
)

type captureQueue struct {
	events []core.Event
}

func (c *captureQueue) Enqueue(ev core.Event) string {
	c.events = append(c.events, ev)
	return ev.ID
}

func TestRecurringTaskNoDrift(t *testing.T) {
	q := &captureQueue{}
	s := New(q)
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	interval := 5 * time.Second
	s.Register(Task{
		Name:      "consolidate",
		NextRunAt: t0.Add(interval),
		Interval:  interval,
		EventType: "memory.consolidate",
		Priority:  core.PriorityLow,
	})

	// Each tick arrives later than scheduled; next_run_at must still
	// advance from the previous next_run_at, never from the tick time.
	lateness := []time.Duration{0, 700 * time.Millisecond, 2 * time.Second}
	for k, late := range lateness {
		s.Tick(t0.Add(time.Duration(k+1)*interval + late))
	}

	tasks := s.Snapshot()
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].RunCount != 3 {
		t.Fatalf("expected run_count 3, got %d", tasks[0].RunCount)
	}
	want := t0.Add(4 * interval)
	if !tasks[0].NextRunAt.Equal(want) {
		t.Fatalf("expected next_run_at %v, got %v", want, tasks[0].NextRunAt)
	}
	if len(q.events) != 3 {
		t.Fatalf("expected 3 enqueued events, got %d", len(q.events))
	}
}

func TestTickBeforeDueFiresNothing(t *testing.T) {
	q := &captureQueue{}
	s := New(q)
	t0 := time.Now()
	s.Register(Task{Name: "later", NextRunAt: t0.Add(time.Hour), EventType: "x"})
	if fired := s.Tick(t0); fired != 0 {
		t.Fatalf("expected no firings, got %d", fired)
	}
}

func TestOneShotRemovedAfterFiring(t *testing.T) {
	q := &captureQueue{}
	s := New(q)
	t0 := time.Now()
	s.Register(Task{Name: "once", NextRunAt: t0, EventType: "boot"})
	if fired := s.Tick(t0); fired != 1 {
		t.Fatalf("expected one firing, got %d", fired)
	}
	if fired := s.Tick(t0.Add(time.Hour)); fired != 0 {
		t.Fatalf("one-shot must not fire twice")
	}
	if got := s.Stats().TasksScheduled; got != 0 {
		t.Fatalf("one-shot must be removed, still have %d", got)
	}
}

func TestReRegisterReplaces(t *testing.T) {
	q := &captureQueue{}
	s := New(q)
	t0 := time.Now()
	s.Register(Task{Name: "job", NextRunAt: t0, Interval: time.Minute, EventType: "v1"})
	s.Register(Task{Name: "job", NextRunAt: t0, Interval: time.Minute, EventType: "v2"})
	s.Tick(t0)
	if len(q.events) != 1 {
		t.Fatalf("expected a single firing, got %d", len(q.events))
	}
	if q.events[0].Type != "v2" {
		t.Fatalf("expected replacement entry to fire, got %s", q.events[0].Type)
	}
}

func TestCancel(t *testing.T) {
	q := &captureQueue{}
	s := New(q)
	s.Register(Task{Name: "gone", NextRunAt: time.Now(), EventType: "x"})
	if !s.Cancel("gone") {
		t.Fatalf("expected cancel to succeed")
	}
	if s.Cancel("gone") {
		t.Fatalf("expected second cancel to miss")
	}
	if fired := s.Tick(time.Now().Add(time.Hour)); fired != 0 {
		t.Fatalf("cancelled task must not fire")
	}
}

func TestStatsNextTask(t *testing.T) {
	q := &captureQueue{}
	s := New(q)
	t0 := time.Now()
	s.Register(Task{Name: "b-later", NextRunAt: t0.Add(time.Hour), Interval: time.Hour, EventType: "x"})
	s.Register(Task{Name: "a-sooner", NextRunAt: t0.Add(time.Minute), Interval: time.Hour, EventType: "y"})
	stats := s.Stats()
	if stats.TasksScheduled != 2 {
		t.Fatalf("expected 2 tasks, got %d", stats.TasksScheduled)
	}
	if stats.NextTask != "a-sooner" {
		t.Fatalf("expected a-sooner next, got %s", stats.NextTask)
	}
}
