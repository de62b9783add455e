// Copyright 2026 © The Praxis Authors
// SPDX-License-Identifier: Apache-2.0

// Package background runs long-lived maintenance loops outside the main
// cycle. Each loop is isolated: a failing maintenance task never stops
// agent cycles, and a stuck main loop never stops maintenance.
package background

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jllopis/praxis/pkg/core"
)

// ProcessState describes a background loop's condition.
type ProcessState string

const (
	ProcessIdle    ProcessState = "idle"
	ProcessRunning ProcessState = "running"
	ProcessError   ProcessState = "error"
	ProcessStopped ProcessState = "stopped"
)

// FailurePolicy decides what an iteration failure does to its loop.
type FailurePolicy int

const (
	// PolicyTransient keeps looping after a failure. This is the default:
	// most maintenance errors (a flaky store, a timeout) clear on retry.
	PolicyTransient FailurePolicy = iota

	// PolicyFatal halts the loop on first failure and parks the record in
	// the error state. Other loops are unaffected.
	PolicyFatal
)

// LoopFunc is one iteration of a maintenance loop.
type LoopFunc func(ctx context.Context) error

// ProcessRecord is the observable state of one registered loop. Mutated
// only by its own goroutine, read by anyone through Stats.
type ProcessRecord struct {
	Name           string       `yaml:"name"`
	State          ProcessState `yaml:"state"`
	IterationCount uint64       `yaml:"iteration_count"`
	ErrorCount     uint64       `yaml:"error_count"`
	LastRunAt      time.Time    `yaml:"last_run_at,omitempty"`
	LastError      string       `yaml:"last_error,omitempty"`
}

// Stats is a snapshot over all registered loops.
type Stats struct {
	Processes    []ProcessRecord `yaml:"processes"`
	TotalRunning int             `yaml:"total_running"`
	TotalErrors  uint64          `yaml:"total_errors"`
}

type process struct {
	name     string
	interval time.Duration
	policy   FailurePolicy
	loop     LoopFunc

	mu     sync.Mutex
	record ProcessRecord
	cancel context.CancelFunc
	done   chan struct{}
}

// Supervisor owns a fixed set of maintenance loops, one goroutine each.
type Supervisor struct {
	mu        sync.Mutex
	processes map[string]*process
	started   bool
}

// Option configures a registered process.
type Option func(*process)

// WithInterval sets the pause between iterations. Default one minute.
func WithInterval(d time.Duration) Option {
	return func(p *process) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithFailurePolicy sets how iteration failures are handled.
func WithFailurePolicy(policy FailurePolicy) Option {
	return func(p *process) {
		p.policy = policy
	}
}

// NewSupervisor creates an empty supervisor.
func NewSupervisor() *Supervisor {
	return &Supervisor{processes: make(map[string]*process)}
}

// Register adds a maintenance loop under a unique name. Registration after
// StartAll does not start the loop until the next StartAll.
func (s *Supervisor) Register(name string, loop LoopFunc, opts ...Option) {
	p := &process{
		name:     name,
		interval: time.Minute,
		policy:   PolicyTransient,
		loop:     loop,
		record:   ProcessRecord{Name: name, State: ProcessIdle},
	}
	for _, opt := range opts {
		opt(p)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processes[name] = p
}

// StartAll launches every registered loop in its own goroutine.
func (s *Supervisor) StartAll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	initBackgroundMetrics()
	for _, p := range s.processes {
		s.startProcess(ctx, p)
	}
	slog.Default().Info("background.supervisor.start",
		slog.Int("processes", len(s.processes)),
	)
}

// StopAll cancels every loop and waits for each goroutine to exit.
func (s *Supervisor) StopAll() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	running := make([]*process, 0, len(s.processes))
	for _, p := range s.processes {
		running = append(running, p)
	}
	s.mu.Unlock()

	for _, p := range running {
		p.mu.Lock()
		cancel, done := p.cancel, p.done
		p.cancel, p.done = nil, nil
		p.mu.Unlock()
		if cancel == nil {
			continue
		}
		cancel()
		<-done
		p.setState(ProcessStopped)
	}
	slog.Default().Info("background.supervisor.stop")
}

// Stats returns a snapshot of every process record, sorted by name.
func (s *Supervisor) Stats() Stats {
	s.mu.Lock()
	processes := make([]*process, 0, len(s.processes))
	for _, p := range s.processes {
		processes = append(processes, p)
	}
	s.mu.Unlock()

	stats := Stats{Processes: make([]ProcessRecord, 0, len(processes))}
	for _, p := range processes {
		p.mu.Lock()
		record := p.record
		p.mu.Unlock()
		stats.Processes = append(stats.Processes, record)
		if record.State == ProcessRunning {
			stats.TotalRunning++
		}
		stats.TotalErrors += record.ErrorCount
	}
	sort.Slice(stats.Processes, func(i, j int) bool {
		return stats.Processes[i].Name < stats.Processes[j].Name
	})
	return stats
}

func (s *Supervisor) startProcess(parent context.Context, p *process) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	p.mu.Lock()
	p.cancel = cancel
	p.done = done
	p.record.State = ProcessRunning
	p.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		log := slog.Default()
		log.Info("background.process.start",
			slog.String("process", p.name),
			slog.Duration("interval", p.interval),
		)
		for {
			select {
			case <-ctx.Done():
				log.Info("background.process.stop", slog.String("process", p.name))
				return
			case <-ticker.C:
				if halted := p.runIteration(ctx, log); halted {
					return
				}
			}
		}
	}()
}

// runIteration executes one loop iteration, converting panics and errors
// into record state. It reports whether the loop must halt.
func (p *process) runIteration(ctx context.Context, log *slog.Logger) bool {
	start := time.Now()
	err := p.safeLoop(ctx)
	durationMs := float64(time.Since(start).Seconds() * 1000)

	iterationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("process", p.name),
	))
	iterationLatencyMs.Record(ctx, durationMs, metric.WithAttributes(
		attribute.String("process", p.name),
	))

	p.mu.Lock()
	p.record.IterationCount++
	p.record.LastRunAt = start.UTC()
	if err != nil {
		p.record.ErrorCount++
		p.record.LastError = err.Error()
	}
	halt := err != nil && p.policy == PolicyFatal
	if halt {
		p.record.State = ProcessError
	}
	p.mu.Unlock()

	if err != nil {
		errorCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("process", p.name),
		))
		log.Warn("background.process.iteration.error",
			slog.String("process", p.name),
			slog.Float64("duration_ms", durationMs),
			slog.Bool("halted", halt),
			slog.String("error", err.Error()),
		)
		return halt
	}
	log.Debug("background.process.iteration",
		slog.String("process", p.name),
		slog.Float64("duration_ms", durationMs),
	)
	return false
}

func (p *process) safeLoop(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return p.loop(ctx)
}

func (p *process) setState(state ProcessState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.record.State != ProcessError {
		p.record.State = state
	}
}

// ConsolidationLoop builds a LoopFunc that invokes the memory
// collaborator's consolidation pass. Failures are returned as-is and land
// in the process record; the main loop never sees them.
func ConsolidationLoop(mem core.Memory) LoopFunc {
	return func(ctx context.Context) error {
		return mem.Consolidate(ctx)
	}
}
