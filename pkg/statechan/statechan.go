// Copyright 2026 © The Praxis Authors
// SPDX-License-Identifier: Apache-2.0

// Package statechan is the cross-process boundary of the runtime: a
// snapshot the control surfaces read and a command stream they write. The
// agent process is the only snapshot writer and the only command consumer.
package statechan

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jllopis/praxis/pkg/background"
	"github.com/jllopis/praxis/pkg/core"
	"github.com/jllopis/praxis/pkg/metacog"
	"github.com/jllopis/praxis/pkg/queue"
	"github.com/jllopis/praxis/pkg/scheduler"
)

// RuntimeStats are the lifecycle controller's own counters.
type RuntimeStats struct {
	CyclesTotal          uint64    `yaml:"cycles_total"`
	EventsProcessed      uint64    `yaml:"events_processed"`
	EventsFailed         uint64    `yaml:"events_failed"`
	InterventionsApplied uint64    `yaml:"interventions_applied"`
	StartedAt            time.Time `yaml:"started_at,omitempty"`
	UptimeSeconds        float64   `yaml:"uptime_seconds"`
}

// Snapshot is the full observable state of the agent process. A snapshot
// is always fully applied or not yet applied, never a torn intermediate.
type Snapshot struct {
	LifecycleState core.LifecycleState    `yaml:"lifecycle_state"`
	UpdatedAt      time.Time              `yaml:"updated_at"`
	Runtime        RuntimeStats           `yaml:"runtime"`
	Queue          queue.Stats            `yaml:"queue"`
	Scheduler      scheduler.Stats        `yaml:"scheduler"`
	Background     background.Stats       `yaml:"background"`
	Monitoring     core.MonitoringState   `yaml:"monitoring"`
	Predictor      metacog.PredictorStats `yaml:"predictor"`
	Handoff        metacog.HandoffStats   `yaml:"handoff"`
	RecentCycles   []core.CycleRecord     `yaml:"recent_cycles,omitempty"`
}

// Transport persists snapshots and commands across the process boundary.
type Transport interface {
	WriteSnapshot(snapshot Snapshot) error
	ReadSnapshot() (Snapshot, bool, error)
	AppendCommand(cmd core.Command) error
	DrainCommand() (core.Command, bool, error)
}

// Channel is the agent-side endpoint. Publish and Snapshot are
// multiple-reader/single-writer; the command queue is multiple-writer/
// single-reader and drains exactly once per command.
type Channel struct {
	mu        sync.Mutex
	snapshot  Snapshot
	commands  []core.Command
	transport Transport
}

// New creates a channel. A nil transport keeps everything in memory,
// which is enough for tests and single-process embedding.
func New(transport Transport) *Channel {
	return &Channel{transport: transport}
}

// Publish atomically replaces the snapshot and writes it through to the
// transport. Transport failures are returned so the controller can treat a
// persistently unwritable store as fatal.
func (c *Channel) Publish(snapshot Snapshot) error {
	snapshot.UpdatedAt = time.Now().UTC()
	c.mu.Lock()
	c.snapshot = snapshot
	transport := c.transport
	c.mu.Unlock()

	if transport == nil {
		return nil
	}
	return transport.WriteSnapshot(snapshot)
}

// Snapshot returns the last published snapshot.
func (c *Channel) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// PushCommand enqueues a command from within the process.
func (c *Channel) PushCommand(cmd core.Command) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commands = append(c.commands, cmd)
}

// NextCommand removes and returns the oldest pending command, checking the
// in-process queue first and the transport spool second. Each command is
// delivered exactly once.
func (c *Channel) NextCommand() (core.Command, bool) {
	c.mu.Lock()
	if len(c.commands) > 0 {
		cmd := c.commands[0]
		c.commands = c.commands[1:]
		c.mu.Unlock()
		return cmd, true
	}
	transport := c.transport
	c.mu.Unlock()

	if transport == nil {
		return core.Command{}, false
	}
	cmd, ok, err := transport.DrainCommand()
	if err != nil {
		slog.Default().Warn("statechan.command.drain.error",
			slog.String("error", err.Error()),
		)
		return core.Command{}, false
	}
	return cmd, ok
}

// Validate probes the transport by writing the current snapshot back. The
// lifecycle controller calls this before leaving the error state.
func (c *Channel) Validate() error {
	c.mu.Lock()
	snapshot := c.snapshot
	transport := c.transport
	c.mu.Unlock()
	if transport == nil {
		return nil
	}
	return transport.WriteSnapshot(snapshot)
}
