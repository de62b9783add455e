// Copyright 2026 © The Praxis Authors
// SPDX-License-Identifier: Apache-2.0

// Package lifecycle holds the agent state machine and the main loop that
// sequences planning, execution, and feedback into logged cycles.
package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jllopis/praxis/pkg/background"
	"github.com/jllopis/praxis/pkg/core"
	"github.com/jllopis/praxis/pkg/cyclelog"
	"github.com/jllopis/praxis/pkg/errors"
	"github.com/jllopis/praxis/pkg/metacog"
	"github.com/jllopis/praxis/pkg/queue"
	"github.com/jllopis/praxis/pkg/scheduler"
	"github.com/jllopis/praxis/pkg/statechan"
	"github.com/jllopis/praxis/pkg/telemetry"
)

// Config paces the main loop.
type Config struct {
	// IdleWait bounds how long the loop sleeps when no event is due
	// before re-checking commands.
	IdleWait time.Duration `koanf:"idle_wait"`

	// SweepInterval is the cadence of the queue's timed expiry sweep.
	SweepInterval time.Duration `koanf:"sweep_interval"`

	// RecentCycles bounds how much history rides along in the published
	// snapshot.
	RecentCycles int `koanf:"recent_cycles"`
}

// DefaultConfig returns the default pacing.
func DefaultConfig() Config {
	return Config{
		IdleWait:      250 * time.Millisecond,
		SweepInterval: 5 * time.Second,
		RecentCycles:  10,
	}
}

// Deps are the controller's wiring. Planner, Executor, and Evaluator are
// required; Memory and Supervisor are optional.
type Deps struct {
	Queue      *queue.EventQueue
	Scheduler  *scheduler.Scheduler
	Log        *cyclelog.Logger
	Monitor    *metacog.Monitor
	Channel    *statechan.Channel
	Supervisor *background.Supervisor

	Planner   core.Planner
	Executor  core.Executor
	Evaluator core.Evaluator
	Memory    core.Memory
}

// Controller runs the agent lifecycle. The main loop is single-threaded
// cooperative: exactly one cycle is in flight at a time, and collaborator
// calls are the only suspension points.
type Controller struct {
	cfg  Config
	deps Deps

	state               core.LifecycleState
	pendingIntervention *core.Intervention
	lastMonitoring      core.MonitoringState
	runID               string
	stats               statechan.RuntimeStats
	lastSweep           time.Time
	tracer              trace.Tracer
	log                 *slog.Logger
}

// New creates a controller in the stopped state. The process performs no
// work until a start command arrives.
func New(deps Deps, cfg Config) *Controller {
	def := DefaultConfig()
	if cfg.IdleWait <= 0 {
		cfg.IdleWait = def.IdleWait
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = def.SweepInterval
	}
	if cfg.RecentCycles <= 0 {
		cfg.RecentCycles = def.RecentCycles
	}
	return &Controller{
		cfg:    cfg,
		deps:   deps,
		state:  core.StateStopped,
		tracer: otel.Tracer("praxis/lifecycle"),
		log:    slog.Default(),
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() core.LifecycleState {
	return c.state
}

// Run drives the loop until ctx is cancelled. Commands are drained one at
// a time at the top of every iteration; stop is cooperative and observed
// there, never mid-cycle.
func (c *Controller) Run(ctx context.Context) error {
	initLifecycleMetrics()
	if id, ok := core.RunID(ctx); ok {
		c.runID = id
		c.log = c.log.With(slog.String("run_id", id))
	}
	c.log.Info("lifecycle.run.start")
	c.publish()
	for {
		select {
		case <-ctx.Done():
			c.log.Info("lifecycle.run.stop")
			c.publish()
			return nil
		default:
		}

		c.drainCommands(ctx)

		if c.state != core.StateRunning {
			c.idle(ctx)
			continue
		}

		now := time.Now()
		c.deps.Scheduler.Tick(now)
		if now.Sub(c.lastSweep) >= c.cfg.SweepInterval {
			c.deps.Queue.SweepExpired(now)
			c.lastSweep = now
		}

		event, ok := c.deps.Queue.Dequeue()
		if !ok {
			c.publish()
			c.idle(ctx)
			continue
		}
		c.runCycle(ctx, event)
		c.publish()
	}
}

// drainCommands applies every pending command in arrival order. Invalid
// transitions are reported and ignored, never fatal.
func (c *Controller) drainCommands(ctx context.Context) {
	for {
		cmd, ok := c.deps.Channel.NextCommand()
		if !ok {
			return
		}
		c.applyCommand(ctx, cmd)
		c.publish()
	}
}

func (c *Controller) applyCommand(ctx context.Context, cmd core.Command) {
	log := c.log.With(slog.String("command", string(cmd.Kind)), slog.String("state", string(c.state)))
	switch cmd.Kind {
	case core.CommandStart:
		if c.state != core.StateStopped && c.state != core.StateError {
			log.Warn("lifecycle.command.invalid")
			return
		}
		if c.state == core.StateError {
			// Leaving the error state requires the shared-state store to
			// be writable again.
			if err := c.deps.Channel.Validate(); err != nil {
				log.Error("lifecycle.recovery.store_unavailable",
					slog.String("error", err.Error()),
				)
				return
			}
		}
		c.state = core.StateRunning
		c.stats.StartedAt = time.Now().UTC()
		c.deps.Queue.Resume()
		log.Info("lifecycle.transition", slog.String("to", string(c.state)))
	case core.CommandStop:
		if c.state != core.StateRunning && c.state != core.StatePaused {
			log.Warn("lifecycle.command.invalid")
			return
		}
		c.state = core.StateStopped
		log.Info("lifecycle.transition", slog.String("to", string(c.state)))
	case core.CommandPause:
		if c.state != core.StateRunning {
			log.Warn("lifecycle.command.invalid")
			return
		}
		c.pause("pause command")
	case core.CommandResume:
		if c.state != core.StatePaused {
			log.Warn("lifecycle.command.invalid")
			return
		}
		// Resuming while paused on a handoff is the operator's answer:
		// close the pending request and drop the stale intervention so
		// the next planning input starts clean.
		if c.deps.Monitor.Handoff().PendingRequests > 0 {
			c.deps.Monitor.RespondHandoff()
			if c.pendingIntervention != nil && c.pendingIntervention.Type == core.InterventionHumanHandoff {
				c.pendingIntervention = nil
			}
			log.Info("lifecycle.handoff.resolved")
		}
		c.state = core.StateRunning
		c.deps.Queue.Resume()
		log.Info("lifecycle.transition", slog.String("to", string(c.state)))
	case core.CommandExecuteAction:
		// Manual execution bypasses planning but still runs the rest of
		// the cycle. Allowed in any non-stopped state.
		if c.state == core.StateStopped {
			log.Warn("lifecycle.command.invalid")
			return
		}
		action := core.Action{Kind: cmd.Action, Params: cmd.Params}
		c.runManualCycle(ctx, action)
	default:
		log.Warn("lifecycle.command.unknown")
	}
}

// pause moves to the paused state and stops pulling events. Producers keep
// enqueueing; this is the backpressure mechanism.
func (c *Controller) pause(reason string) {
	c.state = core.StatePaused
	c.deps.Queue.Pause()
	c.log.Info("lifecycle.transition",
		slog.String("to", string(c.state)),
		slog.String("reason", reason),
	)
}

// fail moves to the error state. Only a manual start command recovers.
func (c *Controller) fail(err error) {
	c.state = core.StateError
	c.log.Error("lifecycle.fatal",
		slog.String("error", err.Error()),
	)
}

func (c *Controller) idle(ctx context.Context) {
	timer := time.NewTimer(c.cfg.IdleWait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// runCycle performs one full planned cycle for a dequeued event.
func (c *Controller) runCycle(ctx context.Context, event core.Event) {
	ctx, span := c.tracer.Start(ctx, "Lifecycle.Cycle",
		trace.WithAttributes(telemetry.EventAttributes(event.ID, event.Type, event.Priority.String())...),
	)
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.AttrAgentState, string(c.state)))
	if c.runID != "" {
		span.SetAttributes(attribute.String(telemetry.AttrAgentRunID, c.runID))
	}
	cycleStart := time.Now()

	record := core.CycleRecord{
		PlanningInputState: string(c.state),
	}

	input := core.PlanInput{
		State:        c.state,
		RecentCycles: c.deps.Log.Recent(c.deps.Monitor.WindowSize()),
		Intervention: c.pendingIntervention,
	}
	c.pendingIntervention = nil
	for _, rec := range input.RecentCycles {
		record.PlanningRecentKinds = append(record.PlanningRecentKinds, rec.SelectedAction.Kind)
	}

	planStart := time.Now()
	action, reasoning, err := c.deps.Planner.Plan(ctx, input)
	record.PlanningDuration = time.Since(planStart)
	record.PlanningReasoning = reasoning
	record.SelectedAction = action
	if err != nil {
		// A planning failure is a failed cycle, not a retry: the loop
		// moves on to the next due event.
		record.ExecutionError = errors.AsPraxisError(err).Error()
		span.RecordError(err)
		c.finishCycle(ctx, record, cycleStart, true)
		return
	}

	c.executeAndEvaluate(ctx, &record, event.Payload)
	c.finishCycle(ctx, record, cycleStart, true)
}

// runManualCycle executes a single externally supplied action without
// consulting the planner.
func (c *Controller) runManualCycle(ctx context.Context, action core.Action) {
	ctx, span := c.tracer.Start(ctx, "Lifecycle.ManualCycle", trace.WithAttributes(
		attribute.String(telemetry.AttrActionKind, action.Kind),
	))
	defer span.End()
	cycleStart := time.Now()

	record := core.CycleRecord{
		PlanningInputState: string(c.state),
		SelectedAction:     action,
		PlanningReasoning:  "manual execution",
	}
	c.executeAndEvaluate(ctx, &record, action.Params)
	c.finishCycle(ctx, record, cycleStart, false)
}

func (c *Controller) executeAndEvaluate(ctx context.Context, record *core.CycleRecord, payload map[string]any) {
	execStart := time.Now()
	outcome, err := c.deps.Executor.Execute(ctx, record.SelectedAction, payload)
	record.ExecutionDuration = time.Since(execStart)
	if err != nil {
		outcome = core.Outcome{Success: false, Error: err.Error()}
	}
	record.ExecutionSuccess = outcome.Success
	record.ExecutionError = outcome.Error
	record.ExecutionResult = outcome.Result
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int64(telemetry.AttrActionDurationMs, record.ExecutionDuration.Milliseconds()),
	)

	evaluation, err := c.deps.Evaluator.Evaluate(ctx, record.SelectedAction, outcome)
	if err != nil {
		c.log.Warn("lifecycle.feedback.error",
			slog.String("action", record.SelectedAction.Kind),
			slog.String("error", err.Error()),
		)
	}
	record.Reward = evaluation.Reward
	record.Critique = evaluation.Critique
	record.LessonLearned = evaluation.Lesson
}

// finishCycle logs the record, notifies memory, and consults the monitor.
// An intervention augments the next planning input; it never preempts.
func (c *Controller) finishCycle(ctx context.Context, record core.CycleRecord, cycleStart time.Time, fromEvent bool) {
	record.TotalDuration = time.Since(cycleStart)
	record.AgentStateAfter = c.state
	stored := c.deps.Log.Append(ctx, record)

	c.stats.CyclesTotal++
	if fromEvent {
		c.stats.EventsProcessed++
	}
	if !stored.ExecutionSuccess {
		c.stats.EventsFailed++
	}
	trace.SpanFromContext(ctx).SetAttributes(
		telemetry.CycleAttributes(stored.CycleID, stored.SelectedAction.Kind,
			stored.ExecutionSuccess, stored.Reward)...,
	)
	observeCycle(ctx, stored)

	if c.deps.Memory != nil {
		summary := core.CycleSummary{
			CycleID:    stored.CycleID,
			ActionKind: stored.SelectedAction.Kind,
			Success:    stored.ExecutionSuccess,
			Reward:     stored.Reward,
			Lesson:     stored.LessonLearned,
		}
		// Fire and forget: the main loop never blocks on memory writes.
		go func() {
			if err := c.deps.Memory.Store(context.WithoutCancel(ctx), summary); err != nil {
				c.log.Warn("lifecycle.memory.store.error",
					slog.Uint64("cycle_id", summary.CycleID),
					slog.String("error", err.Error()),
				)
			}
		}()
	}

	intervention, monitoring := c.deps.Monitor.Evaluate(c.deps.Log.Recent(c.deps.Monitor.WindowSize()))
	c.lastMonitoring = monitoring
	if intervention == nil {
		return
	}
	c.pendingIntervention = intervention
	c.stats.InterventionsApplied++
	trace.SpanFromContext(ctx).AddEvent("intervention",
		trace.WithAttributes(telemetry.InterventionAttributes(string(intervention.Type), intervention.Reason)...),
	)
	if intervention.Type == core.InterventionHumanHandoff {
		// Spending cycles against an unanswered handoff wastes them.
		c.pause("human handoff pending")
	}
	c.log.Info("lifecycle.intervention.pending",
		slog.String("type", string(intervention.Type)),
		slog.String("reason", intervention.Reason),
	)
}

// publish pushes a fresh snapshot through the shared state channel. A
// store that stops accepting writes is the one fatal error class: the
// controller parks in the error state until a start command revalidates.
func (c *Controller) publish() {
	snapshot := statechan.Snapshot{
		LifecycleState: c.state,
		Runtime:        c.runtimeStats(),
		Queue:          c.deps.Queue.Stats(),
		Scheduler:      c.deps.Scheduler.Stats(),
		Monitoring:     c.lastMonitoring,
		Predictor:      c.deps.Monitor.PredictorStats(),
		Handoff:        c.deps.Monitor.Handoff(),
		RecentCycles:   c.deps.Log.Recent(c.cfg.RecentCycles),
	}
	if c.deps.Supervisor != nil {
		snapshot.Background = c.deps.Supervisor.Stats()
	}
	if err := c.deps.Channel.Publish(snapshot); err != nil {
		if c.state != core.StateError {
			c.fail(errors.New(errors.CodeStateChannel, "snapshot publish failed", err))
		}
	}
}

func (c *Controller) runtimeStats() statechan.RuntimeStats {
	stats := c.stats
	if !stats.StartedAt.IsZero() && c.state == core.StateRunning {
		stats.UptimeSeconds = time.Since(stats.StartedAt).Seconds()
	}
	return stats
}
