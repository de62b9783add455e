// Copyright 2026 © The Praxis Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jllopis/praxis/pkg/background"
	"github.com/jllopis/praxis/pkg/config"
	"github.com/jllopis/praxis/pkg/core"
	"github.com/jllopis/praxis/pkg/cyclelog"
	"github.com/jllopis/praxis/pkg/lifecycle"
	"github.com/jllopis/praxis/pkg/memory"
	"github.com/jllopis/praxis/pkg/memory/ollama"
	"github.com/jllopis/praxis/pkg/memory/qdrant"
	"github.com/jllopis/praxis/pkg/metacog"
	"github.com/jllopis/praxis/pkg/queue"
	"github.com/jllopis/praxis/pkg/scheduler"
	"github.com/jllopis/praxis/pkg/statechan"
	"github.com/jllopis/praxis/pkg/telemetry"
)

const embeddingDimensions = 768

func runAgent(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config.yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		cfg     *config.Config
		watcher *config.Watcher
		err     error
	)
	if *configPath != "" {
		watcher, err = config.NewWatcher(*configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = watcher.Config()
	} else {
		cfg, err = config.Load("")
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	telemetry.ConfigureSlog(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	shutdown, err := telemetry.InitWithConfig("praxis", version, telemetry.Config{
		Exporter:     cfg.Telemetry.Exporter,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: cfg.Telemetry.OTLPInsecure,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			slog.Warn("telemetry.shutdown.error", slog.String("error", err.Error()))
		}
	}()

	ctx, runID := core.EnsureRunID(ctx)

	transport, err := statechan.NewFileTransport(cfg.StateChan.Dir)
	if err != nil {
		return fmt.Errorf("open state channel: %w", err)
	}
	channel := statechan.New(transport)

	eventQueue := queue.New()
	sched := scheduler.New(eventQueue)
	registerTasks(sched, cfg.Scheduler.Tasks)

	if watcher != nil {
		watcher.OnChange(func(next *config.Config) {
			telemetry.ConfigureSlog(os.Stderr, next.Log.Level, next.Log.Format)
			registerTasks(sched, next.Scheduler.Tasks)
		})
		watcher.Start(ctx)
		defer watcher.Stop()
	}

	var store cyclelog.Store
	if cfg.CycleLog.Path != "" {
		sqliteStore, err := cyclelog.OpenSQLiteStore(cfg.CycleLog.Path)
		if err != nil {
			return fmt.Errorf("open cycle store: %w", err)
		}
		defer sqliteStore.Close()
		store = sqliteStore
	}
	cycleLog := cyclelog.NewLogger(store, cyclelog.WithWindowSize(cfg.CycleLog.WindowSize))

	monitor := metacog.New(metacog.Config{
		WindowSize:              cfg.Metacog.WindowSize,
		MaxLoopLength:           cfg.Metacog.MaxLoopLength,
		MinRepetitions:          cfg.Metacog.MinRepetitions,
		RiskThreshold:           cfg.Metacog.RiskThreshold,
		ConsecutiveFailureLimit: cfg.Metacog.ConsecutiveFailureLimit,
		WaitSeconds:             cfg.Metacog.WaitSeconds,
	})

	supervisor := background.NewSupervisor()

	var mem core.Memory
	if cfg.Memory.Enabled {
		cycleMem, err := buildMemory(ctx, cfg.Memory)
		if err != nil {
			return fmt.Errorf("build memory: %w", err)
		}
		mem = cycleMem
		supervisor.Register("memory.consolidation",
			background.ConsolidationLoop(cycleMem),
			background.WithInterval(time.Minute),
			background.WithFailurePolicy(background.PolicyTransient),
		)
	}
	if store != nil {
		supervisor.Register("cyclelog.prune", pruneLoop(store), background.WithInterval(time.Hour))
	}

	executor, err := buildExecutor(ctx, cfg.Exec)
	if err != nil {
		return fmt.Errorf("build executor: %w", err)
	}

	controller := lifecycle.New(lifecycle.Deps{
		Queue:      eventQueue,
		Scheduler:  sched,
		Log:        cycleLog,
		Monitor:    monitor,
		Channel:    channel,
		Supervisor: supervisor,
		Planner:    newEventPlanner(),
		Executor:   executor,
		Evaluator:  newOutcomeEvaluator(),
		Memory:     mem,
	}, lifecycle.Config{
		IdleWait:      cfg.Runtime.IdleWait,
		SweepInterval: cfg.Runtime.SweepInterval,
		RecentCycles:  cfg.Runtime.RecentCycles,
	})

	supervisor.StartAll(ctx)
	defer supervisor.StopAll()

	slog.Info("praxis.run",
		slog.String("version", version),
		slog.String("run_id", runID),
		slog.String("state_dir", cfg.StateChan.Dir),
	)
	return controller.Run(ctx)
}

// registerTasks installs the configured timed tasks. Names are the
// registration key, so reloading the same schedule replaces entries in
// place instead of duplicating them.
func registerTasks(sched *scheduler.Scheduler, tasks []config.TaskConfig) {
	now := time.Now()
	for _, task := range tasks {
		if task.Name == "" || task.EventType == "" {
			slog.Warn("scheduler.task.skipped",
				slog.String("name", task.Name),
				slog.String("event_type", task.EventType),
			)
			continue
		}
		sched.Register(scheduler.Task{
			Name:      task.Name,
			NextRunAt: now.Add(task.FirstRunIn),
			Interval:  task.Interval,
			EventType: task.EventType,
			Priority:  core.ParsePriority(task.Priority),
			Payload:   task.Payload,
		})
	}
}

func buildMemory(ctx context.Context, cfg config.MemoryConfig) (*memory.CycleMemory, error) {
	embedder := ollama.NewEmbedder(cfg.EmbedderBaseURL, cfg.EmbedderModel)

	var store memory.VectorStore
	switch cfg.Provider {
	case "inmemory":
		store = memory.NewInMemory()
	default:
		qdrantStore, err := qdrant.New(cfg.QdrantAddr)
		if err != nil {
			return nil, err
		}
		store = qdrantStore
	}

	mem := memory.NewCycleMemory(store, embedder, cfg.Collection)
	if err := mem.EnsureCollection(ctx, embeddingDimensions); err != nil {
		// An existing collection reports an error from some backends.
		slog.Warn("memory.collection.ensure", slog.String("error", err.Error()))
	}
	return mem, nil
}

func pruneLoop(store cyclelog.Store) background.LoopFunc {
	return func(ctx context.Context) error {
		pruner, ok := store.(interface {
			Prune(ctx context.Context, before time.Time) (int64, error)
		})
		if !ok {
			return nil
		}
		n, err := pruner.Prune(ctx, time.Now().AddDate(0, 0, -30))
		if err != nil {
			return err
		}
		if n > 0 {
			slog.Info("cyclelog.pruned", slog.Int64("records", n))
		}
		return nil
	}
}
