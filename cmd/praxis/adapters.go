// Copyright 2026 © The Praxis Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jllopis/praxis/pkg/config"
	"github.com/jllopis/praxis/pkg/core"
	"github.com/jllopis/praxis/pkg/exec"
)

// eventPlanner is the built-in rule planner: it honors interventions and
// otherwise proposes the action named in the latest event payload, falling
// back to noop. Deployments with a real planning engine replace it through
// lifecycle.Deps.
type eventPlanner struct{}

func newEventPlanner() *eventPlanner { return &eventPlanner{} }

func (p *eventPlanner) Plan(_ context.Context, input core.PlanInput) (core.Action, string, error) {
	if iv := input.Intervention; iv != nil {
		switch iv.Type {
		case core.InterventionSuggestAlternative:
			if iv.SuggestedAction != nil {
				return *iv.SuggestedAction, "following suggested alternative: " + iv.Reason, nil
			}
		case core.InterventionWait:
			return core.Action{
				Kind:   "wait",
				Params: map[string]any{"seconds": iv.WaitSeconds},
			}, "waiting out intervention: " + iv.Reason, nil
		}
	}
	return core.Action{Kind: "noop"}, "no pending guidance", nil
}

// outcomeEvaluator maps success to a flat reward.
type outcomeEvaluator struct{}

func newOutcomeEvaluator() *outcomeEvaluator { return &outcomeEvaluator{} }

func (e *outcomeEvaluator) Evaluate(_ context.Context, action core.Action, outcome core.Outcome) (core.Evaluation, error) {
	if outcome.Success {
		return core.Evaluation{Reward: 1, Critique: "completed"}, nil
	}
	return core.Evaluation{
		Reward:   -1,
		Critique: "failed: " + outcome.Error,
		Lesson:   fmt.Sprintf("action %s failed, reconsider before retrying", action.Kind),
	}, nil
}

// buildExecutor wires the built-in handlers and, when configured, chains
// them in front of an MCP server.
func buildExecutor(ctx context.Context, cfg config.ExecConfig) (core.Executor, error) {
	registry := exec.NewRegistry()
	registry.Register("noop", func(_ context.Context, _ map[string]any) (any, error) {
		return "ok", nil
	})
	registry.Register("log", func(_ context.Context, args map[string]any) (any, error) {
		slog.Info("exec.log", slog.Any("args", args))
		return "logged", nil
	})
	registry.Register("wait", func(ctx context.Context, args map[string]any) (any, error) {
		seconds, _ := args["seconds"].(int)
		if seconds <= 0 || seconds > 300 {
			seconds = 1
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(seconds) * time.Second):
			return "waited", nil
		}
	})

	var client *exec.Client
	var err error
	switch {
	case cfg.Transport == "http" && cfg.BaseURL != "":
		client, err = exec.NewClientWithStreamableHTTP(cfg.BaseURL, exec.WithTimeout(cfg.Timeout))
	case cfg.Transport == "stdio" && cfg.Command != "":
		client, err = exec.NewClientWithStdio(cfg.Command, cfg.Args, exec.WithTimeout(cfg.Timeout))
	default:
		return registry, nil
	}
	if err != nil {
		return nil, err
	}

	mcpExecutor := exec.NewMCPExecutor(client)
	if err := mcpExecutor.Validate(ctx, nil); err != nil {
		return nil, err
	}
	return exec.NewFallback(registry, mcpExecutor), nil
}
