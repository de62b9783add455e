// Copyright 2026 © The Praxis Authors
// SPDX-License-Identifier: Apache-2.0

// Package praxistest provides scripted collaborator doubles for exercising
// the runtime without a real planner, executor, or memory backend. All
// doubles are safe for use from the controller goroutine while the test
// inspects them.
package praxistest

import (
	"context"
	"sync"

	"github.com/jllopis/praxis/pkg/core"
)

// ScriptedPlanner replays a fixed list of actions. Once the script is
// exhausted the last action repeats, which is convenient for loop tests.
type ScriptedPlanner struct {
	Actions []core.Action
	Err     error

	mu     sync.Mutex
	calls  int
	inputs []core.PlanInput
}

func (p *ScriptedPlanner) Plan(_ context.Context, input core.PlanInput) (core.Action, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inputs = append(p.inputs, input)
	call := p.calls
	p.calls++
	if p.Err != nil {
		return core.Action{}, "", p.Err
	}
	if len(p.Actions) == 0 {
		return core.Action{Kind: "noop"}, "scripted", nil
	}
	if call >= len(p.Actions) {
		call = len(p.Actions) - 1
	}
	return p.Actions[call], "scripted", nil
}

// Calls returns how many times Plan ran.
func (p *ScriptedPlanner) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Inputs returns a copy of every planning input seen so far.
func (p *ScriptedPlanner) Inputs() []core.PlanInput {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]core.PlanInput, len(p.inputs))
	copy(out, p.inputs)
	return out
}

// ScriptedExecutor succeeds unless told otherwise, per kind or globally.
type ScriptedExecutor struct {
	Err       error
	FailAll   bool
	FailKinds map[string]bool

	mu    sync.Mutex
	calls int
	kinds []string
}

func (e *ScriptedExecutor) Execute(_ context.Context, action core.Action, _ map[string]any) (core.Outcome, error) {
	e.mu.Lock()
	e.calls++
	e.kinds = append(e.kinds, action.Kind)
	e.mu.Unlock()
	if e.Err != nil {
		return core.Outcome{}, e.Err
	}
	if e.FailAll || e.FailKinds[action.Kind] {
		return core.Outcome{Success: false, Error: "scripted failure"}, nil
	}
	return core.Outcome{Success: true, Result: map[string]any{"kind": action.Kind}}, nil
}

// Calls returns how many times Execute ran.
func (e *ScriptedExecutor) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// Kinds returns the executed action kinds in order.
func (e *ScriptedExecutor) Kinds() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.kinds))
	copy(out, e.kinds)
	return out
}

// ScriptedEvaluator maps success to a fixed reward.
type ScriptedEvaluator struct {
	RewardOnSuccess float64
	RewardOnFailure float64
	Err             error
}

func (e *ScriptedEvaluator) Evaluate(_ context.Context, _ core.Action, outcome core.Outcome) (core.Evaluation, error) {
	if e.Err != nil {
		return core.Evaluation{}, e.Err
	}
	if outcome.Success {
		return core.Evaluation{Reward: e.RewardOnSuccess, Critique: "ok"}, nil
	}
	return core.Evaluation{Reward: e.RewardOnFailure, Critique: "failed", Lesson: "avoid repeating this"}, nil
}

// MemoryRecorder captures stored summaries and consolidation calls.
type MemoryRecorder struct {
	Err error

	mu             sync.Mutex
	stored         []core.CycleSummary
	consolidations int
}

func (m *MemoryRecorder) Store(_ context.Context, summary core.CycleSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.stored = append(m.stored, summary)
	return nil
}

func (m *MemoryRecorder) Consolidate(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.consolidations++
	return nil
}

// Stored returns a copy of the summaries written so far.
func (m *MemoryRecorder) Stored() []core.CycleSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.CycleSummary, len(m.stored))
	copy(out, m.stored)
	return out
}

// Consolidations returns how many times Consolidate ran.
func (m *MemoryRecorder) Consolidations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.consolidations
}
