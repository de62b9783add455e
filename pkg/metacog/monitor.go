// Copyright 2026 © The Praxis Authors
// SPDX-License-Identifier: Apache-2.0

// Package metacog watches the trailing cycle history for unproductive
// behavior and emits interventions back to the lifecycle controller.
package metacog

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jllopis/praxis/pkg/core"
)

// Config holds the monitor's tunables. The numeric defaults are
// deliberately configuration, not constants: different agents stabilize at
// different thresholds.
type Config struct {
	WindowSize              int     `koanf:"window_size"`
	MaxLoopLength           int     `koanf:"max_loop_length"`
	MinRepetitions          int     `koanf:"min_repetitions"`
	RiskThreshold           float64 `koanf:"risk_threshold"`
	ConsecutiveFailureLimit int     `koanf:"consecutive_failure_limit"`
	WaitSeconds             int     `koanf:"wait_seconds"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		WindowSize:              20,
		MaxLoopLength:           4,
		MinRepetitions:          3,
		RiskThreshold:           0.7,
		ConsecutiveFailureLimit: 3,
		WaitSeconds:             30,
	}
}

// HandoffStats tracks the human handoff ledger.
type HandoffStats struct {
	RequestsMade      uint64 `yaml:"requests_made"`
	ResponsesReceived uint64 `yaml:"responses_received"`
	PendingRequests   int    `yaml:"pending_requests"`
}

// Monitor aggregates the loop detector and failure predictor into
// interventions. It holds only the counters carried since the last
// intervention; everything else is recomputed from the window each cycle.
type Monitor struct {
	mu        sync.Mutex
	cfg       Config
	detector  *LoopDetector
	predictor *FailurePredictor

	interventionCount        int
	actionsSinceIntervention int

	// openSignature is the pattern behind the latest unresolved
	// intervention; a second trigger with the same signature escalates to
	// a human handoff.
	openSignature string
	flaggedKind   string

	handoff HandoffStats
}

// New creates a monitor with the given configuration.
func New(cfg Config) *Monitor {
	def := DefaultConfig()
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = def.WindowSize
	}
	if cfg.MaxLoopLength <= 0 {
		cfg.MaxLoopLength = def.MaxLoopLength
	}
	if cfg.MinRepetitions <= 0 {
		cfg.MinRepetitions = def.MinRepetitions
	}
	if cfg.RiskThreshold <= 0 {
		cfg.RiskThreshold = def.RiskThreshold
	}
	if cfg.ConsecutiveFailureLimit <= 0 {
		cfg.ConsecutiveFailureLimit = def.ConsecutiveFailureLimit
	}
	if cfg.WaitSeconds <= 0 {
		cfg.WaitSeconds = def.WaitSeconds
	}
	return &Monitor{
		cfg:       cfg,
		detector:  NewLoopDetector(cfg.MaxLoopLength, cfg.MinRepetitions),
		predictor: NewFailurePredictor(cfg.RiskThreshold),
	}
}

// WindowSize returns the configured trailing window length.
func (m *Monitor) WindowSize() int {
	return m.cfg.WindowSize
}

// Evaluate recomputes the monitoring state from the trailing window and
// returns an intervention when one is warranted. Records are oldest first.
func (m *Monitor) Evaluate(records []core.CycleRecord) (*core.Intervention, core.MonitoringState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(records) == 0 {
		return nil, core.MonitoringState{
			InterventionCount:        m.interventionCount,
			ActionsSinceIntervention: m.actionsSinceIntervention,
		}
	}

	loop := m.detector.Analyze(records)
	m.predictor.Observe(records)

	last := records[len(records)-1]
	lastKind := last.SelectedAction.Kind

	// A diverted high-risk action counts as a prevented failure.
	if m.flaggedKind != "" {
		if lastKind != m.flaggedKind {
			m.predictor.NotePrevented()
		}
		m.flaggedKind = ""
	}

	inLoop := false
	for _, kind := range loop.Sequence {
		if kind == lastKind {
			inLoop = true
			break
		}
	}
	pred := m.predictor.Assess(lastKind, inLoop)
	consecutiveFailures := trailingFailures(records)

	state := core.MonitoringState{
		IsStuck:                  loop.IsStuck,
		LoopDescription:          loop.Description,
		ConfidenceLevel:          windowSuccessRate(records),
		FailureRisk:              pred.Risk,
		InterventionCount:        m.interventionCount,
		ActionsSinceIntervention: m.actionsSinceIntervention,
		ConsecutiveFailures:      consecutiveFailures,
	}

	triggered := loop.IsStuck || pred.IsHighRisk ||
		consecutiveFailures >= m.cfg.ConsecutiveFailureLimit
	if !triggered {
		m.openSignature = ""
		m.actionsSinceIntervention++
		state.ActionsSinceIntervention = m.actionsSinceIntervention
		return nil, state
	}

	signature := m.signature(loop, pred, lastKind)
	intervention := m.buildIntervention(loop, pred, lastKind, signature)

	m.interventionCount++
	m.actionsSinceIntervention = 0
	m.openSignature = signature
	if pred.IsHighRisk {
		m.flaggedKind = lastKind
	}

	state.InterventionCount = m.interventionCount
	state.ActionsSinceIntervention = 0

	slog.Default().Info("metacog.intervention",
		slog.String("type", string(intervention.Type)),
		slog.String("reason", intervention.Reason),
		slog.Int("intervention_count", m.interventionCount),
	)
	return intervention, state
}

// RespondHandoff records a human response to a pending handoff request.
func (m *Monitor) RespondHandoff() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handoff.PendingRequests == 0 {
		return
	}
	m.handoff.ResponsesReceived++
	m.handoff.PendingRequests--
	m.openSignature = ""
}

// Handoff returns the handoff ledger.
func (m *Monitor) Handoff() HandoffStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handoff
}

// PredictorStats returns the failure predictor counters.
func (m *Monitor) PredictorStats() PredictorStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.predictor.Stats()
}

func (m *Monitor) signature(loop LoopStatus, pred Prediction, lastKind string) string {
	switch {
	case loop.IsStuck:
		// The repetition count is deliberately left out: a loop that grew
		// by one repetition is still the same pattern.
		return "loop:" + strings.Join(loop.Sequence, " ")
	case pred.IsHighRisk:
		return "high-risk:" + lastKind
	default:
		return "consecutive-failures"
	}
}

func (m *Monitor) buildIntervention(loop LoopStatus, pred Prediction, lastKind, signature string) *core.Intervention {
	now := time.Now().UTC()

	// Escalate only when the same pattern survived a previous,
	// still-unresolved intervention.
	if m.openSignature != "" && m.openSignature == signature {
		m.handoff.RequestsMade++
		m.handoff.PendingRequests++
		return &core.Intervention{
			Type:      core.InterventionHumanHandoff,
			Reason:    fmt.Sprintf("pattern persisted after intervention: %s", signature),
			Priority:  core.PriorityCritical,
			Timestamp: now,
		}
	}

	alternatives := m.alternatives(loop, lastKind)
	if len(alternatives) > 0 {
		return &core.Intervention{
			Type:            core.InterventionSuggestAlternative,
			Reason:          m.reason(loop, pred, lastKind),
			SuggestedAction: &alternatives[0],
			Alternatives:    alternatives,
			Priority:        core.PriorityHigh,
			Timestamp:       now,
		}
	}
	return &core.Intervention{
		Type:        core.InterventionWait,
		Reason:      m.reason(loop, pred, lastKind),
		WaitSeconds: m.cfg.WaitSeconds,
		Priority:    core.PriorityNormal,
		Timestamp:   now,
	}
}

func (m *Monitor) reason(loop LoopStatus, pred Prediction, lastKind string) string {
	switch {
	case loop.IsStuck:
		return "action loop detected: " + loop.Description
	case pred.IsHighRisk:
		return fmt.Sprintf("action %q is high risk (%.2f)", lastKind, pred.Risk)
	default:
		return "consecutive failure limit reached"
	}
}

// alternatives lists known action kinds outside the detected loop, least
// risky first.
func (m *Monitor) alternatives(loop LoopStatus, lastKind string) []core.Action {
	excluded := map[string]bool{lastKind: true}
	for _, kind := range loop.Sequence {
		excluded[kind] = true
	}
	kinds := make([]string, 0, len(m.predictor.rates))
	for kind := range m.predictor.rates {
		if !excluded[kind] {
			kinds = append(kinds, kind)
		}
	}
	sort.Slice(kinds, func(i, j int) bool {
		ri, rj := m.predictor.Risk(kinds[i]), m.predictor.Risk(kinds[j])
		if ri != rj {
			return ri < rj
		}
		return kinds[i] < kinds[j]
	})
	if len(kinds) > 3 {
		kinds = kinds[:3]
	}
	out := make([]core.Action, len(kinds))
	for i, kind := range kinds {
		out[i] = core.Action{Kind: kind}
	}
	return out
}

func trailingFailures(records []core.CycleRecord) int {
	count := 0
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].ExecutionSuccess {
			break
		}
		count++
	}
	return count
}

func windowSuccessRate(records []core.CycleRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	ok := 0
	for _, rec := range records {
		if rec.ExecutionSuccess {
			ok++
		}
	}
	return float64(ok) / float64(len(records))
}
