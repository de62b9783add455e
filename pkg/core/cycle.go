package core

import "time"

// CycleRecord captures one full plan-execute-learn iteration of the main
// loop. Records are append-only and never mutated after logging; they are
// the sole source of truth for history-dependent decisions.
type CycleRecord struct {
	CycleID   uint64    `yaml:"cycle_id"`
	Timestamp time.Time `yaml:"timestamp"`

	PlanningInputState  string         `yaml:"planning_input_state"`
	PlanningRecentKinds []string       `yaml:"planning_recent_kinds,omitempty"`
	SelectedAction      Action         `yaml:"selected_action"`
	PlanningReasoning   string         `yaml:"planning_reasoning,omitempty"`
	PlanningDuration    time.Duration  `yaml:"planning_duration"`
	ExecutionSuccess    bool           `yaml:"execution_success"`
	ExecutionError      string         `yaml:"execution_error,omitempty"`
	ExecutionResult     any            `yaml:"execution_result,omitempty"`
	ExecutionDuration   time.Duration  `yaml:"execution_duration"`
	Reward              float64        `yaml:"reward"`
	Critique            string         `yaml:"critique,omitempty"`
	LessonLearned       string         `yaml:"lesson_learned,omitempty"`
	AgentStateAfter     LifecycleState `yaml:"agent_state_after"`
	TotalDuration       time.Duration  `yaml:"total_duration"`
}
