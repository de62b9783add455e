package core

import "context"

// PlanInput is what the planner sees for one cycle: the current lifecycle
// state, the trailing cycle window, and any pending intervention from the
// metacognition monitor.
type PlanInput struct {
	State        LifecycleState
	RecentCycles []CycleRecord
	Intervention *Intervention
}

// Planner selects the next action. The planning algorithm behind it is an
// external concern.
type Planner interface {
	Plan(ctx context.Context, input PlanInput) (Action, string, error)
}

// Executor runs an action against the outside world. Retries, if any, are
// the executor's concern; the core records whatever comes back.
type Executor interface {
	Execute(ctx context.Context, action Action, payload map[string]any) (Outcome, error)
}

// Evaluator turns an execution outcome into reward and critique.
type Evaluator interface {
	Evaluate(ctx context.Context, action Action, outcome Outcome) (Evaluation, error)
}

// Memory stores cycle summaries and consolidates them out of band. Both
// calls are fire-and-forget from the controller's perspective: failures are
// logged, never allowed to block the main loop.
type Memory interface {
	Store(ctx context.Context, summary CycleSummary) error
	Consolidate(ctx context.Context) error
}

// CycleSummary is the compact form of a cycle handed to the memory
// collaborator after logging.
type CycleSummary struct {
	CycleID    uint64
	ActionKind string
	Success    bool
	Reward     float64
	Lesson     string
}
