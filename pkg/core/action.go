package core

// Action is the unit the planner selects and the executor runs.
// Kind is resolved against the executor's handler registry once at startup.
type Action struct {
	Kind   string
	Params map[string]any
}

// Outcome is the result of executing an action.
type Outcome struct {
	Success bool
	Result  any
	Error   string
}

// Evaluation is the feedback collaborator's judgement of an outcome.
type Evaluation struct {
	Reward   float64
	Critique string
	Lesson   string
}
