package core

import "time"

// InterventionType classifies a metacognition intervention.
type InterventionType string

const (
	InterventionSuggestAlternative InterventionType = "suggest_alternative"
	InterventionWait               InterventionType = "wait"
	InterventionHumanHandoff       InterventionType = "request_human_handoff"
)

// Intervention is a metacognition-generated suggestion injected into the
// next planning input. Interventions advise; they never preempt the cycle
// in flight.
type Intervention struct {
	Type            InterventionType `yaml:"type"`
	Reason          string           `yaml:"reason"`
	SuggestedAction *Action          `yaml:"suggested_action,omitempty"`
	WaitSeconds     int              `yaml:"wait_seconds,omitempty"`
	Priority        Priority         `yaml:"priority"`
	Alternatives    []Action         `yaml:"alternatives,omitempty"`
	Timestamp       time.Time        `yaml:"timestamp"`
}

// MonitoringState is derived each cycle from the trailing window of cycle
// records plus counters carried since the last intervention. It is never
// persisted independently.
type MonitoringState struct {
	IsStuck                  bool    `yaml:"is_stuck"`
	LoopDescription          string  `yaml:"loop_description,omitempty"`
	ConfidenceLevel          float64 `yaml:"confidence_level"`
	FailureRisk              float64 `yaml:"failure_risk"`
	InterventionCount        int     `yaml:"intervention_count"`
	ActionsSinceIntervention int     `yaml:"actions_since_intervention"`
	ConsecutiveFailures      int     `yaml:"consecutive_failures"`
}
