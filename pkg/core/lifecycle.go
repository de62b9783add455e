package core

// LifecycleState is the agent's run status. Exactly one value exists at a
// time; the lifecycle controller is its only writer.
type LifecycleState string

const (
	StateStopped LifecycleState = "stopped"
	StateRunning LifecycleState = "running"
	StatePaused  LifecycleState = "paused"
	StateError   LifecycleState = "error"
)

// CommandKind identifies a control command.
type CommandKind string

const (
	CommandStart         CommandKind = "start"
	CommandStop          CommandKind = "stop"
	CommandPause         CommandKind = "pause"
	CommandResume        CommandKind = "resume"
	CommandExecuteAction CommandKind = "execute_action"
)

// Command is written by an external actor into the shared state channel and
// consumed exactly once by the lifecycle controller.
type Command struct {
	Kind   CommandKind    `yaml:"kind"`
	Action string         `yaml:"action,omitempty"`
	Params map[string]any `yaml:"params,omitempty"`
}
