package engine

import (
	"encoding/json"
	"fmt"
)

// RunState represents the state of a case run's lifecycle.
type RunState string

const (
	// RunStatePending indicates the run has not started yet.
	RunStatePending RunState = "pending"

	// RunStateSettingUp indicates the setup hook is executing.
	RunStateSettingUp RunState = "setting_up"

	// RunStateRunningSteps indicates the step list is being walked.
	RunStateRunningSteps RunState = "running_steps"

	// RunStateTearingDown indicates the teardown hook is executing.
	RunStateTearingDown RunState = "tearing_down"

	// RunStateCompleted indicates the run finished and produced a result.
	RunStateCompleted RunState = "completed"

	// RunStateFaulted indicates an unexpected failure absorbed the run.
	// A faulted run still transitions forward to completed: RunCase always
	// returns a CaseResult.
	RunStateFaulted RunState = "faulted"
)

// IsTerminal returns true if the state represents a final state.
func (s RunState) IsTerminal() bool {
	return s == RunStateCompleted || s == RunStateFaulted
}

// Validate checks if the run state is valid.
func (s RunState) Validate() error {
	switch s {
	case RunStatePending, RunStateSettingUp, RunStateRunningSteps,
		RunStateTearingDown, RunStateCompleted, RunStateFaulted:
		return nil
	default:
		return fmt.Errorf("invalid run state: %s", s)
	}
}

// MarshalJSON implements custom JSON marshaling for type-safe enum serialization.
func (s RunState) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// UnmarshalJSON implements custom JSON unmarshaling with validation.
func (s *RunState) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = RunState(str)
	return s.Validate()
}

// Reserved step error codes set by the Runner. Plugins report their own
// positive codes; the orchestrator's reserved codes are negative so the
// two ranges never collide.
const (
	// CodePluginNotFound is set when the step's plugin is not registered.
	CodePluginNotFound = -1

	// CodeUnsupportedAction is set when the plugin does not declare the
	// requested action. The plugin is not invoked.
	CodeUnsupportedAction = -2

	// CodeStepPanic is set when the plugin panicked during dispatch.
	CodeStepPanic = -3
)
