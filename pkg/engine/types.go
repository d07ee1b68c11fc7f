package engine

import (
	"time"
)

// StepParam is the parameter block for a single step dispatch.
// Target, Value and Params may contain unresolved ${dataset.item}
// references before the Runner resolves them; a plugin always receives
// the resolved form.
type StepParam struct {
	// Action is the action name to perform (e.g. "click", "input", "check").
	Action string `json:"action"`

	// Target identifies the UI element the action operates on
	// (e.g. a window title or control ID).
	Target string `json:"target"`

	// Value is the operation value (e.g. text to type, a wait duration).
	Value string `json:"value,omitempty"`

	// Params are additional named parameters for the action.
	Params map[string]string `json:"params,omitempty"`

	// Timeout is the advisory per-step deadline. The Runner never enforces
	// it; plugins are expected to honor it in their own dispatch.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// StepResult is the outcome of a single step dispatch. It is produced
// exactly once per dispatch and never mutated afterwards.
type StepResult struct {
	// Success indicates whether the step succeeded.
	Success bool `json:"success"`

	// Message is a human-readable result message.
	Message string `json:"message,omitempty"`

	// ErrorCode classifies the failure; zero means no error.
	// The reserved orchestrator codes are CodePluginNotFound,
	// CodeUnsupportedAction and CodeStepPanic.
	ErrorCode int `json:"error_code,omitempty"`

	// ExtraData carries any data the step produced (e.g. retrieved
	// control text).
	ExtraData string `json:"extra_data,omitempty"`

	// ExecutionTime is the wall-clock time from dispatch start to dispatch
	// completion, including reference resolution charged to the step.
	ExecutionTime time.Duration `json:"execution_time"`
}

// TestStep is one parameterized action dispatched to a named plugin.
// Steps are declarative, owned by their TestCase and immutable during
// execution.
type TestStep struct {
	// ID identifies the step within its case.
	ID int `json:"id"`

	// PluginName names the plugin that executes this step.
	PluginName string `json:"plugin_name"`

	// Param is the step's parameter block.
	Param StepParam `json:"param"`

	// IsOptional excludes this step's failure from the case-level
	// success computation. It does not affect continuation.
	IsOptional bool `json:"is_optional,omitempty"`

	// StopOnFailure halts further step execution within the case when
	// this step fails. It does not affect the success computation.
	StopOnFailure bool `json:"stop_on_failure"`
}

// TestCase is an ordered sequence of steps plus optional setup/teardown
// hooks. A case is constructed or loaded before a run and read-only
// during execution.
type TestCase struct {
	// ID is the case identifier.
	ID int `json:"id"`

	// Name is the human-readable case name.
	Name string `json:"name"`

	// Description describes what the case verifies.
	Description string `json:"description,omitempty"`

	// Steps are the test steps in execution order.
	Steps []TestStep `json:"steps"`

	// SetupHook names an external hook run before the steps. A setup
	// failure is fatal for the case: no steps run.
	SetupHook string `json:"setup_hook,omitempty"`

	// TeardownHook names an external hook run after the steps,
	// best-effort; its outcome never affects case success.
	TeardownHook string `json:"teardown_hook,omitempty"`

	// DatasetIDs are the datasets reference resolution is scoped to.
	// Empty means all datasets are visible.
	DatasetIDs []string `json:"dataset_ids,omitempty"`

	// CreatedAt is when the case was created.
	CreatedAt time.Time `json:"created_at,omitzero"`

	// UpdatedAt is when the case was last modified.
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// StepExecution pairs a step's result with its timing inside a case run.
type StepExecution struct {
	// StepID is the ID of the executed step.
	StepID int `json:"step_id"`

	// Result is the step's dispatch outcome.
	Result StepResult `json:"result"`

	// Duration is the measured wall-clock execution time of the step.
	Duration time.Duration `json:"duration"`

	// StartedAt is when the step dispatch started.
	StartedAt time.Time `json:"started_at"`
}

// CaseResult is the per-case aggregate built incrementally during a single
// run. Each run owns its own CaseResult; results are never shared across
// concurrent runs of the same case.
type CaseResult struct {
	// CaseID is the ID of the executed case.
	CaseID int `json:"case_id"`

	// CaseName is the name of the executed case.
	CaseName string `json:"case_name"`

	// OverallSuccess is false iff at least one non-optional step failed
	// or the case faulted before its steps could run.
	OverallSuccess bool `json:"overall_success"`

	// Steps are the per-step executions in dispatch order. The list is
	// truncated when a failing step had StopOnFailure set.
	Steps []StepExecution `json:"steps"`

	// StartedAt is when the run started.
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is when the run completed.
	CompletedAt time.Time `json:"completed_at"`

	// TotalDuration is the wall-clock duration of the whole run. Step
	// durations are measured independently and do not sum to it exactly.
	TotalDuration time.Duration `json:"total_duration"`

	// ErrorMessage describes a case-level failure (setup failure or an
	// internal fault), if any.
	ErrorMessage string `json:"error_message,omitempty"`
}

// FailedSteps returns the number of step executions that failed.
func (r *CaseResult) FailedSteps() int {
	n := 0
	for _, se := range r.Steps {
		if !se.Result.Success {
			n++
		}
	}
	return n
}

// PassedSteps returns the number of step executions that succeeded.
func (r *CaseResult) PassedSteps() int {
	return len(r.Steps) - r.FailedSteps()
}
