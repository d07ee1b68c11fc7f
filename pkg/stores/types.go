package stores

import (
	"time"

	"github.com/caseflow/caseflow/pkg/engine"
)

// StoredResult is a persisted case run result.
type StoredResult struct {
	// ID is the store-assigned result identifier.
	ID string `json:"id"`

	// CaseID is the ID of the executed case.
	CaseID int `json:"case_id"`

	// CaseName is the name of the executed case.
	CaseName string `json:"case_name"`

	// OverallSuccess reports whether the case passed.
	OverallSuccess bool `json:"overall_success"`

	// ErrorMessage is the case-level failure message, if any.
	ErrorMessage string `json:"error_message,omitempty"`

	// StartedAt is when the run started.
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is when the run completed.
	CompletedAt time.Time `json:"completed_at"`

	// TotalDuration is the wall-clock duration of the run.
	TotalDuration time.Duration `json:"total_duration"`

	// Steps are the persisted per-step results.
	Steps []StoredStep `json:"steps"`

	// CreatedAt is when the record was written.
	CreatedAt time.Time `json:"created_at"`
}

// StoredStep is one persisted step execution.
type StoredStep struct {
	// StepID is the step's ID within its case.
	StepID int `json:"step_id"`

	// Success reports whether the step passed.
	Success bool `json:"success"`

	// ErrorCode is the step's error code; zero means no error.
	ErrorCode int `json:"error_code,omitempty"`

	// Message is the step's result message.
	Message string `json:"message,omitempty"`

	// ExtraData is any data the step produced.
	ExtraData string `json:"extra_data,omitempty"`

	// Duration is the measured step execution time.
	Duration time.Duration `json:"duration"`

	// StartedAt is when the step dispatch started.
	StartedAt time.Time `json:"started_at"`
}

// fromCaseResult converts an engine result into its persisted shape.
func fromCaseResult(r engine.CaseResult) StoredResult {
	out := StoredResult{
		CaseID:         r.CaseID,
		CaseName:       r.CaseName,
		OverallSuccess: r.OverallSuccess,
		ErrorMessage:   r.ErrorMessage,
		StartedAt:      r.StartedAt,
		CompletedAt:    r.CompletedAt,
		TotalDuration:  r.TotalDuration,
		Steps:          make([]StoredStep, 0, len(r.Steps)),
	}
	for _, se := range r.Steps {
		out.Steps = append(out.Steps, StoredStep{
			StepID:    se.StepID,
			Success:   se.Result.Success,
			ErrorCode: se.Result.ErrorCode,
			Message:   se.Result.Message,
			ExtraData: se.Result.ExtraData,
			Duration:  se.Duration,
			StartedAt: se.StartedAt,
		})
	}
	return out
}

// ToCaseResult converts a persisted result back to the engine shape.
func (r StoredResult) ToCaseResult() engine.CaseResult {
	out := engine.CaseResult{
		CaseID:         r.CaseID,
		CaseName:       r.CaseName,
		OverallSuccess: r.OverallSuccess,
		ErrorMessage:   r.ErrorMessage,
		StartedAt:      r.StartedAt,
		CompletedAt:    r.CompletedAt,
		TotalDuration:  r.TotalDuration,
		Steps:          make([]engine.StepExecution, 0, len(r.Steps)),
	}
	for _, s := range r.Steps {
		out.Steps = append(out.Steps, engine.StepExecution{
			StepID: s.StepID,
			Result: engine.StepResult{
				Success:       s.Success,
				ErrorCode:     s.ErrorCode,
				Message:       s.Message,
				ExtraData:     s.ExtraData,
				ExecutionTime: s.Duration,
			},
			Duration:  s.Duration,
			StartedAt: s.StartedAt,
		})
	}
	return out
}
