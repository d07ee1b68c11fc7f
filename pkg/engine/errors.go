package engine

import (
	"errors"
	"fmt"
)

// ErrorClass classifies an error by the subsystem that raised it.
type ErrorClass string

const (
	// ErrorClassRegistration covers plugin registration failures: duplicate
	// or empty names, construction failures, initialize failures. Fatal to
	// the single registration attempt, never to the registry.
	ErrorClassRegistration ErrorClass = "registration"

	// ErrorClassResolution covers data reference failures: malformed
	// tokens, unknown datasets, unknown items.
	ErrorClassResolution ErrorClass = "resolution"

	// ErrorClassDispatch covers step dispatch failures: missing plugin,
	// unsupported action, plugin panic. These are captured into
	// StepResults and never abort a case run.
	ErrorClassDispatch ErrorClass = "dispatch"

	// ErrorClassCase covers case-level failures such as a failed setup hook.
	ErrorClassCase ErrorClass = "case"
)

// Error is a classified error with context. All failures inside a case run
// are captured into the result data model; Error values surface only from
// construction-time and registration/resolution APIs.
type Error struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Code is an optional error code for programmatic handling.
	Code string `json:"code,omitempty"`

	// Plugin is the plugin name involved, if applicable.
	Plugin string `json:"plugin,omitempty"`

	// Reference is the data reference involved, if applicable.
	Reference string `json:"reference,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Plugin != "" && e.Err != nil:
		return fmt.Sprintf("[%s] %s (plugin=%s): %s", e.Class, e.Message, e.Plugin, e.Err)
	case e.Plugin != "":
		return fmt.Sprintf("[%s] %s (plugin=%s)", e.Class, e.Message, e.Plugin)
	case e.Reference != "" && e.Err != nil:
		return fmt.Sprintf("[%s] %s (reference=%s): %s", e.Class, e.Message, e.Reference, e.Err)
	case e.Reference != "":
		return fmt.Sprintf("[%s] %s (reference=%s)", e.Class, e.Message, e.Reference)
	case e.Err != nil:
		return fmt.Sprintf("[%s] %s: %s", e.Class, e.Message, e.Err)
	default:
		return fmt.Sprintf("[%s] %s", e.Class, e.Message)
	}
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error equality checking for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Class == t.Class && e.Code == t.Code
}

// NewRegistrationError creates a new registration error.
func NewRegistrationError(message string, err error) *Error {
	return &Error{Class: ErrorClassRegistration, Message: message, Err: err}
}

// NewResolutionError creates a new resolution error.
func NewResolutionError(message string, err error) *Error {
	return &Error{Class: ErrorClassResolution, Message: message, Err: err}
}

// NewDispatchError creates a new dispatch error.
func NewDispatchError(message string, err error) *Error {
	return &Error{Class: ErrorClassDispatch, Message: message, Err: err}
}

// NewCaseError creates a new case-level error.
func NewCaseError(message string, err error) *Error {
	return &Error{Class: ErrorClassCase, Message: message, Err: err}
}

// WithCode adds an error code to an error.
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

// WithPlugin adds plugin context to an error.
func (e *Error) WithPlugin(name string) *Error {
	e.Plugin = name
	return e
}

// WithReference adds data reference context to an error.
func (e *Error) WithReference(ref string) *Error {
	e.Reference = ref
	return e
}

// HasClass returns true if the error is an *Error of the given class.
func HasClass(err error, class ErrorClass) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Class == class
	}
	return false
}

// HasCode returns true if the error is an *Error carrying the given code.
func HasCode(err error, code string) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// Common error codes.
const (
	ErrCodeEmptyName         = "EMPTY_NAME"
	ErrCodeDuplicatePlugin   = "DUPLICATE_PLUGIN"
	ErrCodeConstructFailed   = "CONSTRUCT_FAILED"
	ErrCodeInitializeFailed  = "INITIALIZE_FAILED"
	ErrCodeBadReference      = "BAD_REFERENCE"
	ErrCodeUnknownDataset    = "UNKNOWN_DATASET"
	ErrCodeUnknownItem       = "UNKNOWN_ITEM"
	ErrCodePluginNotFound    = "PLUGIN_NOT_FOUND"
	ErrCodeUnsupportedAction = "UNSUPPORTED_ACTION"
	ErrCodeStepPanic         = "STEP_PANIC"
	ErrCodeSetupFailed       = "SETUP_FAILED"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeInternal          = "INTERNAL_ERROR"
)
