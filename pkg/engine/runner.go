package engine

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/caseflow/caseflow/pkg/telemetry"
)

// Runner executes test cases against the plugin registry and the data
// store. It walks a case's step list in declared order, resolves data
// references, dispatches to plugins and aggregates a CaseResult. A Runner
// is safe for concurrent use: each run owns its own result and only reads
// shared state.
type Runner struct {
	// registry is the read-only plugin lookup.
	registry PluginLookup

	// data hands out resolvers scoped to a case's datasets.
	data DataSource

	// hooks runs declared setup/teardown hooks. Optional: without a
	// HookRunner, declared hooks are logged and treated as succeeded.
	hooks HookRunner

	logger  *telemetry.Logger
	metrics *telemetry.Metrics
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger injects the logger used for run progress.
func WithLogger(logger *telemetry.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics injects the metrics collector.
func WithMetrics(metrics *telemetry.Metrics) RunnerOption {
	return func(r *Runner) {
		r.metrics = metrics
	}
}

// WithHookRunner injects the external hook executor invoked at the
// SettingUp and TearingDown points of the run state machine.
func WithHookRunner(hooks HookRunner) RunnerOption {
	return func(r *Runner) {
		r.hooks = hooks
	}
}

// NewRunner creates a Runner. The registry and data source are required
// collaborators; a nil value is an unrecoverable construction error.
func NewRunner(registry PluginLookup, data DataSource, opts ...RunnerOption) (*Runner, error) {
	if registry == nil {
		return nil, NewCaseError("plugin registry is required", nil).WithCode(ErrCodeValidation)
	}
	if data == nil {
		return nil, NewCaseError("data source is required", nil).WithCode(ErrCodeValidation)
	}

	r := &Runner{
		registry: registry,
		data:     data,
		logger:   telemetry.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// RunCase executes a single test case to completion and returns its
// result. The call never panics and never returns an error: every failure
// mode, including a fault inside the Runner itself, is absorbed into the
// CaseResult. Cancelling ctx is advisory only; it is passed through to
// plugin dispatches but the run itself is not aborted mid-case.
func (r *Runner) RunCase(ctx context.Context, tc TestCase) (result CaseResult) {
	logger := r.logger.WithCase(tc.ID, tc.Name)

	result = CaseResult{
		CaseID:    tc.ID,
		CaseName:  tc.Name,
		StartedAt: time.Now(),
	}
	state := RunStatePending

	// Faulted absorption state: an unexpected panic anywhere in the run
	// still produces a completed result.
	defer func() {
		if rec := recover(); rec != nil {
			result.OverallSuccess = false
			result.ErrorMessage = fmt.Sprintf("internal fault in state %s: %v", state, rec)
			state = RunStateFaulted
			logger.Errorf("case run faulted: %v", rec)
		}
		result.CompletedAt = time.Now()
		result.TotalDuration = result.CompletedAt.Sub(result.StartedAt)
		r.metrics.CaseCompleted(result.OverallSuccess, result.TotalDuration)
	}()

	logger.Infof("starting test case with %d steps", len(tc.Steps))
	r.metrics.CaseStarted()

	state = RunStateSettingUp
	if tc.SetupHook != "" {
		if err := r.runHook(ctx, tc.SetupHook); err != nil {
			// Fatal for the case: no steps run, teardown is skipped.
			result.OverallSuccess = false
			result.ErrorMessage = fmt.Sprintf("setup hook %q failed: %v", tc.SetupHook, err)
			logger.WithError(err).Error("setup hook failed, skipping steps")
			return result
		}
	}

	state = RunStateRunningSteps
	resolver := r.data.Resolver(tc.DatasetIDs...)
	for _, step := range tc.Steps {
		exec := r.executeStep(ctx, logger, resolver, step)
		result.Steps = append(result.Steps, exec)

		if !exec.Result.Success && step.StopOnFailure {
			logger.Infof("step %d failed with stop-on-failure, halting remaining steps", step.ID)
			break
		}
	}

	state = RunStateTearingDown
	if tc.TeardownHook != "" {
		// Best-effort cleanup; the outcome never affects case success.
		if err := r.runHook(ctx, tc.TeardownHook); err != nil {
			logger.WithError(err).Warn("teardown hook failed")
		}
	}

	result.OverallSuccess = computeOverallSuccess(tc.Steps, result.Steps)

	state = RunStateCompleted
	if result.OverallSuccess {
		logger.Info("test case completed successfully")
	} else {
		logger.Info("test case failed")
	}
	return result
}

// RunCases executes cases sequentially in the given order and returns
// their results. Cases never run concurrently within one call: a later
// case may depend on UI state left behind by an earlier one.
func (r *Runner) RunCases(ctx context.Context, cases []TestCase) []CaseResult {
	results := make([]CaseResult, 0, len(cases))
	for _, tc := range cases {
		results = append(results, r.RunCase(ctx, tc))
	}
	return results
}

// executeStep dispatches one step inside the failure boundary and returns
// its execution record. Reference resolution time is charged to the step.
func (r *Runner) executeStep(ctx context.Context, logger *telemetry.Logger, resolver DataResolver, step TestStep) StepExecution {
	exec := StepExecution{
		StepID:    step.ID,
		StartedAt: time.Now(),
	}
	stepLogger := logger.WithStepID(step.ID)
	stepLogger.Debugf("executing %s on %s", step.Param.Action, step.Param.Target)

	exec.Result = r.dispatch(ctx, stepLogger, resolver, step)

	exec.Duration = time.Since(exec.StartedAt)
	exec.Result.ExecutionTime = exec.Duration
	r.metrics.StepExecuted(step.PluginName, step.Param.Action, exec.Result.Success, exec.Duration)

	if exec.Result.Success {
		stepLogger.Debugf("step completed in %s", exec.Duration)
	} else {
		stepLogger.Warnf("step failed (code %d): %s", exec.Result.ErrorCode, exec.Result.Message)
	}
	return exec
}

// dispatch resolves the step's references, verifies the plugin contract
// and invokes the plugin. Any panic from the plugin is converted into a
// failed StepResult and never propagated.
func (r *Runner) dispatch(ctx context.Context, logger *telemetry.Logger, resolver DataResolver, step TestStep) (res StepResult) {
	defer func() {
		if rec := recover(); rec != nil {
			res = StepResult{
				Success:   false,
				ErrorCode: CodeStepPanic,
				Message:   fmt.Sprintf("panic during step execution: %v", rec),
			}
			r.metrics.PluginError(step.PluginName, ErrCodeStepPanic)
			logger.Errorf("plugin panicked: %v", rec)
		}
	}()

	param := resolveParam(resolver, step.Param)

	plugin, ok := r.registry.Lookup(step.PluginName)
	if !ok {
		r.metrics.PluginError(step.PluginName, ErrCodePluginNotFound)
		return StepResult{
			Success:   false,
			ErrorCode: CodePluginNotFound,
			Message:   fmt.Sprintf("plugin not found: %s", step.PluginName),
		}
	}

	if !slices.Contains(plugin.SupportedActions(), param.Action) {
		r.metrics.PluginError(step.PluginName, ErrCodeUnsupportedAction)
		return StepResult{
			Success:   false,
			ErrorCode: CodeUnsupportedAction,
			Message:   fmt.Sprintf("plugin %s does not support action: %s", step.PluginName, param.Action),
		}
	}

	return plugin.ExecuteStep(ctx, param)
}

// runHook invokes a named hook through the configured HookRunner. Without
// one, a declared hook is a no-op that succeeds.
func (r *Runner) runHook(ctx context.Context, name string) error {
	if r.hooks == nil {
		r.logger.Debugf("no hook runner configured, skipping hook %q", name)
		return nil
	}
	return r.hooks.RunHook(ctx, name)
}

// resolveParam substitutes data references in the step's target, value and
// params. The action name is dispatched verbatim.
func resolveParam(resolver DataResolver, param StepParam) StepParam {
	resolved := param
	resolved.Target = resolver.SubstituteAll(param.Target)
	resolved.Value = resolver.SubstituteAll(param.Value)
	if len(param.Params) > 0 {
		resolved.Params = make(map[string]string, len(param.Params))
		for k, v := range param.Params {
			resolved.Params[k] = resolver.SubstituteAll(v)
		}
	}
	return resolved
}

// computeOverallSuccess reports whether no non-optional step failed.
// Executions are matched to declared steps by position; the execution list
// may be truncated by a stop-on-failure step.
func computeOverallSuccess(steps []TestStep, execs []StepExecution) bool {
	for i, exec := range execs {
		if !exec.Result.Success && !steps[i].IsOptional {
			return false
		}
	}
	return true
}
