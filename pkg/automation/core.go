// Package automation wires the plugin registry, the data store, the
// runner, the case serializer, the report generator and the optional
// result history into one embeddable facade.
package automation

import (
	"context"
	"errors"
	"fmt"

	"github.com/caseflow/caseflow/pkg/cases"
	"github.com/caseflow/caseflow/pkg/datastore"
	"github.com/caseflow/caseflow/pkg/engine"
	"github.com/caseflow/caseflow/pkg/plugins"
	"github.com/caseflow/caseflow/pkg/report"
	"github.com/caseflow/caseflow/pkg/stores"
	"github.com/caseflow/caseflow/pkg/telemetry"
)

// Options configures a Core.
type Options struct {
	// Logger is the logger shared by all components. Defaults to a no-op
	// logger.
	Logger *telemetry.Logger

	// Metrics is the optional metrics collector.
	Metrics *telemetry.Metrics

	// Hooks is the optional executor for case setup/teardown hooks.
	Hooks engine.HookRunner

	// HistoryPath enables persistent run history in a SQLite database at
	// the given path. Empty disables history.
	HistoryPath string
}

// Core is the embeddable automation host.
type Core struct {
	registry   *plugins.Registry
	data       *datastore.Store
	runner     *engine.Runner
	serializer *cases.Serializer
	reporter   *report.Generator
	history    *stores.SQLiteStore

	logger *telemetry.Logger
}

// New creates a Core with all components wired. A history path that
// cannot be opened or migrated is a construction failure.
func New(ctx context.Context, opts Options) (*Core, error) {
	logger := opts.Logger
	if logger == nil {
		logger = telemetry.NewNopLogger()
	}

	registry := plugins.NewRegistry(
		plugins.WithLogger(logger.NewComponentLogger("registry")),
		plugins.WithMetrics(opts.Metrics),
	)
	data := datastore.NewStore(
		datastore.WithLogger(logger.NewComponentLogger("datastore")),
		datastore.WithMetrics(opts.Metrics),
	)

	runnerOpts := []engine.RunnerOption{
		engine.WithLogger(logger.NewComponentLogger("runner")),
		engine.WithMetrics(opts.Metrics),
	}
	if opts.Hooks != nil {
		runnerOpts = append(runnerOpts, engine.WithHookRunner(opts.Hooks))
	}
	runner, err := engine.NewRunner(registry, data, runnerOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating runner: %w", err)
	}

	reporter, err := report.NewGenerator()
	if err != nil {
		return nil, fmt.Errorf("creating report generator: %w", err)
	}

	core := &Core{
		registry:   registry,
		data:       data,
		runner:     runner,
		serializer: cases.NewSerializer(),
		reporter:   reporter,
		logger:     logger,
	}

	if opts.HistoryPath != "" {
		history, err := stores.NewSQLiteStore(stores.Config{Path: opts.HistoryPath})
		if err != nil {
			return nil, fmt.Errorf("creating history store: %w", err)
		}
		if err := history.Init(ctx); err != nil {
			return nil, fmt.Errorf("opening history store: %w", err)
		}
		if err := history.Migrate(ctx); err != nil {
			_ = history.Close()
			return nil, fmt.Errorf("migrating history store: %w", err)
		}
		core.history = history
	}

	return core, nil
}

// RegisterPlugin registers a plugin module.
func (c *Core) RegisterPlugin(module plugins.Module) error {
	return c.registry.Register(module)
}

// RegisterPlugins registers modules in order, stopping at the first
// failure.
func (c *Core) RegisterPlugins(modules ...plugins.Module) error {
	return c.registry.RegisterAll(modules...)
}

// UnregisterPlugin removes a plugin by name.
func (c *Core) UnregisterPlugin(name string) bool {
	return c.registry.Unregister(name)
}

// ListPlugins returns the registered plugin names in sorted order.
func (c *Core) ListPlugins() []string {
	return c.registry.List()
}

// PluginInfos returns a metadata snapshot of all registered plugins.
func (c *Core) PluginInfos() map[string]plugins.Info {
	return c.registry.Infos()
}

// ListActions returns the action vocabulary of a plugin.
func (c *Core) ListActions(name string) ([]string, bool) {
	return c.registry.Actions(name)
}

// IsPluginAvailable reports whether a plugin is registered.
func (c *Core) IsPluginAvailable(name string) bool {
	_, ok := c.registry.Lookup(name)
	return ok
}

// Data exposes the dataset store for dataset management.
func (c *Core) Data() *datastore.Store {
	return c.data
}

// RunCase executes one test case and persists the result when history is
// enabled.
func (c *Core) RunCase(ctx context.Context, tc engine.TestCase) engine.CaseResult {
	result := c.runner.RunCase(ctx, tc)
	c.persist(ctx, result)
	return result
}

// RunCases executes cases sequentially, persisting each result when
// history is enabled.
func (c *Core) RunCases(ctx context.Context, list []engine.TestCase) []engine.CaseResult {
	results := make([]engine.CaseResult, 0, len(list))
	for _, tc := range list {
		results = append(results, c.RunCase(ctx, tc))
	}
	return results
}

// persist writes a result to history, best-effort.
func (c *Core) persist(ctx context.Context, result engine.CaseResult) {
	if c.history == nil {
		return
	}
	if _, err := c.history.SaveResult(ctx, result); err != nil {
		c.logger.WithError(err).Warnf("failed to persist result for case %q", result.CaseName)
	}
}

// History returns the result history store, or nil when disabled.
func (c *Core) History() *stores.SQLiteStore {
	return c.history
}

// ResolveDataReference resolves a single ${dataset.item} reference.
func (c *Core) ResolveDataReference(reference string, datasetIDs ...string) (string, error) {
	return c.data.Resolver(datasetIDs...).ResolveReference(reference)
}

// SubstituteDataReferences substitutes every resolvable reference in text.
func (c *Core) SubstituteDataReferences(text string, datasetIDs ...string) string {
	return c.data.Resolver(datasetIDs...).SubstituteAll(text)
}

// LoadCases reads test cases from a JSON or YAML file.
func (c *Core) LoadCases(path string) ([]engine.TestCase, error) {
	return c.serializer.LoadFile(path)
}

// SaveCases writes test cases to a JSON or YAML file.
func (c *Core) SaveCases(path string, list []engine.TestCase) error {
	return c.serializer.SaveFile(path, list)
}

// ValidateCase checks a case against the structural rules.
func (c *Core) ValidateCase(tc engine.TestCase) error {
	return c.serializer.Validate(tc)
}

// Summarize computes the aggregate view over a set of results.
func (c *Core) Summarize(results []engine.CaseResult) report.Summary {
	return report.Summarize(results)
}

// GenerateReport renders results in the given format.
func (c *Core) GenerateReport(results []engine.CaseResult, format report.Format) ([]byte, error) {
	return c.reporter.Generate(results, format)
}

// SaveReport renders results and writes them to path.
func (c *Core) SaveReport(path string, results []engine.CaseResult, format report.Format) error {
	return c.reporter.Save(path, results, format)
}

// Close tears down every plugin and closes the history store.
func (c *Core) Close() error {
	var errs []error
	if err := c.registry.Close(); err != nil {
		errs = append(errs, err)
	}
	if c.history != nil {
		if err := c.history.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
