package plugins

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/caseflow/caseflow/pkg/engine"
	"github.com/caseflow/caseflow/pkg/telemetry"
)

// Module is the factory contract a plugin package exports. The registry
// creates plugin instances through CreatePlugin and returns them through
// DestroyPlugin, on rollback, unregistration or teardown. A module must
// tolerate DestroyPlugin for any instance it created, initialized or not.
type Module interface {
	// CreatePlugin constructs a fresh plugin instance.
	CreatePlugin() (engine.Plugin, error)

	// DestroyPlugin releases an instance previously returned by
	// CreatePlugin.
	DestroyPlugin(plugin engine.Plugin)
}

// entry pairs a live plugin with the module that owns its lifetime.
type entry struct {
	plugin engine.Plugin
	module Module
}

// Registry is the central plugin registry. It implements
// engine.PluginLookup and is safe for concurrent use: lookups from
// running cases proceed under a read lock while registration and
// teardown take the write lock.
type Registry struct {
	// mu protects the registry state.
	mu sync.RWMutex

	// entries maps plugin name to its live instance and owning module.
	entries map[string]entry

	logger  *telemetry.Logger
	metrics *telemetry.Metrics
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger injects the logger used for lifecycle events.
func WithLogger(logger *telemetry.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics injects the metrics collector.
func WithMetrics(metrics *telemetry.Metrics) RegistryOption {
	return func(r *Registry) {
		r.metrics = metrics
	}
}

// NewRegistry creates an empty plugin registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		entries: make(map[string]entry),
		logger:  telemetry.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register creates, validates and initializes a plugin from the given
// module and exposes it for lookup. Any failure along the way rolls the
// registration back completely: the instance is destroyed and the
// registry is left exactly as it was. A failed registration never
// affects already-registered plugins.
func (r *Registry) Register(module Module) error {
	if module == nil {
		return engine.NewRegistrationError("module is nil", nil).
			WithCode(engine.ErrCodeValidation)
	}

	plugin, err := safeCreate(module)
	if err != nil {
		return engine.NewRegistrationError("plugin construction failed", err).
			WithCode(engine.ErrCodeConstructFailed)
	}

	name := plugin.Name()
	if name == "" {
		safeDestroy(module, plugin)
		return engine.NewRegistrationError("plugin name is empty", nil).
			WithCode(engine.ErrCodeEmptyName)
	}
	if plugin.Version() == "" {
		// Tolerated: identity is the name, the version is informational.
		r.logger.WithPlugin(name, "").Warn("plugin registered without a version")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		safeDestroy(module, plugin)
		return engine.NewRegistrationError("plugin already registered", nil).
			WithCode(engine.ErrCodeDuplicatePlugin).
			WithPlugin(name)
	}

	if err := safeInitialize(plugin); err != nil {
		safeDestroy(module, plugin)
		return engine.NewRegistrationError("plugin initialization failed", err).
			WithCode(engine.ErrCodeInitializeFailed).
			WithPlugin(name)
	}

	r.entries[name] = entry{plugin: plugin, module: module}
	r.metrics.SetPluginsRegistered(len(r.entries))
	r.logger.WithPlugin(name, plugin.Version()).
		Infof("plugin registered with %d actions", len(plugin.SupportedActions()))

	return nil
}

// RegisterAll registers each module in order, stopping at the first
// failure. Modules registered before the failure stay registered.
func (r *Registry) RegisterAll(modules ...Module) error {
	for i, module := range modules {
		if err := r.Register(module); err != nil {
			return fmt.Errorf("registering module %d: %w", i, err)
		}
	}
	return nil
}

// Unregister uninitializes and destroys the plugin registered under name.
// It returns false when no such plugin exists.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.entries[name]
	if !exists {
		return false
	}
	delete(r.entries, name)
	r.metrics.SetPluginsRegistered(len(r.entries))

	safeUninitialize(e.plugin)
	safeDestroy(e.module, e.plugin)
	r.logger.WithPlugin(name, e.plugin.Version()).Info("plugin unregistered")
	return true
}

// Lookup returns the plugin registered under name. It implements
// engine.PluginLookup.
func (r *Registry) Lookup(name string) (engine.Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[name]
	return e.plugin, exists
}

// List returns the registered plugin names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Info is a snapshot of a registered plugin's metadata.
type Info struct {
	// Name is the plugin's registered name.
	Name string `json:"name"`

	// Version is the plugin-reported version string, possibly empty.
	Version string `json:"version"`

	// Description is the plugin-reported description.
	Description string `json:"description"`

	// Actions is the plugin's declared action vocabulary.
	Actions []string `json:"actions"`
}

// Infos returns a metadata snapshot for every registered plugin, keyed
// by plugin name.
func (r *Registry) Infos() map[string]Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make(map[string]Info, len(r.entries))
	for name, e := range r.entries {
		infos[name] = Info{
			Name:        name,
			Version:     e.plugin.Version(),
			Description: e.plugin.Description(),
			Actions:     e.plugin.SupportedActions(),
		}
	}
	return infos
}

// Actions returns the declared action vocabulary of the named plugin.
func (r *Registry) Actions(name string) ([]string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[name]
	if !exists {
		return nil, false
	}
	return e.plugin.SupportedActions(), true
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Close uninitializes and destroys every registered plugin and empties
// the registry. Teardown is best-effort: a panicking plugin does not
// prevent the others from being torn down, and every failure is
// reported in the joined error.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for name, e := range r.entries {
		if err := teardownEntry(e); err != nil {
			errs = append(errs, fmt.Errorf("tearing down plugin %s: %w", name, err))
		}
	}

	r.entries = make(map[string]entry)
	r.metrics.SetPluginsRegistered(0)
	r.logger.Debug("plugin registry closed")

	return errors.Join(errs...)
}

// teardownEntry uninitializes and destroys one plugin, converting panics
// into errors. The instance is destroyed even when Uninitialize panics.
func teardownEntry(e entry) error {
	err := uninitializeReportingPanic(e.plugin)
	safeDestroy(e.module, e.plugin)
	return err
}

// uninitializeReportingPanic invokes Uninitialize inside a panic boundary
// and surfaces a recovered panic as an error.
func uninitializeReportingPanic(plugin engine.Plugin) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic during teardown: %v", rec)
		}
	}()
	plugin.Uninitialize()
	return nil
}

// safeCreate invokes CreatePlugin inside a panic boundary. A module that
// returns a nil plugin without an error is treated as a construction
// failure.
func safeCreate(module Module) (plugin engine.Plugin, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			plugin = nil
			err = fmt.Errorf("panic in CreatePlugin: %v", rec)
		}
	}()
	plugin, err = module.CreatePlugin()
	if err == nil && plugin == nil {
		err = errors.New("module returned a nil plugin")
	}
	return plugin, err
}

// safeInitialize invokes Initialize inside a panic boundary.
func safeInitialize(plugin engine.Plugin) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in Initialize: %v", rec)
		}
	}()
	return plugin.Initialize()
}

// safeUninitialize invokes Uninitialize inside a panic boundary.
func safeUninitialize(plugin engine.Plugin) {
	defer func() {
		_ = recover()
	}()
	plugin.Uninitialize()
}

// safeDestroy invokes DestroyPlugin inside a panic boundary.
func safeDestroy(module Module, plugin engine.Plugin) {
	defer func() {
		_ = recover()
	}()
	module.DestroyPlugin(plugin)
}
