package engine

import (
	"context"
)

// Plugin is the capability contract every automation plugin implements.
// A plugin exposes its identity, its declared action vocabulary and a
// synchronous step executor. Instances are owned by the registry once
// registered and destroyed only on explicit unregistration or registry
// teardown.
type Plugin interface {
	// Name returns the plugin name, unique across the registry.
	Name() string

	// Description returns a human-readable plugin description.
	Description() string

	// Version returns the plugin version string. An empty version is a
	// soft warning at registration, not a rejection.
	Version() string

	// SupportedActions returns the declared action vocabulary. The Runner
	// refuses to dispatch actions outside this set.
	SupportedActions() []string

	// Initialize prepares the plugin for use. It is invoked exactly once
	// per successful registration, before the plugin is exposed to the
	// Runner; a failure rolls the registration back entirely.
	Initialize() error

	// Uninitialize releases plugin resources. Invoked exactly once for
	// every initialized plugin, on unregistration or registry teardown.
	Uninitialize()

	// ExecuteStep performs one automation step and reports its outcome.
	// The call may block up to the plugin's own handling of
	// param.Timeout; the Runner does not enforce the deadline. Panics are
	// contained by the Runner's failure boundary.
	ExecuteStep(ctx context.Context, param StepParam) StepResult
}

// PluginLookup is the read-only registry view the Runner depends on.
// Implementations must support concurrent lookups from multiple case runs.
type PluginLookup interface {
	// Lookup returns the plugin registered under name. Absence is not a
	// fault: ok is false and the Runner converts it into a failed
	// StepResult.
	Lookup(name string) (Plugin, bool)
}

// DataResolver resolves ${dataset.item} references against the data store.
// Resolution is a pure read: it never mutates the store.
type DataResolver interface {
	// ResolveReference resolves a single reference that must match the
	// full-string grammar exactly. Syntax, unknown-dataset and
	// unknown-item failures are distinct error kinds.
	ResolveReference(reference string) (string, error)

	// SubstituteAll replaces every resolvable token occurrence in text,
	// leaves unresolved tokens verbatim and never re-resolves inserted
	// values.
	SubstituteAll(text string) string
}

// DataSource hands out resolvers scoped to a case's associated datasets.
type DataSource interface {
	// Resolver returns a DataResolver restricted to the given dataset IDs.
	// An empty list means all datasets are visible.
	Resolver(datasetIDs ...string) DataResolver
}

// HookRunner executes named setup/teardown hooks at the designated points
// of the run state machine. Hook failures are reported by return value,
// never raised through the Runner.
type HookRunner interface {
	// RunHook executes the hook registered under name.
	RunHook(ctx context.Context, name string) error
}
