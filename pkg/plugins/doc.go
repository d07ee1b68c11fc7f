// Package plugins manages the lifecycle of automation plugins: module
// registration with rollback, name-keyed lookup for the runner, explicit
// unregistration and full teardown. The Registry owns every plugin
// instance it accepts; callers interact with plugins only through the
// engine.Plugin contract.
package plugins
