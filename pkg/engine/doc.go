// Package engine provides the core types and interfaces for the CaseFlow
// test orchestration engine. It defines the plugin capability contract,
// the test case and result data model, and the Runner that walks a case's
// step list: resolve data references -> dispatch to the named plugin ->
// aggregate per-step results into a case-level result.
//
// A case run is strictly single-threaded and synchronous; steps execute in
// declared order because later steps may depend on side effects of earlier
// ones. Running independent cases concurrently is supported: each run owns
// its own CaseResult and only reads from the plugin registry and the data
// store.
package engine
