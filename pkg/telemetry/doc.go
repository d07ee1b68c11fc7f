// Package telemetry provides structured logging and Prometheus metrics for
// CaseFlow. Loggers are injected into the registry, the data store and the
// runner at construction time; there is no process-wide mutable singleton.
package telemetry
