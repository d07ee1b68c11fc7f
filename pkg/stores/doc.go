// Package stores persists case run results to SQLite so run history
// survives process restarts. The schema is managed through embedded
// migrations.
package stores
