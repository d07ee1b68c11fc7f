// Package datastore manages named datasets of test data items and
// resolves ${dataset.item} references for the runner. Datasets can be
// created programmatically, imported from JSON or YAML files and hot
// reloaded from a watched directory.
package datastore
