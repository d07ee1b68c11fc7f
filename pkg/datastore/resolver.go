package datastore

import (
	"regexp"
	"strings"

	"github.com/caseflow/caseflow/pkg/engine"
)

// referencePattern is the full-string grammar of a single data reference:
// ${dataset.item}. The dataset part never contains a dot; the item part
// runs to the closing brace.
var referencePattern = regexp.MustCompile(`^\$\{([^.}]+)\.([^}]+)\}$`)

// Resolver resolves ${dataset.item} references against the store,
// optionally scoped to a set of dataset IDs. It implements
// engine.DataResolver. Resolution is a pure read of store state.
type Resolver struct {
	store *Store

	// scope restricts visible datasets by ID. Empty means all visible.
	scope map[string]bool
}

// Resolver returns a resolver scoped to the given dataset IDs. It
// implements engine.DataSource. With no IDs, every dataset is visible.
func (s *Store) Resolver(datasetIDs ...string) engine.DataResolver {
	r := &Resolver{store: s}
	if len(datasetIDs) > 0 {
		r.scope = make(map[string]bool, len(datasetIDs))
		for _, id := range datasetIDs {
			r.scope[id] = true
		}
	}
	return r
}

// ResolveReference resolves a single reference that must match the
// ${dataset.item} grammar exactly. It distinguishes syntax errors from
// unknown datasets and unknown items.
func (r *Resolver) ResolveReference(reference string) (string, error) {
	m := referencePattern.FindStringSubmatch(reference)
	if m == nil {
		return "", engine.NewResolutionError("malformed data reference", nil).
			WithCode(engine.ErrCodeBadReference).
			WithReference(reference)
	}
	return r.resolve(m[1], m[2], reference)
}

// resolve looks up an item value by dataset and item name.
func (r *Resolver) resolve(datasetName, itemName, reference string) (string, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, exists := r.store.byName[datasetName]
	if !exists || (r.scope != nil && !r.scope[id]) {
		// An out-of-scope dataset is indistinguishable from an unknown one.
		return "", engine.NewResolutionError("unknown dataset", nil).
			WithCode(engine.ErrCodeUnknownDataset).
			WithReference(reference)
	}

	item := r.store.datasets[id].item(itemName)
	if item == nil {
		return "", engine.NewResolutionError("unknown item", nil).
			WithCode(engine.ErrCodeUnknownItem).
			WithReference(reference)
	}
	return item.Value, nil
}

// SubstituteAll replaces every resolvable ${dataset.item} occurrence in
// text. Unresolvable or malformed tokens stay verbatim, each distinct
// token is resolved at most once, and inserted values are never
// rescanned for further references.
func (r *Resolver) SubstituteAll(text string) string {
	if !strings.Contains(text, "${") {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))

	// token -> resolved value; nil marks a token already known unresolvable.
	cache := make(map[string]*string)

	pos := 0
	for {
		start := strings.Index(text[pos:], "${")
		if start < 0 {
			b.WriteString(text[pos:])
			break
		}
		start += pos
		b.WriteString(text[pos:start])

		end := strings.Index(text[start:], "}")
		if end < 0 {
			// Unterminated token: the remainder passes through verbatim.
			b.WriteString(text[start:])
			r.recordMiss(text[start:])
			break
		}
		end += start
		token := text[start : end+1]

		value, seen := cache[token]
		if !seen {
			if resolved, err := r.ResolveReference(token); err == nil {
				value = &resolved
			} else {
				r.recordMiss(token)
			}
			cache[token] = value
		}

		if value != nil {
			b.WriteString(*value)
		} else {
			b.WriteString(token)
		}
		pos = end + 1
	}
	return b.String()
}

func (r *Resolver) recordMiss(token string) {
	r.store.metrics.ResolutionMiss()
	r.store.logger.Debugf("unresolved data reference: %s", token)
}
