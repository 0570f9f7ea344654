// FILE: src/internal/redact/redact.go
package redact

import (
	"sort"
	"strings"
)

// Placeholder replaces redacted values in the cloned params tree
const Placeholder = "[REDACTED]"

// Apply walks each dotted path into the params tree and replaces the
// value it lands on with Placeholder. The input tree is never mutated;
// the result is a clone. The second return lists the paths that
// actually matched, sorted; both returns are nil when nothing matched.
func Apply(params map[string]any, keys []string) (map[string]any, []string) {
	if len(params) == 0 || len(keys) == 0 {
		return nil, nil
	}

	var hit []string
	var clone map[string]any
	seen := make(map[string]bool, len(keys))

	for _, key := range keys {
		if seen[key] {
			continue
		}
		seen[key] = true

		path := strings.Split(key, ".")
		if len(path) == 0 || path[0] == "" {
			continue
		}
		source := params
		if clone != nil {
			source = clone
		}
		if redacted, ok := redactPath(source, path); ok {
			clone = redacted
			hit = append(hit, key)
		}
	}

	if len(hit) == 0 {
		return nil, nil
	}
	sort.Strings(hit)
	return clone, hit
}

// Func binds a fixed key set into a redaction function with the shape
// the dispatcher accepts.
func Func(keys ...string) func(map[string]any) (map[string]any, []string) {
	bound := append([]string(nil), keys...)
	return func(params map[string]any) (map[string]any, []string) {
		return Apply(params, bound)
	}
}

// redactPath clones nodes along the path and replaces the leaf; it
// reports false without cloning when the path does not resolve.
func redactPath(node map[string]any, path []string) (map[string]any, bool) {
	head := path[0]
	value, exists := node[head]
	if !exists {
		return nil, false
	}

	if len(path) == 1 {
		dup := cloneLevel(node)
		dup[head] = Placeholder
		return dup, true
	}

	child, ok := value.(map[string]any)
	if !ok {
		return nil, false
	}
	redactedChild, ok := redactPath(child, path[1:])
	if !ok {
		return nil, false
	}
	dup := cloneLevel(node)
	dup[head] = redactedChild
	return dup, true
}

func cloneLevel(node map[string]any) map[string]any {
	dup := make(map[string]any, len(node))
	for k, v := range node {
		dup[k] = v
	}
	return dup
}
