// FILE: src/internal/core/template.go
package core

import (
	"fmt"
	"strings"
)

// Interpolate renders {key} placeholders in a message template from the
// params tree. Keys may be dotted paths into nested maps. Placeholders
// without a matching param are left verbatim so the gap is visible in
// the delivered line.
func Interpolate(template string, params map[string]any) string {
	if template == "" || len(params) == 0 || !strings.Contains(template, "{") {
		return template
	}

	var b strings.Builder
	b.Grow(len(template))

	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		close := strings.IndexByte(rest[open:], '}')
		if close < 0 {
			b.WriteString(rest)
			break
		}
		close += open

		b.WriteString(rest[:open])
		key := rest[open+1 : close]

		if value, ok := lookupPath(params, key); ok {
			b.WriteString(formatValue(value))
		} else {
			// No such param, keep the placeholder
			b.WriteString(rest[open : close+1])
		}
		rest = rest[close+1:]
	}

	return b.String()
}

// lookupPath resolves a dotted path against nested string-keyed maps
func lookupPath(params map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}

	segments := strings.Split(path, ".")
	var current any = params
	for _, seg := range segments {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[seg]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func formatValue(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%v", v)
}
