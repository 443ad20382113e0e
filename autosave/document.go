package autosave

import (
	"fmt"
	"reflect"
	"sort"
)

// Document is the editable value managed by the engine. Updates are
// shallow merges of top-level fields; values may be nested but the
// engine never diffs below the top level.
type Document map[string]any

// Clone returns a deep copy of the document. Nested maps and slices are
// copied recursively; other values are copied by assignment.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = cloneValue(inner)
		}
		return out
	case Document:
		return map[string]any(val.Clone())
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = cloneValue(inner)
		}
		return out
	default:
		return v
	}
}

// Merge shallow-merges the fields of partial into the document.
func (d Document) Merge(partial Document) {
	for k, v := range partial {
		d[k] = cloneValue(v)
	}
}

// Equal reports structural equality between two documents. This is the
// dirtiness check: a document equal to its baseline has no unsaved
// changes.
func (d Document) Equal(other Document) bool {
	if len(d) != len(other) {
		return false
	}
	return reflect.DeepEqual(map[string]any(d), map[string]any(other))
}

// DiffFields returns the sorted set of top-level keys whose values
// differ between local and server. Values are compared by their printed
// form, matching the behavior the conflict UI was built against; nested
// structures are not diffed.
func DiffFields(local, server Document) []string {
	seen := make(map[string]struct{}, len(local)+len(server))
	var fields []string

	addIfDiffers := func(key string) {
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		lv, lok := local[key]
		sv, sok := server[key]
		if lok != sok || fmt.Sprintf("%v", lv) != fmt.Sprintf("%v", sv) {
			fields = append(fields, key)
		}
	}

	for k := range local {
		addIfDiffers(k)
	}
	for k := range server {
		addIfDiffers(k)
	}

	sort.Strings(fields)
	return fields
}
