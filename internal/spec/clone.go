package spec

import "github.com/solatis/vizconf/internal/types"

// IsRecord reports whether v is a plain record (map[string]any or types.Spec).
func IsRecord(v any) bool {
	_, ok := asRecord(v)
	return ok
}

// IsArray reports whether v is a []any sequence.
func IsArray(v any) bool {
	_, ok := v.([]any)
	return ok
}

func asRecord(v any) (map[string]any, bool) {
	switch r := v.(type) {
	case map[string]any:
		return r, r != nil
	case types.Spec:
		return map[string]any(r), r != nil
	default:
		return nil, false
	}
}

// Clone deep-copies plain records and []any sequences.
// Any other value, including pointers and non-record maps, is returned as is.
// Cloned records are always map[string]any.
func Clone(v any) any {
	if rec, ok := asRecord(v); ok {
		out := make(map[string]any, len(rec))
		for k, item := range rec {
			out[k] = Clone(item)
		}
		return out
	}
	if arr, ok := v.([]any); ok {
		if arr == nil {
			return arr
		}
		out := make([]any, len(arr))
		for i, item := range arr {
			out[i] = Clone(item)
		}
		return out
	}
	return v
}

// CloneSpec deep-copies a specification fragment. Returns nil for nil.
func CloneSpec(s types.Spec) types.Spec {
	if s == nil {
		return nil
	}
	return types.Spec(Clone(s).(map[string]any))
}
