package models

import (
	"maps"
	"slices"
)

// CloneMetadata copies m and every map or slice nested inside it, so the
// result shares no mutable state with m.
func CloneMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneMetadata(t)
	case []any:
		if t == nil {
			return t
		}
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = cloneValue(x)
		}
		return out
	case []int:
		return slices.Clone(t)
	case []int64:
		return slices.Clone(t)
	case []float64:
		return slices.Clone(t)
	case []float32:
		return slices.Clone(t)
	case []string:
		return slices.Clone(t)
	case []bool:
		return slices.Clone(t)
	case map[string]string:
		return maps.Clone(t)
	case map[string]int:
		return maps.Clone(t)
	case []Source:
		return slices.Clone(t)
	default:
		return v
	}
}
