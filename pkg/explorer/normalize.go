package explorer

// Normalize flattens gateway items into the shape callers see: nested
// "properties" maps merge up into their parent object and the transport
// bookkeeping fields (out_edges, in_edges, vectors, version) disappear.
// Results from the compiled-query fast path and from the tool pipeline
// normalize to the same shape.
//
// Normalize is pure and idempotent: the input is never mutated, and
// normalizing an already-normalized value returns an equal value.
func Normalize(v any) any {
	switch val := v.(type) {
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Normalize(item)
		}
		return out
	case map[string]any:
		return normalizeObject(val)
	default:
		return v
	}
}

func normalizeObject(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}

	// Merge nested property maps until none remain. A property that is
	// itself named "properties" surfaces on the next round, so a single
	// pass is not enough.
	for {
		raw, ok := out["properties"]
		if !ok {
			break
		}
		delete(out, "properties")
		props, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		for k, v := range props {
			out[k] = v
		}
	}

	delete(out, "out_edges")
	delete(out, "in_edges")
	delete(out, "vectors")
	delete(out, "version")

	for k, v := range out {
		out[k] = Normalize(v)
	}
	return out
}
