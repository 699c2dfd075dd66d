package graph

// mergeFilters merges newly supplied filters into the graph's stored ones:
// list-valued fields are unioned, map-valued fields are merged recursively,
// and every other type is overwritten by the new value.
func mergeFilters(existing, additional map[string]any) map[string]any {
	if existing == nil {
		existing = make(map[string]any)
	}
	for key, newVal := range additional {
		oldVal, ok := existing[key]
		if !ok {
			existing[key] = newVal
			continue
		}

		switch oldTyped := oldVal.(type) {
		case []any:
			if newList, ok := newVal.([]any); ok {
				existing[key] = unionLists(oldTyped, newList)
				continue
			}
		case map[string]any:
			if newMap, ok := newVal.(map[string]any); ok {
				existing[key] = mergeFilters(oldTyped, newMap)
				continue
			}
		}
		existing[key] = newVal
	}
	return existing
}

func unionLists(a, b []any) []any {
	out := make([]any, 0, len(a)+len(b))
	out = append(out, a...)
	for _, item := range b {
		found := false
		for _, existing := range a {
			if existing == item {
				found = true
				break
			}
		}
		if !found {
			out = append(out, item)
		}
	}
	return out
}
