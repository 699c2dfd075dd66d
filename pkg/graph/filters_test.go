package graph

import (
	"reflect"
	"testing"
)

func TestMergeFilters(t *testing.T) {
	tests := []struct {
		name       string
		existing   map[string]any
		additional map[string]any
		want       map[string]any
	}{
		{
			name:       "new keys are added",
			existing:   map[string]any{"category": "finance"},
			additional: map[string]any{"region": "emea"},
			want:       map[string]any{"category": "finance", "region": "emea"},
		},
		{
			name:       "lists are unioned without duplicates",
			existing:   map[string]any{"tags": []any{"a", "b"}},
			additional: map[string]any{"tags": []any{"b", "c"}},
			want:       map[string]any{"tags": []any{"a", "b", "c"}},
		},
		{
			name:       "maps merge recursively",
			existing:   map[string]any{"meta": map[string]any{"team": "core", "tier": "1"}},
			additional: map[string]any{"meta": map[string]any{"tier": "2", "env": "prod"}},
			want:       map[string]any{"meta": map[string]any{"team": "core", "tier": "2", "env": "prod"}},
		},
		{
			name:       "scalars are overwritten",
			existing:   map[string]any{"category": "finance"},
			additional: map[string]any{"category": "legal"},
			want:       map[string]any{"category": "legal"},
		},
		{
			name:       "type mismatch falls back to overwrite",
			existing:   map[string]any{"tags": []any{"a"}},
			additional: map[string]any{"tags": "b"},
			want:       map[string]any{"tags": "b"},
		},
		{
			name:       "nil existing starts fresh",
			existing:   nil,
			additional: map[string]any{"category": "finance"},
			want:       map[string]any{"category": "finance"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mergeFilters(tt.existing, tt.additional)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
