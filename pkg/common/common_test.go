package common

import (
	"reflect"
	"testing"
)

func TestEntityAddChunkSource(t *testing.T) {
	var e Entity

	e.AddChunkSource("d1", 3)
	e.AddChunkSource("d1", 1)
	e.AddChunkSource("d1", 3) // duplicate
	e.AddChunkSource("d2", 0)

	want := map[string][]int{"d1": {1, 3}, "d2": {0}}
	if !reflect.DeepEqual(e.ChunkSources, want) {
		t.Fatalf("expected sorted deduplicated chunk sources %v, got %v", want, e.ChunkSources)
	}
	if !reflect.DeepEqual(e.DocumentIDs, []string{"d1", "d2"}) {
		t.Fatalf("expected document ids kept in sync, got %v", e.DocumentIDs)
	}
}

func TestRelationshipAddChunkSource(t *testing.T) {
	var r Relationship

	r.AddChunkSource("d1", 2)
	r.AddChunkSource("d1", 2)

	if !reflect.DeepEqual(r.ChunkSources, map[string][]int{"d1": {2}}) {
		t.Fatalf("expected deduplicated chunk sources, got %v", r.ChunkSources)
	}
	if !reflect.DeepEqual(r.DocumentIDs, []string{"d1"}) {
		t.Fatalf("expected document ids kept in sync, got %v", r.DocumentIDs)
	}
}

func TestMergeChunkSources(t *testing.T) {
	dst := map[string][]int{"d1": {0, 2}}
	src := map[string][]int{"d1": {1, 2}, "d2": {5}}

	got := MergeChunkSources(dst, src)

	want := map[string][]int{"d1": {0, 1, 2}, "d2": {5}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestMergeChunkSources_NilDestination(t *testing.T) {
	got := MergeChunkSources(nil, map[string][]int{"d1": {0}})

	if !reflect.DeepEqual(got, map[string][]int{"d1": {0}}) {
		t.Fatalf("expected a fresh copy, got %v", got)
	}
}

func TestUnionDocumentIDs(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want []string
	}{
		{
			name: "preserves first-appearance order",
			a:    []string{"d2", "d1"},
			b:    []string{"d3", "d1"},
			want: []string{"d2", "d1", "d3"},
		},
		{
			name: "dedupes within one side",
			a:    []string{"d1", "d1"},
			b:    nil,
			want: []string{"d1"},
		},
		{
			name: "both empty",
			a:    nil,
			b:    nil,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UnionDocumentIDs(tt.a, tt.b)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
