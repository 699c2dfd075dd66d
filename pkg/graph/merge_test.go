package graph

import (
	"reflect"
	"testing"

	"github.com/docmind-ai/docmind/pkg/common"
)

func TestDedupeRelationships_UnionsProvenance(t *testing.T) {
	rels := []common.Relationship{
		{
			ID: "r1", SourceID: "a", TargetID: "b", Type: "works at",
			ChunkSources: map[string][]int{"d1": {0}},
			DocumentIDs:  []string{"d1"},
		},
		{
			ID: "r2", SourceID: "a", TargetID: "b", Type: "Works At",
			ChunkSources: map[string][]int{"d2": {4}},
			DocumentIDs:  []string{"d2"},
		},
	}

	out := dedupeRelationships(rels)
	if len(out) != 1 {
		t.Fatalf("expected 1 relationship after dedupe, got %d", len(out))
	}
	if out[0].ID != "r1" {
		t.Fatalf("expected first occurrence to keep its id, got %s", out[0].ID)
	}
	if !reflect.DeepEqual(out[0].ChunkSources, map[string][]int{"d1": {0}, "d2": {4}}) {
		t.Fatalf("expected unioned chunk sources, got %v", out[0].ChunkSources)
	}
	if !reflect.DeepEqual(out[0].DocumentIDs, []string{"d1", "d2"}) {
		t.Fatalf("expected unioned document ids, got %v", out[0].DocumentIDs)
	}
}

func TestDedupeRelationships_DirectionIsSignificant(t *testing.T) {
	rels := []common.Relationship{
		{ID: "r1", SourceID: "a", TargetID: "b", Type: "partners with"},
		{ID: "r2", SourceID: "b", TargetID: "a", Type: "partners with"},
	}

	out := dedupeRelationships(rels)
	if len(out) != 2 {
		t.Fatalf("expected opposite directions to stay separate, got %d", len(out))
	}
}

func TestRemapRelationships_DropsUnresolvableEndpoints(t *testing.T) {
	rels := []common.Relationship{
		{ID: "r1", SourceID: "old-a", TargetID: "old-b", Type: "leads"},
		{ID: "r2", SourceID: "old-a", TargetID: "ghost", Type: "leads"},
	}
	remap := map[string]string{"old-a": "a", "old-b": "b"}

	out := remapRelationships(rels, remap)
	if len(out) != 1 {
		t.Fatalf("expected relationship with unknown endpoint to be dropped, got %d", len(out))
	}
	if out[0].SourceID != "a" || out[0].TargetID != "b" {
		t.Fatalf("expected endpoints remapped to canonical ids, got %s -> %s", out[0].SourceID, out[0].TargetID)
	}
}

func TestBuildIDRemap_MapsVariantsToCanonicalID(t *testing.T) {
	inputs := []common.Entity{
		{ID: "e1", Label: "Acme Corp"},
		{ID: "e2", Label: "Acme Corporation"},
		{ID: "e3", Label: "Jane Doe"},
	}
	mapping := map[string]string{
		"Acme Corp":        "Acme Corp",
		"Acme Corporation": "Acme Corp",
		"Jane Doe":         "Jane Doe",
	}
	resolved := []common.Entity{
		{ID: "e1", Label: "Acme Corp"},
		{ID: "e3", Label: "Jane Doe"},
	}

	remap := buildIDRemap(inputs, mapping, resolved)
	want := map[string]string{"e1": "e1", "e2": "e1", "e3": "e3"}
	if !reflect.DeepEqual(remap, want) {
		t.Fatalf("expected %v, got %v", want, remap)
	}
}
