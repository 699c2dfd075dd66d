package graph

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/docmind-ai/docmind/pkg/common"
)

func TestResolveEntities_MergesSynonymGroup(t *testing.T) {
	client := &fakeAIClient{
		resolveJSON: `{"groups":[{"canonical":"Acme Corp","variants":["Acme Corporation","ACME"]}]}`,
	}
	resolver := NewResolver(client, 1)

	entities := []common.Entity{
		{
			ID: "e1", Label: "Acme Corp", Type: "ORGANIZATION",
			Properties:   map[string]any{"industry": "robotics"},
			ChunkSources: map[string][]int{"d1": {0}},
			DocumentIDs:  []string{"d1"},
		},
		{
			ID: "e2", Label: "Acme Corporation", Type: "ORGANIZATION",
			Properties:   map[string]any{"founded": "1999", "industry": "toys"},
			ChunkSources: map[string][]int{"d2": {3}},
			DocumentIDs:  []string{"d2"},
		},
		{
			ID: "e3", Label: "Jane Doe", Type: "PERSON",
			ChunkSources: map[string][]int{"d1": {0}},
			DocumentIDs:  []string{"d1"},
		},
	}

	resolved, mapping := resolver.ResolveEntities(context.Background(), entities, nil)

	if len(resolved) != 2 {
		t.Fatalf("expected 2 resolved entities, got %d", len(resolved))
	}
	if mapping["Acme Corporation"] != "Acme Corp" {
		t.Fatalf("expected variant to map to canonical, got %q", mapping["Acme Corporation"])
	}
	if mapping["Jane Doe"] != "Jane Doe" {
		t.Fatalf("expected untouched label to map to itself, got %q", mapping["Jane Doe"])
	}

	var acme *common.Entity
	for i := range resolved {
		if resolved[i].Label == "Acme Corp" {
			acme = &resolved[i]
		}
	}
	if acme == nil {
		t.Fatal("canonical entity missing from result")
	}
	if acme.ID != "e1" {
		t.Fatalf("expected first occurrence to keep its id, got %s", acme.ID)
	}
	if !reflect.DeepEqual(acme.DocumentIDs, []string{"d1", "d2"}) {
		t.Fatalf("expected unioned document ids, got %v", acme.DocumentIDs)
	}
	if !reflect.DeepEqual(acme.ChunkSources, map[string][]int{"d1": {0}, "d2": {3}}) {
		t.Fatalf("expected unioned chunk sources, got %v", acme.ChunkSources)
	}
	// Existing property values win; missing keys are filled in.
	if acme.Properties["industry"] != "robotics" {
		t.Fatalf("expected existing property to win, got %v", acme.Properties["industry"])
	}
	if acme.Properties["founded"] != "1999" {
		t.Fatalf("expected missing property to be filled, got %v", acme.Properties["founded"])
	}
	aliases := aliasList(acme.Properties)
	if !reflect.DeepEqual(aliases, []string{"Acme Corporation"}) {
		t.Fatalf("expected absorbed label as alias, got %v", aliases)
	}
}

func TestResolveEntities_FailureFallsBackToIdentity(t *testing.T) {
	client := &fakeAIClient{resolveErr: errors.New("model unavailable")}
	resolver := NewResolver(client, 2)

	entities := []common.Entity{
		{ID: "e1", Label: "Alpha", Type: "CONCEPT"},
		{ID: "e2", Label: "Beta", Type: "CONCEPT"},
	}

	resolved, mapping := resolver.ResolveEntities(context.Background(), entities, nil)

	if len(resolved) != 2 {
		t.Fatalf("expected identity fallback to keep all entities, got %d", len(resolved))
	}
	for _, e := range entities {
		if mapping[e.Label] != e.Label {
			t.Fatalf("expected identity mapping for %q, got %q", e.Label, mapping[e.Label])
		}
	}
}

func TestResolveEntities_SingleEntityShortCircuits(t *testing.T) {
	// The client would fail if called; a single entity must not reach it.
	client := &fakeAIClient{resolveErr: errors.New("should not be called")}
	resolver := NewResolver(client, 1)

	entities := []common.Entity{{ID: "e1", Label: "Solo", Type: "CONCEPT"}}
	resolved, mapping := resolver.ResolveEntities(context.Background(), entities, nil)

	if len(resolved) != 1 || resolved[0].Label != "Solo" {
		t.Fatalf("unexpected resolution result: %+v", resolved)
	}
	if mapping["Solo"] != "Solo" {
		t.Fatalf("expected identity mapping, got %q", mapping["Solo"])
	}
}

func TestResolveEntities_CaseInsensitiveVariantMatch(t *testing.T) {
	client := &fakeAIClient{
		resolveJSON: `{"groups":[{"canonical":"OpenAI","variants":["openai inc"]}]}`,
	}
	resolver := NewResolver(client, 1)

	entities := []common.Entity{
		{ID: "e1", Label: "OpenAI", Type: "ORGANIZATION"},
		{ID: "e2", Label: "OpenAI Inc", Type: "ORGANIZATION"},
	}

	resolved, mapping := resolver.ResolveEntities(context.Background(), entities, nil)
	if len(resolved) != 1 {
		t.Fatalf("expected case-insensitive variant to merge, got %d entities", len(resolved))
	}
	if mapping["OpenAI Inc"] != "OpenAI" {
		t.Fatalf("expected mapping under exact input spelling, got %q", mapping["OpenAI Inc"])
	}
}

func TestApplyResolution_DedupesAliasesCaseInsensitively(t *testing.T) {
	entities := []common.Entity{
		{ID: "e1", Label: "NASA", Properties: map[string]any{"aliases": []any{"N.A.S.A."}}},
		{ID: "e2", Label: "nasa", Properties: map[string]any{"aliases": []string{"n.a.s.a."}}},
	}
	mapping := map[string]string{"NASA": "NASA", "nasa": "NASA"}

	out := applyResolution(entities, mapping)
	if len(out) != 1 {
		t.Fatalf("expected 1 merged entity, got %d", len(out))
	}
	// "n.a.s.a." differs from "N.A.S.A." only by case and must not be
	// recorded twice; "nasa" matches the canonical label itself.
	aliases := aliasList(out[0].Properties)
	if len(aliases) != 1 || aliases[0] != "N.A.S.A." {
		t.Fatalf("expected [N.A.S.A.], got %v", aliases)
	}
}
