package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/docmind-ai/docmind/pkg/common"
)

// provenanceGraph builds Jane --(leads)--> Acme --(acquired)--> Initech where
// every edge is backed by a shared (document, chunk) occurrence.
func provenanceGraph() *common.Graph {
	return &common.Graph{
		Entities: []common.Entity{
			{ID: "e1", Label: "Jane Doe", ChunkSources: map[string][]int{"d1": {0}}},
			{ID: "e2", Label: "Acme Corp", ChunkSources: map[string][]int{"d1": {0}, "d2": {1}}},
			{ID: "e3", Label: "Initech", ChunkSources: map[string][]int{"d2": {1}}},
		},
		Relationships: []common.Relationship{
			{ID: "r1", SourceID: "e1", TargetID: "e2", Type: "leads", ChunkSources: map[string][]int{"d1": {0}}},
			{ID: "r2", SourceID: "e2", TargetID: "e3", Type: "acquired", ChunkSources: map[string][]int{"d2": {1}}},
		},
	}
}

func TestFindPaths_RendersDirectedTraversals(t *testing.T) {
	g := provenanceGraph()
	seeds := []common.Entity{g.Entities[0]}

	paths := findPaths(g, seeds, 2, 10)

	texts := make([]string, 0, len(paths))
	for _, p := range paths {
		texts = append(texts, p.text)
	}
	assert.Contains(t, texts, "Jane Doe --(leads)--> Acme Corp")
	assert.Contains(t, texts, "Jane Doe --(leads)--> Acme Corp --(acquired)--> Initech")
}

func TestFindPaths_ReversedEdgeUsesIncomingArrow(t *testing.T) {
	g := provenanceGraph()
	seeds := []common.Entity{g.Entities[1]} // Acme Corp

	paths := findPaths(g, seeds, 1, 10)

	texts := make([]string, 0, len(paths))
	for _, p := range paths {
		texts = append(texts, p.text)
	}
	assert.Contains(t, texts, "Acme Corp <--(leads)-- Jane Doe")
	assert.Contains(t, texts, "Acme Corp --(acquired)--> Initech")
}

func TestFindPaths_ProvenanceGateBlocksUnsupportedEdges(t *testing.T) {
	g := provenanceGraph()
	// Relationship exists but its provenance does not overlap the entities'
	// shared chunks; the edge must not appear in any path.
	g.Relationships[0].ChunkSources = map[string][]int{"d9": {7}}
	seeds := []common.Entity{g.Entities[0]}

	paths := findPaths(g, seeds, 3, 10)

	assert.Empty(t, paths)
}

func TestFindPaths_HopDepthCapsPathLength(t *testing.T) {
	g := provenanceGraph()
	seeds := []common.Entity{g.Entities[0]}

	paths := findPaths(g, seeds, 1, 10)

	assert.Len(t, paths, 1)
	assert.Equal(t, "Jane Doe --(leads)--> Acme Corp", paths[0].text)
}

func TestFindPaths_RespectsMaxPaths(t *testing.T) {
	g := provenanceGraph()
	seeds := []common.Entity{g.Entities[0]}

	paths := findPaths(g, seeds, 2, 1)

	assert.Len(t, paths, 1)
}

func TestFindPaths_AvoidsCycles(t *testing.T) {
	g := &common.Graph{
		Entities: []common.Entity{
			{ID: "a", Label: "A", ChunkSources: map[string][]int{"d1": {0}}},
			{ID: "b", Label: "B", ChunkSources: map[string][]int{"d1": {0}}},
		},
		Relationships: []common.Relationship{
			{ID: "r1", SourceID: "a", TargetID: "b", Type: "peers with", ChunkSources: map[string][]int{"d1": {0}}},
			{ID: "r2", SourceID: "b", TargetID: "a", Type: "peers with", ChunkSources: map[string][]int{"d1": {0}}},
		},
	}
	seeds := []common.Entity{g.Entities[0]}

	paths := findPaths(g, seeds, 5, 100)

	for _, p := range paths {
		assert.LessOrEqual(t, len(p.entities), 2, "path revisits an entity: %s", p.text)
	}
}

func TestPathEntityLabels(t *testing.T) {
	paths := []renderedPath{
		{entities: []string{"Jane Doe", "Acme Corp"}},
		{entities: []string{"Jane Doe", "Acme Corp", "Initech"}},
	}

	assert.Equal(t, []string{"Jane Doe", "Acme Corp", "Initech"}, pathEntityLabels(paths))
}

func TestRenderPathBlock(t *testing.T) {
	paths := []renderedPath{
		{text: "A --(knows)--> B"},
		{text: "B --(knows)--> C"},
	}

	block := renderPathBlock(paths, 1)
	assert.Equal(t, "Entity paths relevant to the question:\n- A --(knows)--> B\n", block)

	assert.Empty(t, renderPathBlock(nil, 5))
}
