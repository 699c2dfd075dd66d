package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/docmind-ai/docmind/pkg/common"
)

// chainGraph is a -> b -> c -> d with one relationship per hop.
func chainGraph() *common.Graph {
	return &common.Graph{
		Entities: []common.Entity{
			{ID: "a", Label: "A"},
			{ID: "b", Label: "B"},
			{ID: "c", Label: "C"},
			{ID: "d", Label: "D"},
		},
		Relationships: []common.Relationship{
			{ID: "r1", SourceID: "a", TargetID: "b", Type: "knows"},
			{ID: "r2", SourceID: "b", TargetID: "c", Type: "knows"},
			{ID: "r3", SourceID: "c", TargetID: "d", Type: "knows"},
		},
	}
}

func entityIDs(entities []common.Entity) []string {
	out := make([]string, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.ID)
	}
	return out
}

func TestExpandEntities_HopDepthOneReturnsSeeds(t *testing.T) {
	g := chainGraph()
	seeds := []common.Entity{g.Entities[0]}

	out := expandEntities(g, seeds, 1)

	assert.Equal(t, []string{"a"}, entityIDs(out))
}

func TestExpandEntities_AddsOneHopPerLevel(t *testing.T) {
	g := chainGraph()
	seeds := []common.Entity{g.Entities[0]}

	assert.Equal(t, []string{"a", "b"}, entityIDs(expandEntities(g, seeds, 2)))
	assert.Equal(t, []string{"a", "b", "c"}, entityIDs(expandEntities(g, seeds, 3)))
}

func TestExpandEntities_TraversesBothDirections(t *testing.T) {
	g := chainGraph()
	seeds := []common.Entity{g.Entities[2]} // c: neighbors via incoming r2 and outgoing r3

	out := expandEntities(g, seeds, 2)

	assert.ElementsMatch(t, []string{"c", "b", "d"}, entityIDs(out))
}

func TestExpandEntities_StopsWhenFrontierIsExhausted(t *testing.T) {
	g := &common.Graph{
		Entities: []common.Entity{
			{ID: "a", Label: "A"},
			{ID: "b", Label: "B"},
			{ID: "x", Label: "X"}, // disconnected
		},
		Relationships: []common.Relationship{
			{ID: "r1", SourceID: "a", TargetID: "b", Type: "knows"},
		},
	}
	seeds := []common.Entity{g.Entities[0]}

	// A large depth must not loop or pull in disconnected entities.
	out := expandEntities(g, seeds, 10)

	assert.ElementsMatch(t, []string{"a", "b"}, entityIDs(out))
}

func TestExpandEntities_DedupesOverlappingSeeds(t *testing.T) {
	g := chainGraph()
	seeds := []common.Entity{g.Entities[0], g.Entities[0], g.Entities[1]}

	out := expandEntities(g, seeds, 1)

	assert.Equal(t, []string{"a", "b"}, entityIDs(out))
}
