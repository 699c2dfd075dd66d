package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/docmind-ai/docmind/pkg/common"
)

func TestCombineChunks_BoostsGraphChunks(t *testing.T) {
	vector := []common.ChunkResult{
		{DocumentID: "d1", ChunkNumber: 0, Score: 0.8},
	}
	graph := []common.ChunkResult{
		{DocumentID: "d2", ChunkNumber: 0, Score: 0.6},
	}

	out := combineChunks(vector, graph, 10)

	assert.Len(t, out, 2)
	assert.Equal(t, "d1", out[0].DocumentID)
	assert.InDelta(t, 0.8, out[0].Score, 1e-9)
	assert.Equal(t, "d2", out[1].DocumentID)
	assert.InDelta(t, 0.63, out[1].Score, 1e-9)
}

func TestCombineChunks_GraphBaseScoreAndCap(t *testing.T) {
	graph := []common.ChunkResult{
		{DocumentID: "d1", ChunkNumber: 0},            // no score, gets the base
		{DocumentID: "d2", ChunkNumber: 0, Score: 0.99}, // boost would exceed 1.0
	}

	out := combineChunks(nil, graph, 10)

	assert.Len(t, out, 2)
	assert.InDelta(t, 1.0, out[0].Score, 1e-9)
	assert.Equal(t, "d2", out[0].DocumentID)
	assert.InDelta(t, 0.7*1.05, out[1].Score, 1e-9)
	assert.Equal(t, "d1", out[1].DocumentID)
}

func TestCombineChunks_CollisionBoostsVectorScore(t *testing.T) {
	vector := []common.ChunkResult{
		{DocumentID: "d1", ChunkNumber: 3, Score: 0.9, Content: "from vector"},
	}
	graph := []common.ChunkResult{
		{DocumentID: "d1", ChunkNumber: 3, Content: "from graph"},
	}

	out := combineChunks(vector, graph, 10)

	assert.Len(t, out, 1)
	assert.Equal(t, "from vector", out[0].Content)
	assert.InDelta(t, 0.9*1.05, out[0].Score, 1e-9)
}

func TestCombineChunks_CollisionKeepsHigherScoreBeforeBoost(t *testing.T) {
	vector := []common.ChunkResult{
		{DocumentID: "d1", ChunkNumber: 3, Score: 0.5, Content: "from vector"},
	}
	graph := []common.ChunkResult{
		{DocumentID: "d1", ChunkNumber: 3, Score: 0.8, Content: "from graph"},
	}

	out := combineChunks(vector, graph, 10)

	assert.Len(t, out, 1)
	assert.Equal(t, "from graph", out[0].Content)
	assert.InDelta(t, 0.8*1.05, out[0].Score, 1e-9)
}

func TestCombineChunks_CollisionBoostIsCapped(t *testing.T) {
	vector := []common.ChunkResult{
		{DocumentID: "d1", ChunkNumber: 0, Score: 0.99},
	}
	graph := []common.ChunkResult{
		{DocumentID: "d1", ChunkNumber: 0},
	}

	out := combineChunks(vector, graph, 10)

	assert.Len(t, out, 1)
	assert.InDelta(t, 1.0, out[0].Score, 1e-9)
}

func TestCombineChunks_TieBreakIsDeterministic(t *testing.T) {
	vector := []common.ChunkResult{
		{DocumentID: "d2", ChunkNumber: 1, Score: 0.5},
		{DocumentID: "d1", ChunkNumber: 4, Score: 0.5},
		{DocumentID: "d1", ChunkNumber: 2, Score: 0.5},
	}

	out := combineChunks(vector, nil, 10)

	assert.Len(t, out, 3)
	assert.Equal(t, common.ChunkRef{DocumentID: "d1", ChunkNumber: 2}, chunkRef(out[0]))
	assert.Equal(t, common.ChunkRef{DocumentID: "d1", ChunkNumber: 4}, chunkRef(out[1]))
	assert.Equal(t, common.ChunkRef{DocumentID: "d2", ChunkNumber: 1}, chunkRef(out[2]))
}

func TestCombineChunks_TruncatesToK(t *testing.T) {
	vector := []common.ChunkResult{
		{DocumentID: "d1", ChunkNumber: 0, Score: 0.9},
		{DocumentID: "d1", ChunkNumber: 1, Score: 0.8},
		{DocumentID: "d1", ChunkNumber: 2, Score: 0.7},
	}

	out := combineChunks(vector, nil, 2)

	assert.Len(t, out, 2)
	assert.InDelta(t, 0.9, out[0].Score, 1e-9)
	assert.InDelta(t, 0.8, out[1].Score, 1e-9)
}

func chunkRef(c common.ChunkResult) common.ChunkRef {
	return common.ChunkRef{DocumentID: c.DocumentID, ChunkNumber: c.ChunkNumber}
}
