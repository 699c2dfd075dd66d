package query

import (
	"sort"

	"github.com/docmind-ai/docmind/pkg/common"
)

const (
	graphScoreBoost = 1.05
	graphBaseScore  = 0.7
)

// combineChunks merges vector-search results with graph-sourced chunks,
// keyed by (document, chunk number). Graph membership boosts a chunk's
// score by x1.05 capped at 1.0: a chunk found by both sources is boosted on
// top of the higher of its two scores, and a graph-only chunk starts from
// its own score, or from a base of 0.7 when it carried none. The merged set
// is sorted by score descending and truncated to k.
func combineChunks(vectorChunks, graphChunks []common.ChunkResult, k int) []common.ChunkResult {
	merged := make(map[common.ChunkRef]common.ChunkResult, len(vectorChunks)+len(graphChunks))

	for _, chunk := range vectorChunks {
		ref := common.ChunkRef{DocumentID: chunk.DocumentID, ChunkNumber: chunk.ChunkNumber}
		if existing, ok := merged[ref]; !ok || chunk.Score > existing.Score {
			merged[ref] = chunk
		}
	}

	for _, chunk := range graphChunks {
		ref := common.ChunkRef{DocumentID: chunk.DocumentID, ChunkNumber: chunk.ChunkNumber}
		score := chunk.Score
		if existing, ok := merged[ref]; ok && existing.Score > score {
			chunk = existing
			score = existing.Score
		}
		if score == 0 {
			score = graphBaseScore
		}
		score *= graphScoreBoost
		if score > 1.0 {
			score = 1.0
		}
		chunk.Score = score
		merged[ref] = chunk
	}

	out := make([]common.ChunkResult, 0, len(merged))
	for _, chunk := range merged {
		out = append(out, chunk)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].DocumentID != out[j].DocumentID {
			return out[i].DocumentID < out[j].DocumentID
		}
		return out[i].ChunkNumber < out[j].ChunkNumber
	})

	if len(out) > k {
		out = out[:k]
	}
	return out
}
