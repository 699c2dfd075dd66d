package query

import (
	"fmt"
	"slices"
	"strings"

	"github.com/docmind-ai/docmind/pkg/common"
)

// renderedPath is one explanation path: the entity labels it touches and a
// human-readable rendering of the traversal.
type renderedPath struct {
	entities []string
	text     string
}

type pathState struct {
	entityIDs []string
	edges     int
	text      string
}

// findPaths runs a bounded breadth-first path search from each seed. An
// edge joins a path only when its two entities co-occur in at least one
// (document, chunk) pair that is also part of that relationship's own
// provenance; this keeps spurious unrelated hops out of explanations.
// Paths carry at most hopDepth edges; at most maxPaths are collected.
func findPaths(g *common.Graph, seeds []common.Entity, hopDepth, maxPaths int) []renderedPath {
	byID := make(map[string]common.Entity, len(g.Entities))
	for _, e := range g.Entities {
		byID[e.ID] = e
	}

	var paths []renderedPath
	for _, seed := range seeds {
		if len(paths) >= maxPaths {
			break
		}

		queue := []pathState{{
			entityIDs: []string{seed.ID},
			text:      seed.Label,
		}}

		for len(queue) > 0 && len(paths) < maxPaths {
			state := queue[0]
			queue = queue[1:]
			if state.edges >= hopDepth {
				continue
			}

			tipID := state.entityIDs[len(state.entityIDs)-1]
			tip, ok := byID[tipID]
			if !ok {
				continue
			}

			for _, rel := range g.Relationships {
				var neighborID string
				var arrow string
				switch {
				case rel.SourceID == tipID:
					neighborID = rel.TargetID
					arrow = fmt.Sprintf(" --(%s)--> ", rel.Type)
				case rel.TargetID == tipID:
					neighborID = rel.SourceID
					arrow = fmt.Sprintf(" <--(%s)-- ", rel.Type)
				default:
					continue
				}
				if slices.Contains(state.entityIDs, neighborID) {
					continue
				}
				neighbor, ok := byID[neighborID]
				if !ok {
					continue
				}
				if !coOccurInProvenance(tip, neighbor, rel) {
					continue
				}

				next := pathState{
					entityIDs: append(slices.Clone(state.entityIDs), neighborID),
					edges:     state.edges + 1,
					text:      state.text + arrow + neighbor.Label,
				}

				labels := make([]string, 0, len(next.entityIDs))
				for _, id := range next.entityIDs {
					labels = append(labels, byID[id].Label)
				}
				paths = append(paths, renderedPath{entities: labels, text: next.text})
				if len(paths) >= maxPaths {
					break
				}
				queue = append(queue, next)
			}
		}
	}

	return paths
}

// coOccurInProvenance reports whether a and b share a (document, chunk)
// pair that also belongs to the relationship's own provenance.
func coOccurInProvenance(a, b common.Entity, rel common.Relationship) bool {
	for doc, aChunks := range a.ChunkSources {
		bChunks, okB := b.ChunkSources[doc]
		relChunks, okR := rel.ChunkSources[doc]
		if !okB || !okR {
			continue
		}
		for _, chunk := range aChunks {
			if slices.Contains(bChunks, chunk) && slices.Contains(relChunks, chunk) {
				return true
			}
		}
	}
	return false
}

// pathEntityLabels returns the distinct entity labels appearing across the
// given paths, in order of first appearance.
func pathEntityLabels(paths []renderedPath) []string {
	var out []string
	seen := make(map[string]bool)
	for _, p := range paths {
		for _, label := range p.entities {
			if !seen[label] {
				seen[label] = true
				out = append(out, label)
			}
		}
	}
	return out
}

// renderPathBlock produces the human-readable section prepended to the
// generation context when paths were requested.
func renderPathBlock(paths []renderedPath, limit int) string {
	if len(paths) == 0 {
		return ""
	}
	if len(paths) > limit {
		paths = paths[:limit]
	}
	var b strings.Builder
	b.WriteString("Entity paths relevant to the question:\n")
	for _, p := range paths {
		b.WriteString("- ")
		b.WriteString(p.text)
		b.WriteString("\n")
	}
	return b.String()
}
