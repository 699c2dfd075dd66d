package query

import (
	"github.com/docmind-ai/docmind/pkg/common"
)

// expandEntities grows the seed set by breadth-first traversal of the
// relationship graph for hopDepth-1 additional hops. Each hop adds entities
// connected to the frontier by any relationship, in either direction, that
// were not already visited. Traversal stops early once a hop adds nothing.
//
// hopDepth 1 returns the seed set unchanged.
func expandEntities(g *common.Graph, seeds []common.Entity, hopDepth int) []common.Entity {
	byID := make(map[string]common.Entity, len(g.Entities))
	for _, e := range g.Entities {
		byID[e.ID] = e
	}

	visited := make(map[string]bool, len(seeds))
	result := make([]common.Entity, 0, len(seeds))
	frontier := make([]string, 0, len(seeds))
	for _, seed := range seeds {
		if visited[seed.ID] {
			continue
		}
		visited[seed.ID] = true
		result = append(result, seed)
		frontier = append(frontier, seed.ID)
	}

	for hop := 1; hop < hopDepth; hop++ {
		var next []string
		inFrontier := make(map[string]bool, len(frontier))
		for _, id := range frontier {
			inFrontier[id] = true
		}

		for _, rel := range g.Relationships {
			var neighborID string
			switch {
			case inFrontier[rel.SourceID]:
				neighborID = rel.TargetID
			case inFrontier[rel.TargetID]:
				neighborID = rel.SourceID
			default:
				continue
			}
			if visited[neighborID] {
				continue
			}
			neighbor, ok := byID[neighborID]
			if !ok {
				continue
			}
			visited[neighborID] = true
			result = append(result, neighbor)
			next = append(next, neighborID)
		}

		if len(next) == 0 {
			break
		}
		frontier = next
	}

	return result
}
