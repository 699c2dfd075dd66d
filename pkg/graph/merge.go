package graph

import (
	"context"
	"strings"

	"github.com/docmind-ai/docmind/pkg/common"
	"github.com/docmind-ai/docmind/pkg/logger"
)

// buildIDRemap maps every pre-resolution entity id to the id of the
// canonical entity that absorbed it. Entities whose canonical record kept
// their id map to themselves.
func buildIDRemap(
	inputs []common.Entity,
	mapping map[string]string,
	resolved []common.Entity,
) map[string]string {
	byCanonical := make(map[string]string, len(resolved))
	for _, e := range resolved {
		byCanonical[strings.ToLower(e.Label)] = e.ID
	}

	remap := make(map[string]string, len(inputs))
	for _, e := range inputs {
		canonical, ok := mapping[e.Label]
		if !ok || canonical == "" {
			canonical = e.Label
		}
		if id, ok := byCanonical[strings.ToLower(canonical)]; ok {
			remap[e.ID] = id
		}
	}
	return remap
}

// remapRelationships rewrites relationship endpoints from pre-resolution
// entity ids to canonical ids. Relationships with an endpoint that cannot be
// resolved are dropped; this is logged and non-fatal.
func remapRelationships(
	relationships []common.Relationship,
	idRemap map[string]string,
) []common.Relationship {
	out := make([]common.Relationship, 0, len(relationships))
	for _, rel := range relationships {
		srcID, okS := idRemap[rel.SourceID]
		tgtID, okT := idRemap[rel.TargetID]
		if !okS || !okT {
			logger.Warn("[Merge] Dropping relationship with unresolvable endpoint",
				"relationship", rel.Type, "source", rel.SourceID, "target", rel.TargetID)
			continue
		}
		rel.SourceID = srcID
		rel.TargetID = tgtID
		out = append(out, rel)
	}
	return out
}

// dedupeRelationships collapses relationships sharing the directed
// (source, target, type) triple into one, unioning their provenance. The
// first occurrence keeps its id. Direction stays significant even for
// naturally symmetric relationship types.
func dedupeRelationships(relationships []common.Relationship) []common.Relationship {
	out := make([]common.Relationship, 0, len(relationships))
	index := make(map[string]int, len(relationships))

	for _, rel := range relationships {
		key := rel.SourceID + "|" + rel.TargetID + "|" + strings.ToLower(rel.Type)
		idx, seen := index[key]
		if !seen {
			merged := rel
			merged.ChunkSources = common.MergeChunkSources(nil, rel.ChunkSources)
			merged.DocumentIDs = common.UnionDocumentIDs(nil, rel.DocumentIDs)
			index[key] = len(out)
			out = append(out, merged)
			continue
		}
		target := &out[idx]
		target.ChunkSources = common.MergeChunkSources(target.ChunkSources, rel.ChunkSources)
		target.DocumentIDs = common.UnionDocumentIDs(target.DocumentIDs, rel.DocumentIDs)
	}

	return out
}

// mergeGraphData runs joint resolution over existing and newly extracted
// entities, remaps every relationship endpoint through the resolution
// result, and dedupes relationships. Existing entities come first so their
// ids and properties win on merge.
func mergeGraphData(
	ctx context.Context,
	resolver *Resolver,
	override *ResolutionOverride,
	existingEntities, newEntities []common.Entity,
	existingRelationships, newRelationships []common.Relationship,
) ([]common.Entity, []common.Relationship) {
	pool := make([]common.Entity, 0, len(existingEntities)+len(newEntities))
	pool = append(pool, existingEntities...)
	pool = append(pool, newEntities...)

	resolved, mapping := resolver.ResolveEntities(ctx, pool, override)
	idRemap := buildIDRemap(pool, mapping, resolved)

	relationships := make([]common.Relationship, 0, len(existingRelationships)+len(newRelationships))
	relationships = append(relationships, existingRelationships...)
	relationships = append(relationships, newRelationships...)

	remapped := remapRelationships(relationships, idRemap)
	return resolved, dedupeRelationships(remapped)
}
