package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/docmind-ai/docmind/internal/util"
	"github.com/docmind-ai/docmind/pkg/ai"
	"github.com/docmind-ai/docmind/pkg/common"
	"github.com/docmind-ai/docmind/pkg/logger"
)

type synonymGroup struct {
	Canonical string   `json:"canonical" jsonschema_description:"The chosen final label for the group"`
	Variants  []string `json:"variants" jsonschema_description:"Labels that are synonyms of the canonical label"`
}

type resolveResponse struct {
	Groups []synonymGroup `json:"groups" jsonschema_description:"Groups of synonymous entity labels"`
}

// Resolver clusters synonymous entity labels into canonical groups and
// merges the entities of each group. It only ever groups true synonyms:
// different names for the same real-world referent.
type Resolver struct {
	client     ai.GraphAIClient
	maxRetries int
}

// NewResolver creates a Resolver using the given AI client.
func NewResolver(client ai.GraphAIClient, maxRetries int) *Resolver {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Resolver{client: client, maxRetries: maxRetries}
}

// ResolveEntities canonicalizes the given entity pool. It returns the merged
// entity list and a label→canonical mapping in which every input label is a
// key; labels with no synonym group map to themselves.
//
// This never fails: empty and single-entity pools short-circuit to the
// identity mapping, and so does any call or parse failure.
func (r *Resolver) ResolveEntities(
	ctx context.Context,
	entities []common.Entity,
	override *ResolutionOverride,
) ([]common.Entity, map[string]string) {
	mapping := identityMapping(entities)
	if len(entities) <= 1 {
		return entities, mapping
	}

	template := ai.ResolvePrompt
	if override != nil && override.PromptTemplate != "" {
		template = override.PromptTemplate
	}

	var listing strings.Builder
	listing.WriteString("Entity labels:\n")
	for _, e := range entities {
		fmt.Fprintf(&listing, "- %s (%s)\n", e.Label, e.Type)
	}

	var res resolveResponse
	err := util.RetryErrWithContext(ctx, r.maxRetries, func(ctx context.Context) error {
		return r.client.GenerateCompletionWithFormat(
			ctx,
			"resolve_entities",
			"Group synonymous entity labels under a canonical label.",
			fmt.Sprintf(template, listing.String()),
			&res,
		)
	})
	if err != nil {
		logger.Warn("[Resolve] Resolution call failed, keeping identity mapping", "err", err, "entities", len(entities))
		return applyResolution(entities, mapping), mapping
	}

	// Variants are matched to input labels case-insensitively; the mapping
	// keys stay the exact input spellings.
	byLower := make(map[string][]string, len(entities))
	for _, e := range entities {
		lower := strings.ToLower(e.Label)
		byLower[lower] = append(byLower[lower], e.Label)
	}

	for _, group := range res.Groups {
		canonical := ai.NormalizeLabel(group.Canonical)
		if canonical == "" {
			continue
		}
		for _, variant := range group.Variants {
			variant = ai.NormalizeLabel(variant)
			for _, label := range byLower[strings.ToLower(variant)] {
				mapping[label] = canonical
			}
		}
		// The canonical spelling itself may appear as an input label.
		for _, label := range byLower[strings.ToLower(canonical)] {
			mapping[label] = canonical
		}
	}

	return applyResolution(entities, mapping), mapping
}

func identityMapping(entities []common.Entity) map[string]string {
	mapping := make(map[string]string, len(entities))
	for _, e := range entities {
		mapping[e.Label] = e.Label
	}
	return mapping
}

// applyResolution merges entities that share a canonical label. The first
// occurrence keeps its id and becomes the merge target; document ids and
// chunk sources are unioned, properties merge non-destructively (existing
// keys win), and absorbed variant labels are recorded as aliases.
func applyResolution(entities []common.Entity, mapping map[string]string) []common.Entity {
	out := make([]common.Entity, 0, len(entities))
	index := make(map[string]int, len(entities))

	for _, e := range entities {
		canonical, ok := mapping[e.Label]
		if !ok || canonical == "" {
			canonical = e.Label
		}
		key := strings.ToLower(canonical)

		idx, seen := index[key]
		if !seen {
			merged := e
			merged.Properties = cloneProperties(e.Properties)
			merged.ChunkSources = common.MergeChunkSources(nil, e.ChunkSources)
			merged.DocumentIDs = common.UnionDocumentIDs(nil, e.DocumentIDs)
			if merged.Label != canonical {
				addAlias(&merged, merged.Label)
				merged.Label = canonical
			}
			index[key] = len(out)
			out = append(out, merged)
			continue
		}

		target := &out[idx]
		target.DocumentIDs = common.UnionDocumentIDs(target.DocumentIDs, e.DocumentIDs)
		target.ChunkSources = common.MergeChunkSources(target.ChunkSources, e.ChunkSources)
		for k, v := range e.Properties {
			if k == "aliases" {
				continue
			}
			if _, exists := target.Properties[k]; !exists {
				target.Properties[k] = v
			}
		}
		for _, alias := range aliasList(e.Properties) {
			addAlias(target, alias)
		}
		if !strings.EqualFold(e.Label, target.Label) {
			addAlias(target, e.Label)
		}
	}

	return out
}

func cloneProperties(props map[string]any) map[string]any {
	cloned := make(map[string]any, len(props))
	for k, v := range props {
		cloned[k] = v
	}
	return cloned
}

func aliasList(props map[string]any) []string {
	raw, ok := props["aliases"]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func addAlias(e *common.Entity, alias string) {
	alias = ai.NormalizeLabel(alias)
	if alias == "" || strings.EqualFold(alias, e.Label) {
		return
	}
	if e.Properties == nil {
		e.Properties = make(map[string]any)
	}
	aliases := aliasList(e.Properties)
	for _, existing := range aliases {
		if strings.EqualFold(existing, alias) {
			return
		}
	}
	e.Properties["aliases"] = append(aliases, alias)
}
