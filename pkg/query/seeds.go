package query

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/docmind-ai/docmind/pkg/common"
	"github.com/docmind-ai/docmind/pkg/graph"
	"github.com/docmind-ai/docmind/pkg/logger"
)

const parallelEmbeddings = 8

// findSeedEntities determines where graph traversal starts: query entities
// jointly resolved against the graph's entities, or, when that yields
// nothing, the graph entities most similar to the query's embedding.
func (c *Client) findSeedEntities(
	ctx context.Context,
	queryText string,
	g *common.Graph,
	k int,
	overrides *graph.PromptOverrides,
) []common.Entity {
	queryEntities := c.extractQueryEntities(ctx, queryText, overrides)

	if len(queryEntities) > 0 {
		seeds := c.resolveSeeds(ctx, queryEntities, g, overrides)
		if len(seeds) > 0 {
			return seeds
		}
	}

	return c.similaritySeeds(ctx, queryText, g, k)
}

// extractQueryEntities runs chunk extraction over the query text itself.
// Extraction failures yield no entities; the caller then falls back to
// similarity seeding.
func (c *Client) extractQueryEntities(
	ctx context.Context,
	queryText string,
	overrides *graph.PromptOverrides,
) []common.Entity {
	var override *graph.ExtractionOverride
	if overrides != nil {
		override = overrides.Extraction
	}

	entities, _, err := c.extractor.ExtractChunk(ctx, queryText, "query", 0, override)
	if err != nil {
		logger.Debug("[Query] Query entity extraction failed", "err", err)
		return nil
	}
	return entities
}

// resolveSeeds jointly resolves the query entities with the graph's and
// returns the graph entities sharing a canonical label with any query
// entity.
func (c *Client) resolveSeeds(
	ctx context.Context,
	queryEntities []common.Entity,
	g *common.Graph,
	overrides *graph.PromptOverrides,
) []common.Entity {
	var override *graph.ResolutionOverride
	if overrides != nil {
		override = overrides.Resolution
	}

	pool := make([]common.Entity, 0, len(g.Entities)+len(queryEntities))
	pool = append(pool, g.Entities...)
	pool = append(pool, queryEntities...)
	_, mapping := c.resolver.ResolveEntities(ctx, pool, override)

	canonicalOf := func(label string) string {
		if canon, ok := mapping[label]; ok && canon != "" {
			return strings.ToLower(canon)
		}
		return strings.ToLower(label)
	}

	graphByCanonical := make(map[string]common.Entity, len(g.Entities))
	for _, e := range g.Entities {
		graphByCanonical[canonicalOf(e.Label)] = e
	}

	var seeds []common.Entity
	seen := make(map[string]bool)
	for _, q := range queryEntities {
		if e, ok := graphByCanonical[canonicalOf(q.Label)]; ok && !seen[e.ID] {
			seen[e.ID] = true
			seeds = append(seeds, e)
		}
	}
	return seeds
}

// similaritySeeds ranks every graph entity by cosine similarity between the
// query embedding and an embedding of the entity's textual representation,
// returning the top k.
func (c *Client) similaritySeeds(
	ctx context.Context,
	queryText string,
	g *common.Graph,
	k int,
) []common.Entity {
	if len(g.Entities) == 0 {
		return nil
	}

	queryEmbedding, err := c.aiClient.GenerateEmbedding(ctx, []byte(queryText))
	if err != nil {
		logger.Warn("[Query] Failed to embed query for entity seeding", "err", err)
		return nil
	}

	type scored struct {
		entity common.Entity
		score  float64
	}
	results := make([]scored, 0, len(g.Entities))
	var mu sync.Mutex

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(parallelEmbeddings)
	for _, entity := range g.Entities {
		e := entity
		eg.Go(func() error {
			embedding, err := c.aiClient.GenerateEmbedding(gCtx, []byte(entityText(e)))
			if err != nil {
				logger.Debug("[Query] Failed to embed entity", "entity", e.Label, "err", err)
				return nil
			}
			score := cosineSimilarity(queryEmbedding, embedding)
			mu.Lock()
			results = append(results, scored{entity: e, score: score})
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})
	if len(results) > k {
		results = results[:k]
	}

	seeds := make([]common.Entity, 0, len(results))
	for _, r := range results {
		seeds = append(seeds, r.entity)
	}
	return seeds
}

// entityText is the embedded textual representation of an entity: label,
// type, and properties in a stable order.
func entityText(e common.Entity) string {
	var b strings.Builder
	b.WriteString(e.Label)
	if e.Type != "" {
		fmt.Fprintf(&b, " (%s)", e.Type)
	}
	if len(e.Properties) > 0 {
		keys := make([]string, 0, len(e.Properties))
		for k := range e.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, e.Properties[k])
		}
	}
	return b.String()
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
