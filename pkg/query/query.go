package query

import (
	"context"
	"errors"

	"github.com/docmind-ai/docmind/pkg/ai"
	"github.com/docmind-ai/docmind/pkg/common"
	"github.com/docmind-ai/docmind/pkg/graph"
	"github.com/docmind-ai/docmind/pkg/logger"
	"github.com/docmind-ai/docmind/pkg/store"
)

const (
	defaultK     = 10
	minHopDepth  = 1
	maxHopDepth  = 3
	maxPathCount = 10
)

// QueryParams describes one retrieval request. GraphName selects the graph
// used for augmentation; when it is empty, or the graph cannot be loaded,
// the query degrades to plain vector retrieval.
type QueryParams struct {
	Query        string
	GraphName    string
	HopDepth     int
	IncludePaths bool
	K            int
	Filters      map[string]any
	Auth         common.AuthContext
	Scope        common.QueryScope
	MaxTokens    int
	Temperature  float64
	Overrides    *graph.PromptOverrides
}

// ChunkCitation records where one context chunk came from and the score it
// carried into generation.
type ChunkCitation struct {
	DocumentID  string  `json:"document_id"`
	ChunkNumber int     `json:"chunk_number"`
	Score       float64 `json:"score"`
}

// QueryResponse is the generated answer plus its supporting evidence: ranked
// chunks with citations and, when paths were requested, the entities and
// rendered traversal paths that contributed graph context.
type QueryResponse struct {
	Completion   string          `json:"completion"`
	Usage        ai.ModelMetrics `json:"usage"`
	Citations    []ChunkCitation `json:"citations"`
	PathEntities []string        `json:"path_entities,omitempty"`
	Paths        []string        `json:"paths,omitempty"`
}

// Client answers queries by combining vector search with knowledge-graph
// traversal. Graph-layer problems never fail a query; they degrade it to
// vector-only retrieval.
//
// A Client should be created using NewClient.
type Client struct {
	aiClient  ai.GraphAIClient
	graphs    store.GraphStore
	documents store.DocumentStore
	search    store.VectorSearcher

	extractor *graph.Extractor
	resolver  *graph.Resolver

	contextTokenBudget int
}

// NewClientParams defines the configuration for creating a query Client.
// ContextTokenBudget caps the generation context size; 0 applies the
// default budget.
type NewClientParams struct {
	AIClient           ai.GraphAIClient
	Graphs             store.GraphStore
	Documents          store.DocumentStore
	Search             store.VectorSearcher
	MaxRetries         int
	ContextTokenBudget int
}

// NewClient creates a Client configured with the provided parameters.
func NewClient(params NewClientParams) *Client {
	budget := params.ContextTokenBudget
	if budget <= 0 {
		budget = defaultContextTokenBudget
	}
	return &Client{
		aiClient:           params.AIClient,
		graphs:             params.Graphs,
		documents:          params.Documents,
		search:             params.Search,
		extractor:          graph.NewExtractor(params.AIClient, params.MaxRetries),
		resolver:           graph.NewResolver(params.AIClient, params.MaxRetries),
		contextTokenBudget: budget,
	}
}

// Query runs the full graph-augmented retrieval pipeline and generates an
// answer over the ranked context.
func (c *Client) Query(ctx context.Context, params QueryParams) (*QueryResponse, error) {
	k := params.K
	if k <= 0 {
		k = defaultK
	}
	hopDepth := params.HopDepth
	if hopDepth < minHopDepth {
		hopDepth = minHopDepth
	}
	if hopDepth > maxHopDepth {
		hopDepth = maxHopDepth
	}

	// Usage is attributed by snapshot difference; the shared client's
	// counters are never reset here.
	before := c.aiClient.GetMetrics()

	vectorChunks, err := c.search.RetrieveChunks(ctx, params.Query, params.Auth, params.Filters, k, params.Scope)
	if err != nil {
		return nil, err
	}

	ranked := vectorChunks
	var paths []renderedPath

	g := c.loadGraph(ctx, params)
	if g != nil {
		seeds := c.findSeedEntities(ctx, params.Query, g, k, params.Overrides)
		if len(seeds) > 0 {
			expanded := expandEntities(g, seeds, hopDepth)
			graphChunks := c.retrieveEntityChunks(ctx, expanded, params.Auth, params.Scope)
			ranked = combineChunks(vectorChunks, graphChunks, k)
			if params.IncludePaths {
				paths = findPaths(g, seeds, hopDepth, maxPathCount)
			}
		}
	}

	resp, err := c.generate(ctx, params, ranked, paths)
	if err != nil {
		return nil, err
	}
	resp.Usage = c.aiClient.GetMetrics().Delta(before)
	return resp, nil
}

// loadGraph loads the named graph scoped to the caller. Absent or
// inaccessible graphs are not an error: the query silently falls back to
// vector-only retrieval.
func (c *Client) loadGraph(ctx context.Context, params QueryParams) *common.Graph {
	if params.GraphName == "" {
		return nil
	}
	g, err := c.graphs.GetGraph(ctx, params.GraphName, params.Auth, params.Scope)
	if err != nil {
		if !errors.Is(err, store.ErrGraphNotFound) && !errors.Is(err, store.ErrPermissionDenied) {
			logger.Warn("[Query] Failed to load graph, falling back to vector retrieval",
				"graph", params.GraphName, "err", err)
		} else {
			logger.Debug("[Query] Graph unavailable, falling back to vector retrieval",
				"graph", params.GraphName)
		}
		return nil
	}
	return g
}

// retrieveEntityChunks collects every (document, chunk) pair referenced by
// the expanded entities and retrieves the authorized ones.
func (c *Client) retrieveEntityChunks(
	ctx context.Context,
	entities []common.Entity,
	auth common.AuthContext,
	scope common.QueryScope,
) []common.ChunkResult {
	seen := make(map[common.ChunkRef]bool)
	var refs []common.ChunkRef
	for _, e := range entities {
		for doc, chunks := range e.ChunkSources {
			for _, chunk := range chunks {
				ref := common.ChunkRef{DocumentID: doc, ChunkNumber: chunk}
				if !seen[ref] {
					seen[ref] = true
					refs = append(refs, ref)
				}
			}
		}
	}
	if len(refs) == 0 {
		return nil
	}

	chunks, err := c.documents.BatchRetrieveChunks(ctx, refs, auth, scope)
	if err != nil {
		logger.Warn("[Query] Failed to retrieve graph chunks", "refs", len(refs), "err", err)
		return nil
	}
	return chunks
}
