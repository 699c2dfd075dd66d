package graph

import (
	"context"
	"fmt"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/docmind-ai/docmind/pkg/ai"
	"github.com/docmind-ai/docmind/pkg/common"
	"github.com/docmind-ai/docmind/pkg/logger"
	"github.com/docmind-ai/docmind/pkg/store"
)

// Builder owns the graph lifecycle: it creates a graph from a document set
// and incrementally extends an existing graph with newly matched documents.
// Graphs only ever grow; prior provenance is never lost.
//
// A Builder should be created using NewBuilder.
type Builder struct {
	extractor *Extractor
	resolver  *Resolver

	graphs    store.GraphStore
	documents store.DocumentStore

	parallelChunks int
}

// NewBuilderParams defines the configuration for creating a Builder.
// ParallelChunks bounds the per-chunk extraction worker pool; MaxRetries
// bounds the retry loop around each AI call.
type NewBuilderParams struct {
	AIClient       ai.GraphAIClient
	Graphs         store.GraphStore
	Documents      store.DocumentStore
	ParallelChunks int
	MaxRetries     int
}

// NewBuilder creates a Builder configured with the provided parameters.
func NewBuilder(params NewBuilderParams) *Builder {
	parallel := params.ParallelChunks
	if parallel < 1 {
		parallel = 4
	}
	return &Builder{
		extractor:      NewExtractor(params.AIClient, params.MaxRetries),
		resolver:       NewResolver(params.AIClient, params.MaxRetries),
		graphs:         params.Graphs,
		documents:      params.Documents,
		parallelChunks: parallel,
	}
}

// CreateGraphParams describes a create call. The target document set is the
// union of documents matching Filters and the explicitly listed DocumentIDs.
type CreateGraphParams struct {
	Name        string
	Filters     map[string]any
	DocumentIDs []string
	Auth        common.AuthContext
	Scope       common.QueryScope
	WorkflowID  string
	Overrides   *PromptOverrides
}

// UpdateGraphParams describes an update call. The new-document set is the
// union of documents matching AdditionalFilters, the explicitly listed
// AdditionalDocumentIDs, and documents re-matching the graph's original
// filters, minus documents already covered.
type UpdateGraphParams struct {
	Name                  string
	AdditionalFilters     map[string]any
	AdditionalDocumentIDs []string
	Auth                  common.AuthContext
	Scope                 common.QueryScope
	Overrides             *PromptOverrides
}

// Create builds a new graph over the resolved document set and persists it.
// The graph is stored with status processing up front so its existence and
// progress are observable, then finalized to completed in a single write
// once the full batch has been computed.
func (b *Builder) Create(ctx context.Context, params CreateGraphParams) (*common.Graph, error) {
	documentIDs, err := b.resolveDocumentSet(ctx, params.Auth, params.Scope, params.Filters, params.DocumentIDs)
	if err != nil {
		return nil, err
	}
	if len(documentIDs) == 0 {
		return nil, ErrNoDocuments
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate graph id: %w", err)
	}

	now := time.Now().UTC()
	graph := &common.Graph{
		ID:          id,
		Name:        params.Name,
		DocumentIDs: documentIDs,
		Filters:     params.Filters,
		Owner:       params.Auth.EntityID,
		System: common.SystemMetadata{
			Status:     common.StatusProcessing,
			AppID:      params.Scope.AppID,
			FolderName: params.Scope.FolderName,
			EndUserID:  params.Scope.EndUserID,
			WorkflowID: params.WorkflowID,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := b.graphs.StoreGraph(ctx, graph); err != nil {
		return nil, fmt.Errorf("failed to store graph: %w", err)
	}

	logger.Info("[Build] Creating graph", "graph", params.Name, "documents", len(documentIDs))

	newEntities, newRelationships, err := b.extractDocuments(ctx, documentIDs, params.Auth, params.Scope, params.Overrides)
	if err != nil {
		return nil, err
	}

	entities, relationships := mergeGraphData(
		ctx, b.resolver, params.Overrides.resolution(),
		nil, newEntities, nil, newRelationships,
	)

	graph.Entities = entities
	graph.Relationships = relationships
	graph.System.Status = common.StatusCompleted
	graph.UpdatedAt = time.Now().UTC()
	if err := b.graphs.UpdateGraph(ctx, graph); err != nil {
		return nil, fmt.Errorf("failed to persist graph: %w", err)
	}

	logger.Info("[Build] Graph created", "graph", params.Name,
		"entities", len(entities), "relationships", len(relationships))
	return graph, nil
}

// Update extends an existing graph with newly matched documents. The call is
// refused while another build holds the graph; the guard is an atomic
// conditional status transition, not a read-then-compare check.
func (b *Builder) Update(ctx context.Context, params UpdateGraphParams) (*common.Graph, error) {
	graph, err := b.graphs.GetGraph(ctx, params.Name, params.Auth, params.Scope)
	if err != nil {
		return nil, err
	}

	acquired, err := b.graphs.TransitionGraphStatus(ctx, graph.ID, common.StatusCompleted, common.StatusProcessing)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire graph for update: %w", err)
	}
	if !acquired {
		return nil, ErrGraphProcessing
	}
	graph.System.Status = common.StatusProcessing

	newDocumentIDs, err := b.resolveNewDocumentSet(ctx, graph, params)
	if err != nil {
		return nil, err
	}

	if len(newDocumentIDs) == 0 && len(params.AdditionalDocumentIDs) == 0 {
		// Nothing to add; release the graph unchanged.
		graph.System.Status = common.StatusCompleted
		if _, err := b.graphs.TransitionGraphStatus(ctx, graph.ID, common.StatusProcessing, common.StatusCompleted); err != nil {
			return nil, fmt.Errorf("failed to release graph: %w", err)
		}
		return graph, nil
	}

	logger.Info("[Build] Updating graph", "graph", params.Name, "new_documents", len(newDocumentIDs))

	newEntities, newRelationships, err := b.extractDocuments(ctx, newDocumentIDs, params.Auth, params.Scope, params.Overrides)
	if err != nil {
		// Fatal errors leave the graph at status processing; the design
		// deliberately does not auto-transition to a failed state.
		return nil, err
	}

	entities, relationships := mergeGraphData(
		ctx, b.resolver, params.Overrides.resolution(),
		graph.Entities, newEntities,
		graph.Relationships, newRelationships,
	)

	graph.Entities = entities
	graph.Relationships = relationships
	graph.DocumentIDs = common.UnionDocumentIDs(graph.DocumentIDs, newDocumentIDs)
	// Explicitly requested documents count as covered even when nothing was
	// extracted from them.
	graph.DocumentIDs = common.UnionDocumentIDs(graph.DocumentIDs, params.AdditionalDocumentIDs)

	if len(params.AdditionalFilters) > 0 {
		graph.Filters = mergeFilters(graph.Filters, params.AdditionalFilters)
	}
	if params.Scope.AppID != "" {
		graph.System.AppID = params.Scope.AppID
	}
	if params.Scope.FolderName != "" {
		graph.System.FolderName = params.Scope.FolderName
	}
	if params.Scope.EndUserID != "" {
		graph.System.EndUserID = params.Scope.EndUserID
	}

	graph.System.Status = common.StatusCompleted
	graph.UpdatedAt = time.Now().UTC()
	if err := b.graphs.UpdateGraph(ctx, graph); err != nil {
		return nil, fmt.Errorf("failed to persist graph: %w", err)
	}

	logger.Info("[Build] Graph updated", "graph", params.Name,
		"entities", len(entities), "relationships", len(relationships))
	return graph, nil
}

// resolveDocumentSet computes the authorized documents matching the filters,
// unioned with the explicitly requested ids.
func (b *Builder) resolveDocumentSet(
	ctx context.Context,
	auth common.AuthContext,
	scope common.QueryScope,
	filters map[string]any,
	explicitIDs []string,
) ([]string, error) {
	var ids []string

	if len(filters) > 0 {
		docs, err := b.documents.GetDocuments(ctx, auth, filters, scope)
		if err != nil {
			return nil, fmt.Errorf("failed to match documents: %w", err)
		}
		for _, doc := range docs {
			ids = append(ids, doc.ID)
		}
	}

	if len(explicitIDs) > 0 {
		docs, err := b.documents.BatchRetrieveDocuments(ctx, explicitIDs, auth, scope)
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve documents: %w", err)
		}
		explicit := make([]string, 0, len(docs))
		for _, doc := range docs {
			explicit = append(explicit, doc.ID)
		}
		ids = common.UnionDocumentIDs(ids, explicit)
	}

	return ids, nil
}

// resolveNewDocumentSet computes the documents an update should ingest:
// additional filters, explicit ids, and re-matches of the graph's original
// filters, minus everything already covered.
func (b *Builder) resolveNewDocumentSet(
	ctx context.Context,
	graph *common.Graph,
	params UpdateGraphParams,
) ([]string, error) {
	candidates, err := b.resolveDocumentSet(ctx, params.Auth, params.Scope, params.AdditionalFilters, params.AdditionalDocumentIDs)
	if err != nil {
		return nil, err
	}

	if len(graph.Filters) > 0 {
		rematched, err := b.resolveDocumentSet(ctx, params.Auth, params.Scope, graph.Filters, nil)
		if err != nil {
			return nil, err
		}
		candidates = common.UnionDocumentIDs(candidates, rematched)
	}

	covered := make(map[string]bool, len(graph.DocumentIDs))
	for _, id := range graph.DocumentIDs {
		covered[id] = true
	}

	fresh := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if !covered[id] {
			fresh = append(fresh, id)
		}
	}
	return fresh, nil
}

// extractDocuments retrieves every chunk of the given documents and runs
// extraction per chunk behind a bounded worker pool. Recoverable extraction
// failures are logged and skipped; partial results from the other chunks are
// preserved. Any other error aborts the batch.
func (b *Builder) extractDocuments(
	ctx context.Context,
	documentIDs []string,
	auth common.AuthContext,
	scope common.QueryScope,
	overrides *PromptOverrides,
) ([]common.Entity, []common.Relationship, error) {
	if len(documentIDs) == 0 {
		return nil, nil, nil
	}

	chunks, err := b.documents.RetrieveDocumentChunks(ctx, documentIDs, auth, scope)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to retrieve chunks: %w", err)
	}

	var (
		entities      []common.Entity
		relationships []common.Relationship
		mergeMu       sync.Mutex
	)

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(b.parallelChunks)
	for _, chunk := range chunks {
		c := chunk
		eg.Go(func() error {
			select {
			case <-gCtx.Done():
				return nil
			default:
			}

			e, r, err := b.extractor.ExtractChunk(gCtx, c.Content, c.DocumentID, c.ChunkNumber, overrides.extraction())
			if err != nil {
				if IsRecoverable(err) {
					logger.Warn("[Build] Skipping chunk after failed extraction",
						"document", c.DocumentID, "chunk", c.ChunkNumber, "err", err)
					return nil
				}
				return err
			}

			mergeMu.Lock()
			entities = append(entities, e...)
			relationships = append(relationships, r...)
			mergeMu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, nil, fmt.Errorf("failed to process chunks:\n%w", err)
	}
	return entities, relationships, nil
}
