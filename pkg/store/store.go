package store

import (
	"context"
	"errors"

	"github.com/docmind-ai/docmind/pkg/common"
)

var (
	// ErrGraphNotFound is returned when the named graph does not exist or is
	// outside the caller's scope.
	ErrGraphNotFound = errors.New("graph not found")

	// ErrPermissionDenied is returned when the caller lacks the permission an
	// operation requires. It is distinct from not-found so the API layer can
	// answer 403 instead of 404.
	ErrPermissionDenied = errors.New("permission denied")
)

// GraphStore persists graphs. Access control and tenant scoping are enforced
// by the implementation, not by callers.
type GraphStore interface {
	GetGraph(ctx context.Context, name string, auth common.AuthContext, scope common.QueryScope) (*common.Graph, error)
	ListGraphs(ctx context.Context, auth common.AuthContext, scope common.QueryScope) ([]*common.Graph, error)
	StoreGraph(ctx context.Context, graph *common.Graph) error
	UpdateGraph(ctx context.Context, graph *common.Graph) error
	DeleteGraph(ctx context.Context, name string, auth common.AuthContext, scope common.QueryScope) error

	// TransitionGraphStatus atomically moves the graph from one lifecycle
	// status to another. It reports false when the stored status did not
	// match the expected one, in which case nothing was written. This is the
	// guard that keeps two concurrent builds off the same graph.
	TransitionGraphStatus(ctx context.Context, graphID string, from, to common.GraphStatus) (bool, error)
}

// DocumentStore retrieves documents and chunks. Only documents the caller is
// authorized for are ever returned.
type DocumentStore interface {
	GetDocuments(ctx context.Context, auth common.AuthContext, filters map[string]any, scope common.QueryScope) ([]common.Document, error)
	BatchRetrieveDocuments(ctx context.Context, ids []string, auth common.AuthContext, scope common.QueryScope) ([]common.Document, error)
	BatchRetrieveChunks(ctx context.Context, refs []common.ChunkRef, auth common.AuthContext, scope common.QueryScope) ([]common.ChunkResult, error)

	// RetrieveDocumentChunks returns every chunk of the given documents, in
	// (document, chunk number) order. Used by graph builds, which consume
	// whole documents rather than search results.
	RetrieveDocumentChunks(ctx context.Context, documentIDs []string, auth common.AuthContext, scope common.QueryScope) ([]common.ChunkResult, error)
}

// VectorSearcher performs similarity search over chunk embeddings.
type VectorSearcher interface {
	RetrieveChunks(ctx context.Context, query string, auth common.AuthContext, filters map[string]any, k int, scope common.QueryScope) ([]common.ChunkResult, error)
}
