package pgx

import (
	"context"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/docmind-ai/docmind/pkg/ai"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// Store implements the graph, document, and vector search stores on
// PostgreSQL with pgvector. The AI client is used to embed queries for
// similarity search.
type Store struct {
	conn     pgxIConn
	aiClient ai.GraphAIClient
}

// NewStore creates a Store using an existing database connection or pool.
func NewStore(conn pgxIConn, aiClient ai.GraphAIClient) *Store {
	return &Store{conn: conn, aiClient: aiClient}
}
