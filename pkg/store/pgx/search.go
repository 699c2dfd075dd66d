package pgx

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/docmind-ai/docmind/pkg/common"
)

// RetrieveChunks embeds the query and returns the k most similar chunks in
// scope, scored by cosine similarity.
func (s *Store) RetrieveChunks(
	ctx context.Context,
	query string,
	auth common.AuthContext,
	filters map[string]any,
	k int,
	scope common.QueryScope,
) ([]common.ChunkResult, error) {
	embedding, err := s.aiClient.GenerateEmbedding(ctx, []byte(query))
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	args := []any{pgvector.NewVector(embedding), auth.EntityID}
	where := "d.owner = $2"
	where, args = scopeClausePrefixed(where, args, scope, "d.")

	if len(filters) > 0 {
		encoded, err := json.Marshal(filters)
		if err != nil {
			return nil, err
		}
		args = append(args, encoded)
		where += fmt.Sprintf(" AND d.metadata @> $%d", len(args))
	}

	args = append(args, k)
	limit := fmt.Sprintf("$%d", len(args))

	rows, err := s.conn.Query(ctx, `
		SELECT c.document_id, c.chunk_number, c.content, 1 - (c.embedding <=> $1) AS score
		FROM document_chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE `+where+`
		ORDER BY c.embedding <=> $1
		LIMIT `+limit, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []common.ChunkResult
	for rows.Next() {
		var c common.ChunkResult
		if err := rows.Scan(&c.DocumentID, &c.ChunkNumber, &c.Content, &c.Score); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}
