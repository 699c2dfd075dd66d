package pgx

import (
	"context"
	"encoding/json"
	"fmt"

	pgxv5 "github.com/jackc/pgx/v5"

	"github.com/docmind-ai/docmind/pkg/common"
)

const documentColumns = `id, filename, folder_name, end_user_id, metadata`

func scanDocument(row pgxv5.Row) (common.Document, error) {
	var d common.Document
	var raw []byte
	if err := row.Scan(&d.ID, &d.Filename, &d.FolderName, &d.EndUserID, &raw); err != nil {
		return common.Document{}, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &d.Metadata); err != nil {
			return common.Document{}, fmt.Errorf("failed to decode document metadata: %w", err)
		}
	}
	return d, nil
}

func (s *Store) queryDocuments(ctx context.Context, where string, args []any) ([]common.Document, error) {
	rows, err := s.conn.Query(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []common.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// GetDocuments returns the caller's documents whose metadata contains the
// given filters. Nil filters match everything in scope.
func (s *Store) GetDocuments(
	ctx context.Context,
	auth common.AuthContext,
	filters map[string]any,
	scope common.QueryScope,
) ([]common.Document, error) {
	args := []any{auth.EntityID}
	where := "owner = $1"
	where, args = scopeClause(where, args, scope)

	if len(filters) > 0 {
		encoded, err := json.Marshal(filters)
		if err != nil {
			return nil, err
		}
		args = append(args, encoded)
		where += fmt.Sprintf(" AND metadata @> $%d", len(args))
	}

	return s.queryDocuments(ctx, where, args)
}

// BatchRetrieveDocuments returns the subset of the given documents the
// caller is authorized for. Unknown or foreign ids are silently omitted.
func (s *Store) BatchRetrieveDocuments(
	ctx context.Context,
	ids []string,
	auth common.AuthContext,
	scope common.QueryScope,
) ([]common.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := []any{ids, auth.EntityID}
	where := "id = ANY($1) AND owner = $2"
	where, args = scopeClause(where, args, scope)
	return s.queryDocuments(ctx, where, args)
}

// BatchRetrieveChunks fetches the identified chunks, skipping any the
// caller cannot access.
func (s *Store) BatchRetrieveChunks(
	ctx context.Context,
	refs []common.ChunkRef,
	auth common.AuthContext,
	scope common.QueryScope,
) ([]common.ChunkResult, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	docIDs := make([]string, 0, len(refs))
	chunkNumbers := make([]int, 0, len(refs))
	for _, ref := range refs {
		docIDs = append(docIDs, ref.DocumentID)
		chunkNumbers = append(chunkNumbers, ref.ChunkNumber)
	}

	args := []any{docIDs, chunkNumbers, auth.EntityID}
	where := "d.owner = $3"
	where, args = scopeClausePrefixed(where, args, scope, "d.")

	rows, err := s.conn.Query(ctx, `
		SELECT c.document_id, c.chunk_number, c.content
		FROM document_chunks c
		JOIN documents d ON d.id = c.document_id
		JOIN unnest($1::text[], $2::int[]) AS ref(document_id, chunk_number)
		  ON ref.document_id = c.document_id AND ref.chunk_number = c.chunk_number
		WHERE `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChunks(rows)
}

// RetrieveDocumentChunks returns every chunk of the given documents in
// (document, chunk number) order.
func (s *Store) RetrieveDocumentChunks(
	ctx context.Context,
	documentIDs []string,
	auth common.AuthContext,
	scope common.QueryScope,
) ([]common.ChunkResult, error) {
	if len(documentIDs) == 0 {
		return nil, nil
	}

	args := []any{documentIDs, auth.EntityID}
	where := "c.document_id = ANY($1) AND d.owner = $2"
	where, args = scopeClausePrefixed(where, args, scope, "d.")

	rows, err := s.conn.Query(ctx, `
		SELECT c.document_id, c.chunk_number, c.content
		FROM document_chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE `+where+`
		ORDER BY c.document_id, c.chunk_number`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChunks(rows)
}

func scanChunks(rows pgxv5.Rows) ([]common.ChunkResult, error) {
	var chunks []common.ChunkResult
	for rows.Next() {
		var c common.ChunkResult
		if err := rows.Scan(&c.DocumentID, &c.ChunkNumber, &c.Content); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}
