package pgx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pgxv5 "github.com/jackc/pgx/v5"

	"github.com/docmind-ai/docmind/pkg/common"
	"github.com/docmind-ai/docmind/pkg/store"
)

// graphData is the JSONB payload column of a graph row. Identity, scoping,
// and lifecycle fields live in dedicated columns so they can be filtered
// and conditionally updated in SQL.
type graphData struct {
	Entities      []common.Entity       `json:"entities"`
	Relationships []common.Relationship `json:"relationships"`
	DocumentIDs   []string              `json:"document_ids"`
	Filters       map[string]any        `json:"filters,omitempty"`
}

const graphColumns = `id, name, owner, status, app_id, folder_name, end_user_id, workflow_id, data, created_at, updated_at`

func scanGraph(row pgxv5.Row) (*common.Graph, error) {
	var g common.Graph
	var status string
	var raw []byte
	err := row.Scan(&g.ID, &g.Name, &g.Owner, &status,
		&g.System.AppID, &g.System.FolderName, &g.System.EndUserID, &g.System.WorkflowID,
		&raw, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	g.System.Status = common.GraphStatus(status)

	var data graphData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode graph payload: %w", err)
	}
	g.Entities = data.Entities
	g.Relationships = data.Relationships
	g.DocumentIDs = data.DocumentIDs
	g.Filters = data.Filters
	return &g, nil
}

func encodeGraphData(g *common.Graph) ([]byte, error) {
	return json.Marshal(graphData{
		Entities:      g.Entities,
		Relationships: g.Relationships,
		DocumentIDs:   g.DocumentIDs,
		Filters:       g.Filters,
	})
}

// scopeClause appends equality conditions for the non-empty scope fields,
// returning the extended WHERE fragment and argument list.
func scopeClause(where string, args []any, scope common.QueryScope) (string, []any) {
	return scopeClausePrefixed(where, args, scope, "")
}

func scopeClausePrefixed(where string, args []any, scope common.QueryScope, prefix string) (string, []any) {
	if scope.AppID != "" {
		args = append(args, scope.AppID)
		where += fmt.Sprintf(" AND %sapp_id = $%d", prefix, len(args))
	}
	if scope.FolderName != "" {
		args = append(args, scope.FolderName)
		where += fmt.Sprintf(" AND %sfolder_name = $%d", prefix, len(args))
	}
	if scope.EndUserID != "" {
		args = append(args, scope.EndUserID)
		where += fmt.Sprintf(" AND %send_user_id = $%d", prefix, len(args))
	}
	return where, args
}

// GetGraph loads the named graph owned by the caller. A graph that exists
// under another owner reports permission denied rather than not found.
func (s *Store) GetGraph(
	ctx context.Context,
	name string,
	auth common.AuthContext,
	scope common.QueryScope,
) (*common.Graph, error) {
	args := []any{name, auth.EntityID}
	where := "name = $1 AND owner = $2"
	where, args = scopeClause(where, args, scope)

	g, err := scanGraph(s.conn.QueryRow(ctx,
		`SELECT `+graphColumns+` FROM graphs WHERE `+where, args...))
	if err == nil {
		return g, nil
	}
	if !errors.Is(err, pgxv5.ErrNoRows) {
		return nil, err
	}

	var exists bool
	if err := s.conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM graphs WHERE name = $1)`, name).Scan(&exists); err != nil {
		return nil, err
	}
	if exists {
		return nil, store.ErrPermissionDenied
	}
	return nil, store.ErrGraphNotFound
}

// ListGraphs returns every graph owned by the caller within the scope,
// newest first.
func (s *Store) ListGraphs(
	ctx context.Context,
	auth common.AuthContext,
	scope common.QueryScope,
) ([]*common.Graph, error) {
	args := []any{auth.EntityID}
	where := "owner = $1"
	where, args = scopeClause(where, args, scope)

	rows, err := s.conn.Query(ctx,
		`SELECT `+graphColumns+` FROM graphs WHERE `+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var graphs []*common.Graph
	for rows.Next() {
		g, err := scanGraph(rows)
		if err != nil {
			return nil, err
		}
		graphs = append(graphs, g)
	}
	return graphs, rows.Err()
}

// StoreGraph inserts a new graph row.
func (s *Store) StoreGraph(ctx context.Context, g *common.Graph) error {
	data, err := encodeGraphData(g)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	g.UpdatedAt = now

	_, err = s.conn.Exec(ctx, `
		INSERT INTO graphs (id, name, owner, status, app_id, folder_name, end_user_id, workflow_id, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		g.ID, g.Name, g.Owner, string(g.System.Status),
		g.System.AppID, g.System.FolderName, g.System.EndUserID, g.System.WorkflowID,
		data, g.CreatedAt, g.UpdatedAt)
	return err
}

// UpdateGraph rewrites an existing graph row in place.
func (s *Store) UpdateGraph(ctx context.Context, g *common.Graph) error {
	data, err := encodeGraphData(g)
	if err != nil {
		return err
	}
	g.UpdatedAt = time.Now().UTC()

	tag, err := s.conn.Exec(ctx, `
		UPDATE graphs
		SET name = $2, status = $3, app_id = $4, folder_name = $5, end_user_id = $6,
		    workflow_id = $7, data = $8, updated_at = $9
		WHERE id = $1`,
		g.ID, g.Name, string(g.System.Status),
		g.System.AppID, g.System.FolderName, g.System.EndUserID, g.System.WorkflowID,
		data, g.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrGraphNotFound
	}
	return nil
}

// DeleteGraph removes the caller's graph by name.
func (s *Store) DeleteGraph(
	ctx context.Context,
	name string,
	auth common.AuthContext,
	scope common.QueryScope,
) error {
	args := []any{name, auth.EntityID}
	where := "name = $1 AND owner = $2"
	where, args = scopeClause(where, args, scope)

	tag, err := s.conn.Exec(ctx, `DELETE FROM graphs WHERE `+where, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrGraphNotFound
	}
	return nil
}

// GetGraphByWorkflowID loads the caller's graph carrying the given
// workflow id. Used by status polling, which knows the workflow but not
// necessarily the graph name.
func (s *Store) GetGraphByWorkflowID(
	ctx context.Context,
	workflowID string,
	auth common.AuthContext,
) (*common.Graph, error) {
	g, err := scanGraph(s.conn.QueryRow(ctx,
		`SELECT `+graphColumns+` FROM graphs WHERE workflow_id = $1 AND owner = $2`,
		workflowID, auth.EntityID))
	if errors.Is(err, pgxv5.ErrNoRows) {
		return nil, store.ErrGraphNotFound
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

// TransitionGraphStatus conditionally moves a graph between lifecycle
// statuses in a single statement. The WHERE clause on the current status
// makes the transition atomic: of two concurrent callers only one sees a
// row affected.
func (s *Store) TransitionGraphStatus(
	ctx context.Context,
	graphID string,
	from, to common.GraphStatus,
) (bool, error) {
	tag, err := s.conn.Exec(ctx, `
		UPDATE graphs SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2`,
		graphID, string(from), string(to))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
