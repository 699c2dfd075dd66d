package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/docmind-ai/docmind/pkg/ai"
	"github.com/docmind-ai/docmind/pkg/common"
	"github.com/docmind-ai/docmind/pkg/graph"
	"github.com/docmind-ai/docmind/pkg/leaselock"
	"github.com/docmind-ai/docmind/pkg/logger"
	pgxstore "github.com/docmind-ai/docmind/pkg/store/pgx"
)

// GraphBuildMsg is a queued graph build job. Operation selects create or
// update; the remaining fields mirror the builder parameters.
type GraphBuildMsg struct {
	Operation   string                 `json:"operation"`
	GraphName   string                 `json:"graph_name"`
	WorkflowID  string                 `json:"workflow_id,omitempty"`
	Filters     map[string]any         `json:"filters,omitempty"`
	DocumentIDs []string               `json:"document_ids,omitempty"`
	Auth        common.AuthContext     `json:"auth"`
	Scope       common.QueryScope      `json:"scope"`
	Overrides   *graph.PromptOverrides `json:"overrides,omitempty"`
}

const (
	OperationCreate = "create"
	OperationUpdate = "update"
)

// ProcessBuildMessage runs one queued graph build. The build holds a lease
// keyed on owner and graph name so a worker crash cannot leave the graph
// claimed past the lease TTL.
func ProcessBuildMessage(
	ctx context.Context,
	aiClient ai.GraphAIClient,
	conn *pgxpool.Pool,
	locker *leaselock.Locker,
	msg []byte,
) error {
	data := new(GraphBuildMsg)
	if err := json.Unmarshal(msg, data); err != nil {
		return fmt.Errorf("failed to decode build message: %w", err)
	}
	if data.GraphName == "" {
		return errors.New("build message has no graph name")
	}

	store := pgxstore.NewStore(conn, aiClient)
	builder := graph.NewBuilder(graph.NewBuilderParams{
		AIClient:  aiClient,
		Graphs:    store,
		Documents: store,
	})

	leaseKey := data.Auth.EntityID + "/" + data.GraphName
	opts := leaselock.Options{
		TTL:  10 * time.Minute,
		Wait: false,
	}

	return locker.WithLease(ctx, leaseKey, opts, func(ctx context.Context) error {
		start := time.Now()
		var g *common.Graph
		var err error

		switch data.Operation {
		case OperationCreate:
			g, err = builder.Create(ctx, graph.CreateGraphParams{
				Name:        data.GraphName,
				Filters:     data.Filters,
				DocumentIDs: data.DocumentIDs,
				Auth:        data.Auth,
				Scope:       data.Scope,
				WorkflowID:  data.WorkflowID,
				Overrides:   data.Overrides,
			})
		case OperationUpdate:
			g, err = builder.Update(ctx, graph.UpdateGraphParams{
				Name:                  data.GraphName,
				AdditionalFilters:     data.Filters,
				AdditionalDocumentIDs: data.DocumentIDs,
				Auth:                  data.Auth,
				Scope:                 data.Scope,
				Overrides:             data.Overrides,
			})
		default:
			return fmt.Errorf("unknown build operation: %s", data.Operation)
		}
		if err != nil {
			return err
		}

		logger.Info("[Queue] Graph build finished",
			"graph", g.Name,
			"operation", data.Operation,
			"entities", len(g.Entities),
			"relationships", len(g.Relationships),
			"documents", len(g.DocumentIDs),
			"duration", time.Since(start).Round(time.Second).String(),
		)
		return nil
	})
}
