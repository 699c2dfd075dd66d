package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/docmind-ai/docmind/internal/queue"
	"github.com/docmind-ai/docmind/internal/server/middleware"
	"github.com/docmind-ai/docmind/pkg/common"
	"github.com/docmind-ai/docmind/pkg/graph"
	"github.com/docmind-ai/docmind/pkg/logger"
	"github.com/docmind-ai/docmind/pkg/store"
	pgxstore "github.com/docmind-ai/docmind/pkg/store/pgx"
)

type scopeBody struct {
	AppID      string `json:"app_id"`
	FolderName string `json:"folder_name"`
	EndUserID  string `json:"end_user_id"`
}

func (s scopeBody) toScope() common.QueryScope {
	return common.QueryScope{
		AppID:      s.AppID,
		FolderName: s.FolderName,
		EndUserID:  s.EndUserID,
	}
}

func scopeFromQuery(c echo.Context) common.QueryScope {
	return common.QueryScope{
		AppID:      c.QueryParam("app_id"),
		FolderName: c.QueryParam("folder_name"),
		EndUserID:  c.QueryParam("end_user_id"),
	}
}

// graphResponse is the wire shape of a graph: full content plus the
// lifecycle status lifted out of system metadata.
type graphResponse struct {
	ID            string                `json:"id"`
	Name          string                `json:"name"`
	Status        common.GraphStatus    `json:"status"`
	WorkflowID    string                `json:"workflow_id,omitempty"`
	Entities      []common.Entity       `json:"entities"`
	Relationships []common.Relationship `json:"relationships"`
	DocumentIDs   []string              `json:"document_ids"`
	Filters       map[string]any        `json:"filters,omitempty"`
	CreatedAt     string                `json:"created_at"`
	UpdatedAt     string                `json:"updated_at"`
}

func toGraphResponse(g *common.Graph) graphResponse {
	return graphResponse{
		ID:            g.ID,
		Name:          g.Name,
		Status:        g.System.Status,
		WorkflowID:    g.System.WorkflowID,
		Entities:      g.Entities,
		Relationships: g.Relationships,
		DocumentIDs:   g.DocumentIDs,
		Filters:       g.Filters,
		CreatedAt:     g.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:     g.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// CreateGraphHandler enqueues a graph build over the requested document
// set. The build runs on a worker; the response carries the workflow id
// used to poll for completion.
func CreateGraphHandler(c echo.Context) error {
	type createGraphBody struct {
		Name        string                 `json:"name" validate:"required"`
		Filters     map[string]any         `json:"filters"`
		DocumentIDs []string               `json:"document_ids"`
		Scope       scopeBody              `json:"scope"`
		Overrides   *graph.PromptOverrides `json:"prompt_overrides"`
	}

	data := new(createGraphBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	auth := c.(*middleware.AppContext).Auth
	if auth == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	workflowID, err := gonanoid.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	msg := queue.GraphBuildMsg{
		Operation:   queue.OperationCreate,
		GraphName:   data.Name,
		WorkflowID:  workflowID,
		Filters:     data.Filters,
		DocumentIDs: data.DocumentIDs,
		Auth:        *auth,
		Scope:       data.Scope.toScope(),
		Overrides:   data.Overrides,
	}
	encoded, err := json.Marshal(msg)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	ch := c.(*middleware.AppContext).App.Queue
	if err := queue.PublishFIFO(ch, queue.CreateQueue, encoded); err != nil {
		logger.Error("Failed to publish graph build", "graph", data.Name, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusAccepted, map[string]string{
		"message":     "Graph build queued",
		"name":        data.Name,
		"workflow_id": workflowID,
		"status":      string(common.StatusProcessing),
	})
}

// UpdateGraphHandler enqueues an incremental update of an existing graph.
func UpdateGraphHandler(c echo.Context) error {
	type updateGraphBody struct {
		Name                  string                 `param:"name" validate:"required"`
		AdditionalFilters     map[string]any         `json:"additional_filters"`
		AdditionalDocumentIDs []string               `json:"additional_document_ids"`
		Scope                 scopeBody              `json:"scope"`
		Overrides             *graph.PromptOverrides `json:"prompt_overrides"`
	}

	data := new(updateGraphBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	auth := c.(*middleware.AppContext).Auth
	if auth == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App
	s := pgxstore.NewStore(app.DBConn, app.AiClient)

	g, err := s.GetGraph(ctx, data.Name, *auth, data.Scope.toScope())
	if err != nil {
		return graphErrorResponse(c, err)
	}
	if g.System.Status != common.StatusCompleted {
		return c.JSON(http.StatusConflict, map[string]string{"error": "Graph build already in progress"})
	}

	msg := queue.GraphBuildMsg{
		Operation:   queue.OperationUpdate,
		GraphName:   data.Name,
		WorkflowID:  g.System.WorkflowID,
		Filters:     data.AdditionalFilters,
		DocumentIDs: data.AdditionalDocumentIDs,
		Auth:        *auth,
		Scope:       data.Scope.toScope(),
		Overrides:   data.Overrides,
	}
	encoded, err := json.Marshal(msg)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if err := queue.PublishFIFO(app.Queue, queue.UpdateQueue, encoded); err != nil {
		logger.Error("Failed to publish graph update", "graph", data.Name, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusAccepted, map[string]string{
		"message": "Graph update queued",
		"name":    data.Name,
	})
}

// GetGraphHandler returns the full named graph.
func GetGraphHandler(c echo.Context) error {
	name := c.Param("name")
	if name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing graph name"})
	}

	auth := c.(*middleware.AppContext).Auth
	if auth == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App
	s := pgxstore.NewStore(app.DBConn, app.AiClient)

	g, err := s.GetGraph(ctx, name, *auth, scopeFromQuery(c))
	if err != nil {
		return graphErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, toGraphResponse(g))
}

// ListGraphsHandler returns the caller's graphs, newest first.
func ListGraphsHandler(c echo.Context) error {
	auth := c.(*middleware.AppContext).Auth
	if auth == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App
	s := pgxstore.NewStore(app.DBConn, app.AiClient)

	graphs, err := s.ListGraphs(ctx, *auth, scopeFromQuery(c))
	if err != nil {
		logger.Error("Failed to list graphs", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	resp := make([]graphResponse, 0, len(graphs))
	for _, g := range graphs {
		resp = append(resp, toGraphResponse(g))
	}
	return c.JSON(http.StatusOK, resp)
}

// DeleteGraphHandler removes the named graph.
func DeleteGraphHandler(c echo.Context) error {
	name := c.Param("name")
	if name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing graph name"})
	}

	auth := c.(*middleware.AppContext).Auth
	if auth == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App
	s := pgxstore.NewStore(app.DBConn, app.AiClient)

	if err := s.DeleteGraph(ctx, name, *auth, scopeFromQuery(c)); err != nil {
		return graphErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Graph deleted"})
}

func graphErrorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, store.ErrGraphNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Graph not found"})
	case errors.Is(err, store.ErrPermissionDenied):
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Forbidden"})
	default:
		logger.Error("Graph store error", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
}
