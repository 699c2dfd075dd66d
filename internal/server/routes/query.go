package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/docmind-ai/docmind/internal/server/middleware"
	"github.com/docmind-ai/docmind/pkg/graph"
	"github.com/docmind-ai/docmind/pkg/logger"
	"github.com/docmind-ai/docmind/pkg/query"
	pgxstore "github.com/docmind-ai/docmind/pkg/store/pgx"
)

// QueryHandler answers a question over the document collection, augmenting
// vector retrieval with the named graph when one is given.
func QueryHandler(c echo.Context) error {
	type queryBody struct {
		Query        string                 `json:"query" validate:"required"`
		GraphName    string                 `json:"graph_name"`
		HopDepth     int                    `json:"hop_depth"`
		IncludePaths bool                   `json:"include_paths"`
		K            int                    `json:"k"`
		Filters      map[string]any         `json:"filters"`
		Scope        scopeBody              `json:"scope"`
		MaxTokens    int                    `json:"max_tokens"`
		Temperature  float64                `json:"temperature"`
		Overrides    *graph.PromptOverrides `json:"prompt_overrides"`
	}

	data := new(queryBody)
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

	client := query.NewClient(query.NewClientParams{
		AIClient:  app.AiClient,
		Graphs:    s,
		Documents: s,
		Search:    s,
	})

	resp, err := client.Query(ctx, query.QueryParams{
		Query:        data.Query,
		GraphName:    data.GraphName,
		HopDepth:     data.HopDepth,
		IncludePaths: data.IncludePaths,
		K:            data.K,
		Filters:      data.Filters,
		Auth:         *auth,
		Scope:        data.Scope.toScope(),
		MaxTokens:    data.MaxTokens,
		Temperature:  data.Temperature,
		Overrides:    data.Overrides,
	})
	if err != nil {
		logger.Error("[Query] Failed to answer query", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, resp)
}
