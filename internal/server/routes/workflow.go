package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/docmind-ai/docmind/internal/server/middleware"
	pgxstore "github.com/docmind-ai/docmind/pkg/store/pgx"
)

// GetWorkflowStatusHandler reports the build status of the graph created
// under the given workflow id.
func GetWorkflowStatusHandler(c echo.Context) error {
	workflowID := c.Param("id")
	if workflowID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing workflow id"})
	}

	auth := c.(*middleware.AppContext).Auth
	if auth == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App
	s := pgxstore.NewStore(app.DBConn, app.AiClient)

	g, err := s.GetGraphByWorkflowID(ctx, workflowID, *auth)
	if err != nil {
		return graphErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"workflow_id":   workflowID,
		"graph":         g.Name,
		"status":        g.System.Status,
		"entities":      len(g.Entities),
		"relationships": len(g.Relationships),
		"documents":     len(g.DocumentIDs),
		"updated_at":    g.UpdatedAt,
	})
}
