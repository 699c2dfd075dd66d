package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/docmind-ai/docmind/internal/server/middleware"
	pgxstore "github.com/docmind-ai/docmind/pkg/store/pgx"
	"github.com/docmind-ai/docmind/pkg/viz"
)

// GetVisualizationHandler returns the graph as nodes and links ready for
// rendering. Colors are assigned fresh per request; the hash-based scheme
// keeps them stable for the same labels across requests.
func GetVisualizationHandler(c echo.Context) error {
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

	return c.JSON(http.StatusOK, viz.BuildVisualization(g, viz.NewColorAssigner()))
}
