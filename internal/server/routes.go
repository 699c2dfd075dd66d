package server

import (
	"github.com/labstack/echo/v4"

	"github.com/docmind-ai/docmind/internal/server/middleware"
	"github.com/docmind-ai/docmind/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Graph routes
	apiRoutes.GET("/graphs", routes.ListGraphsHandler, middleware.RequirePermission("graph.view"))
	apiRoutes.POST("/graphs", routes.CreateGraphHandler, middleware.RequirePermission("graph.create"))
	apiRoutes.GET("/graphs/:name", routes.GetGraphHandler, middleware.RequirePermission("graph.view"))
	apiRoutes.POST("/graphs/:name/update", routes.UpdateGraphHandler, middleware.RequirePermission("graph.update"))
	apiRoutes.DELETE("/graphs/:name", routes.DeleteGraphHandler, middleware.RequirePermission("graph.delete"))
	apiRoutes.GET("/graphs/:name/visualization", routes.GetVisualizationHandler, middleware.RequirePermission("graph.view"))

	// Query routes
	apiRoutes.POST("/query", routes.QueryHandler, middleware.RequirePermission("graph.query"))

	// Workflow routes
	apiRoutes.GET("/workflows/:id/status", routes.GetWorkflowStatusHandler, middleware.RequirePermission("graph.view"))
}
