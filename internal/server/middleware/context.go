package middleware

import (
	"github.com/MicahParks/keyfunc/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/docmind-ai/docmind/pkg/ai"
	"github.com/docmind-ai/docmind/pkg/common"
)

// App bundles the shared infrastructure clients every handler needs.
type App struct {
	DBConn       *pgxpool.Pool
	Queue        *amqp091.Channel
	Key          *keyfunc.Keyfunc
	AiClient     ai.GraphAIClient
	MasterAPIKey string
}

// AppContext wraps the echo context with the shared app state and, after
// authentication, the caller identity.
type AppContext struct {
	echo.Context
	App  *App
	Auth *common.AuthContext
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
