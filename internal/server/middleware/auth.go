package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/docmind-ai/docmind/pkg/common"
)

var allPermissions = []string{
	"graph.create",
	"graph.update",
	"graph.delete",
	"graph.view",
	"graph.query",
}

func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}

		token := strings.Split(authHeader, " ")[1]
		app := c.(*AppContext).App

		// Master API Key bypass
		if app.MasterAPIKey != "" && token == app.MasterAPIKey {
			c.(*AppContext).Auth = &common.AuthContext{
				UserID:      "master",
				EntityID:    "master",
				Permissions: allPermissions,
			}
			return next(c)
		}

		k := *app.Key
		parsed, err := jwt.Parse(token, k.Keyfunc)
		if err != nil || !parsed.Valid {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}

		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}

		userID, _ := claims["sub"].(string)
		if userID == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid user ID"})
		}

		entityID := userID
		if idClaim, ok := claims["entity_id"].(string); ok && idClaim != "" {
			entityID = idClaim
		}

		appID, _ := claims["app_id"].(string)

		var permissions []string
		if permsClaim, ok := claims["permissions"].([]any); ok {
			for _, p := range permsClaim {
				if pStr, ok := p.(string); ok {
					permissions = append(permissions, pStr)
				}
			}
		}
		if role, _ := claims["role"].(string); role == "admin" && len(permissions) == 0 {
			permissions = allPermissions
		}

		c.(*AppContext).Auth = &common.AuthContext{
			UserID:      userID,
			EntityID:    entityID,
			AppID:       appID,
			Permissions: permissions,
		}

		return next(c)
	}
}

func RequirePermission(permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.(*AppContext).Auth
			if auth == nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			}
			if !auth.HasPermission(permission) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "Forbidden: missing permission " + permission})
			}
			return next(c)
		}
	}
}
