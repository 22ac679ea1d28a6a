package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// APIAuth validates the Token header against the configured API key.
// A blank key disables the check (local/testing setups).
func APIAuth(apiKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if apiKey == "" {
				return next(c)
			}
			token := c.Request().Header.Get("Token")
			if token == "" {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"success": false,
					"code":    "UNAUTHORIZED",
					"error":   "Token is required",
				})
			}
			if token != apiKey {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"success": false,
					"code":    "UNAUTHORIZED",
					"error":   "Invalid token",
				})
			}
			return next(c)
		}
	}
}

// CORS configures CORS headers. Automation tools call the webhook from
// browser-executed scenarios in some setups.
func CORS() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("Access-Control-Allow-Origin", "*")
			c.Response().Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Response().Header().Set("Access-Control-Allow-Headers", "Content-Type, Token")
			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusOK)
			}
			return next(c)
		}
	}
}
