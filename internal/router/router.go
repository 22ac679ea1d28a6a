package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"linegate/internal/handler/api"
	"linegate/internal/middleware"
	"linegate/internal/models"
)

// Setup configures all routes for the Echo server.
func Setup(
	e *echo.Echo,
	lineHandler *api.LineHandler,
	logger *zap.Logger,
	apiKey string,
	deduper middleware.EventDeduper,
) {
	// Global middleware
	e.Use(echomw.Recover())
	e.Use(middleware.CORS())

	// Unexpected defects surface as a generic internal error with the
	// underlying message attached for operator diagnosis.
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status := http.StatusInternalServerError
		msg := "Erro interno do servidor"
		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
			if s, ok := he.Message.(string); ok {
				msg = s
			}
		}
		logger.Error("unhandled error", zap.Error(err))
		_ = c.JSON(status, models.WebhookError{
			Success: false,
			Code:    models.CodeInternalError,
			Error:   msg,
			Details: err.Error(),
		})
	}

	// Webhook group: API-key auth plus duplicate-delivery suppression.
	webhook := e.Group("/webhook")
	webhook.Use(middleware.APIAuth(apiKey))
	webhook.Use(middleware.WebhookDedup(deduper))
	webhook.POST("/create-user", lineHandler.CreateUser)
	webhook.GET("/test", lineHandler.Test)

	// Health check
	e.GET("/health", lineHandler.Health)
}
