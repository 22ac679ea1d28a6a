package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"linegate/internal/models"
)

// Response helpers matching the webhook contract consumed by the
// automation tool.
func successResponse(c echo.Context, msg string, data models.CreatedUser) error {
	return c.JSON(http.StatusOK, models.WebhookSuccess{
		Success: true,
		Message: msg,
		Data:    data,
	})
}

func errorResponse(c echo.Context, status int, code, errMsg, details string) error {
	return c.JSON(status, models.WebhookError{
		Success: false,
		Code:    code,
		Error:   errMsg,
		Details: details,
	})
}

// parseRequestBody extracts a field map from the request, tolerating
// the formats the automation tool has been seen sending: JSON, form
// encoding, and JSON delivered with a text content type.
func parseRequestBody(c echo.Context) map[string]interface{} {
	req := c.Request()
	if req.Body == nil {
		return nil
	}
	raw, err := io.ReadAll(req.Body)
	if err != nil {
		return nil
	}
	req.Body = io.NopCloser(bytes.NewBuffer(raw))

	body := map[string]interface{}{}
	if err := json.Unmarshal(raw, &body); err == nil && len(body) > 0 {
		return body
	}

	if params, err := c.FormParams(); err == nil && len(params) > 0 {
		body = make(map[string]interface{}, len(params))
		for k, v := range params {
			if len(v) > 0 {
				body[k] = v[0]
			}
		}
		return body
	}

	// Some senders post JSON with a text/plain content type.
	trimmed := strings.TrimSpace(string(raw))
	body = map[string]interface{}{}
	if err := json.Unmarshal([]byte(trimmed), &body); err == nil && len(body) > 0 {
		return body
	}

	return nil
}

// getStringField gets a string field from the body map.
func getStringField(body map[string]interface{}, key string) string {
	if v, ok := body[key]; ok {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
		// Handle numbers that should be strings
		if f, ok := v.(float64); ok {
			return fmt.Sprintf("%.0f", f)
		}
	}
	return ""
}

// getIntField gets an int field from the body map.
func getIntField(body map[string]interface{}, key string, defaultVal int) int {
	if v, ok := body[key]; ok {
		switch t := v.(type) {
		case float64:
			return int(t)
		case int:
			return t
		case string:
			if i, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
				return i
			}
		}
	}
	return defaultVal
}
