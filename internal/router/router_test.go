package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"linegate/internal/handler/api"
	"linegate/internal/middleware"
	"linegate/internal/panel"
)

type okPanel struct{}

func (okPanel) CreateUser(ctx context.Context, req panel.CreateLineRequest) (*panel.LineResult, error) {
	return &panel.LineResult{Username: req.Name, Password: req.Password, Server: "panel.example", PasswordOK: true}, nil
}

func (okPanel) GetLine(ctx context.Context, lineID int64) (panel.LineDetails, error) {
	return nil, nil
}

func (okPanel) Ping(ctx context.Context) error { return nil }

func (okPanel) DialectName() string { return panel.DialectClassic }

func newTestServer(t *testing.T, apiKey string) *echo.Echo {
	t.Helper()
	e := echo.New()
	logger := zap.NewNop()
	handler := api.NewLineHandler(okPanel{}, false, nil, nil, logger)
	deduper, err := middleware.NewEventDeduper("", "", 0, time.Minute)
	require.NoError(t, err)
	Setup(e, handler, logger, apiKey, deduper)
	return e
}

func TestWebhookRouteWired(t *testing.T) {
	e := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/webhook/create-user",
		strings.NewReader(`{"name":"joao123","email":"joao@test.com","password":"pass123"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
}

func TestWebhookRequiresToken(t *testing.T) {
	e := newTestServer(t, "sekret")

	req := httptest.NewRequest(http.MethodPost, "/webhook/create-user",
		strings.NewReader(`{"name":"joao123","email":"joao@test.com","password":"pass123"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/webhook/create-user",
		strings.NewReader(`{"name":"joao123","email":"joao@test.com","password":"pass123"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("Token", "sekret")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDuplicateDeliverySuppressed(t *testing.T) {
	e := newTestServer(t, "")
	body := `{"event_id":"evt-1","name":"joao123","email":"joao@test.com","password":"pass123"}`

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook/create-user", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	e.ServeHTTP(first, req)
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/webhook/create-user", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	e.ServeHTTP(second, req)
	require.Equal(t, http.StatusOK, second.Code)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &out))
	assert.Equal(t, true, out["duplicate"])
}

func TestHealthRoute(t *testing.T) {
	e := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRouteMapsToWebhookError(t *testing.T) {
	e := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "INTERNAL_ERROR", out["code"])
}
