package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"linegate/internal/config"
	"linegate/internal/panel"
)

// stubPanel satisfies panel.Client without any network and counts
// create calls so tests can prove validation short-circuits.
type stubPanel struct {
	calls  int32
	result *panel.LineResult
	err    error
}

func (s *stubPanel) CreateUser(ctx context.Context, req panel.CreateLineRequest) (*panel.LineResult, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubPanel) GetLine(ctx context.Context, lineID int64) (panel.LineDetails, error) {
	return nil, nil
}

func (s *stubPanel) Ping(ctx context.Context) error { return s.err }

func (s *stubPanel) DialectName() string { return panel.DialectClassic }

func postWebhook(t *testing.T, h *LineHandler, contentType, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhook/create-user", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, h.CreateUser(c))

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return rec, out
}

func realPanelHandler(t *testing.T, cfg config.PanelConfig, autoPassword bool) *LineHandler {
	t.Helper()
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	client, err := panel.New(cfg, zap.NewNop())
	require.NoError(t, err)
	return NewLineHandler(client, autoPassword, nil, nil, zap.NewNop())
}

// Scenario A: auto-password mode; the generated password is recovered
// from a "senha:" marker in the panel reply.
func TestCreateUserAutoPasswordEndToEnd(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/lines", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"message":"Usuário criado com sucesso. senha: SEC78910"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	h := realPanelHandler(t, config.PanelConfig{
		BaseURL:      srv.URL,
		AdminUser:    "admin",
		AdminPass:    "secret",
		Dialect:      panel.DialectClassic,
		AutoPassword: true,
	}, true)

	rec, out := postWebhook(t, h, echo.MIMEApplicationJSON,
		`{"name":"joao123","email":"joao@test.com"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["success"])

	data := out["data"].(map[string]interface{})
	assert.Equal(t, "SEC78910", data["password"])
	assert.Equal(t, "joao123", data["username"])
	assert.Equal(t, "joao@test.com", data["email"])
	assert.Equal(t, float64(2), data["connections"])
	assert.Equal(t, float64(30), data["expiry_days"])
	assert.NotEmpty(t, data["created_at"])
	assert.NotEmpty(t, data["server"])
}

// Scenario B: missing email fails validation before any panel call.
func TestCreateUserMissingEmail(t *testing.T) {
	stub := &stubPanel{}
	h := NewLineHandler(stub, false, nil, nil, zap.NewNop())

	rec, out := postWebhook(t, h, echo.MIMEApplicationJSON,
		`{"name":"joao123","password":"pass123"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "MISSING_FIELDS", out["code"])
	assert.Contains(t, out["error"], "email")
	assert.Equal(t, int32(0), atomic.LoadInt32(&stub.calls))
}

// Scenario C: login lands somewhere other than the dashboard; the
// create endpoint is never reached.
func TestCreateUserLoginRejectedEndToEnd(t *testing.T) {
	var createCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprint(w, `<input type="hidden" name="csrf_token" value="TOK">`)
			return
		}
		http.Redirect(w, r, "/login?failed=1", http.StatusFound)
	})
	mux.HandleFunc("/api/lines/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&createCalls, 1)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	h := realPanelHandler(t, config.PanelConfig{
		BaseURL:   srv.URL,
		AdminUser: "admin",
		AdminPass: "wrong",
		Dialect:   panel.DialectExtended,
	}, false)

	rec, out := postWebhook(t, h, echo.MIMEApplicationJSON,
		`{"name":"joao123","email":"joao@test.com","password":"pass123"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "LOGIN_ERROR", out["code"])
	assert.Equal(t, int32(0), atomic.LoadInt32(&createCalls))
}

// Scenario D: panel answers 500; the failure carries the truncated
// response body for diagnosis.
func TestCreateUserPanelHTTPErrorEndToEnd(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/lines", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "stack trace: panel exploded at line 42", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	h := realPanelHandler(t, config.PanelConfig{
		BaseURL: srv.URL, AdminUser: "a", AdminPass: "b", Dialect: panel.DialectClassic,
	}, false)

	rec, out := postWebhook(t, h, echo.MIMEApplicationJSON,
		`{"name":"joao123","email":"joao@test.com","password":"pass123"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "HTTP_ERROR", out["code"])
	assert.Contains(t, out["details"], "panel exploded")
}

func TestCreateUserValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
		code string
	}{
		{"empty body", ``, "NO_DATA"},
		{"short name", `{"name":"jo","email":"a@b.com","password":"pass123"}`, "INVALID_USERNAME"},
		{"short password", `{"name":"joao123","email":"a@b.com","password":"123"}`, "INVALID_PASSWORD"},
		{"email without at", `{"name":"joao123","email":"nobody","password":"pass123"}`, "INVALID_EMAIL"},
		{"email without dot", `{"name":"joao123","email":"a@b","password":"pass123"}`, "INVALID_EMAIL"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubPanel{}
			h := NewLineHandler(stub, false, nil, nil, zap.NewNop())
			rec, out := postWebhook(t, h, echo.MIMEApplicationJSON, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.code, out["code"])
			assert.Equal(t, int32(0), atomic.LoadInt32(&stub.calls))
		})
	}
}

func TestCreateUserAcceptsFormBody(t *testing.T) {
	stub := &stubPanel{result: &panel.LineResult{
		Username: "joao123", Password: "pass123", Server: "panel.example", PasswordOK: true,
	}}
	h := NewLineHandler(stub, false, nil, nil, zap.NewNop())

	form := "name=joao123&email=joao%40test.com&password=pass123&max_connections=4"
	rec, out := postWebhook(t, h, echo.MIMEApplicationForm, form)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["success"])
	data := out["data"].(map[string]interface{})
	assert.Equal(t, float64(4), data["connections"])
	assert.Equal(t, int32(1), atomic.LoadInt32(&stub.calls))
}

func TestCreateUserAcceptsJSONWithTextContentType(t *testing.T) {
	stub := &stubPanel{result: &panel.LineResult{
		Username: "joao123", Password: "pass123", Server: "panel.example", PasswordOK: true,
	}}
	h := NewLineHandler(stub, false, nil, nil, zap.NewNop())

	rec, out := postWebhook(t, h, echo.MIMETextPlain,
		`{"name":"joao123","email":"joao@test.com","password":"pass123"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, int32(1), atomic.LoadInt32(&stub.calls))
}

func TestTestEndpoint(t *testing.T) {
	e := echo.New()

	ok := NewLineHandler(&stubPanel{}, false, nil, nil, zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/webhook/test", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, ok.Test(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)

	down := NewLineHandler(&stubPanel{err: panel.AsError(fmt.Errorf("refused"))}, false, nil, nil, zap.NewNop())
	req = httptest.NewRequest(http.MethodGet, "/webhook/test", nil)
	rec = httptest.NewRecorder()
	require.NoError(t, down.Test(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	e := echo.New()
	h := NewLineHandler(&stubPanel{}, false, nil, nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Health(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, panel.DialectClassic, out["panel_dialect"])
}
