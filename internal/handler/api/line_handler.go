package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"linegate/internal/models"
	"linegate/internal/notify"
	"linegate/internal/panel"
	"linegate/internal/pkg/utils"
	"linegate/internal/prober"
)

// LineHandler serves the create-user webhook and its companion
// test/health endpoints.
type LineHandler struct {
	panel        panel.Client
	autoPassword bool
	notifier     *notify.Notifier
	prober       *prober.Prober
	logger       *zap.Logger
}

// NewLineHandler creates the webhook handler.
func NewLineHandler(client panel.Client, autoPassword bool, notifier *notify.Notifier, pr *prober.Prober, logger *zap.Logger) *LineHandler {
	return &LineHandler{
		panel:        client,
		autoPassword: autoPassword,
		notifier:     notifier,
		prober:       pr,
		logger:       logger,
	}
}

// CreateUser handles POST /webhook/create-user: validates the payload,
// relays it to the panel, and maps the outcome to the webhook
// contract. All validation happens before any network call.
func (h *LineHandler) CreateUser(c echo.Context) error {
	log := h.logger.With(zap.String("request_id", utils.GenerateRequestID()))

	body := parseRequestBody(c)
	if len(body) == 0 {
		return errorResponse(c, http.StatusBadRequest, models.CodeNoData,
			"Nenhum dado recebido", "content-type: "+c.Request().Header.Get("Content-Type"))
	}

	name := getStringField(body, "name")
	email := getStringField(body, "email")
	password := getStringField(body, "password")
	connections := getIntField(body, "max_connections", 2)
	expiryDays := getIntField(body, "expiry_days", 30)

	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if !h.autoPassword && password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return errorResponse(c, http.StatusBadRequest, models.CodeMissingFields,
			"Campos obrigatórios ausentes: "+strings.Join(missing, ", "), "")
	}

	if len(name) < 3 {
		return errorResponse(c, http.StatusBadRequest, models.CodeInvalidUsername,
			"Username deve ter pelo menos 3 caracteres", "")
	}
	if password != "" && len(password) < 6 {
		return errorResponse(c, http.StatusBadRequest, models.CodeInvalidPassword,
			"Password deve ter pelo menos 6 caracteres", "")
	}
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return errorResponse(c, http.StatusBadRequest, models.CodeInvalidEmail,
			"Email inválido", "")
	}
	if connections <= 0 {
		connections = 2
	}
	if expiryDays <= 0 {
		expiryDays = 30
	}

	req := panel.CreateLineRequest{
		Name:           name,
		Email:          email,
		Password:       password,
		MaxConnections: connections,
		ExpiryDays:     expiryDays,
		Package:        getStringField(body, "package"),
		Phone:          getStringField(body, "phone"),
		Telegram:       getStringField(body, "telegram"),
		MemberID:       getStringField(body, "member_id"),
		ResellerNote:   getStringField(body, "reseller_notes"),
	}

	log.Info("creating line on panel",
		zap.String("name", name),
		zap.String("email", email),
		zap.String("dialect", h.panel.DialectName()))

	result, err := h.panel.CreateUser(c.Request().Context(), req)
	if err != nil {
		perr := panel.AsError(err)
		log.Error("panel create failed",
			zap.String("code", string(perr.Code)),
			zap.Error(perr))
		h.notifier.CreateFailed(string(perr.Code), perr.Message)
		return errorResponse(c, statusForCode(perr.Code), string(perr.Code), perr.Message, perr.Details)
	}

	if !result.PasswordOK {
		log.Warn("line created but generated password not recovered",
			zap.String("username", result.Username))
	}

	user := models.CreatedUser{
		Username:    result.Username,
		Password:    result.Password,
		Email:       email,
		Server:      result.Server,
		Connections: connections,
		ExpiryDays:  expiryDays,
		CreatedAt:   utils.NowStamp(),
	}

	log.Info("line created", zap.String("username", user.Username))
	h.notifier.CreatedUser(user)

	return successResponse(c, "Usuário IPTV criado com sucesso", user)
}

// Test handles GET /webhook/test: a connectivity check against the
// panel without creating anything.
func (h *LineHandler) Test(c echo.Context) error {
	if err := h.panel.Ping(c.Request().Context()); err != nil {
		perr := panel.AsError(err)
		return errorResponse(c, http.StatusBadGateway, string(perr.Code), perr.Message, perr.Details)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Painel acessível",
		"dialect": h.panel.DialectName(),
	})
}

// Health handles GET /health using the prober's last result.
func (h *LineHandler) Health(c echo.Context) error {
	status := models.HealthStatus{
		Status:       "ok",
		PanelDialect: h.panel.DialectName(),
		PanelOK:      true,
	}
	if h.prober != nil {
		snap := h.prober.Status()
		status.PanelOK = snap.OK
		status.PanelError = snap.LastError
		if !snap.CheckedAt.IsZero() {
			status.CheckedAt = snap.CheckedAt.Format("2006-01-02 15:04:05")
		}
	}
	return c.JSON(http.StatusOK, status)
}

// statusForCode maps panel failure classes to HTTP statuses:
// transport-level trouble reads as a bad gateway, everything else as a
// caller-visible 400 like the original webhook contract.
func statusForCode(code panel.Code) int {
	switch code {
	case panel.CodeHTTP, panel.CodeConnection:
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}
