package models

// Error codes returned to the webhook caller.
const (
	CodeNoData          = "NO_DATA"
	CodeMissingFields   = "MISSING_FIELDS"
	CodeInvalidUsername = "INVALID_USERNAME"
	CodeInvalidPassword = "INVALID_PASSWORD"
	CodeInvalidEmail    = "INVALID_EMAIL"
	CodeLoginError      = "LOGIN_ERROR"
	CodeCSRFError       = "CSRF_ERROR"
	CodeCreateError     = "CREATE_ERROR"
	CodeHTTPError       = "HTTP_ERROR"
	CodeConnectionError = "CONNECTION_ERROR"
	CodeInternalError   = "INTERNAL_ERROR"
)

// WebhookSuccess is the reply for a created user.
type WebhookSuccess struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    CreatedUser `json:"data"`
}

// CreatedUser carries the resolved credentials back to the automation
// tool.
type CreatedUser struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Email       string `json:"email"`
	Server      string `json:"server"`
	Connections int    `json:"connections"`
	ExpiryDays  int    `json:"expiry_days"`
	CreatedAt   string `json:"created_at"`
}

// WebhookError is the reply for any failure, validation or panel-side.
type WebhookError struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// HealthStatus is the /health reply, including the last probe result.
type HealthStatus struct {
	Status       string `json:"status"`
	PanelDialect string `json:"panel_dialect"`
	PanelOK      bool   `json:"panel_ok"`
	PanelError   string `json:"panel_error,omitempty"`
	CheckedAt    string `json:"checked_at,omitempty"`
}
