package panel

import "context"

// PasswordUnknown is returned in place of a password when the panel
// generated one server-side and no extraction strategy could recover
// it from the reply. The line still exists; the operator has to look
// it up in the panel directly.
const PasswordUnknown = "VERIFICAR_PAINEL"

// CreateLineRequest contains validated params for creating a line
// (the panel's term for a subscriber account) on the panel.
type CreateLineRequest struct {
	Name           string
	Email          string
	Password       string // empty in auto-password mode
	MaxConnections int
	ExpiryDays     int
	Package        string
	Bouquets       []string
	Phone          string
	Telegram       string
	MemberID       string
	ResellerNote   string
}

// LineDetails is the panel's own record for a line, shape unknown.
type LineDetails map[string]interface{}

// LineResult is the outcome of one successful create attempt.
// Failures travel as *Error instead.
type LineResult struct {
	Username   string
	Password   string
	LineID     int64
	Server     string
	Message    string
	RawBody    string
	Details    LineDetails
	PasswordOK bool // false when Password is the PasswordUnknown sentinel
}

// Client drives one IPTV panel. Implementations are safe for
// concurrent use; panel calls within one create are sequential because
// each depends on cookie/token state from the previous one.
type Client interface {
	// CreateUser creates a line on the panel. One call is one attempt;
	// nothing is retried.
	CreateUser(ctx context.Context, req CreateLineRequest) (*LineResult, error)

	// GetLine re-queries the panel for a created line. Non-fatal:
	// callers treat any error as "no details available".
	GetLine(ctx context.Context, lineID int64) (LineDetails, error)

	// Ping checks panel reachability without mutating anything.
	Ping(ctx context.Context) error

	// DialectName returns the configured panel dialect identifier.
	DialectName() string
}
