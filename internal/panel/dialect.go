package panel

import (
	"fmt"
	"strings"
)

// Dialect describes one observed operating mode of the panel. The
// panel has no versioned API; these settings were reverse-engineered
// from its web interface and collapse the known variants into one
// configurable client instead of per-variant code.
type Dialect struct {
	Name string

	// LoginRequired selects session login before the create call.
	// When false the admin credentials travel as form fields on every
	// create instead.
	LoginRequired bool

	// PerLineEndpoint selects PUT /api/lines/{id} with a
	// client-generated identifier over POST /api/lines.
	PerLineEndpoint bool

	// FormToken selects anti-forgery token fetch from the new-line
	// page immediately before each submit.
	FormToken bool

	// AutoPassword means the panel generates the line password
	// server-side and the reply must be scavenged for it.
	AutoPassword bool

	// AssumeSuccessOn200 treats any non-JSON 200 reply as success.
	// Risky (the panel renders error pages with 200) and therefore an
	// explicit opt-in, only meaningful for the classic dialect.
	AssumeSuccessOn200 bool
}

const (
	// DialectClassic: no login, full field set with admin credentials
	// on every POST to the collection endpoint.
	DialectClassic = "classic"

	// DialectExtended: session login, per-submit anti-forgery token,
	// PUT to a per-identifier endpoint.
	DialectExtended = "extended"
)

// NewDialect builds a Dialect from its configured name.
func NewDialect(name string, autoPassword, assumeSuccessOn200 bool) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case DialectClassic, "":
		return Dialect{
			Name:               DialectClassic,
			AutoPassword:       autoPassword,
			AssumeSuccessOn200: assumeSuccessOn200,
		}, nil
	case DialectExtended:
		return Dialect{
			Name:            DialectExtended,
			LoginRequired:   true,
			PerLineEndpoint: true,
			FormToken:       true,
			AutoPassword:    autoPassword,
		}, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported panel dialect: %s", name)
	}
}
