package panel

import (
	"encoding/json"
	"regexp"
	"strings"

	"linegate/internal/pkg/utils"
)

// successMarkers is the complete list of substrings the panel has been
// observed to answer with on a successful create. The panel has no
// documented success contract; do not "improve" on this list.
// The pt-BR entries are stems so gendered forms (gerado/gerada,
// criado/criada) all match under the substring check.
var successMarkers = []string{
	"sucesso",
	"success",
	"gerad",
	"generated",
	"criad",
	"created",
}

// messageFields are the JSON keys the panel has been seen carrying its
// human-readable message under.
var messageFields = []string{"message", "msg", "mensagem", "error"}

// interpretReply classifies a 200 reply. Structured JSON with a
// message is judged by marker match; opaque bodies succeed only under
// the dialect's explicit assume-success policy.
func interpretReply(body string, d Dialect) (string, *Error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		if d.AssumeSuccessOn200 {
			return "", nil
		}
		return "", newError(CodeCreate, "unrecognized panel response").
			withDetails(utils.Truncate(body, 500))
	}

	if ok, present := raw["success"].(bool); present {
		if ok {
			return replyMessage(raw), nil
		}
		msg := replyMessage(raw)
		if msg == "" {
			msg = "panel rejected the request"
		}
		return "", newError(CodeCreate, msg).withDetails(utils.Truncate(body, 500))
	}

	msg := replyMessage(raw)
	if msg != "" && containsSuccessMarker(msg) {
		return msg, nil
	}
	if msg == "" {
		if d.AssumeSuccessOn200 {
			return "", nil
		}
		msg = "panel response carried no message"
	}
	// 200 without a success marker is still a rejection; duplicate
	// users and quota errors only ever surface this way.
	return "", newError(CodeCreate, msg).withDetails(utils.Truncate(body, 500))
}

func replyMessage(raw map[string]interface{}) string {
	for _, field := range messageFields {
		if s, ok := raw[field].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func containsSuccessMarker(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range successMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// passwordLabels are the wordings the panel uses next to a generated
// password, in pt-BR and English.
const passwordLabels = `senha|password|pass|login|acesso`

// tagGap matches the whitespace and markup the panel's HTML replies
// put between a label, its separator and the value.
const tagGap = `(?:\s|<[^>]*>)*`

var (
	labeledPasswordRe = regexp.MustCompile(`(?i)(?:` + passwordLabels + `)["']?` + tagGap + `[:=\-]` + tagGap + `["']?([A-Za-z0-9]{6,})`)
	anyTokenRe        = regexp.MustCompile(`[A-Za-z0-9]{6,}`)
	passwordKeyRe     = regexp.MustCompile(`(?i)^(?:` + passwordLabels + `)$`)
)

// extractStrategy is one way of locating a server-generated password
// in the panel's free-form reply. Strategies run in priority order and
// the first hit wins; new panel HTML shapes get a new entry here, not
// changes at call sites.
type extractStrategy struct {
	name string
	find func(body string) string
}

var passwordStrategies = []extractStrategy{
	{name: "labeled", find: findLabeledPassword},
	{name: "json-field", find: findJSONPassword},
	{name: "any-token", find: findAnyToken},
}

// ExtractPassword scans a panel reply for a server-generated password.
// Best effort: a miss is reported, never an error.
func ExtractPassword(body string) (string, bool) {
	for _, s := range passwordStrategies {
		if pw := s.find(body); pw != "" {
			return pw, true
		}
	}
	return "", false
}

// findLabeledPassword matches an explicit label immediately followed
// by an alphanumeric token, in HTML or text.
func findLabeledPassword(body string) string {
	m := labeledPasswordRe.FindStringSubmatch(body)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// findJSONPassword walks nested JSON looking for a field named like a
// password label with a plausible value.
func findJSONPassword(body string) string {
	var raw interface{}
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return ""
	}
	return walkForPassword(raw)
}

func walkForPassword(node interface{}) string {
	switch v := node.(type) {
	case map[string]interface{}:
		for key, val := range v {
			s, ok := val.(string)
			if ok && passwordKeyRe.MatchString(key) && anyTokenRe.FindString(s) == s {
				return s
			}
		}
		for _, val := range v {
			if pw := walkForPassword(val); pw != "" {
				return pw
			}
		}
	case []interface{}:
		for _, item := range v {
			if pw := walkForPassword(item); pw != "" {
				return pw
			}
		}
	}
	return ""
}

// findAnyToken is the last resort: any alphanumeric run of at least
// six characters anywhere in the body.
func findAnyToken(body string) string {
	return anyTokenRe.FindString(body)
}
