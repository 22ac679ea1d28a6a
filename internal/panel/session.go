package panel

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"linegate/internal/pkg/httpclient"
)

// loginTokenFields are the field names the panel has been observed to
// embed its login-form token under; first match wins.
var loginTokenFields = []string{"csrf_token", "_token"}

// createTokenField is the hidden input on the new-line page carrying
// the anti-forgery token the create form requires.
const createTokenField = "csrf"

// loginLandingMarker must appear in the final URL after a successful
// login post. The panel gives no other reliable signal.
const loginLandingMarker = "dashboard"

// session owns one cookie-bearing connection to the panel. Not safe
// for concurrent use; the client serializes create calls around it.
type session struct {
	base   string
	client *httpclient.Client
}

func newSession(base string, timeout time.Duration) *session {
	c := httpclient.New().
		WithTimeout(timeout).
		WithInsecureSkipVerify().
		WithBrowserHeaders().
		WithCookieJar().
		WithRedirectPolicy(5)
	return &session{base: base, client: c}
}

// login fetches the login page, extracts the embedded form token and
// posts the admin credentials. Success is judged by a 200 status plus
// a landing-page marker in the final URL. Cookies set by a failed
// attempt are intentionally not rolled back.
func (s *session) login(ctx context.Context, username, password string) error {
	page, err := s.client.Request().SetContext(ctx).Get(s.base + "/login")
	if err != nil {
		return wrapError(CodeConnection, "panel login page unreachable", err)
	}

	token := findHiddenInput(page.Body(), loginTokenFields...)
	if token == "" {
		return newError(CodeLogin, "login form token not found")
	}

	form := map[string]string{
		"username": username,
		"password": password,
	}
	form[tokenFieldName(page.Body())] = token

	resp, err := s.client.Request().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetFormData(form).
		Post(s.base + "/login")
	if err != nil {
		return wrapError(CodeConnection, "panel login request failed", err)
	}

	finalURL := resp.RawResponse.Request.URL.String()
	if resp.StatusCode() != 200 || !strings.Contains(finalURL, loginLandingMarker) {
		return newError(CodeLogin, "panel login rejected").
			withDetails("final url: " + finalURL)
	}
	return nil
}

// fetchFormToken loads the new-line page and extracts the create-form
// anti-forgery token. The panel's token staleness window is unknown,
// so this runs immediately before every submit.
func (s *session) fetchFormToken(ctx context.Context) (string, error) {
	page, err := s.client.Request().SetContext(ctx).Get(s.base + "/lines/new")
	if err != nil {
		return "", wrapError(CodeConnection, "new-line page unreachable", err)
	}
	token := findHiddenInput(page.Body(), createTokenField)
	if token == "" {
		return "", newError(CodeCSRF, "create form token not found")
	}
	return token, nil
}

// findHiddenInput returns the value of the first hidden input matching
// any of the given names, in order.
func findHiddenInput(body []byte, names ...string) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	for _, name := range names {
		val, ok := doc.Find(`input[name="` + name + `"]`).First().Attr("value")
		if ok && strings.TrimSpace(val) != "" {
			return strings.TrimSpace(val)
		}
	}
	return ""
}

// tokenFieldName reports which of the known login token field names
// the page actually uses, so the post echoes it back under the same
// name.
func tokenFieldName(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return loginTokenFields[0]
	}
	for _, name := range loginTokenFields {
		if doc.Find(`input[name="`+name+`"]`).Length() > 0 {
			return name
		}
	}
	return loginTokenFields[0]
}
