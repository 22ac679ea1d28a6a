package panel

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"linegate/internal/pkg/utils"
)

type panelClient struct {
	base           string
	adminUser      string
	adminPass      string
	dialect        Dialect
	timeout        time.Duration
	defaultPackage string
	bouquets       []string
	resellerNote   string
	logger         *zap.Logger

	// One in-flight create sequence at a time: the panel's cookie and
	// token state are not safe for concurrent mutation.
	mu sync.Mutex
}

func (p *panelClient) DialectName() string { return p.dialect.Name }

// CreateUser runs the full sequence against a fresh session: login
// when the dialect requires it, token fetch immediately before the
// submit, one create attempt, then best-effort detail enrichment.
func (p *panelClient) CreateUser(ctx context.Context, req CreateLineRequest) (*LineResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sess := newSession(p.base, p.timeout)

	if p.dialect.LoginRequired {
		if err := sess.login(ctx, p.adminUser, p.adminPass); err != nil {
			return nil, err
		}
	}

	token := ""
	if p.dialect.FormToken {
		t, err := sess.fetchFormToken(ctx)
		if err != nil {
			return nil, err
		}
		token = t
	}

	username := req.Name
	var lineID int64
	if p.dialect.PerLineEndpoint {
		// Panel expects a client-supplied primary key and login name.
		lineID = utils.GenerateLineID()
		username = utils.GenerateUsername()
	}

	form := p.buildPayload(req, username, token)

	r := sess.client.Request().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetFormDataFromValues(form)

	var resp *resty.Response
	var err error
	if p.dialect.PerLineEndpoint {
		// Panel enforces same-origin on the per-line endpoint.
		r.SetHeader("Origin", p.base)
		r.SetHeader("Referer", p.base+"/lines/new")
		resp, err = r.Put(fmt.Sprintf("%s/api/lines/%d", p.base, lineID))
	} else {
		resp, err = r.Post(p.base + "/api/lines")
	}
	if err != nil {
		return nil, wrapError(CodeConnection, "panel create request failed", err)
	}

	body := string(resp.Body())
	p.logger.Debug("panel create reply",
		zap.Int("status", resp.StatusCode()),
		zap.String("username", username),
		zap.String("body", utils.Truncate(body, 300)))

	if resp.StatusCode() != 200 {
		return nil, newError(CodeHTTP, fmt.Sprintf("panel answered status %d", resp.StatusCode())).
			withDetails(utils.Truncate(body, 500))
	}

	message, perr := interpretReply(body, p.dialect)
	if perr != nil {
		return nil, perr
	}

	res := &LineResult{
		Username:   username,
		Password:   req.Password,
		LineID:     lineID,
		Server:     p.serverHost(),
		Message:    message,
		RawBody:    body,
		PasswordOK: true,
	}

	if p.dialect.AutoPassword && req.Password == "" {
		// Best effort only: extraction coming up empty never fails a
		// creation the panel already accepted.
		if pw, ok := ExtractPassword(body); ok {
			res.Password = pw
		} else {
			res.Password = PasswordUnknown
			res.PasswordOK = false
			p.logger.Warn("generated password not found in panel reply",
				zap.String("username", username))
		}
	}

	if p.dialect.PerLineEndpoint {
		if details, err := p.fetchDetails(ctx, sess, lineID); err == nil {
			res.Details = details
		}
	}

	return res, nil
}

// GetLine re-queries the panel for a line record on its own session.
func (p *panelClient) GetLine(ctx context.Context, lineID int64) (LineDetails, error) {
	sess := newSession(p.base, p.timeout)
	if p.dialect.LoginRequired {
		if err := sess.login(ctx, p.adminUser, p.adminPass); err != nil {
			return nil, err
		}
	}
	return p.fetchDetails(ctx, sess, lineID)
}

// Ping checks that the panel answers at all. Used by the health
// prober and the webhook test endpoint; mutates nothing.
func (p *panelClient) Ping(ctx context.Context) error {
	_, err := newSession(p.base, p.timeout).client.Request().
		SetContext(ctx).
		Get(p.base + "/login")
	if err != nil {
		return wrapError(CodeConnection, "panel unreachable", err)
	}
	return nil
}

func (p *panelClient) fetchDetails(ctx context.Context, sess *session, lineID int64) (LineDetails, error) {
	resp, err := sess.client.Request().
		SetContext(ctx).
		SetResult(LineDetails{}).
		Get(fmt.Sprintf("%s/api/lines/%d", p.base, lineID))
	if err != nil {
		return nil, wrapError(CodeConnection, "line detail fetch failed", err)
	}
	if resp.StatusCode() != 200 {
		return nil, newError(CodeHTTP, fmt.Sprintf("line detail fetch answered status %d", resp.StatusCode()))
	}
	details, ok := resp.Result().(*LineDetails)
	if !ok || details == nil || len(*details) == 0 {
		return nil, newError(CodeCreate, "line detail reply not parseable")
	}
	return *details, nil
}

// buildPayload assembles the exact field set the configured dialect's
// create form expects. Every field stays present even when empty so
// the panel's server-side validation sees the full set.
func (p *panelClient) buildPayload(req CreateLineRequest, username, token string) url.Values {
	form := url.Values{}

	pkg := req.Package
	if pkg == "" {
		pkg = p.defaultPackage
	}

	if p.dialect.PerLineEndpoint {
		form.Set("csrf", token)
		form.Set("name", req.Name)
		form.Set("username", username)
		form.Set("password", req.Password)
		form.Set("email", req.Email)
		form.Set("phone", req.Phone)
		form.Set("telegram", req.Telegram)
		form.Set("connections", strconv.Itoa(req.MaxConnections))
		form.Set("expiry_days", strconv.Itoa(req.ExpiryDays))
		form.Set("package_id", pkg)
		form.Set("member_id", req.MemberID)
		note := req.ResellerNote
		if note == "" {
			note = p.resellerNote
		}
		form.Set("reseller_notes", note)
		bouquets := req.Bouquets
		if len(bouquets) == 0 {
			bouquets = p.bouquets
		}
		for _, b := range bouquets {
			form.Add("bouquet[]", b)
		}
		return form
	}

	// Classic mode: no session, admin credentials ride along on every
	// create post.
	form.Set("admin_username", p.adminUser)
	form.Set("admin_password", p.adminPass)
	form.Set("username", username)
	form.Set("password", req.Password)
	form.Set("email", req.Email)
	form.Set("connections", strconv.Itoa(req.MaxConnections))
	form.Set("expiry_days", strconv.Itoa(req.ExpiryDays))
	form.Set("package", pkg)
	form.Set("enabled", "1")
	return form
}

func (p *panelClient) serverHost() string {
	u, err := url.Parse(p.base)
	if err != nil {
		return p.base
	}
	return u.Host
}
