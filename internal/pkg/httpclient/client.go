package httpclient

import (
	"crypto/tls"
	"net/http/cookiejar"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client wraps resty for HTTP requests to the panel and external APIs.
// No retries: one call is one attempt against the panel.
type Client struct {
	r *resty.Client
}

// New creates a new HTTP client with sensible defaults.
func New() *Client {
	r := resty.New().
		SetTimeout(30 * time.Second)

	return &Client{r: r}
}

// WithTimeout sets a custom timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.r.SetTimeout(d)
	return c
}

// WithCookieJar attaches a fresh cookie jar so the panel's session
// cookies survive across login, token fetch and submit.
func (c *Client) WithCookieJar() *Client {
	jar, _ := cookiejar.New(nil)
	c.r.SetCookieJar(jar)
	return c
}

// WithHeader sets a custom header on every request.
func (c *Client) WithHeader(key, value string) *Client {
	c.r.SetHeader(key, value)
	return c
}

// WithBrowserHeaders sets the header set the panel expects from a
// browser session: user agent, accept, and the AJAX marker that makes
// it answer JSON instead of a rendered page.
func (c *Client) WithBrowserHeaders() *Client {
	c.r.SetHeaders(map[string]string{
		"User-Agent":       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
		"Accept":           "application/json, text/html, */*",
		"X-Requested-With": "XMLHttpRequest",
	})
	return c
}

// WithInsecureSkipVerify disables TLS verification. Many of these
// panels run on self-signed certificates.
func (c *Client) WithInsecureSkipVerify() *Client {
	c.r.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	return c
}

// WithRedirectPolicy limits how many redirects are followed.
func (c *Client) WithRedirectPolicy(max int) *Client {
	c.r.SetRedirectPolicy(resty.FlexibleRedirectPolicy(max))
	return c
}

// Get sends a GET request and returns the response body.
func (c *Client) Get(url string) ([]byte, error) {
	resp, err := c.r.R().Get(url)
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

// PostForm sends a POST request with form data.
func (c *Client) PostForm(url string, data map[string]string) ([]byte, error) {
	resp, err := c.r.R().SetFormData(data).Post(url)
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

// Post sends a POST request with a JSON body.
func (c *Client) Post(url string, body interface{}) ([]byte, error) {
	req := c.r.R().SetHeader("Content-Type", "application/json")
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Post(url)
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

// Raw returns the underlying resty client for advanced usage.
func (c *Client) Raw() *resty.Client {
	return c.r
}

// Request returns a new resty Request for chaining.
func (c *Client) Request() *resty.Request {
	return c.r.R()
}
