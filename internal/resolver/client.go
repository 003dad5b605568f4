package resolver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/five82/flowgate/internal/attribution"
)

// Error taxonomy. Classify outcomes with errors.Is.
var (
	ErrNetwork           = eris.New("resolver: network error")
	ErrInvalidRequestURL = eris.New("resolver: invalid request url")
	ErrUnexpectedStatus  = eris.New("resolver: unexpected status")
	ErrNoPathToken       = eris.New("resolver: no path token")
)

// Kind classifies a resolution attempt.
type Kind int

const (
	KindHardFailure Kind = iota
	KindNoChange
	KindSuccess
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindNoChange:
		return "no_change"
	default:
		return "hard_failure"
	}
}

// Result is the outcome of Resolve.
type Result struct {
	Kind         Kind
	RequestedURL string
	FinalURL     string
	Status       int
	// PathToken is set when the final URL carries a pathid parameter.
	PathToken string
	Err       error
}

// Endpoint is what the flow controller needs from a resolver.
type Endpoint interface {
	AttributionURL(ac attribution.Context) (string, error)
	PathTokenURL(token string) (string, error)
	Resolve(ctx context.Context, rawURL string) Result
	Probe(ctx context.Context, rawURL string) error
	// IsConfigHost reports whether rawURL points at the routing host itself.
	IsConfigHost(rawURL string) bool
}

// Ensure Client implements Endpoint at compile time.
var _ Endpoint = (*Client)(nil)

// Client talks to the routing endpoint.
type Client struct {
	base      *url.URL
	http      *http.Client
	userAgent string
}

const (
	// DefaultTimeout bounds every GET and HEAD.
	DefaultTimeout   = 10 * time.Second
	defaultUserAgent = "flowgate/0.1"
)

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its redirect policy is
// kept; its Timeout is overwritten only when zero.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if strings.TrimSpace(ua) != "" {
			c.userAgent = ua
		}
	}
}

// NewClient builds a Client for the given base endpoint
// (https://host/path, no query).
func NewClient(baseEndpoint string, timeout time.Duration, opts ...Option) (*Client, error) {
	base, err := parseBase(baseEndpoint)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		base:      base,
		http:      &http.Client{},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Timeout == 0 {
		c.http.Timeout = timeout
	}
	return c, nil
}

// Base returns the base endpoint as a string.
func (c *Client) Base() string {
	return c.base.String()
}

// AttributionURL builds base?gadid=...&appsflyerId=...&... for ac.
func (c *Client) AttributionURL(ac attribution.Context) (string, error) {
	u := *c.base
	u.RawQuery = encodeQuery(ac)
	return u.String(), nil
}

// PathTokenURL builds base?pathid=<token>.
func (c *Client) PathTokenURL(token string) (string, error) {
	if token == "" {
		return "", ErrNoPathToken
	}
	u := *c.base
	u.RawQuery = url.QueryEscape(PathTokenParam) + "=" + url.QueryEscape(token)
	return u.String(), nil
}

// Resolve performs a redirect-following GET and compares the landed URL to
// the requested one.
func (c *Client) Resolve(ctx context.Context, rawURL string) Result {
	res := Result{Kind: KindHardFailure, RequestedURL: rawURL}

	req, err := c.newRequest(ctx, http.MethodGet, rawURL)
	if err != nil {
		res.Err = err
		return res
	}
	requested := req.URL.String()

	resp, err := c.http.Do(req)
	if err != nil {
		res.Err = networkError(err)
		return res
	}
	defer drain(resp)

	res.Status = resp.StatusCode
	if resp.StatusCode > http.StatusForbidden {
		res.Err = eris.Wrapf(ErrUnexpectedStatus, "status %d", resp.StatusCode)
		return res
	}

	res.FinalURL = resp.Request.URL.String()
	if res.FinalURL == requested {
		res.Kind = KindNoChange
		return res
	}
	res.Kind = KindSuccess
	if token, ok := ExtractPathToken(res.FinalURL); ok && token != "" {
		res.PathToken = token
	}
	return res
}

// Probe issues a HEAD against rawURL. Statuses 200 through 403 count as
// alive; everything else returns an error.
func (c *Client) Probe(ctx context.Context, rawURL string) error {
	req, err := c.newRequest(ctx, http.MethodHead, rawURL)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return networkError(err)
	}
	defer drain(resp)

	if resp.StatusCode < http.StatusOK || resp.StatusCode > http.StatusForbidden {
		return eris.Wrapf(ErrUnexpectedStatus, "status %d", resp.StatusCode)
	}
	return nil
}

// IsConfigHost reports whether rawURL targets the routing host or one of its
// subdomains.
func (c *Client) IsConfigHost(rawURL string) bool {
	if rawURL == c.base.String() {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return strings.Contains(strings.ToLower(rawURL), strings.ToLower(c.base.Host))
	}
	host := strings.ToLower(u.Hostname())
	base := strings.ToLower(c.base.Hostname())
	return host == base || strings.HasSuffix(host, "."+base)
}

func (c *Client) newRequest(ctx context.Context, method, rawURL string) (*http.Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrap(ErrInvalidRequestURL, err.Error())
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, eris.Wrapf(ErrInvalidRequestURL, "%q is not an absolute http url", rawURL)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(ErrInvalidRequestURL, err.Error())
	}
	req.Header.Set("User-Agent", c.userAgent)
	return req, nil
}

// networkError drops the request URL that net/http puts in transport errors,
// so logged failures never carry a stored endpoint.
func networkError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return eris.Wrapf(ErrNetwork, "%s: %v", ue.Op, ue.Err)
	}
	return eris.Wrap(ErrNetwork, err.Error())
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

func parseBase(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, eris.Wrap(ErrInvalidRequestURL, "base endpoint is empty")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, eris.Wrapf(ErrInvalidRequestURL, "parse base endpoint %q: %v", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, eris.Wrapf(ErrInvalidRequestURL, "base endpoint %q is not an absolute http url", raw)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
