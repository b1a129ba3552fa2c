package vaillant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/oauth2"
)

var ErrAuthentication = errors.New("authentication failed")

var ErrClosed = errors.New("myVAILLANT session closed")

const DEFAULT_HTTP_TIMEOUT = 30 * time.Second

// APIError is returned for any non-2xx answer of the myVAILLANT API
type APIError struct {
	Status int
	Method string
	URL    string
	Body   string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.URL, e.Status, http.StatusText(e.Status), e.Body)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Status, http.StatusText(e.Status))
}

// Client is one authenticated myVAILLANT session. It is not safe for concurrent use.
type Client struct {
	brand        string
	country      string
	apiBase      string
	identityBase string
	transport    http.RoundTripper
	timeout      time.Duration
	log          logr.Logger
	httpLog      logr.Logger
	httpLogSet   bool
	http         *http.Client // cookie-aware client used for the login
	api          *http.Client // token-carrying client used for the API
	controls     map[string]string
	closed       bool
}

type Option func(*Client)

func WithAPIBase(u string) Option {
	return func(c *Client) { c.apiBase = u }
}

func WithIdentityBase(u string) Option {
	return func(c *Client) { c.identityBase = u }
}

func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.transport = rt }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPLogger sets the logger used for request/response tracing
func WithHTTPLogger(log logr.Logger) Option {
	return func(c *Client) {
		c.httpLog = log
		c.httpLogSet = true
	}
}

// New logs into the myVAILLANT identity provider and returns an open session.
// The caller must Close it.
func New(ctx context.Context, user, password, brand, country string, opts ...Option) (*Client, error) {
	if err := ValidateBrand(brand); err != nil {
		return nil, err
	}
	if err := ValidateCountry(country); err != nil {
		return nil, err
	}

	c := &Client{
		brand:        brand,
		country:      country,
		apiBase:      API_URL_BASE,
		identityBase: IDENTITY_URL_BASE,
		transport:    http.DefaultTransport,
		timeout:      DEFAULT_HTTP_TIMEOUT,
		log:          logr.FromContextOrDiscard(ctx).WithName("vaillant"),
		controls:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	if !c.httpLogSet {
		c.httpLog = c.log.WithName("http")
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	c.http = &http.Client{
		Jar:       jar,
		Timeout:   c.timeout,
		Transport: &loggingTransport{base: c.transport, log: c.httpLog},
	}

	c.log.Info("Logging in", "user", user, "brand", brand, "country", country)
	token, err := c.login(ctx, user, password)
	if err != nil {
		c.http.CloseIdleConnections()
		c.log.Error(err, "Login failed", "user", user)
		return nil, err
	}
	c.log.Info("Logged in", "user", user, "expiry", token.Expiry)

	source := c.oauth2Config().TokenSource(context.WithValue(ctx, oauth2.HTTPClient, c.http), token)
	c.api = &http.Client{
		Timeout: c.timeout,
		Transport: &oauth2.Transport{
			Source: source,
			Base:   &headerTransport{base: c.http.Transport},
		},
	}
	return c, nil
}

// Close releases the session. It is safe to call more than once.
func (c *Client) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.http.CloseIdleConnections()
	c.log.V(1).Info("Session closed")
	return nil
}

func (c *Client) Brand() string {
	return c.brand
}

func (c *Client) Country() string {
	return c.country
}

func (c *Client) call(ctx context.Context, method string, url string, in any, out any) error {
	if c.closed {
		return ErrClosed
	}

	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.api.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("reading %s %s: %w", method, url, err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &APIError{
			Status: res.StatusCode,
			Method: method,
			URL:    url,
			Body:   string(bytes.TrimSpace(data)),
		}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding %s %s: %w", method, url, err)
		}
	}
	return nil
}

type headerTransport struct {
	base http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not modify the caller's request
	r := req.Clone(req.Context())
	r.Header.Set("x-app-identifier", "VAILLANT")
	r.Header.Set("Accept-Language", "en-GB")
	r.Header.Set("Accept", "application/json, text/plain, */*")
	r.Header.Set("x-client-locale", "en-GB")
	r.Header.Set("x-idm-identifier", "KEYCLOAK")
	r.Header.Set("ocp-apim-subscription-key", SUBSCRIPTION_KEY)
	return t.base.RoundTrip(r)
}

type loggingTransport struct {
	base http.RoundTripper
	log  logr.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	t.log.V(1).Info("Calling", "method", req.Method, "url", req.URL.Redacted())
	res, err := t.base.RoundTrip(req)
	if err != nil {
		t.log.Error(err, "HTTP error", "method", req.Method, "url", req.URL.Redacted())
		return nil, err
	}
	t.log.Info("HTTP", "method", req.Method, "url", req.URL.Redacted(), "status", res.StatusCode, "elapsed", time.Since(start))
	return res, nil
}
