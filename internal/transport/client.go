// Package transport is the HTTP client used by network sources.
package transport

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/agentstation/uppbod/pkg/constants"
	"github.com/agentstation/uppbod/pkg/errors"
	"github.com/agentstation/uppbod/pkg/logging"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = constants.DefaultHTTPTimeout

// Client wraps http.Client with common headers.
type Client struct {
	http      *http.Client
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(cl *Client) {
		cl.userAgent = ua
	}
}

// New creates a new transport client.
func New(opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Timeout: DefaultHTTPTimeout},
		userAgent: constants.DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do performs an HTTP request with the common headers applied.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	logging.FromContext(ctx).Debug().Str("method", req.Method).Str("url", req.URL.Redacted()).Msg("http request")
	return c.http.Do(req.WithContext(ctx))
}

// Get performs a GET request with query parameters.
func (c *Client) Get(ctx context.Context, rawURL string, query url.Values) (*http.Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.WrapResource("create", "request", "GET "+rawURL, err)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.WrapResource("create", "request", "GET "+rawURL, err)
	}
	return c.Do(ctx, req)
}

// ReadBody reads and closes the response body, turning non-200 responses
// into *errors.APIError.
func ReadBody(resp *http.Response, source, endpoint string) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapIO("read", "response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(body)
		if len(msg) > 512 {
			msg = msg[:512]
		}
		return nil, &errors.APIError{
			Source:     source,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    msg,
		}
	}
	return body, nil
}
