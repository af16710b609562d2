// Package island fetches the auction feed from the island.is GraphQL API.
package island

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/agentstation/uppbod/internal/transport"
	"github.com/agentstation/uppbod/pkg/constants"
	"github.com/agentstation/uppbod/pkg/errors"
	"github.com/agentstation/uppbod/pkg/listings"
	"github.com/agentstation/uppbod/pkg/logging"
	"github.com/agentstation/uppbod/pkg/sources"
)

const (
	// DefaultEndpoint is the public GraphQL endpoint.
	DefaultEndpoint = "https://island.is/api/graphql"

	// OperationName is the persisted query operation.
	OperationName = "GetSyslumennAuctions"

	// PersistedQueryHash identifies the stored query on the server.
	PersistedQueryHash = "197cbb06a8b49a3e09d61cc97811f7e6e0717f730f2446107717f83925133f91"
)

// Source is the island.is feed.
type Source struct {
	endpoint string
	hash     string
	timeout  time.Duration
	client   *transport.Client
}

// Option configures a Source.
type Option func(*Source)

// WithEndpoint overrides the GraphQL endpoint.
func WithEndpoint(endpoint string) Option {
	return func(s *Source) {
		if endpoint != "" {
			s.endpoint = endpoint
		}
	}
}

// WithQueryHash overrides the persisted query hash.
func WithQueryHash(hash string) Option {
	return func(s *Source) {
		if hash != "" {
			s.hash = hash
		}
	}
}

// WithTimeout bounds a single fetch.
func WithTimeout(d time.Duration) Option {
	return func(s *Source) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithClient sets the transport client.
func WithClient(c *transport.Client) Option {
	return func(s *Source) {
		if c != nil {
			s.client = c
		}
	}
}

// New creates the island source.
func New(opts ...Option) *Source {
	s := &Source{
		endpoint: DefaultEndpoint,
		hash:     PersistedQueryHash,
		timeout:  constants.DefaultHTTPTimeout,
		client:   transport.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID implements sources.Source.
func (s *Source) ID() sources.ID {
	return sources.IslandID
}

// Query returns the query parameters of the persisted query request.
func (s *Source) Query() (url.Values, error) {
	ext, err := json.Marshal(map[string]any{
		"persistedQuery": map[string]any{
			"version":    1,
			"sha256Hash": s.hash,
		},
	})
	if err != nil {
		return nil, err
	}
	return url.Values{
		"operationName": {OperationName},
		"variables":     {"{}"},
		"extensions":    {string(ext)},
	}, nil
}

// Fetch implements sources.Source.
func (s *Source) Fetch(ctx context.Context) ([]listings.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query, err := s.Query()
	if err != nil {
		return nil, errors.WrapResource("create", "request", s.endpoint, err)
	}

	start := time.Now()
	resp, err := s.client.Get(ctx, s.endpoint, query)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &errors.APIError{Source: s.ID().String(), Endpoint: s.endpoint, Message: "request timed out", Err: ctx.Err()}
		}
		return nil, &errors.APIError{Source: s.ID().String(), Endpoint: s.endpoint, Message: "request failed", Err: err}
	}

	body, err := transport.ReadBody(resp, s.ID().String(), s.endpoint)
	if err != nil {
		return nil, err
	}

	out, err := sources.DecodeSnapshot(s.ID(), body)
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info().
		Int("listings", len(out)).
		Dur("elapsed", time.Since(start)).
		Msg("fetched auction feed")
	return out, nil
}

var _ sources.Source = (*Source)(nil)
