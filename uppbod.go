// Package uppbod keeps a deduplicated store of auction listings in step with
// periodic snapshots of a listing feed.
//
// A Client fetches a snapshot from its source, filters and normalizes it,
// resolves a stable identity per listing and reconciles the result into the
// store: live fields are refreshed, sticky fields are kept, and listings that
// vanish from the feed are marked cancelled.
package uppbod

import (
	"context"
	"fmt"
	gosync "sync"

	"github.com/agentstation/uppbod/internal/persistence"
	"github.com/agentstation/uppbod/pkg/filter"
	"github.com/agentstation/uppbod/pkg/identity"
	"github.com/agentstation/uppbod/pkg/metrics"
	"github.com/agentstation/uppbod/pkg/normalize"
	"github.com/agentstation/uppbod/pkg/reconciler"
	"github.com/agentstation/uppbod/pkg/sources"
	"github.com/agentstation/uppbod/pkg/store"
)

// Client runs syncs of one source into one store.
type Client struct {
	mu      gosync.Mutex
	config  *config
	backend store.Backend
	owned   bool // backend was opened from a DSN and is closed by Close

	filter     *filter.Filter
	normalizer *normalize.Normalizer
	resolver   *identity.Resolver
	reconciler *reconciler.Reconciler
	recorder   *metrics.Recorder

	hooks *hooks
}

// New creates a Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("applying options: %w", err)
		}
	}

	c := &Client{
		config:   cfg,
		backend:  cfg.backend,
		recorder: cfg.recorder,
		hooks:    newHooks(),
	}
	if c.recorder == nil {
		c.recorder = metrics.New()
	}

	var err error
	if c.filter, err = filter.New(cfg.rules...); err != nil {
		return nil, err
	}
	if c.normalizer, err = normalize.New(cfg.normalizeOpts...); err != nil {
		return nil, err
	}
	if c.resolver, err = identity.NewResolver(cfg.identityOpts...); err != nil {
		return nil, err
	}
	if c.reconciler, err = reconciler.New(cfg.reconcileOpts...); err != nil {
		return nil, err
	}

	return c, nil
}

// Source returns the configured listing source.
func (c *Client) Source() sources.Source {
	return c.config.source
}

// Metrics returns the recorder fed by every run.
func (c *Client) Metrics() *metrics.Recorder {
	return c.recorder
}

// Backend returns the store backend, opening it from the configured DSN on
// first use.
func (c *Client) Backend(ctx context.Context) (store.Backend, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.backend != nil {
		return c.backend, nil
	}
	b, err := persistence.Open(ctx, c.config.dsn, c.config.storeOptions)
	if err != nil {
		return nil, err
	}
	c.backend = b
	c.owned = true
	return b, nil
}

// Records loads the current store without modifying it.
func (c *Client) Records(ctx context.Context) (*store.Store, error) {
	b, err := c.Backend(ctx)
	if err != nil {
		return nil, err
	}
	return b.Load(ctx)
}

// Close releases a backend the client opened itself.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.backend == nil || !c.owned {
		return nil
	}
	err := c.backend.Close()
	c.backend = nil
	c.owned = false
	return err
}
