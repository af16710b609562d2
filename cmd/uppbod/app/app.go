// Package app provides the application context and dependency management
// for the uppbod CLI: configuration, logging and the shared client.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/uppbod"
	"github.com/agentstation/uppbod/internal/persistence"
	"github.com/agentstation/uppbod/internal/sources/island"
	"github.com/agentstation/uppbod/internal/sources/local"
	"github.com/agentstation/uppbod/pkg/errors"
	"github.com/agentstation/uppbod/pkg/filter"
	"github.com/agentstation/uppbod/pkg/identity"
	"github.com/agentstation/uppbod/pkg/normalize"
	"github.com/agentstation/uppbod/pkg/reconciler"
	pkgsync "github.com/agentstation/uppbod/pkg/sync"
)

// App represents the uppbod application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// default client (lazy-initialized, singleton)
	mu     sync.RWMutex
	client *uppbod.Client
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// StatusField returns the configured status column.
func (a *App) StatusField() string {
	if a.config.StatusField != "" {
		return a.config.StatusField
	}
	return reconciler.DefaultStatusField
}

// Client returns the default client, creating it lazily. With options it
// builds a fresh client that the caller owns.
func (a *App) Client(opts ...uppbod.Option) (*uppbod.Client, error) {
	if len(opts) > 0 {
		base, err := a.clientOptions()
		if err != nil {
			return nil, err
		}
		c, err := uppbod.New(append(base, opts...)...)
		if err != nil {
			return nil, errors.WrapResource("create", "client", "with custom options", err)
		}
		return c, nil
	}

	a.mu.RLock()
	if a.client != nil {
		c := a.client
		a.mu.RUnlock()
		return c, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return a.client, nil
	}

	base, err := a.clientOptions()
	if err != nil {
		return nil, err
	}
	c, err := uppbod.New(base...)
	if err != nil {
		return nil, errors.WrapResource("create", "client", "", err)
	}
	a.client = c
	return c, nil
}

// SyncOptions returns run options from configuration.
func (a *App) SyncOptions() []pkgsync.Option {
	cfg := a.config
	return []pkgsync.Option{
		pkgsync.WithTimeout(cfg.SyncTimeout),
		pkgsync.WithEmptySnapshotPolicy(pkgsync.EmptySnapshotPolicy(cfg.EmptySnapshot)),
		pkgsync.WithReportPath(cfg.ReportPath),
		pkgsync.WithMetricsPath(cfg.MetricsPath),
	}
}

// Shutdown releases the default client.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	c := a.client
	a.client = nil
	a.mu.Unlock()

	if c != nil {
		return c.Close()
	}
	return nil
}

// clientOptions constructs client options from the app configuration.
func (a *App) clientOptions() ([]uppbod.Option, error) {
	cfg := a.config
	opts := []uppbod.Option{
		uppbod.WithStore(cfg.Store, persistence.Options{
			CSVBOM:        cfg.CSVBOM,
			PostgresTable: cfg.PostgresTable,
		}),
	}

	if cfg.SourceFile != "" {
		opts = append(opts, uppbod.WithSource(local.New(cfg.SourceFile)))
	} else {
		var srcOpts []island.Option
		if cfg.Endpoint != "" {
			srcOpts = append(srcOpts, island.WithEndpoint(cfg.Endpoint))
		}
		if cfg.FetchTimeout > 0 {
			srcOpts = append(srcOpts, island.WithTimeout(cfg.FetchTimeout))
		}
		opts = append(opts, uppbod.WithSource(island.New(srcOpts...)))
	}

	for _, raw := range cfg.Filters {
		rule, err := filter.ParseRule(raw)
		if err != nil {
			return nil, err
		}
		opts = append(opts, uppbod.WithFilterRules(rule))
	}

	if len(cfg.PlainTextFields) > 0 {
		opts = append(opts, uppbod.WithNormalizerOptions(normalize.WithPlainTextFields(cfg.PlainTextFields...)))
	}

	scope, err := identity.ParseCollisionScope(cfg.CollisionScope)
	if err != nil {
		return nil, err
	}
	opts = append(opts, uppbod.WithCollisionScope(scope))

	direction, err := reconciler.ParseDirection(cfg.SortDirection)
	if err != nil {
		return nil, err
	}
	recOpts := []reconciler.Option{reconciler.WithSortDirection(direction)}
	if len(cfg.LiveFields) > 0 {
		recOpts = append(recOpts, reconciler.WithLiveFields(cfg.LiveFields...))
	}
	if cfg.StatusField != "" {
		recOpts = append(recOpts, reconciler.WithStatusField(cfg.StatusField))
	}
	if len(cfg.TerminalStatuses) > 0 {
		recOpts = append(recOpts, reconciler.WithTerminalStatuses(cfg.TerminalStatuses...))
	}
	if cfg.CancelSentinel != "" {
		recOpts = append(recOpts, reconciler.WithCancelSentinel(cfg.CancelSentinel))
	}
	opts = append(opts, uppbod.WithReconcilerOptions(recOpts...))

	return opts, nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithClient sets the default client (useful for testing).
func WithClient(c *uppbod.Client) Option {
	return func(a *App) error {
		a.client = c
		return nil
	}
}
