package uppbod

import (
	"github.com/agentstation/uppbod/internal/persistence"
	"github.com/agentstation/uppbod/internal/sources/island"
	"github.com/agentstation/uppbod/pkg/constants"
	"github.com/agentstation/uppbod/pkg/errors"
	"github.com/agentstation/uppbod/pkg/filter"
	"github.com/agentstation/uppbod/pkg/identity"
	"github.com/agentstation/uppbod/pkg/metrics"
	"github.com/agentstation/uppbod/pkg/normalize"
	"github.com/agentstation/uppbod/pkg/reconciler"
	"github.com/agentstation/uppbod/pkg/sources"
	"github.com/agentstation/uppbod/pkg/store"
)

// Option is a function that configures a Client.
type Option func(*config) error

type config struct {
	source sources.Source

	backend      store.Backend
	dsn          string
	storeOptions persistence.Options

	rules         []filter.Rule
	normalizeOpts []normalize.Option
	identityOpts  []identity.Option
	reconcileOpts []reconciler.Option

	recorder *metrics.Recorder
}

func defaultConfig() *config {
	return &config{
		source: island.New(),
		dsn:    constants.DefaultStorePath,
	}
}

// WithSource sets the listing source. The default is the island.is feed.
func WithSource(src sources.Source) Option {
	return func(c *config) error {
		if src == nil {
			return errors.NewValidationError("source", nil, "source cannot be nil")
		}
		c.source = src
		return nil
	}
}

// WithStore selects the store by DSN: a CSV path, sqlite:<path> or a
// postgres:// URL. The backend is opened on first use.
func WithStore(dsn string, opts persistence.Options) Option {
	return func(c *config) error {
		if _, _, err := persistence.Parse(dsn); err != nil {
			return err
		}
		c.dsn = dsn
		c.storeOptions = opts
		return nil
	}
}

// WithBackend uses an already open backend. The client does not close it.
func WithBackend(b store.Backend) Option {
	return func(c *config) error {
		if b == nil {
			return errors.NewValidationError("backend", nil, "backend cannot be nil")
		}
		c.backend = b
		return nil
	}
}

// WithFilterRules excludes listings matching any rule.
func WithFilterRules(rules ...filter.Rule) Option {
	return func(c *config) error {
		c.rules = append(c.rules, rules...)
		return nil
	}
}

// WithNormalizerOptions configures date and text normalization.
func WithNormalizerOptions(opts ...normalize.Option) Option {
	return func(c *config) error {
		c.normalizeOpts = append(c.normalizeOpts, opts...)
		return nil
	}
}

// WithCollisionScope sets which listings get extended identities when base
// identities collide.
func WithCollisionScope(scope identity.CollisionScope) Option {
	return func(c *config) error {
		c.identityOpts = append(c.identityOpts, identity.WithScope(scope))
		return nil
	}
}

// WithIdentityOptions passes options to the identity resolver.
func WithIdentityOptions(opts ...identity.Option) Option {
	return func(c *config) error {
		c.identityOpts = append(c.identityOpts, opts...)
		return nil
	}
}

// WithReconcilerOptions configures live fields, status handling and ordering.
func WithReconcilerOptions(opts ...reconciler.Option) Option {
	return func(c *config) error {
		c.reconcileOpts = append(c.reconcileOpts, opts...)
		return nil
	}
}

// WithMetrics shares a recorder across clients.
func WithMetrics(r *metrics.Recorder) Option {
	return func(c *config) error {
		c.recorder = r
		return nil
	}
}
