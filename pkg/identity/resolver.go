package identity

import (
	"context"

	"github.com/agentstation/uppbod/pkg/errors"
	"github.com/agentstation/uppbod/pkg/listings"
	"github.com/agentstation/uppbod/pkg/logging"
)

// CollisionScope controls which listings get the date/time suffix once a
// base identity repeats inside a batch.
type CollisionScope string

const (
	// ScopeBatch extends every identity in the batch.
	ScopeBatch CollisionScope = "batch"
	// ScopeColliding extends only the listings whose base repeats.
	ScopeColliding CollisionScope = "colliding"
)

// ParseCollisionScope validates a scope name.
func ParseCollisionScope(s string) (CollisionScope, error) {
	switch CollisionScope(s) {
	case ScopeBatch, ScopeColliding:
		return CollisionScope(s), nil
	case "":
		return ScopeBatch, nil
	}
	return "", errors.NewValidationError("collision_scope", s, "must be batch or colliding")
}

// Identified is a listing with its resolved identity.
type Identified struct {
	Identity string
	Index    int // position in the fetched batch
	Listing  listings.Listing
}

// Result is the outcome of resolving one batch.
type Result struct {
	Listings []Identified
	Errors   []error

	// Extended is true when the batch had a base collision.
	Extended bool
}

// Resolver computes identities for a snapshot.
type Resolver struct {
	idField   string
	nameField string
	dateField string
	timeField string
	scope     CollisionScope
}

// Option configures a Resolver.
type Option func(*Resolver) error

// WithScope sets the collision scope.
func WithScope(scope CollisionScope) Option {
	return func(r *Resolver) error {
		s, err := ParseCollisionScope(string(scope))
		if err != nil {
			return err
		}
		r.scope = s
		return nil
	}
}

// WithFields overrides the identifier and name fields.
func WithFields(idField, nameField string) Option {
	return func(r *Resolver) error {
		if idField == "" || nameField == "" {
			return errors.NewValidationError("identity_fields", []string{idField, nameField}, "cannot be empty")
		}
		r.idField, r.nameField = idField, nameField
		return nil
	}
}

// NewResolver creates a Resolver with batch scope and the default feed fields.
func NewResolver(opts ...Option) (*Resolver, error) {
	r := &Resolver{
		idField:   listings.FieldLotID,
		nameField: listings.FieldLotName,
		dateField: listings.FieldAuctionDate,
		timeField: listings.FieldAuctionTime,
		scope:     ScopeBatch,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Scope returns the configured collision scope.
func (r *Resolver) Scope() CollisionScope {
	return r.scope
}

// Resolve assigns identities to a normalized snapshot. Listings without an
// identity and later duplicates of a final identity are dropped and reported;
// the rest keep their input order.
func (r *Resolver) Resolve(ctx context.Context, snapshot []listings.Listing) *Result {
	runID := logging.RunID(ctx)
	logger := logging.FromContext(ctx)

	type candidate struct {
		index int
		base  string
	}

	res := &Result{}
	candidates := make([]candidate, 0, len(snapshot))
	counts := make(map[string]int, len(snapshot))

	for i, l := range snapshot {
		b := base(l, r.idField, r.nameField)
		if b == "" {
			err := &errors.MissingIdentityError{
				Index:  i,
				Fields: []string{r.idField, r.nameField},
				RunID:  runID,
			}
			logger.Warn().Err(err).Int("index", i).Msg("dropping listing")
			res.Errors = append(res.Errors, err)
			continue
		}
		candidates = append(candidates, candidate{index: i, base: b})
		counts[b]++
	}

	for _, n := range counts {
		if n > 1 {
			res.Extended = true
			break
		}
	}

	first := make(map[string]int, len(candidates))
	for _, c := range candidates {
		l := snapshot[c.index]
		id := c.base
		if r.extend(res.Extended, counts[c.base]) {
			id = Sanitize(c.base + "_" + l.Value(r.dateField) + "_" + l.Value(r.timeField))
		}

		if at, dup := first[id]; dup {
			err := &errors.DuplicateIdentityError{Identity: id, Index: c.index, First: at, RunID: runID}
			logger.Warn().Err(err).Str("identity", id).Msg("dropping duplicate listing")
			res.Errors = append(res.Errors, err)
			continue
		}
		first[id] = c.index
		res.Listings = append(res.Listings, Identified{Identity: id, Index: c.index, Listing: l})
	}

	if res.Extended {
		logger.Debug().Str("scope", string(r.scope)).Msg("base identities collided, extended with date and time")
	}
	return res
}

func (r *Resolver) extend(collided bool, count int) bool {
	if !collided {
		return false
	}
	if r.scope == ScopeColliding {
		return count > 1
	}
	return true
}
