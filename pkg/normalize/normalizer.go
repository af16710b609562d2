package normalize

import (
	"context"

	"github.com/agentstation/uppbod/pkg/errors"
	"github.com/agentstation/uppbod/pkg/identity"
	"github.com/agentstation/uppbod/pkg/listings"
	"github.com/agentstation/uppbod/pkg/logging"
)

// Normalizer rewrites the date and HTML fields of a snapshot.
type Normalizer struct {
	dateFields []string
	textFields []string
}

type options struct {
	dateFields []string
	textFields []string
}

// Option configures a Normalizer.
type Option func(*options) error

// WithDateFields replaces the fields parsed as feed dates.
func WithDateFields(fields ...string) Option {
	return func(o *options) error {
		o.dateFields = fields
		return nil
	}
}

// WithPlainTextFields converts the given fields from HTML to plain text.
func WithPlainTextFields(fields ...string) Option {
	return func(o *options) error {
		for _, f := range fields {
			if f == listings.FieldIdentity || f == listings.FieldLastFetched {
				return errors.NewValidationError("plain_text_fields", f, "engine-owned field cannot be rewritten")
			}
		}
		o.textFields = fields
		return nil
	}
}

// New creates a Normalizer. Only auctionDate is normalized by default.
func New(opts ...Option) (*Normalizer, error) {
	o := &options{dateFields: []string{listings.FieldAuctionDate}}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return &Normalizer{dateFields: o.dateFields, textFields: o.textFields}, nil
}

// Listing returns a normalized copy of l and any per-field problems.
// A malformed date keeps its raw value.
func (n *Normalizer) Listing(l listings.Listing) (listings.Listing, []error) {
	out := l.Clone()
	var errs []error

	for _, field := range n.dateFields {
		raw, ok := out[field]
		if !ok || raw == "" {
			continue
		}
		v, err := Date(raw)
		if err != nil {
			if mde, ok := err.(*errors.MalformedDateError); ok {
				mde.Field = field
				mde.Identity = identity.Base(l)
			}
			errs = append(errs, err)
		}
		out[field] = v
	}

	for _, field := range n.textFields {
		raw, ok := out[field]
		if !ok || raw == "" {
			continue
		}
		v, err := PlainText(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[field] = v
	}

	return out, errs
}

// Snapshot normalizes every listing, logging each problem against the run.
func (n *Normalizer) Snapshot(ctx context.Context, snapshot []listings.Listing) ([]listings.Listing, []error) {
	logger := logging.FromContext(ctx)
	out := make([]listings.Listing, 0, len(snapshot))
	var errs []error
	for _, l := range snapshot {
		nl, lerrs := n.Listing(l)
		for _, err := range lerrs {
			ev := logger.Warn().Err(err)
			if mde, ok := err.(*errors.MalformedDateError); ok {
				ev = ev.Str("identity", mde.Identity).Str("field", mde.Field)
			}
			ev.Msg("keeping raw value")
		}
		errs = append(errs, lerrs...)
		out = append(out, nl)
	}
	return out, errs
}
