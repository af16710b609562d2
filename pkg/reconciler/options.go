package reconciler

import (
	"strings"

	"github.com/agentstation/uppbod/pkg/errors"
	"github.com/agentstation/uppbod/pkg/listings"
)

// Direction is the sort direction of the auction date.
type Direction string

const (
	// Ascending puts the earliest auction first.
	Ascending Direction = "asc"
	// Descending puts the latest auction first.
	Descending Direction = "desc"
)

// ParseDirection validates a direction name. Empty means Descending.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case "", Descending:
		return Descending, nil
	case Ascending:
		return Ascending, nil
	}
	return "", errors.NewValidationError("sort_direction", s, "must be asc or desc")
}

// DefaultLiveFields are overwritten on every fetch that carries them.
var DefaultLiveFields = []string{
	listings.FieldAuctionType,
	listings.FieldLotName,
	listings.FieldAuctionDate,
	listings.FieldAuctionTime,
	listings.FieldPublishText,
	listings.FieldAuctionTakesPlaceAt,
}

// Defaults for status handling. Feeds that publish localized statuses
// configure their own values.
const (
	DefaultStatusField    = listings.FieldAuctionType
	DefaultCancelSentinel = "cancelled"
	DefaultTerminalStatus = "sale completed"
)

type options struct {
	liveFields  []string
	statusField string
	terminal    []string
	sentinel    string
	dateField   string
	direction   Direction
}

func defaultOptions() *options {
	return &options{
		liveFields:  DefaultLiveFields,
		statusField: DefaultStatusField,
		terminal:    []string{DefaultTerminalStatus},
		sentinel:    DefaultCancelSentinel,
		dateField:   listings.FieldAuctionDate,
		direction:   Descending,
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithLiveFields replaces the live field set. last_fetched is always live.
func WithLiveFields(fields ...string) Option {
	return func(o *options) error {
		for _, f := range fields {
			if f == listings.FieldIdentity {
				return &errors.ValidationError{Field: "live_fields", Value: f, Message: "identity cannot be live"}
			}
		}
		o.liveFields = fields
		return nil
	}
}

// WithStatusField sets the column holding the listing status.
func WithStatusField(field string) Option {
	return func(o *options) error {
		if field == "" || field == listings.FieldIdentity || field == listings.FieldLastFetched {
			return &errors.ValidationError{Field: "status_field", Value: field, Message: "must name a feed field"}
		}
		o.statusField = field
		return nil
	}
}

// WithTerminalStatuses sets the statuses that protect a record from being
// marked cancelled.
func WithTerminalStatuses(statuses ...string) Option {
	return func(o *options) error {
		o.terminal = statuses
		return nil
	}
}

// WithCancelSentinel sets the status written to disappeared listings.
func WithCancelSentinel(sentinel string) Option {
	return func(o *options) error {
		if strings.TrimSpace(sentinel) == "" {
			return &errors.ValidationError{Field: "cancel_sentinel", Message: "cannot be empty"}
		}
		o.sentinel = sentinel
		return nil
	}
}

// WithSortDirection sets the auction date sort direction.
func WithSortDirection(d Direction) Option {
	return func(o *options) error {
		parsed, err := ParseDirection(string(d))
		if err != nil {
			return err
		}
		o.direction = parsed
		return nil
	}
}
