package differ

import (
	"slices"

	"github.com/agentstation/uppbod/pkg/listings"
)

// Differ compares two versions of a record.
type Differ struct {
	ignore map[string]bool
}

// Option configures a Differ.
type Option func(*Differ)

// WithIgnoredFields skips fields during comparison.
func WithIgnoredFields(fields ...string) Option {
	return func(d *Differ) {
		for _, f := range fields {
			d.ignore[f] = true
		}
	}
}

// New creates a Differ. last_fetched is always ignored.
func New(opts ...Option) *Differ {
	d := &Differ{ignore: map[string]bool{listings.FieldLastFetched: true}}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Records returns the changes that turn before into after, sorted by field.
// Fields missing from after are not reported: records never lose columns.
func (d *Differ) Records(before, after listings.Record) []FieldChange {
	var changes []FieldChange
	for field, nv := range after {
		if d.ignore[field] {
			continue
		}
		ov, ok := before[field]
		switch {
		case !ok:
			changes = append(changes, FieldChange{Path: field, NewValue: nv, Type: ChangeTypeAdd})
		case ov != nv:
			changes = append(changes, FieldChange{Path: field, OldValue: ov, NewValue: nv, Type: ChangeTypeUpdate})
		}
	}
	slices.SortFunc(changes, func(a, b FieldChange) int {
		switch {
		case a.Path < b.Path:
			return -1
		case a.Path > b.Path:
			return 1
		}
		return 0
	})
	return changes
}

// Update builds a RecordUpdate, or returns false when nothing changed.
func (d *Differ) Update(before, after listings.Record) (RecordUpdate, bool) {
	changes := d.Records(before, after)
	if len(changes) == 0 {
		return RecordUpdate{}, false
	}
	return RecordUpdate{
		Identity: after.Identity(),
		Before:   before,
		After:    after,
		Changes:  changes,
	}, true
}
