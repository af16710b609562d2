// Package reconciler merges a fetched snapshot into the accumulated store.
//
// Listings seen before have their live fields refreshed while every other
// field keeps its first value. New listings are inserted whole. Listings that
// vanished from the feed are marked with the cancel sentinel unless their
// status is terminal. Records are never deleted.
package reconciler

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/agentstation/uppbod/pkg/differ"
	"github.com/agentstation/uppbod/pkg/errors"
	"github.com/agentstation/uppbod/pkg/listings"
	"github.com/agentstation/uppbod/pkg/logging"
	"github.com/agentstation/uppbod/pkg/store"
)

// Reconciler applies snapshots to a store.
type Reconciler struct {
	liveFields  []string
	statusField string
	terminal    map[string]bool
	sentinel    string
	dateField   string
	direction   Direction
	differ      *differ.Differ
}

// New creates a Reconciler with options.
func New(opts ...Option) (*Reconciler, error) {
	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}

	live := slices.Clone(o.liveFields)
	if !slices.Contains(live, listings.FieldLastFetched) {
		live = append(live, listings.FieldLastFetched)
	}
	terminal := make(map[string]bool, len(o.terminal))
	for _, s := range o.terminal {
		terminal[strings.TrimSpace(s)] = true
	}

	return &Reconciler{
		liveFields:  live,
		statusField: o.statusField,
		terminal:    terminal,
		sentinel:    o.sentinel,
		dateField:   o.dateField,
		direction:   o.direction,
		differ:      differ.New(),
	}, nil
}

// LiveFields returns the fields refreshed on every fetch, last_fetched included.
func (r *Reconciler) LiveFields() []string {
	return slices.Clone(r.liveFields)
}

// Reconcile merges snapshot into s in place and sorts s.
//
// Every snapshot record must carry an identity, unique within the snapshot.
// An empty snapshot marks every non-terminal record cancelled; callers that
// do not want that must not call Reconcile.
func (r *Reconciler) Reconcile(ctx context.Context, s *store.Store, snapshot []listings.Record, fetchedAt time.Time) (*Result, error) {
	if err := validate(snapshot); err != nil {
		return nil, err
	}

	logger := logging.FromContext(ctx)
	result := newResult(fetchedAt)
	result.Metadata.Stats.SnapshotSize = len(snapshot)
	result.Metadata.Stats.StoreSizeBefore = s.Len()

	previous := s.Identities()
	seen := make(map[string]bool, len(snapshot))

	for _, rec := range snapshot {
		id := rec.Identity()
		seen[id] = true
		if err := r.upsert(s, rec, result.Changeset); err != nil {
			return nil, err
		}
	}

	for _, id := range previous {
		if seen[id] {
			continue
		}
		update, cancelled, err := r.cancel(s, id)
		if err != nil {
			return nil, err
		}
		if cancelled {
			logger.Debug().Str("identity", id).Msg("listing disappeared, marked cancelled")
			result.Changeset.Cancelled = append(result.Changeset.Cancelled, update)
		}
	}

	s.SortFunc(r.compareRecords)

	result.Metadata.Stats.StoreSizeAfter = s.Len()
	result.finalize()

	logger.Info().
		Int("snapshot", len(snapshot)).
		Int("added", result.Changeset.Summary.Added).
		Int("updated", result.Changeset.Summary.Updated).
		Int("cancelled", result.Changeset.Summary.Cancelled).
		Int("unchanged", result.Changeset.Summary.Unchanged).
		Msg("reconciled snapshot")
	return result, nil
}

func validate(snapshot []listings.Record) error {
	seen := make(map[string]int, len(snapshot))
	for i, rec := range snapshot {
		id := rec.Identity()
		if id == "" {
			return &errors.MissingIdentityError{Index: i, Fields: []string{listings.FieldIdentity}}
		}
		if first, ok := seen[id]; ok {
			return &errors.DuplicateIdentityError{Identity: id, Index: i, First: first}
		}
		seen[id] = i
	}
	return nil
}

func (r *Reconciler) upsert(s *store.Store, rec listings.Record, cs *differ.Changeset) error {
	id := rec.Identity()
	before, ok := s.Get(id)
	if !ok {
		if err := s.Put(rec); err != nil {
			return err
		}
		cs.Added = append(cs.Added, rec.Clone())
		return nil
	}

	for _, field := range r.liveFields {
		v, carried := rec[field]
		if !carried {
			continue
		}
		if err := s.Set(id, field, v); err != nil {
			return err
		}
	}

	after, _ := s.Get(id)
	if update, changed := r.differ.Update(before, after); changed {
		cs.Updated = append(cs.Updated, update)
	} else {
		cs.Unchanged = append(cs.Unchanged, id)
	}
	return nil
}

func (r *Reconciler) cancel(s *store.Store, id string) (differ.RecordUpdate, bool, error) {
	before, ok := s.Get(id)
	if !ok {
		return differ.RecordUpdate{}, false, nil
	}
	status := before[r.statusField]
	if r.terminal[strings.TrimSpace(status)] || status == r.sentinel {
		return differ.RecordUpdate{}, false, nil
	}

	if err := s.Set(id, r.statusField, r.sentinel); err != nil {
		return differ.RecordUpdate{}, false, err
	}
	after, _ := s.Get(id)
	return differ.RecordUpdate{
		Identity: id,
		Before:   before,
		After:    after,
		Changes: []differ.FieldChange{{
			Path:     r.statusField,
			OldValue: status,
			NewValue: r.sentinel,
			Type:     differ.ChangeTypeCancel,
		}},
	}, true, nil
}
