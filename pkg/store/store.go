// Package store holds the accumulated auction records between runs.
//
// A Store is an in-memory table keyed by identity. Backends load it whole
// and save it whole; the reconciler mutates it in between.
package store

import (
	"maps"
	"slices"
	"sync"

	"github.com/agentstation/uppbod/pkg/errors"
	"github.com/agentstation/uppbod/pkg/listings"
)

// DefaultColumnPrefix is the fixed leading column order of a saved store.
var DefaultColumnPrefix = []string{
	listings.FieldIdentity,
	listings.FieldAuctionDate,
	listings.FieldAuctionTime,
	listings.FieldAuctionType,
	listings.FieldLotType,
	listings.FieldLotName,
	listings.FieldLotID,
	listings.FieldOffice,
	listings.FieldLocation,
	listings.FieldAuctionTakesPlaceAt,
	listings.FieldPetitioners,
	listings.FieldRespondent,
	listings.FieldLotItems,
	listings.FieldPublishText,
	listings.FieldLastFetched,
}

// Store is a set of records with unique identities and a remembered order.
type Store struct {
	mu      sync.RWMutex
	records map[string]listings.Record
	order   []string
	columns map[string]struct{}
	prefix  []string
}

// Option configures a Store.
type Option func(*Store)

// WithColumnPrefix replaces the leading column order.
func WithColumnPrefix(prefix ...string) Option {
	return func(s *Store) {
		s.prefix = slices.Clone(prefix)
	}
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		records: make(map[string]listings.Record),
		columns: make(map[string]struct{}),
		prefix:  DefaultColumnPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Has reports whether identity is stored.
func (s *Store) Has(identity string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[identity]
	return ok
}

// Get returns a copy of the record for identity.
func (s *Store) Get(identity string) (listings.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[identity]
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

// Put inserts r, or replaces the record with the same identity in place.
func (s *Store) Put(r listings.Record) error {
	id := r.Identity()
	if id == "" {
		return &errors.ValidationError{Field: listings.FieldIdentity, Message: "record has no identity"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		s.order = append(s.order, id)
	}
	s.records[id] = r.Clone()
	for k := range r {
		s.columns[k] = struct{}{}
	}
	return nil
}

// Set writes one field of an existing record.
func (s *Store) Set(identity, field, value string) error {
	if field == listings.FieldIdentity {
		return &errors.ValidationError{Field: field, Value: value, Message: "identity is immutable"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[identity]
	if !ok {
		return errors.NewNotFoundError("record", identity)
	}
	r[field] = value
	s.columns[field] = struct{}{}
	return nil
}

// AddColumns records columns that exist even when no record has a value
// for them, such as the header of a loaded file.
func (s *Store) AddColumns(columns ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range columns {
		if c != "" {
			s.columns[c] = struct{}{}
		}
	}
}

// Identities returns the stored identities in store order.
func (s *Store) Identities() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}

// Records returns copies of all records in store order.
func (s *Store) Records() []listings.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]listings.Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id].Clone())
	}
	return out
}

// Columns returns the prefix columns that exist, in prefix order, followed by
// every other column lexicographically.
func (s *Store) Columns() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.columns))
	inPrefix := make(map[string]bool, len(s.prefix))
	for _, c := range s.prefix {
		inPrefix[c] = true
		if _, ok := s.columns[c]; ok {
			out = append(out, c)
		}
	}
	var rest []string
	for c := range s.columns {
		if !inPrefix[c] {
			rest = append(rest, c)
		}
	}
	slices.Sort(rest)
	return append(out, rest...)
}

// Rows renders the store as a header and one row per record. Missing values
// are empty strings.
func (s *Store) Rows() (header []string, rows [][]string) {
	header = s.Columns()

	s.mu.RLock()
	defer s.mu.RUnlock()
	rows = make([][]string, 0, len(s.order))
	for _, id := range s.order {
		r := s.records[id]
		row := make([]string, len(header))
		for i, c := range header {
			row[i] = r[c]
		}
		rows = append(rows, row)
	}
	return header, rows
}

// SortFunc reorders the store with a stable sort.
func (s *Store) SortFunc(cmp func(a, b listings.Record) int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slices.SortStableFunc(s.order, func(a, b string) int {
		return cmp(s.records[a], s.records[b])
	})
}

// Clone returns a deep copy.
func (s *Store) Clone() *Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := &Store{
		records: make(map[string]listings.Record, len(s.records)),
		order:   slices.Clone(s.order),
		columns: maps.Clone(s.columns),
		prefix:  slices.Clone(s.prefix),
	}
	for id, r := range s.records {
		c.records[id] = r.Clone()
	}
	return c
}
