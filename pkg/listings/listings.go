// Package listings defines the schema-free data model shared by the sync
// pipeline: raw feed listings and the records kept in the store.
package listings

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/agentstation/uppbod/pkg/constants"
	"github.com/agentstation/uppbod/pkg/errors"
)

// Feed fields the engine knows about. Any other field is carried through
// untouched.
const (
	FieldAuctionType         = "auctionType"
	FieldLotType             = "lotType"
	FieldLotName             = "lotName"
	FieldLotID               = "lotId"
	FieldAuctionDate         = "auctionDate"
	FieldAuctionTime         = "auctionTime"
	FieldAuctionTakesPlaceAt = "auctionTakesPlaceAt"
	FieldOffice              = "office"
	FieldLocation            = "location"
	FieldPetitioners         = "petitioners"
	FieldRespondent          = "respondent"
	FieldLotItems            = "lotItems"
	FieldPublishText         = "publishText"
)

// Engine-owned fields.
const (
	FieldIdentity    = "identity"
	FieldLastFetched = "last_fetched"
)

// Listing is one raw entry of a snapshot, keyed by feed field name.
type Listing map[string]string

// Get returns the value of field and whether the listing carries it.
func (l Listing) Get(field string) (string, bool) {
	v, ok := l[field]
	return v, ok
}

// Value returns the trimmed value of field, or "".
func (l Listing) Value(field string) string {
	return strings.TrimSpace(l[field])
}

// Clone returns a shallow copy.
func (l Listing) Clone() Listing {
	if l == nil {
		return Listing{}
	}
	return maps.Clone(l)
}

// Fields returns the field names in lexicographic order.
func (l Listing) Fields() []string {
	return slices.Sorted(maps.Keys(l))
}

// Record is a stored listing plus the engine-owned fields.
type Record map[string]string

// NewRecord builds a record from a listing stamped with identity and fetch time.
func NewRecord(identity string, l Listing, fetchedAt time.Time) Record {
	r := make(Record, len(l)+2)
	maps.Copy(r, l)
	r[FieldIdentity] = identity
	r[FieldLastFetched] = FormatFetched(fetchedAt)
	return r
}

// Identity returns the record's identity.
func (r Record) Identity() string {
	return r[FieldIdentity]
}

// LastFetched parses the last_fetched column.
func (r Record) LastFetched() (time.Time, error) {
	v := r[FieldLastFetched]
	t, err := time.Parse(constants.TimeFormatFetched, v)
	if err != nil {
		return time.Time{}, &errors.ValidationError{
			Field:   FieldLastFetched,
			Value:   v,
			Message: "not an RFC 3339 timestamp",
		}
	}
	return t, nil
}

// Clone returns a shallow copy.
func (r Record) Clone() Record {
	if r == nil {
		return Record{}
	}
	return maps.Clone(r)
}

// Listing returns the record without the engine-owned fields.
func (r Record) Listing() Listing {
	l := make(Listing, len(r))
	for k, v := range r {
		if k == FieldIdentity || k == FieldLastFetched {
			continue
		}
		l[k] = v
	}
	return l
}

// FormatFetched renders t the way last_fetched is stored: UTC, second precision.
func FormatFetched(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(constants.TimeFormatFetched)
}

// Decode parses a JSON array of flat objects into listings.
//
// Strings are taken as is, null becomes "" with the key kept, and any other
// value is stored as its compact JSON text.
func Decode(data []byte) ([]Listing, error) {
	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.WrapParse("json", "", err)
	}

	out := make([]Listing, 0, len(raw))
	for _, obj := range raw {
		l := make(Listing, len(obj))
		for k, v := range obj {
			s, err := scalar(v)
			if err != nil {
				return nil, errors.WrapParse("json", "", err)
			}
			l[k] = s
		}
		out = append(out, l)
	}
	return out, nil
}

func scalar(v json.RawMessage) (string, error) {
	v = bytes.TrimSpace(v)
	switch {
	case len(v) == 0 || bytes.Equal(v, []byte("null")):
		return "", nil
	case v[0] == '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return "", err
		}
		return s, nil
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, v); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
}
