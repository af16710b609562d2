// Package sources defines where snapshots come from.
//
// A Source returns the complete current set of listings in one call. The
// island source queries the public GraphQL endpoint; the local source reads a
// saved response from disk, which is how fixtures and offline runs work.
package sources

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/agentstation/uppbod/pkg/errors"
	"github.com/agentstation/uppbod/pkg/listings"
)

// ID identifies a source.
type ID string

const (
	// IslandID is the island.is auction feed.
	IslandID ID = "island"
	// LocalID is a JSON file on disk.
	LocalID ID = "local"
)

// String returns the ID as a string.
func (id ID) String() string {
	return string(id)
}

// Source fetches one snapshot.
type Source interface {
	ID() ID
	Fetch(ctx context.Context) ([]listings.Listing, error)
}

// QueryName is the GraphQL operation and the envelope key of the feed.
const QueryName = "getSyslumennAuctions"

type envelope struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// DecodeSnapshot accepts either a bare JSON array of listings or the GraphQL
// response envelope {"data": {"getSyslumennAuctions": [...]}}.
func DecodeSnapshot(source ID, data []byte) ([]listings.Listing, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		return listings.Decode(data)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.WrapParse("json", "", err)
	}
	if len(env.Errors) > 0 {
		msgs := make([]string, 0, len(env.Errors))
		for _, e := range env.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, errors.NewAPIError(source.String(), 0, strings.Join(msgs, "; "))
	}

	raw, ok := env.Data[QueryName]
	if !ok {
		return nil, &errors.ParseError{Format: "json", Message: "response has no data." + QueryName}
	}
	if strings.TrimSpace(string(raw)) == "null" {
		return []listings.Listing{}, nil
	}
	return listings.Decode(raw)
}
