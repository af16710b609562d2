// Package local reads a snapshot from a JSON file.
package local

import (
	"context"
	"os"

	"github.com/agentstation/uppbod/pkg/errors"
	"github.com/agentstation/uppbod/pkg/listings"
	"github.com/agentstation/uppbod/pkg/logging"
	"github.com/agentstation/uppbod/pkg/sources"
)

// Source loads listings from a saved feed response or a bare JSON array.
type Source struct {
	path string
}

// New creates a new local source for path.
func New(path string) *Source {
	return &Source{path: path}
}

// ID implements sources.Source.
func (s *Source) ID() sources.ID {
	return sources.LocalID
}

// Path returns the file being read.
func (s *Source) Path() string {
	return s.path
}

// Fetch implements sources.Source.
func (s *Source) Fetch(ctx context.Context) ([]listings.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("snapshot file", s.path)
		}
		return nil, errors.WrapIO("read", s.path, err)
	}

	out, err := sources.DecodeSnapshot(s.ID(), data)
	if err != nil {
		if pe, ok := err.(*errors.ParseError); ok {
			pe.File = s.path
		}
		return nil, err
	}

	logging.FromContext(ctx).Debug().Str("path", s.path).Int("listings", len(out)).Msg("read local snapshot")
	return out, nil
}

var _ sources.Source = (*Source)(nil)
