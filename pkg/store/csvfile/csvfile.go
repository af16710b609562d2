// Package csvfile stores records in a single CSV file, one row per identity.
package csvfile

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentstation/uppbod/pkg/constants"
	"github.com/agentstation/uppbod/pkg/errors"
	"github.com/agentstation/uppbod/pkg/listings"
	"github.com/agentstation/uppbod/pkg/logging"
	"github.com/agentstation/uppbod/pkg/store"
)

const bom = "\ufeff"

// Backend is a CSV file store.
type Backend struct {
	path     string
	writeBOM bool
	lock     *store.FileLock
}

// Option configures a Backend.
type Option func(*Backend)

// WithBOM writes a UTF-8 byte order mark so spreadsheet tools pick the
// right encoding. A BOM is always accepted on read.
func WithBOM(enabled bool) Option {
	return func(b *Backend) {
		b.writeBOM = enabled
	}
}

// New returns a backend for the file at path.
func New(path string, opts ...Option) *Backend {
	b := &Backend{path: path, lock: store.NewFileLock(path)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Location implements store.Backend.
func (b *Backend) Location() string {
	return b.path
}

// Close implements store.Backend.
func (b *Backend) Close() error {
	return nil
}

// Lock implements store.Locker.
func (b *Backend) Lock(ctx context.Context) (store.Unlock, error) {
	return b.lock.Lock(ctx)
}

// Load reads the file. A missing file is an empty store.
func (b *Backend) Load(ctx context.Context) (*store.Store, error) {
	s := store.New()

	f, err := os.Open(b.path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, errors.WrapIO("open", b.path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return s, nil
	}
	if err != nil {
		return nil, b.parseError(err, 1)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], bom)
	}

	idCol := -1
	for i, h := range header {
		if h == listings.FieldIdentity {
			idCol = i
			break
		}
	}
	if idCol < 0 {
		return nil, &errors.ParseError{Format: "csv", File: b.path, Line: 1, Message: "missing identity column"}
	}
	s.AddColumns(header...)

	logger := logging.FromContext(ctx)
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, b.parseError(err, line)
		}
		if len(row) != len(header) {
			return nil, &errors.ParseError{Format: "csv", File: b.path, Line: line, Message: "wrong number of fields"}
		}

		id := row[idCol]
		if id == "" {
			logger.Warn().Int("line", line).Msg("skipping row without identity")
			continue
		}
		if s.Has(id) {
			logger.Warn().Int("line", line).Str("identity", id).Msg("skipping repeated identity")
			continue
		}

		rec := make(listings.Record, len(header))
		for i, h := range header {
			rec[h] = row[i]
		}
		if err := s.Put(rec); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (b *Backend) parseError(err error, line int) error {
	if pe, ok := err.(*csv.ParseError); ok {
		line = pe.Line
	}
	return &errors.ParseError{Format: "csv", File: b.path, Line: line, Message: err.Error(), Err: err}
}

// Save writes the store to a temp file next to the target and renames it
// into place.
func (b *Backend) Save(ctx context.Context, s *store.Store) error {
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return errors.WrapIO("create", "temp file", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if err := b.write(tmp, s); err != nil {
		return errors.WrapIO("write", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		return errors.WrapIO("sync", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WrapIO("close", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, constants.FilePermissions); err != nil {
		return errors.WrapIO("chmod", tmpPath, err)
	}
	if err := os.Rename(tmpPath, b.path); err != nil {
		return errors.WrapIO("rename", b.path, err)
	}

	logging.FromContext(ctx).Debug().
		Str("path", b.path).
		Int("records", s.Len()).
		Msg("saved store")
	return nil
}

func (b *Backend) write(w io.Writer, s *store.Store) error {
	bw := bufio.NewWriter(w)
	if b.writeBOM {
		if _, err := bw.WriteString(bom); err != nil {
			return err
		}
	}

	header, rows := s.Rows()
	cw := csv.NewWriter(bw)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return bw.Flush()
}

var (
	_ store.Backend = (*Backend)(nil)
	_ store.Locker  = (*Backend)(nil)
)
