// Package sqlite stores records in an embedded SQLite database.
//
// Each record is one row of the records table with its fields as a JSON
// object; the columns table remembers every column ever seen so empty
// columns survive a round trip.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // driver "sqlite"

	"github.com/agentstation/uppbod/pkg/constants"
	"github.com/agentstation/uppbod/pkg/errors"
	"github.com/agentstation/uppbod/pkg/listings"
	"github.com/agentstation/uppbod/pkg/logging"
	"github.com/agentstation/uppbod/pkg/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	identity TEXT PRIMARY KEY,
	position INTEGER NOT NULL,
	fields   TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS columns (
	name TEXT PRIMARY KEY
);`

// Backend is a SQLite store.
type Backend struct {
	path string
	db   *sql.DB
	lock *store.FileLock
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string) (*Backend, error) {
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("create", filepath.Dir(path), err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.WrapResource("open", "backend", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.WrapResource("open", "backend", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, errors.WrapResource("migrate", "backend", path, err)
	}

	return &Backend{path: path, db: db, lock: store.NewFileLock(path)}, nil
}

// Location implements store.Backend.
func (b *Backend) Location() string {
	return "sqlite:" + b.path
}

// Close implements store.Backend.
func (b *Backend) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Lock implements store.Locker.
func (b *Backend) Lock(ctx context.Context) (store.Unlock, error) {
	return b.lock.Lock(ctx)
}

// Load implements store.Backend.
func (b *Backend) Load(ctx context.Context) (*store.Store, error) {
	s := store.New()

	cols, err := b.db.QueryContext(ctx, `SELECT name FROM columns ORDER BY name`)
	if err != nil {
		return nil, errors.WrapResource("load", "store", b.Location(), err)
	}
	var names []string
	for cols.Next() {
		var name string
		if err := cols.Scan(&name); err != nil {
			_ = cols.Close()
			return nil, errors.WrapResource("load", "store", b.Location(), err)
		}
		names = append(names, name)
	}
	_ = cols.Close()
	s.AddColumns(names...)

	rows, err := b.db.QueryContext(ctx, `SELECT identity, fields FROM records ORDER BY position`)
	if err != nil {
		return nil, errors.WrapResource("load", "store", b.Location(), err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, errors.WrapResource("load", "store", b.Location(), err)
		}
		rec := listings.Record{}
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, errors.WrapParse("json", b.path, err)
		}
		rec[listings.FieldIdentity] = id
		if err := s.Put(rec); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapResource("load", "store", b.Location(), err)
	}
	return s, nil
}

// Save replaces every row inside one transaction.
func (b *Backend) Save(ctx context.Context, s *store.Store) (err error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapResource("save", "store", b.Location(), err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range []string{`DELETE FROM records`, `DELETE FROM columns`} {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return errors.WrapResource("save", "store", b.Location(), err)
		}
	}

	colStmt, err := tx.PrepareContext(ctx, `INSERT INTO columns (name) VALUES (?)`)
	if err != nil {
		return errors.WrapResource("save", "store", b.Location(), err)
	}
	defer func() { _ = colStmt.Close() }()
	for _, c := range s.Columns() {
		if _, err = colStmt.ExecContext(ctx, c); err != nil {
			return errors.WrapResource("save", "store", b.Location(), err)
		}
	}

	recStmt, err := tx.PrepareContext(ctx, `INSERT INTO records (identity, position, fields) VALUES (?, ?, ?)`)
	if err != nil {
		return errors.WrapResource("save", "store", b.Location(), err)
	}
	defer func() { _ = recStmt.Close() }()
	for i, rec := range s.Records() {
		fields := rec.Clone()
		delete(fields, listings.FieldIdentity)
		data, mErr := json.Marshal(fields)
		if mErr != nil {
			err = mErr
			return errors.WrapResource("save", "store", rec.Identity(), err)
		}
		if _, err = recStmt.ExecContext(ctx, rec.Identity(), i, string(data)); err != nil {
			return errors.WrapResource("save", "store", b.Location(), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.WrapResource("save", "store", b.Location(), err)
	}
	logging.FromContext(ctx).Debug().Str("path", b.path).Int("records", s.Len()).Msg("saved store")
	return nil
}

var (
	_ store.Backend = (*Backend)(nil)
	_ store.Locker  = (*Backend)(nil)
)
