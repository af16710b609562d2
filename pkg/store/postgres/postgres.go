// Package postgres stores records in a PostgreSQL table with jsonb fields.
package postgres

import (
	"context"
	"fmt"
	"hash/fnv"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentstation/uppbod/pkg/errors"
	"github.com/agentstation/uppbod/pkg/listings"
	"github.com/agentstation/uppbod/pkg/logging"
	"github.com/agentstation/uppbod/pkg/store"
)

// DefaultTable is the records table name.
const DefaultTable = "uppbod_records"

var validIdent = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Backend is a PostgreSQL store.
type Backend struct {
	pool  *pgxpool.Pool
	table string
	dsn   string
}

// Option configures a Backend.
type Option func(*Backend) error

// WithTable overrides the records table name. The columns table is the
// same name with a _columns suffix.
func WithTable(table string) Option {
	return func(b *Backend) error {
		if !validIdent.MatchString(table) {
			return errors.NewValidationError("table", table, "must be a plain SQL identifier")
		}
		b.table = table
		return nil
	}
}

// Open connects to dsn and creates the tables if needed.
func Open(ctx context.Context, dsn string, opts ...Option) (*Backend, error) {
	b := &Backend{table: DefaultTable, dsn: dsn}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}

	cfg, err := poolConfig(dsn)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.WrapResource("open", "backend", "postgres", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.WrapResource("open", "backend", "postgres", err)
	}
	b.pool = pool

	if err := b.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return b, nil
}

// minConns covers the connection pinned by Lock plus one for Load or Save.
const minConns = 2

func poolConfig(dsn string) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.NewConfigError("postgres", "invalid dsn", err)
	}
	if cfg.MaxConns < minConns {
		cfg.MaxConns = minConns
	}
	return cfg, nil
}

func (b *Backend) columnsTable() string {
	return b.table + "_columns"
}

func (b *Backend) migrate(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			identity TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			fields   JSONB NOT NULL
		)`, b.table),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (name TEXT PRIMARY KEY)`, b.columnsTable()),
	}
	for _, stmt := range stmts {
		if _, err := b.pool.Exec(ctx, stmt); err != nil {
			return errors.WrapResource("migrate", "backend", b.table, err)
		}
	}
	return nil
}

// Location implements store.Backend.
func (b *Backend) Location() string {
	return "postgres:" + b.table
}

// Close implements store.Backend.
func (b *Backend) Close() error {
	if b.pool != nil {
		b.pool.Close()
	}
	return nil
}

func (b *Backend) lockKey() int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("uppbod:" + b.table))
	return int64(h.Sum64())
}

// Lock takes a session advisory lock keyed on the table name. The lock is
// held on a dedicated pooled connection until the returned Unlock runs, so
// Load and Save use a second one; the pool never has fewer than two.
func (b *Backend) Lock(ctx context.Context) (store.Unlock, error) {
	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return nil, &errors.LockError{Path: b.Location(), Err: err}
	}
	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, b.lockKey()); err != nil {
		conn.Release()
		return nil, &errors.LockError{Path: b.Location(), Err: err}
	}
	return func() error {
		defer conn.Release()
		if _, err := conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1)`, b.lockKey()); err != nil {
			return &errors.LockError{Path: b.Location(), Err: err}
		}
		return nil
	}, nil
}

// Load implements store.Backend.
func (b *Backend) Load(ctx context.Context) (*store.Store, error) {
	s := store.New()

	names, err := b.columns(ctx)
	if err != nil {
		return nil, err
	}
	s.AddColumns(names...)

	rows, err := b.pool.Query(ctx, fmt.Sprintf(`SELECT identity, fields FROM %s ORDER BY position`, b.table))
	if err != nil {
		return nil, errors.WrapResource("load", "store", b.Location(), err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var fields map[string]string
		if err := rows.Scan(&id, &fields); err != nil {
			return nil, errors.WrapResource("load", "store", b.Location(), err)
		}
		rec := listings.Record(fields)
		if rec == nil {
			rec = listings.Record{}
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

func (b *Backend) columns(ctx context.Context) ([]string, error) {
	rows, err := b.pool.Query(ctx, fmt.Sprintf(`SELECT name FROM %s ORDER BY name`, b.columnsTable()))
	if err != nil {
		return nil, errors.WrapResource("load", "store", b.Location(), err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, errors.WrapResource("load", "store", b.Location(), err)
	}
	return names, nil
}

// Save replaces every row inside one transaction using a batch.
func (b *Backend) Save(ctx context.Context, s *store.Store) error {
	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return errors.WrapResource("save", "store", b.Location(), err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	batch.Queue(fmt.Sprintf(`DELETE FROM %s`, b.table))
	batch.Queue(fmt.Sprintf(`DELETE FROM %s`, b.columnsTable()))
	for _, c := range s.Columns() {
		batch.Queue(fmt.Sprintf(`INSERT INTO %s (name) VALUES ($1)`, b.columnsTable()), c)
	}
	for i, rec := range s.Records() {
		fields := map[string]string(rec.Clone())
		delete(fields, listings.FieldIdentity)
		batch.Queue(
			fmt.Sprintf(`INSERT INTO %s (identity, position, fields) VALUES ($1, $2, $3)`, b.table),
			rec.Identity(), i, fields,
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return errors.WrapResource("save", "store", b.Location(), err)
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.WrapResource("save", "store", b.Location(), err)
	}

	logging.FromContext(ctx).Debug().Str("table", b.table).Int("records", s.Len()).Msg("saved store")
	return nil
}

var (
	_ store.Backend = (*Backend)(nil)
	_ store.Locker  = (*Backend)(nil)
)
