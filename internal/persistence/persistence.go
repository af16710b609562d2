// Package persistence opens a store backend from a DSN.
//
//	auctions.csv                 CSV file
//	csv:/var/lib/uppbod/a.csv    CSV file
//	sqlite:/var/lib/uppbod/a.db  SQLite database
//	postgres://user@host/db      PostgreSQL
package persistence

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/agentstation/uppbod/pkg/errors"
	"github.com/agentstation/uppbod/pkg/store"
	"github.com/agentstation/uppbod/pkg/store/csvfile"
	"github.com/agentstation/uppbod/pkg/store/postgres"
	"github.com/agentstation/uppbod/pkg/store/sqlite"
)

// Kind names a backend type.
type Kind string

// Backend kinds.
const (
	KindCSV      Kind = "csv"
	KindSQLite   Kind = "sqlite"
	KindPostgres Kind = "postgres"
)

// Options tune the backend chosen by Open.
type Options struct {
	// CSVBOM writes a byte order mark in CSV files.
	CSVBOM bool

	// PostgresTable overrides the Postgres table name.
	PostgresTable string
}

// Parse splits a DSN into its kind and backend-specific location.
func Parse(dsn string) (Kind, string, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return "", "", errors.NewConfigError("store", "dsn cannot be empty", nil)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return KindPostgres, dsn, nil
	case strings.HasPrefix(dsn, "sqlite:"):
		return KindSQLite, strings.TrimPrefix(strings.TrimPrefix(dsn, "sqlite:"), "//"), nil
	case strings.HasPrefix(dsn, "csv:"):
		return KindCSV, strings.TrimPrefix(strings.TrimPrefix(dsn, "csv:"), "//"), nil
	}

	switch strings.ToLower(filepath.Ext(dsn)) {
	case ".csv":
		return KindCSV, dsn, nil
	case ".db", ".sqlite", ".sqlite3":
		return KindSQLite, dsn, nil
	}
	return "", "", errors.NewConfigError("store", "unrecognized dsn "+dsn, nil)
}

// Open returns the backend named by dsn.
func Open(ctx context.Context, dsn string, opts Options) (store.Backend, error) {
	kind, loc, err := Parse(dsn)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindCSV:
		return csvfile.New(loc, csvfile.WithBOM(opts.CSVBOM)), nil
	case KindSQLite:
		b, err := sqlite.Open(ctx, loc)
		if err != nil {
			return nil, err
		}
		return b, nil
	case KindPostgres:
		var popts []postgres.Option
		if opts.PostgresTable != "" {
			popts = append(popts, postgres.WithTable(opts.PostgresTable))
		}
		b, err := postgres.Open(ctx, loc, popts...)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	return nil, errors.NewConfigError("store", "unsupported backend "+string(kind), nil)
}
