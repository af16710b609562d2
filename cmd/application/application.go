// Package application provides the application interface for uppbod commands.
//
// Commands accept this interface rather than the concrete App type so they
// can be tested with internal/cmd/application.Mock:
//
//	mock := &application.Mock{
//	    ClientFunc: func(opts ...uppbod.Option) (*uppbod.Client, error) {
//	        return uppbod.New(append(opts, uppbod.WithStore(path, persistence.Options{}))...)
//	    },
//	}
//	cmd := list.NewCommand(mock)
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/uppbod"
	"github.com/agentstation/uppbod/pkg/sync"
)

// Application provides what commands need from the running app.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Client returns the configured client. Without options the cached
	// default is returned; with options a new client is built from the
	// configuration plus opts and the caller must Close it.
	Client(opts ...uppbod.Option) (*uppbod.Client, error)

	// SyncOptions returns run options derived from configuration. Command
	// flags are appended after them and win.
	SyncOptions() []sync.Option

	// StatusField names the column holding listing status.
	StatusField() string

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table, wide).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
