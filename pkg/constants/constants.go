// Package constants provides shared constants used throughout uppbod.
// Timeouts, file permissions and default locations live here so the CLI,
// the sync client and the store backends agree on them.
package constants

import "time"

// Timeout constants
const (
	// DefaultHTTPTimeout bounds a single fetch of the auction feed.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultTimeout is the standard timeout for general operations
	DefaultTimeout = 10 * time.Second

	// SyncTimeout bounds a whole sync run, lock wait included.
	SyncTimeout = 5 * time.Minute

	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 10 * time.Minute

	// LockRetryDelay is the polling interval while waiting for the store lock.
	LockRetryDelay = 250 * time.Millisecond
)

// File permission constants
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Default values
const (
	// DefaultStorePath is the store used when no DSN is configured.
	DefaultStorePath = "auctions.csv"

	// DefaultUserAgent is sent with every feed request.
	DefaultUserAgent = "uppbod/1.0 (+https://github.com/agentstation/uppbod)"

	// DefaultConfigName is the config file name without extension.
	DefaultConfigName = ".uppbod"

	// EnvPrefix is the prefix for environment overrides (UPPBOD_STORE, ...).
	EnvPrefix = "UPPBOD"
)

// Format constants
const (
	// TimeFormatFetched is the layout of the last_fetched column.
	TimeFormatFetched = time.RFC3339

	// TimeFormatLog is the format used in log files
	TimeFormatLog = "2006-01-02 15:04:05.000"

	// TimeFormatFilename is the format used in generated filenames
	TimeFormatFilename = "20060102-150405"
)
