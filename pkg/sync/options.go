// Package sync provides options and results for one sync run of the store
// against a listing source.
package sync

import (
	"os"
	"path/filepath"
	"time"

	"github.com/agentstation/uppbod/pkg/errors"
)

// EmptySnapshotPolicy decides what a run does when the filtered snapshot is empty.
type EmptySnapshotPolicy string

const (
	// PolicySkip leaves the store untouched and writes nothing.
	PolicySkip EmptySnapshotPolicy = "skip"
	// PolicyCancel runs the disappearance pass over the whole store.
	PolicyCancel EmptySnapshotPolicy = "cancel"
)

// ParseEmptySnapshotPolicy parses "skip" or "cancel". Empty means skip.
func ParseEmptySnapshotPolicy(s string) (EmptySnapshotPolicy, error) {
	switch EmptySnapshotPolicy(s) {
	case "", PolicySkip:
		return PolicySkip, nil
	case PolicyCancel:
		return PolicyCancel, nil
	}
	return "", errors.NewValidationError("empty_snapshot", s, "must be skip or cancel")
}

// Options controls a single run of Client.Sync.
type Options struct {
	DryRun        bool                // Reconcile and report without saving
	Timeout       time.Duration       // Timeout for the entire run, zero for none
	EmptySnapshot EmptySnapshotPolicy // What to do with an empty snapshot

	// Outputs written after the run, empty disables them.
	ReportPath  string
	MetricsPath string

	// FetchedAt overrides the run timestamp. Zero means now.
	FetchedAt time.Time
}

// Option is a function that configures sync Options.
type Option func(*Options)

// Defaults returns the default sync options.
func Defaults() *Options {
	return &Options{
		EmptySnapshot: PolicySkip,
	}
}

// Apply applies the given options to the sync options.
func (s *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate checks if the sync options are valid.
func (s *Options) Validate() error {
	if s.Timeout < 0 {
		return &errors.ValidationError{
			Field:   "Timeout",
			Value:   s.Timeout,
			Message: "timeout must be non-negative",
		}
	}

	if _, err := ParseEmptySnapshotPolicy(string(s.EmptySnapshot)); err != nil {
		return err
	}

	for field, path := range map[string]string{"ReportPath": s.ReportPath, "MetricsPath": s.MetricsPath} {
		if path == "" {
			continue
		}
		dir := filepath.Dir(path)
		if dir == "." || dir == "/" {
			continue
		}
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return &errors.ValidationError{
				Field:   field,
				Value:   path,
				Message: "output directory " + dir + " does not exist",
			}
		}
	}

	return nil
}

// WithDryRun configures dry run mode.
func WithDryRun(dryRun bool) Option {
	return func(opts *Options) {
		opts.DryRun = dryRun
	}
}

// WithTimeout configures the sync timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.Timeout = timeout
	}
}

// WithEmptySnapshotPolicy configures the empty snapshot policy.
func WithEmptySnapshotPolicy(p EmptySnapshotPolicy) Option {
	return func(opts *Options) {
		opts.EmptySnapshot = p
	}
}

// WithReportPath writes a markdown report of the run to path.
func WithReportPath(path string) Option {
	return func(opts *Options) {
		opts.ReportPath = path
	}
}

// WithMetricsPath writes a Prometheus textfile for the run to path.
func WithMetricsPath(path string) Option {
	return func(opts *Options) {
		opts.MetricsPath = path
	}
}

// WithFetchedAt pins the run timestamp.
func WithFetchedAt(t time.Time) Option {
	return func(opts *Options) {
		opts.FetchedAt = t
	}
}
