package sync

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/agentstation/uppbod/pkg/differ"
	"github.com/agentstation/uppbod/pkg/errors"
	"github.com/agentstation/uppbod/pkg/filter"
)

// Result represents the complete result of a sync run.
type Result struct {
	RunID     string
	FetchedAt time.Time
	Source    string
	Store     string

	DryRun  bool
	Skipped bool // empty snapshot left the store untouched

	Fetched  int               // listings returned by the source
	Excluded []filter.Excluded // listings dropped by filter rules
	Kept     int               // records handed to the reconciler

	Changeset *differ.Changeset

	// Errors holds per-record problems: missing identities, duplicates,
	// malformed dates. None of them abort the run.
	Errors []error

	StoreSize int
	Duration  time.Duration
}

// HasChanges returns true if the run changed the store.
func (r *Result) HasChanges() bool {
	return r.Changeset != nil && r.Changeset.HasChanges()
}

// Summary returns a human-readable summary of the sync result.
func (r *Result) Summary() string {
	if r.Skipped {
		return fmt.Sprintf("Empty snapshot from %s, store left untouched", r.Source)
	}

	var parts []string
	if r.DryRun {
		parts = append(parts, "(Dry run)")
	}
	if len(r.Errors) > 0 {
		parts = append(parts, fmt.Sprintf("(%d record errors)", len(r.Errors)))
	}

	summary := "No changes detected"
	if r.HasChanges() {
		summary = r.Changeset.String()
	}
	summary = fmt.Sprintf("%d fetched, %d excluded: %s", r.Fetched, len(r.Excluded), summary)
	if len(parts) > 0 {
		summary += " " + strings.Join(parts, " ")
	}
	return summary
}

// ErrorCounts groups Errors by kind for metrics.
func (r *Result) ErrorCounts() map[string]int {
	counts := make(map[string]int)
	for _, err := range r.Errors {
		counts[errorKind(err)]++
	}
	return counts
}

func errorKind(err error) string {
	switch {
	case errors.IsMissingIdentity(err):
		return "missing_identity"
	case stderrors.Is(err, errors.ErrDuplicateIdentity):
		return "duplicate_identity"
	case errors.IsMalformedDate(err):
		return "malformed_date"
	default:
		return "other"
	}
}
