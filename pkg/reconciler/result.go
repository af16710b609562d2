package reconciler

import (
	"fmt"
	"time"

	"github.com/agentstation/uppbod/pkg/differ"
)

// Result represents the outcome of one reconciliation.
type Result struct {
	Changeset *differ.Changeset
	Metadata  ResultMetadata
}

// ResultMetadata contains metadata about the reconciliation process.
type ResultMetadata struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	// FetchedAt is the run timestamp stamped into last_fetched.
	FetchedAt time.Time

	Stats ResultStatistics
}

// ResultStatistics contains statistics about the reconciliation.
type ResultStatistics struct {
	SnapshotSize    int
	StoreSizeBefore int
	StoreSizeAfter  int
	TotalTimeMs     int64
}

// HasChanges returns true if any changes were made.
func (r *Result) HasChanges() bool {
	return r.Changeset.HasChanges()
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	if !r.HasChanges() {
		return fmt.Sprintf("Reconciled %d listings. No changes detected.", r.Metadata.Stats.SnapshotSize)
	}
	return fmt.Sprintf("Reconciled %d listings. %s", r.Metadata.Stats.SnapshotSize, r.Changeset.String())
}

func newResult(fetchedAt time.Time) *Result {
	return &Result{
		Changeset: differ.NewChangeset(),
		Metadata: ResultMetadata{
			StartTime: time.Now(),
			FetchedAt: fetchedAt,
		},
	}
}

// finalize calculates duration and the changeset summary.
func (r *Result) finalize() {
	r.Changeset.Summarize()
	r.Metadata.EndTime = time.Now()
	r.Metadata.Duration = r.Metadata.EndTime.Sub(r.Metadata.StartTime)
	r.Metadata.Stats.TotalTimeMs = r.Metadata.Duration.Milliseconds()
}
