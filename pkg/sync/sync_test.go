package sync_test

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/uppbod/pkg/differ"
	"github.com/agentstation/uppbod/pkg/errors"
	"github.com/agentstation/uppbod/pkg/listings"
	"github.com/agentstation/uppbod/pkg/sync"
)

func TestParseEmptySnapshotPolicy(t *testing.T) {
	p, err := sync.ParseEmptySnapshotPolicy("")
	require.NoError(t, err)
	assert.Equal(t, sync.PolicySkip, p)

	p, err = sync.ParseEmptySnapshotPolicy("cancel")
	require.NoError(t, err)
	assert.Equal(t, sync.PolicyCancel, p)

	_, err = sync.ParseEmptySnapshotPolicy("purge")
	assert.True(t, errors.IsValidationError(err))
}

func TestOptionsValidate(t *testing.T) {
	opts := sync.Defaults().Apply(
		sync.WithDryRun(true),
		sync.WithTimeout(time.Minute),
		sync.WithReportPath(filepath.Join(t.TempDir(), "report.md")),
	)
	require.NoError(t, opts.Validate())
	assert.True(t, opts.DryRun)
	assert.Equal(t, sync.PolicySkip, opts.EmptySnapshot)

	opts = sync.Defaults().Apply(sync.WithTimeout(-time.Second))
	assert.True(t, errors.IsValidationError(opts.Validate()))

	opts = sync.Defaults().Apply(sync.WithMetricsPath("/does/not/exist/uppbod.prom"))
	assert.True(t, errors.IsValidationError(opts.Validate()))

	opts = sync.Defaults().Apply(sync.WithEmptySnapshotPolicy("purge"))
	assert.Error(t, opts.Validate())
}

func TestResultSummary(t *testing.T) {
	cs := differ.NewChangeset()
	cs.Added = append(cs.Added, listings.NewRecord("L-1", listings.Listing{}, time.Now()))
	cs.Summarize()

	r := &sync.Result{Source: "island", Fetched: 3, Changeset: cs, DryRun: true}
	assert.True(t, r.HasChanges())
	assert.Contains(t, r.Summary(), "3 fetched")
	assert.Contains(t, r.Summary(), "1 added")
	assert.Contains(t, r.Summary(), "(Dry run)")

	skipped := &sync.Result{Source: "island", Skipped: true}
	assert.False(t, skipped.HasChanges())
	assert.Contains(t, skipped.Summary(), "left untouched")
}

func TestResultErrorCounts(t *testing.T) {
	r := &sync.Result{Errors: []error{
		&errors.MissingIdentityError{Index: 1},
		&errors.MissingIdentityError{Index: 2},
		&errors.DuplicateIdentityError{Identity: "x", Index: 3},
		fmt.Errorf("normalize: %w", &errors.MalformedDateError{Field: "auctionDate", Value: "soon"}),
		errors.New("boom"),
	}}
	assert.Equal(t, map[string]int{
		"missing_identity":   2,
		"duplicate_identity": 1,
		"malformed_date":     1,
		"other":              1,
	}, r.ErrorCounts())
}
