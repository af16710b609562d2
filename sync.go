package uppbod

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/uppbod/pkg/differ"
	"github.com/agentstation/uppbod/pkg/errors"
	"github.com/agentstation/uppbod/pkg/listings"
	"github.com/agentstation/uppbod/pkg/logging"
	"github.com/agentstation/uppbod/pkg/metrics"
	"github.com/agentstation/uppbod/pkg/report"
	"github.com/agentstation/uppbod/pkg/store"
	"github.com/agentstation/uppbod/pkg/sync"
)

// Sync fetches one snapshot and reconciles it into the store.
//
// Per-record problems are collected in the result and never abort the run.
// Fetch, lock and persistence failures abort it before anything is written.
func (c *Client) Sync(ctx context.Context, opts ...sync.Option) (*sync.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	options := sync.Defaults().Apply(opts...)
	if err := options.Validate(); err != nil {
		return nil, err
	}

	var cancel context.CancelFunc
	if options.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
	} else {
		cancel = func() {}
	}
	defer cancel()

	fetchedAt := options.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}
	fetchedAt = fetchedAt.UTC().Truncate(time.Second)

	source := c.config.source
	ctx = logging.WithRun(ctx, uuid.NewString(), fetchedAt)
	ctx = logging.WithSource(ctx, source.ID().String())
	logger := logging.FromContext(ctx)

	started := time.Now()
	result := &sync.Result{
		RunID:     logging.RunID(ctx),
		FetchedAt: fetchedAt,
		Source:    source.ID().String(),
		DryRun:    options.DryRun,
	}

	backend, err := c.Backend(ctx)
	if err != nil {
		return nil, c.fail(ctx, result, started, err)
	}
	result.Store = backend.Location()

	// Step 1: fetch
	raw, err := source.Fetch(ctx)
	if err != nil {
		return nil, c.fail(ctx, result, started, err)
	}
	result.Fetched = len(raw)
	logger.Info().Int("listings", len(raw)).Msg("fetched snapshot")

	// Step 2: filter, normalize, resolve identities
	snapshot := c.prepare(ctx, raw, fetchedAt, result)
	result.Kept = len(snapshot)

	// Step 3: empty snapshot guard
	if len(snapshot) == 0 && options.EmptySnapshot == sync.PolicySkip {
		warn := &errors.EmptySnapshotError{
			Source:  result.Source,
			RunID:   result.RunID,
			Fetched: result.Fetched,
			Policy:  string(options.EmptySnapshot),
		}
		logger.Warn().Err(warn).Msg("store left untouched")
		result.Skipped = true
		result.Changeset = differ.NewChangeset()
		c.finish(ctx, result, options, started)
		return result, nil
	}

	// Step 4: read, merge and write under the store lock
	if err := c.reconcile(ctx, backend, snapshot, options, result); err != nil {
		return nil, c.fail(ctx, result, started, err)
	}

	if !options.DryRun {
		c.hooks.trigger(result.Changeset)
	}

	if result.HasChanges() {
		logger.Info().
			Int("added", result.Changeset.Summary.Added).
			Int("updated", result.Changeset.Summary.Updated).
			Int("cancelled", result.Changeset.Summary.Cancelled).
			Msg("changes detected")
	} else {
		logger.Info().Msg("no changes detected")
	}

	c.finish(ctx, result, options, started)
	return result, nil
}

// prepare turns the fetched listings into identified records.
func (c *Client) prepare(ctx context.Context, raw []listings.Listing, fetchedAt time.Time, result *sync.Result) []listings.Record {
	kept, excluded := c.filter.Apply(raw)
	result.Excluded = excluded
	if len(excluded) > 0 {
		logging.FromContext(ctx).Debug().Int("excluded", len(excluded)).Msg("filtered snapshot")
	}

	normalized, errs := c.normalizer.Snapshot(ctx, kept)
	result.Errors = append(result.Errors, errs...)

	resolved := c.resolver.Resolve(ctx, normalized)
	result.Errors = append(result.Errors, resolved.Errors...)

	snapshot := make([]listings.Record, 0, len(resolved.Listings))
	for _, l := range resolved.Listings {
		snapshot = append(snapshot, listings.NewRecord(l.Identity, l.Listing, fetchedAt))
	}
	return snapshot
}

func (c *Client) reconcile(ctx context.Context, backend store.Backend, snapshot []listings.Record, options *sync.Options, result *sync.Result) (err error) {
	if locker, ok := backend.(store.Locker); ok {
		unlock, lockErr := locker.Lock(ctx)
		if lockErr != nil {
			return lockErr
		}
		defer func() {
			if uerr := unlock(); uerr != nil && err == nil {
				err = uerr
			}
		}()
	}

	s, err := backend.Load(ctx)
	if err != nil {
		return err
	}
	if options.DryRun {
		s = s.Clone()
	}

	res, err := c.reconciler.Reconcile(ctx, s, snapshot, result.FetchedAt)
	if err != nil {
		return err
	}
	result.Changeset = res.Changeset
	result.StoreSize = s.Len()

	if options.DryRun {
		logging.FromContext(ctx).Info().Bool("dry_run", true).Msg("dry run completed, nothing saved")
		return nil
	}
	return backend.Save(ctx, s)
}

// fail records a failed run and returns err.
func (c *Client) fail(ctx context.Context, result *sync.Result, started time.Time, err error) error {
	result.Duration = time.Since(started)
	logging.FromContext(ctx).Error().Err(err).Msg("sync failed")
	c.recorder.Observe(metrics.Run{
		Source:     result.Source,
		Outcome:    "error",
		Fetched:    result.Fetched,
		Duration:   result.Duration,
		FinishedAt: time.Now(),
	})
	return err
}

// finish records metrics and writes the configured outputs. Output failures
// are logged; the store has already been saved by then.
func (c *Client) finish(ctx context.Context, result *sync.Result, options *sync.Options, started time.Time) {
	logger := logging.FromContext(ctx)
	result.Duration = time.Since(started)
	if result.Changeset != nil {
		result.Changeset.Summarize()
	}

	outcome := "success"
	switch {
	case result.Skipped:
		outcome = "skipped"
	case result.DryRun:
		outcome = "dry_run"
	}

	run := metrics.Run{
		Source:       result.Source,
		Outcome:      outcome,
		Fetched:      result.Fetched,
		Excluded:     len(result.Excluded),
		Kept:         result.Kept,
		StoreSize:    result.StoreSize,
		RecordErrors: result.ErrorCounts(),
		Duration:     result.Duration,
		FinishedAt:   time.Now(),
	}
	if cs := result.Changeset; cs != nil {
		run.Added = cs.Summary.Added
		run.Updated = cs.Summary.Updated
		run.Cancelled = cs.Summary.Cancelled
		run.Unchanged = cs.Summary.Unchanged
	}
	c.recorder.Observe(run)

	if options.MetricsPath != "" {
		if err := c.recorder.WriteTextfile(options.MetricsPath); err != nil {
			logger.Warn().Err(err).Msg("could not write metrics")
		}
	}

	if options.ReportPath != "" {
		err := report.WriteFile(options.ReportPath, report.Run{
			RunID:     result.RunID,
			Source:    result.Source,
			Store:     result.Store,
			FetchedAt: result.FetchedAt,
			Duration:  result.Duration,
			DryRun:    result.DryRun,
			Skipped:   result.Skipped,
			Fetched:   result.Fetched,
			Kept:      result.Kept,
			StoreSize: result.StoreSize,
			Excluded:  result.Excluded,
			Changeset: result.Changeset,
			Errors:    result.Errors,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("could not write report")
		}
	}
}
