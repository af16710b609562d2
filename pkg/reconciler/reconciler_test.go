package reconciler_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/uppbod/pkg/differ"
	"github.com/agentstation/uppbod/pkg/errors"
	"github.com/agentstation/uppbod/pkg/listings"
	"github.com/agentstation/uppbod/pkg/reconciler"
	"github.com/agentstation/uppbod/pkg/store"
)

var (
	day1 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	day2 = time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC)
)

func listing(id string, kv ...string) listings.Listing {
	l := listings.Listing{listings.FieldLotID: id}
	for i := 0; i+1 < len(kv); i += 2 {
		l[kv[i]] = kv[i+1]
	}
	return l
}

func snapshot(at time.Time, ls ...listings.Listing) []listings.Record {
	out := make([]listings.Record, 0, len(ls))
	for _, l := range ls {
		out = append(out, listings.NewRecord(l[listings.FieldLotID], l, at))
	}
	return out
}

func newReconciler(t *testing.T, opts ...reconciler.Option) *reconciler.Reconciler {
	t.Helper()
	r, err := reconciler.New(opts...)
	require.NoError(t, err)
	return r
}

func get(t *testing.T, s *store.Store, id string) listings.Record {
	t.Helper()
	r, ok := s.Get(id)
	require.True(t, ok, "record %s", id)
	return r
}

func TestInsertion(t *testing.T) {
	r := newReconciler(t)
	s := store.New()

	res, err := r.Reconcile(context.Background(), s, snapshot(day1,
		listing("A", "auctionType", "Uppboð", "office", "Reykjavík"),
	), day1)
	require.NoError(t, err)

	rec := get(t, s, "A")
	assert.Equal(t, "Reykjavík", rec["office"])
	assert.Equal(t, "2024-05-01T12:00:00Z", rec[listings.FieldLastFetched])
	assert.Equal(t, 1, res.Changeset.Summary.Added)
	assert.Equal(t, "A", res.Changeset.Added[0].Identity())
}

func TestIdempotence(t *testing.T) {
	r := newReconciler(t)
	s := store.New()
	ctx := context.Background()
	ls := []listings.Listing{
		listing("A", "auctionType", "Uppboð", "auctionDate", "2024-06-01", "office", "Selfoss"),
		listing("B", "auctionType", "Uppboð", "auctionDate", "2024-06-02", "lotName", "Bifreið"),
	}

	_, err := r.Reconcile(ctx, s, snapshot(day1, ls...), day1)
	require.NoError(t, err)
	first := s.Records()

	res, err := r.Reconcile(ctx, s, snapshot(day2, ls...), day2)
	require.NoError(t, err)
	assert.False(t, res.HasChanges())
	assert.Equal(t, 2, res.Changeset.Summary.Unchanged)

	second := s.Records()
	require.Len(t, second, len(first))
	for i, before := range first {
		after := second[i]
		assert.Equal(t, "2024-05-02T12:00:00Z", after[listings.FieldLastFetched], after.Identity())

		before, after = before.Clone(), after.Clone()
		delete(before, listings.FieldLastFetched)
		delete(after, listings.FieldLastFetched)
		assert.Equal(t, before, after, "only last_fetched moves on a repeated snapshot")
	}
}

func TestStickyAndLiveFields(t *testing.T) {
	r := newReconciler(t)
	s := store.New()
	ctx := context.Background()

	_, err := r.Reconcile(ctx, s, snapshot(day1,
		listing("A", "auctionType", "Uppboð", "lotName", "Hús", "office", "Reykjavík", "respondent", "Jón"),
	), day1)
	require.NoError(t, err)

	res, err := r.Reconcile(ctx, s, snapshot(day2,
		listing("A", "auctionType", "Framhald", "lotName", "Hús við sjó", "office", "Selfoss"),
	), day2)
	require.NoError(t, err)

	rec := get(t, s, "A")
	assert.Equal(t, "Framhald", rec["auctionType"], "live")
	assert.Equal(t, "Hús við sjó", rec["lotName"], "live")
	assert.Equal(t, "Reykjavík", rec["office"], "sticky")
	assert.Equal(t, "Jón", rec["respondent"], "absent field untouched")
	assert.Equal(t, "2024-05-02T12:00:00Z", rec[listings.FieldLastFetched])

	require.Len(t, res.Changeset.Updated, 1)
	paths := []string{}
	for _, c := range res.Changeset.Updated[0].Changes {
		paths = append(paths, c.Path)
	}
	assert.Equal(t, []string{"auctionType", "lotName"}, paths)
}

func TestLiveFieldOnlyWhenCarried(t *testing.T) {
	r := newReconciler(t)
	s := store.New()
	ctx := context.Background()

	_, err := r.Reconcile(ctx, s, snapshot(day1, listing("A", "publishText", "old")), day1)
	require.NoError(t, err)
	_, err = r.Reconcile(ctx, s, snapshot(day2, listing("A")), day2)
	require.NoError(t, err)

	assert.Equal(t, "old", get(t, s, "A")["publishText"])
}

func TestDisappearance(t *testing.T) {
	r := newReconciler(t)
	s := store.New()
	ctx := context.Background()

	_, err := r.Reconcile(ctx, s, snapshot(day1,
		listing("A", "auctionType", "Uppboð", "office", "Reykjavík"),
		listing("B", "auctionType", "Uppboð"),
	), day1)
	require.NoError(t, err)

	res, err := r.Reconcile(ctx, s, snapshot(day2, listing("B", "auctionType", "Uppboð")), day2)
	require.NoError(t, err)

	a := get(t, s, "A")
	assert.Equal(t, "cancelled", a["auctionType"])
	assert.Equal(t, "Reykjavík", a["office"])
	assert.Equal(t, "2024-05-01T12:00:00Z", a[listings.FieldLastFetched], "last_fetched is untouched")

	require.Len(t, res.Changeset.Cancelled, 1)
	assert.Equal(t, differ.FieldChange{
		Path: "auctionType", OldValue: "Uppboð", NewValue: "cancelled", Type: differ.ChangeTypeCancel,
	}, res.Changeset.Cancelled[0].Changes[0])

	// A cancelled record stays cancelled without being reported again.
	res, err = r.Reconcile(ctx, s, snapshot(day2, listing("B", "auctionType", "Uppboð")), day2)
	require.NoError(t, err)
	assert.Empty(t, res.Changeset.Cancelled)
}

func TestReappearanceRefreshesStatus(t *testing.T) {
	r := newReconciler(t)
	s := store.New()
	ctx := context.Background()

	_, err := r.Reconcile(ctx, s, snapshot(day1, listing("A", "auctionType", "Uppboð")), day1)
	require.NoError(t, err)
	_, err = r.Reconcile(ctx, s, snapshot(day1, listing("B")), day1)
	require.NoError(t, err)
	require.Equal(t, "cancelled", get(t, s, "A")["auctionType"])

	_, err = r.Reconcile(ctx, s, snapshot(day2, listing("A", "auctionType", "Uppboð")), day2)
	require.NoError(t, err)
	assert.Equal(t, "Uppboð", get(t, s, "A")["auctionType"])
}

func TestTerminalProtection(t *testing.T) {
	r := newReconciler(t, reconciler.WithTerminalStatuses("Sölu lokið", "sale completed"))
	s := store.New()
	ctx := context.Background()

	_, err := r.Reconcile(ctx, s, snapshot(day1,
		listing("A", "auctionType", "Sölu lokið"),
		listing("B", "auctionType", "sale completed"),
		listing("C", "auctionType", "Uppboð"),
	), day1)
	require.NoError(t, err)

	res, err := r.Reconcile(ctx, s, nil, day2)
	require.NoError(t, err)

	assert.Equal(t, "Sölu lokið", get(t, s, "A")["auctionType"])
	assert.Equal(t, "sale completed", get(t, s, "B")["auctionType"])
	assert.Equal(t, "cancelled", get(t, s, "C")["auctionType"])
	assert.Equal(t, 1, res.Changeset.Summary.Cancelled)
	assert.Equal(t, 3, s.Len(), "records are never deleted")
}

func TestCustomStatusAndSentinel(t *testing.T) {
	r := newReconciler(t,
		reconciler.WithStatusField("status"),
		reconciler.WithCancelSentinel("Afturkallað"),
	)
	s := store.New()
	ctx := context.Background()

	_, err := r.Reconcile(ctx, s, snapshot(day1, listing("A", "status", "open", "auctionType", "Uppboð")), day1)
	require.NoError(t, err)
	_, err = r.Reconcile(ctx, s, nil, day2)
	require.NoError(t, err)

	a := get(t, s, "A")
	assert.Equal(t, "Afturkallað", a["status"])
	assert.Equal(t, "Uppboð", a["auctionType"])
}

func TestOrdering(t *testing.T) {
	snap := snapshot(day1,
		listing("b", "auctionDate", "2024-05-01"),
		listing("a", "auctionDate", "2024-05-01"),
		listing("c", "auctionDate", "2024-07-01"),
		listing("z", "auctionDate", "soon"),
		listing("y", "auctionDate", "later"),
		listing("d", "auctionDate", "2023-12-31"),
	)

	desc := store.New()
	_, err := newReconciler(t).Reconcile(context.Background(), desc, snap, day1)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b", "d", "y", "z"}, desc.Identities())

	asc := store.New()
	_, err = newReconciler(t, reconciler.WithSortDirection(reconciler.Ascending)).
		Reconcile(context.Background(), asc, snap, day1)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "a", "b", "c", "y", "z"}, asc.Identities())
}

func TestColumnsAreUnion(t *testing.T) {
	r := newReconciler(t)
	s := store.New()
	ctx := context.Background()

	_, err := r.Reconcile(ctx, s, snapshot(day1, listing("A", "office", "x", "zzz", "1")), day1)
	require.NoError(t, err)
	_, err = r.Reconcile(ctx, s, snapshot(day2, listing("B", "aaa", "2")), day2)
	require.NoError(t, err)

	assert.Equal(t, []string{"identity", "auctionType", "lotId", "office", "last_fetched", "aaa", "zzz"}, s.Columns())
}

func TestInvalidSnapshot(t *testing.T) {
	r := newReconciler(t)
	s := store.New()

	_, err := r.Reconcile(context.Background(), s, []listings.Record{{"lotName": "x"}}, day1)
	assert.True(t, errors.IsMissingIdentity(err))

	dup := snapshot(day1, listing("A"), listing("A"))
	_, err = r.Reconcile(context.Background(), s, dup, day1)
	assert.ErrorIs(t, err, errors.ErrDuplicateIdentity)
	assert.Equal(t, 0, s.Len(), "store untouched on invalid input")
}

func TestOptions(t *testing.T) {
	_, err := reconciler.New(reconciler.WithSortDirection("sideways"))
	assert.True(t, errors.IsValidationError(err))

	_, err = reconciler.New(reconciler.WithCancelSentinel(" "))
	assert.Error(t, err)

	_, err = reconciler.New(reconciler.WithStatusField(listings.FieldIdentity))
	assert.Error(t, err)

	_, err = reconciler.New(reconciler.WithLiveFields(listings.FieldIdentity))
	assert.Error(t, err)

	r := newReconciler(t, reconciler.WithLiveFields("office"))
	assert.Equal(t, []string{"office", listings.FieldLastFetched}, r.LiveFields())

	d, err := reconciler.ParseDirection("ASC")
	require.NoError(t, err)
	assert.Equal(t, reconciler.Ascending, d)
}
