package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/uppbod/pkg/listings"
	"github.com/agentstation/uppbod/pkg/store"
	"github.com/agentstation/uppbod/pkg/store/sqlite"
)

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "auctions.db")

	b, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	defer func() { _ = b.Close() }()
	assert.Equal(t, "sqlite:"+path, b.Location())

	empty, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())

	s := store.New()
	require.NoError(t, s.Put(listings.Record{listings.FieldIdentity: "B", listings.FieldLotName: "Bíll"}))
	require.NoError(t, s.Put(listings.Record{listings.FieldIdentity: "A", listings.FieldOffice: "Selfoss"}))
	s.AddColumns("notes")
	require.NoError(t, b.Save(ctx, s))

	loaded, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, loaded.Identities())
	assert.Equal(t, s.Columns(), loaded.Columns())

	r, ok := loaded.Get("B")
	require.True(t, ok)
	assert.Equal(t, "Bíll", r[listings.FieldLotName])

	// A second save replaces rather than appends.
	require.NoError(t, s.Set("A", listings.FieldAuctionType, "cancelled"))
	require.NoError(t, b.Save(ctx, s))
	loaded, err = b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())
	a, _ := loaded.Get("A")
	assert.Equal(t, "cancelled", a[listings.FieldAuctionType])
}

func TestReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "auctions.db")

	b, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	s := store.New()
	require.NoError(t, s.Put(listings.Record{listings.FieldIdentity: "X"}))
	require.NoError(t, b.Save(ctx, s))
	require.NoError(t, b.Close())

	b, err = sqlite.Open(ctx, path)
	require.NoError(t, err)
	defer func() { _ = b.Close() }()
	loaded, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, loaded.Identities())

	unlock, err := b.Lock(ctx)
	require.NoError(t, err)
	require.NoError(t, unlock())
}
