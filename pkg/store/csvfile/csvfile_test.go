package csvfile_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/uppbod/pkg/errors"
	"github.com/agentstation/uppbod/pkg/listings"
	"github.com/agentstation/uppbod/pkg/store"
	"github.com/agentstation/uppbod/pkg/store/csvfile"
)

func TestLoadMissingFile(t *testing.T) {
	b := csvfile.New(filepath.Join(t.TempDir(), "auctions.csv"))
	s, err := b.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "auctions.csv")
	b := csvfile.New(path, csvfile.WithBOM(true))
	ctx := context.Background()

	s := store.New()
	require.NoError(t, s.Put(listings.Record{
		listings.FieldIdentity:    "L-1",
		listings.FieldLotName:     "Hús, \"gamalt\"\nmeð kjallara",
		listings.FieldLastFetched: "2024-05-01T12:00:00Z",
		"extra":                   "x",
	}))
	require.NoError(t, s.Put(listings.Record{
		listings.FieldIdentity: "L-2",
		listings.FieldOffice:   "Selfoss",
	}))
	require.NoError(t, b.Save(ctx, s))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, len(raw) > 3 && string(raw[:3]) == "\ufeff")

	loaded, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"L-1", "L-2"}, loaded.Identities())
	assert.Equal(t, s.Columns(), loaded.Columns())

	r, ok := loaded.Get("L-1")
	require.True(t, ok)
	assert.Equal(t, "Hús, \"gamalt\"\nmeð kjallara", r[listings.FieldLotName])

	r2, _ := loaded.Get("L-2")
	assert.Equal(t, "", r2["extra"], "missing cells load as empty strings")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	noID := filepath.Join(dir, "noid.csv")
	require.NoError(t, os.WriteFile(noID, []byte("lotName,office\nx,y\n"), 0o644))
	_, err := csvfile.New(noID).Load(ctx)
	var pe *errors.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, pe.Line)

	ragged := filepath.Join(dir, "ragged.csv")
	require.NoError(t, os.WriteFile(ragged, []byte("identity,lotName\nA,x\nB\n"), 0o644))
	_, err = csvfile.New(ragged).Load(ctx)
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 3, pe.Line)
}

func TestLoadSkipsBadRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auctions.csv")
	data := "\ufeffidentity,lotName\nA,first\n,orphan\nA,second\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	s, err := csvfile.New(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, s.Identities())
	r, _ := s.Get("A")
	assert.Equal(t, "first", r["lotName"])
}

func TestLock(t *testing.T) {
	b := csvfile.New(filepath.Join(t.TempDir(), "auctions.csv"))
	unlock, err := b.Lock(context.Background())
	require.NoError(t, err)
	require.NoError(t, unlock())
}

func tempFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var out []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			out = append(out, e.Name())
		}
	}
	return out
}

func TestSaveFailureKeepsPreviousContents(t *testing.T) {
	ctx := context.Background()
	updated := store.New()
	require.NoError(t, updated.Put(listings.Record{listings.FieldIdentity: "L-2"}))

	t.Run("target is a directory", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "auctions.csv")
		require.NoError(t, os.MkdirAll(filepath.Join(path, "keep"), 0o755))

		err := csvfile.New(path).Save(ctx, updated)
		var ioErr *errors.IOError
		require.ErrorAs(t, err, &ioErr)
		assert.Equal(t, "rename", ioErr.Operation)

		assert.DirExists(t, filepath.Join(path, "keep"))
		assert.Empty(t, tempFiles(t, dir))
	})

	t.Run("read-only directory", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("permission bits do not bind root")
		}
		dir := filepath.Join(t.TempDir(), "store")
		path := filepath.Join(dir, "auctions.csv")
		b := csvfile.New(path)

		previous := store.New()
		require.NoError(t, previous.Put(listings.Record{listings.FieldIdentity: "L-1", listings.FieldLotName: "Hús"}))
		require.NoError(t, b.Save(ctx, previous))
		before, err := os.ReadFile(path)
		require.NoError(t, err)

		require.NoError(t, os.Chmod(dir, 0o555))
		t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

		require.Error(t, b.Save(ctx, updated))

		after, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, before, after)
		assert.Empty(t, tempFiles(t, dir))
	})
}
