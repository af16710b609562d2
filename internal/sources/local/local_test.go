package local_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/uppbod/internal/sources/local"
	"github.com/agentstation/uppbod/pkg/errors"
	"github.com/agentstation/uppbod/pkg/sources"
)

func TestFetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"data":{"getSyslumennAuctions":[{"lotId":"A","lotName":null}]}}`), 0o644))

	src := local.New(path)
	assert.Equal(t, sources.LocalID, src.ID())

	got, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0]["lotId"])
}

func TestFetchErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := local.New(filepath.Join(dir, "missing.json")).Fetch(context.Background())
	assert.True(t, errors.IsNotFound(err))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"data":`), 0o644))
	_, err = local.New(bad).Fetch(context.Background())
	var pe *errors.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, bad, pe.File)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = local.New(bad).Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
