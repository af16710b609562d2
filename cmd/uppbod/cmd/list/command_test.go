package list_test

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/uppbod"
	"github.com/agentstation/uppbod/cmd/uppbod/cmd/list"
	"github.com/agentstation/uppbod/internal/cmd/application"
	"github.com/agentstation/uppbod/pkg/listings"
	"github.com/agentstation/uppbod/pkg/logging"
	"github.com/agentstation/uppbod/pkg/store"
	"github.com/agentstation/uppbod/pkg/store/csvfile"
)

func seed(t *testing.T) *csvfile.Backend {
	t.Helper()
	logging.DisableLoggingForTest(t)

	b := csvfile.New(filepath.Join(t.TempDir(), "auctions.csv"))
	s := store.New()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Put(listings.NewRecord("A", listings.Listing{"auctionType": "cancelled", "lotName": "Toyota"}, at)))
	require.NoError(t, s.Put(listings.NewRecord("B", listings.Listing{"auctionType": "Uppboð", "lotName": "Hús"}, at)))
	require.NoError(t, b.Save(context.Background(), s))
	return b
}

func mockFor(t *testing.T, b *csvfile.Backend, format string) *application.Mock {
	c, err := uppbod.New(uppbod.WithBackend(b))
	require.NoError(t, err)
	return &application.Mock{
		OutputFormatFunc: func() string { return format },
		ClientFunc:       func(...uppbod.Option) (*uppbod.Client, error) { return c, nil },
	}
}

func TestListJSON(t *testing.T) {
	cmd := list.NewCommand(mockFor(t, seed(t), "json"))
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"--status", "cancelled"})
	require.NoError(t, cmd.Execute())

	var got []map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0]["identity"])
	assert.Contains(t, errOut.String(), "Found 1 of 2 records")
}

func TestListTable(t *testing.T) {
	cmd := list.NewCommand(mockFor(t, seed(t), "table"))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--search", "hús"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "Hús")
	assert.NotContains(t, out.String(), "Toyota")
}
