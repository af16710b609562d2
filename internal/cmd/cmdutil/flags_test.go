package cmdutil

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/uppbod/pkg/listings"
)

func TestListFlagsApply(t *testing.T) {
	at := time.Unix(0, 0)
	recs := []listings.Record{
		listings.NewRecord("A", listings.Listing{"auctionType": "cancelled", "lotName": "Toyota Yaris"}, at),
		listings.NewRecord("B", listings.Listing{"auctionType": "Uppboð", "lotName": "Sumarhús"}, at),
		listings.NewRecord("C", listings.Listing{"auctionType": "cancelled", "lotName": "Toyota Corolla"}, at),
	}

	cmd := &cobra.Command{Use: "list"}
	flags := AddListFlags(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{"--status", "cancelled", "--search", "toyota", "--limit", "1"}))

	got := flags.Apply(recs, "auctionType")
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Identity())

	assert.Len(t, (&ListFlags{Search: "sumar"}).Apply(recs, "auctionType"), 1)
	assert.Len(t, (&ListFlags{}).Apply(recs, "auctionType"), 3)
}
