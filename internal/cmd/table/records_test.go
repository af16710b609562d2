package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/uppbod/pkg/listings"
)

func TestHeader(t *testing.T) {
	tests := map[string]string{
		"identity":            "Identity",
		"auctionTakesPlaceAt": "Auction Takes Place At",
		"last_fetched":        "Last Fetched",
		"lotId":               "Lot Id",
	}
	for in, want := range tests {
		assert.Equal(t, want, Header(in), in)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 0))
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "Reykj…", Truncate("Reykjavík", 6))
}

func TestRecordsToTableData(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	recs := []listings.Record{
		listings.NewRecord("L-1", listings.Listing{listings.FieldLotName: "Hús\n  við sjó"}, at),
		listings.NewRecord("L-2", listings.Listing{}, at),
	}

	data := RecordsToTableData(recs, []string{"identity", "lotName"}, 0)
	assert.Equal(t, []string{"Identity", "Lot Name"}, data.Headers)
	assert.Equal(t, [][]string{{"L-1", "Hús við sjó"}, {"L-2", ""}}, data.Rows)
}

func TestRecordToTableData(t *testing.T) {
	rec := listings.NewRecord("L-1", listings.Listing{listings.FieldOffice: "Selfoss"}, time.Unix(0, 0))
	data := RecordToTableData(rec, []string{"identity", "lotName", "office"})
	assert.Equal(t, [][]string{{"Identity", "L-1"}, {"Office", "Selfoss"}}, data.Rows, "absent fields are skipped")
}
