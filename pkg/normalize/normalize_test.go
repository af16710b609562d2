package normalize_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/uppbod/pkg/errors"
	"github.com/agentstation/uppbod/pkg/listings"
	"github.com/agentstation/uppbod/pkg/logging"
	"github.com/agentstation/uppbod/pkg/normalize"
)

func TestDate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "feed format", raw: "5/1/2024, 1:00:00 PM", want: "2024-05-01"},
		{name: "feed format two digit month", raw: "12/24/2023, 9:30:00 AM", want: "2023-12-24"},
		{name: "surrounding space", raw: "  5/1/2024, 1:00:00 PM ", want: "2024-05-01"},
		{name: "already canonical", raw: "2024-05-01", want: "2024-05-01"},
		{name: "garbage", raw: "next tuesday", want: "next tuesday", wantErr: true},
		{name: "impossible date", raw: "2024-02-30", want: "2024-02-30", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalize.Date(tt.raw)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.True(t, errors.IsMalformedDate(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDateIdempotent(t *testing.T) {
	once, err := normalize.Date("7/4/2024, 10:00:00 AM")
	require.NoError(t, err)
	twice, err := normalize.Date(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestPlainText(t *testing.T) {
	got, err := normalize.PlainText(`<p>Uppboð  á <b>bifreið</b></p><p>Staður:<br>Reykjavík &amp; nágrenni</p>`)
	require.NoError(t, err)
	assert.Equal(t, "Uppboð á bifreið\nStaður:\nReykjavík & nágrenni", got)

	plain, err := normalize.PlainText("  no markup ")
	require.NoError(t, err)
	assert.Equal(t, "no markup", plain)
}

func TestNormalizer(t *testing.T) {
	n, err := normalize.New(normalize.WithPlainTextFields(listings.FieldPublishText))
	require.NoError(t, err)

	in := listings.Listing{
		listings.FieldLotID:       "L-1",
		listings.FieldAuctionDate: "5/1/2024, 1:00:00 PM",
		listings.FieldPublishText: "<p>Hello</p>",
	}
	out, errs := n.Listing(in)
	assert.Empty(t, errs)
	assert.Equal(t, "2024-05-01", out[listings.FieldAuctionDate])
	assert.Equal(t, "Hello", out[listings.FieldPublishText])
	assert.Equal(t, "5/1/2024, 1:00:00 PM", in[listings.FieldAuctionDate], "input is not mutated")
}

func TestNormalizerMalformedDate(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	n, err := normalize.New()
	require.NoError(t, err)

	out, errs := n.Snapshot(ctx, []listings.Listing{
		{listings.FieldLotID: "L-9", listings.FieldAuctionDate: "soon"},
		{listings.FieldLotID: "L-10"},
	})
	require.Len(t, out, 2)
	require.Len(t, errs, 1)
	assert.Equal(t, "soon", out[0][listings.FieldAuctionDate])

	var mde *errors.MalformedDateError
	require.ErrorAs(t, errs[0], &mde)
	assert.Equal(t, "L-9", mde.Identity)
	assert.Equal(t, listings.FieldAuctionDate, mde.Field)
	tl.AssertContains(t, `"identity":"L-9"`)
}

func TestWithPlainTextFieldsRejectsEngineFields(t *testing.T) {
	_, err := normalize.New(normalize.WithPlainTextFields(listings.FieldIdentity))
	assert.True(t, errors.IsValidationError(err))
}
