package reconciler

import (
	"cmp"

	"github.com/agentstation/uppbod/pkg/listings"
	"github.com/agentstation/uppbod/pkg/normalize"
)

// compareRecords orders by auction date in the configured direction.
// Records whose date is not canonical follow all dated records, by raw value.
// Ties break on identity, always ascending.
func (r *Reconciler) compareRecords(a, b listings.Record) int {
	ra, rb := a[r.dateField], b[r.dateField]
	da, okA := normalize.ParseCanonical(ra)
	db, okB := normalize.ParseCanonical(rb)

	var c int
	switch {
	case okA && okB:
		c = da.Compare(db)
		if r.direction == Descending {
			c = -c
		}
	case okA:
		c = -1
	case okB:
		c = 1
	default:
		c = cmp.Compare(ra, rb)
	}
	if c != 0 {
		return c
	}
	return cmp.Compare(a.Identity(), b.Identity())
}
