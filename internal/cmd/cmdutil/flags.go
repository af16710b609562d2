// Package cmdutil provides shared flags for uppbod commands.
package cmdutil

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/uppbod/pkg/listings"
)

// ListFlags holds flags for commands that print many records.
type ListFlags struct {
	Limit  int
	Search string
	Status string
	Wide   bool
}

// AddListFlags adds record listing flags to a command.
func AddListFlags(cmd *cobra.Command) *ListFlags {
	flags := &ListFlags{}

	cmd.Flags().IntVarP(&flags.Limit, "limit", "l", 0,
		"Limit number of results")
	cmd.Flags().StringVar(&flags.Search, "search", "",
		"Case-insensitive search in identity and lot name")
	cmd.Flags().StringVar(&flags.Status, "status", "",
		"Only records with this status (e.g. cancelled)")
	cmd.Flags().BoolVar(&flags.Wide, "wide", false,
		"Show every stored column")

	return flags
}

// Apply filters and truncates records. statusField names the status column.
func (f *ListFlags) Apply(records []listings.Record, statusField string) []listings.Record {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]listings.Record, 0, len(records))
	for _, rec := range records {
		if f.Status != "" && rec[statusField] != f.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(rec.Identity()), search) &&
			!strings.Contains(strings.ToLower(rec[listings.FieldLotName]), search) {
			continue
		}
		out = append(out, rec)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}
