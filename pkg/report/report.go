// Package report renders a sync run as a markdown document.
package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	md "github.com/nao1215/markdown"

	"github.com/agentstation/uppbod/pkg/constants"
	"github.com/agentstation/uppbod/pkg/differ"
	"github.com/agentstation/uppbod/pkg/errors"
	"github.com/agentstation/uppbod/pkg/filter"
	"github.com/agentstation/uppbod/pkg/listings"
)

// Run is the input of a report.
type Run struct {
	RunID     string
	Source    string
	Store     string
	FetchedAt time.Time
	Duration  time.Duration
	DryRun    bool

	// Skipped is set when the empty snapshot policy left the store alone.
	Skipped bool

	Fetched   int
	Kept      int
	StoreSize int

	Excluded  []filter.Excluded
	Changeset *differ.Changeset
	Errors    []error
}

// Write renders run to w.
func Write(w io.Writer, run Run) error {
	doc := md.NewMarkdown(w)

	doc.H1("Sync run " + run.RunID).LF()
	doc.PlainTextf("Source %s, store %s, fetched at %s.",
		md.Code(run.Source), md.Code(run.Store),
		run.FetchedAt.UTC().Format(constants.TimeFormatFetched)).LF()
	switch {
	case run.Skipped:
		doc.LF().PlainText(md.Bold("Empty snapshot: the store was not modified.")).LF()
	case run.DryRun:
		doc.LF().PlainText(md.Bold("Dry run: nothing was saved.")).LF()
	}

	cs := run.Changeset
	if cs == nil {
		cs = differ.NewChangeset()
	}
	cs.Summarize()

	doc.H2("Summary").LF()
	doc.Table(md.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Fetched", strconv.Itoa(run.Fetched)},
			{"Excluded by filter", strconv.Itoa(len(run.Excluded))},
			{"Reconciled", strconv.Itoa(run.Kept)},
			{"Added", strconv.Itoa(cs.Summary.Added)},
			{"Updated", strconv.Itoa(cs.Summary.Updated)},
			{"Cancelled", strconv.Itoa(cs.Summary.Cancelled)},
			{"Unchanged", strconv.Itoa(cs.Summary.Unchanged)},
			{"Record errors", strconv.Itoa(len(run.Errors))},
			{"Store size", strconv.Itoa(run.StoreSize)},
			{"Duration", run.Duration.Round(time.Millisecond).String()},
		},
	}).LF()

	if len(cs.Added) > 0 {
		items := make([]string, 0, len(cs.Added))
		for _, rec := range cs.Added {
			items = append(items, fmt.Sprintf("%s: %s (%s)",
				md.Code(rec.Identity()), rec[listings.FieldLotName], rec[listings.FieldAuctionDate]))
		}
		doc.H2("Added").LF().BulletList(items...).LF()
	}

	if len(cs.Updated) > 0 {
		doc.H2("Updated").LF()
		rows := make([][]string, 0, len(cs.Updated))
		for _, u := range cs.Updated {
			for _, c := range u.Changes {
				rows = append(rows, []string{u.Identity, c.Path, c.OldValue, c.NewValue})
			}
		}
		doc.Table(md.TableSet{
			Header: []string{"Identity", "Field", "Before", "After"},
			Rows:   rows,
		}).LF()
	}

	if len(cs.Cancelled) > 0 {
		items := make([]string, 0, len(cs.Cancelled))
		for _, u := range cs.Cancelled {
			items = append(items, md.Code(u.Identity))
		}
		doc.H2("Cancelled").LF().BulletList(items...).LF()
	}

	if len(run.Excluded) > 0 {
		items := make([]string, 0, len(run.Excluded))
		for _, ex := range run.Excluded {
			items = append(items, fmt.Sprintf("%s (%s)", ex.Listing[listings.FieldLotName], ex.Rule.String()))
		}
		doc.H2("Excluded").LF().BulletList(items...).LF()
	}

	if len(run.Errors) > 0 {
		items := make([]string, 0, len(run.Errors))
		for _, err := range run.Errors {
			items = append(items, err.Error())
		}
		doc.H2("Errors").LF().BulletList(items...).LF()
	}

	return doc.Build()
}

// WriteFile renders run into path, creating parent directories.
func WriteFile(path string, run Run) error {
	var buf bytes.Buffer
	if err := Write(&buf, run); err != nil {
		return errors.WrapResource("render", "report", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return errors.WrapIO("mkdir", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, buf.Bytes(), constants.FilePermissions); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}
