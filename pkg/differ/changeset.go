// Package differ detects field-level changes between store records.
package differ

import (
	"fmt"
	"io"
	"strings"

	"github.com/agentstation/uppbod/pkg/listings"
)

// ChangeType represents the type of change.
type ChangeType string

const (
	// ChangeTypeAdd indicates a field or record was added.
	ChangeTypeAdd ChangeType = "add"
	// ChangeTypeUpdate indicates a value changed.
	ChangeTypeUpdate ChangeType = "update"
	// ChangeTypeCancel indicates a record was marked cancelled.
	ChangeTypeCancel ChangeType = "cancel"
)

// FieldChange represents a change to a single column.
type FieldChange struct {
	Path     string     `json:"path" yaml:"path"`
	OldValue string     `json:"old_value" yaml:"old_value"`
	NewValue string     `json:"new_value" yaml:"new_value"`
	Type     ChangeType `json:"type" yaml:"type"`
}

// RecordUpdate is the set of changes applied to one stored record.
type RecordUpdate struct {
	Identity string          `json:"identity" yaml:"identity"`
	Before   listings.Record `json:"-" yaml:"-"`
	After    listings.Record `json:"-" yaml:"-"`
	Changes  []FieldChange   `json:"changes" yaml:"changes"`
}

// Changeset represents everything one reconciliation did to the store.
type Changeset struct {
	Added     []listings.Record `json:"added" yaml:"added"`
	Updated   []RecordUpdate    `json:"updated" yaml:"updated"`
	Cancelled []RecordUpdate    `json:"cancelled" yaml:"cancelled"`

	// Unchanged lists identities present in the snapshot whose values did
	// not move apart from last_fetched.
	Unchanged []string `json:"unchanged" yaml:"unchanged"`

	Summary ChangesetSummary `json:"summary" yaml:"summary"`
}

// ChangesetSummary provides summary statistics for a changeset.
type ChangesetSummary struct {
	Added        int `json:"added" yaml:"added"`
	Updated      int `json:"updated" yaml:"updated"`
	Cancelled    int `json:"cancelled" yaml:"cancelled"`
	Unchanged    int `json:"unchanged" yaml:"unchanged"`
	TotalChanges int `json:"total_changes" yaml:"total_changes"`
}

// NewChangeset returns an empty changeset.
func NewChangeset() *Changeset {
	return &Changeset{
		Added:     []listings.Record{},
		Updated:   []RecordUpdate{},
		Cancelled: []RecordUpdate{},
		Unchanged: []string{},
	}
}

// Summarize recomputes Summary from the slices.
func (c *Changeset) Summarize() {
	c.Summary = ChangesetSummary{
		Added:        len(c.Added),
		Updated:      len(c.Updated),
		Cancelled:    len(c.Cancelled),
		Unchanged:    len(c.Unchanged),
		TotalChanges: len(c.Added) + len(c.Updated) + len(c.Cancelled),
	}
}

// HasChanges returns true if the changeset contains any changes.
func (c *Changeset) HasChanges() bool {
	return c != nil && c.Summary.TotalChanges > 0
}

// IsEmpty returns true if the changeset contains no changes.
func (c *Changeset) IsEmpty() bool {
	return !c.HasChanges()
}

// String returns a one-line summary.
func (c *Changeset) String() string {
	if c.IsEmpty() {
		return "No changes detected"
	}

	var parts []string
	if c.Summary.Added > 0 {
		parts = append(parts, fmt.Sprintf("%d added", c.Summary.Added))
	}
	if c.Summary.Updated > 0 {
		parts = append(parts, fmt.Sprintf("%d updated", c.Summary.Updated))
	}
	if c.Summary.Cancelled > 0 {
		parts = append(parts, fmt.Sprintf("%d cancelled", c.Summary.Cancelled))
	}
	return fmt.Sprintf("Changeset: %s (Total: %d changes)", strings.Join(parts, ", "), c.Summary.TotalChanges)
}

// Print writes a detailed view of the changeset to w.
func (c *Changeset) Print(w io.Writer) {
	fmt.Fprintln(w, c.String())
	if c.IsEmpty() {
		return
	}
	fmt.Fprintln(w, strings.Repeat("─", 80))

	if len(c.Added) > 0 {
		fmt.Fprintf(w, "\n➕ Added (%d):\n", len(c.Added))
		for _, r := range c.Added {
			fmt.Fprintf(w, "  • %s", r.Identity())
			if name := r[listings.FieldLotName]; name != "" && name != r.Identity() {
				fmt.Fprintf(w, " (%s)", name)
			}
			fmt.Fprintln(w)
		}
	}

	printUpdates(w, "🔄 Updated", c.Updated)
	printUpdates(w, "⚠️  Cancelled", c.Cancelled)
}

func printUpdates(w io.Writer, title string, updates []RecordUpdate) {
	if len(updates) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s (%d):\n", title, len(updates))
	for _, u := range updates {
		fmt.Fprintf(w, "  • %s:\n", u.Identity)
		for _, ch := range u.Changes {
			fmt.Fprintf(w, "    - %s: %s → %s\n", ch.Path, ch.OldValue, ch.NewValue)
		}
	}
}
