// Package sync provides the sync command.
package sync

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/uppbod"
	"github.com/agentstation/uppbod/cmd/application"
	"github.com/agentstation/uppbod/internal/cmd/output"
	"github.com/agentstation/uppbod/internal/sources/local"
	"github.com/agentstation/uppbod/pkg/differ"
	"github.com/agentstation/uppbod/pkg/filter"
	pkgsync "github.com/agentstation/uppbod/pkg/sync"
)

// Flags holds the sync command flags.
type Flags struct {
	DryRun        bool
	EmptySnapshot string
	Report        string
	Metrics       string
	Timeout       time.Duration
	FromFile      string
	Filters       []string
}

// NewCommand creates the sync command.
func NewCommand(app application.Application) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "sync",
		GroupID: "core",
		Short:   "Fetch the auction feed and reconcile it into the store",
		Long: `Sync fetches one snapshot of the auction feed and merges it into the
record store under an exclusive lock.

Known lots get their live fields refreshed, new lots are inserted and lots
missing from the snapshot are marked cancelled unless already in a terminal
state. An empty snapshot is skipped unless --empty-snapshot=cancel is given.`,
		Example: `  uppbod sync                                  # Sync the island.is feed into auctions.csv
  uppbod sync --dry-run                        # Show what would change
  uppbod sync --from-file snapshot.json        # Reconcile a saved response
  uppbod sync --store sqlite:auctions.db       # Use an SQLite store
  uppbod sync --filter lotType=Fasteign        # Exclude real estate lots`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, app, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "Reconcile and report without saving")
	cmd.Flags().StringVar(&flags.EmptySnapshot, "empty-snapshot", "", "Empty snapshot policy: skip or cancel")
	cmd.Flags().StringVar(&flags.Report, "report", "", "Write a markdown run report to this path")
	cmd.Flags().StringVar(&flags.Metrics, "metrics-file", "", "Write a Prometheus textfile to this path")
	cmd.Flags().DurationVar(&flags.Timeout, "timeout", 0, "Timeout for the whole run")
	cmd.Flags().StringVar(&flags.FromFile, "from-file", "", "Read the snapshot from a JSON file instead of the feed")
	cmd.Flags().StringSliceVar(&flags.Filters, "filter", nil, "Exclude listings where field=value1|value2 (repeatable)")

	return cmd
}

func run(cmd *cobra.Command, app application.Application, flags *Flags) error {
	var clientOpts []uppbod.Option
	if flags.FromFile != "" {
		clientOpts = append(clientOpts, uppbod.WithSource(local.New(flags.FromFile)))
	}
	for _, raw := range flags.Filters {
		rule, err := filter.ParseRule(raw)
		if err != nil {
			return err
		}
		clientOpts = append(clientOpts, uppbod.WithFilterRules(rule))
	}

	client, err := app.Client(clientOpts...)
	if err != nil {
		return err
	}
	if len(clientOpts) > 0 {
		defer func() { _ = client.Close() }()
	}

	opts := app.SyncOptions()
	f := cmd.Flags()
	if f.Changed("dry-run") {
		opts = append(opts, pkgsync.WithDryRun(flags.DryRun))
	}
	if f.Changed("empty-snapshot") {
		policy, err := pkgsync.ParseEmptySnapshotPolicy(flags.EmptySnapshot)
		if err != nil {
			return err
		}
		opts = append(opts, pkgsync.WithEmptySnapshotPolicy(policy))
	}
	if f.Changed("report") {
		opts = append(opts, pkgsync.WithReportPath(flags.Report))
	}
	if f.Changed("metrics-file") {
		opts = append(opts, pkgsync.WithMetricsPath(flags.Metrics))
	}
	if f.Changed("timeout") {
		opts = append(opts, pkgsync.WithTimeout(flags.Timeout))
	}

	result, err := client.Sync(cmd.Context(), opts...)
	if err != nil {
		return err
	}

	return printResult(cmd, app, result)
}

// Summary is the structured view of a run for json and yaml output.
type Summary struct {
	RunID     string                  `json:"run_id" yaml:"run_id"`
	FetchedAt time.Time               `json:"fetched_at" yaml:"fetched_at"`
	Source    string                  `json:"source" yaml:"source"`
	Store     string                  `json:"store" yaml:"store"`
	DryRun    bool                    `json:"dry_run" yaml:"dry_run"`
	Skipped   bool                    `json:"skipped" yaml:"skipped"`
	Fetched   int                     `json:"fetched" yaml:"fetched"`
	Excluded  int                     `json:"excluded" yaml:"excluded"`
	Kept      int                     `json:"kept" yaml:"kept"`
	StoreSize int                     `json:"store_size" yaml:"store_size"`
	Changes   differ.ChangesetSummary `json:"changes" yaml:"changes"`
	Updated   []differ.RecordUpdate   `json:"updated,omitempty" yaml:"updated,omitempty"`
	Cancelled []string                `json:"cancelled,omitempty" yaml:"cancelled,omitempty"`
	Errors    []string                `json:"errors,omitempty" yaml:"errors,omitempty"`
	Duration  string                  `json:"duration" yaml:"duration"`
}

// NewSummary builds a Summary from a run result.
func NewSummary(r *pkgsync.Result) Summary {
	s := Summary{
		RunID:     r.RunID,
		FetchedAt: r.FetchedAt,
		Source:    r.Source,
		Store:     r.Store,
		DryRun:    r.DryRun,
		Skipped:   r.Skipped,
		Fetched:   r.Fetched,
		Excluded:  len(r.Excluded),
		Kept:      r.Kept,
		StoreSize: r.StoreSize,
		Duration:  r.Duration.Round(time.Millisecond).String(),
	}
	if cs := r.Changeset; cs != nil {
		s.Changes = cs.Summary
		s.Updated = cs.Updated
		for _, u := range cs.Cancelled {
			s.Cancelled = append(s.Cancelled, u.Identity)
		}
	}
	for _, err := range r.Errors {
		s.Errors = append(s.Errors, err.Error())
	}
	return s
}

func printResult(cmd *cobra.Command, app application.Application, result *pkgsync.Result) error {
	w := cmd.OutOrStdout()

	switch format := output.DetectFormat(app.OutputFormat()); format {
	case output.FormatJSON, output.FormatYAML:
		return output.NewFormatter(format).Format(w, NewSummary(result))
	}

	fmt.Fprintln(w, result.Summary())
	if result.Changeset != nil && result.HasChanges() {
		result.Changeset.Print(w)
	}
	for _, err := range result.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}
	return nil
}
