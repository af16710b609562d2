// Package list provides the list command.
package list

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/uppbod/cmd/application"
	"github.com/agentstation/uppbod/internal/cmd/cmdutil"
	"github.com/agentstation/uppbod/internal/cmd/output"
	"github.com/agentstation/uppbod/internal/cmd/table"
)

// NewCommand creates the list command.
func NewCommand(app application.Application) *cobra.Command {
	var flags *cmdutil.ListFlags

	cmd := &cobra.Command{
		Use:     "list",
		GroupID: "core",
		Short:   "List stored auction records",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		Example: `  uppbod list                        # Records in store order
  uppbod list --status cancelled     # Only cancelled lots
  uppbod list --search toyota -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}
			s, err := client.Records(cmd.Context())
			if err != nil {
				return err
			}

			records := flags.Apply(s.Records(), app.StatusField())
			format := output.DetectFormat(app.OutputFormat())

			var data any = records
			switch format {
			case output.FormatJSON, output.FormatYAML:
			case output.FormatWide:
				data = table.RecordsToTableData(records, s.Columns(), 0)
			default:
				columns := table.DefaultColumns
				if flags.Wide {
					columns = s.Columns()
				}
				data = table.RecordsToTableData(records, columns, table.MaxCellWidth)
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Found %d of %d records\n", len(records), s.Len())
			return output.NewFormatter(format).Format(cmd.OutOrStdout(), data)
		},
	}

	flags = cmdutil.AddListFlags(cmd)
	return cmd
}
