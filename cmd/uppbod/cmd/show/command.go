// Package show provides the show command.
package show

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/uppbod/cmd/application"
	"github.com/agentstation/uppbod/internal/cmd/output"
	"github.com/agentstation/uppbod/internal/cmd/table"
	"github.com/agentstation/uppbod/pkg/errors"
)

// NewCommand creates the show command.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "show <identity>",
		GroupID: "core",
		Short:   "Show every field of one stored record",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}
			s, err := client.Records(cmd.Context())
			if err != nil {
				return err
			}

			rec, ok := s.Get(args[0])
			if !ok {
				return errors.NewNotFoundError("record", args[0])
			}

			format := output.DetectFormat(app.OutputFormat())
			var data any = rec
			if format == output.FormatTable || format == output.FormatWide {
				data = table.RecordToTableData(rec, s.Columns())
			}
			return output.NewFormatter(format).Format(cmd.OutOrStdout(), data)
		},
	}
}
