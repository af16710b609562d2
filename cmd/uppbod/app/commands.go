package app

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/agentstation/uppbod/cmd/uppbod/cmd/list"
	"github.com/agentstation/uppbod/cmd/uppbod/cmd/show"
	"github.com/agentstation/uppbod/cmd/uppbod/cmd/sync"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(sync.NewCommand(a))
	rootCmd.AddCommand(list.NewCommand(a))
	rootCmd.AddCommand(show.NewCommand(a))
	rootCmd.AddCommand(a.newVersionCommand())
}

func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("uppbod %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
				cmd.Printf("  go:       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			}
		},
	}
}
