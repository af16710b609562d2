package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/uppbod/pkg/logging"
)

// Execute runs the uppbod CLI application with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "uppbod",
		Short:   "Auction listing snapshot reconciler",
		Version: a.version,
		Long: `uppbod keeps a deduplicated record store of auction listings from the
island.is auction feed. Each sync fetches the current listings, refreshes the
live fields of known lots, inserts new ones and marks lots that vanished from
the feed as cancelled. Records are never deleted.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "Core Commands:",
	})

	rootCmd.PersistentFlags().StringVar(&a.config.ConfigFile, "config", a.config.ConfigFile, "config file (default is ./.uppbod.yaml or $HOME/.uppbod.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&a.config.Verbose, "verbose", "v", a.config.Verbose, "verbose output (shortcut for --log-level=debug)")
	rootCmd.PersistentFlags().BoolVarP(&a.config.Quiet, "quiet", "q", a.config.Quiet, "minimal output (shortcut for --log-level=warn)")
	rootCmd.PersistentFlags().BoolVar(&a.config.NoColor, "no-color", a.config.NoColor, "disable colored output")
	rootCmd.PersistentFlags().StringVarP(&a.config.Format, "format", "o", a.config.Format, "output format: table, json, yaml, wide")
	rootCmd.PersistentFlags().StringVar(&a.config.LogLevel, "log-level", a.config.LogLevel, "log level: trace, debug, info, warn, error (overrides -v/-q)")
	rootCmd.PersistentFlags().StringVar(&a.config.Store, "store", a.config.Store, "record store: file.csv, sqlite:path or postgres:// URL")

	rootCmd.SetVersionTemplate("uppbod {{.Version}}\n")

	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	// read flags first, reloading the config file rewrites their targets
	verbose := mustGetBool(cmd, "verbose")
	quiet := mustGetBool(cmd, "quiet")
	noColor := mustGetBool(cmd, "no-color")
	format := mustGetString(cmd, "format")
	logLevel := mustGetString(cmd, "log-level")
	store := mustGetString(cmd, "store")

	if configFile := mustGetString(cmd, "config"); configFile != "" && cmd.Flags().Changed("config") {
		loaded, err := LoadConfigFile(configFile)
		if err != nil {
			return err
		}
		*a.config = *loaded
	}
	if cmd.Flags().Changed("store") {
		a.config.Store = store
	}

	a.config.UpdateFromFlags(verbose, quiet, noColor, format, logLevel)

	logger := NewLogger(a.config)
	a.logger = &logger
	logging.SetDefault(logger)

	return nil
}

// ExitOnError is a helper that prints an error and exits with status 1.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
