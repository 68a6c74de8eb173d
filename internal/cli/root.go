package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// Execute runs the causalite CLI and returns an error if any command fails.
// This is the main entry point for the CLI application.
//
// The root command registers all subcommands (search, simulate, render, runs,
// serve, cache, completion), loads the optional TOML configuration file, and
// configures logging based on the --verbose flag.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level
//
// The logger is attached to the context and accessible to all commands via
// loggerFromContext.
//
// Example:
//
//	func main() {
//	    if err := cli.Execute(); err != nil {
//	        os.Exit(1)
//	    }
//	}
func Execute() error {
	var (
		verbose    bool
		configPath string
	)

	c := New(os.Stderr, charmlog.InfoLevel)
	root := c.RootCommand()

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level := charmlog.InfoLevel
		if verbose {
			level = charmlog.DebugLevel
		}
		c.SetLogLevel(level)

		cfg, err := LoadConfig(configPath)
		if err != nil {
			return err
		}
		c.Config = cfg

		ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
		cmd.SetContext(ctx)
		return nil
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to causalite.toml (default ~/.config/causalite/causalite.toml)")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return root.ExecuteContext(ctx)
}
