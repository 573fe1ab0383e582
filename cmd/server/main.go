// Package main implements the zero server: an HTTP API that stores things
// and mutates them in the background.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := buildRoot().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GlobalFlags holds the persistent flags shared by every command.
type GlobalFlags struct {
	ConfigPath string
}

// TokenFlags holds flags for the token command.
type TokenFlags struct {
	User   string
	Scopes []string
}

// buildRoot creates the root command. Running it without a subcommand
// starts the server.
func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	tokenFlags := &TokenFlags{}

	root := createRootCommand(globalFlags)
	root.AddCommand(
		createServeCommand(globalFlags),
		createMigrateCommand(globalFlags),
		createTokenCommand(globalFlags, tokenFlags),
	)
	return root
}

func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "zero",
		Short: "Thing storage and mutation service",
		Long: `Zero stores things and mutates them asynchronously.

Configuration is read from ZERO_* environment variables and an optional
config.yaml in the working directory, or the file given with --config.

Examples:
  zero serve
  zero migrate up
  zero token --user=alice --scope=read:thing --scope=write:thing`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags)
		},
	}

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to YAML config file (optional)")

	return root
}

func createServeCommand(globalFlags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server and task runner",
		Long: `Start the HTTP API and the background workers that run mutations.
Pending migrations are applied first when database.auto_migrate is set.

Examples:
  zero serve
  zero serve --config=/etc/zero/config.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), globalFlags)
		},
	}
}

func createMigrateCommand(globalFlags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down|reset|status|version]",
		Short: "Manage the database schema",
		Long: `Run a schema migration command against the configured database.

Examples:
  zero migrate up        # apply all pending migrations
  zero migrate down      # roll back the latest migration
  zero migrate status    # list applied and pending migrations`,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: migrationCommands(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), globalFlags, args[0])
		},
	}
}

func createTokenCommand(globalFlags *GlobalFlags, flags *TokenFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token",
		Long: `Issue a signed access token using the configured JWT secret.
The token is printed to stdout.

Examples:
  zero token --user=alice --scope=read:thing
  zero token --user=ci --scope=read:thing --scope=write:thing`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(cmd, globalFlags, flags)
		},
	}

	cmd.Flags().StringVar(&flags.User, "user", "", "user the token is issued to")
	cmd.Flags().StringSliceVar(&flags.Scopes, "scope", nil, "scope granted by the token (repeatable)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
