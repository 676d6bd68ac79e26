// Package main is the entry point for the statusboard CLI.
//
// One binary runs both halves of the system: serve probes servers and
// publishes their status, watch displays that status and keeps it fresh.
//
// Usage:
//
//	statusboard serve -c config.yaml    # Start the monitor
//	statusboard watch -c config.yaml    # Show the dashboard in the terminal
//	statusboard validate -c config.yaml # Validate configuration
//	statusboard version                 # Show version info
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It loads the env file for every subcommand and otherwise just shows help.
var rootCmd = &cobra.Command{
	Use:   "statusboard",
	Short: "A server status dashboard that survives outages",
	Long: `statusboard probes servers and shows their status on a dashboard
that keeps itself fresh through a resilient refresh loop.

Quick start:
  1. Create a config file (statusboard.yaml)
  2. Run: statusboard serve -c statusboard.yaml
  3. In another terminal: statusboard watch -c statusboard.yaml
     or open http://localhost:8080 in your browser

Example config:
  watch:
    strategy: push
  serve:
    port: 8080
    probe_interval: 10s
    servers:
      - name: Google DNS
        host: 8.8.8.8`,
	PersistentPreRunE: loadEnvFile,
	SilenceUsage:      true,
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this statusboard binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "statusboard %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().String("env-file", "", "load environment variables from a dotenv file before reading config")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
}

// loadEnvFile loads --env-file so ${VAR} references in the config resolve.
// Variables already set in the environment win.
func loadEnvFile(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("env-file")
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// newLogger creates a JSON logger on stderr for CLI use.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	}))
}
