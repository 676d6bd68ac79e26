package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/statusboard/config"
)

// validateCmd validates a config file without starting anything.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a statusboard configuration file without starting the
monitor or the dashboard.

This command parses the YAML, applies defaults, expands environment
variables, and validates all fields. It's useful for CI/CD pipelines or
pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  statusboard validate -c config.yaml
  statusboard validate --config /etc/statusboard/config.yaml --env-file .env`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// targets are built too so probe options are checked the way serve checks them
	if _, err := config.BuildTargets(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	icmp := 0
	for _, s := range cfg.Serve.Servers {
		if s.Probe == "icmp" {
			icmp++
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Status URL:     %s\n", cfg.StatusURL())
	fmt.Fprintf(out, "  Strategy:       %s\n", cfg.Watch.Strategy)
	fmt.Fprintf(out, "  Max attempts:   %d\n", cfg.Watch.MaxAttempts)
	fmt.Fprintf(out, "  Port:           %d\n", cfg.Serve.Port)
	fmt.Fprintf(out, "  Probe interval: %s\n", cfg.Serve.ProbeInterval.Duration())
	fmt.Fprintf(out, "  Servers:        %d icmp + %d http = %d total\n",
		icmp, len(cfg.Serve.Servers)-icmp, len(cfg.Serve.Servers))

	return nil
}
