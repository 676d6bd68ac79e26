package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/statusboard/config"
	"github.com/jpalmerr/statusboard/monitor"
)

const (
	shutdownTimeout = 10 * time.Second
)

// serveCmd starts the monitor.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Probe servers and serve their status",
	Long: `Start the statusboard monitor.

The monitor will:
  - Load configuration from the specified YAML file
  - Probe every server under serve.servers (ICMP or HTTP)
  - Serve the status list at /api/status and over a WebSocket at /ws
  - Serve a dashboard page at / and Prometheus metrics at /metrics

The monitor runs until interrupted (Ctrl+C) or receives SIGTERM.
ICMP probes need CAP_NET_RAW or a ping_group_range that includes this
process unless the server sets privileged: false.

Example:
  statusboard serve -c config.yaml
  statusboard serve --config /etc/statusboard/config.yaml --env-file .env`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if len(cfg.Serve.Servers) == 0 {
		return errors.New("no servers configured under serve.servers")
	}

	logger.Info("config loaded", "servers", len(cfg.Serve.Servers))

	opts, err := config.BuildMonitorOptions(cfg)
	if err != nil {
		return fmt.Errorf("failed to build monitor options: %w", err)
	}
	opts = append(opts, monitor.WithLogger(logger))

	m, err := monitor.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create monitor: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runUntilDone(ctx, logger, m.Start)
}

// runUntilDone runs start until it returns, giving it shutdownTimeout to
// finish once ctx is cancelled.
func runUntilDone(ctx context.Context, logger *slog.Logger, start func(context.Context) error) error {
	errChan := make(chan error, 1)
	go func() {
		errChan <- start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
