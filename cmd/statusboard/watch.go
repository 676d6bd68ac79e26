package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jpalmerr/statusboard"
	"github.com/jpalmerr/statusboard/config"
	"github.com/jpalmerr/statusboard/render"
)

const (
	formatText = "text"
	formatHTML = "html"
)

// watchCmd runs the dashboard client.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show the status dashboard and keep it fresh",
	Long: `Connect to a status service and display its server list.

The dashboard refreshes by polling GET /api/status (strategy poll) or by
listening on the /ws WebSocket (strategy push). Failures are retried with
exponential backoff; after max_attempts consecutive failures the dashboard
shows a permanent error and the command exits with status 1.

Formats:
  text - a table on stdout (or --output), redrawn on every change
  html - a self-contained page written atomically to --output

Example:
  statusboard watch -c config.yaml
  statusboard watch -c config.yaml --strategy push
  statusboard watch -c config.yaml --format html --output /var/www/status.html`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	watchCmd.Flags().String("url", "", "status service base URL (overrides watch.url)")
	watchCmd.Flags().String("strategy", "", "refresh strategy: poll or push (overrides watch.strategy)")
	watchCmd.Flags().String("format", formatText, "output format: text or html")
	watchCmd.Flags().StringP("output", "o", "", "output file (required for html)")
	_ = watchCmd.MarkFlagRequired("config")
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if u, _ := cmd.Flags().GetString("url"); u != "" {
		cfg.Watch.URL = u
	}
	if s, _ := cmd.Flags().GetString("strategy"); s != "" {
		cfg.Watch.Strategy = s
	}

	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	sink, closeSink, err := newSink(cmd, cfg, format, output)
	if err != nil {
		return err
	}
	defer closeSink()

	opts, err := config.BuildOptions(cfg)
	if err != nil {
		return fmt.Errorf("failed to build options: %w", err)
	}
	opts = append(opts, statusboard.WithLogger(logger))

	board, err := statusboard.New(cfg.StatusURL(), sink, opts...)
	if err != nil {
		return fmt.Errorf("failed to create board: %w", err)
	}

	logger.Info("watching status service",
		"url", cfg.StatusURL(),
		"strategy", board.Strategy().String(),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := board.Run(ctx); err != nil {
		if errors.Is(err, statusboard.ErrRetriesExhausted) {
			return fmt.Errorf("status service unreachable: %w", err)
		}
		return err
	}
	return nil
}

// newSink builds the sink for format. The returned close func releases any
// file the sink writes to.
func newSink(cmd *cobra.Command, cfg *config.Config, format, output string) (statusboard.Sink, func(), error) {
	switch format {
	case formatText:
		var w io.Writer = cmd.OutOrStdout()
		closeFn := func() {}
		opts := []render.TextOption{}
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to open output: %w", err)
			}
			w = f
			closeFn = func() { _ = f.Close() }
		} else if term.IsTerminal(int(os.Stdout.Fd())) {
			opts = append(opts, render.WithClearScreen())
		}
		return render.NewText(w, opts...), closeFn, nil

	case formatHTML:
		if output == "" {
			return nil, nil, errors.New("--output is required for html format")
		}
		h, err := render.NewHTML(output,
			render.WithTitle(cfg.Serve.Title),
			render.WithHTMLLogger(newLogger(cmd)),
		)
		if err != nil {
			return nil, nil, err
		}
		return h, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown format %q (want text or html)", format)
	}
}
