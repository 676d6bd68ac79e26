package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jpalmerr/statusboard"
	"github.com/jpalmerr/statusboard/monitor"
	"github.com/jpalmerr/statusboard/render"
)

func main() {
	// start mock server (see mock_server.go)
	go StartMockHealthServer(":9999")
	time.Sleep(100 * time.Millisecond)

	var targets []monitor.Target
	for _, svc := range []string{"users", "orders", "billing"} {
		t, err := monitor.NewTarget("API "+svc, "http://localhost:9999/health?svc="+svc,
			monitor.WithProbe(monitor.ProbeHTTP),
		)
		if err != nil {
			slog.Error("failed to create target", "error", err)
			os.Exit(1)
		}
		targets = append(targets, t)
	}

	// ICMP needs raw or datagram socket permission; without it the row shows down
	dns, _ := monitor.NewTarget("Google DNS", "8.8.8.8")
	targets = append(targets, dns)

	// keep logs out of the terminal table
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	m, err := monitor.New(
		monitor.WithTargets(targets...),
		monitor.WithProbeInterval(5*time.Second),
		monitor.WithPort(8080),
		monitor.WithLogger(quiet),
	)
	if err != nil {
		slog.Error("failed to create monitor", "error", err)
		os.Exit(1)
	}

	board, err := statusboard.New("http://localhost:8080",
		render.NewText(os.Stdout, render.WithClearScreen()),
		statusboard.WithStrategy(statusboard.StrategyPush),
		statusboard.WithLogger(quiet),
	)
	if err != nil {
		slog.Error("failed to create board", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  statusboard demo")
	fmt.Println()
	fmt.Println("  Open http://localhost:8080 in your browser, or watch below.")
	fmt.Println("  Mock services flip between up and down every 20-60s.")
	fmt.Println("  Press Ctrl+C to stop.")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.Start(gctx) })
	g.Go(func() error { return board.Run(gctx) })

	if err := g.Wait(); err != nil {
		slog.Error("demo error", "error", err)
		os.Exit(1)
	}
}
