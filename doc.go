// Package statusboard provides a resilient client for server status
// dashboards.
//
// A [Board] keeps a [Sink] up to date with the ordered server list published
// by a status service. It refreshes using one of two interchangeable
// strategies and recovers from outages with exponential backoff.
//
// # Quick Start
//
//	sink := render.NewText(os.Stdout)
//	b, _ := statusboard.New("http://localhost:8080", sink)
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	b.Run(ctx) // blocks until ctx is cancelled or retries are exhausted
//
// # Strategies
//
//   - [StrategyPoll]: fetches GET /api/status, then again after every steady
//     interval. A non-2xx answer, a transport error or an unparseable body is a
//     failed attempt.
//   - [StrategyPush]: keeps one WebSocket open at /ws and renders every
//     snapshot the service pushes. Opening the channel is a successful attempt;
//     losing it is a failed one. Malformed messages are dropped without closing
//     the channel.
//
// # Retries
//
// After n consecutive failures the next attempt waits min(base*2^n, ceiling),
// 5s, 10s, 20s, 30s, 30s with the defaults. Any success resets the count. When
// the count reaches the maximum (5 by default) the board gives up for good,
// shows [PermanentFailureText] and [Board.Run] returns [ErrRetriesExhausted].
//
// # Architecture
//
// The module consists of several packages:
//
//   - statusboard: the dashboard client (this package)
//   - render: terminal, HTML file and in-memory sinks
//   - monitor: a status service that probes servers and publishes snapshots
//   - config: YAML configuration for the statusboard CLI
//   - internal/refresh: retry and backoff state machine
//   - internal/poller: HTTP client and probe scheduler
//   - internal/store: in-memory snapshot storage with pub/sub
//   - internal/server: HTTP, WebSocket and metrics endpoints of the monitor
//   - dashboard: embedded HTML page template
package statusboard
