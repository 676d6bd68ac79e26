// Package monitor provides the status service that dashboards connect to.
//
// A [Monitor] probes [Target] servers by ICMP echo or HTTP GET, keeps uptime
// as successes over checks, and publishes the ordered list:
//
//   - GET /api/status: JSON array, polled by [statusboard.StrategyPoll]
//   - /ws: WebSocket pushing the array after every probe cycle, consumed
//     by [statusboard.StrategyPush]
//   - GET /: server-rendered dashboard page
//   - GET /metrics: Prometheus metrics
package monitor
