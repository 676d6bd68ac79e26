// Package server provides the HTTP server of the status monitor.
//
// This package is internal to statusboard and handles all HTTP concerns:
//
//   - Dashboard: server-rendered HTML page at "/"
//   - REST API: JSON array at "/api/status" for the current snapshot
//   - Push channel: WebSocket at "/ws" sending the array after every update
//   - Metrics: Prometheus exposition at "/metrics"
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
package server
