// Package poller provides the HTTP client and the probe scheduler.
//
// The [Client] is shared by both sides of statusboard: the dashboard client
// fetches snapshots with it and the monitor uses it for HTTP probes.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with timeout and size limits
//   - [Scheduler]: Probes targets periodically with a worker pool
//   - [ProbeResult]: Result of probing a single target
//   - [TargetInfo]: Configuration for a target to probe
//
// Users of the statusboard library should not need to interact with this
// package directly.
package poller
