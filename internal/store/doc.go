// Package store provides storage and pub/sub for monitored server status.
//
// This package is internal to statusboard and keeps the ordered server list
// the monitor publishes. It implements a publish-subscribe pattern so the
// push channel can forward every new snapshot to connected dashboards.
//
// The main components are:
//
//   - [Store]: Interface defining storage and subscription operations
//   - [MemoryStore]: In-memory implementation of Store with pub/sub
//   - [ServerStatus]: Published representation of one server
//   - [Observation]: One probe outcome applied by [Store.Update]
//
// Subscribers receive full snapshots via channels with non-blocking sends
// (slow subscribers miss intermediate snapshots rather than block the
// monitor).
package store
