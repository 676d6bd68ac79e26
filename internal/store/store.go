package store

import "time"

// ServerStatus is the published state of one monitored server.
//
// The JSON form is the record the status API and the push channel emit.
// Checks and Successes are carried along so clients can see how Uptime was
// derived.
type ServerStatus struct {
	// Name is the server's display name.
	Name string `json:"name"`

	// Host is the probed address: a hostname or IP for ICMP, a URL for HTTP.
	Host string `json:"host"`

	// Status is true when the last probe succeeded.
	Status bool `json:"status"`

	// LastChecked is the time of the last probe. Zero until the first probe.
	LastChecked time.Time `json:"lastChecked"`

	// ResponseTime is the last probe's latency in milliseconds. It is 0 when
	// the server is down.
	ResponseTime int64 `json:"responseTime"`

	// Uptime is Successes / Checks * 100.
	Uptime float64 `json:"uptime"`

	// Checks is the number of probes performed.
	Checks int64 `json:"checks"`

	// Successes is the number of probes that succeeded.
	Successes int64 `json:"successes"`
}

// Server identifies a monitored server. Servers are kept in the order they
// were configured.
type Server struct {
	Name string
	Host string
}

// Observation is the outcome of probing one server once.
type Observation struct {
	Name         string
	Up           bool
	ResponseTime time.Duration
	CheckedAt    time.Time
}

// Store holds the ordered server list and fans out snapshots to subscribers.
//
// Store implementations must be safe for concurrent access. Subscribers
// receive full snapshots; slow subscribers may miss intermediate ones.
type Store interface {
	// Update applies observations and notifies subscribers once with the
	// resulting snapshot.
	Update(obs ...Observation)

	// GetAll returns a copy of every server's status in configured order.
	GetAll() []ServerStatus

	// Subscribe returns a channel that receives snapshots after each Update.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan []ServerStatus

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan []ServerStatus)
}
