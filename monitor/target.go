package monitor

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

const defaultTargetTimeout = time.Second

// Probe selects how a [Target] is checked.
type Probe string

const (
	// ProbeICMP sends one ICMP echo request; any reply means up.
	ProbeICMP Probe = "icmp"

	// ProbeHTTP sends GET to the target URL; a 2xx answer means up.
	ProbeHTTP Probe = "http"
)

// String returns the string representation of the probe.
func (p Probe) String() string {
	return string(p)
}

// ParseProbe converts a configuration value to a [Probe]. An empty string
// selects ICMP.
func ParseProbe(s string) (Probe, error) {
	switch Probe(s) {
	case "", ProbeICMP:
		return ProbeICMP, nil
	case ProbeHTTP:
		return ProbeHTTP, nil
	default:
		return "", fmt.Errorf("unknown probe %q (want icmp or http)", s)
	}
}

// Target is a server the monitor probes.
//
// Target is immutable after creation via [NewTarget]. Targets are configured
// using the functional options pattern with [TargetOption] functions such as
// [WithProbe], [WithTimeout] and [WithPrivileged].
type Target struct {
	name       string
	host       string
	probe      Probe
	timeout    time.Duration
	privileged bool
}

// Name returns the target's display name.
func (t Target) Name() string {
	return t.name
}

// Host returns the probed address: a hostname or IP for ICMP, a URL for HTTP.
func (t Target) Host() string {
	return t.host
}

// Probe returns how the target is checked.
func (t Target) Probe() Probe {
	return t.probe
}

// Timeout returns how long a single probe may take.
// Defaults to 1 second if not explicitly set via [WithTimeout].
func (t Target) Timeout() time.Duration {
	return t.timeout
}

// Privileged reports whether ICMP probes use raw sockets.
func (t Target) Privileged() bool {
	return t.privileged
}

// NewTarget creates a [Target] with the given name, host, and options.
//
// The name is displayed on the dashboard and must be unique within a monitor.
// For ICMP probes host is a hostname or IP address; for HTTP probes it must
// be an http:// or https:// URL.
//
// Returns an error if the name or host is empty or any option is invalid.
//
// Example:
//
//	dns, err := monitor.NewTarget("Google DNS", "8.8.8.8")
//
//	api, err := monitor.NewTarget("API", "https://api.example.com/health",
//	    monitor.WithProbe(monitor.ProbeHTTP),
//	    monitor.WithTimeout(5 * time.Second),
//	)
func NewTarget(name, host string, opts ...TargetOption) (Target, error) {
	if name == "" {
		return Target{}, errors.New("target name cannot be empty")
	}
	if host == "" {
		return Target{}, errors.New("target host cannot be empty")
	}

	cfg := &targetConfig{
		probe:   ProbeICMP,
		timeout: defaultTargetTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Target{}, err
		}
	}

	if cfg.probe == ProbeHTTP {
		u, err := url.Parse(host)
		if err != nil {
			return Target{}, fmt.Errorf("invalid URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return Target{}, errors.New("http probe requires an http:// or https:// URL")
		}
	}

	return Target{
		name:       name,
		host:       host,
		probe:      cfg.probe,
		timeout:    cfg.timeout,
		privileged: cfg.privileged,
	}, nil
}

// targetConfig holds mutable state during target construction.
type targetConfig struct {
	probe      Probe
	timeout    time.Duration
	privileged bool
}

// TargetOption is a function that configures a [Target] during construction.
type TargetOption func(*targetConfig) error

// WithProbe sets how the target is checked. Defaults to [ProbeICMP].
func WithProbe(p Probe) TargetOption {
	return func(cfg *targetConfig) error {
		switch p {
		case ProbeICMP, ProbeHTTP:
			cfg.probe = p
			return nil
		default:
			return fmt.Errorf("unknown probe %q (want icmp or http)", p)
		}
	}
}

// WithTimeout sets how long a single probe may take before the target is
// considered down. Defaults to 1 second.
//
// Returns an error if the duration is zero or negative.
func WithTimeout(d time.Duration) TargetOption {
	return func(cfg *targetConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}

// WithPrivileged makes ICMP probes use raw sockets, which requires root or
// CAP_NET_RAW. Unprivileged probes use datagram sockets, which on Linux
// require the net.ipv4.ping_group_range sysctl to include the process group.
func WithPrivileged(privileged bool) TargetOption {
	return func(cfg *targetConfig) error {
		cfg.privileged = privileged
		return nil
	}
}
