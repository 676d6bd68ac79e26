package monitor

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jpalmerr/statusboard"
)

// monitorConfig holds mutable state during monitor construction.
type monitorConfig struct {
	title           string
	targets         []Target
	probeInterval   time.Duration
	port            int
	maxConcurrency  int
	pageRefresh     time.Duration
	logger          *slog.Logger
	updateCallbacks []func(statusboard.Snapshot)
}

// Option configures a [Monitor] during construction.
type Option func(*monitorConfig) error

// WithTitle sets the dashboard title. Defaults to "Server Status".
func WithTitle(title string) Option {
	return func(cfg *monitorConfig) error {
		cfg.title = title
		return nil
	}
}

// WithTarget adds a single target to monitor. Targets are displayed in the
// order they are added.
func WithTarget(t Target) Option {
	return func(cfg *monitorConfig) error {
		if t.name == "" {
			return errors.New("target must be created with NewTarget")
		}
		cfg.targets = append(cfg.targets, t)
		return nil
	}
}

// WithTargets adds multiple targets to monitor.
func WithTargets(targets ...Target) Option {
	return func(cfg *monitorConfig) error {
		for i, t := range targets {
			if t.name == "" {
				return fmt.Errorf("targets[%d] must be created with NewTarget", i)
			}
		}
		cfg.targets = append(cfg.targets, targets...)
		return nil
	}
}

// WithProbeInterval sets the time between probe cycles. Defaults to 10
// seconds.
//
// Returns an error if the interval is shorter than 100 milliseconds.
func WithProbeInterval(d time.Duration) Option {
	return func(cfg *monitorConfig) error {
		if d < 100*time.Millisecond {
			return errors.New("probe interval must be at least 100ms")
		}
		cfg.probeInterval = d
		return nil
	}
}

// WithPort sets the HTTP port of the status server. Defaults to 8080.
func WithPort(port int) Option {
	return func(cfg *monitorConfig) error {
		if port < 1 || port > 65535 {
			return fmt.Errorf("port must be between 1 and 65535, got %d", port)
		}
		cfg.port = port
		return nil
	}
}

// WithMaxConcurrency limits how many targets are probed at once. Defaults
// to 10.
func WithMaxConcurrency(n int) Option {
	return func(cfg *monitorConfig) error {
		if n < 1 {
			return fmt.Errorf("max concurrency must be at least 1, got %d", n)
		}
		cfg.maxConcurrency = n
		return nil
	}
}

// WithPageRefresh makes the server-rendered dashboard reload itself every d.
// Defaults to the probe interval; a negative value disables reloading.
func WithPageRefresh(d time.Duration) Option {
	return func(cfg *monitorConfig) error {
		cfg.pageRefresh = d
		return nil
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *monitorConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithUpdateCallback registers a function called with the full snapshot
// after every probe cycle, once the snapshot is published. Callbacks run on
// the monitor's result loop and must not block; panics are recovered and
// logged. A nil callback is ignored.
func WithUpdateCallback(cb func(statusboard.Snapshot)) Option {
	return func(cfg *monitorConfig) error {
		if cb != nil {
			cfg.updateCallbacks = append(cfg.updateCallbacks, cb)
		}
		return nil
	}
}
