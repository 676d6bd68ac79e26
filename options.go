package statusboard

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jpalmerr/statusboard/internal/refresh"
)

// boardConfig holds mutable state during Board construction.
type boardConfig struct {
	strategy          Strategy
	policy            refresh.Policy
	requestTimeout    time.Duration
	logger            *slog.Logger
	clock             refresh.Clock
	snapshotCallbacks []func(Snapshot)
}

// Option is a function that configures a [Board] during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
type Option func(*boardConfig) error

// WithStrategy selects how the board refreshes: [StrategyPoll] (default) or
// [StrategyPush]. A board runs exactly one strategy.
//
// Returns an error for any other value.
func WithStrategy(s Strategy) Option {
	return func(cfg *boardConfig) error {
		if _, err := ParseStrategy(string(s)); err != nil {
			return err
		}
		cfg.strategy = s
		return nil
	}
}

// WithMaxAttempts sets how many consecutive failures are tolerated before the
// board gives up and shows [PermanentFailureText]. Defaults to 5.
//
// Returns an error if n is less than 1.
func WithMaxAttempts(n int) Option {
	return func(cfg *boardConfig) error {
		if n < 1 {
			return fmt.Errorf("max attempts must be at least 1, got %d", n)
		}
		cfg.policy.MaxAttempts = n
		return nil
	}
}

// WithBaseDelay sets the delay before the first retry. Each further
// consecutive failure doubles it, up to the ceiling set by [WithDelayCeiling].
// Defaults to 5 seconds.
//
// Returns an error if the duration is zero or negative.
func WithBaseDelay(d time.Duration) Option {
	return func(cfg *boardConfig) error {
		if d <= 0 {
			return errors.New("base delay must be positive")
		}
		cfg.policy.BaseDelay = d
		return nil
	}
}

// WithDelayCeiling caps the retry delay. Defaults to 30 seconds.
// The ceiling must not be less than the base delay; this is checked by [New].
//
// Returns an error if the duration is zero or negative.
func WithDelayCeiling(d time.Duration) Option {
	return func(cfg *boardConfig) error {
		if d <= 0 {
			return errors.New("delay ceiling must be positive")
		}
		cfg.policy.DelayCeiling = d
		return nil
	}
}

// WithSteadyInterval sets the delay between successful polls.
// It has no effect on the push strategy. Defaults to 5 seconds.
//
// Returns an error if the duration is zero or negative.
func WithSteadyInterval(d time.Duration) Option {
	return func(cfg *boardConfig) error {
		if d <= 0 {
			return errors.New("steady interval must be positive")
		}
		cfg.policy.SteadyInterval = d
		return nil
	}
}

// WithRequestTimeout bounds each status fetch of the poll strategy.
// Zero, the default, leaves fetches without a deadline.
//
// Returns an error if the duration is negative.
func WithRequestTimeout(d time.Duration) Option {
	return func(cfg *boardConfig) error {
		if d < 0 {
			return errors.New("request timeout cannot be negative")
		}
		cfg.requestTimeout = d
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the board.
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *boardConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithSnapshotCallback registers a function called after every snapshot is
// rendered. The callback receives its own copy of the snapshot.
//
// Callbacks run synchronously on the refresh loop in registration order and
// must not block. Panics are recovered and logged. Nil callbacks are ignored.
func WithSnapshotCallback(cb func(Snapshot)) Option {
	return func(cfg *boardConfig) error {
		if cb == nil {
			return nil
		}
		cfg.snapshotCallbacks = append(cfg.snapshotCallbacks, cb)
		return nil
	}
}

// withClock replaces the timer source of the refresh controller.
func withClock(c refresh.Clock) Option {
	return func(cfg *boardConfig) error {
		cfg.clock = c
		return nil
	}
}
