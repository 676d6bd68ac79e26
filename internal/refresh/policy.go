package refresh

import (
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultMaxAttempts    = 5
	DefaultBaseDelay      = 5 * time.Second
	DefaultDelayCeiling   = 30 * time.Second
	DefaultSteadyInterval = 5 * time.Second
)

// Policy holds the retry configuration of a [Controller].
type Policy struct {
	// MaxAttempts is the number of consecutive failures after which the
	// controller gives up permanently. Must be at least 1.
	MaxAttempts int

	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration

	// DelayCeiling clamps the exponential growth of retry delays.
	DelayCeiling time.Duration

	// SteadyInterval is the delay between successful poll attempts.
	SteadyInterval time.Duration
}

// DefaultPolicy returns the policy used when nothing is configured:
// 5 attempts, 5s base delay, 30s ceiling and a 5s steady interval.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    DefaultMaxAttempts,
		BaseDelay:      DefaultBaseDelay,
		DelayCeiling:   DefaultDelayCeiling,
		SteadyInterval: DefaultSteadyInterval,
	}
}

// Validate reports the first invalid field of the policy.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", p.MaxAttempts)
	}
	if p.BaseDelay <= 0 {
		return errors.New("base delay must be positive")
	}
	if p.DelayCeiling < p.BaseDelay {
		return fmt.Errorf("delay ceiling (%s) must not be less than base delay (%s)", p.DelayCeiling, p.BaseDelay)
	}
	if p.SteadyInterval <= 0 {
		return errors.New("steady interval must be positive")
	}
	return nil
}

// Delay returns the backoff delay scheduled after a failure observed with
// attempt prior consecutive failures, i.e. min(BaseDelay*2^attempt, DelayCeiling).
func (p Policy) Delay(attempt int) time.Duration {
	b := p.newBackOff()
	d := b.NextBackOff()
	for i := 0; i < attempt && d < p.DelayCeiling; i++ {
		d = b.NextBackOff()
	}
	return d
}

// newBackOff builds a jitter-free exponential backoff whose n-th value is
// min(BaseDelay*2^n, DelayCeiling).
func (p Policy) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = p.DelayCeiling
	b.MaxElapsedTime = 0 // growth depends on the failure count only
	b.Reset()
	return b
}
