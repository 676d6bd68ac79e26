package refresh

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// PermanentFailureText is shown once retries are exhausted.
const PermanentFailureText = "Connection lost. Please refresh the page to try again."

// Presenter is the part of the render sink the controller drives.
type Presenter interface {
	// ShowError switches the display to the transient error presentation.
	ShowError()

	// SetErrorText replaces the error message shown to the user.
	SetErrorText(text string)
}

// State is a point-in-time copy of the controller's refresh state.
type State struct {
	// AttemptCount is the number of consecutive failures since the last
	// success or since start.
	AttemptCount int

	// Active reports whether further attempts may be scheduled.
	Active bool

	// Pending reports whether an attempt is scheduled but has not fired.
	Pending bool

	// Exhausted reports whether the controller went inactive because
	// MaxAttempts consecutive failures were observed.
	Exhausted bool
}

// Decision describes what the controller did after an outcome was reported.
type Decision struct {
	// Delay is the computed wait before the next attempt. For the failure
	// that exhausts the policy it is reported but never armed.
	Delay time.Duration

	// Scheduled is true when a timer was armed.
	Scheduled bool

	// Terminal is true when the controller is inactive after the call.
	Terminal bool
}

// Controller decides what happens after every attempt of a refresh strategy.
//
// Outcome methods (OnSuccess, Reset, OnFailure) and Wait are meant to be
// called from the single strategy loop. Halt and State are safe to call from
// any goroutine.
type Controller struct {
	policy    Policy
	presenter Presenter
	clock     Clock
	logger    *slog.Logger

	mu        sync.Mutex
	attempts  int
	active    bool
	exhausted bool
	pending   Timer
	gen       uint64 // invalidates callbacks of stopped timers
	backoff   *backoff.ExponentialBackOff

	fired    chan struct{}
	done     chan struct{}
	doneOnce sync.Once
}

// NewController creates an active [Controller] with no pending attempt.
//
// A nil clock uses [SystemClock]; a nil logger uses [slog.Default]. The
// policy must already be valid (see [Policy.Validate]).
func NewController(policy Policy, presenter Presenter, clock Clock, logger *slog.Logger) *Controller {
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		policy:    policy,
		presenter: presenter,
		clock:     clock,
		logger:    logger,
		active:    true,
		backoff:   policy.newBackOff(),
		fired:     make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
}

// OnSuccess records a successful attempt. The failure count is reset and, if
// the controller is still active, the next attempt is scheduled after the
// steady interval.
func (c *Controller) OnSuccess() Decision {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resetLocked()
	if !c.active {
		return Decision{Terminal: true}
	}

	c.scheduleLocked(c.policy.SteadyInterval)
	return Decision{Delay: c.policy.SteadyInterval, Scheduled: true}
}

// Reset clears the failure count without scheduling anything. The push
// strategy calls it when a channel opens, since an open channel delivers
// updates on its own.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
}

// OnFailure records a failed attempt.
//
// The display switches to error mode. While fewer than MaxAttempts
// consecutive failures have been seen, exactly one retry is scheduled after
// min(BaseDelay*2^n, DelayCeiling). The failure that reaches MaxAttempts makes
// the controller permanently inactive and shows [PermanentFailureText]. Calls
// on an inactive controller schedule nothing.
func (c *Controller) OnFailure() Decision {
	c.presenter.ShowError()

	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return Decision{Terminal: true}
	}

	delay := c.backoff.NextBackOff()
	c.attempts++
	attempt := c.attempts

	if attempt >= c.policy.MaxAttempts {
		c.exhaustLocked()
		c.mu.Unlock()
		c.announceExhausted()
		return Decision{Delay: delay, Terminal: true}
	}

	c.scheduleLocked(delay)
	c.mu.Unlock()

	c.logger.Warn("attempt failed, retrying",
		"attempt", attempt,
		"max_attempts", c.policy.MaxAttempts,
		"delay_ms", delay.Milliseconds(),
	)
	return Decision{Delay: delay, Scheduled: true}
}

// Halt makes the controller inactive and cancels the pending attempt.
// Halt is idempotent and may be called at any point of the lifecycle.
func (c *Controller) Halt() {
	c.mu.Lock()
	c.stopLocked()
	c.mu.Unlock()
}

// Wait blocks until the pending attempt is due and reports true, or reports
// false once the controller is inactive, nothing is scheduled, or ctx is done.
// A done context halts the controller.
func (c *Controller) Wait(ctx context.Context) bool {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return false
	}
	if c.pending == nil && len(c.fired) == 0 {
		c.mu.Unlock()
		return false
	}
	c.mu.Unlock()

	select {
	case <-c.fired:
		return c.Active()
	case <-c.done:
		return false
	case <-ctx.Done():
		c.Halt()
		return false
	}
}

// Done returns a channel that is closed once the controller is inactive.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Active reports whether further attempts may be scheduled.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// State returns a copy of the current refresh state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		AttemptCount: c.attempts,
		Active:       c.active,
		Pending:      c.pending != nil,
		Exhausted:    c.exhausted,
	}
}

func (c *Controller) resetLocked() {
	c.attempts = 0
	c.backoff.Reset()
}

// scheduleLocked arms the single pending timer, replacing any previous one.
func (c *Controller) scheduleLocked(d time.Duration) {
	if c.pending != nil {
		c.pending.Stop()
	}
	c.gen++
	gen := c.gen
	c.pending = c.clock.AfterFunc(d, func() { c.fire(gen) })
}

// fire hands a due attempt to the strategy loop unless the timer was
// replaced or cancelled in the meantime.
func (c *Controller) fire(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || !c.active || c.pending == nil {
		return
	}
	c.pending = nil
	select {
	case c.fired <- struct{}{}:
	default:
	}
}

func (c *Controller) stopLocked() {
	c.active = false
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	c.gen++
	c.doneOnce.Do(func() { close(c.done) })
}

func (c *Controller) exhaustLocked() {
	c.exhausted = true
	c.stopLocked()
}

func (c *Controller) announceExhausted() {
	c.logger.Error("max retry attempts reached",
		"max_attempts", c.policy.MaxAttempts,
	)
	c.presenter.SetErrorText(PermanentFailureText)
}
