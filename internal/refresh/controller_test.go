package refresh

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// manualClock records timers and fires them only when the test asks.
type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// armed returns the timers that are neither stopped nor fired.
func (c *manualClock) armed() []*manualTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// fireNext fires the oldest armed timer and reports whether one existed.
func (c *manualClock) fireNext() bool {
	c.mu.Lock()
	var next *manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			next = t
			break
		}
	}
	if next == nil {
		c.mu.Unlock()
		return false
	}
	next.fired = true
	c.mu.Unlock()

	next.f()
	return true
}

type recordingPresenter struct {
	mu     sync.Mutex
	errors int
	texts  []string
}

func (p *recordingPresenter) ShowError() {
	p.mu.Lock()
	p.errors++
	p.mu.Unlock()
}

func (p *recordingPresenter) SetErrorText(text string) {
	p.mu.Lock()
	p.texts = append(p.texts, text)
	p.mu.Unlock()
}

func newTestController(t *testing.T, policy Policy) (*Controller, *manualClock, *recordingPresenter) {
	t.Helper()
	if err := policy.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	clock := &manualClock{}
	presenter := &recordingPresenter{}
	return NewController(policy, presenter, clock, testLogger()), clock, presenter
}

func TestPolicy_Delay(t *testing.T) {
	tests := []struct {
		name    string
		base    time.Duration
		ceiling time.Duration
		attempt int
		want    time.Duration
	}{
		{"first retry", 5 * time.Second, 30 * time.Second, 0, 5 * time.Second},
		{"second retry", 5 * time.Second, 30 * time.Second, 1, 10 * time.Second},
		{"third retry", 5 * time.Second, 30 * time.Second, 2, 20 * time.Second},
		{"clamped", 5 * time.Second, 30 * time.Second, 3, 30 * time.Second},
		{"stays clamped", 5 * time.Second, 30 * time.Second, 4, 30 * time.Second},
		{"large attempt", 5 * time.Second, 30 * time.Second, 500, 30 * time.Second},
		{"odd ceiling", 5 * time.Second, 12 * time.Second, 2, 12 * time.Second},
		{"ceiling equals base", time.Second, time.Second, 3, time.Second},
		{"millisecond scale", 100 * time.Millisecond, 10 * time.Second, 4, 1600 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			p.BaseDelay = tt.base
			p.DelayCeiling = tt.ceiling
			if got := p.Delay(tt.attempt); got != tt.want {
				t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestPolicy_DelayMatchesFormula(t *testing.T) {
	p := DefaultPolicy()
	for n := 0; n < p.MaxAttempts; n++ {
		want := p.BaseDelay << n
		if want > p.DelayCeiling {
			want = p.DelayCeiling
		}
		if got := p.Delay(n); got != want {
			t.Errorf("Delay(%d) = %v, want %v", n, got, want)
		}
	}
}

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Policy)
		wantErr bool
	}{
		{"defaults", func(*Policy) {}, false},
		{"single attempt", func(p *Policy) { p.MaxAttempts = 1 }, false},
		{"zero attempts", func(p *Policy) { p.MaxAttempts = 0 }, true},
		{"zero base delay", func(p *Policy) { p.BaseDelay = 0 }, true},
		{"ceiling below base", func(p *Policy) { p.DelayCeiling = time.Second }, true},
		{"ceiling equals base", func(p *Policy) { p.DelayCeiling = p.BaseDelay }, false},
		{"zero steady interval", func(p *Policy) { p.SteadyInterval = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			tt.mutate(&p)
			err := p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestController_FailureLadder(t *testing.T) {
	c, clock, presenter := newTestController(t, DefaultPolicy())

	want := []time.Duration{
		5 * time.Second,
		10 * time.Second,
		20 * time.Second,
		30 * time.Second,
		30 * time.Second,
	}

	for i, wantDelay := range want {
		d := c.OnFailure()
		if d.Delay != wantDelay {
			t.Errorf("failure %d: Delay = %v, want %v", i+1, d.Delay, wantDelay)
		}

		last := i == len(want)-1
		if d.Terminal != last {
			t.Errorf("failure %d: Terminal = %v, want %v", i+1, d.Terminal, last)
		}
		if d.Scheduled == last {
			t.Errorf("failure %d: Scheduled = %v, want %v", i+1, d.Scheduled, !last)
		}

		if !last {
			armed := clock.armed()
			if len(armed) != 1 {
				t.Fatalf("failure %d: %d armed timers, want 1", i+1, len(armed))
			}
			if armed[0].d != wantDelay {
				t.Errorf("failure %d: armed delay = %v, want %v", i+1, armed[0].d, wantDelay)
			}
			clock.fireNext()
		}
	}

	st := c.State()
	if st.Active {
		t.Error("State().Active = true after exhausting retries, want false")
	}
	if !st.Exhausted {
		t.Error("State().Exhausted = false, want true")
	}
	if st.AttemptCount != 5 {
		t.Errorf("State().AttemptCount = %d, want 5", st.AttemptCount)
	}
	if st.Pending {
		t.Error("State().Pending = true after terminal failure, want false")
	}
	if presenter.errors != 5 {
		t.Errorf("ShowError called %d times, want 5", presenter.errors)
	}
	if len(presenter.texts) != 1 || presenter.texts[0] != PermanentFailureText {
		t.Errorf("error texts = %q, want exactly one %q", presenter.texts, PermanentFailureText)
	}

	select {
	case <-c.Done():
	default:
		t.Error("Done() not closed after terminal failure")
	}
}

func TestController_SuccessResetsAttempts(t *testing.T) {
	for _, failures := range []int{0, 1, 3, 4} {
		c, _, _ := newTestController(t, DefaultPolicy())
		for i := 0; i < failures; i++ {
			c.OnFailure()
		}

		c.OnSuccess()

		if got := c.State().AttemptCount; got != 0 {
			t.Errorf("after %d failures and a success: AttemptCount = %d, want 0", failures, got)
		}

		// the ladder starts over
		if d := c.OnFailure(); d.Delay != 5*time.Second {
			t.Errorf("after %d failures and a success: next Delay = %v, want 5s", failures, d.Delay)
		}
	}
}

func TestController_SuccessSchedulesSteadyInterval(t *testing.T) {
	policy := DefaultPolicy()
	policy.SteadyInterval = 7 * time.Second
	c, clock, _ := newTestController(t, policy)

	d := c.OnSuccess()
	if !d.Scheduled || d.Delay != 7*time.Second {
		t.Errorf("OnSuccess() = %+v, want scheduled after 7s", d)
	}

	armed := clock.armed()
	if len(armed) != 1 || armed[0].d != 7*time.Second {
		t.Fatalf("armed timers = %d, want one 7s timer", len(armed))
	}
}

func TestController_ResetDoesNotSchedule(t *testing.T) {
	c, clock, _ := newTestController(t, DefaultPolicy())

	c.OnFailure()
	clock.fireNext()
	c.Reset()

	if got := c.State().AttemptCount; got != 0 {
		t.Errorf("AttemptCount = %d, want 0", got)
	}
	if len(clock.armed()) != 0 {
		t.Errorf("Reset() armed %d timers, want 0", len(clock.armed()))
	}
	if !c.Active() {
		t.Error("Active() = false after Reset, want true")
	}
}

func TestController_AtMostOnePendingAttempt(t *testing.T) {
	c, clock, _ := newTestController(t, DefaultPolicy())

	c.OnFailure()
	c.OnSuccess()
	c.OnFailure()

	if n := len(clock.armed()); n != 1 {
		t.Errorf("armed timers = %d, want 1", n)
	}
}

func TestController_InactiveSchedulesNothing(t *testing.T) {
	policy := DefaultPolicy()
	policy.MaxAttempts = 2
	c, clock, presenter := newTestController(t, policy)

	c.OnFailure()
	clock.fireNext()
	c.OnFailure()

	before := len(clock.timers)

	if d := c.OnSuccess(); d.Scheduled || !d.Terminal {
		t.Errorf("OnSuccess() after terminal = %+v, want terminal and unscheduled", d)
	}
	if d := c.OnFailure(); d.Scheduled || !d.Terminal {
		t.Errorf("OnFailure() after terminal = %+v, want terminal and unscheduled", d)
	}
	if c.Wait(context.Background()) {
		t.Error("Wait() = true after terminal, want false")
	}

	if len(clock.timers) != before {
		t.Errorf("timers created after terminal = %d, want 0", len(clock.timers)-before)
	}
	if c.Active() {
		t.Error("Active() = true, want false")
	}
	if len(presenter.texts) != 1 {
		t.Errorf("permanent text shown %d times, want 1", len(presenter.texts))
	}
}

func TestController_SingleAttemptPolicy(t *testing.T) {
	policy := DefaultPolicy()
	policy.MaxAttempts = 1
	c, clock, presenter := newTestController(t, policy)

	d := c.OnFailure()
	if !d.Terminal || d.Scheduled {
		t.Errorf("OnFailure() = %+v, want terminal on the first failure", d)
	}
	if len(clock.armed()) != 0 {
		t.Error("a retry was armed with MaxAttempts = 1")
	}
	if len(presenter.texts) != 1 {
		t.Errorf("permanent text shown %d times, want 1", len(presenter.texts))
	}
}

func TestController_Halt(t *testing.T) {
	c, clock, presenter := newTestController(t, DefaultPolicy())

	c.OnFailure()
	armed := clock.armed()
	if len(armed) != 1 {
		t.Fatalf("armed timers = %d, want 1", len(armed))
	}

	c.Halt()

	if !armed[0].stopped {
		t.Error("Halt() did not stop the pending timer")
	}
	st := c.State()
	if st.Active || st.Pending {
		t.Errorf("State() after Halt = %+v, want inactive with nothing pending", st)
	}
	if st.Exhausted {
		t.Error("State().Exhausted = true after Halt, want false")
	}

	// second call is a no-op
	c.Halt()
	if c.State() != st {
		t.Errorf("State() changed after second Halt: %+v", c.State())
	}
	if len(presenter.texts) != 0 {
		t.Errorf("Halt() set error text %q, want none", presenter.texts)
	}
}

func TestController_HaltBeforeAnyAttempt(t *testing.T) {
	c, _, _ := newTestController(t, DefaultPolicy())

	c.Halt()
	c.Halt()

	if c.Active() {
		t.Error("Active() = true after Halt, want false")
	}
	if d := c.OnSuccess(); d.Scheduled {
		t.Error("OnSuccess() scheduled an attempt after Halt")
	}
}

func TestController_WaitReturnsWhenTimerFires(t *testing.T) {
	c, clock, _ := newTestController(t, DefaultPolicy())
	c.OnFailure()

	done := make(chan bool, 1)
	go func() {
		done <- c.Wait(context.Background())
	}()

	clock.fireNext()

	select {
	case ok := <-done:
		if !ok {
			t.Error("Wait() = false, want true after the timer fired")
		}
	case <-time.After(time.Second):
		t.Fatal("Wait() did not return after the timer fired")
	}

	if c.State().Pending {
		t.Error("State().Pending = true after the timer fired")
	}
}

func TestController_WaitReturnsFalseOnHalt(t *testing.T) {
	c, _, _ := newTestController(t, DefaultPolicy())
	c.OnSuccess()

	done := make(chan bool, 1)
	go func() {
		done <- c.Wait(context.Background())
	}()

	time.Sleep(10 * time.Millisecond)
	c.Halt()

	select {
	case ok := <-done:
		if ok {
			t.Error("Wait() = true after Halt, want false")
		}
	case <-time.After(time.Second):
		t.Fatal("Wait() did not return after Halt")
	}
}

func TestController_WaitContextCancelHalts(t *testing.T) {
	c, clock, _ := newTestController(t, DefaultPolicy())
	c.OnSuccess()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if c.Wait(ctx) {
		t.Error("Wait() = true with a cancelled context, want false")
	}
	if c.Active() {
		t.Error("Active() = true after context cancellation, want false")
	}
	if len(clock.armed()) != 0 {
		t.Error("pending timer survived context cancellation")
	}
}

func TestController_WaitWithNothingScheduled(t *testing.T) {
	c, _, _ := newTestController(t, DefaultPolicy())

	if c.Wait(context.Background()) {
		t.Error("Wait() = true with nothing scheduled, want false")
	}
}

func TestController_StaleTimerIgnored(t *testing.T) {
	c, clock, _ := newTestController(t, DefaultPolicy())

	c.OnFailure()
	stale := clock.armed()[0]
	c.OnSuccess() // replaces the retry timer

	// a callback that was already in flight when the timer was replaced
	stale.f()

	if len(c.fired) != 0 {
		t.Error("stale timer delivered an attempt")
	}
	if !c.State().Pending {
		t.Error("State().Pending = false, want the replacement timer pending")
	}
}

func TestController_SystemClock(t *testing.T) {
	policy := DefaultPolicy()
	policy.SteadyInterval = 10 * time.Millisecond
	c := NewController(policy, &recordingPresenter{}, nil, testLogger())

	c.OnSuccess()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if !c.Wait(ctx) {
		t.Fatal("Wait() = false, want true after the steady interval elapsed")
	}
	c.Halt()
}
