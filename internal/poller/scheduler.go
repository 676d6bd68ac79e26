package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/go-ping/ping"
	"github.com/google/uuid"

	"github.com/jpalmerr/statusboard/internal/metrics"
)

// ProbeKind selects how a target is checked.
type ProbeKind string

const (
	// ProbeICMP sends one ICMP echo request; any reply means up.
	ProbeICMP ProbeKind = "icmp"

	// ProbeHTTP sends GET to the target URL; a 2xx answer means up.
	ProbeHTTP ProbeKind = "http"
)

// ProbeResult holds the outcome of probing a single target.
type ProbeResult struct {
	// TargetName is the display name of the probed target.
	TargetName string

	// Host is the probed address.
	Host string

	// Kind is the probe that was used.
	Kind ProbeKind

	// Up is true when the target answered.
	Up bool

	// Latency is the round-trip time of the probe.
	Latency time.Duration

	// CheckedAt is the timestamp when the probe was performed.
	CheckedAt time.Time

	// Error contains any error that occurred while probing.
	Error error

	// StatusCode is the HTTP status code for HTTP probes.
	StatusCode int
}

// TargetInfo contains the configuration needed to probe a single target.
//
// This is the poller-internal representation of a target, decoupled from
// monitor.Target to avoid circular dependencies.
type TargetInfo struct {
	// Name is the display name of the target.
	Name string

	// Host is a hostname or IP for ICMP probes and a URL for HTTP probes.
	Host string

	// Kind selects the probe. Empty defaults to ICMP.
	Kind ProbeKind

	// Timeout bounds a single probe.
	Timeout time.Duration

	// Privileged makes ICMP probes use raw sockets instead of unprivileged
	// datagram sockets.
	Privileged bool
}

// probeFunc checks one target.
type probeFunc func(ctx context.Context, t TargetInfo) ProbeResult

// Scheduler manages periodic probing of multiple targets.
//
// Scheduler implements a worker pool pattern: every cycle it probes all
// targets with bounded concurrency and emits one batch with the results in
// target order. It probes immediately on start, then once per interval.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Scheduler struct {
	targets        []TargetInfo
	interval       time.Duration
	maxConcurrency int
	client         *Client
	results        chan []ProbeResult
	logger         *slog.Logger
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup

	// probes by kind; replaced in tests
	probes map[ProbeKind]probeFunc

	mu        sync.Mutex
	started   bool
	stopped   bool
	closeOnce sync.Once
}

// NewScheduler creates a new probing [Scheduler].
//
// Parameters:
//   - targets: Targets to probe, in display order
//   - interval: Time between probe cycles
//   - maxConcurrency: Maximum number of concurrent probes
//   - logger: Logger for scheduler events (probe failures, panic recovery)
//
// The scheduler must be started with [Scheduler.Start] and stopped with
// [Scheduler.Stop]. Batches are available via [Scheduler.Results].
func NewScheduler(targets []TargetInfo, interval time.Duration, maxConcurrency int, logger *slog.Logger) *Scheduler {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		targets:        targets,
		interval:       interval,
		maxConcurrency: maxConcurrency,
		client:         NewClient(),
		results:        make(chan []ProbeResult, 1),
		logger:         logger,
	}
	s.probes = map[ProbeKind]probeFunc{
		ProbeICMP: s.probeICMP,
		ProbeHTTP: s.probeHTTP,
	}
	return s
}

// Results returns a receive-only channel that emits one batch per cycle.
//
// The channel is closed when the scheduler stops. Consumers should read from
// this channel until it is closed.
func (s *Scheduler) Results() <-chan []ProbeResult {
	return s.results
}

// Start begins the probing loop in a background goroutine.
//
// Start is non-blocking and returns immediately. The scheduler will:
//  1. Probe all targets immediately
//  2. Probe all targets again every interval
//  3. Continue until [Scheduler.Stop] is called or the context is cancelled
//
// If ctx is nil, context.Background() is used as the parent context.
// Start is idempotent; subsequent calls after the first are no-ops.
// If Stop was called before Start, Start is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	probeCtx := s.ctx // capture under lock to avoid race
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.closeOnce.Do(func() { close(s.results) })

		if !s.runCycle(probeCtx) {
			return
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-probeCtx.Done():
				return
			case <-ticker.C:
				if !s.runCycle(probeCtx) {
					return
				}
			}
		}
	}()
}

// Stop halts the scheduler and waits for all goroutines to complete.
//
// Stop cancels the scheduler's context and blocks until:
//   - The probing loop exits
//   - All in-flight probes complete
//   - The results channel is closed
//
// Stop is idempotent and safe to call multiple times. Calling Stop before
// Start is a safe no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()

	// clean up client connections after all goroutines complete
	if s.client != nil {
		s.client.Close()
	}

	// ensure channel is closed even if Start() was never called
	s.closeOnce.Do(func() { close(s.results) })
}

// runCycle probes every target and emits the batch. It reports false when
// ctx ended before the batch could be delivered.
func (s *Scheduler) runCycle(ctx context.Context) bool {
	start := time.Now()
	batch := s.probeTargets(ctx)
	if ctx.Err() != nil {
		return false
	}
	metrics.ProbeCycleDuration.Observe(time.Since(start).Seconds())

	select {
	case s.results <- batch:
		return true
	case <-ctx.Done():
		return false
	}
}

// probeTargets probes all targets concurrently, respecting maxConcurrency.
// Results keep target order.
func (s *Scheduler) probeTargets(ctx context.Context) []ProbeResult {
	results := make([]ProbeResult, len(s.targets))
	jobs := make(chan int, len(s.targets))

	var wg sync.WaitGroup
	for i := 0; i < s.maxConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = s.safeProbe(ctx, s.targets[idx])
			}
		}()
	}

	for i := range s.targets {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// safeProbe runs the target's probe with panic recovery.
// If the probe panics, it logs the full stack trace with a correlation ID
// and reports the target down with an error containing the ID.
func (s *Scheduler) safeProbe(ctx context.Context, t TargetInfo) (result ProbeResult) {
	kind := t.Kind
	if kind == "" {
		kind = ProbeICMP
	}

	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			stack := debug.Stack()

			s.logger.Error("probe panic",
				"correlation_id", correlationID,
				"target", t.Name,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(stack),
			)

			result = ProbeResult{
				TargetName: t.Name,
				Host:       t.Host,
				Kind:       kind,
				CheckedAt:  time.Now(),
				Error:      fmt.Errorf("probe panic (correlation_id: %s)", correlationID),
			}
		}
		if ctx.Err() == nil {
			metrics.ObserveProbe(result.TargetName, string(result.Kind), result.Up, result.Latency.Seconds())
			s.logResult(result)
		}
	}()

	probe, ok := s.probes[kind]
	if !ok {
		return ProbeResult{
			TargetName: t.Name,
			Host:       t.Host,
			Kind:       kind,
			CheckedAt:  time.Now(),
			Error:      fmt.Errorf("unknown probe kind %q", kind),
		}
	}
	result = probe(ctx, t)
	result.TargetName = t.Name
	result.Host = t.Host
	result.Kind = kind
	return result
}

func (s *Scheduler) logResult(r ProbeResult) {
	if r.Up {
		s.logger.Debug("host is up",
			"target", r.TargetName,
			"host", r.Host,
			"latency_ms", r.Latency.Milliseconds(),
		)
		return
	}
	attrs := []any{"target", r.TargetName, "host", r.Host}
	if r.Error != nil {
		attrs = append(attrs, "error", r.Error.Error())
	}
	if r.StatusCode != 0 {
		attrs = append(attrs, "status_code", r.StatusCode)
	}
	s.logger.Info("host is down", attrs...)
}

// probeHTTP fetches the target URL; any 2xx answer is up.
func (s *Scheduler) probeHTTP(ctx context.Context, t TargetInfo) ProbeResult {
	resp := s.client.Fetch(ctx, http.MethodGet, t.Host, nil, t.Timeout)
	return ProbeResult{
		Up:         resp.OK(),
		Latency:    resp.Latency,
		CheckedAt:  time.Now(),
		Error:      resp.Error,
		StatusCode: resp.StatusCode,
	}
}

// probeICMP sends a single echo request and waits up to the target timeout
// for the reply.
func (s *Scheduler) probeICMP(ctx context.Context, t TargetInfo) ProbeResult {
	result := ProbeResult{CheckedAt: time.Now()}

	pinger, err := ping.NewPinger(t.Host)
	if err != nil {
		result.Error = fmt.Errorf("create pinger: %w", err)
		return result
	}
	pinger.Count = 1
	pinger.Interval = time.Second
	pinger.Timeout = t.Timeout
	if pinger.Timeout <= 0 {
		pinger.Timeout = time.Second
	}
	pinger.SetPrivileged(t.Privileged)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			pinger.Stop()
		case <-stop:
		}
	}()

	start := time.Now()
	if err := pinger.Run(); err != nil {
		result.Error = fmt.Errorf("ping: %w", err)
		return result
	}

	stats := pinger.Statistics()
	result.Up = stats.PacketsRecv > 0
	result.Latency = stats.AvgRtt
	if result.Latency <= 0 {
		result.Latency = time.Since(start)
	}
	if !result.Up && result.Error == nil {
		result.Error = errNoReply
	}
	return result
}

var errNoReply = errors.New("no echo reply")
