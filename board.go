package statusboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/jpalmerr/statusboard/internal/poller"
	"github.com/jpalmerr/statusboard/internal/refresh"
)

var (
	// ErrRetriesExhausted is returned by [Board.Run] when the configured number
	// of consecutive attempts failed and the board gave up.
	ErrRetriesExhausted = errors.New("connection lost: retries exhausted")

	// ErrAlreadyRunning is returned by [Board.Run] when the board is already running.
	ErrAlreadyRunning = errors.New("board is already running")
)

// RefreshState is a point-in-time view of a running board's retry state.
type RefreshState struct {
	// AttemptCount is the number of consecutive failures since the last
	// success or since the board started.
	AttemptCount int

	// Active reports whether further attempts may be scheduled. It becomes
	// permanently false when retries are exhausted or the board is halted.
	Active bool

	// Pending reports whether an attempt is scheduled but has not started.
	Pending bool
}

// Board is a status dashboard client. It keeps a [Sink] up to date with the
// server list published by a status service, using one refresh strategy and
// retrying with exponential backoff when the service is unreachable.
//
// The typical lifecycle is:
//
//	b, err := statusboard.New("http://localhost:8080", sink,
//	    statusboard.WithStrategy(statusboard.StrategyPush),
//	)
//	if err != nil {
//	    slog.Error("failed to create board", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	err = b.Run(ctx) // blocks until ctx is cancelled or retries are exhausted
type Board struct {
	baseURL           *url.URL
	statusURL         string
	channelURL        string
	origin            string
	sink              *safeSink
	strategy          Strategy
	policy            refresh.Policy
	requestTimeout    time.Duration
	logger            *slog.Logger
	clock             refresh.Clock
	snapshotCallbacks []func(Snapshot)
	client            *poller.Client

	mu      sync.Mutex
	running bool
	halted  bool
	ctl     *refresh.Controller
	cancel  context.CancelFunc
}

// New creates a [Board] for the status service at baseURL.
//
// baseURL must be an http:// or https:// URL. The poll strategy fetches
// <baseURL>/api/status; the push strategy connects to <baseURL>/ws using
// ws:// or wss:// to match the scheme.
//
// Defaults:
//   - Strategy: poll
//   - Max attempts: 5
//   - Base delay: 5 seconds, doubling per failure up to a 30 second ceiling
//   - Steady interval: 5 seconds
//   - Request timeout: none
//
// Returns an error if the URL or sink is invalid or any option is invalid.
func New(baseURL string, sink Sink, opts ...Option) (*Board, error) {
	if sink == nil {
		return nil, errors.New("sink cannot be nil")
	}

	u, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	cfg := &boardConfig{
		strategy: StrategyPoll,
		policy:   refresh.DefaultPolicy(),
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.policy.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Board{
		baseURL:           u,
		statusURL:         u.JoinPath("api", "status").String(),
		channelURL:        channelURL(u),
		origin:            u.Scheme + "://" + u.Host,
		sink:              &safeSink{sink: sink, logger: logger},
		strategy:          cfg.strategy,
		policy:            cfg.policy,
		requestTimeout:    cfg.requestTimeout,
		logger:            logger,
		clock:             cfg.clock,
		snapshotCallbacks: cfg.snapshotCallbacks,
		client:            poller.NewClient(),
	}, nil
}

// Run refreshes the sink until ctx is cancelled, [Board.Halt] is called, or
// retries are exhausted.
//
// The sink starts in loading mode. Every run starts from a fresh retry state.
// Returns nil on teardown, [ErrRetriesExhausted] when the board gave up, and
// [ErrAlreadyRunning] if another Run is in progress. After Halt, Run returns
// nil immediately.
func (b *Board) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return ErrAlreadyRunning
	}
	if b.halted || ctx.Err() != nil {
		b.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	ctl := refresh.NewController(b.policy, b.sink, b.clock, b.logger)
	b.running = true
	b.ctl = ctl
	b.cancel = cancel
	b.mu.Unlock()

	defer func() {
		ctl.Halt()
		cancel()
		b.mu.Lock()
		b.running = false
		b.mu.Unlock()
		b.client.Close()
	}()

	b.logger.Info("statusboard starting",
		"strategy", b.strategy.String(),
		"url", b.baseURL.String(),
		"max_attempts", b.policy.MaxAttempts,
	)

	b.sink.SetMode(ModeLoading)

	switch b.strategy {
	case StrategyPush:
		b.runPush(runCtx, ctl)
	default:
		b.runPoll(runCtx, ctl)
	}

	if ctl.State().Exhausted {
		return ErrRetriesExhausted
	}
	b.logger.Info("statusboard stopped")
	return nil
}

// Halt stops the board: the pending attempt is cancelled, an open push
// channel is closed, and no further attempt is made. Halt is idempotent and
// safe to call from any goroutine, before or during Run.
func (b *Board) Halt() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.halted = true
	if b.ctl != nil {
		b.ctl.Halt()
	}
	if b.cancel != nil {
		b.cancel()
	}
}

// State returns the retry state of the current or most recent run.
// Before the first run it returns the zero value.
func (b *Board) State() RefreshState {
	b.mu.Lock()
	ctl := b.ctl
	b.mu.Unlock()

	if ctl == nil {
		return RefreshState{}
	}
	st := ctl.State()
	return RefreshState{
		AttemptCount: st.AttemptCount,
		Active:       st.Active,
		Pending:      st.Pending,
	}
}

// Strategy returns the configured refresh strategy.
func (b *Board) Strategy() Strategy {
	return b.strategy
}

// deliver renders a snapshot and notifies snapshot callbacks.
func (b *Board) deliver(snapshot Snapshot) {
	b.sink.Render(snapshot)
	for _, cb := range b.snapshotCallbacks {
		invokeCallbackSafe(cb, snapshot.Clone(), b.logger)
	}
}

// invokeCallbackSafe calls a snapshot callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(Snapshot), snapshot Snapshot, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("snapshot callback panicked",
				"panic", r,
				"records", len(snapshot),
			)
		}
	}()
	cb(snapshot)
}

func parseBaseURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, errors.New("status service URL cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.New("URL must include a host")
	}
	return u, nil
}

// channelURL derives the push channel address: a secure page gets a secure
// channel, anything else a plain one.
func channelURL(base *url.URL) string {
	u := *base
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.JoinPath("ws").String()
}
