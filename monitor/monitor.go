package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jpalmerr/statusboard"
	"github.com/jpalmerr/statusboard/internal/poller"
	"github.com/jpalmerr/statusboard/internal/server"
	"github.com/jpalmerr/statusboard/internal/store"
)

const (
	defaultProbeInterval  = 10 * time.Second
	defaultPort           = 8080
	defaultMaxConcurrency = 10
)

// Monitor probes servers and publishes their status.
//
// Monitor is the status service a [statusboard.Board] connects to. It probes
// its targets on a fixed cadence, keeps uptime per target, and serves the
// ordered list at /api/status, over a WebSocket at /ws, as a page at / and
// as Prometheus metrics at /metrics.
//
// The typical lifecycle is:
//
//	dns, _ := monitor.NewTarget("Google DNS", "8.8.8.8")
//	m, err := monitor.New(monitor.WithTarget(dns))
//	if err != nil {
//	    slog.Error("failed to create monitor", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	m.Start(ctx) // blocks until context cancelled
type Monitor struct {
	title           string
	targets         []Target
	probeInterval   time.Duration
	port            int
	maxConcurrency  int
	pageRefresh     time.Duration
	logger          *slog.Logger
	updateCallbacks []func(statusboard.Snapshot)
}

// New creates a [Monitor] with the given options.
//
// At least one target must be configured via [WithTarget] or [WithTargets].
// Other options have sensible defaults:
//   - Probe interval: 10 seconds
//   - Port: 8080
//   - Max concurrency: 10
//
// Returns an error if no targets are configured, target names repeat, or
// any option is invalid.
func New(opts ...Option) (*Monitor, error) {
	cfg := &monitorConfig{
		probeInterval:  defaultProbeInterval,
		port:           defaultPort,
		maxConcurrency: defaultMaxConcurrency,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if len(cfg.targets) == 0 {
		return nil, errors.New("at least one target is required")
	}

	// names key the uptime accounting
	seen := make(map[string]bool, len(cfg.targets))
	for _, t := range cfg.targets {
		if seen[t.name] {
			return nil, fmt.Errorf("duplicate target name: %q", t.name)
		}
		seen[t.name] = true
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	pageRefresh := cfg.pageRefresh
	if pageRefresh == 0 {
		pageRefresh = cfg.probeInterval
	}
	if pageRefresh < 0 {
		pageRefresh = 0
	}

	return &Monitor{
		title:           cfg.title,
		targets:         cfg.targets,
		probeInterval:   cfg.probeInterval,
		port:            cfg.port,
		maxConcurrency:  cfg.maxConcurrency,
		pageRefresh:     pageRefresh,
		logger:          logger,
		updateCallbacks: cfg.updateCallbacks,
	}, nil
}

// Start begins probing targets and serving their status.
//
// Start is a blocking call that runs until the provided context is cancelled
// or the HTTP server fails. During execution:
//
//   - All targets are probed immediately, then every probe interval
//   - Each cycle's results are published as one snapshot to HTTP and
//     WebSocket clients
//   - The dashboard is available at http://localhost:<port>
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server fails
// to start or stops serving.
func (m *Monitor) Start(ctx context.Context) error {
	m.logger.Info("monitor starting", "target_count", len(m.targets))
	m.logger.Info("probing configured", "interval", m.probeInterval.String())
	m.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", m.port))

	// check if context already cancelled
	if ctx.Err() != nil {
		return nil
	}

	statusStore := store.NewMemoryStore(m.toStoreServers()...)

	g, gctx := errgroup.WithContext(ctx)

	httpServer := server.NewServer(statusStore, m.port, m.title, m.pageRefresh, m.logger)
	if err := httpServer.Start(gctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	scheduler := poller.NewScheduler(m.toPollerTargets(), m.probeInterval, m.maxConcurrency, m.logger)
	scheduler.Start(gctx)

	// results consumer: store update first, callbacks after the snapshot is published
	g.Go(func() error {
		for batch := range scheduler.Results() {
			statusStore.Update(toObservations(batch)...)
			m.logCycle(batch)

			if len(m.updateCallbacks) > 0 {
				snapshot := toSnapshot(statusStore.GetAll())
				for _, cb := range m.updateCallbacks {
					invokeCallbackSafe(cb, snapshot.Clone(), m.logger)
				}
			}
		}
		return nil
	})

	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case err := <-httpServer.Errors():
			return fmt.Errorf("http server: %w", err)
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		scheduler.Stop() // closes results channel
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	m.logger.Info("monitor stopped")
	return nil
}

// Targets returns a copy of the configured targets.
func (m *Monitor) Targets() []Target {
	cp := make([]Target, len(m.targets))
	copy(cp, m.targets)
	return cp
}

// Port returns the configured HTTP port.
func (m *Monitor) Port() int {
	return m.port
}

// ProbeInterval returns the configured interval between probe cycles.
func (m *Monitor) ProbeInterval() time.Duration {
	return m.probeInterval
}

func (m *Monitor) logCycle(batch []poller.ProbeResult) {
	up := 0
	for _, r := range batch {
		if r.Up {
			up++
		}
	}
	m.logger.Debug("probe cycle completed", "up", up, "down", len(batch)-up)
}

// toPollerTargets converts targets to the poller format.
func (m *Monitor) toPollerTargets() []poller.TargetInfo {
	result := make([]poller.TargetInfo, len(m.targets))
	for i, t := range m.targets {
		result[i] = poller.TargetInfo{
			Name:       t.name,
			Host:       t.host,
			Kind:       poller.ProbeKind(t.probe),
			Timeout:    t.timeout,
			Privileged: t.privileged,
		}
	}
	return result
}

func (m *Monitor) toStoreServers() []store.Server {
	result := make([]store.Server, len(m.targets))
	for i, t := range m.targets {
		result[i] = store.Server{Name: t.name, Host: t.host}
	}
	return result
}

// toObservations converts a probe batch to store observations.
func toObservations(batch []poller.ProbeResult) []store.Observation {
	obs := make([]store.Observation, len(batch))
	for i, r := range batch {
		obs[i] = store.Observation{
			Name:         r.TargetName,
			Up:           r.Up,
			ResponseTime: r.Latency,
			CheckedAt:    r.CheckedAt,
		}
	}
	return obs
}

// toSnapshot converts stored statuses to the public snapshot type.
func toSnapshot(statuses []store.ServerStatus) statusboard.Snapshot {
	snapshot := make(statusboard.Snapshot, len(statuses))
	for i, s := range statuses {
		snapshot[i] = statusboard.Record{
			Name:         s.Name,
			Host:         s.Host,
			Status:       s.Status,
			ResponseTime: float64(s.ResponseTime),
			Uptime:       s.Uptime,
			LastChecked:  statusboard.Timestamp{Time: s.LastChecked},
		}
	}
	return snapshot
}

// invokeCallbackSafe calls an update callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(statusboard.Snapshot), snapshot statusboard.Snapshot, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("update callback panicked",
				"panic", r,
				"records", len(snapshot),
			)
		}
	}()
	cb(snapshot)
}
