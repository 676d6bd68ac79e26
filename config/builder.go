package config

import (
	"github.com/jpalmerr/statusboard"
	"github.com/jpalmerr/statusboard/monitor"
)

// BuildOptions converts the watch section into dashboard options.
//
// The base URL is not an option; pass [Config.StatusURL] to statusboard.New.
func BuildOptions(cfg *Config) ([]statusboard.Option, error) {
	w := cfg.Watch

	strategy, err := statusboard.ParseStrategy(w.Strategy)
	if err != nil {
		return nil, err
	}

	opts := []statusboard.Option{
		statusboard.WithStrategy(strategy),
		statusboard.WithMaxAttempts(w.MaxAttempts),
		statusboard.WithBaseDelay(w.BaseDelay.Duration()),
		statusboard.WithDelayCeiling(w.DelayCeiling.Duration()),
		statusboard.WithSteadyInterval(w.SteadyInterval.Duration()),
	}

	if w.RequestTimeout != 0 {
		opts = append(opts, statusboard.WithRequestTimeout(w.RequestTimeout.Duration()))
	}

	return opts, nil
}

// BuildTargets converts the configured servers into monitor targets, in
// file order.
func BuildTargets(cfg *Config) ([]monitor.Target, error) {
	targets := make([]monitor.Target, 0, len(cfg.Serve.Servers))

	for _, sc := range cfg.Serve.Servers {
		t, err := buildTarget(sc)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}

	return targets, nil
}

// buildTarget converts a single ServerConfig to a monitor Target.
func buildTarget(sc ServerConfig) (monitor.Target, error) {
	probe, err := monitor.ParseProbe(sc.Probe)
	if err != nil {
		return monitor.Target{}, err
	}

	opts := []monitor.TargetOption{
		monitor.WithProbe(probe),
		monitor.WithPrivileged(sc.Privileged),
	}

	if sc.Timeout != 0 {
		opts = append(opts, monitor.WithTimeout(sc.Timeout.Duration()))
	}

	return monitor.NewTarget(sc.Name, sc.Host, opts...)
}

// BuildMonitorOptions converts the serve section into monitor options,
// including the targets from [BuildTargets].
func BuildMonitorOptions(cfg *Config) ([]monitor.Option, error) {
	targets, err := BuildTargets(cfg)
	if err != nil {
		return nil, err
	}

	s := cfg.Serve
	opts := []monitor.Option{
		monitor.WithTargets(targets...),
		monitor.WithPort(s.Port),
		monitor.WithProbeInterval(s.ProbeInterval.Duration()),
		monitor.WithMaxConcurrency(s.MaxConcurrency),
	}

	if s.Title != "" {
		opts = append(opts, monitor.WithTitle(s.Title))
	}
	if s.PageRefresh != 0 {
		opts = append(opts, monitor.WithPageRefresh(s.PageRefresh.Duration()))
	}

	return opts, nil
}
