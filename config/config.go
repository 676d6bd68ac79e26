// Package config provides YAML configuration parsing for statusboard.
//
// One file configures both sides: the watch section drives the dashboard
// client and the serve section drives the monitor it talks to.
//
// Example configuration:
//
//	watch:
//	  url: ${STATUS_URL:-http://localhost:8080}
//	  strategy: push
//	  max_attempts: 5
//	  base_delay: 5s
//	  delay_ceiling: 30s
//
//	serve:
//	  title: Server Status
//	  port: 8080
//	  probe_interval: 10s
//	  servers:
//	    - name: Google DNS
//	      host: 8.8.8.8
//	    - name: API
//	      host: https://api.example.com/health
//	      probe: http
//	      timeout: 5s
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/statusboard"
	"github.com/jpalmerr/statusboard/monitor"
)

// minProbeInterval is the minimum allowed probe interval for configs.
// This prevents accidental flooding of monitored hosts.
const minProbeInterval = 1 * time.Second

// Config is the root configuration structure.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Watch configures the dashboard client.
	Watch WatchConfig `yaml:"watch"`

	// Serve configures the monitor that probes servers and publishes status.
	Serve ServeConfig `yaml:"serve"`
}

// WatchConfig configures how the dashboard refreshes.
type WatchConfig struct {
	// URL is the base URL of the status service.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	// Defaults to the local serve port.
	URL string `yaml:"url"`

	// Strategy is "poll" or "push". Defaults to poll.
	Strategy string `yaml:"strategy"`

	// MaxAttempts is the number of consecutive failures before the
	// dashboard gives up. Defaults to 5.
	MaxAttempts int `yaml:"max_attempts"`

	// BaseDelay is the first retry delay. Defaults to 5s.
	BaseDelay Duration `yaml:"base_delay"`

	// DelayCeiling caps the retry delay. Defaults to 30s.
	DelayCeiling Duration `yaml:"delay_ceiling"`

	// SteadyInterval is the poll cadence while healthy. Defaults to 5s.
	SteadyInterval Duration `yaml:"steady_interval"`

	// RequestTimeout bounds each status request. Zero means no timeout.
	RequestTimeout Duration `yaml:"request_timeout"`
}

// ServeConfig configures the monitor.
type ServeConfig struct {
	// Title is the dashboard title. Defaults to "Server Status" if not set.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// ProbeInterval is the time between probe cycles.
	// Accepts duration strings like "10s", "1m". Defaults to 10s.
	ProbeInterval Duration `yaml:"probe_interval"`

	// MaxConcurrency limits simultaneous probes. Defaults to 10.
	MaxConcurrency int `yaml:"max_concurrency"`

	// PageRefresh is how often the server-rendered page reloads itself.
	// Zero follows the probe interval; a negative value disables reloading.
	PageRefresh Duration `yaml:"page_refresh"`

	// Servers lists the probed servers in display order.
	Servers []ServerConfig `yaml:"servers"`
}

// ServerConfig defines a single probed server.
type ServerConfig struct {
	// Name is the display name shown in the dashboard.
	Name string `yaml:"name"`

	// Host is a hostname or IP for icmp probes and a URL for http probes.
	// Supports environment variable substitution.
	Host string `yaml:"host"`

	// Probe is "icmp" or "http". Defaults to icmp.
	Probe string `yaml:"probe"`

	// Timeout bounds a single probe. Defaults to 1s.
	Timeout Duration `yaml:"timeout"`

	// Privileged makes icmp probes use raw sockets.
	Privileged bool `yaml:"privileged"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in URLs and hosts are expanded after parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Defaults are applied to both sections before validation. A config must
// name either a status service URL or at least one server to probe.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// StatusURL returns the base URL the dashboard connects to: watch.url when
// set, otherwise the local monitor on serve.port.
func (c *Config) StatusURL() string {
	if c.Watch.URL != "" {
		return c.Watch.URL
	}
	return fmt.Sprintf("http://localhost:%d", c.Serve.Port)
}

func (c *Config) applyDefaults() {
	w := &c.Watch
	if w.Strategy == "" {
		w.Strategy = string(statusboard.StrategyPoll)
	}
	if w.MaxAttempts == 0 {
		w.MaxAttempts = 5
	}
	if w.BaseDelay == 0 {
		w.BaseDelay = Duration(5 * time.Second)
	}
	if w.DelayCeiling == 0 {
		w.DelayCeiling = Duration(30 * time.Second)
	}
	if w.SteadyInterval == 0 {
		w.SteadyInterval = Duration(5 * time.Second)
	}

	s := &c.Serve
	if s.Title == "" {
		s.Title = "Server Status"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ProbeInterval == 0 {
		s.ProbeInterval = Duration(10 * time.Second)
	}
	if s.MaxConcurrency == 0 {
		s.MaxConcurrency = 10
	}
	for i := range s.Servers {
		if s.Servers[i].Probe == "" {
			s.Servers[i].Probe = string(monitor.ProbeICMP)
		}
		if s.Servers[i].Timeout == 0 {
			s.Servers[i].Timeout = Duration(time.Second)
		}
	}
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if err := c.Watch.expandAndValidate(); err != nil {
		return err
	}
	if err := c.Serve.expandAndValidate(); err != nil {
		return err
	}

	if c.Watch.URL == "" && len(c.Serve.Servers) == 0 {
		return errors.New("config must define watch.url or at least one server under serve.servers")
	}
	return nil
}

func (w *WatchConfig) expandAndValidate() error {
	if w.URL != "" {
		expanded, err := expandEnvVars(w.URL)
		if err != nil {
			return fmt.Errorf("watch.url: %w", err)
		}
		w.URL = expanded

		if err := validateHTTPURL(w.URL); err != nil {
			return fmt.Errorf("watch.url: %w", err)
		}
	}

	if _, err := statusboard.ParseStrategy(w.Strategy); err != nil {
		return fmt.Errorf("watch.strategy: %w", err)
	}
	if w.MaxAttempts < 1 {
		return fmt.Errorf("watch.max_attempts must be at least 1, got %d", w.MaxAttempts)
	}
	if w.BaseDelay.Duration() < 0 {
		return fmt.Errorf("watch.base_delay cannot be negative, got %s", w.BaseDelay.Duration())
	}
	if w.DelayCeiling.Duration() < w.BaseDelay.Duration() {
		return fmt.Errorf("watch.delay_ceiling (%s) must not be less than base_delay (%s)",
			w.DelayCeiling.Duration(), w.BaseDelay.Duration())
	}
	if w.SteadyInterval.Duration() < 0 {
		return fmt.Errorf("watch.steady_interval cannot be negative, got %s", w.SteadyInterval.Duration())
	}
	if w.RequestTimeout.Duration() < 0 {
		return fmt.Errorf("watch.request_timeout cannot be negative, got %s", w.RequestTimeout.Duration())
	}
	return nil
}

func (s *ServeConfig) expandAndValidate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("serve.port must be between 1 and 65535, got %d", s.Port)
	}
	if s.ProbeInterval.Duration() < minProbeInterval {
		return fmt.Errorf("serve.probe_interval must be at least %s, got %s", minProbeInterval, s.ProbeInterval.Duration())
	}
	if s.MaxConcurrency < 1 {
		return fmt.Errorf("serve.max_concurrency must be at least 1, got %d", s.MaxConcurrency)
	}

	seen := make(map[string]int, len(s.Servers))
	for i := range s.Servers {
		srv := &s.Servers[i]

		if srv.Name == "" {
			return fmt.Errorf("servers[%d]: name is required", i)
		}
		if first, dup := seen[srv.Name]; dup {
			return fmt.Errorf("servers[%d] (%s): duplicate name, first used by servers[%d]", i, srv.Name, first)
		}
		seen[srv.Name] = i

		if srv.Host == "" {
			return fmt.Errorf("servers[%d] (%s): host is required", i, srv.Name)
		}
		expanded, err := expandEnvVars(srv.Host)
		if err != nil {
			return fmt.Errorf("servers[%d] (%s): host: %w", i, srv.Name, err)
		}
		srv.Host = expanded

		probe, err := monitor.ParseProbe(srv.Probe)
		if err != nil {
			return fmt.Errorf("servers[%d] (%s): %w", i, srv.Name, err)
		}
		if probe == monitor.ProbeHTTP {
			if err := validateHTTPURL(srv.Host); err != nil {
				return fmt.Errorf("servers[%d] (%s): host: %w", i, srv.Name, err)
			}
		}

		if srv.Timeout.Duration() <= 0 {
			return fmt.Errorf("servers[%d] (%s): timeout must be positive, got %s",
				i, srv.Name, srv.Timeout.Duration())
		}
		if srv.Timeout.Duration() > s.ProbeInterval.Duration() {
			return fmt.Errorf("servers[%d] (%s): timeout must not exceed probe_interval (%s), got %s",
				i, srv.Name, s.ProbeInterval.Duration(), srv.Timeout.Duration())
		}
	}
	return nil
}

func validateHTTPURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Scheme == "" {
		return errors.New("url must have a scheme (http:// or https://)")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("url must include a host")
	}
	return nil
}
