package statusboard

import (
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

// recordingSink implements Sink and records every call.
type recordingSink struct {
	mu      sync.Mutex
	renders []Snapshot
	modes   []Mode
	texts   []string
}

func (s *recordingSink) Render(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renders = append(s.renders, snapshot)
}

func (s *recordingSink) SetMode(mode Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modes = append(s.modes, mode)
}

func (s *recordingSink) SetErrorText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
}

func (s *recordingSink) snapshotRenders() []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Snapshot(nil), s.renders...)
}

func (s *recordingSink) snapshotModes() []Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Mode(nil), s.modes...)
}

func (s *recordingSink) snapshotTexts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

func (s *recordingSink) lastMode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.modes) == 0 {
		return ""
	}
	return s.modes[len(s.modes)-1]
}

// waitFor polls cond until it holds or the timeout elapses.
func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// fastRetries keeps retry ladders short in tests.
func fastRetries() []Option {
	return []Option{
		WithBaseDelay(5 * time.Millisecond),
		WithDelayCeiling(20 * time.Millisecond),
		WithLogger(testLogger()),
	}
}
