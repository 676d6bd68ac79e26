package main

import (
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// mockState tracks health and next change time for a single service.
type mockState struct {
	up           bool
	nextChangeAt time.Time
}

// StartMockHealthServer runs a mock health endpoint at /health?svc=NAME that
// flips each service between healthy (200) and failing (503) every 20-60
// seconds. Call this in a goroutine before starting the monitor.
func StartMockHealthServer(addr string) {
	var (
		states = make(map[string]*mockState)
		mu     sync.Mutex
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		svc := r.URL.Query().Get("svc")

		// simulate small latency variance
		time.Sleep(time.Duration(20+rand.Intn(120)) * time.Millisecond)

		mu.Lock()
		state, exists := states[svc]
		if !exists {
			state = &mockState{
				up:           true,
				nextChangeAt: time.Now().Add(time.Duration(20+rand.Intn(41)) * time.Second),
			}
			states[svc] = state
		}

		if time.Now().After(state.nextChangeAt) {
			state.up = !state.up
			state.nextChangeAt = time.Now().Add(time.Duration(20+rand.Intn(41)) * time.Second)
			slog.Info("health change", "service", svc, "up", state.up)
		}
		up := state.up
		mu.Unlock()

		if !up {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock server error", "error", err)
	}
}
