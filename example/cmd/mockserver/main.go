// Standalone flaky status service for trying the watch command.
//
// It serves a fixed server list at /api/status and over /ws, and goes dark
// for 15 seconds every minute so the retry ladder can be observed.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/statusboard watch -c example/config.yaml
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"time"

	"golang.org/x/net/websocket"
)

type record struct {
	Name         string    `json:"name"`
	Host         string    `json:"host"`
	Status       bool      `json:"status"`
	ResponseTime int64     `json:"responseTime"`
	Uptime       float64   `json:"uptime"`
	LastChecked  time.Time `json:"lastChecked"`
}

var started = time.Now()

// outage reports whether the service is currently pretending to be down.
func outage() bool {
	return time.Since(started)%time.Minute >= 45*time.Second
}

func snapshot() []record {
	now := time.Now()
	hosts := []struct{ name, host string }{
		{"Google DNS", "8.8.8.8"},
		{"Cloudflare DNS", "1.1.1.1"},
		{"Router", "192.168.1.1"},
	}
	out := make([]record, len(hosts))
	for i, h := range hosts {
		up := rand.Intn(10) > 0
		var rt int64
		if up {
			rt = int64(5 + rand.Intn(40))
		}
		out[i] = record{
			Name:         h.name,
			Host:         h.host,
			Status:       up,
			ResponseTime: rt,
			Uptime:       90 + rand.Float64()*10,
			LastChecked:  now,
		}
	}
	return out
}

func main() {
	fmt.Println("Flaky status service starting on :8080")
	fmt.Println("Unavailable for 15s of every minute")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		if outage() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(snapshot())
	})

	mux.Handle("/ws", websocket.Handler(func(ws *websocket.Conn) {
		defer func() { _ = ws.Close() }()
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()

		for {
			if outage() {
				slog.Info("dropping push client")
				return
			}
			if err := websocket.JSON.Send(ws, snapshot()); err != nil {
				return
			}
			<-ticker.C
		}
	}))

	if err := http.ListenAndServe(":8080", mux); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
