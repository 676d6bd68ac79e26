package poller

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/http/httptrace"
	"strings"
	"testing"
	"time"
)

// TestClient_ConnectionReuse verifies that the HTTP client reuses connections
// when making sequential requests to the same host.
func TestClient_ConnectionReuse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("[]"))
	}))
	defer server.Close()

	client := NewClient()

	var reusedCount int
	trace := &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			if info.Reused {
				reusedCount++
			}
		},
	}

	const numRequests = 5

	for i := 0; i < numRequests; i++ {
		ctx := httptrace.WithClientTrace(context.Background(), trace)
		resp := client.Fetch(ctx, "", server.URL, nil, 5*time.Second)
		if resp.Error != nil {
			t.Fatalf("request %d failed: %v", i, resp.Error)
		}
	}

	expectedMinReuse := numRequests - 2 // allow some tolerance
	if reusedCount < expectedMinReuse {
		t.Errorf("expected at least %d reused connections, got %d out of %d requests",
			expectedMinReuse, reusedCount, numRequests)
	}
}

func TestClient_FetchWithoutTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Context().Deadline(); ok {
			t.Error("request context has a deadline, want none")
		}
		_, _ = w.Write([]byte(`[{"name":"A"}]`))
	}))
	defer server.Close()

	resp := NewClient().Fetch(context.Background(), http.MethodGet, server.URL, nil, 0)
	if !resp.OK() {
		t.Fatalf("OK() = false, error = %v, status = %d", resp.Error, resp.StatusCode)
	}
	if string(resp.Body) != `[{"name":"A"}]` {
		t.Errorf("Body = %q", resp.Body)
	}
}

func TestClient_FetchTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	resp := NewClient().Fetch(context.Background(), "", server.URL, nil, 50*time.Millisecond)
	if resp.Error == nil {
		t.Fatal("Fetch() error = nil, want timeout error")
	}
	if resp.OK() {
		t.Error("OK() = true for a timed out request")
	}
}

func TestClient_FetchNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	resp := NewClient().Fetch(context.Background(), "", server.URL, nil, time.Second)
	if resp.Error != nil {
		t.Fatalf("Fetch() error = %v, want nil", resp.Error)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", resp.StatusCode)
	}
	if resp.OK() {
		t.Error("OK() = true for a 500 response")
	}
}

func TestClient_FetchHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept header = %q, want application/json", got)
		}
	}))
	defer server.Close()

	resp := NewClient().Fetch(context.Background(), "", server.URL,
		map[string]string{"Accept": "application/json"}, time.Second)
	if !resp.OK() {
		t.Fatalf("OK() = false, error = %v", resp.Error)
	}
}

func TestClient_FetchBodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", MaxBodySize+100)))
	}))
	defer server.Close()

	resp := NewClient().Fetch(context.Background(), "", server.URL, nil, 5*time.Second)
	if resp.Error != nil {
		t.Fatalf("Fetch() error = %v", resp.Error)
	}
	if len(resp.Body) != MaxBodySize {
		t.Errorf("len(Body) = %d, want %d", len(resp.Body), MaxBodySize)
	}
}

func TestClient_FetchInvalidURL(t *testing.T) {
	resp := NewClient().Fetch(context.Background(), "", "://bad", nil, time.Second)
	if resp.Error == nil {
		t.Fatal("Fetch() error = nil, want request creation error")
	}
	if !strings.Contains(resp.Error.Error(), "build GET ://bad") {
		t.Errorf("error = %v, want a build error naming the request", resp.Error)
	}
	if resp.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0", resp.StatusCode)
	}
}

func TestClient_FetchUnreachableKeepsLatency(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	resp := NewClient().Fetch(context.Background(), http.MethodHead, url, nil, time.Second)
	if resp.Error == nil {
		t.Fatal("Fetch() error = nil for a closed server")
	}
	if !strings.Contains(resp.Error.Error(), "HEAD "+url) {
		t.Errorf("error = %v, want it to name HEAD %s", resp.Error, url)
	}
	if resp.StatusCode != 0 || resp.OK() {
		t.Errorf("StatusCode = %d, OK() = %v, want 0 and false", resp.StatusCode, resp.OK())
	}
	if resp.Latency <= 0 {
		t.Errorf("Latency = %v, want it recorded for failed attempts", resp.Latency)
	}
}

// TestClient_Close verifies that Close() is safe to call and idempotent.
func TestClient_Close(t *testing.T) {
	client := NewClient()
	client.Close()
	client.Close()
}

// TestClient_Close_NilClient verifies that Close() handles nil receiver safely.
func TestClient_Close_NilClient(t *testing.T) {
	var client *Client
	client.Close()
}
