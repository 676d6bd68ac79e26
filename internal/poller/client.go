package poller

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MaxBodySize is the most a status snapshot, probe reply or push message may
// occupy. Longer HTTP bodies are cut at this length.
const MaxBodySize = 1 << 20

// Transport limits. The status fetcher talks to one host; the HTTP probes fan
// out across every configured server.
const (
	idleConnsTotal   = 100
	idleConnsPerHost = 10
	connsPerHost     = 10
	idleConnLifetime = time.Minute
)

// Response is the outcome of one [Client.Fetch].
type Response struct {
	// Body is the (possibly truncated) reply body.
	Body []byte

	// StatusCode is 0 when no reply arrived.
	StatusCode int

	// Latency runs from the start of Fetch until the body was read or the
	// attempt failed. HTTP probes report it as the server's response time.
	Latency time.Duration

	// Error is set when the request could not be built, sent or read. A
	// non-2xx status alone is not an error.
	Error error
}

// OK reports whether the request completed with a 2xx status code.
func (r Response) OK() bool {
	return r.Error == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Client issues the dashboard's status fetches and the monitor's HTTP probes
// over one keep-alive transport.
//
// There is no client-wide timeout. Each Fetch carries its own, so a status
// fetch may wait as long as its context allows while a probe gives up after
// the target's timeout.
type Client struct {
	httpClient *http.Client
}

// NewClient returns a [Client] with its own pooled transport.
func NewClient() *Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        idleConnsTotal,
		MaxIdleConnsPerHost: idleConnsPerHost,
		MaxConnsPerHost:     connsPerHost,
		IdleConnTimeout:     idleConnLifetime,
	}
	return &Client{httpClient: &http.Client{Transport: transport}}
}

// Fetch sends a bodyless request and reads at most [MaxBodySize] bytes of the
// reply. An empty method means GET. A timeout of zero leaves the request
// bounded by ctx alone.
//
// The returned Response always carries the latency; failures land in its
// Error field.
func (c *Client) Fetch(ctx context.Context, method, url string, headers map[string]string, timeout time.Duration) Response {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if method == "" {
		method = http.MethodGet
	}

	start := time.Now()
	failed := func(status int, err error) Response {
		return Response{StatusCode: status, Latency: time.Since(start), Error: err}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return failed(0, fmt.Errorf("build %s %s: %w", method, url, err))
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return failed(0, fmt.Errorf("%s %s: %w", method, url, err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return failed(resp.StatusCode, fmt.Errorf("read reply from %s: %w", url, err))
	}

	return Response{
		Body:       body,
		StatusCode: resp.StatusCode,
		Latency:    time.Since(start),
	}
}

// Close drops idle pooled connections. The client stays usable afterwards.
// Close is safe on a nil client and may be called repeatedly.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if t, ok := c.httpClient.Transport.(*http.Transport); ok {
		t.CloseIdleConnections()
	}
}
