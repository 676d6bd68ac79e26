package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/websocket"

	"github.com/jpalmerr/statusboard/dashboard"
	"github.com/jpalmerr/statusboard/internal/metrics"
	"github.com/jpalmerr/statusboard/internal/store"
)

const (
	// pushWriteTimeout is the maximum time allowed for a single push write.
	// This prevents goroutine leaks when clients are slow or disconnected.
	// Must be <= shutdown timeout to ensure clean shutdown.
	pushWriteTimeout = 5 * time.Second

	// shutdownTimeout bounds graceful shutdown of in-flight requests.
	shutdownTimeout = 5 * time.Second

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "Server Status"
)

// Server handles HTTP requests for the status monitor.
//
// Server provides four endpoints:
//   - GET /: Server-rendered dashboard page
//   - GET /api/status: Returns all current statuses as a JSON array
//   - /ws: WebSocket channel pushing the full array after every update
//   - GET /metrics: Prometheus metrics
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	store       store.Store
	port        int
	title       string
	pageRefresh time.Duration
	logger      *slog.Logger
	httpServer  *http.Server
	errs        chan error

	mu   sync.Mutex
	addr net.Addr
}

// NewServer creates a new HTTP [Server].
//
// Parameters:
//   - st: Store implementation for status data
//   - port: TCP port to listen on (0 picks a free port)
//   - title: Dashboard title (defaults to "Server Status" if empty)
//   - pageRefresh: How often the dashboard page reloads itself (0 = never)
//   - logger: Logger for server events
//
// The server is not started until [Server.Start] is called.
func NewServer(st store.Store, port int, title string, pageRefresh time.Duration, logger *slog.Logger) *Server {
	if title == "" {
		title = defaultTitle
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:       st,
		port:        port,
		title:       title,
		pageRefresh: pageRefresh,
		logger:      logger,
		errs:        make(chan error, 1),
	}
}

// Handler returns the request router of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", s.handleStatus)
	mux.Handle("/ws", websocket.Server{Handler: s.handlePush})
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/", s.handleDashboard)

	return mux
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown with a 5-second
// timeout. A failure while serving is delivered on [Server.Errors].
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		// BaseContext derives all request contexts from the server context.
		// When ctx is cancelled, all request contexts are also cancelled,
		// which ends long-running push handlers on shutdown.
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
			s.errs <- err
		}
	}()

	// shutdown on context cancellation
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	s.logger.Info("status server listening", "addr", ln.Addr().String())
	return nil
}

// Errors returns a channel that receives the error that stopped the server
// from serving, if any.
func (s *Server) Errors() <-chan error {
	return s.errs
}

// Addr returns the address the server listens on, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// handleDashboard serves the server-rendered dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	statuses := s.store.GetAll()
	rows := make([]dashboard.Row, len(statuses))
	for i, st := range statuses {
		rows[i] = dashboard.NewRow(st.Name, st.Host, st.Status,
			float64(st.ResponseTime), st.Uptime, st.LastChecked, nil)
	}

	var buf bytes.Buffer
	err := dashboard.Render(&buf, dashboard.Page{
		Title:          s.title,
		Mode:           dashboard.ModeNormal,
		Rows:           rows,
		RefreshSeconds: int(s.pageRefresh / time.Second),
	})
	if err != nil {
		s.logger.Error("failed to render dashboard", "error", err)
		http.Error(w, "Dashboard unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Error("failed to write dashboard response", "error", err)
	}
}

// handleStatus returns all current statuses as a JSON array in configured
// order. Cross-origin reads are allowed.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	statuses := s.store.GetAll()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")

	if err := json.NewEncoder(w).Encode(statuses); err != nil {
		s.logger.Error("failed to encode status response", "error", err)
	}
}

// handlePush streams the full status array over a WebSocket: once on
// connect, then after every store update.
//
// Writes carry a deadline so a stalled client cannot pin the handler. A
// reader goroutine notices when the client goes away.
func (s *Server) handlePush(ws *websocket.Conn) {
	logger := s.logger.With("client_id", uuid.NewString())
	ctx := ws.Request().Context()

	metrics.PushClients.Inc()
	defer metrics.PushClients.Dec()
	defer func() { _ = ws.Close() }()

	logger.Debug("push client connected", "remote_addr", ws.Request().RemoteAddr)

	// subscribe before the initial send so no update falls in between
	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		_, _ = io.Copy(io.Discard, ws)
	}()

	if err := s.send(ws, s.store.GetAll()); err != nil {
		logger.Debug("push client write failed", "error", err.Error())
		return
	}

	for {
		select {
		case snapshot, ok := <-ch:
			if !ok {
				return
			}
			if err := s.send(ws, snapshot); err != nil {
				logger.Debug("push client write failed", "error", err.Error())
				return
			}

		case <-gone:
			logger.Debug("push client disconnected")
			return

		case <-ctx.Done():
			// request context is derived from server context via BaseContext,
			// so this fires on server shutdown
			return
		}
	}
}

// send writes one snapshot as a JSON text frame under the write deadline.
func (s *Server) send(ws *websocket.Conn, snapshot []store.ServerStatus) error {
	if err := ws.SetWriteDeadline(time.Now().Add(pushWriteTimeout)); err != nil {
		metrics.PushMessagesTotal.WithLabelValues("failure").Inc()
		return err
	}
	if err := websocket.JSON.Send(ws, snapshot); err != nil {
		metrics.PushMessagesTotal.WithLabelValues("failure").Inc()
		return err
	}
	metrics.PushMessagesTotal.WithLabelValues("success").Inc()
	return nil
}
