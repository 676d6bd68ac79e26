package render

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jpalmerr/statusboard"
	"github.com/jpalmerr/statusboard/dashboard"
)

// HTMLOption configures an [HTML] sink.
type HTMLOption func(*HTML)

// WithTitle sets the page title. Defaults to "Server Status".
func WithTitle(title string) HTMLOption {
	return func(h *HTML) {
		h.title = title
	}
}

// WithPageRefresh makes the browser reload the file every d. Zero disables
// the reload.
func WithPageRefresh(d time.Duration) HTMLOption {
	return func(h *HTML) {
		h.refresh = d
	}
}

// WithHTMLLocation sets the time zone of the last checked column.
func WithHTMLLocation(loc *time.Location) HTMLOption {
	return func(h *HTML) {
		if loc != nil {
			h.loc = loc
		}
	}
}

// WithHTMLLogger sets the logger used to report write failures.
func WithHTMLLogger(logger *slog.Logger) HTMLOption {
	return func(h *HTML) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// HTML writes the dashboard page to a file whenever what it shows changes.
// Each write goes to a temporary file in the same directory that is then
// renamed over the target, so readers never see a partial page.
type HTML struct {
	path    string
	title   string
	refresh time.Duration
	loc     *time.Location
	logger  *slog.Logger

	mu        sync.Mutex
	mode      statusboard.Mode
	errorText string
	snapshot  statusboard.Snapshot
	lastErr   error
}

// NewHTML creates an [HTML] sink writing to path. The file is not touched
// until the first call.
func NewHTML(path string, opts ...HTMLOption) (*HTML, error) {
	if path == "" {
		return nil, errors.New("output path cannot be empty")
	}
	h := &HTML{
		path:   path,
		loc:    time.Local,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Render replaces the displayed server list.
func (h *HTML) Render(snapshot statusboard.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.snapshot = snapshot.Clone()
	if h.mode == statusboard.ModeNormal {
		h.writeLocked()
	}
}

// SetMode switches the presentation. Setting the current mode again writes
// nothing.
func (h *HTML) SetMode(mode statusboard.Mode) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if mode == h.mode {
		return
	}
	h.mode = mode
	h.writeLocked()
}

// SetErrorText replaces the error message.
func (h *HTML) SetErrorText(text string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if text == h.errorText {
		return
	}
	h.errorText = text
	if h.mode == statusboard.ModeError {
		h.writeLocked()
	}
}

// Err returns the error of the most recent write, or nil.
func (h *HTML) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastErr
}

func (h *HTML) writeLocked() {
	h.lastErr = h.writeFileLocked()
	if h.lastErr != nil {
		h.logger.Error("failed to write dashboard page",
			"path", h.path,
			"error", h.lastErr.Error(),
		)
	}
}

func (h *HTML) writeFileLocked() error {
	rows := make([]dashboard.Row, len(h.snapshot))
	for i, r := range h.snapshot {
		rows[i] = rowOf(r, h.loc)
	}

	var buf bytes.Buffer
	err := dashboard.Render(&buf, dashboard.Page{
		Title:          h.title,
		Mode:           h.mode.String(),
		ErrorText:      h.errorText,
		Rows:           rows,
		RefreshSeconds: int(h.refresh / time.Second),
	})
	if err != nil {
		return err
	}

	return writeFileAtomic(h.path, buf.Bytes())
}

// writeFileAtomic replaces path with data via a temporary file and rename.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// compile-time check
var _ statusboard.Sink = (*HTML)(nil)
