package render

import (
	"fmt"
	"io"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/jpalmerr/statusboard"
	"github.com/jpalmerr/statusboard/dashboard"
)

// clearScreen moves the cursor home and clears the terminal.
const clearScreen = "\033[H\033[2J"

// TextOption configures a [Text] sink.
type TextOption func(*Text)

// WithLocation sets the time zone used for the last checked column.
// Defaults to the local time zone.
func WithLocation(loc *time.Location) TextOption {
	return func(t *Text) {
		if loc != nil {
			t.loc = loc
		}
	}
}

// WithClearScreen clears the terminal before every frame instead of
// appending frames.
func WithClearScreen() TextOption {
	return func(t *Text) {
		t.clear = true
	}
}

// Text renders the dashboard as a table:
//
//	NAME        HOST     STATUS  RESPONSE  UPTIME  LAST CHECKED
//	Google DNS  8.8.8.8  up      12ms      99.9%   10:15:30
//
// Write errors are ignored; a terminal that went away has nobody to tell.
type Text struct {
	mu        sync.Mutex
	w         io.Writer
	loc       *time.Location
	clear     bool
	mode      statusboard.Mode
	errorText string
	snapshot  statusboard.Snapshot
}

// NewText creates a [Text] sink writing to w.
func NewText(w io.Writer, opts ...TextOption) *Text {
	t := &Text{
		w:         w,
		loc:       time.Local,
		errorText: dashboard.DefaultErrorText,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Render replaces the displayed server list. The table is redrawn when the
// sink is in normal mode.
func (t *Text) Render(snapshot statusboard.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snapshot = snapshot.Clone()
	if t.mode == statusboard.ModeNormal {
		t.drawLocked()
	}
}

// SetMode switches the presentation. Setting the current mode again draws
// nothing.
func (t *Text) SetMode(mode statusboard.Mode) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if mode == t.mode {
		return
	}
	t.mode = mode
	t.drawLocked()
}

// SetErrorText replaces the error message, redrawing it in error mode.
func (t *Text) SetErrorText(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if text == t.errorText {
		return
	}
	t.errorText = text
	if t.mode == statusboard.ModeError {
		t.drawLocked()
	}
}

func (t *Text) drawLocked() {
	if t.clear {
		_, _ = io.WriteString(t.w, clearScreen)
	}

	switch t.mode {
	case statusboard.ModeLoading:
		_, _ = io.WriteString(t.w, "Loading server status...\n")
	case statusboard.ModeError:
		_, _ = fmt.Fprintf(t.w, "Error: %s\n", t.errorText)
	default:
		t.drawTableLocked()
	}
}

func (t *Text) drawTableLocked() {
	if len(t.snapshot) == 0 {
		_, _ = io.WriteString(t.w, "No servers.\n")
		return
	}

	tw := tabwriter.NewWriter(t.w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tHOST\tSTATUS\tRESPONSE\tUPTIME\tLAST CHECKED")
	for _, r := range t.snapshot {
		row := rowOf(r, t.loc)
		status := "down"
		if row.Up {
			status = "up"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			row.Name, row.Host, status, row.Response, row.Uptime, row.LastChecked)
	}
	_ = tw.Flush()
}

// rowOf formats a record for display.
func rowOf(r statusboard.Record, loc *time.Location) dashboard.Row {
	return dashboard.NewRow(r.Name, r.Host, r.Status, r.ResponseTime, r.Uptime, r.LastChecked.Time, loc)
}

// compile-time check
var _ statusboard.Sink = (*Text)(nil)
