package statusboard

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/google/uuid"

	"github.com/jpalmerr/statusboard/internal/refresh"
)

// PermanentFailureText is the error text shown once all retries are exhausted.
const PermanentFailureText = refresh.PermanentFailureText

// Mode is the presentation mode of a [Sink].
type Mode string

const (
	// ModeLoading is shown while the first snapshot or a new channel is awaited.
	ModeLoading Mode = "loading"

	// ModeNormal shows the most recently rendered snapshot.
	ModeNormal Mode = "normal"

	// ModeError hides the snapshot and shows the current error text.
	ModeError Mode = "error"
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	return string(m)
}

// Sink displays snapshots. It is the boundary between the refresh machinery
// and whatever renders the dashboard (terminal, HTML file, test recorder).
//
// A Board calls its sink from a single goroutine. Implementations must not
// block for long: the refresh loop waits for every call to return.
type Sink interface {
	// Render replaces the displayed server list with snapshot.
	Render(snapshot Snapshot)

	// SetMode switches between the loading, normal and error presentations.
	SetMode(mode Mode)

	// SetErrorText replaces the text shown in error mode.
	SetErrorText(text string)
}

// safeSink shields the refresh loop from panicking sinks and adapts a [Sink]
// to the presenter the refresh controller drives.
type safeSink struct {
	sink   Sink
	logger *slog.Logger
}

func (s *safeSink) Render(snapshot Snapshot) {
	s.call("render", func() { s.sink.Render(snapshot) })
}

func (s *safeSink) SetMode(mode Mode) {
	s.call("set_mode", func() { s.sink.SetMode(mode) })
}

func (s *safeSink) SetErrorText(text string) {
	s.call("set_error_text", func() { s.sink.SetErrorText(text) })
}

// ShowError implements refresh.Presenter.
func (s *safeSink) ShowError() {
	s.SetMode(ModeError)
}

// call runs fn with panic recovery. Panics are logged with a correlation ID
// and the full stack trace; they never reach the refresh loop.
func (s *safeSink) call(op string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("sink panic",
				"correlation_id", uuid.NewString(),
				"op", op,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
}
