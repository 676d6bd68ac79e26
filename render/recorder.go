package render

import (
	"sync"

	"github.com/jpalmerr/statusboard"
)

// Recorder is a [statusboard.Sink] that keeps every call in memory.
type Recorder struct {
	mu      sync.Mutex
	renders []statusboard.Snapshot
	modes   []statusboard.Mode
	texts   []string
	changed chan struct{}
}

// NewRecorder creates an empty [Recorder].
func NewRecorder() *Recorder {
	return &Recorder{changed: make(chan struct{}, 1)}
}

func (r *Recorder) Render(snapshot statusboard.Snapshot) {
	r.mu.Lock()
	r.renders = append(r.renders, snapshot.Clone())
	r.mu.Unlock()
	r.notify()
}

func (r *Recorder) SetMode(mode statusboard.Mode) {
	r.mu.Lock()
	r.modes = append(r.modes, mode)
	r.mu.Unlock()
	r.notify()
}

func (r *Recorder) SetErrorText(text string) {
	r.mu.Lock()
	r.texts = append(r.texts, text)
	r.mu.Unlock()
	r.notify()
}

// Changed returns a channel that receives after any call. Signals coalesce:
// one receive may stand for several calls.
func (r *Recorder) Changed() <-chan struct{} {
	return r.changed
}

// Renders returns every rendered snapshot in call order.
func (r *Recorder) Renders() []statusboard.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]statusboard.Snapshot(nil), r.renders...)
}

// Modes returns every mode set in call order.
func (r *Recorder) Modes() []statusboard.Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]statusboard.Mode(nil), r.modes...)
}

// ErrorTexts returns every error text set in call order.
func (r *Recorder) ErrorTexts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

// Last returns the most recently rendered snapshot and whether there was one.
func (r *Recorder) Last() (statusboard.Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.renders) == 0 {
		return nil, false
	}
	return r.renders[len(r.renders)-1], true
}

// Mode returns the current mode, or "" before the first SetMode.
func (r *Recorder) Mode() statusboard.Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.modes) == 0 {
		return ""
	}
	return r.modes[len(r.modes)-1]
}

func (r *Recorder) notify() {
	select {
	case r.changed <- struct{}{}:
	default:
	}
}

// compile-time check
var _ statusboard.Sink = (*Recorder)(nil)
