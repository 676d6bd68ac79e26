package dashboard

import (
	"fmt"
	"html/template"
	"io"
	"time"
)

// DefaultErrorText is shown in error mode until another text is set.
const DefaultErrorText = "Unable to reach the status service. Retrying..."

// Presentation modes of the page.
const (
	ModeLoading = "loading"
	ModeNormal  = "normal"
	ModeError   = "error"
)

var page = template.Must(template.ParseFS(Assets, "assets/index.html.tmpl"))

// Row is one server as displayed on the page. All fields are preformatted.
type Row struct {
	Name        string
	Host        string
	Up          bool
	Response    string
	Uptime      string
	LastChecked string
}

// Page is the data the dashboard template renders.
type Page struct {
	Title     string
	Mode      string
	ErrorText string
	Rows      []Row

	// RefreshSeconds adds a meta refresh to the page when positive.
	RefreshSeconds int
}

// NewRow formats one server record for display: response time is N/A for
// a down server, uptime has one decimal and the last check is a clock time
// in loc (local time when loc is nil).
func NewRow(name, host string, up bool, responseMs, uptime float64, lastChecked time.Time, loc *time.Location) Row {
	return Row{
		Name:        name,
		Host:        host,
		Up:          up,
		Response:    FormatResponse(up, responseMs),
		Uptime:      FormatUptime(uptime),
		LastChecked: FormatClock(lastChecked, loc),
	}
}

// FormatResponse renders a response time in whole milliseconds, or N/A
// when the server is down.
func FormatResponse(up bool, ms float64) string {
	if !up {
		return "N/A"
	}
	return fmt.Sprintf("%.0fms", ms)
}

// FormatUptime renders an uptime percentage with one decimal.
func FormatUptime(uptime float64) string {
	return fmt.Sprintf("%.1f%%", uptime)
}

// FormatClock renders t as a clock time. The zero time renders as "never".
func FormatClock(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "never"
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format("15:04:05")
}

// Render writes the dashboard page for p to w. An empty mode renders as
// normal; an empty error text falls back to [DefaultErrorText].
func Render(w io.Writer, p Page) error {
	if p.Mode == "" {
		p.Mode = ModeNormal
	}
	if p.ErrorText == "" {
		p.ErrorText = DefaultErrorText
	}
	if p.Title == "" {
		p.Title = "Server Status"
	}
	if err := page.Execute(w, p); err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	return nil
}
