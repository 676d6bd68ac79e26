// Package render provides [statusboard.Sink] implementations.
//
//   - [Text]: a table on a terminal or any io.Writer
//   - [HTML]: the dashboard page written to a file on every change
//   - [Recorder]: an in-memory record of every call, for tests and embedding
//
// All sinks are safe for concurrent use and redraw only when what they show
// changes.
package render
