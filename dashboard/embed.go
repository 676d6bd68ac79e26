// Package dashboard provides the embedded HTML page of the status dashboard.
//
// This package uses Go's embed directive to include the page template at
// compile time, so both the monitor and the HTML file sink ship as a single
// binary without external asset files.
//
// The monitor serves the rendered page at "/"; the render package writes it
// to a file on every change.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the dashboard template.
//
// The filesystem structure is:
//
//	assets/
//	  index.html.tmpl - Dashboard page with inline CSS
//
//go:embed assets/*
var Assets embed.FS
