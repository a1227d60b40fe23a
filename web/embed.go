package web

import "embed"

// EmbeddedFS holds page templates and static assets for release builds.
//
//go:embed templates static
var EmbeddedFS embed.FS
