// Package web provides embedded static assets (CSS, JS) for the storefront.
// In development, templates load HTMX from CDN; in production, the compiled
// and vendored files are embedded here and served at /static/.
package web

import "embed"

// StaticFS embeds the web/static/ directory tree. In Docker builds, this
// includes the compiled stylesheet and the vendored HTMX file. In local
// development it may only contain the stylesheet source.
//
//go:embed all:static
var StaticFS embed.FS
