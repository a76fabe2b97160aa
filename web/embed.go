// Package web provides the embedded static assets (stylesheet and
// scripts) shared by the storefront and the back office, served at
// /static/.
package web

import "embed"

// StaticFS embeds the web/static/ directory tree.
//
//go:embed all:static
var StaticFS embed.FS
