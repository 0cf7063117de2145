// Package web embeds the static sky viewer served at "/".
package web

import "embed"

// Content holds the embedded frontend (a single page fed by the SSE stream).
//
//go:embed index.html
var Content embed.FS
