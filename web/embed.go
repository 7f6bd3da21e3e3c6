// Package web embeds the chat page template and its static assets.
package web

import "embed"

// TemplatesFS contains the page templates.
//
//go:embed all:templates
var TemplatesFS embed.FS

// StaticFS contains the CSS and JavaScript served under /static.
//
//go:embed all:static
var StaticFS embed.FS
