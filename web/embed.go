package web

import "embed"

// TemplatesFS embeds the page and the ledger partial.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds static assets.
//
//go:embed static/*
var StaticFS embed.FS
