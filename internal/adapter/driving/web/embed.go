package web

import "embed"

// StaticFS holds the embedded stylesheet for thread regions.
//
//go:embed static/*
var StaticFS embed.FS
