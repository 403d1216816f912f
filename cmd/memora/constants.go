package main

// Default limits for CLI commands.
const (
	DefaultListLimit   = 50
	DefaultSearchLimit = 10
)

// Valid output formats for listing commands.
var validFormats = []string{"table", "json"}
