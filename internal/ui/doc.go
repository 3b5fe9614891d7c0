// Package ui provides helpers for formatting human-readable console output.
//
// The helpers translate snapshot engine events into concise status lines so
// that commit and revert feedback remains readable for CLI users while detailed
// telemetry continues to flow through structured loggers.
package ui
