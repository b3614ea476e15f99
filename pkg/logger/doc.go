// Package logger provides slog constructors used across the library and its
// examples: a configurable structured logger and a no-op default.
package logger
