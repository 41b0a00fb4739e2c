// Package logging builds slog loggers with console and JSON handlers, shared
// attribute helpers, and context-derived structured fields (identity, stage,
// correlation id).
package logging
