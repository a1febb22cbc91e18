// Package logging builds the structured logger the rest of Spyglass logs
// through.
//
// Loggers are log/slog values: components receive a *slog.Logger (usually
// narrowed with With("component", ...)) and log key-value pairs. New builds
// a logger from a level and format; Setup additionally installs it as the
// process default.
//
// JSON output is the default and what log pipelines should ingest; text
// output exists for running Spyglass interactively next to the TUI.
package logging
