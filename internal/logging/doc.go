// Package logging builds the slog loggers used across podium and provides
// shared attribute helpers so log field names stay consistent.
package logging
