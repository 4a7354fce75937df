// Package logging configures the process-wide slog logger and provides
// attribute helpers plus standardized field names for structured output.
package logging
