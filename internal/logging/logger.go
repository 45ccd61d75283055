// Package logging builds the structured logger shared by indexauth commands.
package logging

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// New creates a logger writing to w. Verbose enables debug records;
// otherwise only warnings and errors are emitted. JSON selects the JSON
// handler instead of text.
func New(w io.Writer, verbose, json bool) *slog.Logger {
	options := &slog.HandlerOptions{Level: slog.LevelWarn}
	if verbose {
		options.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(w, options)
	} else {
		handler = slog.NewTextHandler(w, options)
	}
	return slog.New(handler)
}

// NewCommandLogger creates a logger on stderr: text when stderr is a
// terminal, JSON when it is piped or redirected.
func NewCommandLogger(verbose bool) *slog.Logger {
	return New(os.Stderr, verbose, !term.IsTerminal(int(os.Stderr.Fd())))
}
