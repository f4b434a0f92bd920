// Package logger provides a thin wrapper around zerolog.Logger used by the
// securesafe packages and CLI.
//
// The Logger type embeds zerolog.Logger so all standard zerolog methods
// (Debug, Info, Warn, Error) are available directly on *Logger. Library
// packages default to Nop and receive a real logger through options.
//
// Never attach usernames, passwords, key material, nonces or ciphertext to
// a log event. Site names and counts are fine.
package logger

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is a thin wrapper around zerolog.Logger.
type Logger struct {
	zerolog.Logger
}

// ParseLevel maps a level name (debug, info, warn, error, disabled) to a
// zerolog level. The empty string means info.
func ParseLevel(level string) (zerolog.Level, error) {
	if strings.TrimSpace(level) == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("logger: unknown level %q", level)
	}
	return lvl, nil
}

// New builds a human-readable console logger writing to w at the given
// level. It is meant for the CLI, where log lines go to stderr next to
// command output.
func New(w io.Writer, level string) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	out := zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: "15:04:05"}
	l := zerolog.New(out).Level(lvl).With().Timestamp().Logger()

	return &Logger{l}, nil
}

// NewJSON builds a JSON logger writing to w. Useful when output is
// collected by another program.
func NewJSON(w io.Writer, level string) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return &Logger{zerolog.New(w).Level(lvl).With().Timestamp().Logger()}, nil
}

// Nop returns a *Logger that discards all log output.
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

// Component returns a child logger tagged with a "component" field.
func (l *Logger) Component(name string) *Logger {
	return &Logger{l.With().Str("component", name).Logger()}
}
