// Package logging configures the global zerolog logger: human-readable lines
// on the console plus, optionally, JSON lines appended to a log file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// EnvLogFile overrides the default log file location.
const EnvLogFile = "MATERIAL_PROCESSOR_LOG"

// Options controls Setup.
type Options struct {
	// Level is debug, info, warn or error. Unknown values mean info.
	Level string
	// File receives JSON log lines. Empty disables the file sink.
	File string
	// Console receives human-readable lines; nil means stderr.
	Console io.Writer
}

// DefaultFile returns the log file path: $MATERIAL_PROCESSOR_LOG, or
// material_processor.log in the user's home directory.
func DefaultFile() string {
	if p := strings.TrimSpace(os.Getenv(EnvLogFile)); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "material_processor.log")
}

// ParseLevel maps a level name to a zerolog level.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Setup installs the global logger and returns a function that closes the
// log file, if one was opened.
func Setup(opts Options) (func() error, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	writers := []io.Writer{zerolog.ConsoleWriter{Out: console, TimeFormat: time.Kitchen}}

	closeFn := func() error { return nil }
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", opts.File, err)
		}
		writers = append(writers, f)
		closeFn = f.Close
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp().
		Logger()
	return closeFn, nil
}
