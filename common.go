// ABOUTME: Shared process setup for logging
// ABOUTME: Routes zerolog to a debug file because the terminal belongs to the UI

package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultDebugLog = "retro-radio-debug.log"

// SetupLogging configures the global logger. Without debug, logging is discarded.
// The returned func closes the log file.
func SetupLogging(debug bool, filename, level string) (func(), error) {
	if !debug {
		log.Logger = zerolog.Nop()
		return func() {}, nil
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create debug log file: %w", err)
	}

	zerolog.SetGlobalLevel(lvl)
	log.Logger = newFileLogger(f)

	fileInfo, _ := os.Stdout.Stat()
	if fileInfo != nil && (fileInfo.Mode()&os.ModeCharDevice) != 0 {
		fmt.Printf("Debug logging enabled: %s\n", filename)
	}

	return func() {
		if err := f.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close debug log: %v\n", err)
		}
	}, nil
}

func newFileLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: time.TimeOnly + ".000000",
	}).With().Timestamp().Logger()
}
