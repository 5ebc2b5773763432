// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init sets the global logger.  In dev a human readable console writer is
// used; everywhere else logs are JSON with timestamp and caller.
func Init(service, env, level string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if strings.EqualFold(env, "dev") {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	logger := New(out, service, level)
	log.Logger = logger
	zerolog.DefaultContextLogger = &logger
	return logger
}

// New builds a logger writing to out.  Unknown levels fall back to info.
func New(out io.Writer, service, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	return zerolog.New(out).Level(lvl).With().
		Timestamp().
		Caller().
		Str("service", service).
		Logger()
}
