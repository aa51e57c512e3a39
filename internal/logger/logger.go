// Package logger builds the zerolog logger shared by the server and worker.
package logger

import (
    "io"
    "os"
    "time"

    "github.com/rs/zerolog"
)

// New returns a timestamped logger.  Outside production it writes through a
// console writer; in production it emits JSON lines.  An unknown level
// falls back to info and is reported once at warn.
func New(production bool, level string) zerolog.Logger {
    var out io.Writer = os.Stderr
    if !production {
        out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
    }
    return build(out, level)
}

func build(out io.Writer, level string) zerolog.Logger {
    lvl, err := zerolog.ParseLevel(level)
    if err != nil || level == "" {
        lvl = zerolog.InfoLevel
    }
    l := zerolog.New(out).Level(lvl).With().Timestamp().Logger()
    if err != nil {
        l.Warn().Str("configured_log_level", level).Err(err).Msg("invalid LOG_LEVEL, defaulting to info")
    }
    return l
}
