package triviagen

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// SetupLogger builds the process logger. format "pretty" gives human-readable
// console output, anything else JSON. Unknown levels fall back to info.
func SetupLogger(level, format string, out io.Writer) zerolog.Logger {
	writer := out
	if format == "pretty" {
		writer = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	return zerolog.New(writer).
		With().
		Timestamp().
		Logger()
}
