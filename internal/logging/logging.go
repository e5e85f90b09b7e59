// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/rs/zerolog"

	"drone-city-sim/internal/config"
)

// ParseLevel maps a config string to a zerolog level. Unknown values mean info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToUpper(s) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	}
	return zerolog.InfoLevel
}

// Setup returns a logger writing colored console output to stdout, plain console
// output to file when it is not nil, and GELF to Graylog when enabled.
// A Graylog failure is returned together with a logger that works without it.
func Setup(cfg config.LogConfig, file io.Writer) (zerolog.Logger, error) {
	return setup(cfg, os.Stdout, file)
}

func setup(cfg config.LogConfig, stdout, file io.Writer) (zerolog.Logger, error) {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	writers := []io.Writer{
		zerolog.ConsoleWriter{
			Out:        stdout,
			TimeFormat: time.RFC3339,
		},
	}
	if file != nil {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        file,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		})
	}

	var graylogErr error
	if cfg.GraylogEnabled {
		gw, err := gelf.NewWriter(cfg.GraylogAddress)
		if err != nil {
			graylogErr = fmt.Errorf("connecting to graylog at %s: %w", cfg.GraylogAddress, err)
		} else {
			writers = append(writers, gw)
		}
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	return logger, graylogErr
}
