package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drone-city-sim/internal/config"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		"info":    zerolog.InfoLevel,
		"Warn":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestSetup_WritesConsoleAndFile(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	var stdout, file bytes.Buffer
	log, err := setup(config.LogConfig{Level: "warn"}, &stdout, &file)
	require.NoError(t, err)

	log.Info().Msg("hidden")
	log.Warn().Str("kind", "building").Msg("obstacle detected: climbing")

	assert.NotContains(t, stdout.String(), "hidden")
	assert.Contains(t, stdout.String(), "obstacle detected: climbing")
	assert.Contains(t, file.String(), "obstacle detected: climbing")
	assert.Contains(t, file.String(), "kind=building")
	assert.NotContains(t, file.String(), "\x1b[", "file output has no colors")
}

func TestSetup_WithoutFile(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	var stdout bytes.Buffer
	log, err := setup(config.LogConfig{Level: "debug"}, &stdout, nil)
	require.NoError(t, err)

	log.Debug().Msg("wind changed")
	assert.Contains(t, stdout.String(), "wind changed")
}
