package logger_test

import (
	"bytes"
	"testing"

	"github.com/Bhuvan-2005/SecLyzer/internal/errors"
	"github.com/Bhuvan-2005/SecLyzer/internal/logger"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logger.DebugLevel, logger.ParseLevel("debug"))
	assert.Equal(t, logger.InfoLevel, logger.ParseLevel("INFO"))
	assert.Equal(t, logger.WarnLevel, logger.ParseLevel("warning"))
	assert.Equal(t, logger.ErrorLevel, logger.ParseLevel("error"))
	assert.Equal(t, logger.InfoLevel, logger.ParseLevel("bogus"))
}

func TestComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithWriter(&buf, "debug", true)
	defer logger.SetLogLevel(logger.InfoLevel)

	log := logger.With("keystroke")
	log.Info().Int("features", 49).Msg("Emitted feature vector")

	out := buf.String()
	assert.Contains(t, out, "component=keystroke")
	assert.Contains(t, out, "features=49")
	assert.Contains(t, out, "Emitted feature vector")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithWriter(&buf, "warning", true)
	defer logger.SetLogLevel(logger.InfoLevel)

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestErrorWithCode(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithWriter(&buf, "info", true)
	defer logger.SetLogLevel(logger.InfoLevel)

	err := errors.New().New(errors.ErrPublish)
	logger.With("publish").ErrorWithCode(err).Msg("emit failed")

	assert.Contains(t, buf.String(), "error_code=publish_failed")
}

func TestNopDiscards(t *testing.T) {
	assert.NotPanics(t, func() {
		logger.Nop().Error().Str("k", "v").Msg("dropped")
	})
}
