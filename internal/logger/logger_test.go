package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("console output goes to the configured writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(Config{Level: "info", Console: true, Output: &buf})
		require.NoError(t, err)
		defer logger.Close()

		logger.Info().Str("command", "open firefox").Msg("Command received")
		assert.Contains(t, buf.String(), `"message":"Command received"`)
		assert.Contains(t, buf.String(), `"command":"open firefox"`)
	})

	t.Run("pretty console output", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(Config{Level: "info", Console: true, Pretty: true, Output: &buf})
		require.NoError(t, err)
		defer logger.Close()

		logger.Info().Msg("Kernel ready")
		assert.Contains(t, buf.String(), "Kernel ready")
		assert.NotContains(t, buf.String(), `"message"`)
	})

	t.Run("file output", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "logs", "kernel.log")

		logger, err := New(Config{Level: "debug", File: logFile})
		require.NoError(t, err)

		logger.Debug().Msg("test message")
		require.NoError(t, logger.Close())

		content, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(content), "test message")
	})

	t.Run("rotating file output", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "kernel.log")

		logger, err := New(Config{Level: "info", File: logFile, MaxSize: 1, MaxAge: 7})
		require.NoError(t, err)
		_, ok := logger.closer.(*RotatingWriter)
		assert.True(t, ok)
		require.NoError(t, logger.Close())
	})

	t.Run("redaction", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(Config{Level: "info", Console: true, Redaction: true, Output: &buf})
		require.NoError(t, err)
		defer logger.Close()
		assert.NotNil(t, logger.redactor)

		logger.Info().Str("params", "password=hunter2").Msg("Command received")
		assert.NotContains(t, buf.String(), "hunter2")
		assert.Contains(t, buf.String(), "[REDACTED]")
	})

	t.Run("level filtering", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(Config{Level: "warn", Console: true, Output: &buf})
		require.NoError(t, err)
		defer logger.Close()

		logger.Info().Msg("hidden")
		logger.Warn().Msg("shown")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		logger, err := New(Config{Level: "loud"})
		require.NoError(t, err)
		assert.Equal(t, zerolog.InfoLevel, logger.GetZerolog().GetLevel())
	})

	t.Run("unwritable log directory", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(blocker, nil, 0o644))

		_, err := New(Config{File: filepath.Join(blocker, "kernel.log")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create log directory")
	})
}

func TestLoggerMethods(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "debug", Console: true, Output: &buf})
	require.NoError(t, err)
	defer logger.Close()

	logger.Debug().Msg("debug message")
	logger.Info().Msg("info message")
	logger.Warn().Msg("warn message")
	logger.Error().Msg("error message")

	out := buf.String()
	for _, level := range []string{"debug", "info", "warn", "error"} {
		assert.Contains(t, out, `"level":"`+level+`"`)
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Console: true, Output: &buf})
	require.NoError(t, err)

	child := logger.Component("bridge")
	child.Info().Msg("Bridge started")
	assert.Contains(t, buf.String(), `"component":"bridge"`)

	ctx := logger.With().Str("session_id", "abc")
	session := ctx.Logger()
	session.Info().Msg("x")
	assert.Contains(t, buf.String(), `"session_id":"abc"`)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.True(t, cfg.Console)
	assert.False(t, cfg.Pretty)
	assert.True(t, cfg.Redaction)
	assert.Equal(t, 100, cfg.MaxSize)
	assert.Equal(t, 7, cfg.MaxAge)
	assert.True(t, cfg.Compress)
	assert.Nil(t, cfg.Output)
}
