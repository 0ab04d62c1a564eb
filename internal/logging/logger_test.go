package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("writes json with service field", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(Config{Level: "info", Format: "json", Output: &buf, Service: "test"})

		logger.Info().Str("category", "processor").Msg("hello")

		var line map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "hello", line["message"])
		assert.Equal(t, "test", line["service"])
		assert.Equal(t, "processor", line["category"])
	})

	t.Run("filters below configured level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(Config{Level: "warn", Output: &buf})

		logger.Info().Msg("dropped")
		assert.Empty(t, buf.String())

		logger.Warn().Msg("kept")
		assert.Contains(t, buf.String(), "kept")
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(Config{Level: "loud", Output: &buf})

		logger.Debug().Msg("dropped")
		logger.Info().Msg("kept")
		assert.NotContains(t, buf.String(), "dropped")
		assert.Contains(t, buf.String(), "kept")
	})
}

func TestContextLogger(t *testing.T) {
	t.Run("returns default without logger", func(t *testing.T) {
		assert.Equal(t, Default(), FromContext(context.Background()))
	})

	t.Run("request id is stored and logged", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(Config{Output: &buf})
		ctx := WithLogger(context.Background(), &logger)
		ctx = WithRequestID(ctx, "req-123")

		assert.Equal(t, "req-123", RequestID(ctx))

		FromContext(ctx).Info().Msg("with id")
		assert.Contains(t, buf.String(), `"request_id":"req-123"`)
	})
}
