package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servercraft/authkit/pkg/logger"
)

func jsonEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew(t *testing.T) {
	t.Run("defaults to json at info level", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf))

		log.Debug("hidden")
		assert.Zero(t, buf.Len(), "debug suppressed by default")

		log.Info("hello")
		entry := jsonEntry(t, buf)
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "hello", entry["msg"])
	})

	t.Run("text formatter", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithTextFormatter())

		log.Info("hello")
		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("last formatter option wins", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(
			logger.WithOutput(buf),
			logger.WithTextFormatter(),
			logger.WithJSONFormatter(),
		)

		log.Info("hello")
		assert.Equal(t, "hello", jsonEntry(t, buf)["msg"])
	})

	t.Run("static attributes on every record", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(
			logger.WithOutput(buf),
			logger.WithAttr(slog.String("svc", "test")),
		)

		log.Info("msg")
		assert.Equal(t, "test", jsonEntry(t, buf)["svc"])
	})

	t.Run("level override", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithLevel(slog.LevelDebug))

		log.Debug("visible")
		assert.Equal(t, "visible", jsonEntry(t, buf)["msg"])
	})

	t.Run("context extractor stamps records", func(t *testing.T) {
		type ctxKey struct{}
		buf := &bytes.Buffer{}
		log := logger.New(
			logger.WithOutput(buf),
			logger.WithContextExtractors(func(ctx context.Context) (slog.Attr, bool) {
				if v, ok := ctx.Value(ctxKey{}).(string); ok {
					return slog.String("request_id", v), true
				}
				return slog.Attr{}, false
			}),
		)

		ctx := context.WithValue(context.Background(), ctxKey{}, "42")
		log.InfoContext(ctx, "with context")
		assert.Equal(t, "42", jsonEntry(t, buf)["request_id"])

		buf.Reset()
		log.Info("without context")
		assert.NotContains(t, jsonEntry(t, buf), "request_id")
	})
}

func TestWithEnvironment(t *testing.T) {
	tests := []struct {
		env     string
		wantEnv string
	}{
		{"production", "production"},
		{"prod", "production"},
		{"staging", "staging"},
		{"stage", "staging"},
		{"", "development"},
		{"local", "development"},
	}
	for _, tt := range tests {
		t.Run("env "+tt.env, func(t *testing.T) {
			buf := &bytes.Buffer{}
			log := logger.New(
				logger.WithEnvironment(tt.env, "authkit"),
				logger.WithOutput(buf),
				logger.WithJSONFormatter(),
			)

			log.Info("boot")
			entry := jsonEntry(t, buf)
			assert.Equal(t, "authkit", entry["service"])
			assert.Equal(t, tt.wantEnv, entry["env"])
		})
	}
}

func TestSetAsDefault(t *testing.T) {
	buf := &bytes.Buffer{}
	logger.SetAsDefault(logger.New(logger.WithOutput(buf)))

	slog.Info("default")
	assert.Equal(t, "default", jsonEntry(t, buf)["msg"])
}
