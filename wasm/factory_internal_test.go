package wasm

import (
	"context"
	"log/slog"
	"testing"

	extism "github.com/extism/go-sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// contextRecorder records the level and the context error of every handled record.
type contextRecorder struct {
	levels []slog.Level
	errs   []error
}

func (r *contextRecorder) Enabled(context.Context, slog.Level) bool { return true }

func (r *contextRecorder) Handle(ctx context.Context, record slog.Record) error {
	r.levels = append(r.levels, record.Level)
	r.errs = append(r.errs, ctx.Err())
	return nil
}

func (r *contextRecorder) WithAttrs([]slog.Attr) slog.Handler { return r }
func (r *contextRecorder) WithGroup(string) slog.Handler { return r }

func TestPluginLoggerOutlivesCreationContext(t *testing.T) {
	recorder := &contextRecorder{}
	ctx, cancel := context.WithCancel(t.Context())
	log := pluginLogger(slog.New(recorder))
	cancel()
	require.Error(t, ctx.Err())

	log(extism.LogLevelDebug, "debug")
	log(extism.LogLevelInfo, "info")
	log(extism.LogLevelWarn, "warn")
	log(extism.LogLevelError, "error")

	assert.Equal(t, []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError}, recorder.levels)
	for _, err := range recorder.errs {
		assert.NoError(t, err)
	}
}
