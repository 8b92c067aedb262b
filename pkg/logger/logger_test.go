package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogUsableBeforeSetup(t *testing.T) {
	assert.NotNil(t, Log)
	assert.NotPanics(t, func() {
		Info("message before setup", "key", "value")
		Warn("warning before setup")
	})
}

func TestSetupReplacesGlobalLogger(t *testing.T) {
	previous := Log
	defer func() { Log = previous }()

	Setup("development")
	assert.NotNil(t, Log)
	assert.True(t, Log.Enabled(context.Background(), slog.LevelDebug))
}
