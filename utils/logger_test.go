package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetLogger(t *testing.T) {
	prev := Logger()
	defer SetLogger(prev)

	core, logs := observer.New(zapcore.WarnLevel)
	SetLogger(zap.New(core))

	Logger().Warn("stock low", zap.Uint("product_id", 7))

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "stock low", entries[0].Message)
	assert.Equal(t, uint64(7), entries[0].ContextMap()["product_id"])
}

func TestInitLogger(t *testing.T) {
	prev := Logger()
	defer SetLogger(prev)

	l := InitLogger("debug", "", false)
	assert.NotNil(t, l)
	assert.Same(t, l, Logger())
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	// Unknown levels fall back to info.
	l = InitLogger("chatty", "", true)
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
}
