package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerAvailableBeforeInit(t *testing.T) {
	require.NotNil(t, Logger())
	require.NotPanics(t, func() {
		Info("message before init")
	})
}

func TestInitAcceptsLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus"} {
		require.NoError(t, Init(level), "level %s", level)
		require.NotNil(t, Logger())
	}
}

func TestWithModuleReturnsChild(t *testing.T) {
	child := WithModule("test")
	require.NotNil(t, child)
	require.NotPanics(t, func() {
		child.Info("child logger works")
	})
}
