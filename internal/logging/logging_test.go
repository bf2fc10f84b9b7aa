package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BrandonDHaskell/doorbot/internal/logging"
)

func TestNew_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doorbot.log")

	logger, closeFn, err := logging.New(logging.Options{Level: "info", Env: "prod", File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("door opened", zap.String("rfid", "1001"))
	closeFn()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"door opened"`)
	assert.Contains(t, string(data), `"rfid":"1001"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestNew_BadLevel(t *testing.T) {
	_, _, err := logging.New(logging.Options{Level: "loud"})
	assert.Error(t, err)
}

func TestNew_DefaultLevel(t *testing.T) {
	logger, closeFn, err := logging.New(logging.Options{})
	require.NoError(t, err)
	defer closeFn()

	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}
