package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVitalsLogger_WritesLeveledMessages(t *testing.T) {
	dir := t.TempDir()
	SetLoggerPath(dir)
	SetCommonLoggerAttributes(LOG_LEVEL_INFO)

	var logger VitalsLogger
	require.NoError(t, logger.Init("test.log", true, false))

	assert.NoError(t, logger.LogEvent(LOG_LEVEL_WARN, "beacon rejected", 400))
	assert.NoError(t, logger.LogEvent("collector started"))
	assert.NoError(t, logger.LogEvent(LOG_LEVEL_DEBUG, "filtered out"))
	logger.Zap().Info("structured line")
	logger.DeInit()

	data, err := os.ReadFile(filepath.Join(dir, "test.log"))
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "beacon rejected 400")
	assert.Contains(t, out, "collector started")
	assert.Contains(t, out, "structured line")
	assert.NotContains(t, out, "filtered out")
}

func TestVitalsLogger_NotInitialized(t *testing.T) {
	var logger VitalsLogger
	assert.ErrorIs(t, logger.LogEvent("x"), ErrLogNotInitialized)
	assert.NotNil(t, logger.Zap())
	assert.NotPanics(t, logger.DeInit)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LOG_LEVEL_ERROR, ParseLogLevel("error"))
	assert.Equal(t, LOG_LEVEL_WARN, ParseLogLevel("Warning"))
	assert.Equal(t, LOG_LEVEL_DEBUG, ParseLogLevel("debug"))
	assert.Equal(t, LOG_LEVEL_INFO, ParseLogLevel("verbose"))
}
