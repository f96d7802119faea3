package logger

import (
	"fmt"
	"testing"

	"github.com/mhsanaei/blogpanel/config"
	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLogsFiltersByLevel(t *testing.T) {
	Debug("debug line")
	Info("info line")
	Warning("warning line")

	logs := GetLogs(10, "INFO")
	require.NotEmpty(t, logs)
	assert.Contains(t, logs[0], "warning line")
	for _, l := range logs {
		assert.NotContains(t, l, "debug line")
	}
}

func TestGetLogsLimit(t *testing.T) {
	for i := 0; i < 5; i++ {
		Infof("line %d", i)
	}
	logs := GetLogs(2, "DEBUG")
	assert.Len(t, logs, 2)
	assert.Contains(t, logs[0], "line 4")
}

func TestBufferIsBounded(t *testing.T) {
	for i := 0; i < maxLogBufferSize+10; i++ {
		addToBuffer(logging.INFO, fmt.Sprint(i))
	}
	bufferMu.Lock()
	defer bufferMu.Unlock()
	assert.Len(t, logBuffer, maxLogBufferSize)
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel(config.Warn)
	require.NoError(t, err)
	assert.Equal(t, logging.WARNING, level)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}
