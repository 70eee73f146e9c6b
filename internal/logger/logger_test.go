package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	assert.Equal(t, logrus.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("chatty"))
	assert.Equal(t, logrus.InfoLevel, ParseLevel(""))

	t.Setenv("LOG_LEVEL", "warn")
	assert.Equal(t, logrus.WarnLevel, ParseLevel("debug"))
}

func TestInitWritesJSONToFile(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	closer, err := Init(Options{Service: "test-svc", Level: "debug", Path: path})
	require.NoError(t, err)
	t.Cleanup(func() {
		Logger.SetOutput(os.Stderr)
		closer.Close()
	})

	For("planner").WithField("date", "2024-06-01").Debug("flushed")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(data, &line))
	assert.Equal(t, "flushed", line["message"])
	assert.Equal(t, "debug", line["level"])
	assert.Equal(t, "test-svc", line["service"])
	assert.Equal(t, "planner", line["component"])
	assert.Contains(t, line, "ts")
}
