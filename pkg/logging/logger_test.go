package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) (*Logger, *bytes.Buffer) {
	t.Helper()
	logger, err := NewLogger(&Config{
		Level:       "debug",
		Format:      "json",
		Output:      "stdout",
		ServiceName: "pressbot-test",
		Version:     "test",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	logger.SetOutput(&buf)
	return logger, &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNewLogger_InvalidConfig(t *testing.T) {
	_, err := NewLogger(&Config{Level: "nope", Format: "json", Output: "stdout"})
	assert.Error(t, err)

	_, err = NewLogger(&Config{Level: "info", Format: "xml", Output: "stdout"})
	assert.Error(t, err)
}

func TestLogger_KeyValuePairs(t *testing.T) {
	logger, buf := newTestLogger(t)

	logger.Info("stage finished", "stage", "deploy", "duration_ms", 125)

	entry := decodeLine(t, buf)
	assert.Equal(t, "stage finished", entry["message"])
	assert.Equal(t, "deploy", entry["stage"])
	assert.Equal(t, float64(125), entry["duration_ms"])
	assert.Equal(t, "pressbot-test", entry["service"])
}

func TestLogger_FatalDoesNotExit(t *testing.T) {
	logger, buf := newTestLogger(t)

	// Reaching the assertions below is the point: Fatal must only log.
	logger.Fatal("unrecoverable failure", "category", "internal")

	entry := decodeLine(t, buf)
	assert.Equal(t, "fatal", entry["level"])
	assert.Equal(t, "internal", entry["category"])
}

func TestLogger_LogStageEvent(t *testing.T) {
	logger, buf := newTestLogger(t)

	logger.LogStageEvent("stage_started", "run-1", "generate", nil)

	entry := decodeLine(t, buf)
	assert.Equal(t, "stage_started", entry["event"])
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "generate", entry["stage"])
}

func TestNewRunID_Unique(t *testing.T) {
	assert.NotEqual(t, NewRunID(), NewRunID())
}
