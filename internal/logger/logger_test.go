package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCapturedLogger(t *testing.T) (*Logger, *bytes.Buffer) {
	t.Helper()
	log, err := NewLogger(LogConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)

	var buf bytes.Buffer
	log.SetOutput(&buf)
	return log, &buf
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestNewLogger_RejectsInvalidLevel(t *testing.T) {
	_, err := NewLogger(LogConfig{Level: "verbose", Format: "json"})
	assert.Error(t, err)
}

// The token and error helpers chain: WithToken returns a logrus entry, so an
// error can be attached afterwards in one expression.
func TestWithToken_ChainsWithError(t *testing.T) {
	log, buf := newCapturedLogger(t)

	log.WithToken("MintA").WithError(errors.New("boom")).Error("Auto-sell failed")

	entry := lastEntry(t, buf)
	assert.Equal(t, "MintA", entry["mint"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "Auto-sell failed", entry["message"])
}

func TestWithComponent(t *testing.T) {
	log, buf := newCapturedLogger(t)

	log.WithComponent("watcher").Info("started")

	entry := lastEntry(t, buf)
	assert.Equal(t, "watcher", entry["component"])
}

func TestLogCandidateAlert_Fields(t *testing.T) {
	log, buf := newCapturedLogger(t)

	log.LogCandidateAlert("MintA", "AAA", 1500)

	entry := lastEntry(t, buf)
	assert.Equal(t, "candidate_alert", entry["event"])
	assert.Equal(t, "MintA", entry["mint"])
	assert.Equal(t, "AAA", entry["symbol"])
	assert.Equal(t, 1500.0, entry["volume_usd"])
}
