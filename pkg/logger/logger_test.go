package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	buf.Reset()

	return line
}

func TestMessageForms(t *testing.T) {
	var buf bytes.Buffer
	l := New("debug", Output(&buf), Service("cntext-server"))

	l.Info("submission %s accepted", "sub-1")
	line := decode(t, &buf)
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "submission sub-1 accepted", line["message"])
	assert.Equal(t, "cntext-server", line["service"])

	format := "StageController - ack - %s"
	l.Error(errors.New("broker down"), format, "ocr")
	line = decode(t, &buf)
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "broker down", line["error"])
	assert.Equal(t, "StageController - ack - ocr", line["message"])

	l.Error(errors.New("bare"))
	line = decode(t, &buf)
	assert.Equal(t, "bare", line["error"])
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := New("warn", Output(&buf))

	l.Info("dropped")
	l.Debug("dropped")
	assert.Zero(t, buf.Len())

	l.Warn("kept")
	assert.Equal(t, "kept", decode(t, &buf)["message"])
}

func TestUnknownLevelIsInfo(t *testing.T) {
	var buf bytes.Buffer
	l := New("verbose", Output(&buf))

	l.Debug("dropped")
	assert.Zero(t, buf.Len())

	l.Info("kept")
	assert.Equal(t, "kept", decode(t, &buf)["message"])
}
