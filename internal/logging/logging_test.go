package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomz197/reactyl/internal/config"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.Log{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Debug("reaction", "formula", "CH4O")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "reaction", line["msg"])
	assert.Equal(t, "CH4O", line["formula"])
	assert.Equal(t, "reactyl", line["prefix"])
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.Log{Level: "warn", Format: "logfmt"}, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "tick", 3)
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "tick=3")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(config.Log{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)
	_, err = New(config.Log{Level: "info", Format: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() { Discard().Error("dropped") })
}
