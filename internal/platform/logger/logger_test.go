package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/srgjo27/car_rental/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New("debug", logger.FormatJSON, &buf)

	logger.Component(l, "reservation").Debug("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "reservation", line["component"])
	assert.Equal(t, "hello", line["msg"])
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New("chatty", logger.FormatText, &buf)

	l.Debug("hidden")
	assert.Empty(t, buf.String())

	l.Info("shown")
	assert.Contains(t, buf.String(), "shown")
}
