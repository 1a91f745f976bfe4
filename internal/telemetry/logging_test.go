package telemetry_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petasbytes/agent-chat/internal/telemetry"
)

func TestNewLogger_JSONLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := telemetry.NewLogger(&buf, "warn", true)
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	logger.Warn().Str("component", "memory").Msg("shown")

	var m map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &m))
	assert.Equal(t, "warn", m["level"])
	assert.Equal(t, "shown", m["message"])
	assert.Equal(t, "memory", m["component"])
}

func TestNewLogger_DefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := telemetry.NewLogger(&buf, "", false)
	require.NoError(t, err)

	logger.Debug().Msg("quiet")
	assert.Zero(t, buf.Len())
	logger.Info().Msg("loud")
	assert.Contains(t, buf.String(), "loud")
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := telemetry.NewLogger(&bytes.Buffer{}, "shouty", true)
	assert.Error(t, err)
}
