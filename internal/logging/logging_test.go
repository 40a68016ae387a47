package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/vee/internal/logging"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := logging.New(logging.Options{Level: "warn", Format: "json", Output: &buf})
	require.NoError(t, err)

	log.Info().Msg("dropped")
	log.Warn().Str("session", "s1").Msg("kept")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "kept", line["message"])
	assert.Equal(t, "s1", line["session"])
	assert.Equal(t, "warn", line["level"])
}

func TestNew_AutoOnBufferIsJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := logging.New(logging.Options{Output: &buf})
	require.NoError(t, err)
	log.Info().Msg("x")
	assert.True(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestNew_Errors(t *testing.T) {
	_, err := logging.New(logging.Options{Level: "loud"})
	assert.Error(t, err)
	_, err = logging.New(logging.Options{Format: "xml"})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	l, err := logging.ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, l)
	l, err = logging.ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, l)
}
