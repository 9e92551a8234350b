package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("")
	assert.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, level)

	level, err = ParseLevel(" DEBUG ")
	assert.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, level)

	_, err = ParseLevel("chatty")
	assert.Error(t, err)
}

func TestNewWritesJSONToBuffers(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, zerolog.InfoLevel, FormatAuto)

	log.Debug().Msg("hidden")
	log.Info().Str("branch", "HOME/Food").Msg("branch created")

	var line map[string]any
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "HOME/Food", line["branch"])
	assert.Equal(t, "branch created", line["message"])
	_, ok := line["time"]
	assert.True(t, ok)
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, zerolog.InfoLevel, FormatConsole)
	log.Info().Str("branch", "HOME").Msg("loaded")
	assert.Contains(t, buf.String(), "loaded")
	assert.Contains(t, buf.String(), "branch=HOME")
}

func TestContext(t *testing.T) {
	assert.Equal(t, zerolog.Disabled, FromContext(context.Background()).GetLevel())

	var buf bytes.Buffer
	ctx := WithContext(context.Background(), New(&buf, zerolog.InfoLevel, FormatJSON))
	log := FromContext(ctx)
	log.Info().Msg("from context")
	assert.Contains(t, buf.String(), "from context")
}
