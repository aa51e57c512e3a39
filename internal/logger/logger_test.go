package logger

import (
    "bytes"
    "encoding/json"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestBuild_LevelFiltering(t *testing.T) {
    var buf bytes.Buffer
    l := build(&buf, "warn")

    l.Info().Msg("hidden")
    l.Warn().Str("k", "v").Msg("shown")

    var line map[string]any
    require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
    assert.Equal(t, "shown", line["message"])
    assert.Equal(t, "v", line["k"])
    assert.Contains(t, line, "time")
}

func TestBuild_InvalidLevelFallsBackToInfo(t *testing.T) {
    var buf bytes.Buffer
    l := build(&buf, "loud")

    assert.Contains(t, buf.String(), "invalid LOG_LEVEL")
    buf.Reset()
    l.Debug().Msg("hidden")
    assert.Empty(t, buf.String())
}
