package logx

import (
	"bytes"
	"testing"

	"github.com/nia-core/server/internal/core"
	"github.com/stretchr/testify/assert"
)

func TestInitProductionWritesJSONAtInfo(t *testing.T) {
	var buf bytes.Buffer
	Init(LoggerOpts{Environment: core.Production, Writer: &buf})
	defer Silence()

	Debug().Msg("hidden")
	Info().Str("conversation_id", "c-1").Msg("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"conversation_id":"c-1"`)
}

func TestInitLevelOverride(t *testing.T) {
	var buf bytes.Buffer
	Init(LoggerOpts{Environment: core.Development, Level: "warn", Writer: &buf})
	defer Silence()

	Info().Msg("quiet")
	Warn().Msg("loud")

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}
