package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := New("debug", FormatJSON, buf)
	require.NoError(t, err)

	log.Debug().Str("bank", "Amex").Msg("scanning")

	out := buf.String()
	assert.Contains(t, out, `"level":"debug"`)
	assert.Contains(t, out, `"bank":"Amex"`)
	assert.Contains(t, out, `"message":"scanning"`)
}

func TestNew_Console(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := New("", "", buf)
	require.NoError(t, err)

	log.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
}

func TestNew_LevelFilters(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := New("warn", FormatJSON, buf)
	require.NoError(t, err)

	log.Info().Msg("quiet")
	assert.Empty(t, buf.String())

	log.Warn().Msg("loud")
	assert.Contains(t, buf.String(), "loud")
}

func TestNew_BadInput(t *testing.T) {
	_, err := New("shouty", FormatJSON, &bytes.Buffer{})
	assert.Error(t, err)

	_, err = New("info", "xml", &bytes.Buffer{})
	assert.ErrorContains(t, err, "unknown log format")
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel(" WARN ")
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, lvl)
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := New("info", FormatJSON, buf)
	require.NoError(t, err)
	ctx := WithContext(context.Background(), log)

	ctxLog := FromContext(ctx)
	ctxLog.Info().Msg("from ctx")
	assert.Contains(t, buf.String(), "from ctx")
}

func TestFromContext_Default(t *testing.T) {
	log := FromContext(context.Background())
	assert.NotEqual(t, zerolog.Disabled, log.GetLevel())
}

func TestWithRunID(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := New("info", FormatJSON, buf)
	require.NoError(t, err)

	runLog := WithRunID(log, "run-1")
	runLog.Info().Msg("x")
	assert.Contains(t, buf.String(), `"run_id":"run-1"`)
}
