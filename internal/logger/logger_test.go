package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	l, err := New(Config{Level: "debug", Format: "json"})
	require.NoError(t, err)
	require.NotNil(t, l)

	_, err = New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewPlainFormat(t *testing.T) {
	l, err := New(Config{Level: "warn", Format: "plain", Output: "stderr"})
	require.NoError(t, err)
	assert.NotNil(t, l.WithComponent("spooler"))
}

func TestInitReplacesGlobal(t *testing.T) {
	before := Get()
	l, err := Init(Config{Level: "error"})
	require.NoError(t, err)
	t.Cleanup(func() { global = before })

	assert.Same(t, l, Get())
}

func TestNewTestLogger(t *testing.T) {
	l := NewTestLogger()
	// disabled level: events are nil-safe no-ops
	l.Info().Str("k", "v").Msg("discarded")
	l.WithComponent("x").Error().Msg("discarded")
}
