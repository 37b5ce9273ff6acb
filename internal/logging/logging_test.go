package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	require.NoError(t, Init("debug", "console"))
	assert.True(t, Logger.Core().Enabled(-1))

	require.NoError(t, Init("warn", "json"))
	assert.False(t, Logger.Core().Enabled(0))
}

func TestInitRejectsBadInput(t *testing.T) {
	assert.Error(t, Init("loud", "json"))
	assert.Error(t, Init("info", "xml"))
}
