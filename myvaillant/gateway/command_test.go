package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSwitch(t *testing.T) {
	for _, s := range []string{"true", "1", "yes", "on", "True", "YES", "On"} {
		assert.True(t, ParseSwitch(s), s)
	}
	for _, s := range []string{"", "false", "0", "no", "off", "y", "t", " on", "2", "enabled"} {
		assert.False(t, ParseSwitch(s), s)
	}
}

func TestParseCommand(t *testing.T) {
	for _, c := range Commands {
		got, err := ParseCommand(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseCommand("reboot")
	assert.ErrorContains(t, err, "unknown command")
}

func TestParseArgument(t *testing.T) {
	arg, err := ParseArgument(Status, "ignored", true)
	require.NoError(t, err)
	assert.Nil(t, arg)

	arg, err = ParseArgument(DHWTemperature, "55", true)
	require.NoError(t, err)
	assert.Equal(t, 55, arg)

	arg, err = ParseArgument(FlowTemperature, "21.5", true)
	require.NoError(t, err)
	assert.Equal(t, 21.5, arg)

	arg, err = ParseArgument(DHWMode, "Yes", true)
	require.NoError(t, err)
	assert.Equal(t, true, arg)
}

func TestParseArgumentErrors(t *testing.T) {
	for _, c := range []Command{DHWMode, DHWTemperature, FlowTemperature} {
		_, err := ParseArgument(c, "", false)
		assert.ErrorIs(t, err, ErrMissingArgument, c)
	}

	_, err := ParseArgument(DHWTemperature, "hot", true)
	assert.Error(t, err)
	_, err = ParseArgument(DHWTemperature, "55.5", true)
	assert.Error(t, err)
	_, err = ParseArgument(FlowTemperature, "warm", true)
	assert.Error(t, err)
	_, err = ParseArgument(FlowTemperature, "NaN", true)
	assert.Error(t, err)
}
