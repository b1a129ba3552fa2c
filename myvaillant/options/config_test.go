package options

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/asnowfix/myvaillant/myvaillant/gateway"
	"github.com/go-logr/logr"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, name := range []string{"VAILLANT_USER", "VAILLANT_PASSWORD", "VAILLANT_SYSTEM_ID", "VAILLANT_BRAND", "VAILLANT_COUNTRY", "VAILLANT_WAIT"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func parse(t *testing.T, args ...string) *viper.Viper {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(flags)
	require.NoError(t, flags.Parse(args))
	v, err := NewViper(flags)
	require.NoError(t, err)
	return v
}

func TestNewConfigDefaults(t *testing.T) {
	clearEnv(t)
	v := parse(t, "-u", " me@example.com ", "-p", "secret")

	cfg, err := NewConfig(v, "status", "", false)
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", cfg.User)
	assert.Equal(t, "vaillant", cfg.Brand)
	assert.Equal(t, "poland", cfg.Country)
	assert.Equal(t, "", cfg.SystemID)
	assert.Equal(t, COMMAND_DEFAULT_TIMEOUT, cfg.Wait)
	assert.Equal(t, gateway.Status, cfg.Command)
	assert.Nil(t, cfg.Arg)
	assert.Equal(t, gateway.Request{Command: gateway.Status}, cfg.Request())
}

func TestNewConfigPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("VAILLANT_USER", "env@example.com")
	t.Setenv("VAILLANT_PASSWORD", "env-secret")
	t.Setenv("VAILLANT_SYSTEM_ID", "sys-env")
	t.Setenv("VAILLANT_WAIT", "30s")

	v := parse(t, "--user", "flag@example.com", "--brand", "sdbg", "--country", "France")
	cfg, err := NewConfig(v, "flow_temperature", "21.5", true)
	require.NoError(t, err)
	assert.Equal(t, "flag@example.com", cfg.User)
	assert.Equal(t, "env-secret", cfg.Password)
	assert.Equal(t, "sys-env", cfg.SystemID)
	assert.Equal(t, "sdbg", cfg.Brand)
	assert.Equal(t, "france", cfg.Country)
	assert.Equal(t, 30*time.Second, cfg.Wait)
	assert.Equal(t, 21.5, cfg.Arg)
}

func TestNewConfigErrors(t *testing.T) {
	clearEnv(t)

	v := parse(t, "-u", "me@example.com")
	_, err := NewConfig(v, "status", "", false)
	assert.ErrorIs(t, err, ErrMissingCredentials)

	v = parse(t, "-p", "secret")
	_, err = NewConfig(v, "status", "", false)
	assert.ErrorIs(t, err, ErrMissingCredentials)

	v = parse(t, "-u", "me@example.com", "-p", "secret")
	_, err = NewConfig(v, "dhw_mode", "", false)
	assert.ErrorIs(t, err, gateway.ErrMissingArgument)

	_, err = NewConfig(v, "dhw_temperature", "fifty", true)
	assert.Error(t, err)

	_, err = NewConfig(v, "reboot", "", false)
	assert.ErrorContains(t, err, "unknown command")

	v = parse(t, "-u", "me@example.com", "-p", "secret", "-b", "acme")
	_, err = NewConfig(v, "status", "", false)
	assert.Error(t, err)

	v = parse(t, "-u", "me@example.com", "-p", "secret", "--country", "atlantis")
	_, err = NewConfig(v, "status", "", false)
	assert.Error(t, err)

	v = parse(t, "-u", "me@example.com", "-p", "secret", "--wait=-1s")
	_, err = NewConfig(v, "status", "", false)
	assert.ErrorContains(t, err, "invalid wait")
}

func TestRedacted(t *testing.T) {
	cfg := Config{User: "me@example.com", Password: "secret", MqttPassword: "mqtt-secret"}
	r := cfg.Redacted()
	assert.Equal(t, "me@example.com", r.User)
	assert.NotContains(t, r.Password, "secret")
	assert.NotContains(t, r.MqttPassword, "secret")
	assert.Equal(t, "secret", cfg.Password)
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	assert.NoError(t, LoadEnvFile(logr.Discard(), filepath.Join(dir, DEFAULT_ENV_FILE), false))
	assert.Error(t, LoadEnvFile(logr.Discard(), filepath.Join(dir, "other.env"), true))

	path := filepath.Join(dir, DEFAULT_ENV_FILE)
	require.NoError(t, os.WriteFile(path, []byte("VAILLANT_USER=dotenv@example.com\nVAILLANT_PASSWORD=dotenv-secret\n"), 0600))
	t.Setenv("VAILLANT_PASSWORD", "already-set")

	require.NoError(t, LoadEnvFile(logr.Discard(), path, false))
	assert.Equal(t, "dotenv@example.com", os.Getenv("VAILLANT_USER"))
	assert.Equal(t, "already-set", os.Getenv("VAILLANT_PASSWORD"), "the environment wins over the env file")
}

func TestReadConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	v := parse(t)
	assert.NoError(t, ReadConfigFile(logr.Discard(), v, ""), "the default file is optional")
	assert.Error(t, ReadConfigFile(logr.Discard(), v, filepath.Join(t.TempDir(), "missing.yaml")))

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("user: file@example.com\npassword: file-secret\nsystem_id: sys-file\nwait: 2m\n"), 0600))
	t.Setenv("VAILLANT_PASSWORD", "env-secret")

	v = parse(t)
	require.NoError(t, ReadConfigFile(logr.Discard(), v, path))
	cfg, err := NewConfig(v, "status", "", false)
	require.NoError(t, err)
	assert.Equal(t, "file@example.com", cfg.User)
	assert.Equal(t, "env-secret", cfg.Password, "the environment wins over the config file")
	assert.Equal(t, "sys-file", cfg.SystemID)
	assert.Equal(t, 2*time.Minute, cfg.Wait)
}
