package options

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/asnowfix/myvaillant/myvaillant/gateway"
	"github.com/asnowfix/myvaillant/pkg/vaillant"
	"github.com/go-logr/logr"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var ErrMissingCredentials = errors.New("API user credentials not specified")

// Config is everything one invocation needs, validated
type Config struct {
	User         string
	Password     string
	Brand        string
	Country      string
	SystemID     string
	Command      gateway.Command
	Arg          any
	Wait         time.Duration
	Publish      string // MQTT topic, empty = do not publish
	MqttBroker   string
	MqttUser     string
	MqttPassword string
}

// Redacted returns a copy safe to log
func (c Config) Redacted() Config {
	if c.Password != "" {
		c.Password = "*redacted*"
	}
	if c.MqttPassword != "" {
		c.MqttPassword = "*redacted*"
	}
	return c
}

func (c Config) Request() gateway.Request {
	return gateway.Request{
		SystemID: c.SystemID,
		Command:  c.Command,
		Arg:      c.Arg,
	}
}

// flag name -> viper key; the key also names the environment variable (VAILLANT_<KEY>)
var flagKeys = map[string]string{
	"user":          "user",
	"password":      "password",
	"system":        "system_id",
	"brand":         "brand",
	"country":       "country",
	"wait":          "wait",
	"publish":       "publish",
	"mqtt-broker":   "mqtt_broker",
	"mqtt-user":     "mqtt_user",
	"mqtt-password": "mqtt_password",
}

// AddFlags declares the flags shared by all commands
func AddFlags(flags *pflag.FlagSet) {
	flags.StringP("user", "u", "", "Username (email address) for the myVAILLANT app (env VAILLANT_USER)")
	flags.StringP("password", "p", "", "Password for the myVAILLANT app (env VAILLANT_PASSWORD)")
	flags.StringP("system", "s", "", "System ID, default is the first home's system (env VAILLANT_SYSTEM_ID)")
	flags.StringP("brand", "b", vaillant.DEFAULT_BRAND, fmt.Sprintf("Brand the account is registered with, one of %v", vaillant.BrandKeys()))
	flags.String("country", vaillant.DEFAULT_COUNTRY, "Country the account is registered in, e.g. 'germany'")
	flags.StringP("arg", "a", "", "Command argument")
	flags.BoolP("verbose", "v", false, "verbose output (debug level)")
	flags.DurationP("wait", "w", COMMAND_DEFAULT_TIMEOUT, "Maximum time to wait for the command to finish (0 = wait indefinitely)")
	flags.StringP("config", "c", "", "Configuration file (default "+DefaultConfigFile()+")")
	flags.String("env-file", DEFAULT_ENV_FILE, "dotenv file to load credentials from")
	flags.String("publish", "", "Also publish the result to this MQTT topic")
	flags.StringP("mqtt-broker", "B", "", "MQTT broker host[:port] for --publish (default is to discover it from the network)")
	flags.String("mqtt-user", "", "MQTT username for --publish")
	flags.String("mqtt-password", "", "MQTT password for --publish")
}

// NewViper returns a viper reading VAILLANT_* environment variables, bound to the
// given flags
func NewViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			return nil, fmt.Errorf("flag --%s not declared", name)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func DefaultConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "myvaillant", "config.yaml")
}

// ReadConfigFile loads an optional YAML configuration file. A missing file is an
// error only when it was explicitly asked for.
func ReadConfigFile(log logr.Logger, v *viper.Viper, path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile()
	}
	if _, err := os.Stat(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			log.V(1).Info("No configuration file", "path", path)
			return nil
		}
		return fmt.Errorf("configuration file: %w", err)
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading configuration file %s: %w", path, err)
	}
	log.Info("Using configuration", "file", path)
	return nil
}

// LoadEnvFile adds the variables of a dotenv file to the environment, without
// overriding the ones already set. A missing default file is not an error.
func LoadEnvFile(log logr.Logger, path string, explicit bool) error {
	err := godotenv.Load(path)
	if err == nil {
		log.Info("Loaded environment", "file", path)
		return nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		log.V(1).Info("No environment file", "path", path)
		return nil
	}
	return fmt.Errorf("loading environment file %s: %w", path, err)
}

// NewConfig builds and validates the configuration of one command. It never
// touches the network.
func NewConfig(v *viper.Viper, command string, rawArg string, argGiven bool) (*Config, error) {
	cmd, err := gateway.ParseCommand(command)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		User:         strings.TrimSpace(v.GetString("user")),
		Password:     v.GetString("password"),
		Brand:        v.GetString("brand"),
		Country:      strings.ToLower(v.GetString("country")),
		SystemID:     strings.TrimSpace(v.GetString("system_id")),
		Command:      cmd,
		Wait:         v.GetDuration("wait"),
		Publish:      v.GetString("publish"),
		MqttBroker:   v.GetString("mqtt_broker"),
		MqttUser:     v.GetString("mqtt_user"),
		MqttPassword: v.GetString("mqtt_password"),
	}

	if cfg.User == "" || cfg.Password == "" {
		return nil, ErrMissingCredentials
	}
	if err := vaillant.ValidateBrand(cfg.Brand); err != nil {
		return nil, err
	}
	if err := vaillant.ValidateCountry(cfg.Country); err != nil {
		return nil, err
	}
	if cfg.Wait < 0 {
		return nil, fmt.Errorf("invalid wait %v", cfg.Wait)
	}

	cfg.Arg, err = gateway.ParseArgument(cmd, rawArg, argGiven)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewAccount is NewConfig for commands that only need to log in
func NewAccount(v *viper.Viper) (*Config, error) {
	return NewConfig(v, gateway.Status.String(), "", false)
}
