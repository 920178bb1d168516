// Package config loads debcube settings from defaults, an optional config.yaml in
// the workspace, DEBCUBE_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ralt/debcube/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix      = "DEBCUBE"
	ConfigName     = "config"
	ConfigType     = "yaml"
	DefaultArch    = "amd64"
	DefaultLevel   = "info"
	FormatText     = "text"
	FormatJSON     = "json"
	DefaultWorkDir = "."
)

// Config holds the resolved settings
type Config struct {
	Workspace string    `mapstructure:"workspace"`
	Arch      string    `mapstructure:"arch"`
	Verbose   bool      `mapstructure:"verbose"`
	Log       LogConfig `mapstructure:"log"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultConfig returns the built-in settings
func DefaultConfig() *Config {
	return &Config{
		Workspace: DefaultWorkDir,
		Arch:      DefaultArch,
		Log: LogConfig{
			Level:  DefaultLevel,
			Format: FormatText,
		},
	}
}

// flagKeys maps flag names to configuration keys
var flagKeys = map[string]string{
	"workspace": "workspace",
	"arch":      "arch",
	"verbose":   "verbose",
	"log-level": "log.level",
}

// LoadConfig resolves the configuration. configFile, when set, must exist;
// otherwise config.yaml is looked up in the workspace and may be absent.
// flags may be nil.
func LoadConfig(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("workspace", def.Workspace)
	v.SetDefault("arch", def.Arch)
	v.SetDefault("verbose", false)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, configError(fmt.Errorf("failed to bind flag %s: %w", name, err))
				}
			}
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType(ConfigType)
		v.AddConfigPath(v.GetString("workspace"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
			logrus.Debug("No config file found, using defaults")
		case configFile == "" && errors.Is(err, os.ErrNotExist):
			logrus.Debug("No config file found, using defaults")
		default:
			return nil, configError(fmt.Errorf("failed to read config: %w", err))
		}
	} else {
		logrus.Debugf("Using config file %s", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configError(fmt.Errorf("failed to decode config: %w", err))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Arch) == "" {
		return configError(errors.New("arch must not be empty"))
	}
	if c.Workspace == "" {
		return configError(errors.New("workspace must not be empty"))
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return configError(fmt.Errorf("log.level: %w", err))
	}
	if c.Log.Format != FormatText && c.Log.Format != FormatJSON {
		return configError(fmt.Errorf("log.format: unsupported format %q", c.Log.Format))
	}
	return nil
}

// ApplyLogging configures the package-level logger. Verbose forces debug.
func (c *Config) ApplyLogging() {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	if c.Verbose {
		level = logrus.DebugLevel
	}
	logrus.SetLevel(level)

	if c.Log.Format == FormatJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func configError(err error) error {
	return &models.CubeError{Type: models.ErrInvalidConfig, Err: err}
}
