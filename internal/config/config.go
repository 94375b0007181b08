// Package config loads homedash settings from configs/config.yml and
// HOMEDASH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Configuration errors are fatal at startup.
var (
	ErrMissingSigningKey = errors.New("config: auth.signing_key is required")
	ErrMissingDBPath     = errors.New("config: db.path is required")
	ErrInvalidTimezone   = errors.New("config: display.timezone is not a known location")
	ErrInvalidHistory    = errors.New("config: history.limit and history.max_points must be positive")
)

const envPrefix = "HOMEDASH"

type Config struct {
	Port    string        `mapstructure:"port"`
	DB      DBConfig      `mapstructure:"db"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Log     LogConfig     `mapstructure:"log"`
	MQTT    MQTTConfig    `mapstructure:"mqtt"`
	History HistoryConfig `mapstructure:"history"`
	Chart   ChartConfig   `mapstructure:"chart"`
	Display DisplayConfig `mapstructure:"display"`
	Demo    DemoConfig    `mapstructure:"demo"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	SigningKey   string        `mapstructure:"signing_key"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
	ResetTTL     time.Duration `mapstructure:"reset_ttl"`
	CookieName   string        `mapstructure:"cookie_name"`
	SecureCookie bool          `mapstructure:"secure_cookie"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MQTTConfig enables the command relay when Broker is set.
type MQTTConfig struct {
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	TopicPrefix string `mapstructure:"topic_prefix"`
}

type HistoryConfig struct {
	Limit     int `mapstructure:"limit"`
	MaxPoints int `mapstructure:"max_points"`
}

type ChartConfig struct {
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
}

type DisplayConfig struct {
	Timezone string `mapstructure:"timezone"`
}

type DemoConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	HomeID  string `mapstructure:"home_id"`
}

// SetDefaults registers the fallback for every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("db.path", "homedash.db")
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("auth.reset_ttl", time.Hour)
	v.SetDefault("auth.cookie_name", "homedash_session")
	v.SetDefault("auth.secure_cookie", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", "homedash")
	v.SetDefault("mqtt.topic_prefix", "homedash")
	v.SetDefault("history.limit", 200)
	v.SetDefault("history.max_points", 200)
	v.SetDefault("chart.width", 800)
	v.SetDefault("chart.height", 160)
	v.SetDefault("display.timezone", "Europe/Paris")
	v.SetDefault("demo.enabled", false)
	v.SetDefault("demo.home_id", "demo")
}

// Load reads configs/config.yml (or file, when set) over the defaults and
// environment. A missing config file is not an error.
func Load(v *viper.Viper, file string) (Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath("configs") // configs/config.yml
		v.SetConfigName("config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate reports the first configuration error.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.SigningKey) == "" {
		return ErrMissingSigningKey
	}
	if strings.TrimSpace(c.DB.Path) == "" {
		return ErrMissingDBPath
	}
	if _, err := time.LoadLocation(c.Display.Timezone); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTimezone, c.Display.Timezone)
	}
	if c.History.Limit <= 0 || c.History.MaxPoints <= 0 {
		return ErrInvalidHistory
	}
	return nil
}

// Location returns the display timezone. Validate guarantees it loads.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Display.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
