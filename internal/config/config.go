// Package config loads settings from an optional YAML file, a .env file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SMP_SERVER_ADDR.
const EnvPrefix = "SMP"

// Config is the complete application configuration.
type Config struct {
	Spotify SpotifyConfig `mapstructure:"spotify"`
	Model   ModelConfig   `mapstructure:"model"`
	Server  ServerConfig  `mapstructure:"server"`
	Store   StoreConfig   `mapstructure:"store"`
	Speech  SpeechConfig  `mapstructure:"speech"`
	Log     LogConfig     `mapstructure:"log"`
}

// SpotifyConfig holds catalog credentials and request settings.
type SpotifyConfig struct {
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	Market       string        `mapstructure:"market"`
	Timeout      time.Duration `mapstructure:"timeout"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	Limit        int           `mapstructure:"limit"`
}

// ModelConfig points at the classifier and dialog artifacts.
type ModelConfig struct {
	Path    string `mapstructure:"path"`
	Dialogs string `mapstructure:"dialogs"`
	// Override lets a non-neutral predicted mood replace the detected intent.
	Override bool `mapstructure:"override"`
	// MinConfidence is the class probability a prediction needs to count.
	MinConfidence float64 `mapstructure:"min_confidence"`
}

// ServerConfig holds HTTP façade settings.
type ServerConfig struct {
	Addr       string        `mapstructure:"addr"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

// StoreConfig selects optional backing services. Empty values mean
// in-memory storage.
type StoreConfig struct {
	DatabaseURL string `mapstructure:"database_url"`
	RedisAddr   string `mapstructure:"redis_addr"`
	RedisDB     int    `mapstructure:"redis_db"`
}

// SpeechConfig names the external speech-to-text command. Empty disables
// voice capture.
type SpeechConfig struct {
	Command string        `mapstructure:"command"`
	Args    []string      `mapstructure:"args"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Spotify: SpotifyConfig{
			Market:   "US",
			Timeout:  10 * time.Second,
			CacheTTL: 10 * time.Minute,
			Limit:    5,
		},
		Model: ModelConfig{
			Path:          "models/mood.json",
			Dialogs:       "data/dialogs.yaml",
			Override:      true,
			MinConfidence: 0.35,
		},
		Server: ServerConfig{
			Addr:       "127.0.0.1:8080",
			SessionTTL: 24 * time.Hour,
		},
		Speech: SpeechConfig{
			Timeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// envAliases are the conventional variable names accepted besides the
// SMP_ prefixed ones. Earlier names win.
var envAliases = map[string][]string{
	"spotify.client_id":     {"SMP_SPOTIFY_CLIENT_ID", "SPOTIFY_ID", "SPOTIPY_CLIENT_ID"},
	"spotify.client_secret": {"SMP_SPOTIFY_CLIENT_SECRET", "SPOTIFY_SECRET", "SPOTIPY_CLIENT_SECRET"},
	"store.database_url":    {"SMP_STORE_DATABASE_URL", "DATABASE_URL"},
	"store.redis_addr":      {"SMP_STORE_REDIS_ADDR", "REDIS_ADDR"},
}

// Load reads .env (if present), then the config file at path (if any),
// then environment overrides.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return Config{}, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("spotify.client_id", "")
	v.SetDefault("spotify.client_secret", "")
	v.SetDefault("spotify.market", d.Spotify.Market)
	v.SetDefault("spotify.timeout", d.Spotify.Timeout)
	v.SetDefault("spotify.cache_ttl", d.Spotify.CacheTTL)
	v.SetDefault("spotify.limit", d.Spotify.Limit)
	v.SetDefault("model.path", d.Model.Path)
	v.SetDefault("model.dialogs", d.Model.Dialogs)
	v.SetDefault("model.override", d.Model.Override)
	v.SetDefault("model.min_confidence", d.Model.MinConfidence)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.session_ttl", d.Server.SessionTTL)
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.redis_addr", "")
	v.SetDefault("store.redis_db", 0)
	v.SetDefault("speech.command", "")
	v.SetDefault("speech.timeout", d.Speech.Timeout)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", "")
}
