package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/adajed/searchview/internal/ingest"
	"github.com/adajed/searchview/internal/store"
)

// Config holds application configuration
type Config struct {
	// Store is the database file used when a command is given no path.
	Store string `mapstructure:"store"`

	// Ingestion
	MaxPly    int `mapstructure:"max_ply"`
	BatchSize int `mapstructure:"batch_size"`

	// Browsing
	CacheFrames int    `mapstructure:"cache_frames"`
	EcoDir      string `mapstructure:"eco_dir"`

	LogLevel string `mapstructure:"log_level"`
	Addr     string `mapstructure:"addr"`
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Store:       "search.db",
		MaxPly:      ingest.DefaultMaxPly,
		BatchSize:   store.DefaultBatchSize,
		CacheFrames: 4096,
		LogLevel:    "info",
		Addr:        ":8007",
	}
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix("SEARCHVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	cfg := Default()
	v.SetDefault("store", cfg.Store)
	v.SetDefault("max_ply", cfg.MaxPly)
	v.SetDefault("batch_size", cfg.BatchSize)
	v.SetDefault("cache_frames", cfg.CacheFrames)
	v.SetDefault("eco_dir", cfg.EcoDir)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("addr", cfg.Addr)
	return v
}

// Load reads searchview.yaml from the user config directory, the home
// directory or the working directory (later wins), then the environment.
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("searchview")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	if configDir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(configDir, "searchview"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return unmarshal(v)
}

// LoadFromFile loads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
