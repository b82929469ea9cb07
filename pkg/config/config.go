// Package config loads the application configuration from a TOML file and
// fills in defaults for everything the file leaves out.
package config

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/equipviz/rotorline/pkg/errors"
	"github.com/equipviz/rotorline/pkg/layout"
)

// Cache backend names accepted in the [cache] section.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the full application configuration.
type Config struct {
	Layout layout.Config `toml:"layout"`
	Server ServerConfig  `toml:"server"`
	Cache  CacheConfig   `toml:"cache"`
}

// ServerConfig configures the interactive HTTP server.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Layout: layout.DefaultConfig(),
		Server: ServerConfig{Addr: ":8080"},
		Cache:  CacheConfig{Backend: BackendFile, RedisAddr: "localhost:6379"},
	}
}

// Load reads a TOML config file, layering it over the defaults. An empty
// path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, errors.New(errors.ErrCodeFileNotFound, "config file not found: %s", path)
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Cache.Backend {
	case BackendFile, BackendRedis, BackendNone, "":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Layout.YearWidth <= 0 || c.Layout.RowHeight <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "layout dimensions must be positive")
	}
	return nil
}
