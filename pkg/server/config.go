package server

import (
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/markviz/markviz/pkg/errors"
)

// Config holds the preview server configuration. It is loaded from a
// TOML file and can be overridden by MARKVIZ_* environment variables.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `toml:"addr"`

	// ReadTimeout and WriteTimeout bound request handling.
	ReadTimeout  duration `toml:"read_timeout"`
	WriteTimeout duration `toml:"write_timeout"`

	Cache CacheConfig `toml:"cache"`
	Mongo MongoConfig `toml:"mongo"`
}

// CacheConfig selects the render cache backend.
type CacheConfig struct {
	// Backend is "file", "redis", or "none".
	Backend string `toml:"backend"`

	// Dir is the file cache directory (file backend).
	Dir string `toml:"dir"`

	// Redis connection (redis backend).
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// MongoConfig selects the diagram store backend. When URI is empty the
// server falls back to the in-memory store.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// duration wraps time.Duration for TOML decoding ("30s", "1m").
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		ReadTimeout:  duration{30 * time.Second},
		WriteTimeout: duration{60 * time.Second},
		Cache: CacheConfig{
			Backend: "file",
		},
	}
}

// LoadConfig reads a TOML config file and applies environment
// overrides. An empty path returns the defaults (still subject to env
// overrides).
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "failed to load server config %s", path)
		}
	}

	applyEnv(&cfg)

	switch cfg.Cache.Backend {
	case "file", "redis", "none":
	default:
		return cfg, errors.New(errors.ErrCodeInvalidInput, "unknown cache backend: %q", cfg.Cache.Backend)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("MARKVIZ_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("MARKVIZ_CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv("MARKVIZ_CACHE_DIR"); v != "" {
		cfg.Cache.Dir = v
	}
	if v := os.Getenv("MARKVIZ_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("MARKVIZ_REDIS_PASSWORD"); v != "" {
		cfg.Cache.RedisPassword = v
	}
	if v := os.Getenv("MARKVIZ_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.RedisDB = db
		}
	}
	if v := os.Getenv("MARKVIZ_MONGO_URI"); v != "" {
		cfg.Mongo.URI = v
	}
	if v := os.Getenv("MARKVIZ_MONGO_DATABASE"); v != "" {
		cfg.Mongo.Database = v
	}
}
