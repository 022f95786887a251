package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"ataxx/internal/engine"
)

const (
	DriverNone   = "none"
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Server struct {
		Host           string   `json:"host"`
		Port           int      `json:"port"`
		WebDir         string   `json:"webDir"`
		MobileWebDir   string   `json:"mobileWebDir"` // empty: same as webDir
		AllowedOrigins []string `json:"allowedOrigins"`
	} `json:"server"`
	Engine struct {
		DefaultTier string `json:"defaultTier"`
		MaxDepth    int    `json:"maxDepth"` // upper bound for per-request depth overrides
	} `json:"engine"`
	Storage struct {
		Driver        string `json:"driver"`
		SQLitePath    string `json:"sqlitePath"`
		MongoURI      string `json:"mongoUri"`
		MongoDatabase string `json:"mongoDatabase"`
	} `json:"storage"`
	Log struct {
		Level  string `json:"level"`
		Pretty bool   `json:"pretty"`
	} `json:"log"`
}

// Default is what the local server runs with when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a JSON config file, expanding ${VAR} references from the environment first.
// An empty path falls back to $ATAXX_CONFIG, and to Default when that is unset too.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("ATAXX_CONFIG")
	}
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	expanded := os.Expand(string(data), os.Getenv)

	var cfg Config
	if err := json.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.WebDir == "" {
		c.Server.WebDir = "web"
	}
	if c.Engine.DefaultTier == "" {
		c.Engine.DefaultTier = "intermediate"
	}
	if c.Engine.MaxDepth == 0 {
		c.Engine.MaxDepth = 5
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverNone
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "data/games.db"
	}
	if c.Storage.MongoDatabase == "" {
		c.Storage.MongoDatabase = "ataxx"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: port %d", ErrInvalid, c.Server.Port)
	}
	if _, err := engine.StrategyByName(c.Engine.DefaultTier); err != nil {
		return fmt.Errorf("%w: engine.defaultTier: %v", ErrInvalid, err)
	}
	if c.Engine.MaxDepth < 1 {
		return fmt.Errorf("%w: engine.maxDepth must be positive", ErrInvalid)
	}
	switch c.Storage.Driver {
	case DriverNone, DriverSQLite:
	case DriverMongo:
		if c.Storage.MongoURI == "" {
			return fmt.Errorf("%w: storage.mongoUri is required for the mongo driver", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalid, c.Storage.Driver)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	return nil
}

// Addr is host:port for http.Server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
