package app

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/coursereg/internal/idgen"
	"github.com/shrimpsizemoose/coursereg/internal/registration"
	"github.com/shrimpsizemoose/coursereg/internal/store"
)

// Environment overrides, also read from a .env file when present.
const (
	envDatabaseDSN = "COURSEREG_DATABASE_DSN"
	envRedisURL    = "COURSEREG_REDIS_URL"
	envAdminPass   = "COURSEREG_ADMIN_PASSWORD"
	envServerPort  = "COURSEREG_SERVER_PORT"
)

type Config struct {
	Server struct {
		Port       string `toml:"port"`
		EnableAuth bool   `toml:"enable_auth"`
	} `toml:"server"`

	Auth struct {
		RedisURL        string `toml:"redis_url"`
		TokenHeader     string `toml:"token_header"`
		TokenTTLMinutes int    `toml:"token_ttl_minutes"`
	} `toml:"auth"`

	Database struct {
		DSN            string `toml:"dsn"`
		MaxAttempts    uint   `toml:"max_attempts"`
		RetryInitialMS int    `toml:"retry_initial_ms"`
	} `toml:"database"`

	Registration registration.Policy `toml:"registration"`

	IDs struct {
		Prefix        string `toml:"prefix"`
		SequenceStart int64  `toml:"sequence_start"`
	} `toml:"ids"`

	Admin struct {
		DefaultID       string `toml:"default_id"`
		DefaultPassword string `toml:"default_password"`
	} `toml:"admin"`

	Export struct {
		Dir      string `toml:"dir"`
		Schedule string `toml:"schedule"`
	} `toml:"export"`
}

// DefaultConfig is what an empty config file resolves to.
func DefaultConfig() *Config {
	var c Config
	c.Server.Port = ":9999"
	c.Auth.TokenHeader = "Authorization"
	c.Auth.TokenTTLMinutes = 12 * 60
	c.Database.DSN = "coursereg.db"
	c.Database.MaxAttempts = store.DefaultMaxAttempts
	c.Database.RetryInitialMS = int(store.DefaultRetryInitial / time.Millisecond)
	c.Registration = registration.DefaultPolicy()
	c.IDs.Prefix = idgen.DefaultPrefix
	c.IDs.SequenceStart = idgen.DefaultStart
	c.Admin.DefaultID = "ADMIN"
	c.Admin.DefaultPassword = "adminpass"
	c.Export.Dir = "exports"
	c.Export.Schedule = "0 * * * *"
	return &c
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf(
			"error reading config file %s\n> Error: %w\n> Content:\n%s",
			path,
			err,
			string(data),
		)
	}

	_ = godotenv.Load()
	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger.Debug.Printf("Loaded registration policy: %+v", config.Registration)

	return config, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(envDatabaseDSN); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(envRedisURL); v != "" {
		c.Auth.RedisURL = v
	}
	if v := os.Getenv(envAdminPass); v != "" {
		c.Admin.DefaultPassword = v
	}
	if v := os.Getenv(envServerPort); v != "" {
		if _, err := strconv.Atoi(v); err == nil {
			v = ":" + v
		}
		c.Server.Port = v
	}
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("Server port is not specified in config, use a value like :9999")
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn is not specified in config")
	}
	if c.Server.EnableAuth && c.Auth.RedisURL == "" {
		return fmt.Errorf("auth is enabled but auth.redis_url is empty")
	}
	if err := c.Registration.Validate(); err != nil {
		return fmt.Errorf("invalid registration policy: %w", err)
	}
	return nil
}

func (c *Config) DBConfig() *store.DBConfig {
	return &store.DBConfig{
		DSN:          c.Database.DSN,
		MaxAttempts:  c.Database.MaxAttempts,
		RetryInitial: time.Duration(c.Database.RetryInitialMS) * time.Millisecond,
	}
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLMinutes) * time.Minute
}
