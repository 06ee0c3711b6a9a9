package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DialectMySQL    = "mysql"
	DialectPostgres = "postgres"

	EnvDevelopment = "development"
	EnvProduction  = "production"
)

var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set before the server accepts requests")

type Config struct {
	App      AppConfig      `toml:"app"`
	Auth     AuthConfig     `toml:"auth"`
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	RabbitMQ RabbitMQConfig `toml:"rabbitmq"`
}

type AppConfig struct {
	Name    string `toml:"name" env:"APP_NAME"`
	Env     string `toml:"env" env:"APP_ENV"`
	Host    string `toml:"host" env:"APP_HOST"`
	Port    int    `toml:"port" env:"APP_PORT"`
	GinMode string `toml:"gin_mode" env:"GIN_MODE"`
}

type DatabaseConfig struct {
	Dialect string `toml:"dialect" env:"DB_DIALECT"`
	URL     string `toml:"url" env:"DATABASE_URL"`
	// Pool limits; zero keeps the platform defaults.
	MaxOpenConns int           `toml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
	IdleTimeout  time.Duration `toml:"idle_timeout" env:"DB_IDLE_TIMEOUT"`
}

type AuthConfig struct {
	JWTSecret string        `toml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL  time.Duration `toml:"token_ttl" env:"JWT_TOKEN_TTL"`
}

// RedisConfig is optional: an empty Addr disables the profile cache.
type RedisConfig struct {
	Addr       string        `toml:"addr" env:"REDIS_ADDR"`
	Password   string        `toml:"password" env:"REDIS_PASSWORD"`
	DB         int           `toml:"db" env:"REDIS_DB"`
	ProfileTTL time.Duration `toml:"profile_ttl" env:"REDIS_PROFILE_TTL"`
}

// RabbitMQConfig is optional: an empty URL disables auth event publishing.
type RabbitMQConfig struct {
	URL            string `toml:"url" env:"RABBITMQ_URL"`
	AuthEventQueue string `toml:"auth_event_queue" env:"RABBITMQ_AUTH_EVENT_QUEUE"`
}

// Load builds the configuration from defaults, the optional TOML file named by
// CONFIG_FILE and finally the process environment, then validates it.
func Load() (*Config, error) {
	cfg := defaultConfig()

	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "configs/config.toml"
	}
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("decode config file failed: %w", err)
		}
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read env failed: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate refuses configurations the server must not start with. There is
// no fallback signing secret.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return ErrMissingJWTSecret
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	switch c.Database.Dialect {
	case DialectMySQL, DialectPostgres:
	default:
		return fmt.Errorf("unsupported database dialect %q", c.Database.Dialect)
	}
	if strings.TrimSpace(c.Database.URL) == "" {
		return errors.New("DATABASE_URL must be set")
	}
	return nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

// Development reports whether verbose query logging should be enabled.
func (c *Config) Development() bool {
	return c.App.Env == EnvDevelopment
}

func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}

func (c *Config) RabbitMQEnabled() bool {
	return c.RabbitMQ.URL != ""
}

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:    "account-service",
			Env:     EnvProduction,
			Host:    "0.0.0.0",
			Port:    5000,
			GinMode: "release",
		},
		Auth: AuthConfig{
			TokenTTL: 30 * 24 * time.Hour,
		},
		Database: DatabaseConfig{
			Dialect:      DialectMySQL,
			MaxOpenConns: 5,
			IdleTimeout:  10 * time.Second,
		},
		Redis: RedisConfig{
			ProfileTTL: 60 * time.Second,
		},
		RabbitMQ: RabbitMQConfig{
			AuthEventQueue: "account.auth_events",
		},
	}
}
