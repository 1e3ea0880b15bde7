package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	JWTSecret string `env:"JWT_SECRET, required"`

	Auth      AuthConfig
	HTTP      HTTPConfig
	Directory DirectoryConfig
	Mongo     MongoConfig
	Redis     RedisConfig
}

type AuthConfig struct {
	AccessTokenTTL    time.Duration `env:"ACCESS_TOKEN_TTL,         default=24h"`
	BcryptCost        int           `env:"BCRYPT_COST,              default=8"`
	HashWorkers       int           `env:"HASH_WORKERS,             default=0"`
	HideUserExistence bool          `env:"AUTH_HIDE_USER_EXISTENCE, default=false"`
}

type HTTPConfig struct {
	CORSOrigins     []string      `env:"CORS_ORIGINS,     default=*"`
	BodyLimit       string        `env:"BODY_LIMIT,       default=1M"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`
}

type DirectoryConfig struct {
	Driver  string        `env:"DIRECTORY_DRIVER,  default=mongo"`
	Timeout time.Duration `env:"DIRECTORY_TIMEOUT, default=5s"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=auth_system"`
}

// RedisConfig enables the user cache when Addr is set.
type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,       default=0"`
	CacheTTL time.Duration `env:"USER_CACHE_TTL, default=1m"`
}

// IsDevelopment reports whether the service runs in a local environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Directory.Driver {
	case DriverMongo, DriverMemory:
	default:
		return fmt.Errorf("unknown DIRECTORY_DRIVER %q", c.Directory.Driver)
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive")
	}
	if c.Directory.Timeout <= 0 {
		return fmt.Errorf("DIRECTORY_TIMEOUT must be positive")
	}
	return nil
}
