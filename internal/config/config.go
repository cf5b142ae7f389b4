// Package config loads the gateway service configuration and the supplier registry.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Sternrassler/hotel-offer-gateway/pkg/logging"
	"github.com/ilyakaznacheev/cleanenv"
)

// Cache backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type Config struct {
	Env       string          `yaml:"env" env:"ENV" env-default:"local"`
	Log       LogConfig       `yaml:"log"`
	HTTP      HTTPConfig      `yaml:"http"`
	Cache     CacheConfig     `yaml:"cache"`
	Redis     RedisConfig     `yaml:"redis"`
	Suppliers SuppliersConfig `yaml:"suppliers"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Pretty bool   `yaml:"pretty" env:"LOG_PRETTY" env-default:"false"`
}

type HTTPConfig struct {
	Host            string        `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            int           `yaml:"port" env:"HTTP_PORT" env-default:"9000"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"5s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Addr returns the listen address.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type CacheConfig struct {
	Backend string        `yaml:"backend" env:"CACHE_BACKEND" env-default:"memory"`
	TTL     time.Duration `yaml:"ttl" env:"CACHE_TTL" env-default:"5m"`
	Shards  int           `yaml:"shards" env:"CACHE_SHARDS" env-default:"32"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	Prefix   string `yaml:"prefix" env:"REDIS_PREFIX" env-default:"hotel-offer-gateway:"`
}

type SuppliersConfig struct {
	RegistryPath   string        `yaml:"registry_path" env:"SUPPLIERS_REGISTRY" env-default:"suppliers.yml"`
	Timeout        time.Duration `yaml:"timeout" env:"SUPPLIERS_TIMEOUT" env-default:"3s"`
	MaxConcurrency int           `yaml:"max_concurrency" env:"SUPPLIERS_MAX_CONCURRENCY" env-default:"8"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes" env:"SUPPLIERS_MAX_BODY_BYTES" env-default:"1048576"`
	UserAgent      string        `yaml:"user_agent" env:"SUPPLIERS_USER_AGENT" env-default:"hotel-offer-gateway/1.0"`
}

func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}
	return MustLoadByPath(path)
}

func MustLoadByPath(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

// Load reads configPath, applies environment overrides and defaults, and
// validates the result.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exists: %s", configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read the config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate checks value ranges that cleanenv cannot express.
func (c *Config) Validate() error {
	if !logging.IsValidLevel(c.Log.Level) {
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be within 1-65535 (got %d)", c.HTTP.Port)
	}
	if c.Cache.Backend != BackendMemory && c.Cache.Backend != BackendRedis {
		return fmt.Errorf("cache.backend must be %q or %q (got %q)", BackendMemory, BackendRedis, c.Cache.Backend)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive (got %s)", c.Cache.TTL)
	}
	if c.Cache.Backend == BackendRedis && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required for the redis cache backend")
	}
	if c.Suppliers.RegistryPath == "" {
		return fmt.Errorf("suppliers.registry_path is required")
	}
	if c.Suppliers.Timeout <= 0 {
		return fmt.Errorf("suppliers.timeout must be positive (got %s)", c.Suppliers.Timeout)
	}
	if c.Suppliers.MaxConcurrency <= 0 {
		return fmt.Errorf("suppliers.max_concurrency must be positive (got %d)", c.Suppliers.MaxConcurrency)
	}
	if c.Suppliers.MaxBodyBytes <= 0 {
		return fmt.Errorf("suppliers.max_body_bytes must be positive (got %d)", c.Suppliers.MaxBodyBytes)
	}
	return nil
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	if res == "" {
		res = "config/local.yaml"
	}

	return res
}
