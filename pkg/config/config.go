package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime settings for the translation service.
// Values come from the environment to match the deployment manifests;
// the defaults suit a local docker-compose stack.
type Config struct {
	Port     int    `env:"PORT" envDefault:"8000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// RunnerURL points at the model runner sidecar.
	RunnerURL string `env:"MODEL_RUNNER_URL" envDefault:"http://localhost:8090"`

	RedisHost     string        `env:"REDIS_HOST" envDefault:"redis"`
	RedisPort     int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"1"`
	CacheEnabled  bool          `env:"CACHE_ENABLED" envDefault:"true"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"720h"`

	ScyllaHosts    []string `env:"SCYLLA_HOSTS" envDefault:"scylladb"`
	ScyllaKeyspace string   `env:"SCYLLA_KEYSPACE" envDefault:"hotel_i18n"`
	HistoryEnabled bool     `env:"HISTORY_ENABLED" envDefault:"true"`

	// WarmUpInterval is how often the service re-probes a model runner
	// that was not ready at startup.
	WarmUpInterval  time.Duration `env:"WARMUP_INTERVAL" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// RedisAddr returns the host:port address of the Redis server.
func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// ListenAddr returns the address the HTTP server binds to.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}
