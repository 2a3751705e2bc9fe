// Package config loads the service configuration from environment variables.
package config

import (
	"time"

	"github.com/caarlos0/env/v6"
)

// Config defines fields used for parsing from environment variables
type Config struct {
	Port        string `env:"PORT" envDefault:"8083"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"group-chat-service"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	DebugRoutes bool   `env:"DEBUG_ROUTES" envDefault:"false"`
	StaticDir   string `env:"STATIC_DIR"`

	Redis RedisConfig

	StoreTimeout      time.Duration `env:"STORE_TIMEOUT" envDefault:"10s"`
	MessageRetention  time.Duration `env:"MESSAGE_RETENTION" envDefault:"24h"`
	MaxMessageSize    int64         `env:"MAX_MESSAGE_SIZE" envDefault:"8192"`
	LeaveOnDisconnect bool          `env:"LEAVE_ON_DISCONNECT" envDefault:"false"`

	AMQPURL         string `env:"AMQP_URL"`
	AMQPExchange    string `env:"AMQP_EXCHANGE" envDefault:"chat.events"`
	AuditRoutingKey string `env:"AUDIT_ROUTING_KEY" envDefault:"audit.chat"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// RedisConfig mirrors the connection options of the backing store.
type RedisConfig struct {
	Addr        string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password    string        `env:"REDIS_PASSWORD"`
	DB          int           `env:"REDIS_DB" envDefault:"0"`
	MaxRetries  int           `env:"REDIS_MAX_RETRIES" envDefault:"5"`
	DialTimeout time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"10s"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
