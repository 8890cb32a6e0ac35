// Package config provides application configuration.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	EventBus    EventBusConfig    `mapstructure:"event_bus"`
	Registry    RegistryConfig    `mapstructure:"registry"`
	Persistence PersistenceConfig `mapstructure:"persistence"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
}

// AppConfig manage environment the app
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

// ServerConfig manage the admin HTTP surface (health, metrics, debug
// registry dump). There is no public REST API — this is an operator
// sidecar, not the protocol surface.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// RedisConfig manage the bus connection (both stream and mailbox
// transports share one Redis connection pool).
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// LoggingConfig manage level the logs
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// EventBusConfig holds stream transport configuration.
type EventBusConfig struct {
	ConsumerID      string `mapstructure:"consumer_id"`
	IngressStream   string `mapstructure:"ingress_stream"`
	EgressStream    string `mapstructure:"egress_stream"`
	ConsumerGroup   string `mapstructure:"consumer_group"`
	ListSubject     string `mapstructure:"list_subject"`
	AcknowledgeSubj string `mapstructure:"acknowledge_subject"`
}

// RegistryConfig holds TTL-sweep timing.
type RegistryConfig struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	StaleAfter    time.Duration `mapstructure:"stale_after"`
}

// PersistenceConfig holds the state-file location.
type PersistenceConfig struct {
	StateFile string `mapstructure:"state_file"`
}

// TracingConfig controls OpenTelemetry export.
type TracingConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

// Address returns the Redis connection address
func (r *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Address returns the admin server address
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// IsProduction returns true if running in production
func (a *AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// IsDevelopment returns true if running in development
func (a *AppConfig) IsDevelopment() bool {
	return a.Env == "development"
}
