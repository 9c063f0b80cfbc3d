package config

import (
	"fmt"
	"time"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetEngineConfig() (*EngineData, error)
	GetCacheConfig() (*CacheData, error)
	GetServerConfig() (*ServerData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Engine            EngineData    `json:"engine" yaml:"engine" envconfig:"ENGINE"`
	Cache             CacheData     `json:"cache" yaml:"cache" envconfig:"CACHE"`
	Server            ServerData    `json:"server" yaml:"server" envconfig:"SERVER"`
	ConversionTimeout time.Duration `json:"conversion_timeout,omitempty" yaml:"conversion_timeout,omitempty" envconfig:"CONVERSION_TIMEOUT"`
}

// EngineData holds the settings that change what the engine computes
type EngineData struct {
	MinYear          int        `json:"min_year,omitempty" yaml:"min_year,omitempty" envconfig:"MIN_YEAR"`
	MaxYear          int        `json:"max_year,omitempty" yaml:"max_year,omitempty" envconfig:"MAX_YEAR"`
	MansionStrategy  string     `json:"mansion_strategy,omitempty" yaml:"mansion_strategy,omitempty" envconfig:"MANSION_STRATEGY"`
	StrictComponents bool       `json:"strict_components,omitempty" yaml:"strict_components,omitempty" envconfig:"STRICT_COMPONENTS"`
	MetalAngle       float64    `json:"metal_angle,omitempty" yaml:"metal_angle,omitempty" envconfig:"METAL_ANGLE"`
	Jitter           JitterData `json:"jitter,omitempty" yaml:"jitter,omitempty" envconfig:"JITTER"`
}

// JitterData configures the optional seeded perturbation of the angle
type JitterData struct {
	Enabled bool   `json:"enabled,omitempty" yaml:"enabled,omitempty" envconfig:"ENABLED"`
	Seed    uint64 `json:"seed,omitempty" yaml:"seed,omitempty" envconfig:"SEED"`
	Spread  int    `json:"spread,omitempty" yaml:"spread,omitempty" envconfig:"SPREAD"`
}

// Result cache backends
const (
	CacheNone     = "none"
	CacheMemory   = "memory"
	CacheSQLite   = "sqlite"
	CachePostgres = "postgres"
	CacheRedis    = "redis"
)

// CacheData selects and configures the result cache
type CacheData struct {
	Backend string    `json:"backend,omitempty" yaml:"backend,omitempty" envconfig:"BACKEND"`
	DSN     string    `json:"dsn,omitempty" yaml:"dsn,omitempty" envconfig:"DSN"`
	Redis   RedisData `json:"redis,omitempty" yaml:"redis,omitempty" envconfig:"REDIS"`
}

// RedisData holds the Redis connection settings
type RedisData struct {
	Addr     string `json:"addr,omitempty" yaml:"addr,omitempty" envconfig:"ADDR"`
	Password string `json:"password,omitempty" yaml:"password,omitempty" envconfig:"PASSWORD"`
	DB       int    `json:"db,omitempty" yaml:"db,omitempty" envconfig:"DB"`
}

// ServerData configures the listener shared by the REST and gRPC controllers
type ServerData struct {
	ListenAddr   string        `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty" envconfig:"LISTEN_ADDR"`
	Port         int           `json:"port,omitempty" yaml:"port,omitempty" envconfig:"PORT"`
	REST         ToggleData    `json:"rest,omitempty" yaml:"rest,omitempty" envconfig:"REST"`
	GRPC         ToggleData    `json:"grpc,omitempty" yaml:"grpc,omitempty" envconfig:"GRPC"`
	ReadTimeout  time.Duration `json:"read_timeout,omitempty" yaml:"read_timeout,omitempty" envconfig:"READ_TIMEOUT"`
	WriteTimeout time.Duration `json:"write_timeout,omitempty" yaml:"write_timeout,omitempty" envconfig:"WRITE_TIMEOUT"`
}

// ToggleData switches a controller on or off. Unset means on.
type ToggleData struct {
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty" envconfig:"ENABLED"`
}

// IsEnabled reports the effective state of the toggle
func (t ToggleData) IsEnabled() bool {
	return t.Enabled == nil || *t.Enabled
}

// Address returns host:port for the listener
func (s ServerData) Address() string {
	return fmt.Sprintf("%s:%d", s.ListenAddr, s.Port)
}
