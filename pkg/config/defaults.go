package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/chrissnell/lunarmansion/pkg/angle"
	"github.com/chrissnell/lunarmansion/pkg/calendar"
	"github.com/chrissnell/lunarmansion/pkg/mansion"
)

// Defaults for settings left empty by every source
const (
	DefaultListenAddr        = "0.0.0.0"
	DefaultPort              = 8080
	DefaultReadTimeout       = 10 * time.Second
	DefaultWriteTimeout      = 10 * time.Second
	DefaultConversionTimeout = 5 * time.Second
	DefaultRedisAddr         = "localhost:6379"
)

// ApplyDefaults fills every unset field
func ApplyDefaults(c *ConfigData) {
	e := &c.Engine
	if e.MinYear == 0 {
		e.MinYear = calendar.DefaultMinYear
	}
	if e.MaxYear == 0 {
		e.MaxYear = calendar.DefaultMaxYear
	}
	if e.MansionStrategy == "" {
		e.MansionStrategy = mansion.DefaultStrategy
	}
	if e.MetalAngle == 0 {
		e.MetalAngle = angle.DefaultMetalAngle
	}
	if e.Jitter.Spread == 0 {
		e.Jitter.Spread = angle.DefaultJitterSpread
	}

	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheMemory
	}
	if c.Cache.Backend == CacheRedis && c.Cache.Redis.Addr == "" {
		c.Cache.Redis.Addr = DefaultRedisAddr
	}

	s := &c.Server
	if s.ListenAddr == "" {
		s.ListenAddr = DefaultListenAddr
	}
	if s.Port == 0 {
		s.Port = DefaultPort
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = DefaultReadTimeout
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = DefaultWriteTimeout
	}

	if c.ConversionTimeout == 0 {
		c.ConversionTimeout = DefaultConversionTimeout
	}
}

var cacheBackends = []string{CacheNone, CacheMemory, CacheSQLite, CachePostgres, CacheRedis}

// Validate checks a configuration after defaults have been applied
func Validate(c *ConfigData) error {
	e := c.Engine
	if e.MinYear > e.MaxYear {
		return fmt.Errorf("engine: min_year %d is after max_year %d", e.MinYear, e.MaxYear)
	}
	if !slices.Contains(mansion.StrategyNames(), e.MansionStrategy) {
		return fmt.Errorf("engine: unknown mansion_strategy %q (valid: %v)", e.MansionStrategy, mansion.StrategyNames())
	}
	if e.Jitter.Spread < 0 {
		return fmt.Errorf("engine: jitter spread must not be negative")
	}

	if !slices.Contains(cacheBackends, c.Cache.Backend) {
		return fmt.Errorf("cache: unknown backend %q (valid: %v)", c.Cache.Backend, cacheBackends)
	}
	if (c.Cache.Backend == CacheSQLite || c.Cache.Backend == CachePostgres) && c.Cache.DSN == "" {
		return fmt.Errorf("cache: backend %s requires a dsn", c.Cache.Backend)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server: port %d out of range", c.Server.Port)
	}
	if !c.Server.REST.IsEnabled() && !c.Server.GRPC.IsEnabled() {
		return fmt.Errorf("server: both rest and grpc are disabled")
	}
	if c.ConversionTimeout < 0 {
		return fmt.Errorf("conversion_timeout must not be negative")
	}
	return nil
}
