package storage

import (
	"errors"
	"fmt"
	"time"
)

// Defaults applied by RedisConfig.CheckAndSetDefaults.
const (
	DefaultAddr      = "localhost:6379"
	DefaultScanCount = 512
)

// RedisConfig contains settings specific to Redis connections
type RedisConfig struct {
	// Addr is the host:port of the Redis server. Ignored when UnixSocket
	// is set.
	Addr string `yaml:"addr" json:"addr"`
	// UnixSocket is the path to a Redis unix domain socket. Takes
	// precedence over Addr.
	UnixSocket string `yaml:"unixSocket" json:"unixSocket"`
	DB         int    `yaml:"db" json:"db"`
	Password   string `yaml:"password" json:"password"`
	// ScanCount is the COUNT hint passed to SCAN when enumerating keys by
	// prefix.
	ScanCount int `yaml:"scanCount" json:"scanCount"`
	// DialTimeout bounds the initial connection. Zero means the client
	// default.
	DialTimeout time.Duration `yaml:"dialTimeout" json:"dialTimeout"`
}

// CheckAndSetDefaults validates c and either returns a copy of c with
// default settings applied or returns an error due to an invalid
// configuration
func (c *RedisConfig) CheckAndSetDefaults() (RedisConfig, error) {
	if c.Addr == "" && c.UnixSocket == "" {
		c.Addr = DefaultAddr
	}
	if c.DB < 0 {
		return RedisConfig{}, fmt.Errorf("redis db index must not be negative, got %v", c.DB)
	}
	if c.ScanCount < 0 {
		return RedisConfig{}, fmt.Errorf("redis scan count must not be negative, got %v", c.ScanCount)
	}
	if c.ScanCount == 0 {
		c.ScanCount = DefaultScanCount
	}
	return *c, nil
}

// UnmarshalYAML parses a user-provided YAML configuration, returning any
// parsing errors.
func (c *RedisConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	v := make(map[string]string)
	if err := unmarshal(&v); err != nil {
		return fmt.Errorf("can't parse the redis config: %v", err)
	}

	c.Addr = v["addr"]
	c.UnixSocket = v["unixSocket"]
	c.Password = v["password"]

	if d, ok := v["db"]; ok {
		var n int
		if _, err := fmt.Sscanf(d, "%d", &n); err != nil {
			return fmt.Errorf("can't parse the redis db index %q as an integer: %v", d, err)
		}
		c.DB = n
	}

	if sc, ok := v["scanCount"]; ok {
		var n int
		if _, err := fmt.Sscanf(sc, "%d", &n); err != nil {
			return fmt.Errorf("can't parse the redis scan count %q as an integer: %v", sc, err)
		}
		c.ScanCount = n
	}

	if dt, ok := v["dialTimeout"]; ok {
		pd, err := time.ParseDuration(dt)
		if err != nil {
			return fmt.Errorf(
				"can't parse the user-provided dial timeout as a duration: %v",
				err,
			)
		}
		c.DialTimeout = pd
	}

	if c.Addr != "" && c.UnixSocket != "" {
		return errors.New("redis config must name either an address or a unix socket, not both")
	}

	return nil
}
