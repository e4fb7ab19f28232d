package openidredis

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultPrefix partitions this library's keys from unrelated data in
	// a shared store.
	DefaultPrefix = "oid_redis"

	// DefaultSkew is the maximum tolerated drift between a nonce
	// timestamp and the local clock, and therefore the nonce retention
	// window.
	DefaultSkew = 5 * time.Hour
)

// Config carries the store-level settings: the key namespace prefix and
// the nonce skew window. Connection settings live with the storage
// backend.
type Config struct {
	Prefix string        `yaml:"prefix" json:"prefix"`
	Skew   time.Duration `yaml:"skew" json:"skew"`
}

// CheckAndSetDefaults validates c and either returns a copy of c with
// default settings applied or returns an error due to an invalid
// configuration. A zero Skew here means "use the default"; to run with a
// zero skew (reject every nonce), set it after construction with
// Store.SetSkew.
func (c *Config) CheckAndSetDefaults() (Config, error) {
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	if strings.ContainsAny(c.Prefix, " \t\r\n") {
		return Config{}, fmt.Errorf("key prefix %q must not contain whitespace", c.Prefix)
	}
	if c.Skew < 0 {
		return Config{}, fmt.Errorf("nonce skew must not be negative, got %v", c.Skew)
	}
	if c.Skew == 0 {
		c.Skew = DefaultSkew
	}
	return *c, nil
}

// UnmarshalYAML parses a user-provided YAML configuration, returning any
// parsing errors.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	v := make(map[string]string)
	if err := unmarshal(&v); err != nil {
		return fmt.Errorf("can't parse the store config: %v", err)
	}

	c.Prefix = v["prefix"]

	if d, ok := v["skew"]; ok {
		pd, err := time.ParseDuration(d)
		if err != nil {
			return fmt.Errorf(
				"can't parse the user-provided nonce skew as a duration: %v",
				err,
			)
		}
		c.Skew = pd
	}

	return nil
}
