// Package userconfig parses and validates the application's YAML
// configuration: the Redis connection settings and the OpenID store
// settings, each delegated to its owning package.
package userconfig

import (
	"fmt"
	"io"

	openidredis "github.com/oidkv/openid-redis"
	"github.com/oidkv/openid-redis/storage"

	yaml "gopkg.in/yaml.v2"
)

// Meta represents all current config options that the application can
// use, i.e., after validation and parsing
type Meta struct {
	Redis storage.RedisConfig `yaml:"redis"`
	Store openidredis.Config  `yaml:"store"`
}

// CheckAndSetDefaults validates m and either returns a copy of m with
// default settings applied or returns an error due to an invalid
// configuration
func (m *Meta) CheckAndSetDefaults() (Meta, error) {
	r, err := m.Redis.CheckAndSetDefaults()
	if err != nil {
		return Meta{}, err
	}
	s, err := m.Store.CheckAndSetDefaults()
	if err != nil {
		return Meta{}, err
	}
	return Meta{
		Redis: r,
		Store: s,
	}, nil
}

// Parse reads a YAML configuration, returning any parsing errors. It does
// not validate: call CheckAndSetDefaults on the result.
func Parse(r io.Reader) (Meta, error) {
	var m Meta
	if err := yaml.NewDecoder(r).Decode(&m); err != nil {
		return Meta{}, fmt.Errorf("can't parse the user config: %v", err)
	}
	return m, nil
}
