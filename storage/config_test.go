package storage

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v2"
)

func TestRedisConfig_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr bool
	}{
		{
			name: "valid/canonical case",
			config: `addr: "redis.internal:6379"
db: "3"
scanCount: "1000"
dialTimeout: "5s"`,
			wantErr: false,
		},
		{
			name:    "unix socket only",
			config:  `unixSocket: /var/run/redis.sock`,
			wantErr: false,
		},
		{
			name: "both addr and unix socket",
			config: `addr: "redis.internal:6379"
unixSocket: /var/run/redis.sock`,
			wantErr: true,
		},
		{
			name: "db not an integer",
			config: `addr: "redis.internal:6379"
db: "three"`,
			wantErr: true,
		},
		{
			name: "scan count not an integer",
			config: `addr: "redis.internal:6379"
scanCount: "lots"`,
			wantErr: true,
		},
		{
			name: "dial timeout not a duration",
			config: `addr: "redis.internal:6379"
dialTimeout: "5"`,
			wantErr: true,
		},
		{
			name:    "not a mapping",
			config:  `[]`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := yaml.NewDecoder(bytes.NewBufferString(tt.config))
			var c RedisConfig
			if err := dec.Decode(&c); (err != nil) != tt.wantErr {
				t.Errorf("wantErr = %v but got %v with err %v", tt.wantErr, err != nil, err)
			}
		})
	}
}

func TestRedisConfigCheckAndSetDefaults(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c, err := (&RedisConfig{}).CheckAndSetDefaults()
		require.NoError(t, err)
		assert.Equal(t, DefaultAddr, c.Addr)
		assert.Equal(t, DefaultScanCount, c.ScanCount)
	})

	t.Run("explicit values survive", func(t *testing.T) {
		c, err := (&RedisConfig{
			Addr:        "redis.internal:6380",
			DB:          2,
			ScanCount:   64,
			DialTimeout: 3 * time.Second,
		}).CheckAndSetDefaults()
		require.NoError(t, err)
		assert.Equal(t, "redis.internal:6380", c.Addr)
		assert.Equal(t, 2, c.DB)
		assert.Equal(t, 64, c.ScanCount)
	})

	t.Run("unix socket suppresses the default addr", func(t *testing.T) {
		c, err := (&RedisConfig{UnixSocket: "/var/run/redis.sock"}).CheckAndSetDefaults()
		require.NoError(t, err)
		assert.Empty(t, c.Addr)
	})

	t.Run("negative db", func(t *testing.T) {
		_, err := (&RedisConfig{DB: -1}).CheckAndSetDefaults()
		assert.Error(t, err)
	})

	t.Run("negative scan count", func(t *testing.T) {
		_, err := (&RedisConfig{ScanCount: -5}).CheckAndSetDefaults()
		assert.Error(t, err)
	})
}
