package userconfig

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	doc := `redis:
  addr: "redis.internal:6379"
  db: "3"
  password: hunter2
  scanCount: "1000"
store:
  prefix: tenant42
  skew: "2h"
`
	m, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)

	checked, err := m.CheckAndSetDefaults()
	require.NoError(t, err)

	assert.Equal(t, "redis.internal:6379", checked.Redis.Addr)
	assert.Equal(t, 3, checked.Redis.DB)
	assert.Equal(t, "hunter2", checked.Redis.Password)
	assert.Equal(t, 1000, checked.Redis.ScanCount)
	assert.Equal(t, "tenant42", checked.Store.Prefix)
	assert.Equal(t, 2*time.Hour, checked.Store.Skew)
}

func TestParseAppliesDefaults(t *testing.T) {
	m, err := Parse(strings.NewReader(`{}`))
	require.NoError(t, err)

	checked, err := m.CheckAndSetDefaults()
	require.NoError(t, err)

	assert.NotEmpty(t, checked.Redis.Addr)
	assert.NotZero(t, checked.Redis.ScanCount)
	assert.NotEmpty(t, checked.Store.Prefix)
	assert.NotZero(t, checked.Store.Skew)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse(strings.NewReader("redis: [not, a, mapping]"))
	assert.Error(t, err)
}

func TestParseRejectsInvalidValues(t *testing.T) {
	doc := `store:
  skew: "soon"
`
	_, err := Parse(strings.NewReader(doc))
	assert.Error(t, err)
}
