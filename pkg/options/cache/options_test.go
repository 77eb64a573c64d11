package cache

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddFlagsNestsRedis(t *testing.T) {
	o := NewOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs)

	require.NoError(t, fs.Parse([]string{"--cache.enabled", "--cache.redis.host", "cache.internal"}))
	assert.True(t, o.Enabled)
	assert.Equal(t, "cache.internal", o.Redis.Host)
}

func TestValidate(t *testing.T) {
	o := NewOptions()
	o.TTL = 0
	o.Redis.Port = 0
	assert.Empty(t, o.Validate(), "disabled cache is not validated")

	o.Enabled = true
	assert.Len(t, o.Validate(), 2)
}
