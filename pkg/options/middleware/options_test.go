package middleware

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOptionsDefaults(t *testing.T) {
	opts := NewOptions()

	assert.True(t, opts.IsEnabled(MiddlewareRecovery))
	assert.True(t, opts.IsEnabled(MiddlewareRequestID))
	assert.False(t, opts.IsEnabled(MiddlewareRateLimit))
	assert.Empty(t, opts.Validate())
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr int
	}{
		{"unknown middleware", func(o *Options) { o.Middleware = append(o.Middleware, "gzip") }, 1},
		{"bad generator", func(o *Options) { o.RequestID.GeneratorType = "uuid" }, 1},
		{"empty origins", func(o *Options) { o.CORS.AllowOrigins = nil }, 1},
		{"wildcard with credentials", func(o *Options) { o.CORS.AllowCredentials = true }, 1},
		{"origin with path", func(o *Options) { o.CORS.AllowOrigins = []string{"https://a.example/x"} }, 1},
		{"rate limit disabled is not validated", func(o *Options) { o.RateLimit.RPS = 0 }, 0},
		{"rate limit enabled", func(o *Options) {
			o.Middleware = append(o.Middleware, MiddlewareRateLimit)
			o.RateLimit.RPS = 0
			o.RateLimit.Burst = 0
		}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := NewOptions()
			tt.mutate(opts)
			assert.Len(t, opts.Validate(), tt.wantErr)
		})
	}
}

func TestOptionsFlags(t *testing.T) {
	opts := NewOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts.AddFlags(fs)

	require.NoError(t, fs.Parse([]string{
		"--middleware.enabled=recovery,rate-limit",
		"--middleware.rate-limit.rps=10",
		"--middleware.timeout.timeout=5s",
	}))
	assert.Equal(t, []string{"recovery", "rate-limit"}, opts.Middleware)
	assert.Equal(t, 10.0, opts.RateLimit.RPS)
	assert.Equal(t, "5s", opts.Timeout.Timeout.String())
}
