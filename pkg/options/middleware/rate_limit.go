package middleware

import (
	"errors"

	"github.com/spf13/pflag"

	"github.com/kart-io/loan-advisor/pkg/options"
)

// RateLimitOptions 定义限流中间件的配置选项（纯配置，可 JSON 序列化）。
type RateLimitOptions struct {
	// RPS 每个客户端 IP 每秒允许的请求数。
	RPS float64 `json:"rps" mapstructure:"rps"`

	// Burst 令牌桶容量。
	Burst int `json:"burst" mapstructure:"burst"`

	// Paths 需要限流的路径，为空时对所有路径生效。
	Paths []string `json:"paths" mapstructure:"paths"`
}

// NewRateLimitOptions 创建默认的限流选项。
func NewRateLimitOptions() *RateLimitOptions {
	return &RateLimitOptions{
		RPS:   2,
		Burst: 5,
		Paths: []string{"/v1/ai/ask"},
	}
}

// AddFlags adds flags for rate limit options to the specified FlagSet.
func (o *RateLimitOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.Float64Var(&o.RPS, options.Join(prefixes...)+"middleware.rate-limit.rps", o.RPS, "Allowed requests per second per client.")
	fs.IntVar(&o.Burst, options.Join(prefixes...)+"middleware.rate-limit.burst", o.Burst, "Token bucket burst size.")
	fs.StringSliceVar(&o.Paths, options.Join(prefixes...)+"middleware.rate-limit.paths", o.Paths, "Paths subject to rate limiting.")
}

// Validate validates the rate limit options.
func (o *RateLimitOptions) Validate() []error {
	var errs []error
	if o.RPS <= 0 {
		errs = append(errs, errors.New("middleware.rate-limit.rps must be positive"))
	}
	if o.Burst <= 0 {
		errs = append(errs, errors.New("middleware.rate-limit.burst must be positive"))
	}
	return errs
}
