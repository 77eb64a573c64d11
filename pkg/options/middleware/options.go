// Package middleware provides middleware configuration options.
package middleware

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/loan-advisor/pkg/options"
)

// 中间件名称常量。
const (
	MiddlewareRecovery  = "recovery"
	MiddlewareRequestID = "request-id"
	MiddlewareLogger    = "logger"
	MiddlewareTracing   = "tracing"
	MiddlewareMetrics   = "metrics"
	MiddlewareCORS      = "cors"
	MiddlewareTimeout   = "timeout"
	MiddlewareRateLimit = "rate-limit"
)

// knownMiddleware 列出可以出现在 Middleware 顺序中的名称。
var knownMiddleware = []string{
	MiddlewareRecovery,
	MiddlewareRequestID,
	MiddlewareLogger,
	MiddlewareTracing,
	MiddlewareMetrics,
	MiddlewareCORS,
	MiddlewareTimeout,
	MiddlewareRateLimit,
}

// Options 汇总 HTTP 中间件配置。
// Middleware 决定启用哪些中间件以及它们的应用顺序。
type Options struct {
	Middleware []string `json:"enabled" mapstructure:"enabled"`

	Recovery  *RecoveryOptions  `json:"recovery" mapstructure:"recovery"`
	RequestID *RequestIDOptions `json:"request-id" mapstructure:"request-id"`
	Logger    *LoggerOptions    `json:"logger" mapstructure:"logger"`
	Metrics   *MetricsOptions   `json:"metrics" mapstructure:"metrics"`
	CORS      *CORSOptions      `json:"cors" mapstructure:"cors"`
	Timeout   *TimeoutOptions   `json:"timeout" mapstructure:"timeout"`
	RateLimit *RateLimitOptions `json:"rate-limit" mapstructure:"rate-limit"`
}

// NewOptions 创建默认中间件选项。
func NewOptions() *Options {
	return &Options{
		Middleware: []string{
			MiddlewareRecovery,
			MiddlewareRequestID,
			MiddlewareLogger,
			MiddlewareTracing,
			MiddlewareMetrics,
			MiddlewareCORS,
			MiddlewareTimeout,
		},
		Recovery:  NewRecoveryOptions(),
		RequestID: NewRequestIDOptions(),
		Logger:    NewLoggerOptions(),
		Metrics:   NewMetricsOptions(),
		CORS:      NewCORSOptions(),
		Timeout:   NewTimeoutOptions(),
		RateLimit: NewRateLimitOptions(),
	}
}

// IsEnabled 判断中间件是否出现在启用列表中。
func (o *Options) IsEnabled(name string) bool {
	return o != nil && slices.Contains(o.Middleware, name)
}

// AddFlags adds flags for middleware options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringSliceVar(&o.Middleware, options.Join(prefixes...)+"middleware.enabled", o.Middleware,
		"Ordered list of enabled HTTP middleware.")
	o.Recovery.AddFlags(fs, prefixes...)
	o.RequestID.AddFlags(fs, prefixes...)
	o.Logger.AddFlags(fs, prefixes...)
	o.Metrics.AddFlags(fs, prefixes...)
	o.CORS.AddFlags(fs, prefixes...)
	o.Timeout.AddFlags(fs, prefixes...)
	o.RateLimit.AddFlags(fs, prefixes...)
}

// Validate validates the middleware options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}
	var errs []error
	for _, name := range o.Middleware {
		if !slices.Contains(knownMiddleware, name) {
			errs = append(errs, fmt.Errorf("unknown middleware %q", name))
		}
	}
	errs = append(errs, o.RequestID.Validate()...)
	errs = append(errs, o.Metrics.Validate()...)
	if o.IsEnabled(MiddlewareCORS) {
		errs = append(errs, o.CORS.Validate()...)
	}
	errs = append(errs, o.Timeout.Validate()...)
	if o.IsEnabled(MiddlewareRateLimit) {
		errs = append(errs, o.RateLimit.Validate()...)
	}
	return errs
}

// Complete completes the middleware options with defaults.
func (o *Options) Complete() error {
	if len(o.Middleware) == 0 {
		o.Middleware = NewOptions().Middleware
	}
	if o.Timeout.Timeout == 0 {
		o.Timeout.Timeout = 30 * time.Second
	}
	return nil
}

// RecoveryOptions defines recovery middleware options.
type RecoveryOptions struct {
	EnableStackTrace bool `json:"enable-stack-trace" mapstructure:"enable-stack-trace"`
}

// NewRecoveryOptions creates default recovery options.
func NewRecoveryOptions() *RecoveryOptions {
	return &RecoveryOptions{EnableStackTrace: false}
}

// AddFlags adds flags for recovery options to the specified FlagSet.
func (o *RecoveryOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.EnableStackTrace, options.Join(prefixes...)+"middleware.recovery.enable-stack-trace", o.EnableStackTrace,
		"Enable stack trace in error responses.")
}

// LoggerOptions defines logger middleware options.
type LoggerOptions struct {
	SkipPaths []string `json:"skip-paths" mapstructure:"skip-paths"`
}

// NewLoggerOptions creates default logger middleware options.
func NewLoggerOptions() *LoggerOptions {
	return &LoggerOptions{
		SkipPaths: []string{"/healthz", "/readyz", "/metrics"},
	}
}

// AddFlags adds flags for logger options to the specified FlagSet.
func (o *LoggerOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringSliceVar(&o.SkipPaths, options.Join(prefixes...)+"middleware.logger.skip-paths", o.SkipPaths, "Paths to skip logging.")
}

// TimeoutOptions defines timeout middleware options.
type TimeoutOptions struct {
	Timeout   time.Duration `json:"timeout" mapstructure:"timeout"`
	SkipPaths []string      `json:"skip-paths" mapstructure:"skip-paths"`
}

// NewTimeoutOptions creates default timeout options.
func NewTimeoutOptions() *TimeoutOptions {
	return &TimeoutOptions{
		Timeout:   30 * time.Second,
		SkipPaths: []string{},
	}
}

// AddFlags adds flags for timeout options to the specified FlagSet.
func (o *TimeoutOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.DurationVar(&o.Timeout, options.Join(prefixes...)+"middleware.timeout.timeout", o.Timeout, "Request timeout.")
	fs.StringSliceVar(&o.SkipPaths, options.Join(prefixes...)+"middleware.timeout.skip-paths", o.SkipPaths, "Paths to skip timeout.")
}

// Validate validates the timeout options.
func (o *TimeoutOptions) Validate() []error {
	if o.Timeout < 0 {
		return []error{fmt.Errorf("middleware.timeout.timeout must not be negative, got %s", o.Timeout)}
	}
	return nil
}
