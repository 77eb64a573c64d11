// Package cache provides catalog cache configuration options.
package cache

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/loan-advisor/pkg/component/redis"
	"github.com/kart-io/loan-advisor/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options 目录缓存配置。
type Options struct {
	// Enabled 是否启用缓存。
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// TTL 缓存过期时间。
	TTL time.Duration `json:"ttl" mapstructure:"ttl"`

	// KeyPrefix 缓存键前缀。
	KeyPrefix string `json:"key-prefix" mapstructure:"key-prefix"`

	// Redis Redis 连接配置。
	Redis *redis.Options `json:"redis" mapstructure:"redis"`
}

// NewOptions 创建默认缓存配置。缓存默认关闭，不强制依赖 Redis。
func NewOptions() *Options {
	return &Options{
		Enabled:   false,
		TTL:       5 * time.Minute,
		KeyPrefix: "loan:catalog:",
		Redis:     redis.NewOptions(),
	}
}

// AddFlags adds flags for cache options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "cache."
	fs.BoolVar(&o.Enabled, p+"enabled", o.Enabled, "Cache the product catalog listing in Redis.")
	fs.DurationVar(&o.TTL, p+"ttl", o.TTL, "Catalog cache TTL.")
	fs.StringVar(&o.KeyPrefix, p+"key-prefix", o.KeyPrefix, "Catalog cache key prefix.")

	if o.Redis == nil {
		o.Redis = redis.NewOptions()
	}
	o.Redis.AddFlags(fs, append(prefixes, "cache")...)
}

// Validate validates the cache options.
func (o *Options) Validate() []error {
	if o == nil || !o.Enabled {
		return nil
	}

	var errs []error
	if o.TTL <= 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must be positive"))
	}
	if o.Redis == nil {
		return append(errs, fmt.Errorf("cache.redis is required when the cache is enabled"))
	}
	return append(errs, o.Redis.Validate()...)
}

// Complete completes the cache options with defaults.
func (o *Options) Complete() error {
	if o.Redis == nil {
		o.Redis = redis.NewOptions()
	}
	return o.Redis.Complete()
}
