package redis

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/loan-advisor/pkg/options"
)

// Options defines configuration options for Redis.
type Options struct {
	Host         string        `json:"host" mapstructure:"host"`
	Port         int           `json:"port" mapstructure:"port"`
	Password     string        `json:"-" mapstructure:"password"`
	Database     int           `json:"database" mapstructure:"database"`
	MaxRetries   int           `json:"max-retries" mapstructure:"max-retries"`
	PoolSize     int           `json:"pool-size" mapstructure:"pool-size"`
	MinIdleConns int           `json:"min-idle-conns" mapstructure:"min-idle-conns"`
	DialTimeout  time.Duration `json:"dial-timeout" mapstructure:"dial-timeout"`
	ReadTimeout  time.Duration `json:"read-timeout" mapstructure:"read-timeout"`
	WriteTimeout time.Duration `json:"write-timeout" mapstructure:"write-timeout"`
}

// NewOptions creates a new Options object with default values.
func NewOptions() *Options {
	return &Options{
		Host:         "127.0.0.1",
		Port:         6379,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Addr returns host:port.
func (o *Options) Addr() string {
	return fmt.Sprintf("%s:%d", o.Host, o.Port)
}

// String returns a representation with the password redacted.
func (o *Options) String() string {
	return fmt.Sprintf("Redis{addr=%s, password=%s, db=%d}", o.Addr(), options.Redact(o.Password), o.Database)
}

// AddFlags adds flags for Redis options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "redis."
	fs.StringVar(&o.Host, p+"host", o.Host, "Redis host.")
	fs.IntVar(&o.Port, p+"port", o.Port, "Redis port.")
	fs.IntVar(&o.Database, p+"database", o.Database, "Redis database number.")
	fs.IntVar(&o.MaxRetries, p+"max-retries", o.MaxRetries, "Maximum number of retries before giving up.")
	fs.IntVar(&o.PoolSize, p+"pool-size", o.PoolSize, "Maximum number of socket connections.")
	fs.DurationVar(&o.DialTimeout, p+"dial-timeout", o.DialTimeout, "Dial timeout for establishing new connections.")
	fs.DurationVar(&o.ReadTimeout, p+"read-timeout", o.ReadTimeout, "Timeout for socket reads.")
	fs.DurationVar(&o.WriteTimeout, p+"write-timeout", o.WriteTimeout, "Timeout for socket writes.")
}

// Complete reads the password from REDIS_PASSWORD when it is not configured.
func (o *Options) Complete() error {
	options.EnvFallback(&o.Password, "REDIS_PASSWORD")
	return nil
}

// Validate validates the Redis options.
func (o *Options) Validate() []error {
	var errs []error
	if o.Host == "" {
		errs = append(errs, fmt.Errorf("redis.host is required"))
	}
	if o.Port <= 0 || o.Port > 65535 {
		errs = append(errs, fmt.Errorf("redis.port %d is out of range", o.Port))
	}
	if o.Database < 0 || o.Database > 15 {
		errs = append(errs, fmt.Errorf("redis.database must be between 0 and 15"))
	}
	if o.PoolSize <= 0 {
		errs = append(errs, fmt.Errorf("redis.pool-size must be positive"))
	}
	return errs
}
