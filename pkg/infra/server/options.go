package server

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/loan-advisor/pkg/options"
	mwopts "github.com/kart-io/loan-advisor/pkg/options/middleware"
	httpopts "github.com/kart-io/loan-advisor/pkg/options/server/http"
)

// Options contains all configuration for the server manager.
type Options struct {
	// HTTP contains HTTP server options.
	HTTP *httpopts.Options `json:"http" mapstructure:"http"`

	// Middleware contains HTTP middleware options.
	Middleware *mwopts.Options `json:"middleware" mapstructure:"middleware"`

	// ShutdownTimeout is the timeout for graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// Option is a function that configures Options.
type Option func(*Options)

// NewOptions creates a new Options with default values.
func NewOptions() *Options {
	return &Options{
		HTTP:            httpopts.NewOptions(),
		Middleware:      mwopts.NewOptions(),
		ShutdownTimeout: 30 * time.Second,
	}
}

// AddFlags adds flags for server options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	o.HTTP.AddFlags(fs, prefixes...)
	o.Middleware.AddFlags(fs, prefixes...)
	fs.DurationVar(&o.ShutdownTimeout, options.Join(prefixes...)+"shutdown-timeout", o.ShutdownTimeout, "Graceful shutdown timeout")
}

// Complete completes the HTTP and middleware options.
func (o *Options) Complete() error {
	if err := o.HTTP.Complete(); err != nil {
		return err
	}
	return o.Middleware.Complete()
}

// Validate validates all server options.
func (o *Options) Validate() []error {
	var errs []error
	if o.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown-timeout must be positive"))
	}
	errs = append(errs, o.HTTP.Validate()...)
	errs = append(errs, o.Middleware.Validate()...)
	return errs
}

// WithHTTPOptions sets HTTP server options.
func WithHTTPOptions(opts *httpopts.Options) Option {
	return func(o *Options) {
		o.HTTP = opts
	}
}

// WithMiddleware sets HTTP middleware options.
func WithMiddleware(opts *mwopts.Options) Option {
	return func(o *Options) {
		o.Middleware = opts
	}
}

// WithShutdownTimeout sets the graceful shutdown timeout.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.ShutdownTimeout = d
	}
}
