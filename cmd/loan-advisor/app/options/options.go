// Package options contains flags and options for initializing the loan advisor server.
package options

import (
	"fmt"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/loan-advisor/internal/advisor"
	cliflag "github.com/kart-io/loan-advisor/pkg/app/cliflag"
	"github.com/kart-io/loan-advisor/pkg/infra/server"
	"github.com/kart-io/loan-advisor/pkg/infra/tracing"
	cacheopts "github.com/kart-io/loan-advisor/pkg/options/cache"
	catalogopts "github.com/kart-io/loan-advisor/pkg/options/catalog"
	llmopts "github.com/kart-io/loan-advisor/pkg/options/llm"
	logopts "github.com/kart-io/loan-advisor/pkg/options/logger"
)

// ServerOptions contains the configuration options for the server.
type ServerOptions struct {
	// Options contains HTTP, middleware and shutdown configuration.
	*server.Options `mapstructure:",squash"`

	// LogOptions contains logger configuration.
	LogOptions *logopts.Options `json:"log" mapstructure:"log"`

	// TracingOptions contains OpenTelemetry configuration.
	TracingOptions *tracing.Options `json:"tracing" mapstructure:"tracing"`

	// CatalogOptions contains the product catalog datasource.
	CatalogOptions *catalogopts.Options `json:"catalog" mapstructure:"catalog"`

	// CacheOptions contains the catalog cache configuration.
	CacheOptions *cacheopts.Options `json:"cache" mapstructure:"cache"`

	// LLMOptions contains chat model configuration.
	LLMOptions *llmopts.ProviderOptions `json:"llm" mapstructure:"llm"`
}

// NewServerOptions creates a ServerOptions instance with default values.
func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		Options:        server.NewOptions(),
		LogOptions:     logopts.NewOptions(),
		TracingOptions: tracing.NewOptions(),
		CatalogOptions: catalogopts.NewOptions(),
		CacheOptions:   cacheopts.NewOptions(),
		LLMOptions:     llmopts.NewProviderOptions(),
	}
}

// Flags returns flags for a specific server by section name.
func (o *ServerOptions) Flags() (fss cliflag.NamedFlagSets) {
	o.Options.AddFlags(fss.FlagSet("server"))
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	o.TracingOptions.AddFlags(fss.FlagSet("tracing"))
	o.CatalogOptions.AddFlags(fss.FlagSet("catalog"))
	o.CacheOptions.AddFlags(fss.FlagSet("cache"))
	o.LLMOptions.AddFlags(fss.FlagSet("llm"))
	return fss
}

// Complete completes all the required options.
func (o *ServerOptions) Complete() error {
	if err := o.Options.Complete(); err != nil {
		return err
	}
	if err := o.LogOptions.Complete(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := o.TracingOptions.Complete(); err != nil {
		return err
	}
	if err := o.CatalogOptions.Complete(); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if err := o.CacheOptions.Complete(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := o.LLMOptions.Complete(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	return nil
}

// Validate checks whether the options in ServerOptions are valid.
func (o *ServerOptions) Validate() error {
	errs := []error{}

	errs = append(errs, o.Options.Validate()...)
	errs = append(errs, o.LogOptions.Validate()...)
	errs = append(errs, o.TracingOptions.Validate()...)
	errs = append(errs, o.CatalogOptions.Validate()...)
	errs = append(errs, o.CacheOptions.Validate()...)
	errs = append(errs, o.LLMOptions.Validate()...)

	return utilerrors.NewAggregate(errs)
}

// Config builds an advisor.Config based on ServerOptions.
func (o *ServerOptions) Config() (*advisor.Config, error) {
	return &advisor.Config{
		ServerOptions:  o.Options,
		LogOptions:     o.LogOptions,
		TracingOptions: o.TracingOptions,
		CatalogOptions: o.CatalogOptions,
		CacheOptions:   o.CacheOptions,
		LLMOptions:     o.LLMOptions,
	}, nil
}
