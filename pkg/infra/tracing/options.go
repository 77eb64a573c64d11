// Package tracing configures OpenTelemetry span export for the service.
package tracing

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/loan-advisor/pkg/options"
)

// SamplerType 采样策略。
type SamplerType string

// Supported samplers.
const (
	SamplerAlwaysOn    SamplerType = "always_on"
	SamplerAlwaysOff   SamplerType = "always_off"
	SamplerRatio       SamplerType = "ratio"
	SamplerParentBased SamplerType = "parent_based"
)

// ExporterType span 导出方式。
type ExporterType string

// Supported exporters. ExporterNoop 创建 span 但不导出，用于只需要 trace id 的场景。
const (
	ExporterOTLPGRPC ExporterType = "otlp_grpc"
	ExporterOTLPHTTP ExporterType = "otlp_http"
	ExporterStdout   ExporterType = "stdout"
	ExporterNoop     ExporterType = "noop"
)

var _ options.IOptions = (*Options)(nil)

// Options 链路追踪配置。
type Options struct {
	Enabled        bool   `json:"enabled" mapstructure:"enabled"`
	ServiceName    string `json:"service-name" mapstructure:"service-name"`
	ServiceVersion string `json:"service-version" mapstructure:"service-version"`
	Environment    string `json:"environment" mapstructure:"environment"`

	ExporterType ExporterType `json:"exporter-type" mapstructure:"exporter-type"`
	// Endpoint OTLP 地址，gRPC 为 host:port，HTTP 为 host:port（路径固定为 /v1/traces）。
	Endpoint string            `json:"endpoint" mapstructure:"endpoint"`
	Insecure bool              `json:"insecure" mapstructure:"insecure"`
	Headers  map[string]string `json:"headers" mapstructure:"headers"`

	SamplerType  SamplerType `json:"sampler-type" mapstructure:"sampler-type"`
	SamplerRatio float64     `json:"sampler-ratio" mapstructure:"sampler-ratio"`

	BatchTimeout  time.Duration `json:"batch-timeout" mapstructure:"batch-timeout"`
	BatchMaxSize  int           `json:"batch-max-size" mapstructure:"batch-max-size"`
	ExportTimeout time.Duration `json:"export-timeout" mapstructure:"export-timeout"`
	MaxQueueSize  int           `json:"max-queue-size" mapstructure:"max-queue-size"`
}

// NewOptions creates tracing options. Tracing is off until enabled explicitly.
func NewOptions() *Options {
	return &Options{
		ServiceName:   "loan-advisor",
		Environment:   "development",
		ExporterType:  ExporterOTLPGRPC,
		Endpoint:      "localhost:4317",
		Insecure:      true,
		Headers:       map[string]string{},
		SamplerType:   SamplerParentBased,
		SamplerRatio:  1.0,
		BatchTimeout:  5 * time.Second,
		BatchMaxSize:  512,
		ExportTimeout: 30 * time.Second,
		MaxQueueSize:  2048,
	}
}

// AddFlags adds flags for tracing options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "tracing."
	fs.BoolVar(&o.Enabled, p+"enabled", o.Enabled, "Export OpenTelemetry spans.")
	fs.StringVar(&o.ServiceName, p+"service-name", o.ServiceName, "service.name resource attribute.")
	fs.StringVar(&o.ServiceVersion, p+"service-version", o.ServiceVersion, "service.version resource attribute; empty uses the build version.")
	fs.StringVar(&o.Environment, p+"environment", o.Environment, "deployment.environment resource attribute.")
	fs.StringVar((*string)(&o.ExporterType), p+"exporter-type", string(o.ExporterType), "Span exporter: otlp_grpc, otlp_http, stdout or noop.")
	fs.StringVar(&o.Endpoint, p+"endpoint", o.Endpoint, "OTLP collector endpoint.")
	fs.BoolVar(&o.Insecure, p+"insecure", o.Insecure, "Connect to the OTLP collector without TLS.")
	fs.StringToStringVar(&o.Headers, p+"headers", o.Headers, "Extra headers sent to the OTLP collector.")
	fs.StringVar((*string)(&o.SamplerType), p+"sampler-type", string(o.SamplerType), "Sampler: always_on, always_off, ratio or parent_based.")
	fs.Float64Var(&o.SamplerRatio, p+"sampler-ratio", o.SamplerRatio, "Sampling ratio between 0 and 1.")
	fs.DurationVar(&o.BatchTimeout, p+"batch-timeout", o.BatchTimeout, "Maximum delay before a span batch is exported.")
	fs.IntVar(&o.BatchMaxSize, p+"batch-max-size", o.BatchMaxSize, "Maximum spans per exported batch.")
	fs.DurationVar(&o.ExportTimeout, p+"export-timeout", o.ExportTimeout, "Timeout of a single export call.")
	fs.IntVar(&o.MaxQueueSize, p+"max-queue-size", o.MaxQueueSize, "Maximum spans queued for export.")
}

// Complete normalizes the exporter and sampler names.
func (o *Options) Complete() error {
	o.ExporterType = ExporterType(strings.ToLower(strings.TrimSpace(string(o.ExporterType))))
	o.SamplerType = SamplerType(strings.ToLower(strings.TrimSpace(string(o.SamplerType))))
	if o.Headers == nil {
		o.Headers = map[string]string{}
	}
	return nil
}

// Validate validates the tracing options. Disabled tracing is always valid.
func (o *Options) Validate() []error {
	if o == nil || !o.Enabled {
		return nil
	}

	var errs []error
	if o.ServiceName == "" {
		errs = append(errs, fmt.Errorf("tracing.service-name is required"))
	}
	switch o.ExporterType {
	case ExporterOTLPGRPC, ExporterOTLPHTTP:
		if o.Endpoint == "" {
			errs = append(errs, fmt.Errorf("tracing.endpoint is required for exporter %s", o.ExporterType))
		}
	case ExporterStdout, ExporterNoop:
	default:
		errs = append(errs, fmt.Errorf("tracing.exporter-type %q is not supported", o.ExporterType))
	}
	switch o.SamplerType {
	case SamplerAlwaysOn, SamplerAlwaysOff, SamplerRatio, SamplerParentBased:
	default:
		errs = append(errs, fmt.Errorf("tracing.sampler-type %q is not supported", o.SamplerType))
	}
	if o.SamplerRatio < 0 || o.SamplerRatio > 1 {
		errs = append(errs, fmt.Errorf("tracing.sampler-ratio must be between 0 and 1, got %g", o.SamplerRatio))
	}
	if o.BatchTimeout <= 0 || o.ExportTimeout <= 0 {
		errs = append(errs, fmt.Errorf("tracing.batch-timeout and tracing.export-timeout must be positive"))
	}
	if o.BatchMaxSize <= 0 || o.MaxQueueSize < o.BatchMaxSize {
		errs = append(errs, fmt.Errorf("tracing.max-queue-size must be at least tracing.batch-max-size (> 0)"))
	}
	return errs
}
