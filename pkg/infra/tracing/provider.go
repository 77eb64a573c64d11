package tracing

import (
	"context"
	"fmt"
	"os"

	"github.com/kart-io/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc/credentials/insecure"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

// Provider 持有进程级的 TracerProvider，Shutdown 时导出剩余的 span。
type Provider struct {
	tp      *sdktrace.TracerProvider
	enabled bool
}

// exporterFactory 根据配置创建 span 导出器；返回 nil 表示不导出。
type exporterFactory func(ctx context.Context, opts *Options) (sdktrace.SpanExporter, error)

var exporters = map[ExporterType]exporterFactory{
	ExporterOTLPGRPC: func(ctx context.Context, opts *Options) (sdktrace.SpanExporter, error) {
		clientOpts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(opts.Endpoint),
			otlptracegrpc.WithHeaders(opts.Headers),
		}
		if opts.Insecure {
			clientOpts = append(clientOpts, otlptracegrpc.WithTLSCredentials(insecure.NewCredentials()))
		}
		return otlptrace.New(ctx, otlptracegrpc.NewClient(clientOpts...))
	},
	ExporterOTLPHTTP: func(ctx context.Context, opts *Options) (sdktrace.SpanExporter, error) {
		clientOpts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(opts.Endpoint),
			otlptracehttp.WithHeaders(opts.Headers),
		}
		if opts.Insecure {
			clientOpts = append(clientOpts, otlptracehttp.WithInsecure())
		}
		return otlptrace.New(ctx, otlptracehttp.NewClient(clientOpts...))
	},
	ExporterStdout: func(context.Context, *Options) (sdktrace.SpanExporter, error) {
		return stdouttrace.New(stdouttrace.WithWriter(os.Stdout))
	},
	ExporterNoop: func(context.Context, *Options) (sdktrace.SpanExporter, error) {
		return nil, nil
	},
}

// NewProvider 创建 TracerProvider 并注册为全局实现，同时安装 W3C trace context 传播器。
// 未启用时返回空 Provider，全局 TracerProvider 保持 otel 默认的 noop 实现。
func NewProvider(ctx context.Context, opts *Options) (*Provider, error) {
	if opts == nil || !opts.Enabled {
		return &Provider{}, nil
	}
	if errs := opts.Validate(); len(errs) > 0 {
		return nil, utilerrors.NewAggregate(errs)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(opts.ServiceName),
			semconv.ServiceVersion(opts.ServiceVersion),
			semconv.DeploymentEnvironment(opts.Environment),
		),
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
	)
	if err != nil {
		return nil, fmt.Errorf("tracing resource: %w", err)
	}

	exporter, err := exporters[opts.ExporterType](ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("tracing exporter %s: %w", opts.ExporterType, err)
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(opts)),
	}
	if exporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(opts.BatchTimeout),
			sdktrace.WithMaxExportBatchSize(opts.BatchMaxSize),
			sdktrace.WithExportTimeout(opts.ExportTimeout),
			sdktrace.WithMaxQueueSize(opts.MaxQueueSize),
		))
	}
	tp := sdktrace.NewTracerProvider(tpOpts...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Infow("Tracing exporter configured",
		"exporter", string(opts.ExporterType),
		"endpoint", opts.Endpoint,
		"sampler", string(opts.SamplerType),
	)
	return &Provider{tp: tp, enabled: true}, nil
}

// Enabled reports whether spans are recorded by an SDK provider.
func (p *Provider) Enabled() bool {
	return p.enabled
}

// ForceFlush exports all finished spans immediately.
func (p *Provider) ForceFlush(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}
	return p.tp.ForceFlush(ctx)
}

// Shutdown flushes pending spans and stops the exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}

func newSampler(opts *Options) sdktrace.Sampler {
	switch opts.SamplerType {
	case SamplerAlwaysOn:
		return sdktrace.AlwaysSample()
	case SamplerAlwaysOff:
		return sdktrace.NeverSample()
	case SamplerRatio:
		return sdktrace.TraceIDRatioBased(opts.SamplerRatio)
	default:
		// 根 span 按比例采样，子 span 跟随上游决定
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(opts.SamplerRatio))
	}
}
