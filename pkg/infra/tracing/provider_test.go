package tracing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestOptionsValidate(t *testing.T) {
	enabled := func() *Options {
		o := NewOptions()
		o.Enabled = true
		return o
	}

	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr int
	}{
		{"defaults", func(*Options) {}, 0},
		{"missing service name", func(o *Options) { o.ServiceName = "" }, 1},
		{"missing otlp endpoint", func(o *Options) { o.Endpoint = "" }, 1},
		{"stdout needs no endpoint", func(o *Options) { o.ExporterType = ExporterStdout; o.Endpoint = "" }, 0},
		{"unknown exporter", func(o *Options) { o.ExporterType = "zipkin" }, 1},
		{"unknown sampler", func(o *Options) { o.SamplerType = "sometimes" }, 1},
		{"ratio out of range", func(o *Options) { o.SamplerRatio = 1.5 }, 1},
		{"queue smaller than batch", func(o *Options) { o.MaxQueueSize = 10 }, 1},
		{"several problems", func(o *Options) { o.ServiceName = ""; o.BatchTimeout = 0 }, 2},
		{"disabled skips checks", func(o *Options) { o.Enabled = false; o.ServiceName = "" }, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := enabled()
			tt.mutate(o)
			assert.Len(t, o.Validate(), tt.wantErr)
		})
	}
}

func TestCompleteNormalizes(t *testing.T) {
	o := NewOptions()
	o.ExporterType = " OTLP_HTTP "
	o.SamplerType = "Ratio"
	o.Headers = nil

	require.NoError(t, o.Complete())
	assert.Equal(t, ExporterOTLPHTTP, o.ExporterType)
	assert.Equal(t, SamplerRatio, o.SamplerType)
	assert.NotNil(t, o.Headers)
}

func TestNewProviderDisabled(t *testing.T) {
	p, err := NewProvider(context.Background(), NewOptions())
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.NoError(t, p.ForceFlush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProviderRejectsInvalidOptions(t *testing.T) {
	opts := NewOptions()
	opts.Enabled = true
	opts.ExporterType = "zipkin"

	_, err := NewProvider(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zipkin")
}

func TestNewProviderNoopExporter(t *testing.T) {
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})

	opts := NewOptions()
	opts.Enabled = true
	opts.ExporterType = ExporterNoop
	opts.BatchTimeout = 10 * time.Millisecond

	p, err := NewProvider(context.Background(), opts)
	require.NoError(t, err)
	assert.True(t, p.Enabled())

	ctx, span := StartSpan(context.Background(), "test", "op")
	assert.NotEmpty(t, TraceIDFromContext(ctx))
	span.End()

	require.NoError(t, p.ForceFlush(context.Background()))
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestRecordErrorMarksSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	assert.NotEmpty(t, TraceIDFromContext(ctx))
	RecordError(ctx, errors.New("boom"))
	RecordError(ctx, nil)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "boom", ended[0].Status().Description)
	assert.Empty(t, TraceIDFromContext(context.Background()))
}

func TestInjectHeadersPropagatesTraceContext(t *testing.T) {
	prevProp := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prevProp) })

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	header := make(map[string][]string)
	InjectHeaders(ctx, header)
	require.Len(t, header["Traceparent"], 1)
	assert.Contains(t, header["Traceparent"][0], TraceIDFromContext(ctx))
}
