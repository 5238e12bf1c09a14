// Package tracing 按配置创建 OpenTelemetry TracerProvider
package tracing

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/go-gotop/rtbridge/conf"
)

const (
	ExporterStdout   = "stdout"
	ExporterOTLPGRPC = "otlpgrpc"
	ExporterOTLPHTTP = "otlphttp"
	ExporterZipkin   = "zipkin"
)

type Option func(*options)

type options struct {
	writer  io.Writer
	service string
}

// WithWriter stdout 导出器的输出
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

func WithService(name string) Option {
	return func(o *options) {
		o.service = name
	}
}

// NewTracerProvider Exporter 为空时只创建 span 不导出
func NewTracerProvider(ctx context.Context, c conf.Trace, opts ...Option) (*sdktrace.TracerProvider, error) {
	o := &options{writer: os.Stdout, service: "rtbridge"}
	for _, opt := range opts {
		opt(o)
	}

	ratio := c.SampleRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}
	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", o.service))),
	}

	exp, err := newExporter(ctx, c, o)
	if err != nil {
		return nil, err
	}
	if exp != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exp))
	}
	return sdktrace.NewTracerProvider(tpOpts...), nil
}

func newExporter(ctx context.Context, c conf.Trace, o *options) (sdktrace.SpanExporter, error) {
	switch c.Exporter {
	case "":
		return nil, nil
	case ExporterStdout:
		return stdouttrace.New(stdouttrace.WithWriter(o.writer))
	case ExporterOTLPGRPC:
		copts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(c.Endpoint)}
		if c.Insecure {
			copts = append(copts, otlptracegrpc.WithInsecure())
		}
		return otlptrace.New(ctx, otlptracegrpc.NewClient(copts...))
	case ExporterOTLPHTTP:
		hopts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(c.Endpoint)}
		if c.Insecure {
			hopts = append(hopts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, hopts...)
	case ExporterZipkin:
		return zipkin.New(c.Endpoint)
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", c.Exporter)
	}
}
