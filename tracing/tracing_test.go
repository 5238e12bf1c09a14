package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-gotop/rtbridge/conf"
)

func TestStdoutExporter(t *testing.T) {
	var buf bytes.Buffer
	ctx := context.Background()
	tp, err := NewTracerProvider(ctx, conf.Trace{Exporter: ExporterStdout}, WithWriter(&buf), WithService("rtbridge-test"))
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(ctx, "openapi.SymbolByIDReq")
	span.End()
	require.NoError(t, tp.Shutdown(ctx))

	assert.Contains(t, buf.String(), "openapi.SymbolByIDReq")
	assert.Contains(t, buf.String(), "rtbridge-test")
}

func TestNoExporter(t *testing.T) {
	ctx := context.Background()
	tp, err := NewTracerProvider(ctx, conf.Trace{})
	require.NoError(t, err)
	_, span := tp.Tracer("test").Start(ctx, "noop")
	assert.True(t, span.SpanContext().IsValid())
	span.End()
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestRemoteExporters(t *testing.T) {
	ctx := context.Background()
	for _, c := range []conf.Trace{
		{Exporter: ExporterZipkin, Endpoint: "http://127.0.0.1:9411/api/v2/spans"},
		{Exporter: ExporterOTLPHTTP, Endpoint: "127.0.0.1:4318", Insecure: true},
	} {
		tp, err := NewTracerProvider(ctx, c)
		require.NoError(t, err, c.Exporter)
		assert.NotNil(t, tp)
		_ = tp.Shutdown(ctx)
	}
}

func TestUnknownExporter(t *testing.T) {
	_, err := NewTracerProvider(context.Background(), conf.Trace{Exporter: "jaeger"})
	assert.Error(t, err)
}
