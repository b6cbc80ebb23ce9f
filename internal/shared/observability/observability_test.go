package observability

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"idlbind/internal/core/errors"
)

func TestRecordTotals(t *testing.T) {
	RecordTotals(3, 12, 2)
	assert.Equal(t, 3.0, testutil.ToFloat64(Modules))
	assert.Equal(t, 12.0, testutil.ToFloat64(Symbols))
	assert.Equal(t, 2.0, testutil.ToFloat64(BoundaryTypes))
}

func TestRecordFailureByCode(t *testing.T) {
	cyclic := Failures.WithLabelValues(string(errors.CodeCyclicAlias))
	internal := Failures.WithLabelValues(string(errors.CodeInternal))
	beforeCyclic := testutil.ToFloat64(cyclic)
	beforeInternal := testutil.ToFloat64(internal)

	RecordFailure(errors.New(errors.CodeCyclicAlias, "loop"))
	RecordFailure(os.ErrNotExist)
	RecordFailure(nil)

	assert.Equal(t, beforeCyclic+1, testutil.ToFloat64(cyclic))
	assert.Equal(t, beforeInternal+1, testutil.ToFloat64(internal))
}

func TestWriteMetrics(t *testing.T) {
	ObservePass("resolve", 20*time.Millisecond)
	path := filepath.Join(t.TempDir(), "idlbind.prom")
	require.NoError(t, WriteMetrics(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, `idlbind_pass_seconds_count{pass="resolve"}`), text)
	assert.Contains(t, text, "idlbind_modules_total")
}

func TestSetupTracingWithoutEndpoint(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), "", "idlbind")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestTracerDelegatesToInstalledProvider(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := Tracer.Start(context.Background(), "resolve")
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "resolve", spans[0].Name)
}
