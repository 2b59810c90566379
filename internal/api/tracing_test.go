package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/mesh-intelligence/workbench/internal/sqlite"
	"github.com/mesh-intelligence/workbench/pkg/types"
)

// setupTestTracer installs an in-memory tracer provider for the test.
func setupTestTracer(t *testing.T) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
	)
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return tp, exporter
}

func attributesToMap(attrs []attribute.KeyValue) map[string]any {
	out := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		out[string(kv.Key)] = kv.Value.AsInterface()
	}
	return out
}

func spanNamed(t *testing.T, spans tracetest.SpanStubs, name string) tracetest.SpanStub {
	t.Helper()
	for _, s := range spans {
		if s.Name == name {
			return s
		}
	}
	require.Failf(t, "span not recorded", "no span %q among %d", name, len(spans))
	return tracetest.SpanStub{}
}

func TestTracing_RequestAndStoreSpans(t *testing.T) {
	tp, exporter := setupTestTracer(t)
	ts := newTestServer(t, Options{})
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/tasks", validTask).Code)
	exporter.Reset()

	rec := ts.do(t, http.MethodGet, "/api/tasks/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, tp.ForceFlush(context.Background()))

	spans := exporter.GetSpans()
	server := spanNamed(t, spans, "GET /api/tasks/:id")
	attrs := attributesToMap(server.Attributes)
	assert.Equal(t, "/api/tasks/:id", attrs["http.route"])
	assert.Equal(t, int64(http.StatusOK), attrs["http.response.status_code"])
	assert.Equal(t, rec.Header().Get("X-Request-Id"), attrs["workbench.request_id"])
	assert.NotEqual(t, codes.Error, server.Status.Code)

	for _, op := range []string{"GetTaskByID", "GetSubtasksByTaskID", "GetCommentsByTaskID", "GetRequirementsByTaskID"} {
		child := spanNamed(t, spans, "store."+op)
		assert.Equal(t, server.SpanContext.SpanID(), child.Parent.SpanID(), op)
		assert.Equal(t, server.SpanContext.TraceID(), child.SpanContext.TraceID(), op)

		childAttrs := attributesToMap(child.Attributes)
		assert.Equal(t, op, childAttrs["workbench.store.op"])
		assert.Equal(t, int64(1), childAttrs["workbench.id"])
	}
}

func TestTracing_NotFoundIsNotAnError(t *testing.T) {
	tp, exporter := setupTestTracer(t)
	ts := newTestServer(t, Options{})

	require.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/tasks/9", "").Code)
	require.NoError(t, tp.ForceFlush(context.Background()))

	spans := exporter.GetSpans()
	get := spanNamed(t, spans, "store.GetTaskByID")
	assert.Equal(t, codes.Unset, get.Status.Code)
	assert.Equal(t, true, attributesToMap(get.Attributes)["workbench.not_found"])

	server := spanNamed(t, spans, "GET /api/tasks/:id")
	assert.Equal(t, int64(http.StatusNotFound), attributesToMap(server.Attributes)["http.response.status_code"])
	assert.NotEqual(t, codes.Error, server.Status.Code)
}

func TestTracing_RejectedInput(t *testing.T) {
	tp, exporter := setupTestTracer(t)
	ts := newTestServer(t, Options{})

	require.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/api/tasks/7/subtasks", `{"text":"s"}`).Code)
	require.NoError(t, tp.ForceFlush(context.Background()))

	create := spanNamed(t, exporter.GetSpans(), "store.CreateSubtask")
	assert.Equal(t, codes.Unset, create.Status.Code)
	assert.Equal(t, true, attributesToMap(create.Attributes)["workbench.rejected"])
}

func TestTracing_BackendFailure(t *testing.T) {
	tp, exporter := setupTestTracer(t)

	b, err := sqlite.Open(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, b.Close())
	logger, _ := test.NewNullLogger()
	e := New(b, logger, Options{})
	ts := &testServer{e: e}

	require.Equal(t, http.StatusInternalServerError, ts.do(t, http.MethodGet, "/api/tasks", "").Code)
	require.NoError(t, tp.ForceFlush(context.Background()))

	spans := exporter.GetSpans()
	list := spanNamed(t, spans, "store.GetAllTasks")
	assert.Equal(t, codes.Error, list.Status.Code)
	require.NotEmpty(t, list.Events)
	assert.Equal(t, "exception", list.Events[0].Name)

	server := spanNamed(t, spans, "GET /api/tasks")
	assert.Equal(t, codes.Error, server.Status.Code)
}

func TestTraceStore_WrapsOnce(t *testing.T) {
	ts := newTestServer(t, Options{})
	once := traceStore(ts.store)
	assert.Equal(t, once, traceStore(once))
}
