package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestObservability(t *testing.T) (*Observability, *prom.Registry, *tracetest.SpanRecorder) {
	t.Helper()
	reg := prom.NewRegistry()
	spans := tracetest.NewSpanRecorder()
	obs := New("firefighter-nlp-test", WithRegisterer(reg), WithSpanProcessor(spans), WithoutGlobals())
	t.Cleanup(obs.Shutdown)
	return obs, reg, spans
}

func findFamily(t *testing.T, reg *prom.Registry, prefix string) bool {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if strings.HasPrefix(strings.ReplaceAll(f.GetName(), ".", "_"), prefix) {
			return true
		}
	}
	return false
}

func TestObservability_RecordQueryExports(t *testing.T) {
	obs, reg, _ := newTestObservability(t)

	obs.RecordQuery("user", "success", 12*time.Millisecond)
	obs.RecordJobProcessed(context.Background(), "nlp-process-query", "completed")
	obs.RecordJobDuration(context.Background(), "nlp-process-query", 40*time.Millisecond, "completed")

	assert.True(t, findFamily(t, reg, "nlp_pipeline_queries"))
	assert.True(t, findFamily(t, reg, "jobs_processed"))
}

func TestObservability_StartSpan(t *testing.T) {
	obs, _, spans := newTestObservability(t)

	ctx, span := obs.StartSpan(context.Background(), "nlp.process", attribute.String("path", "admin"))
	require.NotNil(t, ctx)
	span.End()

	ended := spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "nlp.process", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.String("path", "admin"))
}

func TestObservability_NilReceiverIsSafe(t *testing.T) {
	var obs *Observability

	assert.NotPanics(t, func() {
		_, span := obs.StartSpan(context.Background(), "noop")
		span.End()
		obs.RecordQuery("user", "success", time.Millisecond)
		obs.RecordJobProcessed(context.Background(), "t", "completed")
		obs.Shutdown()
	})
}
