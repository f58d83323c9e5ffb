package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutationCounter(t *testing.T) {
	m := New()
	m.Mutation("create_item", ResultOK)
	m.Mutation("create_item", ResultOK)
	m.Mutation("create_item", ResultInvalid)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.mutations.WithLabelValues("create_item", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("create_item", ResultInvalid)))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Mutation("x", ResultOK)
	m.Request("GET", 200, time.Millisecond)
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.Request("GET", 200, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `auditmagic_http_requests_total{code="200",method="GET"} 1`), body)
	assert.Contains(t, body, "auditmagic_http_request_duration_seconds")
}
