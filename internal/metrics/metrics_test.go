package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveMutation("item", "remove", nil)
		m.ObserveRollback("item", "remove")
		m.ObserveInvite("accept", errors.New("x"))
		m.ObserveLinkOpens("cheapest", 2)
		m.ObserveHTTP("/api/lists", http.MethodGet, 200, time.Millisecond)
	})
}

func TestCountersAndHandler(t *testing.T) {
	m := New()
	m.ObserveMutation("item", "remove", errors.New("boom"))
	m.ObserveMutation("item", "remove", nil)
	m.ObserveRollback("item", "remove")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("item", "remove", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("item", "remove", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rollbacks.WithLabelValues("item", "remove")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "giftsync_store_rollbacks_total")
}
