package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	m := New()
	m.ObserveRequest("GET", "GET /api/groups", 200, 10*time.Millisecond)
	m.ObserveRequest("GET", "GET /api/groups", 200, 20*time.Millisecond)
	m.ObserveRequest("GET", "GET /api/groups", 403, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "GET /api/groups", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "GET /api/groups", "403")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.requestDuration))
}

func TestDomainCounters(t *testing.T) {
	m := New()
	m.UserRegistered()
	m.TransactionWritten("create")
	m.TransactionWritten("create")
	m.TransactionWritten("delete")
	m.SplitRejected("sum_mismatch")
	m.InvitationAccepted()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.usersRegistered))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.transactionsWritten.WithLabelValues("create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transactionsWritten.WithLabelValues("delete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.splitRejections.WithLabelValues("sum_mismatch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.invitationsAccepted))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("GET", "/", 200, time.Millisecond)
		m.UserRegistered()
		m.TransactionWritten("create")
		m.SplitRejected("negative")
		m.InvitationAccepted()
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.UserRegistered()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "multiexpenses_users_registered_total 1")
}
