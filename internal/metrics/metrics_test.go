package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestMetrics(t *testing.T) {
	m := New()

	m.CallbackOutcome("success")
	m.CallbackOutcome("success")
	m.CallbackOutcome("missing_email")
	m.UserCreated()
	m.ObserveUpstream("token", 120*time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, `oauth_login_callbacks_total{outcome="success"} 2`)
	assert.Contains(t, body, `oauth_login_callbacks_total{outcome="missing_email"} 1`)
	assert.Contains(t, body, `oauth_login_users_created_total 1`)
	assert.Contains(t, body, `oauth_login_upstream_request_duration_seconds_count{stage="token"} 1`)
	assert.Contains(t, body, `oauth_login_upstream_request_duration_seconds_bucket{stage="token",le="0.25"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestNew_IsolatedRegistries(t *testing.T) {
	a, b := New(), New()
	a.UserCreated()

	assert.Contains(t, scrape(t, a), "oauth_login_users_created_total 1")
	assert.Contains(t, scrape(t, b), "oauth_login_users_created_total 0")
}
