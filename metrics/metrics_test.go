package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-calendar/ledger"
	"github.com/warp/leave-calendar/metrics"
)

func TestCollector_LedgerActivity(t *testing.T) {
	c := metrics.New()

	c.LedgerDerived(nil)
	c.LedgerDerived([]ledger.Warning{
		{Code: ledger.WarnAmbiguousConsumption},
		{Code: ledger.WarnUnresolvedReference},
		{Code: ledger.WarnUnresolvedReference},
	})
	c.Claimed(3, 2)
	c.Claimed(3, 0)

	body := scrape(t, c)

	assert.Contains(t, body, "leavecal_ledger_derivations_total 2")
	assert.Contains(t, body, `leavecal_ledger_warnings_total{code="ambiguous_consumption"} 1`)
	assert.Contains(t, body, `leavecal_ledger_warnings_total{code="unresolved_reference"} 2`)
	assert.Contains(t, body, "leavecal_ledger_claims_total 2")
	assert.Contains(t, body, "leavecal_ledger_claimed_credits_total 2")
}

func TestCollector_Handler(t *testing.T) {
	c := metrics.New()
	c.ObserveRequest("/events", http.MethodGet, http.StatusOK, 5*time.Millisecond)

	body := scrape(t, c)

	assert.Contains(t, body, `leavecal_http_requests_total{method="GET",route="/events",status="200"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func scrape(t *testing.T, c *metrics.Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}
